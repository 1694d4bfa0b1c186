package biz

import (
	"context"
	"fmt"
	"math"
	"time"

	"SearchLane/internal/metrics"
	pkglog "SearchLane/pkg/log"
	"SearchLane/pkg/ranking"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a SearchJob.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// CancelledByUser is the error message recorded on cancelled jobs.
const CancelledByUser = "Cancelled by user"

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Cancellable reports whether a job in this status may be cancelled.
func (s JobStatus) Cancellable() bool {
	return s == JobStatusQueued || s == JobStatusProcessing
}

// CancellableStatuses lists the statuses a conditional cancel may start from.
var CancellableStatuses = []JobStatus{JobStatusQueued, JobStatusProcessing}

var (
	// ErrJobNotFound is returned for an unknown job id.
	ErrJobNotFound = errors.NotFound("JOB_NOT_FOUND", "Search job not found")
)

// ErrInvalidArgument builds a 400 validation error.
func ErrInvalidArgument(msg string) *errors.Error {
	return errors.BadRequest("INVALID_ARGUMENT", msg)
}

// ErrJobNotCancellable is returned when cancelling a job in a terminal status.
func ErrJobNotCancellable(status JobStatus) *errors.Error {
	return errors.BadRequest("JOB_NOT_CANCELLABLE", fmt.Sprintf("Cannot cancel job with status: %s", status)).
		WithMetadata(map[string]string{"status": string(status)})
}

// SearchJob is one submission of a query against a candidate set.
type SearchJob struct {
	ID              string
	UserID          int64
	Query           string
	Algorithm       string
	Status          JobStatus
	Results         []ranking.Result
	ResultsCount    int
	ExecutionTimeMs *int64
	ErrorMessage    string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// TopResult returns the best scored result, if any.
func (j *SearchJob) TopResult() *ranking.Result {
	if len(j.Results) == 0 {
		return nil
	}
	top := j.Results[0]
	return &top
}

// AvgRelevance returns the mean relevance score, if there are results.
func (j *SearchJob) AvgRelevance() *float64 {
	if len(j.Results) == 0 {
		return nil
	}
	var sum float64
	for _, r := range j.Results {
		sum += r.RelevanceScore
	}
	avg := sum / float64(len(j.Results))
	return &avg
}

// JobFilter selects a page of a user's jobs.
type JobFilter struct {
	UserID    int64
	Status    JobStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PerPage   int
}

// Offset returns the row offset of the filter's page.
func (f *JobFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes page metadata for total items.
func NewPagination(page, perPage int, total int64) Pagination {
	pages := 0
	if perPage > 0 {
		pages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
		TotalItems: total,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// SearchJobRepo persists search jobs.
// Following Kratos v2 DDD architecture, interfaces are defined in biz layer
// and implemented in data layer (data.searchJobRepo).
type SearchJobRepo interface {
	CreateJob(ctx context.Context, job *SearchJob) error
	// SaveJob writes the mutable fields of an existing job.
	SaveJob(ctx context.Context, job *SearchJob) error
	// GetJob returns ErrJobNotFound for an unknown id.
	GetJob(ctx context.Context, id string) (*SearchJob, error)
	ListJobs(ctx context.Context, filter *JobFilter) ([]*SearchJob, int64, error)
	// CancelJob atomically moves a queued or processing job to cancelled.
	// It returns false when the job was no longer cancellable.
	CancelJob(ctx context.Context, id string, completedAt time.Time) (bool, error)
}

// SubmitJobRequest is the input of SearchJobUsecase.Submit.
type SubmitJobRequest struct {
	UserID     int64
	Query      string
	Candidates []ranking.Candidate
	Algorithm  string
}

// SearchJobUsecase owns the search job state machine.
//
// Submission is synchronous: a job is created in processing, ranked, and
// resolved to completed or failed before Submit returns. Retry only creates a
// queued copy; nothing executes queued jobs.
type SearchJobUsecase struct {
	repo     SearchJobRepo
	registry *ranking.Registry
	clock    Clock
	newID    func() string
	log      *log.Helper
	jobLog   *pkglog.LogHelper
}

// NewSearchJobUsecase creates a SearchJobUsecase.
func NewSearchJobUsecase(repo SearchJobRepo, registry *ranking.Registry, logger log.Logger) *SearchJobUsecase {
	return &SearchJobUsecase{
		repo:     repo,
		registry: registry,
		clock:    SystemClock,
		newID:    uuid.NewString,
		log:      log.NewHelper(log.With(logger, "module", "biz/search_job")),
		jobLog:   pkglog.NewLogHelper(logger),
	}
}

// Algorithms lists the registered ranking strategies.
func (uc *SearchJobUsecase) Algorithms() []string {
	return uc.registry.List()
}

// Submit validates the request, runs the selected strategy and returns the
// resolved job. A ranking failure yields a failed job, not an error.
func (uc *SearchJobUsecase) Submit(ctx context.Context, req *SubmitJobRequest) (*SearchJob, error) {
	if req == nil {
		return nil, ErrInvalidArgument("Request body required")
	}
	if req.UserID <= 0 {
		return nil, ErrInvalidArgument("user_id is required")
	}
	// 仅拒绝空查询，原样保留首尾空白用于排序和存储
	query := req.Query
	if query == "" {
		return nil, ErrInvalidArgument("query is required")
	}
	if len(req.Candidates) == 0 {
		return nil, ErrInvalidArgument("videos list is required")
	}

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = ranking.TextSearchName
	}

	started := uc.clock.Now()
	job := &SearchJob{
		ID:        uc.newID(),
		UserID:    req.UserID,
		Query:     query,
		Algorithm: algorithm,
		Status:    JobStatusProcessing,
		CreatedAt: started,
		StartedAt: &started,
	}
	if err := uc.repo.CreateJob(ctx, job); err != nil {
		uc.log.WithContext(ctx).Errorw("msg", "failed to create search job", "user_id", req.UserID, "error", err)
		return nil, errors.InternalServer("INTERNAL", "failed to create search job").WithCause(err)
	}
	uc.jobLog.Job(ctx, "search job started", job.ID, string(job.Status),
		"algorithm", algorithm, "candidates", len(req.Candidates))

	strategy := uc.registry.Get(algorithm)
	rankStarted := uc.clock.Now()
	results, rankErr := rank(strategy, query, req.Candidates)

	finished := uc.clock.Now()
	job.CompletedAt = &finished
	if rankErr != nil {
		job.Status = JobStatusFailed
		job.ErrorMessage = rankErr.Error()
	} else {
		elapsed := finished.Sub(rankStarted).Milliseconds()
		job.Status = JobStatusCompleted
		job.Results = results
		job.ResultsCount = len(results)
		job.ExecutionTimeMs = &elapsed
	}

	metrics.SearchJobs.WithLabelValues(strategy.Name(), string(job.Status)).Inc()
	metrics.SearchJobDuration.WithLabelValues(strategy.Name()).Observe(finished.Sub(rankStarted).Seconds())

	if err := uc.repo.SaveJob(ctx, job); err != nil {
		uc.log.WithContext(ctx).Errorw("msg", "failed to save search job", "job_id", job.ID, "status", job.Status, "error", err)
		return nil, errors.InternalServer("INTERNAL", "failed to save search job").WithCause(err)
	}

	if job.Status == JobStatusFailed {
		uc.log.WithContext(ctx).Warnw("msg", "search job failed", "job_id", job.ID, "algorithm", algorithm, "error", job.ErrorMessage)
	} else {
		uc.jobLog.Job(ctx, "search job completed", job.ID, string(job.Status),
			"results_count", job.ResultsCount, "execution_time_ms", *job.ExecutionTimeMs)
	}
	return job, nil
}

// rank runs the strategy, converting a panic into an error.
func rank(strategy ranking.Strategy, query string, candidates []ranking.Candidate) (results []ranking.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return strategy.Search(query, candidates), nil
}

// GetJob returns a job by id.
func (uc *SearchJobUsecase) GetJob(ctx context.Context, id string) (*SearchJob, error) {
	if id == "" {
		return nil, ErrJobNotFound
	}
	job, err := uc.repo.GetJob(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrJobNotFound
		}
		uc.log.WithContext(ctx).Errorw("msg", "failed to get search job", "job_id", id, "error", err)
		return nil, errors.InternalServer("INTERNAL", "failed to get search job").WithCause(err)
	}
	return job, nil
}

// ListJobs returns one page of a user's jobs, newest first.
func (uc *SearchJobUsecase) ListJobs(ctx context.Context, filter *JobFilter) ([]*SearchJob, Pagination, error) {
	if filter == nil || filter.UserID <= 0 {
		return nil, Pagination{}, ErrInvalidArgument("user_id is required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, Pagination{}, ErrInvalidArgument(fmt.Sprintf("invalid status: %s", filter.Status))
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}

	jobs, total, err := uc.repo.ListJobs(ctx, filter)
	if err != nil {
		uc.log.WithContext(ctx).Errorw("msg", "failed to list search jobs", "user_id", filter.UserID, "error", err)
		return nil, Pagination{}, errors.InternalServer("INTERNAL", "failed to list search jobs").WithCause(err)
	}
	return jobs, NewPagination(filter.Page, filter.PerPage, total), nil
}

// RetryJob creates a new queued job copying the original's user, query and
// algorithm. The original job is not modified.
func (uc *SearchJobUsecase) RetryJob(ctx context.Context, id string) (original *SearchJob, retried *SearchJob, err error) {
	original, err = uc.GetJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	retried = &SearchJob{
		ID:        uc.newID(),
		UserID:    original.UserID,
		Query:     original.Query,
		Algorithm: original.Algorithm,
		Status:    JobStatusQueued,
		CreatedAt: uc.clock.Now(),
	}
	if err := uc.repo.CreateJob(ctx, retried); err != nil {
		uc.log.WithContext(ctx).Errorw("msg", "failed to create retry job", "original_job_id", id, "error", err)
		return nil, nil, errors.InternalServer("INTERNAL", "failed to create retry job").WithCause(err)
	}

	// TODO: queued retries stay queued until a worker consumes them; no worker exists yet.
	uc.jobLog.Job(ctx, "search job retry queued", retried.ID, string(retried.Status), "original_job_id", id)
	return original, retried, nil
}

// CancelJob cancels a queued or processing job. Cancelling only records the
// status; it cannot interrupt a ranking run that is already executing.
func (uc *SearchJobUsecase) CancelJob(ctx context.Context, id string) (*SearchJob, error) {
	job, err := uc.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.Status.Cancellable() {
		return nil, ErrJobNotCancellable(job.Status)
	}

	now := uc.clock.Now()
	ok, err := uc.repo.CancelJob(ctx, id, now)
	if err != nil {
		uc.log.WithContext(ctx).Errorw("msg", "failed to cancel search job", "job_id", id, "error", err)
		return nil, errors.InternalServer("INTERNAL", "failed to cancel search job").WithCause(err)
	}
	if !ok {
		// 并发情况下任务已进入终态
		latest, err := uc.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, ErrJobNotCancellable(latest.Status)
	}

	job.Status = JobStatusCancelled
	job.ErrorMessage = CancelledByUser
	job.CompletedAt = &now
	uc.jobLog.Job(ctx, "search job cancelled", job.ID, string(job.Status))
	return job, nil
}
