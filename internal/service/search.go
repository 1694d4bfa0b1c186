package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SearchLane/internal/biz"
	"SearchLane/pkg/ranking"

	"github.com/go-kratos/kratos/v2/log"
)

// SearchServiceName is reported by the search microservice health endpoint.
const SearchServiceName = "search-microservice"

// SubmitJobRequest is the body of POST /api/v1/search/jobs.
type SubmitJobRequest struct {
	UserID    int64               `json:"user_id"`
	Query     string              `json:"query"`
	Videos    []ranking.Candidate `json:"videos"`
	Algorithm string              `json:"algorithm,omitempty"`
}

// JobView is the JSON representation of a search job.
type JobView struct {
	JobID           string     `json:"job_id"`
	UserID          int64      `json:"user_id"`
	Query           string     `json:"query"`
	Algorithm       string     `json:"algorithm"`
	Status          string     `json:"status"`
	ResultsCount    int        `json:"results_count"`
	ExecutionTimeMs *int64     `json:"execution_time_ms"`
	CreatedAt       *time.Time `json:"created_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	// Results is only set for single-job views of completed jobs.
	Results      *[]ranking.Result `json:"results,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// JobDetailsView adds aggregate statistics to a JobView.
type JobDetailsView struct {
	JobView
	TopResult    *ranking.Result `json:"top_result,omitempty"`
	AvgRelevance *float64        `json:"avg_relevance,omitempty"`
}

// SubmitJobReply is returned for a resolved submission.
// A failed job carries Error instead of results.
type SubmitJobReply struct {
	JobID           string           `json:"job_id"`
	Status          string           `json:"status"`
	Results         []ranking.Result `json:"results,omitempty"`
	ResultsCount    *int             `json:"results_count,omitempty"`
	ExecutionTimeMs *int64           `json:"execution_time_ms,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// HTTPStatus is 500 for a failed job, 200 otherwise.
func (r *SubmitJobReply) HTTPStatus() int {
	if r.Status == string(biz.JobStatusFailed) {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

type ListJobsRequest struct {
	UserID    string
	Status    string
	StartDate string
	EndDate   string
	Page      string
	PerPage   string
}

type ListJobsReply struct {
	Jobs       []*JobView     `json:"jobs"`
	Pagination biz.Pagination `json:"pagination"`
}

type RetryJobReply struct {
	Message       string `json:"message"`
	OriginalJobID string `json:"original_job_id"`
	NewJobID      string `json:"new_job_id"`
	Status        string `json:"status"`
}

type CancelJobReply struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
}

type SearchHealthReply struct {
	Status     string    `json:"status"`
	Service    string    `json:"service"`
	Timestamp  time.Time `json:"timestamp"`
	Algorithms []string  `json:"algorithms"`
}

type AlgorithmsReply struct {
	Algorithms []string `json:"algorithms"`
}

// SearchService exposes the search job lifecycle over HTTP.
type SearchService struct {
	uc  *biz.SearchJobUsecase
	log *log.Helper
}

// NewSearchService creates a SearchService.
func NewSearchService(uc *biz.SearchJobUsecase, logger log.Logger) *SearchService {
	return &SearchService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/search")),
	}
}

// SubmitJob runs a search job synchronously.
func (s *SearchService) SubmitJob(ctx context.Context, req *SubmitJobRequest) (*SubmitJobReply, error) {
	if req == nil {
		return nil, biz.ErrInvalidArgument("Request body required")
	}
	s.log.WithContext(ctx).Debugw("msg", "SubmitJob called",
		"user_id", req.UserID, "algorithm", req.Algorithm, "candidates", len(req.Videos))

	job, err := s.uc.Submit(ctx, &biz.SubmitJobRequest{
		UserID:     req.UserID,
		Query:      req.Query,
		Candidates: req.Videos,
		Algorithm:  req.Algorithm,
	})
	if err != nil {
		return nil, err
	}

	if job.Status == biz.JobStatusFailed {
		return &SubmitJobReply{JobID: job.ID, Status: string(job.Status), Error: job.ErrorMessage}, nil
	}
	results := job.Results
	if results == nil {
		results = []ranking.Result{}
	}
	count := job.ResultsCount
	return &SubmitJobReply{
		JobID:           job.ID,
		Status:          string(job.Status),
		Results:         results,
		ResultsCount:    &count,
		ExecutionTimeMs: job.ExecutionTimeMs,
	}, nil
}

// GetJob returns a job including its results.
func (s *SearchService) GetJob(ctx context.Context, id string) (*JobView, error) {
	job, err := s.uc.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return toJobView(job, true), nil
}

// GetJobDetails returns a job with its top result and mean relevance.
func (s *SearchService) GetJobDetails(ctx context.Context, id string) (*JobDetailsView, error) {
	job, err := s.uc.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &JobDetailsView{
		JobView:      *toJobView(job, true),
		TopResult:    job.TopResult(),
		AvgRelevance: job.AvgRelevance(),
	}, nil
}

// ListJobs returns one page of a user's jobs without results.
func (s *SearchService) ListJobs(ctx context.Context, req *ListJobsRequest) (*ListJobsReply, error) {
	filter, err := parseJobFilter(req)
	if err != nil {
		return nil, err
	}
	jobs, page, err := s.uc.ListJobs(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]*JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, toJobView(job, false))
	}
	return &ListJobsReply{Jobs: views, Pagination: page}, nil
}

// RetryJob queues a copy of a job.
func (s *SearchService) RetryJob(ctx context.Context, id string) (*RetryJobReply, error) {
	original, retried, err := s.uc.RetryJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RetryJobReply{
		Message:       "Job retry initiated",
		OriginalJobID: original.ID,
		NewJobID:      retried.ID,
		Status:        string(retried.Status),
	}, nil
}

// CancelJob cancels a queued or processing job.
func (s *SearchService) CancelJob(ctx context.Context, id string) (*CancelJobReply, error) {
	job, err := s.uc.CancelJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CancelJobReply{
		Message: "Job cancelled successfully",
		JobID:   job.ID,
		Status:  string(job.Status),
	}, nil
}

func (s *SearchService) Health(_ context.Context) *SearchHealthReply {
	return &SearchHealthReply{
		Status:     "healthy",
		Service:    SearchServiceName,
		Timestamp:  time.Now().UTC(),
		Algorithms: s.uc.Algorithms(),
	}
}

func (s *SearchService) Algorithms(_ context.Context) *AlgorithmsReply {
	return &AlgorithmsReply{Algorithms: s.uc.Algorithms()}
}

func toJobView(job *biz.SearchJob, withResults bool) *JobView {
	v := &JobView{
		JobID:           job.ID,
		UserID:          job.UserID,
		Query:           job.Query,
		Algorithm:       job.Algorithm,
		Status:          string(job.Status),
		ResultsCount:    job.ResultsCount,
		ExecutionTimeMs: job.ExecutionTimeMs,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
		ErrorMessage:    job.ErrorMessage,
	}
	if !job.CreatedAt.IsZero() {
		created := job.CreatedAt
		v.CreatedAt = &created
	}
	if withResults && (job.Results != nil || job.Status == biz.JobStatusCompleted) {
		results := job.Results
		if results == nil {
			results = []ranking.Result{}
		}
		v.Results = &results
	}
	return v
}

// parseJobFilter converts list query parameters into a JobFilter.
// Non-numeric paging values fall back to the defaults; malformed dates are rejected.
func parseJobFilter(req *ListJobsRequest) (*biz.JobFilter, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(req.UserID), 10, 64)
	if err != nil || userID <= 0 {
		return nil, biz.ErrInvalidArgument("user_id is required")
	}

	filter := &biz.JobFilter{
		UserID:  userID,
		Status:  biz.JobStatus(strings.TrimSpace(req.Status)),
		Page:    atoiDefault(req.Page, 1),
		PerPage: atoiDefault(req.PerPage, biz.DefaultPerPage),
	}
	if req.StartDate != "" {
		t, err := parseISODate(req.StartDate)
		if err != nil {
			return nil, biz.ErrInvalidArgument("invalid start_date: " + req.StartDate)
		}
		filter.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := parseISODate(req.EndDate)
		if err != nil {
			return nil, biz.ErrInvalidArgument("invalid end_date: " + req.EndDate)
		}
		filter.EndDate = &t
	}
	return filter, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseISODate accepts ISO-8601 dates and datetimes; values without an offset are UTC.
func parseISODate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func atoiDefault(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return n
}

// listRequestFromQuery reads list parameters from a query string.
func listRequestFromQuery(q url.Values) *ListJobsRequest {
	return &ListJobsRequest{
		UserID:    q.Get("user_id"),
		Status:    q.Get("status"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Page:      q.Get("page"),
		PerPage:   q.Get("per_page"),
	}
}
