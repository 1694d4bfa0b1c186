package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SearchLane/internal/biz"
	pkgerrors "SearchLane/pkg/errors"
	"SearchLane/pkg/ranking"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// SearchJob is the GORM model for the search_jobs table.
type SearchJob struct {
	ID              string     `gorm:"primaryKey;column:id;size:36"`
	UserID          int64      `gorm:"column:user_id;not null;index:idx_user_created,priority:1"`
	Query           string     `gorm:"column:query;size:500;not null"`
	Algorithm       string     `gorm:"column:algorithm;size:50;not null;default:'text_search'"`
	Status          string     `gorm:"column:status;size:20;not null;index"`
	Results         *string    `gorm:"column:results;type:json"` // JSON array of ranking.Result
	ResultsCount    int        `gorm:"column:results_count;not null;default:0"`
	ExecutionTimeMs *int64     `gorm:"column:execution_time_ms"`
	ErrorMessage    *string    `gorm:"column:error_message;type:text"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null;index:idx_user_created,priority:2"`
	StartedAt       *time.Time `gorm:"column:started_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
}

// TableName specifies the table name for GORM.
func (SearchJob) TableName() string {
	return "search_jobs"
}

// SearchJobRepo implements biz.SearchJobRepo on MySQL.
// Terminal job views are cached under search_job:{id}; in-flight jobs are always read from MySQL.
type SearchJobRepo struct {
	data *Data
	db   *gorm.DB
	log  *log.Helper
}

// NewSearchJobRepo creates a SearchJobRepo.
func NewSearchJobRepo(data *Data, db *gorm.DB, logger log.Logger) *SearchJobRepo {
	return &SearchJobRepo{
		data: data,
		db:   db,
		log:  log.NewHelper(log.With(logger, "module", "data/search_job")),
	}
}

// CreateJob inserts a new job row.
func (r *SearchJobRepo) CreateJob(ctx context.Context, job *biz.SearchJob) error {
	po, err := toSearchJobPO(job)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.log.WithContext(ctx).Errorw("msg", "failed to create search job", "job_id", job.ID, "error_type", dbErr.Type.String(), "error", err)
		return fmt.Errorf("create search job %s: %w", job.ID, dbErr)
	}
	return nil
}

// SaveJob writes the mutable fields of a job and caches it once terminal.
func (r *SearchJobRepo) SaveJob(ctx context.Context, job *biz.SearchJob) error {
	po, err := toSearchJobPO(job)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":            po.Status,
		"results":           po.Results,
		"results_count":     po.ResultsCount,
		"execution_time_ms": po.ExecutionTimeMs,
		"error_message":     po.ErrorMessage,
		"started_at":        po.StartedAt,
		"completed_at":      po.CompletedAt,
	}
	if err := r.db.WithContext(ctx).Model(&SearchJob{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.log.WithContext(ctx).Errorw("msg", "failed to save search job", "job_id", job.ID, "error_type", dbErr.Type.String(), "error", err)
		return fmt.Errorf("save search job %s: %w", job.ID, dbErr)
	}

	if job.Status.Terminal() {
		r.cacheJob(ctx, job)
	}
	return nil
}

// GetJob returns biz.ErrJobNotFound for an unknown id.
func (r *SearchJobRepo) GetJob(ctx context.Context, id string) (*biz.SearchJob, error) {
	if job, ok := r.cachedJob(ctx, id); ok {
		return job, nil
	}

	var po SearchJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		if dbErr.Type == pkgerrors.ErrorTypeNotFound {
			return nil, biz.ErrJobNotFound
		}
		r.log.WithContext(ctx).Errorw("msg", "failed to get search job", "job_id", id, "error_type", dbErr.Type.String(), "error", err)
		return nil, fmt.Errorf("get search job %s: %w", id, dbErr)
	}

	job, err := po.toBiz()
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		r.cacheJob(ctx, job)
	}
	return job, nil
}

// ListJobs returns one page of jobs matching the filter, newest first, and the total count.
func (r *SearchJobRepo) ListJobs(ctx context.Context, filter *biz.JobFilter) ([]*biz.SearchJob, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", filter.UserID)
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.StartDate != nil {
			db = db.Where("created_at >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			db = db.Where("created_at <= ?", *filter.EndDate)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&SearchJob{}).Scopes(scope).Count(&total).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.log.WithContext(ctx).Errorw("msg", "failed to count search jobs", "user_id", filter.UserID, "error", err)
		return nil, 0, fmt.Errorf("count search jobs: %w", dbErr)
	}

	var rows []*SearchJob
	if err := r.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").
		Limit(filter.PerPage).
		Offset(filter.Offset()).
		Find(&rows).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.log.WithContext(ctx).Errorw("msg", "failed to list search jobs", "user_id", filter.UserID, "error", err)
		return nil, 0, fmt.Errorf("list search jobs: %w", dbErr)
	}

	jobs := make([]*biz.SearchJob, 0, len(rows))
	for _, po := range rows {
		job, err := po.toBiz()
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, nil
}

// CancelJob moves a queued or processing job to cancelled with a single
// conditional UPDATE. It returns false when no row was in a cancellable status.
func (r *SearchJobRepo) CancelJob(ctx context.Context, id string, completedAt time.Time) (bool, error) {
	statuses := make([]string, 0, len(biz.CancellableStatuses))
	for _, s := range biz.CancellableStatuses {
		statuses = append(statuses, string(s))
	}

	result := r.db.WithContext(ctx).Model(&SearchJob{}).
		Where("id = ? AND status IN ?", id, statuses).
		Updates(map[string]interface{}{
			"status":        string(biz.JobStatusCancelled),
			"error_message": biz.CancelledByUser,
			"completed_at":  completedAt,
		})
	if result.Error != nil {
		dbErr := pkgerrors.ClassifyDBError(result.Error)
		r.log.WithContext(ctx).Errorw("msg", "failed to cancel search job", "job_id", id, "error_type", dbErr.Type.String(), "error", result.Error)
		return false, fmt.Errorf("cancel search job %s: %w", id, dbErr)
	}

	r.invalidate(ctx, id)
	return result.RowsAffected > 0, nil
}

func (r *SearchJobRepo) cachedJob(ctx context.Context, id string) (*biz.SearchJob, bool) {
	cache := r.data.GetCache()
	if cache == nil {
		return nil, false
	}

	var job biz.SearchJob
	if err := cache.Get(ctx, BuildCacheKey(CacheKeySearchJob, id), &job); err != nil {
		if !errors.Is(err, ErrCacheNotFound) {
			r.log.WithContext(ctx).Debugw("msg", "search job cache read failed", "job_id", id, "error", err)
		}
		return nil, false
	}
	return &job, true
}

func (r *SearchJobRepo) cacheJob(ctx context.Context, job *biz.SearchJob) {
	cache := r.data.GetCache()
	if cache == nil {
		return
	}
	if err := cache.Set(ctx, BuildCacheKey(CacheKeySearchJob, job.ID), job, r.data.JobTTL()); err != nil {
		r.log.WithContext(ctx).Warnw("msg", "failed to cache search job", "job_id", job.ID, "error", err)
	}
}

func (r *SearchJobRepo) invalidate(ctx context.Context, id string) {
	cache := r.data.GetCache()
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, BuildCacheKey(CacheKeySearchJob, id)); err != nil {
		r.log.WithContext(ctx).Warnw("msg", "failed to invalidate search job cache", "job_id", id, "error", err)
	}
}

func toSearchJobPO(job *biz.SearchJob) (*SearchJob, error) {
	po := &SearchJob{
		ID:              job.ID,
		UserID:          job.UserID,
		Query:           job.Query,
		Algorithm:       job.Algorithm,
		Status:          string(job.Status),
		ResultsCount:    job.ResultsCount,
		ExecutionTimeMs: job.ExecutionTimeMs,
		CreatedAt:       job.CreatedAt,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
	}
	if job.Results != nil {
		raw, err := json.Marshal(job.Results)
		if err != nil {
			return nil, fmt.Errorf("marshal results of job %s: %w", job.ID, err)
		}
		s := string(raw)
		po.Results = &s
	}
	if job.ErrorMessage != "" {
		msg := job.ErrorMessage
		po.ErrorMessage = &msg
	}
	return po, nil
}

func (po *SearchJob) toBiz() (*biz.SearchJob, error) {
	job := &biz.SearchJob{
		ID:              po.ID,
		UserID:          po.UserID,
		Query:           po.Query,
		Algorithm:       po.Algorithm,
		Status:          biz.JobStatus(po.Status),
		ResultsCount:    po.ResultsCount,
		ExecutionTimeMs: po.ExecutionTimeMs,
		CreatedAt:       po.CreatedAt,
		StartedAt:       po.StartedAt,
		CompletedAt:     po.CompletedAt,
	}
	if po.Results != nil && *po.Results != "" {
		var results []ranking.Result
		if err := json.Unmarshal([]byte(*po.Results), &results); err != nil {
			return nil, fmt.Errorf("unmarshal results of job %s: %w", po.ID, err)
		}
		job.Results = results
	}
	if po.ErrorMessage != nil {
		job.ErrorMessage = *po.ErrorMessage
	}
	return job, nil
}
