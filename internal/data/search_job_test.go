package data

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"SearchLane/internal/biz"
	pkgerrors "SearchLane/pkg/errors"
	"SearchLane/pkg/ranking"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var jobColumns = []string{
	"id", "user_id", "query", "algorithm", "status", "results", "results_count",
	"execution_time_ms", "error_message", "created_at", "started_at", "completed_at",
}

// setupSearchJobRepo creates a repo backed by sqlmock and miniredis
func setupSearchJobRepo(t *testing.T) (*SearchJobRepo, sqlmock.Sqlmock, *miniredis.Miniredis) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	data := &Data{
		redisClient: rdb,
		cache:       NewCacheClient(nil, rdb),
		jobTTL:      TTLSearchJob,
	}
	return NewSearchJobRepo(data, gormDB, log.DefaultLogger), mock, mr
}

func completedJob(now time.Time) *biz.SearchJob {
	elapsed := int64(12)
	return &biz.SearchJob{
		ID:        "job-1",
		UserID:    7,
		Query:     "python",
		Algorithm: ranking.TextSearchName,
		Status:    biz.JobStatusCompleted,
		Results: []ranking.Result{
			{CandidateID: 3, Title: "Python Machine Learning", RelevanceScore: 0.4, MatchedText: "Python Machine Learning"},
		},
		ResultsCount:    1,
		ExecutionTimeMs: &elapsed,
		CreatedAt:       now,
		StartedAt:       &now,
		CompletedAt:     &now,
	}
}

func TestSearchJobRepo_CreateJob(t *testing.T) {
	repo, mock, _ := setupSearchJobRepo(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("insert", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `search_jobs`")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CreateJob(ctx, &biz.SearchJob{
			ID: "job-1", UserID: 7, Query: "python", Algorithm: "text_search",
			Status: biz.JobStatusProcessing, CreatedAt: now, StartedAt: &now,
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id is classified", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `search_jobs`")).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'job-1'"})

		err := repo.CreateJob(ctx, &biz.SearchJob{ID: "job-1", UserID: 7, Query: "python", Status: biz.JobStatusQueued, CreatedAt: now})
		require.Error(t, err)

		var dbErr *pkgerrors.DatabaseError
		require.True(t, errors.As(err, &dbErr))
		assert.Equal(t, pkgerrors.ErrorTypeDuplicateKey, dbErr.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSearchJobRepo_SaveJob(t *testing.T) {
	repo, mock, mr := setupSearchJobRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("terminal job is cached", func(t *testing.T) {
		job := completedJob(now)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `search_jobs` SET")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveJob(ctx, job))
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.True(t, mr.Exists("search_job:job-1"))
		assert.Equal(t, TTLSearchJob, mr.TTL("search_job:job-1"))

		// 命中缓存，不访问数据库
		got, err := repo.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, biz.JobStatusCompleted, got.Status)
		require.Len(t, got.Results, 1)
		assert.Equal(t, int64(3), got.Results[0].CandidateID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in-flight job is not cached", func(t *testing.T) {
		mr.FlushAll()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `search_jobs` SET")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveJob(ctx, &biz.SearchJob{ID: "job-2", Status: biz.JobStatusProcessing, StartedAt: &now}))
		assert.False(t, mr.Exists("search_job:job-2"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `search_jobs` SET")).
			WillReturnError(errors.New("connection refused"))

		err := repo.SaveJob(ctx, completedJob(now))
		var dbErr *pkgerrors.DatabaseError
		require.True(t, errors.As(err, &dbErr))
		assert.Equal(t, pkgerrors.ErrorTypeConnectionError, dbErr.Type)
	})
}

func TestSearchJobRepo_GetJob(t *testing.T) {
	repo, mock, mr := setupSearchJobRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	getSQL := regexp.QuoteMeta("SELECT * FROM `search_jobs` WHERE id = ? ORDER BY `search_jobs`.`id` LIMIT ?")

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(getSQL).
			WithArgs("missing", 1).
			WillReturnRows(sqlmock.NewRows(jobColumns))

		job, err := repo.GetJob(ctx, "missing")
		assert.Nil(t, job)
		assert.True(t, kerrors.IsNotFound(err))
		assert.Equal(t, "JOB_NOT_FOUND", kerrors.Reason(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("processing job read from database", func(t *testing.T) {
		mock.ExpectQuery(getSQL).
			WithArgs("job-p", 1).
			WillReturnRows(sqlmock.NewRows(jobColumns).
				AddRow("job-p", int64(5), "rust", "fuzzy_search", "processing", nil, 0, nil, nil, now, now, nil))

		job, err := repo.GetJob(ctx, "job-p")
		require.NoError(t, err)
		assert.Equal(t, biz.JobStatusProcessing, job.Status)
		assert.Equal(t, "fuzzy_search", job.Algorithm)
		assert.Nil(t, job.Results)
		assert.Nil(t, job.CompletedAt)
		assert.False(t, mr.Exists("search_job:job-p"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed job read from database and cached", func(t *testing.T) {
		mock.ExpectQuery(getSQL).
			WithArgs("job-f", 1).
			WillReturnRows(sqlmock.NewRows(jobColumns).
				AddRow("job-f", int64(5), "rust", "text_search", "failed", nil, 0, nil, "boom", now, now, now))

		job, err := repo.GetJob(ctx, "job-f")
		require.NoError(t, err)
		assert.Equal(t, "boom", job.ErrorMessage)
		assert.True(t, mr.Exists("search_job:job-f"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("results column decoded", func(t *testing.T) {
		mock.ExpectQuery(getSQL).
			WithArgs("job-c", 1).
			WillReturnRows(sqlmock.NewRows(jobColumns).
				AddRow("job-c", int64(5), "python", "text_search", "completed",
					`[{"video_id":1,"title":"Intro","relevance_score":0.5,"matched_text":"Intro"}]`,
					1, int64(4), nil, now, now, now))

		job, err := repo.GetJob(ctx, "job-c")
		require.NoError(t, err)
		require.Len(t, job.Results, 1)
		assert.Equal(t, 0.5, job.Results[0].RelevanceScore)
		assert.Equal(t, int64(4), *job.ExecutionTimeMs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSearchJobRepo_ListJobs(t *testing.T) {
	repo, mock, _ := setupSearchJobRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("status filter with paging", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `search_jobs` WHERE user_id = ? AND status = ?")).
			WithArgs(int64(7), "completed").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `search_jobs` WHERE user_id = ? AND status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?")).
			WithArgs(int64(7), "completed", 20, 20).
			WillReturnRows(sqlmock.NewRows(jobColumns).
				AddRow("job-21", int64(7), "python", "text_search", "completed", "[]", 0, int64(1), nil, now, now, now))

		jobs, total, err := repo.ListJobs(ctx, &biz.JobFilter{UserID: 7, Status: biz.JobStatusCompleted, Page: 2, PerPage: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(21), total)
		require.Len(t, jobs, 1)
		assert.Equal(t, "job-21", jobs[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("date range", func(t *testing.T) {
		start := now.Add(-24 * time.Hour)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `search_jobs` WHERE user_id = ? AND created_at >= ? AND created_at <= ?")).
			WithArgs(int64(7), start, now).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `search_jobs` WHERE user_id = ? AND created_at >= ? AND created_at <= ? ORDER BY created_at DESC LIMIT ?")).
			WithArgs(int64(7), start, now, 20).
			WillReturnRows(sqlmock.NewRows(jobColumns))

		jobs, total, err := repo.ListJobs(ctx, &biz.JobFilter{UserID: 7, StartDate: &start, EndDate: &now, Page: 1, PerPage: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, jobs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSearchJobRepo_CancelJob(t *testing.T) {
	repo, mock, mr := setupSearchJobRepo(t)
	ctx := context.Background()
	now := time.Now()
	cancelSQL := regexp.QuoteMeta("UPDATE `search_jobs` SET")

	t.Run("cancellable", func(t *testing.T) {
		_ = mr.Set("search_job:job-q", `{"ID":"job-q"}`)
		mock.ExpectExec(cancelSQL).
			WithArgs(sqlmock.AnyArg(), biz.CancelledByUser, "cancelled", "job-q", "queued", "processing").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.CancelJob(ctx, "job-q", now)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, mr.Exists("search_job:job-q"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already terminal", func(t *testing.T) {
		mock.ExpectExec(cancelSQL).
			WithArgs(sqlmock.AnyArg(), biz.CancelledByUser, "cancelled", "job-done", "queued", "processing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.CancelJob(ctx, "job-done", now)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deadlock", func(t *testing.T) {
		mock.ExpectExec(cancelSQL).
			WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})

		ok, err := repo.CancelJob(ctx, "job-q", now)
		assert.False(t, ok)
		var dbErr *pkgerrors.DatabaseError
		require.True(t, errors.As(err, &dbErr))
		assert.True(t, dbErr.Transient())
	})
}

func TestSearchJobPO_RoundTrip(t *testing.T) {
	now := time.Now()
	job := completedJob(now)
	job.ErrorMessage = ""

	po, err := toSearchJobPO(job)
	require.NoError(t, err)
	assert.Equal(t, "search_jobs", po.TableName())
	require.NotNil(t, po.Results)
	assert.Nil(t, po.ErrorMessage)

	back, err := po.toBiz()
	require.NoError(t, err)
	assert.Equal(t, job.Results, back.Results)
	assert.Equal(t, job.Status, back.Status)
	assert.Equal(t, *job.ExecutionTimeMs, *back.ExecutionTimeMs)

	bad := &SearchJob{ID: "x", Results: func() *string { s := "{"; return &s }()}
	_, err = bad.toBiz()
	assert.Error(t, err)
}
