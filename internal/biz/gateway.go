package biz

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"SearchLane/internal/conf"
	"SearchLane/internal/metrics"
	pkglog "SearchLane/pkg/log"
	"SearchLane/pkg/ranking"

	"github.com/go-kratos/kratos/v2/log"
)

// SearchServiceDependency is the dependency name used in health reports and metrics.
const SearchServiceDependency = "search_microservice"

// ServiceResponse is a downstream answer relayed verbatim to the caller.
// Transport failures and breaker rejections are also expressed as a
// ServiceResponse (503/504/500 with an {"error": ...} body).
type ServiceResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// HTTPStatus reports the relayed status for request logging.
func (r *ServiceResponse) HTTPStatus() int {
	return r.StatusCode
}

// SearchSubmission is the job payload forwarded to the search service.
type SearchSubmission struct {
	UserID    int64               `json:"user_id"`
	Query     string              `json:"query"`
	Videos    []ranking.Candidate `json:"videos"`
	Algorithm string              `json:"algorithm,omitempty"`
}

// SearchServiceRepo is the gateway's view of the search microservice.
// Implemented by data.SearchClient; every job call goes through the circuit breaker.
type SearchServiceRepo interface {
	Submit(ctx context.Context, sub *SearchSubmission) *ServiceResponse
	GetJob(ctx context.Context, id string) *ServiceResponse
	ListJobs(ctx context.Context, params url.Values) *ServiceResponse
	GetJobDetails(ctx context.Context, id string) *ServiceResponse
	RetryJob(ctx context.Context, id string) *ServiceResponse
	CancelJob(ctx context.Context, id string) *ServiceResponse
	// Health is not gated by the breaker and never mutates it.
	Health(ctx context.Context) bool
}

// HealthReport is the gateway's own health view.
type HealthReport struct {
	SearchServiceHealthy bool
	BreakerState         BreakerState
	CheckedAt            time.Time
}

// GatewayUsecase fronts the search microservice.
type GatewayUsecase struct {
	repo    SearchServiceRepo
	breaker *CircuitBreaker
	log     *log.Helper
	gwLog   *pkglog.LogHelper
}

// NewGatewayUsecase creates a GatewayUsecase.
func NewGatewayUsecase(repo SearchServiceRepo, breaker *CircuitBreaker, logger log.Logger) *GatewayUsecase {
	return &GatewayUsecase{
		repo:    repo,
		breaker: breaker,
		log:     log.NewHelper(log.With(logger, "module", "biz/gateway")),
		gwLog:   pkglog.NewLogHelper(logger),
	}
}

// SubmitSearch validates locally before forwarding, so a malformed request
// never consumes a breaker slot.
func (uc *GatewayUsecase) SubmitSearch(ctx context.Context, sub *SearchSubmission) (*ServiceResponse, error) {
	if sub == nil {
		return nil, ErrInvalidArgument("Request body required")
	}
	if sub.UserID <= 0 {
		return nil, ErrInvalidArgument("user_id is required")
	}
	if sub.Query == "" {
		return nil, ErrInvalidArgument("Search query is required")
	}
	if len(sub.Videos) == 0 {
		return nil, ErrInvalidArgument("No videos available for search")
	}

	resp := uc.repo.Submit(ctx, sub)
	uc.gwLog.Gateway("search job forwarded",
		"user_id", sub.UserID, "videos", len(sub.Videos), "status", resp.StatusCode)
	return resp, nil
}

// ListJobs requires a user_id; the remaining parameters are forwarded as-is.
func (uc *GatewayUsecase) ListJobs(ctx context.Context, params url.Values) (*ServiceResponse, error) {
	if params.Get("user_id") == "" {
		return nil, ErrInvalidArgument("user_id is required")
	}
	return uc.repo.ListJobs(ctx, params), nil
}

func (uc *GatewayUsecase) GetJob(ctx context.Context, id string) *ServiceResponse {
	return uc.repo.GetJob(ctx, id)
}

func (uc *GatewayUsecase) GetJobDetails(ctx context.Context, id string) *ServiceResponse {
	return uc.repo.GetJobDetails(ctx, id)
}

func (uc *GatewayUsecase) RetryJob(ctx context.Context, id string) *ServiceResponse {
	return uc.repo.RetryJob(ctx, id)
}

func (uc *GatewayUsecase) CancelJob(ctx context.Context, id string) *ServiceResponse {
	return uc.repo.CancelJob(ctx, id)
}

// BreakerSnapshot returns the current view of the search service breaker.
func (uc *GatewayUsecase) BreakerSnapshot() BreakerSnapshot {
	return uc.breaker.Snapshot()
}

// Health probes the search service and reports the breaker state.
func (uc *GatewayUsecase) Health(ctx context.Context) HealthReport {
	return HealthReport{
		SearchServiceHealthy: uc.Probe(ctx),
		BreakerState:         uc.breaker.State(),
		CheckedAt:            time.Now(),
	}
}

// Probe checks the search service once and publishes the result to metrics.
// Used by /health and by the periodic cron probe.
func (uc *GatewayUsecase) Probe(ctx context.Context) bool {
	healthy := uc.repo.Health(ctx)
	up := 0.0
	if healthy {
		up = 1
	}
	metrics.DependencyUp.WithLabelValues(SearchServiceDependency).Set(up)
	uc.gwLog.Probe(SearchServiceDependency, healthy, "breaker_state", uc.breaker.State().String())
	return healthy
}

// NewSearchServiceBreaker builds the breaker guarding the search service and
// wires its transitions to logging and Prometheus.
func NewSearchServiceBreaker(c *conf.Breaker, logger log.Logger) *CircuitBreaker {
	helper := pkglog.NewLogHelper(logger)

	name := "search_service"
	settings := BreakerSettings{}
	if c != nil {
		if c.Name != "" {
			name = c.Name
		}
		settings.FailureThreshold = int(c.FailureThreshold)
		settings.HalfOpenMaxCalls = int(c.HalfOpenMaxCalls)
		if c.RecoveryTimeout != nil {
			settings.RecoveryTimeout = c.RecoveryTimeout.AsDuration()
		}
	}
	settings.OnStateChange = func(name string, from, to BreakerState) {
		metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.BreakerStateValue(to.String()))
		metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		helper.Breaker(name, from.String(), to.String())
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.BreakerStateValue(StateClosed.String()))
	return NewCircuitBreaker(name, settings)
}
