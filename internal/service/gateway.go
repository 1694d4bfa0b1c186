package service

import (
	"context"
	"net/url"
	"time"

	"SearchLane/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

// GatewayServiceName is reported by the gateway health endpoint.
const GatewayServiceName = "api-gateway"

// GatewayHealthReply is the body of the gateway's GET /health.
type GatewayHealthReply struct {
	Status         string            `json:"status"`
	Service        string            `json:"service"`
	Timestamp      time.Time         `json:"timestamp"`
	Dependencies   map[string]string `json:"dependencies"`
	CircuitBreaker map[string]string `json:"circuit_breaker"`
}

// CircuitBreakerReply is the body of GET /api/v1/system/circuit-breaker.
type CircuitBreakerReply struct {
	SearchService biz.BreakerSnapshot `json:"search_service"`
}

// GatewayService relays search job calls to the search microservice.
type GatewayService struct {
	uc  *biz.GatewayUsecase
	log *log.Helper
}

// NewGatewayService creates a GatewayService.
func NewGatewayService(uc *biz.GatewayUsecase, logger log.Logger) *GatewayService {
	return &GatewayService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/gateway")),
	}
}

func (s *GatewayService) SubmitSearch(ctx context.Context, req *SubmitJobRequest) (*biz.ServiceResponse, error) {
	if req == nil {
		return nil, biz.ErrInvalidArgument("Request body required")
	}
	return s.uc.SubmitSearch(ctx, &biz.SearchSubmission{
		UserID:    req.UserID,
		Query:     req.Query,
		Videos:    req.Videos,
		Algorithm: req.Algorithm,
	})
}

func (s *GatewayService) ListJobs(ctx context.Context, params url.Values) (*biz.ServiceResponse, error) {
	return s.uc.ListJobs(ctx, params)
}

func (s *GatewayService) GetJob(ctx context.Context, id string) (*biz.ServiceResponse, error) {
	return s.uc.GetJob(ctx, id), nil
}

func (s *GatewayService) GetJobDetails(ctx context.Context, id string) (*biz.ServiceResponse, error) {
	return s.uc.GetJobDetails(ctx, id), nil
}

func (s *GatewayService) RetryJob(ctx context.Context, id string) (*biz.ServiceResponse, error) {
	return s.uc.RetryJob(ctx, id), nil
}

func (s *GatewayService) CancelJob(ctx context.Context, id string) (*biz.ServiceResponse, error) {
	return s.uc.CancelJob(ctx, id), nil
}

// CircuitBreakerStatus exposes the search service breaker.
func (s *GatewayService) CircuitBreakerStatus(_ context.Context) *CircuitBreakerReply {
	return &CircuitBreakerReply{SearchService: s.uc.BreakerSnapshot()}
}

// Health always answers healthy; an unreachable search service is reported
// as a degraded dependency rather than gateway failure.
func (s *GatewayService) Health(ctx context.Context) *GatewayHealthReply {
	report := s.uc.Health(ctx)

	dependency := "healthy"
	if !report.SearchServiceHealthy {
		dependency = "unavailable"
		s.log.WithContext(ctx).Warnw("msg", "search service unavailable", "breaker_state", report.BreakerState.String())
	}
	return &GatewayHealthReply{
		Status:       "healthy",
		Service:      GatewayServiceName,
		Timestamp:    report.CheckedAt.UTC(),
		Dependencies: map[string]string{biz.SearchServiceDependency: dependency},
		CircuitBreaker: map[string]string{
			s.uc.BreakerSnapshot().Name: report.BreakerState.String(),
		},
	}
}
