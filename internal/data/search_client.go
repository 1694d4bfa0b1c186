package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"SearchLane/internal/biz"
	"SearchLane/internal/conf"
	"SearchLane/internal/metrics"
	pkglog "SearchLane/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-resty/resty/v2"
)

const (
	// ServiceTokenHeader carries the shared service-to-service token.
	ServiceTokenHeader = "X-Service-Token"
	requestIDHeader    = "X-Request-ID"

	jobsPath   = "/api/v1/search/jobs"
	healthPath = "/health"

	defaultSearchTimeout = 30 * time.Second
	defaultHealthTimeout = 5 * time.Second
)

// Synthetic error messages returned to gateway callers.
const (
	msgBreakerOpen = "Search service circuit breaker is open"
	msgTimeout     = "Search service timeout"
	msgUnavailable = "Search service unavailable"
)

// SearchClient is the gateway's resilient client for the search microservice.
//
// Every job call asks the circuit breaker first and reports exactly one
// outcome back to it. Health checks bypass the breaker.
type SearchClient struct {
	rest          *resty.Client
	breaker       *biz.CircuitBreaker
	healthTimeout time.Duration
	log           *log.Helper
}

// NewSearchClient creates a SearchClient from configuration.
func NewSearchClient(c *conf.SearchService, auth *conf.Auth, breaker *biz.CircuitBreaker, logger log.Logger) (*SearchClient, error) {
	if c == nil || c.Endpoint == "" {
		return nil, fmt.Errorf("search service endpoint is required")
	}
	if auth == nil || auth.ServiceToken == "" {
		return nil, fmt.Errorf("service token is required")
	}

	timeout := defaultSearchTimeout
	if c.Timeout != nil && c.Timeout.AsDuration() > 0 {
		timeout = c.Timeout.AsDuration()
	}
	healthTimeout := defaultHealthTimeout
	if c.HealthTimeout != nil && c.HealthTimeout.AsDuration() > 0 {
		healthTimeout = c.HealthTimeout.AsDuration()
	}

	rest := resty.New().
		SetBaseURL(c.Endpoint).
		SetTimeout(timeout).
		SetHeader(ServiceTokenHeader, auth.ServiceToken).
		SetHeader("Accept", "application/json")

	transport, err := newProxyTransport(c.ProxyUrl)
	if err != nil {
		return nil, err
	}
	if transport != nil {
		rest.SetTransport(transport)
	}

	helper := log.NewHelper(log.With(logger, "module", "data/search_client"))
	helper.Infow("msg", "search service client configured",
		"endpoint", c.Endpoint, "timeout", timeout.String(), "proxy", transport != nil)

	return &SearchClient{
		rest:          rest,
		breaker:       breaker,
		healthTimeout: healthTimeout,
		log:           helper,
	}, nil
}

// Submit forwards a new search job.
func (c *SearchClient) Submit(ctx context.Context, sub *biz.SearchSubmission) *biz.ServiceResponse {
	return c.call(ctx, http.MethodPost, jobsPath, sub, nil)
}

// GetJob fetches a job with its results.
func (c *SearchClient) GetJob(ctx context.Context, id string) *biz.ServiceResponse {
	return c.call(ctx, http.MethodGet, jobsPath+"/"+url.PathEscape(id), nil, nil)
}

// ListJobs lists jobs; params are forwarded as the query string.
func (c *SearchClient) ListJobs(ctx context.Context, params url.Values) *biz.ServiceResponse {
	return c.call(ctx, http.MethodGet, jobsPath, nil, params)
}

// GetJobDetails fetches a job with its aggregate statistics.
func (c *SearchClient) GetJobDetails(ctx context.Context, id string) *biz.ServiceResponse {
	return c.call(ctx, http.MethodGet, jobsPath+"/"+url.PathEscape(id)+"/details", nil, nil)
}

// RetryJob queues a copy of a job.
func (c *SearchClient) RetryJob(ctx context.Context, id string) *biz.ServiceResponse {
	return c.call(ctx, http.MethodPost, jobsPath+"/"+url.PathEscape(id)+"/retry", nil, nil)
}

// CancelJob cancels a queued or processing job.
func (c *SearchClient) CancelJob(ctx context.Context, id string) *biz.ServiceResponse {
	return c.call(ctx, http.MethodPost, jobsPath+"/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// Health reports whether the search service answers 200 on /health within the health timeout.
func (c *SearchClient) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.rest.R().SetContext(ctx).Get(healthPath)
	if err != nil {
		c.log.WithContext(ctx).Debugw("msg", "search service health check failed", "error", err)
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

func (c *SearchClient) call(ctx context.Context, method, path string, body interface{}, params url.Values) *biz.ServiceResponse {
	name := c.breaker.Name()
	if !c.breaker.CanExecute() {
		metrics.CircuitBreakerRequests.WithLabelValues(name, metrics.ResultRejected).Inc()
		c.log.WithContext(ctx).Warnw("msg", "search service call rejected by circuit breaker", "method", method, "path", path)
		return errorResponse(http.StatusServiceUnavailable, map[string]string{
			"error":           msgBreakerOpen,
			"circuit_breaker": biz.StateOpen.String(),
		})
	}

	req := c.rest.R().SetContext(ctx)
	if requestID := pkglog.GetRequestID(ctx); requestID != "unknown" {
		req.SetHeader(requestIDHeader, requestID)
	}
	if body != nil {
		req.SetBody(body)
	}
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.breaker.RecordFailure()
		metrics.CircuitBreakerRequests.WithLabelValues(name, metrics.ResultFailure).Inc()

		status, msg := classifyTransportError(err)
		c.log.WithContext(ctx).Errorw("msg", "search service call failed",
			"method", method, "path", path, "status", status, "error", err)
		return errorResponse(status, map[string]string{"error": msg})
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		c.breaker.RecordFailure()
		metrics.CircuitBreakerRequests.WithLabelValues(name, metrics.ResultFailure).Inc()
	} else {
		c.breaker.RecordSuccess()
		metrics.CircuitBreakerRequests.WithLabelValues(name, metrics.ResultSuccess).Inc()
	}

	raw := resp.Body()
	if !json.Valid(raw) {
		// 已记录过一次结果，这里不再修改熔断器
		c.log.WithContext(ctx).Errorw("msg", "search service returned a non-JSON body",
			"method", method, "path", path, "status", resp.StatusCode())
		return errorResponse(http.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("invalid JSON response from search service (status %d)", resp.StatusCode()),
		})
	}
	return &biz.ServiceResponse{StatusCode: resp.StatusCode(), Body: json.RawMessage(raw)}
}

// classifyTransportError maps a transport error to the status and message
// returned to the caller. Timeouts are checked before connection failures.
func classifyTransportError(err error) (int, string) {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return http.StatusGatewayTimeout, msgTimeout
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return http.StatusServiceUnavailable, msgUnavailable
	}
	return http.StatusInternalServerError, err.Error()
}

func errorResponse(status int, body map[string]string) *biz.ServiceResponse {
	raw, _ := json.Marshal(body)
	return &biz.ServiceResponse{StatusCode: status, Body: raw}
}
