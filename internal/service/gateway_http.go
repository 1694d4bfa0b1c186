package service

import (
	"context"
	"net/http"
	"net/url"

	"SearchLane/internal/biz"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationGatewaySubmit         = "/searchlane.gateway.v1.Gateway/SubmitSearch"
	OperationGatewayList           = "/searchlane.gateway.v1.Gateway/ListJobs"
	OperationGatewayGet            = "/searchlane.gateway.v1.Gateway/GetJob"
	OperationGatewayDetails        = "/searchlane.gateway.v1.Gateway/GetJobDetails"
	OperationGatewayRetry          = "/searchlane.gateway.v1.Gateway/RetryJob"
	OperationGatewayCancel         = "/searchlane.gateway.v1.Gateway/CancelJob"
	OperationGatewayCircuitBreaker = "/searchlane.gateway.v1.Gateway/CircuitBreaker"
	OperationGatewayHealth         = "/searchlane.gateway.v1.Gateway/Health"
)

// RegisterGatewayHTTPServer registers the api-gateway routes.
func RegisterGatewayHTTPServer(s *khttp.Server, srv *GatewayService) {
	r := s.Route("/")
	r.POST("/api/v1/search/jobs", _Gateway_SubmitSearch0_HTTP_Handler(srv))
	r.GET("/api/v1/search/jobs", _Gateway_ListJobs0_HTTP_Handler(srv))
	r.GET("/api/v1/search/jobs/{id}", _Gateway_ByID0_HTTP_Handler(OperationGatewayGet, srv.GetJob))
	r.GET("/api/v1/search/jobs/{id}/details", _Gateway_ByID0_HTTP_Handler(OperationGatewayDetails, srv.GetJobDetails))
	r.POST("/api/v1/search/jobs/{id}/retry", _Gateway_ByID0_HTTP_Handler(OperationGatewayRetry, srv.RetryJob))
	r.POST("/api/v1/search/jobs/{id}/cancel", _Gateway_ByID0_HTTP_Handler(OperationGatewayCancel, srv.CancelJob))
	r.GET("/api/v1/system/circuit-breaker", _Gateway_CircuitBreaker0_HTTP_Handler(srv))
	r.GET("/health", _Gateway_Health0_HTTP_Handler(srv))
}

func _Gateway_SubmitSearch0_HTTP_Handler(srv *GatewayService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in SubmitJobRequest
		if err := ctx.Bind(&in); err != nil {
			return biz.ErrInvalidArgument("Invalid request body")
		}
		khttp.SetOperation(ctx, OperationGatewaySubmit)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.SubmitSearch(ctx, req.(*SubmitJobRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return relay(ctx, out.(*biz.ServiceResponse))
	}
}

func _Gateway_ListJobs0_HTTP_Handler(srv *GatewayService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationGatewayList)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListJobs(ctx, req.(url.Values))
		})
		out, err := h(ctx, ctx.Query())
		if err != nil {
			return err
		}
		return relay(ctx, out.(*biz.ServiceResponse))
	}
}

func _Gateway_ByID0_HTTP_Handler(operation string, call func(context.Context, string) (*biz.ServiceResponse, error)) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		id := ctx.Vars().Get("id")
		khttp.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(string))
		})
		out, err := h(ctx, id)
		if err != nil {
			return err
		}
		return relay(ctx, out.(*biz.ServiceResponse))
	}
}

func _Gateway_CircuitBreaker0_HTTP_Handler(srv *GatewayService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationGatewayCircuitBreaker)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return srv.CircuitBreakerStatus(ctx), nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, out)
	}
}

func _Gateway_Health0_HTTP_Handler(srv *GatewayService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationGatewayHealth)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return srv.Health(ctx), nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, out)
	}
}

// relay writes a downstream response with its status and body unchanged.
func relay(ctx khttp.Context, resp *biz.ServiceResponse) error {
	return ctx.Blob(resp.StatusCode, "application/json", resp.Body)
}
