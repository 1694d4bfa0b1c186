package service

import (
	"context"
	"net/http"

	"SearchLane/internal/biz"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// SearchJobsOperationPrefix prefixes every job operation. Service-token auth is
// scoped to this prefix, so /health and the algorithm list stay public.
const SearchJobsOperationPrefix = "/searchlane.search.v1.SearchJobs/"

const (
	OperationSearchJobsSubmit  = SearchJobsOperationPrefix + "Submit"
	OperationSearchJobsGet     = SearchJobsOperationPrefix + "Get"
	OperationSearchJobsList    = SearchJobsOperationPrefix + "List"
	OperationSearchJobsDetails = SearchJobsOperationPrefix + "Details"
	OperationSearchJobsRetry   = SearchJobsOperationPrefix + "Retry"
	OperationSearchJobsCancel  = SearchJobsOperationPrefix + "Cancel"
	OperationSearchHealth      = "/searchlane.search.v1.Search/Health"
	OperationSearchAlgorithms  = "/searchlane.search.v1.Search/Algorithms"
)

// RegisterSearchHTTPServer registers the search microservice routes.
func RegisterSearchHTTPServer(s *khttp.Server, srv *SearchService) {
	r := s.Route("/")
	r.POST("/api/v1/search/jobs", _SearchJobs_Submit0_HTTP_Handler(srv))
	r.GET("/api/v1/search/jobs", _SearchJobs_List0_HTTP_Handler(srv))
	r.GET("/api/v1/search/jobs/{id}", _SearchJobs_Get0_HTTP_Handler(srv))
	r.GET("/api/v1/search/jobs/{id}/details", _SearchJobs_Details0_HTTP_Handler(srv))
	r.POST("/api/v1/search/jobs/{id}/retry", _SearchJobs_Retry0_HTTP_Handler(srv))
	r.POST("/api/v1/search/jobs/{id}/cancel", _SearchJobs_Cancel0_HTTP_Handler(srv))
	r.GET("/health", _Search_Health0_HTTP_Handler(srv))
	r.GET("/api/v1/search/algorithms", _Search_Algorithms0_HTTP_Handler(srv))
}

func _SearchJobs_Submit0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		var in SubmitJobRequest
		if err := ctx.Bind(&in); err != nil {
			return biz.ErrInvalidArgument("Invalid request body")
		}
		khttp.SetOperation(ctx, OperationSearchJobsSubmit)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.SubmitJob(ctx, req.(*SubmitJobRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*SubmitJobReply)
		return ctx.JSON(reply.HTTPStatus(), reply)
	}
}

func _SearchJobs_List0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		in := listRequestFromQuery(ctx.Query())
		khttp.SetOperation(ctx, OperationSearchJobsList)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListJobs(ctx, req.(*ListJobsRequest))
		})
		out, err := h(ctx, in)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, out.(*ListJobsReply))
	}
}

func _SearchJobs_Get0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		id := ctx.Vars().Get("id")
		khttp.SetOperation(ctx, OperationSearchJobsGet)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetJob(ctx, req.(string))
		})
		out, err := h(ctx, id)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, out.(*JobView))
	}
}

func _SearchJobs_Details0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		id := ctx.Vars().Get("id")
		khttp.SetOperation(ctx, OperationSearchJobsDetails)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetJobDetails(ctx, req.(string))
		})
		out, err := h(ctx, id)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, out.(*JobDetailsView))
	}
}

func _SearchJobs_Retry0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		id := ctx.Vars().Get("id")
		khttp.SetOperation(ctx, OperationSearchJobsRetry)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.RetryJob(ctx, req.(string))
		})
		out, err := h(ctx, id)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusCreated, out.(*RetryJobReply))
	}
}

func _SearchJobs_Cancel0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		id := ctx.Vars().Get("id")
		khttp.SetOperation(ctx, OperationSearchJobsCancel)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.CancelJob(ctx, req.(string))
		})
		out, err := h(ctx, id)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, out.(*CancelJobReply))
	}
}

func _Search_Health0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationSearchHealth)
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

func _Search_Algorithms0_HTTP_Handler(srv *SearchService) func(ctx khttp.Context) error {
	return func(ctx khttp.Context) error {
		khttp.SetOperation(ctx, OperationSearchAlgorithms)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return srv.Algorithms(ctx), nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, out)
	}
}
