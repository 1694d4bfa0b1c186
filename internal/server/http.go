package server

import (
	"encoding/json"
	nethttp "net/http"

	"SearchLane/internal/conf"
	"SearchLane/internal/server/middleware"
	"SearchLane/internal/service"
	pkglog "SearchLane/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewSearchHTTPServer new the search microservice HTTP server.
func NewSearchHTTPServer(c *conf.Server, auth *conf.Auth, searchService *service.SearchService, logger log.Logger) *http.Server {
	logHelper := pkglog.NewLogHelper(logger)

	opts := append(baseOptions(c),
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logHelper),
			// 仅任务接口需要 service token，/health 与算法列表公开
			selector.Server(middleware.ServiceAuth(auth.ServiceToken, logHelper)).
				Prefix(service.SearchJobsOperationPrefix).
				Build(),
		),
	)
	srv := http.NewServer(opts...)
	srv.Handle("/metrics", promhttp.Handler())

	service.RegisterSearchHTTPServer(srv, searchService)
	return srv
}

// NewGatewayHTTPServer new the api-gateway HTTP server.
func NewGatewayHTTPServer(c *conf.Server, gatewayService *service.GatewayService, logger log.Logger) *http.Server {
	logHelper := pkglog.NewLogHelper(logger)

	opts := append(baseOptions(c),
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logHelper),
		),
	)
	srv := http.NewServer(opts...)
	srv.Handle("/metrics", promhttp.Handler())

	service.RegisterGatewayHTTPServer(srv, gatewayService)
	return srv
}

func baseOptions(c *conf.Server) []http.ServerOption {
	opts := []http.ServerOption{
		http.ErrorEncoder(errorEncoder),
	}
	if c == nil || c.Http == nil {
		return opts
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	return opts
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// errorEncoder writes kratos errors as {"error": message, "reason": REASON}.
func errorEncoder(w nethttp.ResponseWriter, _ *nethttp.Request, err error) {
	se := errors.FromError(err)
	body, _ := json.Marshal(errorBody{Error: se.Message, Reason: se.Reason})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se.Code))
	_, _ = w.Write(body)
}
