// Package middleware provides HTTP middleware for service authentication and request logging.
package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	pkglog "SearchLane/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// ServiceTokenHeader carries the shared service-to-service token.
const ServiceTokenHeader = "X-Service-Token"

// ErrInvalidServiceToken is returned for a missing or wrong service token.
var ErrInvalidServiceToken = errors.Unauthorized("INVALID_SERVICE_TOKEN", "Invalid service token")

// ServiceAuth 校验 X-Service-Token，失败返回 401
//
// 仅用于搜索服务的任务接口，由 selector 按 operation 前缀挂载：
//
//	selector.Server(middleware.ServiceAuth(token, helper)).Prefix(service.SearchJobsOperationPrefix).Build()
func ServiceAuth(token string, logger *pkglog.LogHelper) middleware.Middleware {
	expected := []byte(token)
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			var (
				provided  string
				operation string
			)
			if tr, ok := transport.FromServerContext(ctx); ok {
				provided = strings.TrimSpace(tr.RequestHeader().Get(ServiceTokenHeader))
				operation = tr.Operation()
			}

			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				logger.Security("rejected request with invalid service token",
					"operation", operation,
					"request_id", pkglog.GetRequestID(ctx),
					"token_present", provided != "",
				)
				return nil, ErrInvalidServiceToken
			}
			return handler(ctx, req)
		}
	}
}
