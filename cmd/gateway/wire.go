//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"SearchLane/internal/biz"
	"SearchLane/internal/conf"
	"SearchLane/internal/data"
	"SearchLane/internal/server"
	"SearchLane/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.SearchService, *conf.Auth, *conf.Breaker, *conf.HealthProbe, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		data.GatewayProviderSet,
		biz.GatewayProviderSet,
		service.GatewayProviderSet,
		server.GatewayProviderSet,
		NewHealthProbeCron,
		newApp,
	))
}
