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
func wireApp(*conf.Server, *conf.Data, *conf.Auth, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		data.SearchProviderSet,
		biz.SearchProviderSet,
		service.SearchProviderSet,
		server.SearchProviderSet,
		newApp,
	))
}
