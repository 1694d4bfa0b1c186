// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models; repository
// interfaces are declared here and implemented in internal/data.
package biz

import (
	"SearchLane/pkg/ranking"

	"github.com/google/wire"
)

// SearchProviderSet is biz providers for the search microservice.
var SearchProviderSet = wire.NewSet(
	NewSearchJobUsecase,
	ranking.NewRegistry,
)

// GatewayProviderSet is biz providers for the api-gateway.
var GatewayProviderSet = wire.NewSet(
	NewGatewayUsecase,
	NewSearchServiceBreaker,
)
