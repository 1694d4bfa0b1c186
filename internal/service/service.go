package service

import "github.com/google/wire"

// SearchProviderSet is service providers for the search microservice.
var SearchProviderSet = wire.NewSet(NewSearchService)

// GatewayProviderSet is service providers for the api-gateway.
var GatewayProviderSet = wire.NewSet(NewGatewayService)
