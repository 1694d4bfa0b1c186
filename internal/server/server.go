package server

import (
	"github.com/google/wire"
)

// SearchProviderSet is server providers for the search microservice.
var SearchProviderSet = wire.NewSet(NewSearchHTTPServer)

// GatewayProviderSet is server providers for the api-gateway.
var GatewayProviderSet = wire.NewSet(NewGatewayHTTPServer)
