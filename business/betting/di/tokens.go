// Package di contains dependency injection tokens for the betting context.
package di

import (
	"github.com/fd1az/defi-router/business/betting/app"
	"github.com/fd1az/defi-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("betting.Service")
)

// Private dependency tokens - internal to betting module
var (
	PolymarketStrategy = di.NewToken[app.Strategy]("betting:polymarket")
)

// Helper functions for type-safe access
func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

// GetPolymarketStrategy returns the Polymarket strategy, or nil when the
// protocol is disabled in configuration.
func GetPolymarketStrategy(c di.ServiceRegistry) app.Strategy {
	v := c.Get(PolymarketStrategy.Name())
	if v == nil {
		return nil
	}
	return v.(app.Strategy)
}
