// Package di contains dependency injection tokens for the moneymarket context.
package di

import (
	"github.com/fd1az/defi-router/business/moneymarket/app"
	"github.com/fd1az/defi-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("moneymarket.Service")
)

// Private dependency tokens - internal to moneymarket module
var (
	AaveV3Strategy = di.NewToken[app.Strategy]("moneymarket:aaveV3")
)

// Helper functions for type-safe access
func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

// GetAaveV3Strategy returns the Aave V3 strategy, or nil when the protocol
// is disabled in configuration.
func GetAaveV3Strategy(c di.ServiceRegistry) app.Strategy {
	v := c.Get(AaveV3Strategy.Name())
	if v == nil {
		return nil
	}
	return v.(app.Strategy)
}
