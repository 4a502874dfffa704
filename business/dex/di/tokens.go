// Package di contains dependency injection tokens for the dex context.
package di

import (
	"github.com/fd1az/defi-router/business/dex/app"
	"github.com/fd1az/defi-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Router = di.NewToken[*app.Router]("dex.Router")
)

// Private dependency tokens - internal to dex module
var (
	UniswapV2Strategy = di.NewToken[app.Strategy]("dex:uniswapV2")
	UniswapV3Strategy = di.NewToken[app.Strategy]("dex:uniswapV3")
)

// Helper functions for type-safe access
func GetRouter(c di.ServiceRegistry) *app.Router {
	return di.GetToken(c, Router)
}

// GetUniswapV2Strategy returns the V2 strategy, or nil when the protocol
// is disabled in configuration.
func GetUniswapV2Strategy(c di.ServiceRegistry) app.Strategy {
	v := c.Get(UniswapV2Strategy.Name())
	if v == nil {
		return nil
	}
	return v.(app.Strategy)
}

// GetUniswapV3Strategy returns the V3 strategy, or nil when the protocol
// is disabled in configuration.
func GetUniswapV3Strategy(c di.ServiceRegistry) app.Strategy {
	v := c.Get(UniswapV3Strategy.Name())
	if v == nil {
		return nil
	}
	return v.(app.Strategy)
}
