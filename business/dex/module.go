// Package dex implements the dex bounded context for protocol-aggregated
// swap routing.
package dex

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/defi-router/business/dex/app"
	dexDI "github.com/fd1az/defi-router/business/dex/di"
	"github.com/fd1az/defi-router/business/dex/infra/uniswapv2"
	"github.com/fd1az/defi-router/business/dex/infra/uniswapv3"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/di"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/monolith"
)

// Module implements the dex bounded context.
type Module struct{}

// RegisterServices registers all dex services with the DI container.
// Disabled protocols register as nil and are left out of the router.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Uniswap V2 strategy (private - nil when disabled)
	di.RegisterToken(c, dexDI.UniswapV2Strategy, func(sr di.ServiceRegistry) app.Strategy {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.DEX.UniswapV2.Enabled {
			return nil
		}

		ethClient := sr.Get("ethClient").(*ethclient.Client)
		provider, err := uniswapv2.NewProvider(ethClient, cfg.DEX, log)
		if err != nil {
			panic("failed to create uniswap v2 provider: " + err.Error())
		}
		return provider
	})

	// Register Uniswap V3 strategy (private - nil when disabled)
	di.RegisterToken(c, dexDI.UniswapV3Strategy, func(sr di.ServiceRegistry) app.Strategy {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.DEX.UniswapV3.Enabled {
			return nil
		}

		ethClient := sr.Get("ethClient").(*ethclient.Client)
		provider, err := uniswapv3.NewProvider(ethClient, cfg.DEX, log)
		if err != nil {
			panic("failed to create uniswap v3 provider: " + err.Error())
		}
		return provider
	})

	// Register Router (public - exposed to other modules). Registration
	// order fixes the default protocol: V2 first, then V3.
	di.RegisterToken(c, dexDI.Router, func(sr di.ServiceRegistry) *app.Router {
		log := sr.Get("logger").(logger.LoggerInterface)

		v2 := dexDI.GetUniswapV2Strategy(sr)
		v3 := dexDI.GetUniswapV3Strategy(sr)
		return app.NewRouter(log, v2, v3)
	})

	return nil
}

// Startup initializes the dex module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	router := dexDI.GetRouter(mono.Services())
	protocols := router.SupportedProtocols()
	if len(protocols) == 0 {
		log.Warn(ctx, "dex module started with no protocols enabled")
		return nil
	}

	log.Info(ctx, "dex module started", "protocols", strings.Join(protocols, ","))
	return nil
}
