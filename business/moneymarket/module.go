// Package moneymarket implements the moneymarket bounded context for
// protocol-aggregated lending operations.
package moneymarket

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/defi-router/business/moneymarket/app"
	mmDI "github.com/fd1az/defi-router/business/moneymarket/di"
	"github.com/fd1az/defi-router/business/moneymarket/infra/aavev3"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/di"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/monolith"
)

// Module implements the moneymarket bounded context.
type Module struct{}

// RegisterServices registers all moneymarket services with the DI
// container. Disabled protocols register as nil and are left out of the
// service.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Aave V3 strategy (private - nil when disabled)
	di.RegisterToken(c, mmDI.AaveV3Strategy, func(sr di.ServiceRegistry) app.Strategy {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.MoneyMarket.AaveV3.Enabled {
			return nil
		}

		ethClient := sr.Get("ethClient").(*ethclient.Client)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		provider, err := aavev3.NewProvider(ethClient, cfg.MoneyMarket, registry, log)
		if err != nil {
			panic("failed to create aave v3 provider: " + err.Error())
		}
		return provider
	})

	// Register Service (public - exposed to other modules)
	di.RegisterToken(c, mmDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		aave := mmDI.GetAaveV3Strategy(sr)
		return app.NewService(log, cfg.MoneyMarket, aave)
	})

	return nil
}

// Startup initializes the moneymarket module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	service := mmDI.GetService(mono.Services())
	protocols := service.SupportedProtocols()
	if len(protocols) == 0 {
		log.Warn(ctx, "moneymarket module started with no protocols enabled")
		return nil
	}

	log.Info(ctx, "moneymarket module started", "protocols", strings.Join(protocols, ","))
	return nil
}
