// Package betting implements the betting bounded context for
// protocol-aggregated prediction market operations.
package betting

import (
	"context"
	"strings"

	"github.com/fd1az/defi-router/business/betting/app"
	bettingDI "github.com/fd1az/defi-router/business/betting/di"
	"github.com/fd1az/defi-router/business/betting/infra/polymarket"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/di"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/monolith"
)

// Module implements the betting bounded context.
type Module struct{}

// RegisterServices registers all betting services with the DI container.
// Disabled protocols register as nil and are left out of the service.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Polymarket strategy (private - nil when disabled)
	di.RegisterToken(c, bettingDI.PolymarketStrategy, func(sr di.ServiceRegistry) app.Strategy {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.Betting.Polymarket.Enabled {
			return nil
		}

		registry := sr.Get("assetRegistry").(*asset.Registry)
		client := polymarket.NewClient(cfg.Betting.Polymarket.APIURL, log)
		provider, err := polymarket.NewProvider(client, cfg.Betting, registry, log)
		if err != nil {
			panic("failed to create polymarket provider: " + err.Error())
		}
		return provider
	})

	// Register Service (public - exposed to other modules)
	di.RegisterToken(c, bettingDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		poly := bettingDI.GetPolymarketStrategy(sr)
		return app.NewService(log, cfg.Betting, poly)
	})

	return nil
}

// Startup initializes the betting module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	service := bettingDI.GetService(mono.Services())
	protocols := service.SupportedProtocols()
	if len(protocols) == 0 {
		log.Warn(ctx, "betting module started with no protocols enabled")
		return nil
	}

	log.Info(ctx, "betting module started", "protocols", strings.Join(protocols, ","))
	return nil
}
