// Package monitor implements the monitor bounded context, sampling swap
// quotes across every enabled DEX protocol on an interval and reporting
// the per-round spread.
package monitor

import (
	"context"

	dexDI "github.com/fd1az/defi-router/business/dex/di"
	"github.com/fd1az/defi-router/business/monitor/app"
	monitorDI "github.com/fd1az/defi-router/business/monitor/di"
	"github.com/fd1az/defi-router/business/monitor/infra"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/di"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/monolith"
)

// Module implements the monitor bounded context.
type Module struct{}

// RegisterServices registers all monitor services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Reporter (private - console or TUI depending on run mode)
	di.RegisterToken(c, monitorDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)

		if cfg.Monitor.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	// Register Watcher (public - exposed to other modules)
	di.RegisterToken(c, monitorDI.Watcher, func(sr di.ServiceRegistry) *app.Watcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		router := dexDI.GetRouter(sr)
		reporter := monitorDI.GetReporter(sr)

		watcher, err := app.NewWatcher(log, cfg.Monitor, cfg.Ethereum.ChainID, registry, router, reporter)
		if err != nil {
			panic("failed to create quote watcher: " + err.Error())
		}
		return watcher
	})

	return nil
}

// Startup initializes the monitor module. The watcher loop itself is
// started by main so it can outlive the startup sequence.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	cfg := mono.Services().Get("config").(*config.Config)
	if !cfg.Monitor.Enabled {
		log.Warn(ctx, "monitor module disabled")
		return nil
	}

	// Resolve eagerly so configuration errors surface at startup.
	monitorDI.GetWatcher(mono.Services())

	log.Info(ctx, "monitor module started",
		"pair", cfg.Monitor.Pair,
		"interval", cfg.Monitor.Interval.String())
	return nil
}
