// Package di contains dependency injection tokens for the monitor context.
package di

import (
	"github.com/fd1az/defi-router/business/monitor/app"
	"github.com/fd1az/defi-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Watcher = di.NewToken[*app.Watcher]("monitor.Watcher")
)

// Private dependency tokens - internal to monitor module
var (
	Reporter = di.NewToken[app.Reporter]("monitor:reporter")
)

// Helper functions for type-safe access
func GetWatcher(c di.ServiceRegistry) *app.Watcher {
	return di.GetToken(c, Watcher)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
