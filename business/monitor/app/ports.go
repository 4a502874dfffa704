// Package app contains the quote watcher and port definitions for the
// monitor context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	dexDomain "github.com/fd1az/defi-router/business/dex/domain"
	"github.com/fd1az/defi-router/business/monitor/domain"
	"github.com/fd1az/defi-router/internal/asset"
)

// Quoter is the slice of the DEX router the watcher needs: the protocol
// list and per-protocol quoting.
type Quoter interface {
	SupportedProtocols() []string
	Quote(ctx context.Context, input, output *asset.Asset, amount decimal.Decimal, mode dexDomain.SwapMode, protocol string) (*dexDomain.SwapRoute, error)
}

// Reporter receives the watcher's output for display.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report sends a sampling round to be displayed/logged.
	Report(snapshot *domain.Snapshot)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
