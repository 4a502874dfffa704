// Package infra contains infrastructure adapters for the monitor context.
package infra

import (
	"context"
	"time"

	"github.com/fd1az/defi-router/business/monitor/domain"
	"github.com/fd1az/defi-router/pkg/ui"
)

// TUIReporter implements Reporter by forwarding rounds to the Bubble Tea
// program as messages. The program itself is owned by main; this adapter
// only sends.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start marks the protocol layer ready in the startup screen.
func (r *TUIReporter) Start(ctx context.Context) error {
	ui.Send(ui.StartupMsg{Step: "protocols", Status: "connected"})
	return nil
}

// Report sends a quoting round to the TUI.
func (r *TUIReporter) Report(snapshot *domain.Snapshot) {
	ui.Send(ui.SnapshotMsg{Snapshot: snapshot})
}

// UpdateConnectionStatus sends connection status to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	ui.Send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	ui.Send(ui.LogMsg{Level: "info", Message: "quote monitor stopped"})
	return nil
}
