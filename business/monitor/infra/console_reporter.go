// Package infra contains infrastructure adapters for the monitor context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/defi-router/business/monitor/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// NewConsoleReporterWithWriter creates a ConsoleReporter writing to w.
func NewConsoleReporterWithWriter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Quote Monitor Started")
	fmt.Fprintln(r.out, "=====================")
	return nil
}

// Report outputs one quoting round to the console.
func (r *ConsoleReporter) Report(snapshot *domain.Snapshot) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "QUOTES  %s  (in: %s)\n", snapshot.Pair, snapshot.AmountIn.StringFixed(4))
	fmt.Fprintf(r.out, "Timestamp:      %s\n", snapshot.Timestamp.Format(time.RFC3339))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	for _, q := range snapshot.Quotes {
		if q.Failed() {
			fmt.Fprintf(r.out, "  %-14s ERROR: %s\n", q.Protocol, q.Err)
			continue
		}
		fmt.Fprintf(r.out, "  %-14s out: %s  price: %s\n", q.Protocol, q.AmountOut.StringFixed(6), q.Price.StringFixed(6))
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	if snapshot.Best != nil {
		fmt.Fprintf(r.out, "  Best:           %s (%s out)\n", snapshot.Best.Protocol, snapshot.Best.AmountOut.StringFixed(6))
		if !snapshot.Spread.IsZero() {
			fmt.Fprintf(r.out, "  Spread:         %s bps (%s vs %s)\n",
				snapshot.Spread.BasisPoints.StringFixed(2),
				snapshot.Spread.BestProtocol,
				snapshot.Spread.WorstProtocol)
		}
	} else {
		fmt.Fprintln(r.out, "  No protocol returned a quote this round")
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Quote Monitor Stopped")
	return nil
}
