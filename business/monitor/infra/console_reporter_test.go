package infra

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/business/monitor/domain"
)

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterWithWriter(&buf)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	quotes := []domain.ProtocolQuote{
		{Protocol: "uniswap_v2", AmountOut: decimal.RequireFromString("4500"), Price: decimal.RequireFromString("3000")},
		{Protocol: "uniswap_v3", AmountOut: decimal.RequireFromString("4530"), Price: decimal.RequireFromString("3020")},
		{Protocol: "curve", Err: "pool not found"},
	}
	snapshot := domain.NewSnapshot("WETH/USDC", decimal.RequireFromString("1.5"), quotes, time.Now())
	r.Report(snapshot)

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Quote Monitor Started",
		"QUOTES  WETH/USDC",
		"uniswap_v3",
		"ERROR: pool not found",
		"Best:           uniswap_v3",
		"Spread:",
		"Quote Monitor Stopped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestConsoleReporter_AllFailedRound(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterWithWriter(&buf)

	quotes := []domain.ProtocolQuote{{Protocol: "uniswap_v2", Err: "rpc down"}}
	r.Report(domain.NewSnapshot("WETH/USDC", decimal.RequireFromString("1"), quotes, time.Now()))

	if !strings.Contains(buf.String(), "No protocol returned a quote this round") {
		t.Errorf("expected all-failed notice, got:\n%s", buf.String())
	}
}
