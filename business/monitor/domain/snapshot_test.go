package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func quote(protocol, out string) ProtocolQuote {
	return ProtocolQuote{
		Protocol:  protocol,
		AmountOut: decimal.RequireFromString(out),
	}
}

func TestCalculateSpread(t *testing.T) {
	tests := []struct {
		name     string
		quotes   []ProtocolQuote
		wantBest string
		wantBps  string
	}{
		{
			name:     "two_protocols",
			quotes:   []ProtocolQuote{quote("uniswap_v2", "3000"), quote("uniswap_v3", "3015")},
			wantBest: "uniswap_v3",
			wantBps:  "50",
		},
		{
			name:     "failed_quote_ignored",
			quotes:   []ProtocolQuote{quote("uniswap_v2", "3000"), {Protocol: "uniswap_v3", Err: "pool not found"}, quote("sushi", "2985")},
			wantBest: "uniswap_v2",
			wantBps:  "50.2512562814070352",
		},
		{
			name:   "single_success_is_zero_spread",
			quotes: []ProtocolQuote{quote("uniswap_v2", "3000"), {Protocol: "uniswap_v3", Err: "rpc down"}},
		},
		{
			name:   "all_failed",
			quotes: []ProtocolQuote{{Protocol: "uniswap_v2", Err: "a"}, {Protocol: "uniswap_v3", Err: "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := CalculateSpread(tt.quotes)
			if tt.wantBest == "" {
				if !s.IsZero() {
					t.Errorf("expected zero spread, got %+v", s)
				}
				return
			}
			if s.BestProtocol != tt.wantBest {
				t.Errorf("BestProtocol = %s, want %s", s.BestProtocol, tt.wantBest)
			}
			want := decimal.RequireFromString(tt.wantBps)
			if s.BasisPoints.Sub(want).Abs().GreaterThan(decimal.RequireFromString("0.0001")) {
				t.Errorf("BasisPoints = %s, want %s", s.BasisPoints, want)
			}
		})
	}
}

func TestNewSnapshot(t *testing.T) {
	now := time.Now()
	quotes := []ProtocolQuote{
		quote("uniswap_v2", "3000"),
		{Protocol: "broken", Err: "timeout"},
		quote("uniswap_v3", "3015"),
	}

	s := NewSnapshot("WETH/USDC", decimal.NewFromInt(1), quotes, now)

	if s.Best == nil || s.Best.Protocol != "uniswap_v3" {
		t.Fatalf("Best = %+v, want uniswap_v3", s.Best)
	}
	if s.HealthyQuotes() != 2 {
		t.Errorf("HealthyQuotes() = %d, want 2", s.HealthyQuotes())
	}
	if s.Spread.WorstProtocol != "uniswap_v2" {
		t.Errorf("WorstProtocol = %s, want uniswap_v2", s.Spread.WorstProtocol)
	}
}

func TestNewSnapshot_TiesKeepFirst(t *testing.T) {
	s := NewSnapshot("WETH/USDC", decimal.NewFromInt(1), []ProtocolQuote{
		quote("uniswap_v2", "3000"),
		quote("uniswap_v3", "3000"),
	}, time.Now())

	if s.Best.Protocol != "uniswap_v2" {
		t.Errorf("Best = %s, want first-seen uniswap_v2", s.Best.Protocol)
	}
	if !s.Spread.IsZero() {
		t.Errorf("expected zero spread on equal outputs, got %+v", s.Spread)
	}
}

func TestNewSnapshot_AllFailed(t *testing.T) {
	s := NewSnapshot("WETH/USDC", decimal.NewFromInt(1), []ProtocolQuote{
		{Protocol: "uniswap_v2", Err: "down"},
	}, time.Now())

	if s.Best != nil {
		t.Errorf("Best = %+v, want nil", s.Best)
	}
	if s.HealthyQuotes() != 0 {
		t.Errorf("HealthyQuotes() = %d, want 0", s.HealthyQuotes())
	}
}
