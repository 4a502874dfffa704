package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/internal/apperror"
)

func TestNewOutcomeToken_ProbabilityBounds(t *testing.T) {
	tests := []struct {
		name        string
		probability string
		wantErr     bool
	}{
		{"zero", "0", false},
		{"half", "0.5", false},
		{"one", "1", false},
		{"negative", "-0.1", true},
		{"above_one", "1.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOutcomeToken(OutcomeToken{
				TokenID:      "tok-1",
				OutcomeName:  "Yes",
				CurrentPrice: decimal.RequireFromString("0.6"),
				Probability:  decimal.RequireFromString(tt.probability),
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewOutcomeToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperror.HasCode(err, apperror.CodeValidationError) {
				t.Errorf("error code = %v, want %v", apperror.GetCode(err), apperror.CodeValidationError)
			}
		})
	}

	if _, err := NewOutcomeToken(OutcomeToken{Probability: decimal.Zero}); err == nil {
		t.Error("NewOutcomeToken() accepted an empty token id")
	}
}

func TestNewBettingMarket_Consistency(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(30 * 24 * time.Hour)
	earlier := created.Add(-time.Hour)

	base := BettingMarket{
		ID:        "0xabc",
		Title:     "Will it happen?",
		Status:    MarketStatusActive,
		CreatedAt: created,
		Protocol:  "polymarket",
	}

	tests := []struct {
		name    string
		mutate  func(m *BettingMarket)
		wantErr bool
	}{
		{"valid_active", func(m *BettingMarket) {}, false},
		{"valid_resolved", func(m *BettingMarket) {
			m.Status = MarketStatusResolved
			m.ResolvedOutcomeID = "0"
		}, false},
		{"resolved_without_outcome", func(m *BettingMarket) { m.Status = MarketStatusResolved }, true},
		{"end_before_creation", func(m *BettingMarket) { m.EndDate = &earlier }, true},
		{"end_after_creation", func(m *BettingMarket) { m.EndDate = &later }, false},
		{"missing_id", func(m *BettingMarket) { m.ID = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base
			tt.mutate(&m)
			_, err := NewBettingMarket(m)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBettingMarket() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBettingMarket_WinningOutcome(t *testing.T) {
	market, err := NewBettingMarket(BettingMarket{
		ID:     "0xabc",
		Status: MarketStatusResolved,
		Outcomes: []MarketOutcome{
			{OutcomeID: "0", Text: "Yes"},
			{OutcomeID: "1", Text: "No"},
		},
		ResolvedOutcomeID: "1",
		Protocol:          "polymarket",
	})
	if err != nil {
		t.Fatalf("NewBettingMarket() error = %v", err)
	}

	won := market.WinningOutcome()
	if won == nil || won.Text != "No" {
		t.Errorf("WinningOutcome() = %v, want the No outcome", won)
	}

	market.ResolvedOutcomeID = "99"
	if market.WinningOutcome() != nil {
		t.Error("WinningOutcome() returned an outcome for an unknown resolved id")
	}
}

func TestMarketOutcome_TotalProbability(t *testing.T) {
	outcome := MarketOutcome{
		Tokens: []OutcomeToken{
			{TokenID: "a", Probability: decimal.RequireFromString("0.35")},
			{TokenID: "b", Probability: decimal.RequireFromString("0.25")},
		},
	}
	if want := decimal.RequireFromString("0.6"); !outcome.TotalProbability().Equal(want) {
		t.Errorf("TotalProbability() = %s, want %s", outcome.TotalProbability(), want)
	}
}

func TestBettingPosition_ROI(t *testing.T) {
	pos := BettingPosition{
		TotalInvested: decimal.RequireFromString("200"),
		UnrealizedPnL: decimal.RequireFromString("50"),
	}
	if want := decimal.RequireFromString("25"); !pos.ROIPercentage().Equal(want) {
		t.Errorf("ROIPercentage() = %s, want %s", pos.ROIPercentage(), want)
	}
	if !pos.IsProfitable() {
		t.Error("IsProfitable() = false for a positive PnL")
	}

	empty := BettingPosition{}
	if !empty.ROIPercentage().IsZero() {
		t.Errorf("ROIPercentage() = %s with nothing invested, want 0", empty.ROIPercentage())
	}

	losing := BettingPosition{
		TotalInvested: decimal.RequireFromString("100"),
		UnrealizedPnL: decimal.RequireFromString("-10"),
	}
	if losing.IsProfitable() {
		t.Error("IsProfitable() = true for a negative PnL")
	}
}
