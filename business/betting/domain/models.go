// Package domain contains the core domain types for the betting context.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
)

// MarketStatus is the lifecycle state of a prediction market.
type MarketStatus string

const (
	MarketStatusActive    MarketStatus = "active"
	MarketStatusClosed    MarketStatus = "closed"
	MarketStatusResolved  MarketStatus = "resolved"
	MarketStatusCancelled MarketStatus = "cancelled"
)

// OutcomeToken is one tradable outcome share. Its price doubles as the
// market's implied probability for that outcome.
type OutcomeToken struct {
	TokenID      string
	OutcomeName  string
	TokenAddress string // empty when the protocol keeps tokens off-chain
	CurrentPrice decimal.Decimal
	TotalSupply  decimal.Decimal
	Volume24h    decimal.Decimal
	Probability  decimal.Decimal
}

// NewOutcomeToken validates an outcome token and returns an immutable
// copy. Probability must lie in [0, 1].
func NewOutcomeToken(t OutcomeToken) (*OutcomeToken, error) {
	if t.TokenID == "" {
		return nil, apperror.Validation(apperror.CodeValidationError, "outcome token requires a token id")
	}
	if t.Probability.IsNegative() || t.Probability.GreaterThan(decimal.NewFromInt(1)) {
		return nil, apperror.Validation(apperror.CodeValidationError,
			fmt.Sprintf("probability must be within [0, 1], got %s", t.Probability))
	}
	return &t, nil
}

// MarketOutcome is one possible resolution of a market, with the tokens
// that pay out when it wins.
type MarketOutcome struct {
	OutcomeID string
	Text      string
	Tokens    []OutcomeToken
	Winning   bool
}

// TotalProbability sums the implied probabilities of the outcome's tokens.
func (o MarketOutcome) TotalProbability() decimal.Decimal {
	total := decimal.Zero
	for _, t := range o.Tokens {
		total = total.Add(t.Probability)
	}
	return total
}

// BettingMarket is one prediction market with its outcomes.
type BettingMarket struct {
	ID                string
	Title             string
	Description       string
	Category          string
	Status            MarketStatus
	Collateral        *asset.Asset
	Outcomes          []MarketOutcome
	TotalVolume       decimal.Decimal
	TotalLiquidity    decimal.Decimal
	CreatedAt         time.Time
	EndDate           *time.Time
	ResolutionDate    *time.Time
	ResolvedOutcomeID string
	Protocol          string
}

// NewBettingMarket validates market consistency and returns an immutable
// copy: a resolved market must name its winning outcome, and the end date
// cannot precede creation.
func NewBettingMarket(m BettingMarket) (*BettingMarket, error) {
	if m.ID == "" {
		return nil, apperror.Validation(apperror.CodeValidationError, "market requires an id")
	}
	if m.Protocol == "" {
		return nil, apperror.Validation(apperror.CodeValidationError, "market requires a protocol")
	}
	if m.Status == MarketStatusResolved && m.ResolvedOutcomeID == "" {
		return nil, apperror.Validation(apperror.CodeValidationError,
			"resolved markets must carry a resolved outcome id")
	}
	if m.EndDate != nil && m.EndDate.Before(m.CreatedAt) {
		return nil, apperror.Validation(apperror.CodeValidationError,
			"end date cannot be before creation date")
	}
	return &m, nil
}

// IsActive reports whether the market accepts trades.
func (m *BettingMarket) IsActive() bool { return m.Status == MarketStatusActive }

// IsResolved reports whether the market has settled.
func (m *BettingMarket) IsResolved() bool { return m.Status == MarketStatusResolved }

// WinningOutcome returns the resolved outcome, or nil when the market is
// unresolved or the resolved id is unknown.
func (m *BettingMarket) WinningOutcome() *MarketOutcome {
	if m.ResolvedOutcomeID == "" {
		return nil
	}
	for i := range m.Outcomes {
		if m.Outcomes[i].OutcomeID == m.ResolvedOutcomeID {
			return &m.Outcomes[i]
		}
	}
	return nil
}

// MarketFilter narrows market listings. Zero values mean "no constraint";
// Limit 0 falls back to the protocol default.
type MarketFilter struct {
	Category string
	Status   MarketStatus
	Limit    int
	Offset   int
}

// BettingPosition is a user's holding in one outcome token.
type BettingPosition struct {
	MarketID      string
	OutcomeToken  OutcomeToken
	SharesOwned   decimal.Decimal
	AveragePrice  decimal.Decimal
	TotalInvested decimal.Decimal
	CurrentValue  decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Protocol      string
}

// ROIPercentage returns the unrealized return on investment in percent,
// zero when nothing was invested.
func (p BettingPosition) ROIPercentage() decimal.Decimal {
	if p.TotalInvested.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPnL.Div(p.TotalInvested).Mul(decimal.NewFromInt(100))
}

// IsProfitable reports whether the position carries an unrealized gain.
func (p BettingPosition) IsProfitable() bool {
	return p.UnrealizedPnL.IsPositive()
}

// BuyQuote prices a collateral spend against an outcome token.
type BuyQuote struct {
	MarketID       string
	TokenID        string
	Amount         decimal.Decimal // collateral to spend, before fees
	Price          decimal.Decimal
	ExpectedShares decimal.Decimal
	Fee            decimal.Decimal
	TotalCost      decimal.Decimal
}

// SellQuote prices a share sale into collateral.
type SellQuote struct {
	MarketID    string
	TokenID     string
	Shares      decimal.Decimal
	Price       decimal.Decimal
	GrossPayout decimal.Decimal
	Fee         decimal.Decimal
	NetPayout   decimal.Decimal
}

// PriceUpdate is one live outcome-token price change from a protocol's
// streaming market channel.
type PriceUpdate struct {
	TokenID   string
	MarketID  string
	Price     decimal.Decimal
	Timestamp time.Time
}
