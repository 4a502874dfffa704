// Package domain contains the core domain types for the moneymarket context.
package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
)

// InterestRateMode selects how borrow interest accrues. The zero value is
// undefined and resolves to the configured default at the service layer.
type InterestRateMode string

const (
	InterestRateModeUndefined InterestRateMode = ""
	InterestRateModeStable    InterestRateMode = "stable"
	InterestRateModeVariable  InterestRateMode = "variable"
)

// IsDefined reports whether the mode carries an explicit choice.
func (m InterestRateMode) IsDefined() bool {
	return m == InterestRateModeStable || m == InterestRateModeVariable
}

// OnChainValue returns the Aave-style rate mode discriminator: 1 for
// stable, 2 for variable.
func (m InterestRateMode) OnChainValue() *big.Int {
	if m == InterestRateModeStable {
		return big.NewInt(1)
	}
	return big.NewInt(2)
}

// ParseInterestRateMode converts a config string into a rate mode.
func ParseInterestRateMode(s string) (InterestRateMode, error) {
	switch InterestRateMode(s) {
	case InterestRateModeStable:
		return InterestRateModeStable, nil
	case InterestRateModeVariable:
		return InterestRateModeVariable, nil
	}
	return InterestRateModeUndefined, apperror.Validation(apperror.CodeValidationError,
		fmt.Sprintf("unknown interest rate mode %q", s))
}

// CollateralMode toggles whether a supplied reserve backs borrowing.
type CollateralMode string

const (
	CollateralModeEnabled  CollateralMode = "enabled"
	CollateralModeDisabled CollateralMode = "disabled"
)

// Enabled reports whether the reserve should be used as collateral.
func (m CollateralMode) Enabled() bool { return m == CollateralModeEnabled }

// RiskLevel buckets a health factor into an alerting band.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// MarketData is one reserve's lending market snapshot in decimal units:
// rates as fractions per year, amounts in the asset's own units, ratios
// in [0, 1].
type MarketData struct {
	Asset                *asset.Asset
	SupplyAPY            decimal.Decimal
	VariableBorrowAPY    decimal.Decimal
	StableBorrowAPY      decimal.Decimal
	TotalSupply          decimal.Decimal
	TotalBorrows         decimal.Decimal
	UtilizationRate      decimal.Decimal
	LiquidityRate        decimal.Decimal
	LiquidationThreshold decimal.Decimal
	LoanToValue          decimal.Decimal
	ReserveFactor        decimal.Decimal
	BorrowingEnabled     bool
	StableRateEnabled    bool
	Frozen               bool
	Protocol             string
}

// NewMarketData validates a reserve snapshot and returns an immutable copy.
func NewMarketData(d MarketData) (*MarketData, error) {
	if d.Asset == nil {
		return nil, apperror.Validation(apperror.CodeValidationError, "market data requires an asset")
	}
	if d.Protocol == "" {
		return nil, apperror.Validation(apperror.CodeValidationError, "market data requires a protocol")
	}
	for _, ratio := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"utilization rate", d.UtilizationRate},
		{"liquidation threshold", d.LiquidationThreshold},
		{"loan to value", d.LoanToValue},
	} {
		if ratio.value.IsNegative() || ratio.value.GreaterThan(decimal.NewFromInt(1)) {
			return nil, apperror.Validation(apperror.CodeValidationError,
				fmt.Sprintf("%s must be within [0, 1], got %s", ratio.name, ratio.value))
		}
	}
	if d.LoanToValue.GreaterThan(d.LiquidationThreshold) {
		return nil, apperror.Validation(apperror.CodeValidationError,
			fmt.Sprintf("loan to value %s exceeds liquidation threshold %s", d.LoanToValue, d.LiquidationThreshold))
	}
	return &d, nil
}

// UserAccountData is a user's aggregate account state in the protocol's
// base currency units.
type UserAccountData struct {
	TotalCollateralValue        decimal.Decimal
	TotalDebtValue              decimal.Decimal
	AvailableBorrowValue        decimal.Decimal
	CurrentLiquidationThreshold decimal.Decimal
	LoanToValue                 decimal.Decimal
	HealthFactor                decimal.Decimal
	Protocol                    string
}

// IsHealthy reports whether the position is above the liquidation bar.
func (d UserAccountData) IsHealthy() bool {
	return d.HealthFactor.GreaterThan(decimal.NewFromInt(1))
}

// LiquidationRiskLevel maps the health factor onto the risk ladder,
// highest threshold first.
func (d UserAccountData) LiquidationRiskLevel() RiskLevel {
	switch {
	case d.HealthFactor.GreaterThan(decimal.NewFromFloat(2.0)):
		return RiskLevelLow
	case d.HealthFactor.GreaterThan(decimal.NewFromFloat(1.5)):
		return RiskLevelMedium
	case d.HealthFactor.GreaterThan(decimal.NewFromFloat(1.1)):
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// LendingPosition is one supplied reserve balance.
type LendingPosition struct {
	Asset           *asset.Asset
	SuppliedAmount  decimal.Decimal
	AccruedInterest decimal.Decimal
	APY             decimal.Decimal
	IsCollateral    bool
	Protocol        string
}

// TotalBalance returns principal plus accrued interest.
func (p LendingPosition) TotalBalance() decimal.Decimal {
	return p.SuppliedAmount.Add(p.AccruedInterest)
}

// CollateralValue returns the balance counting toward collateral, zero
// when the reserve is not enabled as collateral.
func (p LendingPosition) CollateralValue() decimal.Decimal {
	if !p.IsCollateral {
		return decimal.Zero
	}
	return p.TotalBalance()
}

// BorrowingPosition is one outstanding debt balance.
type BorrowingPosition struct {
	Asset           *asset.Asset
	BorrowedAmount  decimal.Decimal
	AccruedInterest decimal.Decimal
	RateMode        InterestRateMode
	CurrentRate     decimal.Decimal
	Protocol        string
}

// TotalDebt returns principal plus accrued interest.
func (p BorrowingPosition) TotalDebt() decimal.Decimal {
	return p.BorrowedAmount.Add(p.AccruedInterest)
}
