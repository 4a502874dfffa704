package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
)

func testToken(symbol string, addrByte byte, decimals uint8) *asset.Asset {
	id := asset.NewTokenAssetID(asset.ChainIDEthereum, common.BytesToAddress([]byte{addrByte}))
	return asset.NewAsset(id, symbol, decimals)
}

func TestNewMarketData_Validation(t *testing.T) {
	usdc := testToken("USDC", 0x01, 6)

	valid := MarketData{
		Asset:                usdc,
		SupplyAPY:            decimal.RequireFromString("0.031"),
		VariableBorrowAPY:    decimal.RequireFromString("0.045"),
		UtilizationRate:      decimal.RequireFromString("0.82"),
		LiquidationThreshold: decimal.RequireFromString("0.78"),
		LoanToValue:          decimal.RequireFromString("0.75"),
		Protocol:             "aave_v3",
	}

	tests := []struct {
		name    string
		mutate  func(d *MarketData)
		wantErr bool
	}{
		{"valid", func(d *MarketData) {}, false},
		{"nil_asset", func(d *MarketData) { d.Asset = nil }, true},
		{"empty_protocol", func(d *MarketData) { d.Protocol = "" }, true},
		{"utilization_above_one", func(d *MarketData) { d.UtilizationRate = decimal.RequireFromString("1.2") }, true},
		{"negative_ltv", func(d *MarketData) { d.LoanToValue = decimal.RequireFromString("-0.1") }, true},
		{"threshold_above_one", func(d *MarketData) { d.LiquidationThreshold = decimal.RequireFromString("1.01") }, true},
		{"ltv_above_threshold", func(d *MarketData) {
			d.LoanToValue = decimal.RequireFromString("0.80")
		}, true},
		{"ltv_equals_threshold", func(d *MarketData) {
			d.LoanToValue = decimal.RequireFromString("0.78")
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			_, err := NewMarketData(d)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMarketData() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperror.HasCode(err, apperror.CodeValidationError) {
				t.Errorf("error code = %v, want %v", apperror.GetCode(err), apperror.CodeValidationError)
			}
		})
	}
}

func TestUserAccountData_LiquidationRiskLevel(t *testing.T) {
	tests := []struct {
		healthFactor string
		want         RiskLevel
	}{
		{"2.5", RiskLevelLow},
		{"2.0", RiskLevelMedium}, // boundary: strictly greater than 2.0 is LOW
		{"1.7", RiskLevelMedium},
		{"1.5", RiskLevelHigh},
		{"1.3", RiskLevelHigh},
		{"1.1", RiskLevelCritical},
		{"1.05", RiskLevelCritical},
		{"0.9", RiskLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.healthFactor, func(t *testing.T) {
			d := UserAccountData{HealthFactor: decimal.RequireFromString(tt.healthFactor)}
			if got := d.LiquidationRiskLevel(); got != tt.want {
				t.Errorf("LiquidationRiskLevel(%s) = %v, want %v", tt.healthFactor, got, tt.want)
			}
		})
	}
}

func TestUserAccountData_IsHealthy(t *testing.T) {
	healthy := UserAccountData{HealthFactor: decimal.RequireFromString("1.001")}
	if !healthy.IsHealthy() {
		t.Error("IsHealthy() = false for health factor above 1")
	}
	atBar := UserAccountData{HealthFactor: decimal.NewFromInt(1)}
	if atBar.IsHealthy() {
		t.Error("IsHealthy() = true for health factor exactly 1")
	}
}

func TestLendingPosition_Derived(t *testing.T) {
	usdc := testToken("USDC", 0x01, 6)
	pos := LendingPosition{
		Asset:           usdc,
		SuppliedAmount:  decimal.RequireFromString("1000"),
		AccruedInterest: decimal.RequireFromString("12.5"),
		IsCollateral:    true,
		Protocol:        "aave_v3",
	}

	if want := decimal.RequireFromString("1012.5"); !pos.TotalBalance().Equal(want) {
		t.Errorf("TotalBalance() = %s, want %s", pos.TotalBalance(), want)
	}
	if want := decimal.RequireFromString("1012.5"); !pos.CollateralValue().Equal(want) {
		t.Errorf("CollateralValue() = %s, want %s", pos.CollateralValue(), want)
	}

	pos.IsCollateral = false
	if !pos.CollateralValue().IsZero() {
		t.Errorf("CollateralValue() = %s for non-collateral position, want 0", pos.CollateralValue())
	}
}

func TestBorrowingPosition_TotalDebt(t *testing.T) {
	weth := testToken("WETH", 0x02, 18)
	pos := BorrowingPosition{
		Asset:          weth,
		BorrowedAmount: decimal.RequireFromString("2"),
		AccruedInterest: decimal.RequireFromString("0.05"),
		RateMode:       InterestRateModeVariable,
		Protocol:       "aave_v3",
	}
	if want := decimal.RequireFromString("2.05"); !pos.TotalDebt().Equal(want) {
		t.Errorf("TotalDebt() = %s, want %s", pos.TotalDebt(), want)
	}
}

func TestInterestRateMode_OnChainValue(t *testing.T) {
	if got := InterestRateModeStable.OnChainValue(); got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("stable OnChainValue() = %s, want 1", got)
	}
	if got := InterestRateModeVariable.OnChainValue(); got.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("variable OnChainValue() = %s, want 2", got)
	}
}

func TestParseInterestRateMode(t *testing.T) {
	tests := []struct {
		in      string
		want    InterestRateMode
		wantErr bool
	}{
		{"stable", InterestRateModeStable, false},
		{"variable", InterestRateModeVariable, false},
		{"", InterestRateModeUndefined, true},
		{"fixed", InterestRateModeUndefined, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterestRateMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInterestRateMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseInterestRateMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
