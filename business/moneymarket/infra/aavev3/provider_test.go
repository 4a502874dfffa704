package aavev3

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/business/moneymarket/domain"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

func testProvider(t *testing.T) *Provider {
	t.Helper()
	cfg := config.MoneyMarketConfig{
		DefaultInterestRateMode: "variable",
		AaveV3: config.AaveV3Config{
			Enabled:             true,
			PoolAddress:         "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2",
			DataProviderAddress: "0x7B4EB56E7CD4b454BA8ff71E4518426369a138a3",
		},
	}
	p, err := NewProvider(nil, cfg, asset.DefaultRegistry(), logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func testToken(symbol string, addrByte byte, decimals uint8) *asset.Asset {
	id := asset.NewTokenAssetID(asset.ChainIDEthereum, common.BytesToAddress([]byte{addrByte}))
	return asset.NewAsset(id, symbol, decimals)
}

func TestScalingHelpers(t *testing.T) {
	ray, _ := new(big.Int).SetString("31000000000000000000000000", 10) // 3.1% in ray
	if got, want := rayToDecimal(ray), decimal.RequireFromString("0.031"); !got.Equal(want) {
		t.Errorf("rayToDecimal() = %s, want %s", got, want)
	}
	if got, want := bpsToDecimal(big.NewInt(8250)), decimal.RequireFromString("0.825"); !got.Equal(want) {
		t.Errorf("bpsToDecimal() = %s, want %s", got, want)
	}
	if got, want := baseUnitsToDecimal(big.NewInt(150000000000)), decimal.RequireFromString("1500"); !got.Equal(want) {
		t.Errorf("baseUnitsToDecimal() = %s, want %s", got, want)
	}
	wad, _ := new(big.Int).SetString("1250000000000000000", 10)
	if got, want := wadToDecimal(wad), decimal.RequireFromString("1.25"); !got.Equal(want) {
		t.Errorf("wadToDecimal() = %s, want %s", got, want)
	}
}

func TestRawAmount(t *testing.T) {
	usdc := testToken("USDC", 0x01, 6)

	tests := []struct {
		name    string
		amount  string
		want    string
		wantErr bool
	}{
		{"whole", "100", "100000000", false},
		{"fractional", "0.5", "500000", false},
		{"sub_precision_floored", "0.0000001", "", true}, // floors to zero, not positive raw
		{"zero", "0", "", true},
		{"negative", "-5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rawAmount(usdc, decimal.RequireFromString(tt.amount))
			if (err != nil) != tt.wantErr {
				t.Fatalf("rawAmount(%s) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			want, _ := new(big.Int).SetString(tt.want, 10)
			if got.Cmp(want) != 0 {
				t.Errorf("rawAmount(%s) = %s, want %s", tt.amount, got, want)
			}
		})
	}
}

func TestBuildRepayTransaction_RepayAllSentinel(t *testing.T) {
	p := testProvider(t)
	usdc := testToken("USDC", 0x01, 6)
	user := common.BytesToAddress([]byte{0xAA})

	tx, err := p.BuildRepayTransaction(context.Background(), usdc, decimal.Zero, domain.InterestRateModeVariable, user, true)
	if err != nil {
		t.Fatalf("BuildRepayTransaction() error = %v", err)
	}
	if tx.To != p.pool {
		t.Errorf("tx.To = %s, want pool %s", tx.To.Hex(), p.pool.Hex())
	}

	args, err := p.poolABI.Methods["repay"].Inputs.Unpack(tx.Data[4:])
	if err != nil {
		t.Fatalf("failed to decode repay calldata: %v", err)
	}
	if got := args[1].(*big.Int); got.Cmp(maxUint256) != 0 {
		t.Errorf("repay amount = %s, want max uint256 sentinel", got)
	}
	if got := args[2].(*big.Int); got.Cmp(big.NewInt(2)) != 0 {
		t.Errorf("rate mode = %s, want 2 (variable)", got)
	}
}

func TestBuildBorrowTransaction_EncodesRateMode(t *testing.T) {
	p := testProvider(t)
	usdc := testToken("USDC", 0x01, 6)
	user := common.BytesToAddress([]byte{0xAA})

	tx, err := p.BuildBorrowTransaction(context.Background(), usdc, decimal.RequireFromString("250"), domain.InterestRateModeStable, user)
	if err != nil {
		t.Fatalf("BuildBorrowTransaction() error = %v", err)
	}

	args, err := p.poolABI.Methods["borrow"].Inputs.Unpack(tx.Data[4:])
	if err != nil {
		t.Fatalf("failed to decode borrow calldata: %v", err)
	}
	if got := args[1].(*big.Int); got.Cmp(big.NewInt(250000000)) != 0 {
		t.Errorf("borrow amount = %s, want 250000000", got)
	}
	if got := args[2].(*big.Int); got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("rate mode = %s, want 1 (stable)", got)
	}
	if got := args[4].(common.Address); got != user {
		t.Errorf("onBehalfOf = %s, want %s", got.Hex(), user.Hex())
	}

	if _, err := p.BuildBorrowTransaction(context.Background(), usdc, decimal.NewFromInt(1), domain.InterestRateModeUndefined, user); err == nil {
		t.Error("BuildBorrowTransaction() accepted an undefined rate mode")
	}
}

func TestBuildCollateralTransaction(t *testing.T) {
	p := testProvider(t)
	usdc := testToken("USDC", 0x01, 6)

	tx, err := p.BuildCollateralTransaction(context.Background(), usdc, domain.CollateralModeDisabled)
	if err != nil {
		t.Fatalf("BuildCollateralTransaction() error = %v", err)
	}

	args, err := p.poolABI.Methods["setUserUseReserveAsCollateral"].Inputs.Unpack(tx.Data[4:])
	if err != nil {
		t.Fatalf("failed to decode calldata: %v", err)
	}
	if got := args[1].(bool); got {
		t.Error("useAsCollateral = true, want false for disabled mode")
	}
}
