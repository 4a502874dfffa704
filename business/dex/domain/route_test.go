package domain

import (
	"strings"
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

func mustHop(t *testing.T, in *asset.Asset, amountIn string, out *asset.Asset, amountOut string, raw bool) SwapHop {
	t.Helper()
	hop, err := NewSwapHop(in, decimal.RequireFromString(amountIn), out, decimal.RequireFromString(amountOut), raw)
	if err != nil {
		t.Fatalf("NewSwapHop() error = %v", err)
	}
	return hop
}

func TestNewSwapHop_Validation(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)

	tests := []struct {
		name      string
		assetIn   *asset.Asset
		amountIn  string
		assetOut  *asset.Asset
		amountOut string
		raw       bool
		wantErr   bool
	}{
		{"valid_decimal", weth, "1.5", usdc, "4800", false, false},
		{"valid_raw", weth, "1500000000000000000", usdc, "4800000000", true, false},
		{"same_asset", weth, "1", weth, "1", false, true},
		{"zero_input", weth, "0", usdc, "100", false, true},
		{"zero_output", weth, "1", usdc, "0", false, true},
		{"negative_input", weth, "-1", usdc, "100", false, true},
		{"raw_fractional_input", weth, "1.5", usdc, "4800", true, true},
		{"raw_fractional_output", weth, "2", usdc, "4800.25", true, true},
		{"nil_asset", nil, "1", usdc, "100", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSwapHop(tt.assetIn, decimal.RequireFromString(tt.amountIn), tt.assetOut, decimal.RequireFromString(tt.amountOut), tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSwapHop() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperror.HasCode(err, apperror.CodeInvalidQuote) {
				t.Errorf("error code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidQuote)
			}
		})
	}
}

func TestSwapHop_Price(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)

	hop := mustHop(t, weth, "2", usdc, "6800", false)

	price, err := hop.Price()
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if want := decimal.RequireFromString("3400"); !price.Equal(want) {
		t.Errorf("Price() = %s, want %s", price, want)
	}

	inv, err := hop.PriceInverted()
	if err != nil {
		t.Fatalf("PriceInverted() error = %v", err)
	}
	// 1/3400, checked against the product identity
	if !inv.Mul(price).Round(12).Equal(decimal.NewFromInt(1)) {
		t.Errorf("PriceInverted()*Price() = %s, want 1", inv.Mul(price))
	}
}

func TestSwapHop_PriceRejectsRawAmounts(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)

	hop := mustHop(t, weth, "2000000000000000000", usdc, "6800000000", true)

	if _, err := hop.Price(); err == nil {
		t.Error("Price() on raw hop should fail")
	}
	if _, err := hop.PriceInverted(); err == nil {
		t.Error("PriceInverted() on raw hop should fail")
	}
}

func TestNewSwapRoute_Validation(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)
	decHop := mustHop(t, weth, "1", usdc, "3400", false)
	rawHop := mustHop(t, weth, "1000000000000000000", usdc, "3400000000", true)

	tests := []struct {
		name     string
		outer    SwapHop
		sequence []SwapHop
		mode     SwapMode
		wantErr  bool
	}{
		{"valid_exact_input", decHop, []SwapHop{decHop}, SwapModeExactInput, false},
		{"valid_exact_output", decHop, []SwapHop{decHop}, SwapModeExactOutput, false},
		{"undefined_mode", decHop, []SwapHop{decHop}, SwapModeUndefined, true},
		{"unknown_mode", decHop, []SwapHop{decHop}, SwapMode("market"), true},
		{"empty_sequence", decHop, nil, SwapModeExactInput, true},
		{"raw_outer_amounts", rawHop, []SwapHop{rawHop}, SwapModeExactInput, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSwapRoute(tt.outer, tt.sequence, tt.mode, decimal.RequireFromString("0.005"), decimal.RequireFromString("0.003"), "uniswap_v2")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSwapRoute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperror.HasCode(err, apperror.CodeInvalidRoute) {
				t.Errorf("error code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidRoute)
			}
		})
	}
}

func TestNewSwapRoute_RequiresProtocol(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)
	hop := mustHop(t, weth, "1", usdc, "3400", false)

	if _, err := NewSingleHopRoute(hop, SwapModeExactInput, decimal.Zero, decimal.Zero, ""); err == nil {
		t.Error("NewSingleHopRoute() with empty protocol should fail")
	}
}

func TestSwapRoute_Derived(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)
	hop := mustHop(t, weth, "1", usdc, "3400", false)

	route, err := NewSingleHopRoute(hop, SwapModeExactInput, decimal.RequireFromString("0.005"), decimal.RequireFromString("0.003"), "uniswap_v2")
	if err != nil {
		t.Fatalf("NewSingleHopRoute() error = %v", err)
	}

	if want := decimal.RequireFromString("0.008"); !route.MaxTaxedSlippage().Equal(want) {
		t.Errorf("MaxTaxedSlippage() = %s, want %s", route.MaxTaxedSlippage(), want)
	}
	if want := decimal.RequireFromString("3383"); !route.MinAmountOut().Equal(want) {
		t.Errorf("MinAmountOut() = %s, want %s", route.MinAmountOut(), want)
	}
	if want := decimal.RequireFromString("1.005"); !route.MaxAmountIn().Equal(want) {
		t.Errorf("MaxAmountIn() = %s, want %s", route.MaxAmountIn(), want)
	}
	if !route.FixedAmount().Equal(decimal.NewFromInt(1)) {
		t.Errorf("FixedAmount() = %s, want 1 for exact input", route.FixedAmount())
	}

	outRoute, err := NewSingleHopRoute(hop, SwapModeExactOutput, decimal.Zero, decimal.Zero, "uniswap_v2")
	if err != nil {
		t.Fatalf("NewSingleHopRoute() error = %v", err)
	}
	if !outRoute.FixedAmount().Equal(decimal.NewFromInt(3400)) {
		t.Errorf("FixedAmount() = %s, want 3400 for exact output", outRoute.FixedAmount())
	}
}

func TestSwapRoute_SequenceIsCopied(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)
	hop := mustHop(t, weth, "1", usdc, "3400", false)

	seq := []SwapHop{hop}
	route, err := NewSwapRoute(hop, seq, SwapModeExactInput, decimal.Zero, decimal.Zero, "uniswap_v2")
	if err != nil {
		t.Fatalf("NewSwapRoute() error = %v", err)
	}

	seq[0].AmountIn = decimal.NewFromInt(999)
	if !route.Sequence[0].AmountIn.Equal(decimal.NewFromInt(1)) {
		t.Error("mutating the caller's slice must not change the route")
	}
}

func TestSwapHop_String(t *testing.T) {
	weth := testToken("WETH", 0x01, 18)
	usdc := testToken("USDC", 0x02, 6)
	hop := mustHop(t, weth, "1.5", usdc, "5100", false)

	s := hop.String()
	if !strings.Contains(s, "WETH") || !strings.Contains(s, "USDC") {
		t.Errorf("String() = %q, want both symbols present", s)
	}
}
