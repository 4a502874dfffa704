// Package domain contains the core domain types for the dex context.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
)

// SwapMode selects which side of a swap the caller fixes.
type SwapMode string

const (
	SwapModeExactInput  SwapMode = "exact_input"
	SwapModeExactOutput SwapMode = "exact_output"
	SwapModeUndefined   SwapMode = "undefined"
)

// IsDefined reports whether the mode is one of the two executable modes.
func (m SwapMode) IsDefined() bool {
	return m == SwapModeExactInput || m == SwapModeExactOutput
}

// SwapHop is one atomic exchange leg: an amount of one asset traded for an
// amount of another on a single pool. Amounts are either both in human
// decimal units or both in raw smallest-unit integers, never mixed.
type SwapHop struct {
	AssetIn    *asset.Asset
	AmountIn   decimal.Decimal
	AssetOut   *asset.Asset
	AmountOut  decimal.Decimal
	AmountsRaw bool
}

// NewSwapHop validates and builds a single exchange leg.
func NewSwapHop(assetIn *asset.Asset, amountIn decimal.Decimal, assetOut *asset.Asset, amountOut decimal.Decimal, amountsRaw bool) (SwapHop, error) {
	if assetIn == nil || assetOut == nil {
		return SwapHop{}, apperror.Validation(apperror.CodeInvalidQuote, "hop requires both assets")
	}
	if assetIn.Equals(assetOut) {
		return SwapHop{}, apperror.Validation(apperror.CodeInvalidQuote, "input and output assets must be different")
	}
	if !amountIn.IsPositive() || !amountOut.IsPositive() {
		return SwapHop{}, apperror.Validation(apperror.CodeInvalidQuote, "amounts must be greater than 0")
	}
	if amountsRaw && (!amountIn.IsInteger() || !amountOut.IsInteger()) {
		return SwapHop{}, apperror.Validation(apperror.CodeInvalidQuote, "raw amounts must be integers")
	}

	return SwapHop{
		AssetIn:    assetIn,
		AmountIn:   amountIn,
		AssetOut:   assetOut,
		AmountOut:  amountOut,
		AmountsRaw: amountsRaw,
	}, nil
}

// Price returns the execution price as output per unit of input.
// Only defined for decimal amounts; raw integer amounts carry no unit scale.
func (h SwapHop) Price() (decimal.Decimal, error) {
	if h.AmountsRaw {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidQuote, "amounts are raw, price cannot be calculated")
	}
	return h.AmountOut.Div(h.AmountIn), nil
}

// PriceInverted returns the execution price as input per unit of output.
func (h SwapHop) PriceInverted() (decimal.Decimal, error) {
	price, err := h.Price()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(1).Div(price), nil
}

// String renders the hop as "1.5 WETH -> 4800 USDC".
func (h SwapHop) String() string {
	return fmt.Sprintf("%s %s -> %s %s", h.AmountIn, h.AssetIn.Symbol(), h.AmountOut, h.AssetOut.Symbol())
}

// SwapRoute is a priced, executable trade: the outer totals of a (possibly
// multi-hop) path, the mode the caller fixed, a slippage bound, the pool fee
// fraction, and the protocol that produced it. Routes are constructed fresh
// on every quote and never mutated; a refreshed quote is a new route.
type SwapRoute struct {
	SwapHop

	Sequence    []SwapHop
	Mode        SwapMode
	MaxSlippage decimal.Decimal
	Taxes       decimal.Decimal
	Protocol    string
}

// NewSwapRoute validates and builds a route from its outer totals and hop
// sequence. The outer amounts must be decimal; raw units stay inside hops.
func NewSwapRoute(outer SwapHop, sequence []SwapHop, mode SwapMode, maxSlippage, taxes decimal.Decimal, protocol string) (*SwapRoute, error) {
	if !mode.IsDefined() {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "swap mode must be defined")
	}
	if len(sequence) == 0 {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "route must have at least 1 hop")
	}
	if outer.AmountsRaw {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "route amounts cannot be raw")
	}
	if protocol == "" {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "route requires a protocol identifier")
	}
	if maxSlippage.IsNegative() || taxes.IsNegative() {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "slippage and taxes cannot be negative")
	}

	seq := make([]SwapHop, len(sequence))
	copy(seq, sequence)

	return &SwapRoute{
		SwapHop:     outer,
		Sequence:    seq,
		Mode:        mode,
		MaxSlippage: maxSlippage,
		Taxes:       taxes,
		Protocol:    protocol,
	}, nil
}

// NewSingleHopRoute builds a route whose outer totals are the hop itself.
func NewSingleHopRoute(hop SwapHop, mode SwapMode, maxSlippage, taxes decimal.Decimal, protocol string) (*SwapRoute, error) {
	return NewSwapRoute(hop, []SwapHop{hop}, mode, maxSlippage, taxes, protocol)
}

// MaxTaxedSlippage is the total tolerated deviation: slippage bound plus fees.
func (r *SwapRoute) MaxTaxedSlippage() decimal.Decimal {
	return r.MaxSlippage.Add(r.Taxes)
}

// FixedAmount returns the amount the caller fixed: the input for
// exact-input routes, the output for exact-output routes.
func (r *SwapRoute) FixedAmount() decimal.Decimal {
	if r.Mode == SwapModeExactOutput {
		return r.AmountOut
	}
	return r.AmountIn
}

// MinAmountOut applies the slippage bound to the quoted output. Used by
// exact-input execution as the on-chain floor.
func (r *SwapRoute) MinAmountOut() decimal.Decimal {
	return r.AmountOut.Mul(decimal.NewFromInt(1).Sub(r.MaxSlippage))
}

// MaxAmountIn applies the slippage bound to the quoted input. Used by
// exact-output execution as the on-chain ceiling.
func (r *SwapRoute) MaxAmountIn() decimal.Decimal {
	return r.AmountIn.Mul(decimal.NewFromInt(1).Add(r.MaxSlippage))
}
