package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/internal/apperror"
)

// Constant-product pools charge a 0.3% fee: 997/1000 of the input trades.
var (
	cpFeeNumerator   = big.NewInt(997)
	cpFeeDenominator = big.NewInt(1000)
)

// q96 is the Q64.96 fixed-point scale used by concentrated-liquidity pools.
var q96 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 96), 0)

// ConstantProductAmountOut computes the output of a constant-product swap:
//
//	amountOut = floor(amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997))
//
// All values are raw smallest-unit integers; decimal conversion belongs to
// the strategy boundary.
func ConstantProductAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "input amount must be positive")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("pool has no reserves"))
	}

	amountInWithFee := new(big.Int).Mul(amountIn, cpFeeNumerator)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, cpFeeDenominator)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Div(numerator, denominator), nil
}

// ConstantProductAmountIn computes the input required for an exact output:
//
//	amountIn = floor(reserveIn*amountOut*1000 / ((reserveOut-amountOut)*997)) + 1
//
// The +1 rounds in the pool's favor so the quoted output stays achievable.
// Fails when the requested output meets or exceeds the pool's reserve.
func ConstantProductAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "output amount must be positive")
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("pool has no reserves"))
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("requested output exceeds pool reserves"))
	}

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, cpFeeDenominator)
	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, cpFeeNumerator)

	amountIn := numerator.Div(numerator, denominator)
	return amountIn.Add(amountIn, big.NewInt(1)), nil
}

// SqrtPriceToPrice converts a pool's Q64.96 square-root price accumulator to
// a spot price of token1 per token0: (sqrtPriceX96 / 2^96)^2.
func SqrtPriceToPrice(sqrtPriceX96 *big.Int) decimal.Decimal {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero
	}
	sqrt := decimal.NewFromBigInt(sqrtPriceX96, 0).Div(q96)
	return sqrt.Mul(sqrt)
}

// ApproximateReservesFromLiquidity derives indicative raw reserves for a
// concentrated-liquidity pool from its in-range liquidity and spot price:
// reserve(token0) = L/price, reserve(token1) = L*price, assigned to (A, B)
// by the pool's token0 ordering. Concentrated liquidity spreads reserves
// across price ranges, so this is informational only and never used for
// quoting.
func ApproximateReservesFromLiquidity(liquidity, sqrtPriceX96 *big.Int, assetAIsToken0 bool) (decimal.Decimal, decimal.Decimal, error) {
	if liquidity == nil || liquidity.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("pool has no active liquidity"))
	}

	price := SqrtPriceToPrice(sqrtPriceX96)
	if price.IsZero() {
		return decimal.Zero, decimal.Zero, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("pool price is zero"))
	}

	l := decimal.NewFromBigInt(liquidity, 0)
	reserve0 := l.Div(price)
	reserve1 := l.Mul(price)

	if assetAIsToken0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}
