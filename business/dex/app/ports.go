// Package app contains the router service and port definitions for the dex context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/dex/domain"
	"github.com/fd1az/defi-router/internal/asset"
)

// Strategy is the capability set one concrete DEX deployment implements.
// A strategy binds at construction to fixed contract addresses and one
// chain connectivity handle; reads are side-effect-free.
type Strategy interface {
	// Name returns the registry identifier (e.g. "uniswap_v2").
	Name() string

	// QuoteSwap prices a swap between two assets and returns a fresh
	// route. The amount is the input amount in exact-input mode and the
	// desired output amount in exact-output mode, in decimal units.
	QuoteSwap(ctx context.Context, input, output *asset.Asset, amount decimal.Decimal, mode domain.SwapMode) (*domain.SwapRoute, error)

	// GetReserves returns the pool reserves for a pair in each asset's
	// decimal units, ordered as (a, b).
	GetReserves(ctx context.Context, a, b *asset.Asset) (decimal.Decimal, decimal.Decimal, error)

	// BuildSwapTransaction encodes an unsigned swap transaction for a
	// previously quoted route. It never signs or broadcasts.
	BuildSwapTransaction(ctx context.Context, route *domain.SwapRoute, recipient common.Address) (*blockchainDomain.UnsignedTransaction, error)
}
