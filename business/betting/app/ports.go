// Package app contains the betting market service and port definitions.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/betting/domain"
)

// Strategy is the capability set one prediction market protocol
// implements. Reads are side-effect-free; every Build* method returns an
// unsigned transaction without signing or broadcasting. A strategy binds
// at construction to one protocol deployment and its off-chain API.
type Strategy interface {
	// Name returns the registry identifier (e.g. "polymarket").
	Name() string

	// GetMarket returns one market with its outcomes and token prices.
	GetMarket(ctx context.Context, id string) (*domain.BettingMarket, error)

	// GetMarkets lists markets matching the filter.
	GetMarkets(ctx context.Context, f domain.MarketFilter) ([]domain.BettingMarket, error)

	// GetUserPositions returns the user's holdings, optionally narrowed
	// to one market (empty marketID means all markets).
	GetUserPositions(ctx context.Context, user common.Address, marketID string) ([]domain.BettingPosition, error)

	// GetOutcomeTokenPrice returns the current price of one outcome token.
	GetOutcomeTokenPrice(ctx context.Context, marketID, tokenID string) (decimal.Decimal, error)

	// BuildBuyTransaction encodes a buy of outcome tokens spending amount
	// of collateral at no more than maxPrice per share.
	BuildBuyTransaction(ctx context.Context, marketID, tokenID string, amount, maxPrice decimal.Decimal, user common.Address) (*blockchainDomain.UnsignedTransaction, error)

	// BuildSellTransaction encodes a sale of shares at no less than
	// minPrice per share.
	BuildSellTransaction(ctx context.Context, marketID, tokenID string, shares, minPrice decimal.Decimal, user common.Address) (*blockchainDomain.UnsignedTransaction, error)

	// BuildRedeemTransaction encodes redemption of winning positions in a
	// resolved market.
	BuildRedeemTransaction(ctx context.Context, marketID string, user common.Address) (*blockchainDomain.UnsignedTransaction, error)

	// CalculateBuyQuote prices spending amount of collateral on a token.
	CalculateBuyQuote(ctx context.Context, marketID, tokenID string, amount decimal.Decimal) (*domain.BuyQuote, error)

	// CalculateSellQuote prices selling shares of a token.
	CalculateSellQuote(ctx context.Context, marketID, tokenID string, shares decimal.Decimal) (*domain.SellQuote, error)
}

// PriceStream delivers live outcome-token price changes until closed.
type PriceStream interface {
	// Updates returns the channel of price changes. It is closed when the
	// stream shuts down.
	Updates() <-chan domain.PriceUpdate

	// Close tears down the subscription.
	Close() error
}

// PriceStreamer is an optional Strategy capability for protocols that
// expose a streaming market channel.
type PriceStreamer interface {
	// StreamPrices subscribes to price changes for the given token ids.
	StreamPrices(ctx context.Context, tokenIDs []string) (PriceStream, error)
}
