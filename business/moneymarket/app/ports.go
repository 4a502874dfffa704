// Package app contains the money market service and port definitions.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/moneymarket/domain"
	"github.com/fd1az/defi-router/internal/asset"
)

// Strategy is the capability set one lending protocol deployment
// implements. A strategy binds at construction to fixed contract addresses
// and one chain connectivity handle; reads are side-effect-free and every
// Build* method returns an unsigned transaction without signing or
// broadcasting.
type Strategy interface {
	// Name returns the registry identifier (e.g. "aave_v3").
	Name() string

	// GetMarketData returns one reserve's market snapshot.
	GetMarketData(ctx context.Context, a *asset.Asset) (*domain.MarketData, error)

	// GetUserAccountData returns the user's aggregate account state.
	GetUserAccountData(ctx context.Context, user common.Address) (*domain.UserAccountData, error)

	// GetLendingPositions returns the user's supplied balances, one entry
	// per reserve with a nonzero balance.
	GetLendingPositions(ctx context.Context, user common.Address) ([]domain.LendingPosition, error)

	// GetBorrowingPositions returns the user's outstanding debts, one
	// entry per reserve and rate mode with a nonzero balance.
	GetBorrowingPositions(ctx context.Context, user common.Address) ([]domain.BorrowingPosition, error)

	// BuildSupplyTransaction encodes a deposit of amount (decimal units)
	// credited to onBehalfOf.
	BuildSupplyTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, onBehalfOf common.Address) (*blockchainDomain.UnsignedTransaction, error)

	// BuildWithdrawTransaction encodes a withdrawal paid out to the given
	// address.
	BuildWithdrawTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, to common.Address) (*blockchainDomain.UnsignedTransaction, error)

	// BuildBorrowTransaction encodes a borrow under the given rate mode.
	BuildBorrowTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address) (*blockchainDomain.UnsignedTransaction, error)

	// BuildRepayTransaction encodes a repayment. With repayAll the amount
	// is replaced by the protocol's repay-everything sentinel.
	BuildRepayTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address, repayAll bool) (*blockchainDomain.UnsignedTransaction, error)

	// BuildCollateralTransaction encodes toggling a reserve's use as
	// collateral for the sender.
	BuildCollateralTransaction(ctx context.Context, a *asset.Asset, mode domain.CollateralMode) (*blockchainDomain.UnsignedTransaction, error)

	// BuildLiquidationTransaction encodes a liquidation call covering
	// debtToCover of the user's debt asset in exchange for collateral.
	BuildLiquidationTransaction(ctx context.Context, collateral, debt *asset.Asset, user common.Address, debtToCover decimal.Decimal, receiveCollateral bool) (*blockchainDomain.UnsignedTransaction, error)
}
