// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-router/business/blockchain/domain"
)

// BlockSubscriber defines the interface for subscribing to new blocks.
type BlockSubscriber interface {
	// Subscribe starts listening for new blocks and returns a channel of blocks.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	// LatestBlock retrieves the most recent block.
	LatestBlock(ctx context.Context) (*domain.Block, error)

	// State returns the current connection state.
	State() domain.ConnectionState
}

// GasOracle defines the interface for gas price information.
type GasOracle interface {
	// GetGasPrice retrieves the current gas price.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)

	// GetGasTipCap retrieves the suggested priority fee.
	GetGasTipCap(ctx context.Context) (*big.Int, error)

	// EstimateGas estimates the gas needed for a transaction.
	EstimateGas(ctx context.Context, data []byte, to string) (uint64, error)

	// GetGasEstimate returns the full cost estimate for a call.
	GetGasEstimate(ctx context.Context, data []byte, to string) (*domain.GasEstimate, error)
}

// ABISource fetches verified contract ABIs from an explorer API.
type ABISource interface {
	// ContractABI returns the parsed ABI for a verified contract.
	ContractABI(ctx context.Context, address common.Address) (abi.ABI, error)
}

// TransactionSigner signs prepared transaction payloads.
type TransactionSigner interface {
	// Address returns the signing account address.
	Address() common.Address

	// SignTransaction signs an unsigned payload.
	SignTransaction(ctx context.Context, tx *domain.UnsignedTransaction, nonce uint64, gasFeeCap, gasTipCap *big.Int) (*domain.SignedTransaction, error)
}
