// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/internal/apperror"
)

// BlockchainService coordinates blockchain interactions shared by the
// protocol contexts: block subscription, gas pricing and optional signing.
type BlockchainService struct {
	subscriber BlockSubscriber
	gasOracle  GasOracle
	abiSource  ABISource         // nil when no explorer API key is configured
	signer     TransactionSigner // nil when no key is configured
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(subscriber BlockSubscriber, gasOracle GasOracle, abiSource ABISource, signer TransactionSigner) *BlockchainService {
	return &BlockchainService{
		subscriber: subscriber,
		gasOracle:  gasOracle,
		abiSource:  abiSource,
		signer:     signer,
	}
}

// SubscribeBlocks starts the block subscription and returns the channel.
func (s *BlockchainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestBlock retrieves the most recent block.
func (s *BlockchainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.subscriber.LatestBlock(ctx)
}

// GetGasPrice retrieves the current gas price.
func (s *BlockchainService) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.gasOracle.GetGasPrice(ctx)
}

// EstimateGas estimates gas for an encoded contract call.
func (s *BlockchainService) EstimateGas(ctx context.Context, tx *domain.UnsignedTransaction) (uint64, error) {
	return s.gasOracle.EstimateGas(ctx, tx.Data, tx.To.Hex())
}

// GetGasEstimate returns the full cost estimate for an unsigned payload.
func (s *BlockchainService) GetGasEstimate(ctx context.Context, tx *domain.UnsignedTransaction) (*domain.GasEstimate, error) {
	return s.gasOracle.GetGasEstimate(ctx, tx.Data, tx.To.Hex())
}

// ContractABI fetches the verified ABI for a deployed contract. Fails
// when no explorer API key is configured.
func (s *BlockchainService) ContractABI(ctx context.Context, address common.Address) (abi.ABI, error) {
	if s.abiSource == nil {
		return abi.ABI{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no ABI source configured"))
	}
	return s.abiSource.ContractABI(ctx, address)
}

// CanSign reports whether a signing key is configured.
func (s *BlockchainService) CanSign() bool {
	return s.signer != nil
}

// SignTransaction signs an unsigned payload, estimating gas when the
// payload carries none. Fails when no signing key is configured.
func (s *BlockchainService) SignTransaction(ctx context.Context, tx *domain.UnsignedTransaction, nonce uint64) (*domain.SignedTransaction, error) {
	if s.signer == nil {
		return nil, apperror.New(apperror.CodeSigningFailed,
			apperror.WithContext("no signing key configured"))
	}

	if tx.GasLimit == 0 {
		gasLimit, err := s.gasOracle.EstimateGas(ctx, tx.Data, tx.To.Hex())
		if err != nil {
			return nil, err
		}
		tx.WithGasLimit(gasLimit)
	}

	gasPrice, err := s.gasOracle.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	tipCap, err := s.gasOracle.GetGasTipCap(ctx)
	if err != nil {
		return nil, err
	}

	// Fee cap = base price + tip, leaving headroom for base fee moves.
	feeCap := new(big.Int).Add(gasPrice.Wei, tipCap)

	return s.signer.SignTransaction(ctx, tx, nonce, feeCap, tipCap)
}

// ConnectionState returns the current connection state.
func (s *BlockchainService) ConnectionState() domain.ConnectionState {
	return s.subscriber.State()
}
