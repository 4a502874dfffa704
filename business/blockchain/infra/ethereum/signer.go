package ethereum

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/logger"
)

// LocalSigner signs transaction payloads with an in-memory private key.
// Key material never leaves the process.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	signer  types.Signer
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewLocalSigner creates a signer from a hex-encoded private key.
func NewLocalSigner(privateKeyHex string, chainID *big.Int, log logger.LoggerInterface) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, apperror.New(apperror.CodeSigningFailed,
			apperror.WithCause(err),
			apperror.WithContext("parsing private key"))
	}

	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		signer:  types.LatestSignerForChainID(chainID),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Address returns the signing account address.
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SignTransaction signs an unsigned payload as an EIP-1559 transaction.
func (s *LocalSigner) SignTransaction(
	ctx context.Context,
	unsigned *domain.UnsignedTransaction,
	nonce uint64,
	gasFeeCap, gasTipCap *big.Int,
) (*domain.SignedTransaction, error) {
	_, span := s.tracer.Start(ctx, "eth.sign_tx",
		trace.WithAttributes(
			attribute.String("operation_id", unsigned.OperationID.String()),
			attribute.String("to", unsigned.To.Hex()),
		),
	)
	defer span.End()

	if unsigned.GasLimit == 0 {
		return nil, apperror.New(apperror.CodeSigningFailed,
			apperror.WithContext("unsigned transaction has no gas limit"))
	}

	to := unsigned.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       unsigned.GasLimit,
		To:        &to,
		Value:     unsigned.Value,
		Data:      unsigned.Data,
	})

	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "signing failed")
		return nil, apperror.New(apperror.CodeSigningFailed,
			apperror.WithCause(err))
	}

	s.logger.Debug(ctx, "transaction signed",
		"operation_id", unsigned.OperationID.String(),
		"hash", signed.Hash().Hex())

	span.SetStatus(codes.Ok, "signed")
	return &domain.SignedTransaction{
		OperationID: unsigned.OperationID,
		From:        s.address,
		Hash:        signed.Hash(),
		Raw:         signed,
	}, nil
}
