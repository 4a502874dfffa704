package ethereum

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/logger"
)

// Well-known test vector key, never use with real funds.
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testSigner(t *testing.T) *LocalSigner {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	signer, err := NewLocalSigner(testKeyHex, big.NewInt(1), log)
	if err != nil {
		t.Fatalf("NewLocalSigner failed: %v", err)
	}
	return signer
}

func TestLocalSigner_Address(t *testing.T) {
	signer := testSigner(t)

	key, _ := crypto.HexToECDSA(testKeyHex)
	expected := crypto.PubkeyToAddress(key.PublicKey)

	if signer.Address() != expected {
		t.Errorf("expected address %s, got %s", expected.Hex(), signer.Address().Hex())
	}
}

func TestLocalSigner_SignTransaction(t *testing.T) {
	signer := testSigner(t)

	to := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	unsigned := domain.NewUnsignedTransaction("uniswap_v2", "swap 1 WETH for USDC", to, []byte{0x38, 0xed, 0x17, 0x39}, big.NewInt(0))
	unsigned.WithGasLimit(210000)

	signed, err := signer.SignTransaction(context.Background(), unsigned, 7, big.NewInt(30e9), big.NewInt(2e9))
	if err != nil {
		t.Fatalf("SignTransaction failed: %v", err)
	}

	if signed.OperationID != unsigned.OperationID {
		t.Error("operation id not carried over")
	}
	if signed.From != signer.Address() {
		t.Errorf("expected from %s, got %s", signer.Address().Hex(), signed.From.Hex())
	}
	if signed.Raw.Nonce() != 7 {
		t.Errorf("expected nonce 7, got %d", signed.Raw.Nonce())
	}
	if signed.Raw.Gas() != 210000 {
		t.Errorf("expected gas limit 210000, got %d", signed.Raw.Gas())
	}
	if signed.Raw.Type() != types.DynamicFeeTxType {
		t.Errorf("expected dynamic fee tx, got type %d", signed.Raw.Type())
	}

	// The signature must recover to the signer's address.
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), signed.Raw)
	if err != nil {
		t.Fatalf("sender recovery failed: %v", err)
	}
	if sender != signer.Address() {
		t.Errorf("recovered sender %s, expected %s", sender.Hex(), signer.Address().Hex())
	}
}

func TestLocalSigner_RejectsMissingGasLimit(t *testing.T) {
	signer := testSigner(t)

	to := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	unsigned := domain.NewUnsignedTransaction("uniswap_v2", "swap", to, nil, nil)

	_, err := signer.SignTransaction(context.Background(), unsigned, 0, big.NewInt(1), big.NewInt(1))
	if err == nil {
		t.Fatal("expected error for missing gas limit")
	}
	if !apperror.HasCode(err, apperror.CodeSigningFailed) {
		t.Errorf("expected code %s, got %v", apperror.CodeSigningFailed, err)
	}
}

func TestLocalSigner_RejectsBadKey(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	if _, err := NewLocalSigner("not-a-key", big.NewInt(1), log); err == nil {
		t.Fatal("expected error for malformed key")
	}

	// 0x prefix is tolerated.
	if _, err := NewLocalSigner("0x"+testKeyHex, big.NewInt(1), log); err != nil {
		t.Fatalf("0x-prefixed key rejected: %v", err)
	}
}
