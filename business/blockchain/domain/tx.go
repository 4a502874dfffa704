// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

// UnsignedTransaction is a fully-encoded contract call that has not been
// signed. Protocol operations return these so callers stay in control of
// key material and submission.
type UnsignedTransaction struct {
	OperationID uuid.UUID
	Protocol    string // protocol identifier that produced the payload
	Description string // human-readable summary of the operation
	To          common.Address
	Data        []byte
	Value       *big.Int
	GasLimit    uint64 // 0 = not estimated
	CreatedAt   time.Time
}

// NewUnsignedTransaction creates an unsigned transaction payload.
func NewUnsignedTransaction(protocol, description string, to common.Address, data []byte, value *big.Int) *UnsignedTransaction {
	if value == nil {
		value = big.NewInt(0)
	}
	return &UnsignedTransaction{
		OperationID: uuid.New(),
		Protocol:    protocol,
		Description: description,
		To:          to,
		Data:        data,
		Value:       new(big.Int).Set(value),
		CreatedAt:   time.Now(),
	}
}

// WithGasLimit attaches a gas estimate to the payload.
func (t *UnsignedTransaction) WithGasLimit(gasLimit uint64) *UnsignedTransaction {
	t.GasLimit = gasLimit
	return t
}

// SignedTransaction wraps a signed Ethereum transaction together with the
// operation it originated from.
type SignedTransaction struct {
	OperationID uuid.UUID
	From        common.Address
	Hash        common.Hash
	Raw         *types.Transaction
}
