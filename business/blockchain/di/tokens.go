// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/defi-router/business/blockchain/app"
	"github.com/fd1az/defi-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// Private dependency tokens - internal to blockchain module
var (
	BlockSubscriber   = di.NewToken[app.BlockSubscriber]("blockchain:blockSubscriber")
	GasOracle         = di.NewToken[app.GasOracle]("blockchain:gasOracle")
	ABISource         = di.NewToken[app.ABISource]("blockchain:abiSource")
	TransactionSigner = di.NewToken[app.TransactionSigner]("blockchain:transactionSigner")
)

// Helper functions for type-safe access
func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetBlockSubscriber(c di.ServiceRegistry) app.BlockSubscriber {
	return di.GetToken(c, BlockSubscriber)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}

// GetABISource returns the explorer ABI source, or nil when no API key
// is configured.
func GetABISource(c di.ServiceRegistry) app.ABISource {
	v := c.Get(ABISource.Name())
	if v == nil {
		return nil
	}
	return v.(app.ABISource)
}

// GetTransactionSigner returns the signer, or nil when no signing key is
// configured. Unlike the other helpers it tolerates the nil registration.
func GetTransactionSigner(c di.ServiceRegistry) app.TransactionSigner {
	v := c.Get(TransactionSigner.Name())
	if v == nil {
		return nil
	}
	return v.(app.TransactionSigner)
}
