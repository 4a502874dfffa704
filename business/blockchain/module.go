// Package blockchain implements the blockchain bounded context for Ethereum integration.
package blockchain

import (
	"context"
	"math/big"

	"github.com/fd1az/defi-router/business/blockchain/app"
	blockchainDI "github.com/fd1az/defi-router/business/blockchain/di"
	"github.com/fd1az/defi-router/business/blockchain/infra/ethereum"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/di"
	"github.com/fd1az/defi-router/internal/etherscan"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register BlockSubscriber (private - internal dependency)
	di.RegisterToken(c, blockchainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		sub, err := ethereum.NewSubscriber(subCfg, log)
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	// Register GasOracle (private - internal dependency)
	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracleCfg := ethereum.DefaultGasOracleConfig(cfg.Ethereum.HTTPURL)
		oracle, err := ethereum.NewGasOracle(oracleCfg, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register ABISource (private - nil when no explorer API key is configured)
	di.RegisterToken(c, blockchainDI.ABISource, func(sr di.ServiceRegistry) app.ABISource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Etherscan.APIKey == "" {
			return nil
		}

		scanCfg := etherscan.DefaultConfig(cfg.Etherscan.APIKey)
		if cfg.Etherscan.APIURL != "" {
			scanCfg.APIURL = cfg.Etherscan.APIURL
		}
		if cfg.Etherscan.RequestsPerSecond > 0 {
			scanCfg.RequestsPerSecond = cfg.Etherscan.RequestsPerSecond
		}
		if cfg.Etherscan.CacheTTL > 0 {
			scanCfg.CacheTTL = cfg.Etherscan.CacheTTL
		}

		client, err := etherscan.New(scanCfg, log)
		if err != nil {
			panic("failed to create etherscan client: " + err.Error())
		}
		return client
	})

	// Register TransactionSigner (private - nil when no key is configured)
	di.RegisterToken(c, blockchainDI.TransactionSigner, func(sr di.ServiceRegistry) app.TransactionSigner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Ethereum.PrivateKey == "" {
			return nil
		}

		chainID := new(big.Int).SetUint64(cfg.Ethereum.ChainID)
		signer, err := ethereum.NewLocalSigner(cfg.Ethereum.PrivateKey, chainID, log)
		if err != nil {
			panic("failed to create signer: " + err.Error())
		}
		return signer
	})

	// Register BlockchainService (public - exposed to other modules)
	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		sub := blockchainDI.GetBlockSubscriber(sr)
		oracle := blockchainDI.GetGasOracle(sr)
		abiSource := blockchainDI.GetABISource(sr)
		signer := blockchainDI.GetTransactionSigner(sr)
		return app.NewBlockchainService(sub, oracle, abiSource, signer)
	})

	return nil
}

// Startup initializes the blockchain module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Connect services
	oracle := blockchainDI.GetGasOracle(mono.Services())

	// Connect gas oracle (type assertion to access Connect method)
	if connector, ok := oracle.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect gas oracle", "error", err)
			// Don't fail - will retry on first use
		}
	}

	svc := blockchainDI.GetBlockchainService(mono.Services())
	if svc.CanSign() {
		log.Info(ctx, "transaction signing enabled")
	}

	log.Info(ctx, "blockchain module started")
	return nil
}
