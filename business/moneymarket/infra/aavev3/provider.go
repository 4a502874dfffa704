// Package aavev3 implements the money market Strategy for Aave V3.
//
// Reads go through the Pool and the protocol data provider lens; all
// mutations are encoded against the Pool and returned unsigned. On-chain
// scaling is normalized at this boundary: rates arrive in ray (1e27),
// configuration ratios in basis points, account values in the base
// currency's 8 decimals, and the health factor in wad (1e18).
package aavev3

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/moneymarket/app"
	"github.com/fd1az/defi-router/business/moneymarket/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/circuitbreaker"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

const (
	tracerName = "aavev3"
	meterName  = "aavev3"
)

// ProtocolName is the registry identifier for this strategy.
const ProtocolName = "aave_v3"

// referralCode is unused by Aave V3 but still part of the call signatures.
const referralCode = uint16(0)

// maxUint256 is the Aave sentinel for "the full balance": repay-all and
// withdraw-all both use it.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Ensure Provider implements the money market Strategy.
var _ app.Strategy = (*Provider)(nil)

type providerMetrics struct {
	readsTotal  metric.Int64Counter
	readLatency metric.Float64Histogram
	readErrors  metric.Int64Counter
}

// reserveToken mirrors the data provider's TokenData tuple.
type reserveToken struct {
	Symbol       string
	TokenAddress common.Address
}

// Provider binds one Aave V3 deployment: the Pool for account data and
// mutations, the protocol data provider for reserve lenses. Position
// enumeration walks the deployment's reserve list and keeps the reserves
// the asset registry knows about.
type Provider struct {
	client       *ethclient.Client
	pool         common.Address
	dataProvider common.Address

	poolABI         abi.ABI
	dataProviderABI abi.ABI

	registry *asset.Registry
	logger   logger.LoggerInterface
	cb       *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates an Aave V3 strategy from the money market
// configuration.
func NewProvider(client *ethclient.Client, cfg config.MoneyMarketConfig, registry *asset.Registry, log logger.LoggerInterface) (*Provider, error) {
	poolABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}
	dataProviderABI, err := abi.JSON(strings.NewReader(DataProviderABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse data provider ABI: %w", err)
	}

	p := &Provider{
		client:          client,
		pool:            cfg.AaveV3.PoolAddressHex(),
		dataProvider:    cfg.AaveV3.DataProviderAddressHex(),
		poolABI:         poolABI,
		dataProviderABI: dataProviderABI,
		registry:        registry,
		logger:          log,
		tracer:          otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("aave-v3")
	p.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.readsTotal, err = meter.Int64Counter(
		"aave_v3_reads_total",
		metric.WithDescription("Total market/account read requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.readLatency, err = meter.Float64Histogram(
		"aave_v3_read_latency_ms",
		metric.WithDescription("Read request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.readErrors, err = meter.Int64Counter(
		"aave_v3_read_errors_total",
		metric.WithDescription("Total read errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name returns the protocol registry identifier.
func (p *Provider) Name() string { return ProtocolName }

// GetMarketData reads one reserve's rates, totals, and configuration and
// returns them in decimal units.
func (p *Provider) GetMarketData(ctx context.Context, a *asset.Asset) (*domain.MarketData, error) {
	ctx, span := p.tracer.Start(ctx, "aavev3.get_market_data",
		trace.WithAttributes(attribute.String("asset", a.Symbol())),
	)
	defer span.End()

	start := time.Now()
	p.metrics.readsTotal.Add(ctx, 1)

	data, err := p.marketData(ctx, a)

	p.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "market data read")
	p.logger.Debug(ctx, "aave v3 market data",
		"asset", a.Symbol(),
		"supply_apy", data.SupplyAPY.String(),
		"variable_borrow_apy", data.VariableBorrowAPY.String(),
		"utilization", data.UtilizationRate.String(),
	)
	return data, nil
}

func (p *Provider) marketData(ctx context.Context, a *asset.Asset) (*domain.MarketData, error) {
	reserve, err := p.call(ctx, p.dataProvider, p.dataProviderABI, "getReserveData", a.Address())
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMarketDataFailed, "reserve data for "+a.Symbol())
	}
	cfg, err := p.call(ctx, p.dataProvider, p.dataProviderABI, "getReserveConfigurationData", a.Address())
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMarketDataFailed, "reserve configuration for "+a.Symbol())
	}

	totalSupply := asset.NewAmount(a, reserve[2].(*big.Int)).ToDecimal()
	totalBorrows := asset.NewAmount(a, new(big.Int).Add(reserve[3].(*big.Int), reserve[4].(*big.Int))).ToDecimal()

	// Utilization is derived rather than read; an empty reserve is 0%.
	utilization := decimal.Zero
	if totalSupply.IsPositive() {
		utilization = totalBorrows.Div(totalSupply)
		if utilization.GreaterThan(decimal.NewFromInt(1)) {
			utilization = decimal.NewFromInt(1)
		}
	}

	return domain.NewMarketData(domain.MarketData{
		Asset:                a,
		SupplyAPY:            rayToDecimal(reserve[5].(*big.Int)),
		VariableBorrowAPY:    rayToDecimal(reserve[6].(*big.Int)),
		StableBorrowAPY:      rayToDecimal(reserve[7].(*big.Int)),
		TotalSupply:          totalSupply,
		TotalBorrows:         totalBorrows,
		UtilizationRate:      utilization,
		LiquidityRate:        rayToDecimal(reserve[5].(*big.Int)),
		LiquidationThreshold: bpsToDecimal(cfg[2].(*big.Int)),
		LoanToValue:          bpsToDecimal(cfg[1].(*big.Int)),
		ReserveFactor:        bpsToDecimal(cfg[4].(*big.Int)),
		BorrowingEnabled:     cfg[6].(bool),
		StableRateEnabled:    cfg[7].(bool),
		Frozen:               cfg[9].(bool),
		Protocol:             ProtocolName,
	})
}

// GetUserAccountData reads the Pool's aggregate account view. Values are
// in the market's base currency; the health factor is unitless.
func (p *Provider) GetUserAccountData(ctx context.Context, user common.Address) (*domain.UserAccountData, error) {
	ctx, span := p.tracer.Start(ctx, "aavev3.get_user_account_data",
		trace.WithAttributes(attribute.String("user", user.Hex())),
	)
	defer span.End()

	start := time.Now()
	p.metrics.readsTotal.Add(ctx, 1)

	outputs, err := p.call(ctx, p.pool, p.poolABI, "getUserAccountData", user)

	p.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodeAccountDataFailed, "account data for "+user.Hex())
	}

	data := &domain.UserAccountData{
		TotalCollateralValue:        baseUnitsToDecimal(outputs[0].(*big.Int)),
		TotalDebtValue:              baseUnitsToDecimal(outputs[1].(*big.Int)),
		AvailableBorrowValue:        baseUnitsToDecimal(outputs[2].(*big.Int)),
		CurrentLiquidationThreshold: bpsToDecimal(outputs[3].(*big.Int)),
		LoanToValue:                 bpsToDecimal(outputs[4].(*big.Int)),
		HealthFactor:                wadToDecimal(outputs[5].(*big.Int)),
		Protocol:                    ProtocolName,
	}

	span.SetAttributes(attribute.String("health_factor", data.HealthFactor.String()))
	span.SetStatus(codes.Ok, "account data read")
	return data, nil
}

// GetLendingPositions walks the deployment's reserves and returns one
// position per nonzero aToken balance. aToken balances accrue in place,
// so the supplied amount already includes interest.
func (p *Provider) GetLendingPositions(ctx context.Context, user common.Address) ([]domain.LendingPosition, error) {
	ctx, span := p.tracer.Start(ctx, "aavev3.get_lending_positions",
		trace.WithAttributes(attribute.String("user", user.Hex())),
	)
	defer span.End()

	reserves, err := p.knownReserves(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodePositionFetchFailed, "reserve list")
	}

	var positions []domain.LendingPosition
	for _, reserveAsset := range reserves {
		outputs, err := p.call(ctx, p.dataProvider, p.dataProviderABI, "getUserReserveData", reserveAsset.Address(), user)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, apperror.Wrap(err, apperror.CodePositionFetchFailed, "user reserve data for "+reserveAsset.Symbol())
		}

		balance := outputs[0].(*big.Int)
		if balance.Sign() == 0 {
			continue
		}

		positions = append(positions, domain.LendingPosition{
			Asset:           reserveAsset,
			SuppliedAmount:  asset.NewAmount(reserveAsset, balance).ToDecimal(),
			AccruedInterest: decimal.Zero,
			APY:             rayToDecimal(outputs[6].(*big.Int)),
			IsCollateral:    outputs[8].(bool),
			Protocol:        ProtocolName,
		})
	}

	span.SetAttributes(attribute.Int("positions", len(positions)))
	span.SetStatus(codes.Ok, "lending positions read")
	return positions, nil
}

// GetBorrowingPositions walks the deployment's reserves and returns one
// position per nonzero debt balance, split by rate mode. Debt token
// balances accrue in place like aTokens.
func (p *Provider) GetBorrowingPositions(ctx context.Context, user common.Address) ([]domain.BorrowingPosition, error) {
	ctx, span := p.tracer.Start(ctx, "aavev3.get_borrowing_positions",
		trace.WithAttributes(attribute.String("user", user.Hex())),
	)
	defer span.End()

	reserves, err := p.knownReserves(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodePositionFetchFailed, "reserve list")
	}

	var positions []domain.BorrowingPosition
	for _, reserveAsset := range reserves {
		outputs, err := p.call(ctx, p.dataProvider, p.dataProviderABI, "getUserReserveData", reserveAsset.Address(), user)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, apperror.Wrap(err, apperror.CodePositionFetchFailed, "user reserve data for "+reserveAsset.Symbol())
		}

		stableDebt := outputs[1].(*big.Int)
		variableDebt := outputs[2].(*big.Int)

		if stableDebt.Sign() > 0 {
			positions = append(positions, domain.BorrowingPosition{
				Asset:           reserveAsset,
				BorrowedAmount:  asset.NewAmount(reserveAsset, stableDebt).ToDecimal(),
				AccruedInterest: decimal.Zero,
				RateMode:        domain.InterestRateModeStable,
				CurrentRate:     rayToDecimal(outputs[5].(*big.Int)),
				Protocol:        ProtocolName,
			})
		}
		if variableDebt.Sign() > 0 {
			reserve, err := p.call(ctx, p.dataProvider, p.dataProviderABI, "getReserveData", reserveAsset.Address())
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, apperror.Wrap(err, apperror.CodePositionFetchFailed, "variable rate for "+reserveAsset.Symbol())
			}
			positions = append(positions, domain.BorrowingPosition{
				Asset:           reserveAsset,
				BorrowedAmount:  asset.NewAmount(reserveAsset, variableDebt).ToDecimal(),
				AccruedInterest: decimal.Zero,
				RateMode:        domain.InterestRateModeVariable,
				CurrentRate:     rayToDecimal(reserve[6].(*big.Int)),
				Protocol:        ProtocolName,
			})
		}
	}

	span.SetAttributes(attribute.Int("positions", len(positions)))
	span.SetStatus(codes.Ok, "borrowing positions read")
	return positions, nil
}

// BuildSupplyTransaction encodes Pool.supply crediting onBehalfOf.
func (p *Provider) BuildSupplyTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, onBehalfOf common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	raw, err := rawAmount(a, amount)
	if err != nil {
		return nil, err
	}
	return p.buildPoolTx(ctx, "supply",
		fmt.Sprintf("supply %s %s", amount, a.Symbol()),
		a.Address(), raw, onBehalfOf, referralCode)
}

// BuildWithdrawTransaction encodes Pool.withdraw paid out to the given
// address.
func (p *Provider) BuildWithdrawTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, to common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	raw, err := rawAmount(a, amount)
	if err != nil {
		return nil, err
	}
	return p.buildPoolTx(ctx, "withdraw",
		fmt.Sprintf("withdraw %s %s", amount, a.Symbol()),
		a.Address(), raw, to)
}

// BuildBorrowTransaction encodes Pool.borrow under the given rate mode.
func (p *Provider) BuildBorrowTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	if !mode.IsDefined() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "interest rate mode must be defined")
	}
	raw, err := rawAmount(a, amount)
	if err != nil {
		return nil, err
	}
	return p.buildPoolTx(ctx, "borrow",
		fmt.Sprintf("borrow %s %s (%s)", amount, a.Symbol(), mode),
		a.Address(), raw, mode.OnChainValue(), referralCode, onBehalfOf)
}

// BuildRepayTransaction encodes Pool.repay. With repayAll the amount is
// replaced by the max-uint256 sentinel, which Aave reads as "everything
// owed".
func (p *Provider) BuildRepayTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address, repayAll bool) (*blockchainDomain.UnsignedTransaction, error) {
	if !mode.IsDefined() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "interest rate mode must be defined")
	}

	var raw *big.Int
	if repayAll {
		raw = maxUint256
	} else {
		var err error
		raw, err = rawAmount(a, amount)
		if err != nil {
			return nil, err
		}
	}

	description := fmt.Sprintf("repay %s %s (%s)", amount, a.Symbol(), mode)
	if repayAll {
		description = fmt.Sprintf("repay all %s (%s)", a.Symbol(), mode)
	}
	return p.buildPoolTx(ctx, "repay", description,
		a.Address(), raw, mode.OnChainValue(), onBehalfOf)
}

// BuildCollateralTransaction encodes Pool.setUserUseReserveAsCollateral
// for the transaction sender.
func (p *Provider) BuildCollateralTransaction(ctx context.Context, a *asset.Asset, mode domain.CollateralMode) (*blockchainDomain.UnsignedTransaction, error) {
	return p.buildPoolTx(ctx, "setUserUseReserveAsCollateral",
		fmt.Sprintf("set %s collateral %s", a.Symbol(), mode),
		a.Address(), mode.Enabled())
}

// BuildLiquidationTransaction encodes Pool.liquidationCall covering
// debtToCover of the user's debt asset.
func (p *Provider) BuildLiquidationTransaction(ctx context.Context, collateral, debt *asset.Asset, user common.Address, debtToCover decimal.Decimal, receiveCollateral bool) (*blockchainDomain.UnsignedTransaction, error) {
	raw, err := rawAmount(debt, debtToCover)
	if err != nil {
		return nil, err
	}
	return p.buildPoolTx(ctx, "liquidationCall",
		fmt.Sprintf("liquidate %s debt of %s against %s", debt.Symbol(), user.Hex(), collateral.Symbol()),
		collateral.Address(), debt.Address(), user, raw, receiveCollateral)
}

// buildPoolTx packs a Pool method call into an unsigned transaction.
func (p *Provider) buildPoolTx(ctx context.Context, method, description string, args ...interface{}) (*blockchainDomain.UnsignedTransaction, error) {
	_, span := p.tracer.Start(ctx, "aavev3.build_transaction",
		trace.WithAttributes(attribute.String("method", method)),
	)
	defer span.End()

	callData, err := p.poolABI.Pack(method, args...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodeTransactionBuildFailed, "encode "+method)
	}

	tx := blockchainDomain.NewUnsignedTransaction(ProtocolName, description, p.pool, callData, nil)

	span.SetStatus(codes.Ok, "transaction built")
	p.logger.Debug(ctx, "aave v3 transaction built",
		"method", method,
		"operation_id", tx.OperationID.String(),
	)
	return tx, nil
}

// knownReserves resolves the deployment's reserve list against the asset
// registry, skipping reserves the registry has no metadata for.
func (p *Provider) knownReserves(ctx context.Context) ([]*asset.Asset, error) {
	outputs, err := p.call(ctx, p.dataProvider, p.dataProviderABI, "getAllReservesTokens")
	if err != nil {
		return nil, err
	}

	tokens := *abi.ConvertType(outputs[0], new([]reserveToken)).(*[]reserveToken)

	var reserves []*asset.Asset
	for _, token := range tokens {
		found := false
		for _, known := range p.registry.All() {
			if known.IsToken() && known.Address() == token.TokenAddress {
				reserves = append(reserves, known)
				found = true
				break
			}
		}
		if !found {
			p.logger.Debug(ctx, "reserve not in asset registry, skipping",
				"symbol", token.Symbol,
				"address", token.TokenAddress.Hex())
		}
	}
	return reserves, nil
}

// call packs a method, executes eth_call through the circuit breaker, and
// unpacks the outputs.
func (p *Provider) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	callData, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(method+" call failed"))
	}

	outputs, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return outputs, nil
}

// rawAmount scales a decimal amount to raw units, flooring anything
// beyond the asset's precision.
func rawAmount(a *asset.Asset, d decimal.Decimal) (*big.Int, error) {
	if !d.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("amount must be positive, got %s", d))
	}
	amt, err := asset.ParseDecimal(a, d.Truncate(int32(a.Decimals())))
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("amount %s not representable in %s units", d, a.Symbol())),
			apperror.WithCause(err))
	}
	return amt.Raw(), nil
}

// rayToDecimal converts a ray-scaled rate (1e27) to a fraction.
func rayToDecimal(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -27)
}

// bpsToDecimal converts basis points to a fraction.
func bpsToDecimal(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -4)
}

// baseUnitsToDecimal converts base-currency units (8 decimals) to a value.
func baseUnitsToDecimal(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -8)
}

// wadToDecimal converts a wad-scaled value (1e18) to a fraction.
func wadToDecimal(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -18)
}
