// Package uniswapv2 implements the dex Strategy for Uniswap V2 pools.
package uniswapv2

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
	"github.com/fd1az/defi-router/business/dex/app"
	"github.com/fd1az/defi-router/business/dex/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/circuitbreaker"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

const (
	tracerName = "uniswapv2"
	meterName  = "uniswapv2"
)

// ProtocolName is the registry identifier for this strategy.
const ProtocolName = "uniswap_v2"

// swapFee is the flat 0.3% pool fee, carried on routes as taxes.
var swapFee = decimal.New(3, -3)

// Ensure Provider implements the dex Strategy.
var _ app.Strategy = (*Provider)(nil)

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Provider quotes swaps against Uniswap V2 pair reserves and encodes
// Router02 swap transactions. One instance binds one factory/router
// deployment.
type Provider struct {
	client  *ethclient.Client
	factory common.Address
	router  common.Address

	factoryABI abi.ABI
	pairABI    abi.ABI
	routerABI  abi.ABI

	maxSlippage decimal.Decimal
	deadline    time.Duration

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Uniswap V2 strategy from the dex configuration.
func NewProvider(client *ethclient.Client, cfg config.DEXConfig, log logger.LoggerInterface) (*Provider, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}
	routerABI, err := abi.JSON(strings.NewReader(Router02ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	p := &Provider{
		client:      client,
		factory:     cfg.UniswapV2.FactoryAddressHex(),
		router:      cfg.UniswapV2.RouterAddressHex(),
		factoryABI:  factoryABI,
		pairABI:     pairABI,
		routerABI:   routerABI,
		maxSlippage: cfg.DefaultSlippageDecimal(),
		deadline:    cfg.Deadline(),
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswap-v2")
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

	p.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_v2_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_v2_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteErrors, err = meter.Int64Counter(
		"uniswap_v2_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name returns the protocol registry identifier.
func (p *Provider) Name() string { return ProtocolName }

// QuoteSwap prices a single-hop swap from on-chain pair reserves using the
// constant-product formula.
func (p *Provider) QuoteSwap(ctx context.Context, input, output *asset.Asset, amount decimal.Decimal, mode domain.SwapMode) (*domain.SwapRoute, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv2.quote_swap",
		trace.WithAttributes(
			attribute.String("token_in", input.Address().Hex()),
			attribute.String("token_out", output.Address().Hex()),
			attribute.String("amount", amount.String()),
			attribute.String("mode", string(mode)),
		),
	)
	defer span.End()

	start := time.Now()
	p.metrics.quotesTotal.Add(ctx, 1)

	route, err := p.quoteSwap(ctx, input, output, amount, mode)

	p.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("amount_in", route.AmountIn.String()),
		attribute.String("amount_out", route.AmountOut.String()),
	)
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "uniswap v2 quote",
		"pair", input.Symbol()+"/"+output.Symbol(),
		"mode", string(mode),
		"amount_in", route.AmountIn.String(),
		"amount_out", route.AmountOut.String(),
	)

	return route, nil
}

func (p *Provider) quoteSwap(ctx context.Context, input, output *asset.Asset, amount decimal.Decimal, mode domain.SwapMode) (*domain.SwapRoute, error) {
	if !mode.IsDefined() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "swap mode must be defined")
	}

	pair, err := p.pairFor(ctx, input.Address(), output.Address())
	if err != nil {
		return nil, err
	}
	if pair == (common.Address{}) {
		return nil, apperror.NotFound(apperror.CodePoolNotFound,
			fmt.Sprintf("no pair for %s/%s", input.Symbol(), output.Symbol()))
	}

	reserveIn, reserveOut, err := p.reservesRaw(ctx, pair, input.Address())
	if err != nil {
		return nil, err
	}

	var amountIn, amountOut decimal.Decimal
	switch mode {
	case domain.SwapModeExactInput:
		inRaw, err := asset.ParseDecimal(input, amount)
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext(fmt.Sprintf("amount %s not representable in %s units", amount, input.Symbol())),
				apperror.WithCause(err))
		}
		outRaw, err := domain.ConstantProductAmountOut(inRaw.Raw(), reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		if outRaw.Sign() == 0 {
			return nil, apperror.New(apperror.CodeInsufficientLiquidity,
				apperror.WithContext("quoted output is zero for trade size"))
		}
		amountIn = amount
		amountOut = asset.NewAmount(output, outRaw).ToDecimal()

	case domain.SwapModeExactOutput:
		outRaw, err := asset.ParseDecimal(output, amount)
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext(fmt.Sprintf("amount %s not representable in %s units", amount, output.Symbol())),
				apperror.WithCause(err))
		}
		inRaw, err := domain.ConstantProductAmountIn(outRaw.Raw(), reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amountIn = asset.NewAmount(input, inRaw).ToDecimal()
		amountOut = amount
	}

	hop, err := domain.NewSwapHop(input, amountIn, output, amountOut, false)
	if err != nil {
		return nil, err
	}
	return domain.NewSingleHopRoute(hop, mode, p.maxSlippage, swapFee, ProtocolName)
}

// GetReserves returns the pair reserves in each asset's decimal units,
// ordered as (a, b).
func (p *Provider) GetReserves(ctx context.Context, a, b *asset.Asset) (decimal.Decimal, decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv2.get_reserves",
		trace.WithAttributes(
			attribute.String("token_a", a.Address().Hex()),
			attribute.String("token_b", b.Address().Hex()),
		),
	)
	defer span.End()

	pair, err := p.pairFor(ctx, a.Address(), b.Address())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, decimal.Zero, err
	}
	if pair == (common.Address{}) {
		span.SetStatus(codes.Error, "no pair")
		return decimal.Zero, decimal.Zero, apperror.NotFound(apperror.CodePoolNotFound,
			fmt.Sprintf("no pair for %s/%s", a.Symbol(), b.Symbol()))
	}

	rawA, rawB, err := p.reservesRaw(ctx, pair, a.Address())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, decimal.Zero, err
	}

	span.SetStatus(codes.Ok, "reserves read")
	return asset.NewAmount(a, rawA).ToDecimal(), asset.NewAmount(b, rawB).ToDecimal(), nil
}

// BuildSwapTransaction encodes a Router02 swap call for a quoted route.
// Exact-input routes floor the output at route.MinAmountOut; exact-output
// routes cap the input at route.MaxAmountIn. The transaction is unsigned.
func (p *Provider) BuildSwapTransaction(ctx context.Context, route *domain.SwapRoute, recipient common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv2.build_swap_transaction")
	defer span.End()

	if route == nil {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "route is nil")
	}
	if len(route.Sequence) != 1 {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "uniswap v2 builds single-hop swaps only")
	}
	if recipient == (common.Address{}) {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "recipient address is required")
	}

	hop := route.Sequence[0]
	deadline, err := p.deadlineFrom(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	path := []common.Address{hop.AssetIn.Address(), hop.AssetOut.Address()}

	var (
		callData []byte
		method   string
	)
	switch route.Mode {
	case domain.SwapModeExactInput:
		amountIn, err := rawFloor(hop.AssetIn, hop.AmountIn)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeTransactionBuildFailed, "amount in")
		}
		minOut, err := rawFloor(hop.AssetOut, route.MinAmountOut())
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeTransactionBuildFailed, "min amount out")
		}
		method = "swapExactTokensForTokens"
		callData, err = p.routerABI.Pack(method, amountIn, minOut, path, recipient, deadline)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeTransactionBuildFailed, "encode "+method)
		}

	case domain.SwapModeExactOutput:
		amountOut, err := rawFloor(hop.AssetOut, hop.AmountOut)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeTransactionBuildFailed, "amount out")
		}
		maxIn, err := rawFloor(hop.AssetIn, route.MaxAmountIn())
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeTransactionBuildFailed, "max amount in")
		}
		method = "swapTokensForExactTokens"
		callData, err = p.routerABI.Pack(method, amountOut, maxIn, path, recipient, deadline)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeTransactionBuildFailed, "encode "+method)
		}

	default:
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "swap mode must be defined")
	}

	description := fmt.Sprintf("%s %s -> %s", method, hop.AssetIn.Symbol(), hop.AssetOut.Symbol())
	tx := blockchainDomain.NewUnsignedTransaction(route.Protocol, description, p.router, callData, nil)

	span.SetAttributes(
		attribute.String("method", method),
		attribute.String("recipient", recipient.Hex()),
	)
	span.SetStatus(codes.Ok, "transaction built")

	p.logger.Debug(ctx, "uniswap v2 swap built",
		"method", method,
		"pair", hop.AssetIn.Symbol()+"/"+hop.AssetOut.Symbol(),
		"operation_id", tx.OperationID.String(),
	)

	return tx, nil
}

// pairFor resolves the factory's pair address for two tokens. A zero
// address means no pair exists.
func (p *Provider) pairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	callData, err := p.factoryABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &p.factory,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("factory getPair call failed"))
	}

	outputs, err := p.factoryABI.Unpack("getPair", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode result: %w", err)
	}
	return outputs[0].(common.Address), nil
}

// reservesRaw reads the pair's raw reserves ordered so the first value
// belongs to tokenA.
func (p *Provider) reservesRaw(ctx context.Context, pair, tokenA common.Address) (*big.Int, *big.Int, error) {
	callData, err := p.pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode call: %w", err)
	}
	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &pair,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("pair getReserves call failed"))
	}
	outputs, err := p.pairABI.Unpack("getReserves", result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode result: %w", err)
	}
	reserve0 := outputs[0].(*big.Int)
	reserve1 := outputs[1].(*big.Int)

	token0, err := p.token0(ctx, pair)
	if err != nil {
		return nil, nil, err
	}

	if tokenA == token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

func (p *Provider) token0(ctx context.Context, pair common.Address) (common.Address, error) {
	callData, err := p.pairABI.Pack("token0")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode call: %w", err)
	}
	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &pair,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("pair token0 call failed"))
	}
	outputs, err := p.pairABI.Unpack("token0", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode result: %w", err)
	}
	return outputs[0].(common.Address), nil
}

// deadlineFrom computes the swap deadline from the latest chain timestamp.
func (p *Provider) deadlineFrom(ctx context.Context) (*big.Int, error) {
	header, err := p.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to read chain timestamp"))
	}
	return new(big.Int).SetUint64(header.Time + uint64(p.deadline.Seconds())), nil
}

// rawFloor scales a decimal amount to raw units, flooring anything beyond
// the asset's precision.
func rawFloor(a *asset.Asset, d decimal.Decimal) (*big.Int, error) {
	amt, err := asset.ParseDecimal(a, d.Truncate(int32(a.Decimals())))
	if err != nil {
		return nil, err
	}
	return amt.Raw(), nil
}
