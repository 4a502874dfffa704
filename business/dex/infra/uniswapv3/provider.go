// Package uniswapv3 implements the dex Strategy for Uniswap V3 pools.
//
// V3 fragments liquidity across fee tiers, so a quote is the best answer
// across every configured tier rather than a single pair lookup. The
// winning tier is carried in the route's protocol tag ("uniswap_v3_3000")
// and parsed back out when the swap transaction is built.
package uniswapv3

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
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
	tracerName = "uniswapv3"
	meterName  = "uniswapv3"
)

// ProtocolName is the registry identifier for this strategy. Routes carry
// the fee tier as a suffix, e.g. "uniswap_v3_500".
const ProtocolName = "uniswap_v3"

// Ensure Provider implements the dex Strategy.
var _ app.Strategy = (*Provider)(nil)

type providerMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Provider quotes swaps through the QuoterV2 lens contract and encodes
// SwapRouter transactions. One instance binds one quoter/factory/router
// deployment and a fixed set of fee tiers.
type Provider struct {
	client  *ethclient.Client
	quoter  common.Address
	factory common.Address
	router  common.Address

	quoterABI  abi.ABI
	factoryABI abi.ABI
	poolABI    abi.ABI
	routerABI  abi.ABI

	feeTiers    []int
	maxSlippage decimal.Decimal
	deadline    time.Duration

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Uniswap V3 strategy from the dex configuration.
func NewProvider(client *ethclient.Client, cfg config.DEXConfig, log logger.LoggerInterface) (*Provider, error) {
	quoterABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	poolABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}
	routerABI, err := abi.JSON(strings.NewReader(SwapRouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	feeTiers := cfg.UniswapV3.FeeTiers
	if len(feeTiers) == 0 {
		feeTiers = []int{FeeTier001, FeeTier005, FeeTier030, FeeTier100}
	}

	p := &Provider{
		client:      client,
		quoter:      cfg.UniswapV3.QuoterAddressHex(),
		factory:     cfg.UniswapV3.FactoryAddressHex(),
		router:      cfg.UniswapV3.RouterAddressHex(),
		quoterABI:   quoterABI,
		factoryABI:  factoryABI,
		poolABI:     poolABI,
		routerABI:   routerABI,
		feeTiers:    feeTiers,
		maxSlippage: cfg.DefaultSlippageDecimal(),
		deadline:    cfg.Deadline(),
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswap-v3")
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
		"uniswap_v3_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_v3_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteErrors, err = meter.Int64Counter(
		"uniswap_v3_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name returns the protocol registry identifier.
func (p *Provider) Name() string { return ProtocolName }

// QuoteSwap prices a single-hop swap by querying QuoterV2 on every
// configured fee tier and keeping the best answer: highest output for
// exact-input, lowest input for exact-output. Tiers without a pool, or
// whose quote call reverts, are skipped.
func (p *Provider) QuoteSwap(ctx context.Context, input, output *asset.Asset, amount decimal.Decimal, mode domain.SwapMode) (*domain.SwapRoute, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv3.quote_swap",
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

	route, tier, err := p.quoteSwap(ctx, span, input, output, amount, mode)

	p.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("fee_tier", tier),
		attribute.String("amount_in", route.AmountIn.String()),
		attribute.String("amount_out", route.AmountOut.String()),
	)
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "uniswap v3 quote",
		"pair", input.Symbol()+"/"+output.Symbol(),
		"mode", string(mode),
		"fee_tier", tier,
		"amount_in", route.AmountIn.String(),
		"amount_out", route.AmountOut.String(),
	)

	return route, nil
}

func (p *Provider) quoteSwap(ctx context.Context, span trace.Span, input, output *asset.Asset, amount decimal.Decimal, mode domain.SwapMode) (*domain.SwapRoute, int, error) {
	if !mode.IsDefined() {
		return nil, 0, apperror.Validation(apperror.CodeInvalidInput, "swap mode must be defined")
	}

	fixedAsset := input
	if mode == domain.SwapModeExactOutput {
		fixedAsset = output
	}
	fixedRaw, err := asset.ParseDecimal(fixedAsset, amount)
	if err != nil {
		return nil, 0, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("amount %s not representable in %s units", amount, fixedAsset.Symbol())),
			apperror.WithCause(err))
	}

	var (
		bestTier   int
		bestAmount *big.Int
	)
	for _, tier := range p.feeTiers {
		pool, err := p.poolFor(ctx, input.Address(), output.Address(), tier)
		if err != nil {
			return nil, 0, err
		}
		if pool == (common.Address{}) {
			span.AddEvent("fee tier skipped", trace.WithAttributes(
				attribute.Int("fee_tier", tier),
				attribute.String("reason", "no pool"),
			))
			continue
		}

		quote, err := p.quoteTier(ctx, input.Address(), output.Address(), fixedRaw.Raw(), tier, mode)
		if err != nil {
			// Quoter calls revert on pools too thin for the trade size;
			// other tiers may still serve it.
			span.AddEvent("fee tier skipped", trace.WithAttributes(
				attribute.Int("fee_tier", tier),
				attribute.String("reason", err.Error()),
			))
			p.logger.Debug(ctx, "uniswap v3 tier quote failed, skipping",
				"fee_tier", tier,
				"pair", input.Symbol()+"/"+output.Symbol(),
				"error", err.Error(),
			)
			continue
		}
		if quote.Amount == nil || quote.Amount.Sign() == 0 {
			continue
		}

		if bestAmount == nil || betterQuote(mode, quote.Amount, bestAmount) {
			bestTier = tier
			bestAmount = quote.Amount
		}
	}

	if bestAmount == nil {
		return nil, 0, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContext(fmt.Sprintf("no valid pool for %s/%s", input.Symbol(), output.Symbol())))
	}

	var amountIn, amountOut decimal.Decimal
	switch mode {
	case domain.SwapModeExactInput:
		amountIn = amount
		amountOut = asset.NewAmount(output, bestAmount).ToDecimal()
	case domain.SwapModeExactOutput:
		amountIn = asset.NewAmount(input, bestAmount).ToDecimal()
		amountOut = amount
	}

	hop, err := domain.NewSwapHop(input, amountIn, output, amountOut, false)
	if err != nil {
		return nil, 0, err
	}

	// The pool fee is the only protocol tax; tiers are hundredths of a bip.
	taxes := decimal.New(int64(bestTier), -6)
	protocol := fmt.Sprintf("%s_%d", ProtocolName, bestTier)

	route, err := domain.NewSingleHopRoute(hop, mode, p.maxSlippage, taxes, protocol)
	if err != nil {
		return nil, 0, err
	}
	return route, bestTier, nil
}

// betterQuote reports whether candidate strictly beats best for the mode:
// more output when the input is fixed, less input when the output is.
func betterQuote(mode domain.SwapMode, candidate, best *big.Int) bool {
	if mode == domain.SwapModeExactOutput {
		return candidate.Cmp(best) < 0
	}
	return candidate.Cmp(best) > 0
}

// GetReserves approximates pool reserves from in-range liquidity and the
// current price, in each asset's decimal units ordered as (a, b). The 0.3%
// pool is probed first, then the remaining configured tiers.
//
// V3 concentrates liquidity, so these figures gauge depth near the current
// price; quoting always goes through QuoterV2.
func (p *Provider) GetReserves(ctx context.Context, a, b *asset.Asset) (decimal.Decimal, decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv3.get_reserves",
		trace.WithAttributes(
			attribute.String("token_a", a.Address().Hex()),
			attribute.String("token_b", b.Address().Hex()),
		),
	)
	defer span.End()

	pool, tier, err := p.firstPool(ctx, a.Address(), b.Address())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, decimal.Zero, err
	}
	if pool == (common.Address{}) {
		span.SetStatus(codes.Error, "no pool")
		return decimal.Zero, decimal.Zero, apperror.NotFound(apperror.CodePoolNotFound,
			fmt.Sprintf("no pool for %s/%s", a.Symbol(), b.Symbol()))
	}

	sqrtPriceX96, err := p.sqrtPriceX96(ctx, pool)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, decimal.Zero, err
	}
	liquidity, err := p.liquidity(ctx, pool)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, decimal.Zero, err
	}
	token0, err := p.token0(ctx, pool)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, decimal.Zero, err
	}

	rawA, rawB, err := domain.ApproximateReservesFromLiquidity(liquidity, sqrtPriceX96, a.Address() == token0)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, decimal.Zero, err
	}

	span.SetAttributes(attribute.Int("fee_tier", tier))
	span.SetStatus(codes.Ok, "reserves approximated")
	return rawA.Shift(-int32(a.Decimals())), rawB.Shift(-int32(b.Decimals())), nil
}

// BuildSwapTransaction encodes a SwapRouter call for a quoted route. The
// fee tier is recovered from the route's protocol tag. Exact-input routes
// floor the output at route.MinAmountOut; exact-output routes cap the
// input at route.MaxAmountIn. The transaction is unsigned.
func (p *Provider) BuildSwapTransaction(ctx context.Context, route *domain.SwapRoute, recipient common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	ctx, span := p.tracer.Start(ctx, "uniswapv3.build_swap_transaction")
	defer span.End()

	if route == nil {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "route is nil")
	}
	if len(route.Sequence) != 1 {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "uniswap v3 builds single-hop swaps only")
	}
	if recipient == (common.Address{}) {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "recipient address is required")
	}

	tier, err := feeTierFromProtocol(route.Protocol)
	if err != nil {
		return nil, err
	}

	hop := route.Sequence[0]
	deadline, err := p.deadlineFrom(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

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
		method = "exactInputSingle"
		callData, err = p.routerABI.Pack(method, ExactInputSingleParams{
			TokenIn:           hop.AssetIn.Address(),
			TokenOut:          hop.AssetOut.Address(),
			Fee:               big.NewInt(int64(tier)),
			Recipient:         recipient,
			Deadline:          deadline,
			AmountIn:          amountIn,
			AmountOutMinimum:  minOut,
			SqrtPriceLimitX96: big.NewInt(0),
		})
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
		method = "exactOutputSingle"
		callData, err = p.routerABI.Pack(method, ExactOutputSingleParams{
			TokenIn:           hop.AssetIn.Address(),
			TokenOut:          hop.AssetOut.Address(),
			Fee:               big.NewInt(int64(tier)),
			Recipient:         recipient,
			Deadline:          deadline,
			AmountOut:         amountOut,
			AmountInMaximum:   maxIn,
			SqrtPriceLimitX96: big.NewInt(0),
		})
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
		attribute.Int("fee_tier", tier),
		attribute.String("recipient", recipient.Hex()),
	)
	span.SetStatus(codes.Ok, "transaction built")

	p.logger.Debug(ctx, "uniswap v3 swap built",
		"method", method,
		"fee_tier", tier,
		"pair", hop.AssetIn.Symbol()+"/"+hop.AssetOut.Symbol(),
		"operation_id", tx.OperationID.String(),
	)

	return tx, nil
}

// feeTierFromProtocol parses the tier suffix out of a route protocol tag
// such as "uniswap_v3_3000".
func feeTierFromProtocol(protocol string) (int, error) {
	idx := strings.LastIndex(protocol, "_")
	if idx < 0 || idx == len(protocol)-1 {
		return 0, apperror.Validation(apperror.CodeInvalidRoute,
			fmt.Sprintf("route protocol %q carries no fee tier", protocol))
	}
	tier, err := strconv.Atoi(protocol[idx+1:])
	if err != nil || tier <= 0 {
		return 0, apperror.Validation(apperror.CodeInvalidRoute,
			fmt.Sprintf("route protocol %q carries no fee tier", protocol))
	}
	return tier, nil
}

// quoteTier asks QuoterV2 for a single-pool quote on one fee tier. The
// lens methods are nonpayable but revert all state changes, so they are
// safe to eth_call.
func (p *Provider) quoteTier(ctx context.Context, tokenIn, tokenOut common.Address, amountRaw *big.Int, tier int, mode domain.SwapMode) (*quoteResult, error) {
	var (
		method   string
		callData []byte
		err      error
	)
	if mode == domain.SwapModeExactOutput {
		method = "quoteExactOutputSingle"
		callData, err = p.quoterABI.Pack(method, QuoteExactOutputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			Amount:            amountRaw,
			Fee:               big.NewInt(int64(tier)),
			SqrtPriceLimitX96: big.NewInt(0),
		})
	} else {
		method = "quoteExactInputSingle"
		callData, err = p.quoterABI.Pack(method, QuoteExactInputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			AmountIn:          amountRaw,
			Fee:               big.NewInt(int64(tier)),
			SqrtPriceLimitX96: big.NewInt(0),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &p.quoter,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("quoter call failed for fee tier %d", tier)))
	}

	outputs, err := p.quoterABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &quoteResult{
		Amount:                  outputs[0].(*big.Int),
		SqrtPriceX96After:       outputs[1].(*big.Int),
		InitializedTicksCrossed: outputs[2].(uint32),
		GasEstimate:             outputs[3].(*big.Int),
	}, nil
}

// poolFor resolves the factory's pool address for a token pair and fee
// tier. A zero address means no pool exists for that tier.
func (p *Provider) poolFor(ctx context.Context, tokenA, tokenB common.Address, tier int) (common.Address, error) {
	callData, err := p.factoryABI.Pack("getPool", tokenA, tokenB, big.NewInt(int64(tier)))
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
			apperror.WithContext("factory getPool call failed"))
	}

	outputs, err := p.factoryABI.Unpack("getPool", result)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode result: %w", err)
	}
	return outputs[0].(common.Address), nil
}

// firstPool probes fee tiers for an existing pool, 0.3% first since it is
// the most commonly deployed, then the remaining configured tiers.
func (p *Provider) firstPool(ctx context.Context, tokenA, tokenB common.Address) (common.Address, int, error) {
	tiers := make([]int, 0, len(p.feeTiers)+1)
	tiers = append(tiers, FeeTier030)
	for _, t := range p.feeTiers {
		if t != FeeTier030 {
			tiers = append(tiers, t)
		}
	}

	for _, tier := range tiers {
		pool, err := p.poolFor(ctx, tokenA, tokenB, tier)
		if err != nil {
			return common.Address{}, 0, err
		}
		if pool != (common.Address{}) {
			return pool, tier, nil
		}
	}
	return common.Address{}, 0, nil
}

func (p *Provider) sqrtPriceX96(ctx context.Context, pool common.Address) (*big.Int, error) {
	callData, err := p.poolABI.Pack("slot0")
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}
	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &pool,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("pool slot0 call failed"))
	}
	outputs, err := p.poolABI.Unpack("slot0", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return outputs[0].(*big.Int), nil
}

func (p *Provider) liquidity(ctx context.Context, pool common.Address) (*big.Int, error) {
	callData, err := p.poolABI.Pack("liquidity")
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}
	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &pool,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("pool liquidity call failed"))
	}
	outputs, err := p.poolABI.Unpack("liquidity", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return outputs[0].(*big.Int), nil
}

func (p *Provider) token0(ctx context.Context, pool common.Address) (common.Address, error) {
	callData, err := p.poolABI.Pack("token0")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode call: %w", err)
	}
	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &pool,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("pool token0 call failed"))
	}
	outputs, err := p.poolABI.Unpack("token0", result)
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
