// Package polymarket implements the betting market Strategy for
// Polymarket. Market data, prices, and positions come from the CLOB REST
// API; trades are encoded against the CTF Exchange and redemptions
// against the Conditional Tokens contract, both returned unsigned.
//
// Outcome token prices live in [0, 1] and double as implied
// probabilities. Collateral and shares both use the collateral token's
// precision (USDC, 6 decimals) on the wire.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-router/business/betting/app"
	"github.com/fd1az/defi-router/business/betting/domain"
	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

const (
	tracerName = "polymarket"
	meterName  = "polymarket"
)

// ProtocolName is the registry identifier for this strategy.
const ProtocolName = "polymarket"

// Ensure Provider implements the betting market Strategy.
var (
	_ app.Strategy      = (*Provider)(nil)
	_ app.PriceStreamer = (*Provider)(nil)
)

type providerMetrics struct {
	requestsTotal  metric.Int64Counter
	requestLatency metric.Float64Histogram
	requestErrors  metric.Int64Counter
}

// Provider binds one Polymarket deployment: the CLOB API for reads, the
// CTF Exchange for trades, the Conditional Tokens contract for
// redemptions.
type Provider struct {
	client *Client

	exchange          common.Address
	conditionalTokens common.Address
	exchangeABI       abi.ABI
	ctfABI            abi.ABI

	collateral *asset.Asset
	feeRate    decimal.Decimal
	feeRateBps *big.Int
	wsURL      string

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Polymarket strategy from the betting
// configuration. The collateral asset is resolved through the registry,
// falling back to bridged USDC on Polygon when unregistered.
func NewProvider(client *Client, cfg config.BettingConfig, registry *asset.Registry, log logger.LoggerInterface) (*Provider, error) {
	exchangeABI, err := abi.JSON(strings.NewReader(CTFExchangeABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse exchange ABI: %w", err)
	}
	ctfABI, err := abi.JSON(strings.NewReader(ConditionalTokensABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse conditional tokens ABI: %w", err)
	}

	collateralAddr := cfg.Polymarket.CollateralAddressHex()
	collateral, ok := registry.GetToken(asset.ChainIDPolygon, collateralAddr)
	if !ok {
		collateral = asset.NewAssetWithName(
			asset.NewTokenAssetID(asset.ChainIDPolygon, collateralAddr),
			"USDC", "USD Coin", 6)
	}

	feeRate := cfg.FeeRateDecimal()

	p := &Provider{
		client:            client,
		exchange:          cfg.Polymarket.ExchangeAddressHex(),
		conditionalTokens: cfg.Polymarket.ConditionalTokensAddressHex(),
		exchangeABI:       exchangeABI,
		ctfABI:            ctfABI,
		collateral:        collateral,
		feeRate:           feeRate,
		feeRateBps:        big.NewInt(feeRate.Shift(4).IntPart()),
		wsURL:             cfg.Polymarket.WebSocketURL,
		logger:            log,
		tracer:            otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.requestsTotal, err = meter.Int64Counter(
		"polymarket_requests_total",
		metric.WithDescription("Total CLOB API requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.requestLatency, err = meter.Float64Histogram(
		"polymarket_request_latency_ms",
		metric.WithDescription("CLOB API request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.requestErrors, err = meter.Int64Counter(
		"polymarket_request_errors_total",
		metric.WithDescription("Total CLOB API request errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name returns the protocol registry identifier.
func (p *Provider) Name() string { return ProtocolName }

// GetMarket returns one market by condition id.
func (p *Provider) GetMarket(ctx context.Context, id string) (*domain.BettingMarket, error) {
	ctx, span := p.tracer.Start(ctx, "polymarket.get_market",
		trace.WithAttributes(attribute.String("market.id", id)),
	)
	defer span.End()

	start := time.Now()
	p.metrics.requestsTotal.Add(ctx, 1)

	resp, err := p.client.Market(ctx, id)

	p.metrics.requestLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.requestErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	market, err := p.parseMarket(resp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "market read")
	return market, nil
}

// GetMarkets lists markets matching the filter. Markets the API returns
// in a shape the parser rejects are skipped, not fatal.
func (p *Provider) GetMarkets(ctx context.Context, f domain.MarketFilter) ([]domain.BettingMarket, error) {
	ctx, span := p.tracer.Start(ctx, "polymarket.get_markets",
		trace.WithAttributes(attribute.String("filter.category", f.Category)),
	)
	defer span.End()

	start := time.Now()
	p.metrics.requestsTotal.Add(ctx, 1)

	activeOnly := f.Status == domain.MarketStatusActive
	resp, err := p.client.Markets(ctx, f.Category, activeOnly, f.Limit, f.Offset)

	p.metrics.requestLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.requestErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	markets := make([]domain.BettingMarket, 0, len(resp))
	for i := range resp {
		market, err := p.parseMarket(&resp[i])
		if err != nil {
			p.logger.Debug(ctx, "skipping malformed market",
				"market_id", resp[i].ConditionID,
				"error", err.Error())
			continue
		}
		if f.Status != "" && market.Status != f.Status {
			continue
		}
		markets = append(markets, *market)
	}

	span.SetAttributes(attribute.Int("markets", len(markets)))
	span.SetStatus(codes.Ok, "markets read")
	return markets, nil
}

// GetUserPositions returns the user's outcome-token holdings.
func (p *Provider) GetUserPositions(ctx context.Context, user common.Address, marketID string) ([]domain.BettingPosition, error) {
	ctx, span := p.tracer.Start(ctx, "polymarket.get_user_positions",
		trace.WithAttributes(attribute.String("user", user.Hex())),
	)
	defer span.End()

	start := time.Now()
	p.metrics.requestsTotal.Add(ctx, 1)

	resp, err := p.client.Positions(ctx, user, marketID)

	p.metrics.requestLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.requestErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.Wrap(err, apperror.CodePositionFetchFailed, "positions for "+user.Hex())
	}

	positions := make([]domain.BettingPosition, 0, len(resp))
	for i := range resp {
		pos, err := parsePosition(resp[i])
		if err != nil {
			p.logger.Debug(ctx, "skipping malformed position",
				"market_id", resp[i].MarketID,
				"token_id", resp[i].TokenID,
				"error", err.Error())
			continue
		}
		positions = append(positions, *pos)
	}

	span.SetAttributes(attribute.Int("positions", len(positions)))
	span.SetStatus(codes.Ok, "positions read")
	return positions, nil
}

// GetOutcomeTokenPrice returns the current CLOB price for a token.
func (p *Provider) GetOutcomeTokenPrice(ctx context.Context, marketID, tokenID string) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "polymarket.get_outcome_token_price",
		trace.WithAttributes(
			attribute.String("market.id", marketID),
			attribute.String("token.id", tokenID),
		),
	)
	defer span.End()

	start := time.Now()
	p.metrics.requestsTotal.Add(ctx, 1)

	resp, err := p.client.Price(ctx, tokenID)

	p.metrics.requestLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.metrics.requestErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		if apperror.HasCode(err, apperror.CodeMarketNotFound) {
			return decimal.Zero, err
		}
		return decimal.Zero, apperror.Wrap(err, apperror.CodePriceFetchFailed, "price for token "+tokenID)
	}

	price, err := decimal.NewFromString(resp.Price.String())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return decimal.Zero, apperror.New(apperror.CodePriceFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("malformed price %q for token %s", resp.Price, tokenID)))
	}

	span.SetAttributes(attribute.String("price", price.String()))
	span.SetStatus(codes.Ok, "price read")
	return price, nil
}

// BuildBuyTransaction encodes a fillOrder buy on the CTF Exchange. The
// maker amount is the collateral spent, the taker amount the minimum
// shares received at maxPrice. The order's signature field is left empty
// for the caller's signer.
func (p *Provider) BuildBuyTransaction(ctx context.Context, marketID, tokenID string, amount, maxPrice decimal.Decimal, user common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	ctx, span := p.tracer.Start(ctx, "polymarket.build_buy_transaction",
		trace.WithAttributes(
			attribute.String("market.id", marketID),
			attribute.String("token.id", tokenID),
			attribute.String("amount", amount.String()),
			attribute.String("max_price", maxPrice.String()),
		),
	)
	defer span.End()

	if err := validatePrice(maxPrice); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	token, err := parseTokenID(tokenID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	makerAmount, err := p.rawCollateral(amount)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	takerAmount, err := p.rawCollateral(amount.Div(maxPrice))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	order := p.newOrder(user, token, makerAmount, takerAmount, orderSideBuy)
	callData, err := p.exchangeABI.Pack("fillOrder", order, makerAmount)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("encoding buy order"))
	}

	desc := fmt.Sprintf("Buy outcome token %s for %s %s (max price %s)",
		tokenID, amount, p.collateral.Symbol(), maxPrice)
	tx := blockchainDomain.NewUnsignedTransaction(ProtocolName, desc, p.exchange, callData, nil)

	span.SetStatus(codes.Ok, "buy transaction built")
	p.logger.Debug(ctx, "built buy transaction",
		"market_id", marketID,
		"token_id", tokenID,
		"maker_amount", makerAmount.String(),
		"taker_amount", takerAmount.String(),
	)
	return tx, nil
}

// BuildSellTransaction encodes a fillOrder sale on the CTF Exchange. The
// maker amount is the shares sold, the taker amount the minimum
// collateral received at minPrice.
func (p *Provider) BuildSellTransaction(ctx context.Context, marketID, tokenID string, shares, minPrice decimal.Decimal, user common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	ctx, span := p.tracer.Start(ctx, "polymarket.build_sell_transaction",
		trace.WithAttributes(
			attribute.String("market.id", marketID),
			attribute.String("token.id", tokenID),
			attribute.String("shares", shares.String()),
			attribute.String("min_price", minPrice.String()),
		),
	)
	defer span.End()

	if err := validatePrice(minPrice); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	token, err := parseTokenID(tokenID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	makerAmount, err := p.rawCollateral(shares)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	takerAmount, err := p.rawCollateral(shares.Mul(minPrice))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	order := p.newOrder(user, token, makerAmount, takerAmount, orderSideSell)
	callData, err := p.exchangeABI.Pack("fillOrder", order, makerAmount)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("encoding sell order"))
	}

	desc := fmt.Sprintf("Sell %s shares of outcome token %s (min price %s)",
		shares, tokenID, minPrice)
	tx := blockchainDomain.NewUnsignedTransaction(ProtocolName, desc, p.exchange, callData, nil)

	span.SetStatus(codes.Ok, "sell transaction built")
	p.logger.Debug(ctx, "built sell transaction",
		"market_id", marketID,
		"token_id", tokenID,
		"maker_amount", makerAmount.String(),
		"taker_amount", takerAmount.String(),
	)
	return tx, nil
}

// BuildRedeemTransaction encodes redeemPositions against the Conditional
// Tokens contract for both index sets of a resolved binary market.
func (p *Provider) BuildRedeemTransaction(ctx context.Context, marketID string, user common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	ctx, span := p.tracer.Start(ctx, "polymarket.build_redeem_transaction",
		trace.WithAttributes(attribute.String("market.id", marketID)),
	)
	defer span.End()

	conditionID := common.HexToHash(marketID)
	if conditionID == (common.Hash{}) {
		err := apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("market id %q is not a condition id", marketID))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	indexSets := []*big.Int{big.NewInt(1), big.NewInt(2)}
	callData, err := p.ctfABI.Pack("redeemPositions",
		p.collateral.Address(), common.Hash{}, conditionID, indexSets)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("encoding redemption"))
	}

	desc := fmt.Sprintf("Redeem winnings in market %s", marketID)
	tx := blockchainDomain.NewUnsignedTransaction(ProtocolName, desc, p.conditionalTokens, callData, nil)

	span.SetStatus(codes.Ok, "redeem transaction built")
	p.logger.Debug(ctx, "built redeem transaction",
		"market_id", marketID,
		"user", user.Hex(),
	)
	return tx, nil
}

// CalculateBuyQuote prices a collateral spend at the current CLOB price.
func (p *Provider) CalculateBuyQuote(ctx context.Context, marketID, tokenID string, amount decimal.Decimal) (*domain.BuyQuote, error) {
	if !amount.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("amount must be positive, got %s", amount))
	}

	price, err := p.GetOutcomeTokenPrice(ctx, marketID, tokenID)
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, apperror.New(apperror.CodePriceFetchFailed,
			apperror.WithContext(fmt.Sprintf("token %s has no tradable price", tokenID)))
	}

	fee := amount.Mul(p.feeRate)
	return &domain.BuyQuote{
		MarketID:       marketID,
		TokenID:        tokenID,
		Amount:         amount,
		Price:          price,
		ExpectedShares: amount.Div(price),
		Fee:            fee,
		TotalCost:      amount.Add(fee),
	}, nil
}

// CalculateSellQuote prices a share sale at the current CLOB price.
func (p *Provider) CalculateSellQuote(ctx context.Context, marketID, tokenID string, shares decimal.Decimal) (*domain.SellQuote, error) {
	if !shares.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("shares must be positive, got %s", shares))
	}

	price, err := p.GetOutcomeTokenPrice(ctx, marketID, tokenID)
	if err != nil {
		return nil, err
	}

	gross := shares.Mul(price)
	fee := gross.Mul(p.feeRate)
	return &domain.SellQuote{
		MarketID:    marketID,
		TokenID:     tokenID,
		Shares:      shares,
		Price:       price,
		GrossPayout: gross,
		Fee:         fee,
		NetPayout:   gross.Sub(fee),
	}, nil
}

// newOrder assembles an unsigned exchange order. Salt uniqueness comes
// from the wall clock; expiration 0 means good-till-cancelled.
func (p *Provider) newOrder(user common.Address, tokenID, makerAmount, takerAmount *big.Int, side uint8) exchangeOrder {
	return exchangeOrder{
		Salt:          big.NewInt(time.Now().UnixNano()),
		Maker:         user,
		Signer:        user,
		Taker:         common.Address{},
		TokenId:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    big.NewInt(0),
		Nonce:         big.NewInt(0),
		FeeRateBps:    p.feeRateBps,
		Side:          side,
		SignatureType: signatureTypeEOA,
		Signature:     []byte{},
	}
}

// parseMarket converts a CLOB response to the domain model. Newer
// responses carry a tokens array with real uint256 CLOB ids; older ones
// only outcome names, which get synthetic ids usable for quoting but not
// for order building.
func (p *Provider) parseMarket(m *marketResponse) (*domain.BettingMarket, error) {
	id := m.ConditionID
	if id == "" {
		id = m.ID
	}
	if id == "" {
		return nil, apperror.Validation(apperror.CodeValidationError, "market response has no id")
	}

	status := domain.MarketStatusActive
	switch {
	case m.Resolved:
		status = domain.MarketStatusResolved
	case m.Closed:
		status = domain.MarketStatusClosed
	}

	var (
		outcomes   []domain.MarketOutcome
		resolvedID string
	)
	switch {
	case len(m.Tokens) > 0:
		for i, t := range m.Tokens {
			price := numberToDecimal(t.Price)
			token, err := domain.NewOutcomeToken(domain.OutcomeToken{
				TokenID:      t.TokenID,
				OutcomeName:  t.Outcome,
				CurrentPrice: price,
				Probability:  price,
			})
			if err != nil {
				return nil, err
			}
			outcomeID := strconv.Itoa(i)
			outcomes = append(outcomes, domain.MarketOutcome{
				OutcomeID: outcomeID,
				Text:      t.Outcome,
				Tokens:    []domain.OutcomeToken{*token},
				Winning:   t.Winner,
			})
			if t.Winner {
				resolvedID = outcomeID
			}
		}
	case len(m.Outcomes) > 0:
		for i, name := range m.Outcomes {
			price := decimal.NewFromFloat(0.5)
			if i < len(m.Prices) {
				price = numberToDecimal(m.Prices[i])
			}
			token, err := domain.NewOutcomeToken(domain.OutcomeToken{
				TokenID:      fmt.Sprintf("%s_%d", id, i),
				OutcomeName:  name,
				CurrentPrice: price,
				Probability:  price,
			})
			if err != nil {
				return nil, err
			}
			outcomes = append(outcomes, domain.MarketOutcome{
				OutcomeID: strconv.Itoa(i),
				Text:      name,
				Tokens:    []domain.OutcomeToken{*token},
			})
		}
	default:
		return nil, apperror.Validation(apperror.CodeValidationError,
			fmt.Sprintf("market %s has no outcomes", id))
	}

	if resolvedID == "" && m.WinningOutcome != nil {
		resolvedID = strconv.Itoa(*m.WinningOutcome)
	}
	if status == domain.MarketStatusResolved && resolvedID != "" {
		for i := range outcomes {
			outcomes[i].Winning = outcomes[i].OutcomeID == resolvedID
		}
	}

	market := domain.BettingMarket{
		ID:             id,
		Title:          m.Question,
		Description:    m.Description,
		Category:       m.Category,
		Status:         status,
		Collateral:     p.collateral,
		Outcomes:       outcomes,
		TotalVolume:    numberToDecimal(m.Volume),
		TotalLiquidity: numberToDecimal(m.Liquidity),
		Protocol:       ProtocolName,
	}
	if status == domain.MarketStatusResolved {
		market.ResolvedOutcomeID = resolvedID
	}
	if ts, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		market.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		market.EndDate = &ts
	}

	return domain.NewBettingMarket(market)
}

// parsePosition converts a positions API entry to the domain model.
func parsePosition(pr positionResponse) (*domain.BettingPosition, error) {
	shares := numberToDecimal(pr.Shares)
	avgPrice := numberToDecimal(pr.AvgPrice)
	currentPrice := numberToDecimal(pr.CurrentPrice)

	token, err := domain.NewOutcomeToken(domain.OutcomeToken{
		TokenID:      pr.TokenID,
		OutcomeName:  pr.OutcomeName,
		CurrentPrice: currentPrice,
		Probability:  currentPrice,
	})
	if err != nil {
		return nil, err
	}

	invested := shares.Mul(avgPrice)
	value := shares.Mul(currentPrice)

	return &domain.BettingPosition{
		MarketID:      pr.MarketID,
		OutcomeToken:  *token,
		SharesOwned:   shares,
		AveragePrice:  avgPrice,
		TotalInvested: invested,
		CurrentValue:  value,
		UnrealizedPnL: value.Sub(invested),
		Protocol:      ProtocolName,
	}, nil
}

// rawCollateral scales a collateral or share quantity to raw token
// units, flooring anything beyond the collateral's precision.
func (p *Provider) rawCollateral(d decimal.Decimal) (*big.Int, error) {
	if !d.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("amount must be positive, got %s", d))
	}
	amt, err := asset.ParseDecimal(p.collateral, d.Truncate(int32(p.collateral.Decimals())))
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("amount %s not representable in %s units", d, p.collateral.Symbol())))
	}
	return amt.Raw(), nil
}

// parseTokenID parses a CLOB token id into its on-chain uint256 form.
// Synthetic ids from markets without a tokens array are rejected here.
func parseTokenID(tokenID string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(tokenID, 10)
	if !ok || n.Sign() < 0 {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("token id %q is not an on-chain token id", tokenID))
	}
	return n, nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() || price.GreaterThan(decimal.NewFromInt(1)) {
		return apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("price must be within (0, 1], got %s", price))
	}
	return nil
}

func numberToDecimal(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// StreamPrices opens the CLOB market channel for the given token ids.
// The returned stream reconnects on its own until closed.
func (p *Provider) StreamPrices(ctx context.Context, tokenIDs []string) (app.PriceStream, error) {
	if len(tokenIDs) == 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("no token ids to stream"))
	}

	stream, err := NewMarketStream(p.wsURL, tokenIDs, p.logger)
	if err != nil {
		return nil, err
	}
	if err := stream.Connect(ctx); err != nil {
		return nil, err
	}
	return stream, nil
}
