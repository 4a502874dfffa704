package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/betting/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

// Service aggregates prediction market strategies behind one surface.
// Single reads and trade builds resolve name-or-first; listings without a
// protocol name union results across every registered strategy. Buy and
// sell orders without an explicit price bound derive one from the current
// token price and the configured slippage tolerance.
type Service struct {
	strategies map[string]Strategy
	order      []string
	slippage   decimal.Decimal
	logger     logger.LoggerInterface
}

// NewService creates a Service over the given strategies. Registration
// order fixes the default protocol for name-or-first resolution. Nil
// strategies and duplicate names are skipped.
func NewService(log logger.LoggerInterface, cfg config.BettingConfig, strategies ...Strategy) *Service {
	s := &Service{
		strategies: make(map[string]Strategy, len(strategies)),
		slippage:   cfg.SlippageToleranceDecimal(),
		logger:     log,
	}
	for _, st := range strategies {
		if st == nil {
			continue
		}
		name := st.Name()
		if _, exists := s.strategies[name]; exists {
			log.Warn(context.Background(), "duplicate betting strategy ignored", "protocol", name)
			continue
		}
		s.strategies[name] = st
		s.order = append(s.order, name)
	}
	return s
}

// SupportedProtocols returns the registered protocol names in order.
func (s *Service) SupportedProtocols() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// GetMarket returns one market, name-or-first resolved.
func (s *Service) GetMarket(ctx context.Context, id, protocol string) (*domain.BettingMarket, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.GetMarket(ctx, id)
}

// GetMarkets lists markets. A named protocol delegates directly; without
// one, listings are unioned across every strategy in registration order
// and failing strategies are skipped with a warning.
func (s *Service) GetMarkets(ctx context.Context, f domain.MarketFilter, protocol string) ([]domain.BettingMarket, error) {
	if protocol != "" {
		strategy, err := s.resolve(protocol)
		if err != nil {
			return nil, err
		}
		return strategy.GetMarkets(ctx, f)
	}

	if len(s.order) == 0 {
		return nil, apperror.New(apperror.CodeNoProtocolsConfigured)
	}

	var out []domain.BettingMarket
	for _, name := range s.order {
		markets, err := s.strategies[name].GetMarkets(ctx, f)
		if err != nil {
			s.logger.Warn(ctx, "market listing failed, skipping strategy",
				"protocol", name,
				"error", err)
			continue
		}
		out = append(out, markets...)
	}
	return out, nil
}

// GetUserPositions returns holdings with the same resolution and union
// semantics as GetMarkets. An empty marketID means all markets.
func (s *Service) GetUserPositions(ctx context.Context, user common.Address, marketID, protocol string) ([]domain.BettingPosition, error) {
	if protocol != "" {
		strategy, err := s.resolve(protocol)
		if err != nil {
			return nil, err
		}
		return strategy.GetUserPositions(ctx, user, marketID)
	}

	if len(s.order) == 0 {
		return nil, apperror.New(apperror.CodeNoProtocolsConfigured)
	}

	var out []domain.BettingPosition
	for _, name := range s.order {
		positions, err := s.strategies[name].GetUserPositions(ctx, user, marketID)
		if err != nil {
			s.logger.Warn(ctx, "position fetch failed, skipping strategy",
				"protocol", name,
				"user", user.Hex(),
				"error", err)
			continue
		}
		out = append(out, positions...)
	}
	return out, nil
}

// GetOutcomeTokenPrice returns one token's current price, name-or-first
// resolved.
func (s *Service) GetOutcomeTokenPrice(ctx context.Context, marketID, tokenID, protocol string) (decimal.Decimal, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return decimal.Zero, err
	}
	return strategy.GetOutcomeTokenPrice(ctx, marketID, tokenID)
}

// BuyOutcomeTokens builds an unsigned buy. When maxPrice is nil, the
// bound defaults to the current token price marked up by the configured
// slippage tolerance.
func (s *Service) BuyOutcomeTokens(ctx context.Context, marketID, tokenID string, amount decimal.Decimal, maxPrice *decimal.Decimal, user common.Address, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}

	var bound decimal.Decimal
	if maxPrice != nil {
		bound = *maxPrice
	} else {
		price, err := strategy.GetOutcomeTokenPrice(ctx, marketID, tokenID)
		if err != nil {
			return nil, err
		}
		bound = price.Mul(decimal.NewFromInt(1).Add(s.slippage))
		s.logger.Debug(ctx, "buy price bound defaulted from slippage tolerance",
			"market", marketID,
			"token", tokenID,
			"price", price.String(),
			"max_price", bound.String())
	}

	return strategy.BuildBuyTransaction(ctx, marketID, tokenID, amount, bound, user)
}

// SellOutcomeTokens builds an unsigned sale. When minPrice is nil, the
// bound defaults to the current token price marked down by the configured
// slippage tolerance.
func (s *Service) SellOutcomeTokens(ctx context.Context, marketID, tokenID string, shares decimal.Decimal, minPrice *decimal.Decimal, user common.Address, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}

	var bound decimal.Decimal
	if minPrice != nil {
		bound = *minPrice
	} else {
		price, err := strategy.GetOutcomeTokenPrice(ctx, marketID, tokenID)
		if err != nil {
			return nil, err
		}
		bound = price.Mul(decimal.NewFromInt(1).Sub(s.slippage))
		s.logger.Debug(ctx, "sell price bound defaulted from slippage tolerance",
			"market", marketID,
			"token", tokenID,
			"price", price.String(),
			"min_price", bound.String())
	}

	return strategy.BuildSellTransaction(ctx, marketID, tokenID, shares, bound, user)
}

// RedeemWinnings builds an unsigned redemption of winning positions in a
// resolved market.
func (s *Service) RedeemWinnings(ctx context.Context, marketID string, user common.Address, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.BuildRedeemTransaction(ctx, marketID, user)
}

// GetBuyQuote prices spending amount of collateral on a token,
// name-or-first resolved.
func (s *Service) GetBuyQuote(ctx context.Context, marketID, tokenID string, amount decimal.Decimal, protocol string) (*domain.BuyQuote, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.CalculateBuyQuote(ctx, marketID, tokenID, amount)
}

// GetSellQuote prices selling shares of a token, name-or-first resolved.
func (s *Service) GetSellQuote(ctx context.Context, marketID, tokenID string, shares decimal.Decimal, protocol string) (*domain.SellQuote, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.CalculateSellQuote(ctx, marketID, tokenID, shares)
}

// WatchMarketPrices subscribes to live outcome-token prices for one
// market. Fails when the resolved strategy has no streaming channel.
func (s *Service) WatchMarketPrices(ctx context.Context, marketID, protocol string) (PriceStream, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}

	streamer, ok := strategy.(PriceStreamer)
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedProtocol,
			apperror.WithContext(fmt.Sprintf("protocol %s has no price stream", strategy.Name())))
	}

	market, err := strategy.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	tokenIDs := make([]string, 0, len(market.Outcomes))
	for _, outcome := range market.Outcomes {
		for _, token := range outcome.Tokens {
			tokenIDs = append(tokenIDs, token.TokenID)
		}
	}

	s.logger.Debug(ctx, "opening market price stream",
		"protocol", strategy.Name(),
		"market_id", marketID,
		"tokens", len(tokenIDs))

	return streamer.StreamPrices(ctx, tokenIDs)
}

// resolve returns the named strategy, or the first registered one when
// the name is empty.
func (s *Service) resolve(name string) (Strategy, error) {
	if name != "" {
		strategy, ok := s.strategies[name]
		if !ok {
			return nil, apperror.New(apperror.CodeUnsupportedProtocol,
				apperror.WithContext(fmt.Sprintf("unsupported protocol: %s", name)))
		}
		return strategy, nil
	}
	if len(s.order) == 0 {
		return nil, apperror.New(apperror.CodeNoProtocolsConfigured)
	}
	return s.strategies[s.order[0]], nil
}
