package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/betting/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testConfig() config.BettingConfig {
	return config.BettingConfig{SlippageTolerance: 0.01, FeeRate: 0.02}
}

// fakeStrategy satisfies Strategy with canned responses and records the
// price bounds of the last build call.
type fakeStrategy struct {
	name string

	market    *domain.BettingMarket
	markets   []domain.BettingMarket
	positions []domain.BettingPosition
	price     decimal.Decimal
	readErr   error

	tx       *blockchainDomain.UnsignedTransaction
	buildErr error

	priceCalls   int
	lastMaxPrice decimal.Decimal
	lastMinPrice decimal.Decimal
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) GetMarket(ctx context.Context, id string) (*domain.BettingMarket, error) {
	return f.market, f.readErr
}

func (f *fakeStrategy) GetMarkets(ctx context.Context, filter domain.MarketFilter) ([]domain.BettingMarket, error) {
	return f.markets, f.readErr
}

func (f *fakeStrategy) GetUserPositions(ctx context.Context, user common.Address, marketID string) ([]domain.BettingPosition, error) {
	return f.positions, f.readErr
}

func (f *fakeStrategy) GetOutcomeTokenPrice(ctx context.Context, marketID, tokenID string) (decimal.Decimal, error) {
	f.priceCalls++
	return f.price, f.readErr
}

func (f *fakeStrategy) BuildBuyTransaction(ctx context.Context, marketID, tokenID string, amount, maxPrice decimal.Decimal, user common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	f.lastMaxPrice = maxPrice
	return f.tx, f.buildErr
}

func (f *fakeStrategy) BuildSellTransaction(ctx context.Context, marketID, tokenID string, shares, minPrice decimal.Decimal, user common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	f.lastMinPrice = minPrice
	return f.tx, f.buildErr
}

func (f *fakeStrategy) BuildRedeemTransaction(ctx context.Context, marketID string, user common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	return f.tx, f.buildErr
}

func (f *fakeStrategy) CalculateBuyQuote(ctx context.Context, marketID, tokenID string, amount decimal.Decimal) (*domain.BuyQuote, error) {
	return &domain.BuyQuote{MarketID: marketID, TokenID: tokenID, Amount: amount}, f.readErr
}

func (f *fakeStrategy) CalculateSellQuote(ctx context.Context, marketID, tokenID string, shares decimal.Decimal) (*domain.SellQuote, error) {
	return &domain.SellQuote{MarketID: marketID, TokenID: tokenID, Shares: shares}, f.readErr
}

func TestService_Resolution(t *testing.T) {
	t.Run("empty_registry", func(t *testing.T) {
		svc := NewService(testLogger(), testConfig())
		_, err := svc.GetMarket(context.Background(), "0xabc", "")
		if !apperror.HasCode(err, apperror.CodeNoProtocolsConfigured) {
			t.Errorf("error = %v, want NO_PROTOCOLS_CONFIGURED", err)
		}
	})

	t.Run("unknown_name", func(t *testing.T) {
		svc := NewService(testLogger(), testConfig(), &fakeStrategy{name: "polymarket"})
		_, err := svc.GetMarket(context.Background(), "0xabc", "augur")
		if !apperror.HasCode(err, apperror.CodeUnsupportedProtocol) {
			t.Errorf("error = %v, want UNSUPPORTED_PROTOCOL", err)
		}
	})

	t.Run("empty_name_uses_first_registered", func(t *testing.T) {
		first := &fakeStrategy{name: "polymarket", market: &domain.BettingMarket{ID: "1", Protocol: "polymarket"}}
		second := &fakeStrategy{name: "other", market: &domain.BettingMarket{ID: "1", Protocol: "other"}}
		svc := NewService(testLogger(), testConfig(), first, second)

		got, err := svc.GetMarket(context.Background(), "1", "")
		if err != nil {
			t.Fatalf("GetMarket() error = %v", err)
		}
		if got.Protocol != "polymarket" {
			t.Errorf("resolved protocol = %s, want polymarket", got.Protocol)
		}
	})
}

func TestService_BuySlippageDefault(t *testing.T) {
	user := common.BytesToAddress([]byte{0xAA})
	tx := blockchainDomain.NewUnsignedTransaction("polymarket", "buy", common.Address{}, nil, nil)
	strategy := &fakeStrategy{
		name:  "polymarket",
		price: decimal.RequireFromString("0.60"),
		tx:    tx,
	}
	svc := NewService(testLogger(), testConfig(), strategy)

	if _, err := svc.BuyOutcomeTokens(context.Background(), "0xabc", "tok", decimal.NewFromInt(100), nil, user, ""); err != nil {
		t.Fatalf("BuyOutcomeTokens() error = %v", err)
	}
	if want := decimal.RequireFromString("0.606"); !strategy.lastMaxPrice.Equal(want) {
		t.Errorf("defaulted maxPrice = %s, want %s", strategy.lastMaxPrice, want)
	}
	if strategy.priceCalls != 1 {
		t.Errorf("price lookups = %d, want 1", strategy.priceCalls)
	}

	// An explicit bound bypasses the price lookup.
	explicit := decimal.RequireFromString("0.65")
	if _, err := svc.BuyOutcomeTokens(context.Background(), "0xabc", "tok", decimal.NewFromInt(100), &explicit, user, ""); err != nil {
		t.Fatalf("BuyOutcomeTokens() error = %v", err)
	}
	if !strategy.lastMaxPrice.Equal(explicit) {
		t.Errorf("explicit maxPrice = %s, want %s", strategy.lastMaxPrice, explicit)
	}
	if strategy.priceCalls != 1 {
		t.Errorf("price lookups = %d after explicit bound, want still 1", strategy.priceCalls)
	}
}

func TestService_SellSlippageDefault(t *testing.T) {
	user := common.BytesToAddress([]byte{0xAA})
	tx := blockchainDomain.NewUnsignedTransaction("polymarket", "sell", common.Address{}, nil, nil)
	strategy := &fakeStrategy{
		name:  "polymarket",
		price: decimal.RequireFromString("0.60"),
		tx:    tx,
	}
	svc := NewService(testLogger(), testConfig(), strategy)

	if _, err := svc.SellOutcomeTokens(context.Background(), "0xabc", "tok", decimal.NewFromInt(50), nil, user, ""); err != nil {
		t.Fatalf("SellOutcomeTokens() error = %v", err)
	}
	if want := decimal.RequireFromString("0.594"); !strategy.lastMinPrice.Equal(want) {
		t.Errorf("defaulted minPrice = %s, want %s", strategy.lastMinPrice, want)
	}
}

func TestService_BuyDefault_PriceLookupFailure(t *testing.T) {
	user := common.BytesToAddress([]byte{0xAA})
	readErr := errors.New("clob down")
	strategy := &fakeStrategy{name: "polymarket", readErr: readErr}
	svc := NewService(testLogger(), testConfig(), strategy)

	_, err := svc.BuyOutcomeTokens(context.Background(), "0xabc", "tok", decimal.NewFromInt(100), nil, user, "")
	if !errors.Is(err, readErr) {
		t.Errorf("error = %v, want the price lookup failure", err)
	}
}

func TestService_MarketUnion_SkipsFailingStrategy(t *testing.T) {
	broken := &fakeStrategy{name: "polymarket", readErr: errors.New("clob down")}
	healthy := &fakeStrategy{
		name:    "other",
		markets: []domain.BettingMarket{{ID: "1", Protocol: "other"}},
	}
	svc := NewService(testLogger(), testConfig(), broken, healthy)

	got, err := svc.GetMarkets(context.Background(), domain.MarketFilter{}, "")
	if err != nil {
		t.Fatalf("GetMarkets() error = %v", err)
	}
	if len(got) != 1 || got[0].Protocol != "other" {
		t.Errorf("union = %v, want the single healthy listing", got)
	}
}

func TestService_PositionUnion(t *testing.T) {
	user := common.BytesToAddress([]byte{0xAA})
	a := &fakeStrategy{name: "polymarket", positions: []domain.BettingPosition{{MarketID: "1", Protocol: "polymarket"}}}
	b := &fakeStrategy{name: "other", positions: []domain.BettingPosition{{MarketID: "2", Protocol: "other"}}}
	svc := NewService(testLogger(), testConfig(), a, b)

	got, err := svc.GetUserPositions(context.Background(), user, "", "")
	if err != nil {
		t.Fatalf("GetUserPositions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("union returned %d positions, want 2", len(got))
	}
}

// fakeStream satisfies PriceStream with a pre-filled channel.
type fakeStream struct {
	ch     chan domain.PriceUpdate
	closed bool
}

func (f *fakeStream) Updates() <-chan domain.PriceUpdate { return f.ch }
func (f *fakeStream) Close() error                       { f.closed = true; return nil }

// streamingStrategy is a fakeStrategy that also streams prices.
type streamingStrategy struct {
	fakeStrategy
	stream       *fakeStream
	lastTokenIDs []string
}

func (s *streamingStrategy) StreamPrices(ctx context.Context, tokenIDs []string) (PriceStream, error) {
	s.lastTokenIDs = tokenIDs
	return s.stream, nil
}

func TestService_WatchMarketPrices(t *testing.T) {
	market := &domain.BettingMarket{
		ID: "0xcond",
		Outcomes: []domain.MarketOutcome{
			{OutcomeID: "0", Tokens: []domain.OutcomeToken{{TokenID: "111"}}},
			{OutcomeID: "1", Tokens: []domain.OutcomeToken{{TokenID: "222"}}},
		},
	}
	strategy := &streamingStrategy{
		fakeStrategy: fakeStrategy{name: "polymarket", market: market},
		stream:       &fakeStream{ch: make(chan domain.PriceUpdate, 1)},
	}
	svc := NewService(testLogger(), testConfig(), strategy)

	stream, err := svc.WatchMarketPrices(context.Background(), "0xcond", "")
	if err != nil {
		t.Fatalf("WatchMarketPrices() error = %v", err)
	}
	if stream != strategy.stream {
		t.Error("expected the strategy's stream to be returned")
	}
	if len(strategy.lastTokenIDs) != 2 || strategy.lastTokenIDs[0] != "111" || strategy.lastTokenIDs[1] != "222" {
		t.Errorf("token ids = %v, want [111 222]", strategy.lastTokenIDs)
	}
}

func TestService_WatchMarketPrices_NoStream(t *testing.T) {
	strategy := &fakeStrategy{name: "static"}
	svc := NewService(testLogger(), testConfig(), strategy)

	_, err := svc.WatchMarketPrices(context.Background(), "0xcond", "")
	if !apperror.HasCode(err, apperror.CodeUnsupportedProtocol) {
		t.Errorf("expected UNSUPPORTED_PROTOCOL, got %v", err)
	}
}
