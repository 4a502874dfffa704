package polymarket

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/business/betting/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

const testTokenID = "71321045679252212594626385532706912750332728089075836535207790049585902619068"

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testConfig(apiURL string) config.BettingConfig {
	return config.BettingConfig{
		SlippageTolerance: 0.01,
		FeeRate:           0.02,
		Polymarket: config.PolymarketConfig{
			Enabled:                  true,
			APIURL:                   apiURL,
			ExchangeAddress:          "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
			ConditionalTokensAddress: "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045",
			CollateralAddress:        "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		},
	}
}

func testProvider(t *testing.T, apiURL string) *Provider {
	t.Helper()
	cfg := testConfig(apiURL)
	p, err := NewProvider(NewClient(cfg.Polymarket.APIURL, testLogger()), cfg, asset.NewRegistry(), testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestParseMarket(t *testing.T) {
	p := testProvider(t, "http://127.0.0.1:0")
	conditionID := "0x26d06d9c6303c11bf7388cff707e4dac836e03628630720bca3d8cbf4234713d"

	t.Run("active_binary_market", func(t *testing.T) {
		market, err := p.parseMarket(&marketResponse{
			ConditionID: conditionID,
			Question:    "Will it rain tomorrow?",
			Category:    "weather",
			Tokens: []tokenResponse{
				{TokenID: testTokenID, Outcome: "Yes", Price: "0.65"},
				{TokenID: "123456789", Outcome: "No", Price: "0.35"},
			},
			Volume:    "150000.5",
			Liquidity: "42000",
			CreatedAt: "2026-01-10T12:00:00Z",
			EndDate:   "2026-12-31T00:00:00Z",
			Active:    true,
		})
		if err != nil {
			t.Fatalf("parseMarket() error = %v", err)
		}
		if market.ID != conditionID {
			t.Errorf("ID = %s, want %s", market.ID, conditionID)
		}
		if market.Status != domain.MarketStatusActive {
			t.Errorf("Status = %s, want active", market.Status)
		}
		if len(market.Outcomes) != 2 {
			t.Fatalf("expected 2 outcomes, got %d", len(market.Outcomes))
		}
		yes := market.Outcomes[0].Tokens[0]
		if !yes.Probability.Equal(decimal.RequireFromString("0.65")) {
			t.Errorf("yes probability = %s, want 0.65", yes.Probability)
		}
		if yes.TokenID != testTokenID {
			t.Errorf("yes token id = %s, want %s", yes.TokenID, testTokenID)
		}
		if !market.TotalVolume.Equal(decimal.RequireFromString("150000.5")) {
			t.Errorf("TotalVolume = %s, want 150000.5", market.TotalVolume)
		}
		if market.EndDate == nil {
			t.Error("expected an end date")
		}
	})

	t.Run("resolved_market_names_winner", func(t *testing.T) {
		market, err := p.parseMarket(&marketResponse{
			ConditionID: conditionID,
			Question:    "Did the upgrade ship in Q1?",
			Tokens: []tokenResponse{
				{TokenID: "111", Outcome: "Yes", Price: "0"},
				{TokenID: "222", Outcome: "No", Price: "1", Winner: true},
			},
			Closed:   true,
			Resolved: true,
		})
		if err != nil {
			t.Fatalf("parseMarket() error = %v", err)
		}
		if market.Status != domain.MarketStatusResolved {
			t.Errorf("Status = %s, want resolved", market.Status)
		}
		if market.ResolvedOutcomeID != "1" {
			t.Errorf("ResolvedOutcomeID = %s, want 1", market.ResolvedOutcomeID)
		}
		winner := market.WinningOutcome()
		if winner == nil || winner.Text != "No" {
			t.Errorf("WinningOutcome() = %+v, want No", winner)
		}
	})

	t.Run("closed_but_unresolved", func(t *testing.T) {
		market, err := p.parseMarket(&marketResponse{
			ConditionID: conditionID,
			Question:    "Closed market",
			Tokens: []tokenResponse{
				{TokenID: "111", Outcome: "Yes", Price: "0.5"},
			},
			Closed: true,
		})
		if err != nil {
			t.Fatalf("parseMarket() error = %v", err)
		}
		if market.Status != domain.MarketStatusClosed {
			t.Errorf("Status = %s, want closed", market.Status)
		}
	})

	t.Run("legacy_outcomes_get_synthetic_token_ids", func(t *testing.T) {
		market, err := p.parseMarket(&marketResponse{
			ID:       "legacy-1",
			Question: "Legacy market",
			Outcomes: []string{"Yes", "No"},
			Prices:   []json.Number{"0.7"},
		})
		if err != nil {
			t.Fatalf("parseMarket() error = %v", err)
		}
		if got, want := market.Outcomes[0].Tokens[0].TokenID, "legacy-1_0"; got != want {
			t.Errorf("token id = %s, want %s", got, want)
		}
		// Missing price defaults to an even split.
		if !market.Outcomes[1].Tokens[0].Probability.Equal(decimal.RequireFromString("0.5")) {
			t.Errorf("fallback probability = %s, want 0.5", market.Outcomes[1].Tokens[0].Probability)
		}
	})

	t.Run("no_outcomes_rejected", func(t *testing.T) {
		_, err := p.parseMarket(&marketResponse{ConditionID: conditionID, Question: "Empty"})
		if !apperror.HasCode(err, apperror.CodeValidationError) {
			t.Errorf("expected VALIDATION_ERROR, got %v", err)
		}
	})
}

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition(positionResponse{
		MarketID:     "0xabc",
		TokenID:      testTokenID,
		OutcomeName:  "Yes",
		Shares:       "100",
		AvgPrice:     "0.40",
		CurrentPrice: "0.55",
	})
	if err != nil {
		t.Fatalf("parsePosition() error = %v", err)
	}

	if !pos.TotalInvested.Equal(decimal.RequireFromString("40")) {
		t.Errorf("TotalInvested = %s, want 40", pos.TotalInvested)
	}
	if !pos.CurrentValue.Equal(decimal.RequireFromString("55")) {
		t.Errorf("CurrentValue = %s, want 55", pos.CurrentValue)
	}
	if !pos.UnrealizedPnL.Equal(decimal.RequireFromString("15")) {
		t.Errorf("UnrealizedPnL = %s, want 15", pos.UnrealizedPnL)
	}
	if !pos.ROIPercentage().Equal(decimal.RequireFromString("37.5")) {
		t.Errorf("ROIPercentage() = %s, want 37.5", pos.ROIPercentage())
	}
}

func TestQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(priceResponse{Price: "0.40"})
	}))
	defer server.Close()

	p := testProvider(t, server.URL)
	ctx := context.Background()

	buy, err := p.CalculateBuyQuote(ctx, "0xabc", testTokenID, decimal.RequireFromString("100"))
	if err != nil {
		t.Fatalf("CalculateBuyQuote() error = %v", err)
	}
	if !buy.ExpectedShares.Equal(decimal.RequireFromString("250")) {
		t.Errorf("ExpectedShares = %s, want 250", buy.ExpectedShares)
	}
	if !buy.Fee.Equal(decimal.RequireFromString("2")) {
		t.Errorf("Fee = %s, want 2", buy.Fee)
	}
	if !buy.TotalCost.Equal(decimal.RequireFromString("102")) {
		t.Errorf("TotalCost = %s, want 102", buy.TotalCost)
	}

	sell, err := p.CalculateSellQuote(ctx, "0xabc", testTokenID, decimal.RequireFromString("50"))
	if err != nil {
		t.Fatalf("CalculateSellQuote() error = %v", err)
	}
	if !sell.GrossPayout.Equal(decimal.RequireFromString("20")) {
		t.Errorf("GrossPayout = %s, want 20", sell.GrossPayout)
	}
	if !sell.NetPayout.Equal(decimal.RequireFromString("19.6")) {
		t.Errorf("NetPayout = %s, want 19.6", sell.NetPayout)
	}

	if _, err := p.CalculateBuyQuote(ctx, "0xabc", testTokenID, decimal.Zero); !apperror.HasCode(err, apperror.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for zero amount, got %v", err)
	}
}

func TestGetMarket_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := testProvider(t, server.URL)

	_, err := p.GetMarket(context.Background(), "0xdeadbeef")
	if !apperror.HasCode(err, apperror.CodeMarketNotFound) {
		t.Errorf("expected MARKET_NOT_FOUND, got %v", err)
	}
}

func decodeFillOrder(t *testing.T, p *Provider, data []byte) (*exchangeOrder, *big.Int) {
	t.Helper()
	method := p.exchangeABI.Methods["fillOrder"]
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("failed to decode calldata: %v", err)
	}
	order := abi.ConvertType(values[0], new(exchangeOrder)).(*exchangeOrder)
	return order, values[1].(*big.Int)
}

func TestBuildBuyTransaction(t *testing.T) {
	p := testProvider(t, "http://127.0.0.1:0")
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")

	tx, err := p.BuildBuyTransaction(context.Background(), "0xabc", testTokenID,
		decimal.RequireFromString("100"), decimal.RequireFromString("0.50"), user)
	if err != nil {
		t.Fatalf("BuildBuyTransaction() error = %v", err)
	}

	if tx.To != p.exchange {
		t.Errorf("To = %s, want exchange %s", tx.To.Hex(), p.exchange.Hex())
	}

	order, fillAmount := decodeFillOrder(t, p, tx.Data)
	if order.Maker != user {
		t.Errorf("maker = %s, want %s", order.Maker.Hex(), user.Hex())
	}
	if order.TokenId.String() != testTokenID {
		t.Errorf("tokenId = %s, want %s", order.TokenId, testTokenID)
	}
	// 100 USDC in and 200 shares out, both in 6-decimal raw units.
	if order.MakerAmount.Cmp(big.NewInt(100_000_000)) != 0 {
		t.Errorf("makerAmount = %s, want 100000000", order.MakerAmount)
	}
	if order.TakerAmount.Cmp(big.NewInt(200_000_000)) != 0 {
		t.Errorf("takerAmount = %s, want 200000000", order.TakerAmount)
	}
	if order.Side != orderSideBuy {
		t.Errorf("side = %d, want buy", order.Side)
	}
	if len(order.Signature) != 0 {
		t.Errorf("expected empty signature, got %d bytes", len(order.Signature))
	}
	if fillAmount.Cmp(order.MakerAmount) != 0 {
		t.Errorf("fillAmount = %s, want makerAmount %s", fillAmount, order.MakerAmount)
	}
}

func TestBuildSellTransaction(t *testing.T) {
	p := testProvider(t, "http://127.0.0.1:0")
	user := common.HexToAddress("0x2222222222222222222222222222222222222222")

	tx, err := p.BuildSellTransaction(context.Background(), "0xabc", testTokenID,
		decimal.RequireFromString("200"), decimal.RequireFromString("0.55"), user)
	if err != nil {
		t.Fatalf("BuildSellTransaction() error = %v", err)
	}

	order, _ := decodeFillOrder(t, p, tx.Data)
	if order.MakerAmount.Cmp(big.NewInt(200_000_000)) != 0 {
		t.Errorf("makerAmount = %s, want 200000000", order.MakerAmount)
	}
	if order.TakerAmount.Cmp(big.NewInt(110_000_000)) != 0 {
		t.Errorf("takerAmount = %s, want 110000000", order.TakerAmount)
	}
	if order.Side != orderSideSell {
		t.Errorf("side = %d, want sell", order.Side)
	}
}

func TestBuildBuyTransaction_Rejects(t *testing.T) {
	p := testProvider(t, "http://127.0.0.1:0")
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")
	one := decimal.RequireFromString("1")

	tests := []struct {
		name     string
		tokenID  string
		amount   decimal.Decimal
		maxPrice decimal.Decimal
	}{
		{"synthetic_token_id", "legacy-1_0", one, decimal.RequireFromString("0.5")},
		{"zero_price", testTokenID, one, decimal.Zero},
		{"price_above_one", testTokenID, one, decimal.RequireFromString("1.5")},
		{"negative_amount", testTokenID, decimal.RequireFromString("-5"), decimal.RequireFromString("0.5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.BuildBuyTransaction(context.Background(), "0xabc", tt.tokenID, tt.amount, tt.maxPrice, user)
			if !apperror.HasCode(err, apperror.CodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestBuildRedeemTransaction(t *testing.T) {
	p := testProvider(t, "http://127.0.0.1:0")
	user := common.HexToAddress("0x3333333333333333333333333333333333333333")
	conditionID := "0x26d06d9c6303c11bf7388cff707e4dac836e03628630720bca3d8cbf4234713d"

	tx, err := p.BuildRedeemTransaction(context.Background(), conditionID, user)
	if err != nil {
		t.Fatalf("BuildRedeemTransaction() error = %v", err)
	}
	if tx.To != p.conditionalTokens {
		t.Errorf("To = %s, want conditional tokens %s", tx.To.Hex(), p.conditionalTokens.Hex())
	}

	method := p.ctfABI.Methods["redeemPositions"]
	values, err := method.Inputs.Unpack(tx.Data[4:])
	if err != nil {
		t.Fatalf("failed to decode calldata: %v", err)
	}
	if got := values[0].(common.Address); got != p.collateral.Address() {
		t.Errorf("collateral = %s, want %s", got.Hex(), p.collateral.Address().Hex())
	}
	if parent := values[1].([32]byte); parent != [32]byte{} {
		t.Errorf("parentCollectionId = %x, want zero", parent)
	}
	if got := common.Hash(values[2].([32]byte)); got != common.HexToHash(conditionID) {
		t.Errorf("conditionId = %s, want %s", got.Hex(), conditionID)
	}
	indexSets := values[3].([]*big.Int)
	if len(indexSets) != 2 || indexSets[0].Cmp(big.NewInt(1)) != 0 || indexSets[1].Cmp(big.NewInt(2)) != 0 {
		t.Errorf("indexSets = %v, want [1 2]", indexSets)
	}

	if _, err := p.BuildRedeemTransaction(context.Background(), "not-a-condition-id", user); !apperror.HasCode(err, apperror.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for malformed market id, got %v", err)
	}
}
