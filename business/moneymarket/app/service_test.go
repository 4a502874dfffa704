package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/moneymarket/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testToken(symbol string, addrByte byte, decimals uint8) *asset.Asset {
	id := asset.NewTokenAssetID(asset.ChainIDEthereum, common.BytesToAddress([]byte{addrByte}))
	return asset.NewAsset(id, symbol, decimals)
}

func testConfig() config.MoneyMarketConfig {
	return config.MoneyMarketConfig{DefaultInterestRateMode: "variable"}
}

// fakeStrategy satisfies Strategy with canned responses and records the
// arguments of the last build call.
type fakeStrategy struct {
	name string

	marketData  *domain.MarketData
	accountData *domain.UserAccountData
	lending     []domain.LendingPosition
	borrowing   []domain.BorrowingPosition
	readErr     error

	tx       *blockchainDomain.UnsignedTransaction
	buildErr error

	lastRateMode domain.InterestRateMode
	lastRepayAll bool
	buildCalls   int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) GetMarketData(ctx context.Context, a *asset.Asset) (*domain.MarketData, error) {
	return f.marketData, f.readErr
}

func (f *fakeStrategy) GetUserAccountData(ctx context.Context, user common.Address) (*domain.UserAccountData, error) {
	return f.accountData, f.readErr
}

func (f *fakeStrategy) GetLendingPositions(ctx context.Context, user common.Address) ([]domain.LendingPosition, error) {
	return f.lending, f.readErr
}

func (f *fakeStrategy) GetBorrowingPositions(ctx context.Context, user common.Address) ([]domain.BorrowingPosition, error) {
	return f.borrowing, f.readErr
}

func (f *fakeStrategy) BuildSupplyTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, onBehalfOf common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	f.buildCalls++
	return f.tx, f.buildErr
}

func (f *fakeStrategy) BuildWithdrawTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, to common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	f.buildCalls++
	return f.tx, f.buildErr
}

func (f *fakeStrategy) BuildBorrowTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	f.buildCalls++
	f.lastRateMode = mode
	return f.tx, f.buildErr
}

func (f *fakeStrategy) BuildRepayTransaction(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address, repayAll bool) (*blockchainDomain.UnsignedTransaction, error) {
	f.buildCalls++
	f.lastRateMode = mode
	f.lastRepayAll = repayAll
	return f.tx, f.buildErr
}

func (f *fakeStrategy) BuildCollateralTransaction(ctx context.Context, a *asset.Asset, mode domain.CollateralMode) (*blockchainDomain.UnsignedTransaction, error) {
	f.buildCalls++
	return f.tx, f.buildErr
}

func (f *fakeStrategy) BuildLiquidationTransaction(ctx context.Context, collateral, debt *asset.Asset, user common.Address, debtToCover decimal.Decimal, receiveCollateral bool) (*blockchainDomain.UnsignedTransaction, error) {
	f.buildCalls++
	return f.tx, f.buildErr
}

func TestService_Resolution(t *testing.T) {
	usdc := testToken("USDC", 0x01, 6)
	user := common.BytesToAddress([]byte{0xAA})

	t.Run("empty_registry", func(t *testing.T) {
		svc := NewService(testLogger(), testConfig())
		_, err := svc.GetMarketData(context.Background(), usdc, "")
		if !apperror.HasCode(err, apperror.CodeNoProtocolsConfigured) {
			t.Errorf("error = %v, want NO_PROTOCOLS_CONFIGURED", err)
		}
	})

	t.Run("unknown_name", func(t *testing.T) {
		svc := NewService(testLogger(), testConfig(), &fakeStrategy{name: "aave_v3"})
		_, err := svc.GetUserAccountData(context.Background(), user, "compound")
		if !apperror.HasCode(err, apperror.CodeUnsupportedProtocol) {
			t.Errorf("error = %v, want UNSUPPORTED_PROTOCOL", err)
		}
	})

	t.Run("empty_name_uses_first_registered", func(t *testing.T) {
		first := &fakeStrategy{name: "aave_v3", accountData: &domain.UserAccountData{Protocol: "aave_v3"}}
		second := &fakeStrategy{name: "spark", accountData: &domain.UserAccountData{Protocol: "spark"}}
		svc := NewService(testLogger(), testConfig(), first, second)

		got, err := svc.GetUserAccountData(context.Background(), user, "")
		if err != nil {
			t.Fatalf("GetUserAccountData() error = %v", err)
		}
		if got.Protocol != "aave_v3" {
			t.Errorf("resolved protocol = %s, want aave_v3", got.Protocol)
		}
	})

	t.Run("named_read_propagates_error", func(t *testing.T) {
		readErr := errors.New("rpc down")
		svc := NewService(testLogger(), testConfig(), &fakeStrategy{name: "aave_v3", readErr: readErr})
		_, err := svc.GetMarketData(context.Background(), usdc, "aave_v3")
		if !errors.Is(err, readErr) {
			t.Errorf("error = %v, want wrapped %v", err, readErr)
		}
	})
}

func TestService_PositionUnion(t *testing.T) {
	usdc := testToken("USDC", 0x01, 6)
	weth := testToken("WETH", 0x02, 18)
	user := common.BytesToAddress([]byte{0xAA})

	aave := &fakeStrategy{
		name:    "aave_v3",
		lending: []domain.LendingPosition{{Asset: usdc, SuppliedAmount: decimal.NewFromInt(1000), Protocol: "aave_v3"}},
	}
	spark := &fakeStrategy{
		name:    "spark",
		lending: []domain.LendingPosition{{Asset: weth, SuppliedAmount: decimal.NewFromInt(2), Protocol: "spark"}},
	}
	svc := NewService(testLogger(), testConfig(), aave, spark)

	got, err := svc.GetLendingPositions(context.Background(), user, "")
	if err != nil {
		t.Fatalf("GetLendingPositions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("union returned %d positions, want 2", len(got))
	}
	if got[0].Protocol != "aave_v3" || got[1].Protocol != "spark" {
		t.Errorf("union order = [%s %s], want registration order [aave_v3 spark]", got[0].Protocol, got[1].Protocol)
	}
}

func TestService_PositionUnion_SkipsFailingStrategy(t *testing.T) {
	weth := testToken("WETH", 0x02, 18)
	user := common.BytesToAddress([]byte{0xAA})

	broken := &fakeStrategy{name: "aave_v3", readErr: errors.New("rpc down")}
	healthy := &fakeStrategy{
		name:      "spark",
		borrowing: []domain.BorrowingPosition{{Asset: weth, BorrowedAmount: decimal.NewFromInt(1), Protocol: "spark"}},
	}
	svc := NewService(testLogger(), testConfig(), broken, healthy)

	got, err := svc.GetBorrowingPositions(context.Background(), user, "")
	if err != nil {
		t.Fatalf("GetBorrowingPositions() error = %v", err)
	}
	if len(got) != 1 || got[0].Protocol != "spark" {
		t.Errorf("union = %v, want the single spark position", got)
	}
}

func TestService_Borrow_DefaultRateMode(t *testing.T) {
	usdc := testToken("USDC", 0x01, 6)
	user := common.BytesToAddress([]byte{0xAA})
	tx := blockchainDomain.NewUnsignedTransaction("aave_v3", "borrow", common.Address{}, nil, nil)

	strategy := &fakeStrategy{name: "aave_v3", tx: tx}
	svc := NewService(testLogger(), testConfig(), strategy)

	if _, err := svc.Borrow(context.Background(), usdc, decimal.NewFromInt(100), domain.InterestRateModeUndefined, user, ""); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	if strategy.lastRateMode != domain.InterestRateModeVariable {
		t.Errorf("rate mode = %v, want configured default variable", strategy.lastRateMode)
	}

	if _, err := svc.Borrow(context.Background(), usdc, decimal.NewFromInt(100), domain.InterestRateModeStable, user, ""); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	if strategy.lastRateMode != domain.InterestRateModeStable {
		t.Errorf("rate mode = %v, explicit choice must pass through", strategy.lastRateMode)
	}
}

func TestService_Repay_ForwardsRepayAll(t *testing.T) {
	usdc := testToken("USDC", 0x01, 6)
	user := common.BytesToAddress([]byte{0xAA})
	tx := blockchainDomain.NewUnsignedTransaction("aave_v3", "repay", common.Address{}, nil, nil)

	strategy := &fakeStrategy{name: "aave_v3", tx: tx}
	svc := NewService(testLogger(), testConfig(), strategy)

	if _, err := svc.Repay(context.Background(), usdc, decimal.Zero, domain.InterestRateModeUndefined, user, true, ""); err != nil {
		t.Fatalf("Repay() error = %v", err)
	}
	if !strategy.lastRepayAll {
		t.Error("repayAll flag was not forwarded to the strategy")
	}
	if strategy.lastRateMode != domain.InterestRateModeVariable {
		t.Errorf("rate mode = %v, want configured default variable", strategy.lastRateMode)
	}
}

func TestService_SupportedProtocols(t *testing.T) {
	svc := NewService(testLogger(), testConfig(),
		&fakeStrategy{name: "aave_v3"},
		nil,
		&fakeStrategy{name: "spark"},
		&fakeStrategy{name: "aave_v3"}, // duplicate, ignored
	)
	got := svc.SupportedProtocols()
	if len(got) != 2 || got[0] != "aave_v3" || got[1] != "spark" {
		t.Errorf("SupportedProtocols() = %v, want [aave_v3 spark]", got)
	}
}
