package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/moneymarket/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

// Service aggregates lending protocol strategies behind one surface.
// Single reads and mutations resolve name-or-first; position reads without
// a protocol name union results across every registered strategy. The
// registry is populated at construction and read-only afterward.
type Service struct {
	strategies      map[string]Strategy
	order           []string
	defaultRateMode domain.InterestRateMode
	logger          logger.LoggerInterface
}

// NewService creates a Service over the given strategies. Registration
// order fixes the default protocol for name-or-first resolution. Nil
// strategies and duplicate names are skipped.
func NewService(log logger.LoggerInterface, cfg config.MoneyMarketConfig, strategies ...Strategy) *Service {
	rateMode, err := domain.ParseInterestRateMode(cfg.DefaultInterestRateMode)
	if err != nil {
		log.Warn(context.Background(), "invalid default interest rate mode, falling back to variable",
			"configured", cfg.DefaultInterestRateMode)
		rateMode = domain.InterestRateModeVariable
	}

	s := &Service{
		strategies:      make(map[string]Strategy, len(strategies)),
		defaultRateMode: rateMode,
		logger:          log,
	}
	for _, st := range strategies {
		if st == nil {
			continue
		}
		name := st.Name()
		if _, exists := s.strategies[name]; exists {
			log.Warn(context.Background(), "duplicate money market strategy ignored", "protocol", name)
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

// GetMarketData returns one reserve's market snapshot from the named
// protocol, or the first registered one when the name is empty.
func (s *Service) GetMarketData(ctx context.Context, a *asset.Asset, protocol string) (*domain.MarketData, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.GetMarketData(ctx, a)
}

// GetUserAccountData returns the user's aggregate account state,
// name-or-first resolved.
func (s *Service) GetUserAccountData(ctx context.Context, user common.Address, protocol string) (*domain.UserAccountData, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.GetUserAccountData(ctx, user)
}

// GetLendingPositions returns supplied balances. A named protocol
// delegates directly and propagates its error; without one, results are
// unioned across every strategy in registration order and failing
// strategies are skipped with a warning.
func (s *Service) GetLendingPositions(ctx context.Context, user common.Address, protocol string) ([]domain.LendingPosition, error) {
	if protocol != "" {
		strategy, err := s.resolve(protocol)
		if err != nil {
			return nil, err
		}
		return strategy.GetLendingPositions(ctx, user)
	}

	if len(s.order) == 0 {
		return nil, apperror.New(apperror.CodeNoProtocolsConfigured)
	}

	var out []domain.LendingPosition
	for _, name := range s.order {
		positions, err := s.strategies[name].GetLendingPositions(ctx, user)
		if err != nil {
			s.logger.Warn(ctx, "lending position fetch failed, skipping strategy",
				"protocol", name,
				"user", user.Hex(),
				"error", err)
			continue
		}
		out = append(out, positions...)
	}
	return out, nil
}

// GetBorrowingPositions returns outstanding debts with the same
// resolution and union semantics as GetLendingPositions.
func (s *Service) GetBorrowingPositions(ctx context.Context, user common.Address, protocol string) ([]domain.BorrowingPosition, error) {
	if protocol != "" {
		strategy, err := s.resolve(protocol)
		if err != nil {
			return nil, err
		}
		return strategy.GetBorrowingPositions(ctx, user)
	}

	if len(s.order) == 0 {
		return nil, apperror.New(apperror.CodeNoProtocolsConfigured)
	}

	var out []domain.BorrowingPosition
	for _, name := range s.order {
		positions, err := s.strategies[name].GetBorrowingPositions(ctx, user)
		if err != nil {
			s.logger.Warn(ctx, "borrowing position fetch failed, skipping strategy",
				"protocol", name,
				"user", user.Hex(),
				"error", err)
			continue
		}
		out = append(out, positions...)
	}
	return out, nil
}

// Supply builds an unsigned deposit transaction crediting onBehalfOf.
func (s *Service) Supply(ctx context.Context, a *asset.Asset, amount decimal.Decimal, onBehalfOf common.Address, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.BuildSupplyTransaction(ctx, a, amount, onBehalfOf)
}

// Withdraw builds an unsigned withdrawal transaction paid out to the
// given address.
func (s *Service) Withdraw(ctx context.Context, a *asset.Asset, amount decimal.Decimal, to common.Address, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.BuildWithdrawTransaction(ctx, a, amount, to)
}

// Borrow builds an unsigned borrow transaction. An undefined rate mode
// resolves to the configured default.
func (s *Service) Borrow(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	if !mode.IsDefined() {
		mode = s.defaultRateMode
	}
	return strategy.BuildBorrowTransaction(ctx, a, amount, mode, onBehalfOf)
}

// Repay builds an unsigned repayment transaction. An undefined rate mode
// resolves to the configured default; repayAll substitutes the protocol's
// repay-everything sentinel for the amount.
func (s *Service) Repay(ctx context.Context, a *asset.Asset, amount decimal.Decimal, mode domain.InterestRateMode, onBehalfOf common.Address, repayAll bool, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	if !mode.IsDefined() {
		mode = s.defaultRateMode
	}
	return strategy.BuildRepayTransaction(ctx, a, amount, mode, onBehalfOf, repayAll)
}

// SetCollateralMode builds an unsigned transaction toggling a reserve's
// use as collateral.
func (s *Service) SetCollateralMode(ctx context.Context, a *asset.Asset, mode domain.CollateralMode, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.BuildCollateralTransaction(ctx, a, mode)
}

// Liquidate builds an unsigned liquidation transaction covering
// debtToCover of the user's debt.
func (s *Service) Liquidate(ctx context.Context, collateral, debt *asset.Asset, user common.Address, debtToCover decimal.Decimal, receiveCollateral bool, protocol string) (*blockchainDomain.UnsignedTransaction, error) {
	strategy, err := s.resolve(protocol)
	if err != nil {
		return nil, err
	}
	return strategy.BuildLiquidationTransaction(ctx, collateral, debt, user, debtToCover, receiveCollateral)
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
