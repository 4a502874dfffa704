package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/defi-router/business/blockchain/domain"
	"github.com/fd1az/defi-router/business/dex/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/logger"
)

// Router aggregates DEX strategies behind one quoting surface. A named
// protocol delegates directly; an unnamed quote compares every registered
// strategy and keeps the strictly best route. The registry is populated at
// construction and read-only afterward.
type Router struct {
	strategies map[string]Strategy
	order      []string
	logger     logger.LoggerInterface
}

// NewRouter creates a Router over the given strategies. Registration order
// is selection order: the first strategy is the default for name-or-first
// resolution and wins quote ties. Nil strategies and duplicate names are
// skipped.
func NewRouter(log logger.LoggerInterface, strategies ...Strategy) *Router {
	r := &Router{
		strategies: make(map[string]Strategy, len(strategies)),
		logger:     log,
	}
	for _, s := range strategies {
		if s == nil {
			continue
		}
		name := s.Name()
		if _, exists := r.strategies[name]; exists {
			log.Warn(context.Background(), "duplicate dex strategy ignored", "protocol", name)
			continue
		}
		r.strategies[name] = s
		r.order = append(r.order, name)
	}
	return r
}

// SupportedProtocols returns the registered protocol names in order.
func (r *Router) SupportedProtocols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Quote prices a swap. With a protocol name it delegates to that strategy
// and propagates its error unchanged. Without one it asks every strategy,
// skipping failures, and keeps the best route: highest output for
// exact-input, lowest input for exact-output. Strict comparison means the
// first strategy to reach the best value wins ties.
func (r *Router) Quote(ctx context.Context, input, output *asset.Asset, amount decimal.Decimal, mode domain.SwapMode, protocol string) (*domain.SwapRoute, error) {
	if protocol != "" {
		strategy, err := r.lookup(protocol)
		if err != nil {
			return nil, err
		}
		return strategy.QuoteSwap(ctx, input, output, amount, mode)
	}

	if len(r.order) == 0 {
		return nil, apperror.New(apperror.CodeNoProtocolsConfigured)
	}

	var best *domain.SwapRoute
	for _, name := range r.order {
		route, err := r.strategies[name].QuoteSwap(ctx, input, output, amount, mode)
		if err != nil {
			r.logger.Warn(ctx, "dex quote failed, skipping strategy",
				"protocol", name,
				"pair", pairLabel(input, output),
				"amount", amount.String(),
				"error", err)
			continue
		}
		if beats(route, best, mode) {
			best = route
		}
	}

	if best == nil {
		return nil, apperror.New(apperror.CodeNoRouteFound,
			apperror.WithContext(fmt.Sprintf("pair %s amount %s", pairLabel(input, output), amount)))
	}
	return best, nil
}

// FindBestRoute selects the best single-hop route across strategies. There
// is no multi-hop path search; this is Quote under a search-shaped name.
func (r *Router) FindBestRoute(ctx context.Context, input, output *asset.Asset, amount decimal.Decimal, mode domain.SwapMode, protocol string) (*domain.SwapRoute, error) {
	return r.Quote(ctx, input, output, amount, mode, protocol)
}

// UpdateQuote re-prices an existing route with fresh market state, fixing
// the same amount the original caller fixed. The result is a new route;
// the old one is untouched.
func (r *Router) UpdateQuote(ctx context.Context, route *domain.SwapRoute) (*domain.SwapRoute, error) {
	if route == nil {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "route is nil")
	}
	return r.Quote(ctx, route.AssetIn, route.AssetOut, route.FixedAmount(), route.Mode, "")
}

// ExecuteSwap builds the unsigned transaction for a quoted route,
// dispatching to the strategy embedded in the route's protocol identifier.
// Fee-tier tagged identifiers ("uniswap_v3_3000") resolve to their base
// strategy.
func (r *Router) ExecuteSwap(ctx context.Context, route *domain.SwapRoute, recipient common.Address) (*blockchainDomain.UnsignedTransaction, error) {
	if route == nil {
		return nil, apperror.Validation(apperror.CodeInvalidRoute, "route is nil")
	}

	strategy, ok := r.strategies[route.Protocol]
	if !ok {
		if base, tagged := splitFeeTierTag(route.Protocol); tagged {
			strategy, ok = r.strategies[base]
		}
	}
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedProtocol,
			apperror.WithContext(fmt.Sprintf("unsupported protocol: %s", route.Protocol)))
	}

	return strategy.BuildSwapTransaction(ctx, route, recipient)
}

// GetReserves reads pool reserves for a pair. A named protocol delegates
// directly; otherwise the first strategy that answers wins, failures are
// skipped.
func (r *Router) GetReserves(ctx context.Context, a, b *asset.Asset, protocol string) (decimal.Decimal, decimal.Decimal, error) {
	if protocol != "" {
		strategy, err := r.lookup(protocol)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return strategy.GetReserves(ctx, a, b)
	}

	if len(r.order) == 0 {
		return decimal.Zero, decimal.Zero, apperror.New(apperror.CodeNoProtocolsConfigured)
	}

	for _, name := range r.order {
		reserveA, reserveB, err := r.strategies[name].GetReserves(ctx, a, b)
		if err != nil {
			r.logger.Debug(ctx, "reserve lookup failed, trying next strategy",
				"protocol", name,
				"pair", pairLabel(a, b),
				"error", err)
			continue
		}
		return reserveA, reserveB, nil
	}

	return decimal.Zero, decimal.Zero, apperror.NotFound(apperror.CodeNoReservesFound, pairLabel(a, b))
}

func (r *Router) lookup(name string) (Strategy, error) {
	strategy, ok := r.strategies[name]
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedProtocol,
			apperror.WithContext(fmt.Sprintf("unsupported protocol: %s", name)))
	}
	return strategy, nil
}

// beats reports whether candidate strictly improves on incumbent under the
// mode's objective.
func beats(candidate, incumbent *domain.SwapRoute, mode domain.SwapMode) bool {
	if incumbent == nil {
		return true
	}
	if mode == domain.SwapModeExactOutput {
		return candidate.AmountIn.LessThan(incumbent.AmountIn)
	}
	return candidate.AmountOut.GreaterThan(incumbent.AmountOut)
}

// splitFeeTierTag strips a trailing numeric fee-tier tag from a protocol
// identifier ("uniswap_v3_3000" -> "uniswap_v3").
func splitFeeTierTag(id string) (string, bool) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || i == len(id)-1 {
		return id, false
	}
	if _, err := strconv.Atoi(id[i+1:]); err != nil {
		return id, false
	}
	return id[:i], true
}

func pairLabel(a, b *asset.Asset) string {
	return a.Symbol() + "/" + b.Symbol()
}
