package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	dexDomain "github.com/fd1az/defi-router/business/dex/domain"
	"github.com/fd1az/defi-router/business/monitor/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/asset"
	"github.com/fd1az/defi-router/internal/config"
	"github.com/fd1az/defi-router/internal/logger"
)

const defaultInterval = 10 * time.Second

// Watcher re-quotes one pair across every registered DEX protocol on a
// fixed interval and publishes each round to the reporter. One watcher
// runs one loop; Stop ends it.
type Watcher struct {
	quoter   Quoter
	reporter Reporter
	logger   logger.LoggerInterface

	pair     string
	input    *asset.Asset
	output   *asset.Asset
	amount   decimal.Decimal
	interval time.Duration

	cancel  context.CancelFunc
	stopped chan struct{}
	mu      sync.Mutex
}

// NewWatcher creates a watcher for the configured pair. The pair is
// "IN/OUT" in registry symbols, resolved against the given chain.
func NewWatcher(log logger.LoggerInterface, cfg config.MonitorConfig, chainID uint64, registry *asset.Registry, quoter Quoter, reporter Reporter) (*Watcher, error) {
	parts := strings.Split(cfg.Pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("monitor pair %q must be IN/OUT", cfg.Pair)))
	}

	input, ok := registry.GetBySymbolAndChain(parts[0], chainID)
	if !ok {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("unknown monitor input asset %q on chain %d", parts[0], chainID)))
	}
	output, ok := registry.GetBySymbolAndChain(parts[1], chainID)
	if !ok {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("unknown monitor output asset %q on chain %d", parts[1], chainID)))
	}

	amount := cfg.AmountDecimal()
	if !amount.IsPositive() {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("monitor amount must be positive, got %s", amount)))
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Watcher{
		quoter:   quoter,
		reporter: reporter,
		logger:   log,
		pair:     cfg.Pair,
		input:    input,
		output:   output,
		amount:   amount,
		interval: interval,
	}, nil
}

// Start begins the sampling loop. The first round fires immediately,
// then every interval until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.reporter.Start(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.cancel = cancel
	w.stopped = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info(ctx, "monitor started",
		"pair", w.pair,
		"amount", w.amount.String(),
		"interval", w.interval.String(),
		"protocols", strings.Join(w.quoter.SupportedProtocols(), ","))

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info(context.Background(), "monitor stopping", "reason", ctx.Err().Error())
			return
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

// sample runs one round: one quote per protocol, in registration order.
func (w *Watcher) sample(ctx context.Context) {
	start := time.Now()
	protocols := w.quoter.SupportedProtocols()
	quotes := make([]domain.ProtocolQuote, 0, len(protocols))

	for _, protocol := range protocols {
		route, err := w.quoter.Quote(ctx, w.input, w.output, w.amount, dexDomain.SwapModeExactInput, protocol)
		if err != nil {
			w.logger.Warn(ctx, "quote failed",
				"protocol", protocol,
				"pair", w.pair,
				"error", err.Error())
			quotes = append(quotes, domain.ProtocolQuote{Protocol: protocol, Err: err.Error()})
			continue
		}

		price, err := route.Price()
		if err != nil {
			quotes = append(quotes, domain.ProtocolQuote{Protocol: protocol, Err: err.Error()})
			continue
		}

		quotes = append(quotes, domain.ProtocolQuote{
			Protocol:  protocol,
			AmountOut: route.AmountOut,
			Price:     price,
		})
	}

	snapshot := domain.NewSnapshot(w.pair, w.amount, quotes, time.Now())
	w.reporter.UpdateConnectionStatus("ethereum", snapshot.HealthyQuotes() > 0, time.Since(start))
	if snapshot.Best != nil {
		w.logger.Debug(ctx, "monitor round",
			"pair", w.pair,
			"best", snapshot.Best.Protocol,
			"amount_out", snapshot.Best.AmountOut.String(),
			"spread_bps", snapshot.Spread.BasisPoints.StringFixed(2))
	}

	w.reporter.Report(snapshot)
}

// Stop ends the loop and shuts the reporter down.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	stopped := w.stopped
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
	return w.reporter.Stop()
}
