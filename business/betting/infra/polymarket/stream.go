package polymarket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-router/business/betting/domain"
	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/wsconn"
)

const (
	// Updates buffered before the stream starts dropping.
	updateBufferSize = 256

	marketChannel = "market"
)

type streamMetrics struct {
	messagesReceived metric.Int64Counter
	priceUpdates     metric.Int64Counter
	parseErrors      metric.Int64Counter
	droppedUpdates   metric.Int64Counter
}

// MarketStream subscribes to the CLOB market channel and fans price
// changes out on a buffered channel. A slow consumer loses updates
// rather than stalling the read loop.
type MarketStream struct {
	wsURL    string
	tokenIDs []string
	logger   logger.LoggerInterface

	conn   *wsconn.Client
	connMu sync.RWMutex

	updates chan domain.PriceUpdate
	closeMu sync.RWMutex
	closed  bool

	tracer  trace.Tracer
	metrics *streamMetrics
}

// NewMarketStream creates a stream for the given CLOB token ids.
func NewMarketStream(wsURL string, tokenIDs []string, log logger.LoggerInterface) (*MarketStream, error) {
	if wsURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("polymarket websocket url is empty"))
	}

	s := &MarketStream{
		wsURL:    strings.TrimRight(wsURL, "/") + "/ws/" + marketChannel,
		tokenIDs: tokenIDs,
		logger:   log,
		updates:  make(chan domain.PriceUpdate, updateBufferSize),
		tracer:   otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *MarketStream) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &streamMetrics{}

	s.metrics.messagesReceived, err = meter.Int64Counter(
		"polymarket_stream_messages_total",
		metric.WithDescription("Total stream messages received"),
	)
	if err != nil {
		return err
	}

	s.metrics.priceUpdates, err = meter.Int64Counter(
		"polymarket_stream_price_updates_total",
		metric.WithDescription("Total price change events"),
	)
	if err != nil {
		return err
	}

	s.metrics.parseErrors, err = meter.Int64Counter(
		"polymarket_stream_parse_errors_total",
		metric.WithDescription("Stream message parse errors"),
	)
	if err != nil {
		return err
	}

	s.metrics.droppedUpdates, err = meter.Int64Counter(
		"polymarket_stream_dropped_updates_total",
		metric.WithDescription("Updates dropped on a full consumer channel"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Connect dials the market channel and subscribes to the configured
// token ids. The underlying connection reconnects on its own; the
// subscription frame is resent after each successful dial.
func (s *MarketStream) Connect(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "polymarket.stream_connect",
		trace.WithAttributes(attribute.Int("token_count", len(s.tokenIDs))),
	)
	defer span.End()

	wsCfg := wsconn.DefaultConfig(s.wsURL, "polymarket")

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("failed to create wsconn"))
	}

	conn.OnMessage(s.handleMessage)
	conn.OnStateChange(func(state wsconn.State, stateErr error) {
		if state == wsconn.StateConnected {
			if subErr := s.subscribe(context.Background(), conn); subErr != nil {
				s.logger.Warn(context.Background(), "resubscribe failed",
					"error", subErr.Error())
			}
		}
		if stateErr != nil {
			s.logger.Warn(context.Background(), "stream state change",
				"state", string(state),
				"error", stateErr.Error())
		}
	})

	if err := conn.ConnectWithRetry(ctx); err != nil {
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect to polymarket stream"))
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.logger.Info(ctx, "polymarket stream connected",
		"url", s.wsURL,
		"tokens", len(s.tokenIDs))
	return nil
}

func (s *MarketStream) subscribe(ctx context.Context, conn *wsconn.Client) error {
	if len(s.tokenIDs) == 0 {
		return nil
	}
	return conn.SendJSON(ctx, streamSubscription{
		AssetIDs: s.tokenIDs,
		Type:     marketChannel,
	})
}

// Updates returns the price update channel. It is closed by Close.
func (s *MarketStream) Updates() <-chan domain.PriceUpdate {
	return s.updates
}

// Close tears down the connection and closes the update channel. It is
// safe to call more than once.
func (s *MarketStream) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true

	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	close(s.updates)
	s.closeMu.Unlock()
	return err
}

func (s *MarketStream) handleMessage(ctx context.Context, msg []byte) {
	s.metrics.messagesReceived.Add(ctx, 1)

	var event streamEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.metrics.parseErrors.Add(ctx, 1)
		s.logger.Debug(ctx, "unparseable stream message", "error", err.Error())
		return
	}
	if event.EventType != "price_change" {
		return
	}

	price, err := decimal.NewFromString(event.Price.String())
	if err != nil {
		s.metrics.parseErrors.Add(ctx, 1)
		s.logger.Debug(ctx, "unparseable price in stream event",
			"token_id", event.AssetID,
			"price", event.Price.String())
		return
	}

	update := domain.PriceUpdate{
		TokenID:   event.AssetID,
		MarketID:  event.Market,
		Price:     price,
		Timestamp: time.Now(),
	}
	if ms, err := event.Timestamp.Int64(); err == nil && ms > 0 {
		update.Timestamp = time.UnixMilli(ms)
	}

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.updates <- update:
		s.metrics.priceUpdates.Add(ctx, 1)
	default:
		s.metrics.droppedUpdates.Add(ctx, 1)
	}
}
