// Package circuitbreaker wraps sony/gobreaker with typed results and
// project defaults, so infra adapters share one trip policy.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/defi-router/internal/apperror"
)

// Config mirrors the gobreaker settings this project uses.
type Config struct {
	Name        string
	MaxRequests uint32        // allowed requests while half-open
	Interval    time.Duration // counters reset interval while closed
	Timeout     time.Duration // how long the breaker stays open
	// ReadyToTrip decides when to open; nil uses the default
	// (5 consecutive failures).
	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns the trip policy used across all adapters:
// open after 5 consecutive failures, retry one request after 30s.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

// CircuitBreaker is a typed circuit breaker around one upstream dependency.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a breaker from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		OnStateChange: cfg.OnStateChange,
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker. When the breaker rejects the call,
// the error carries the circuit-open code so callers can distinguish it
// from upstream failures.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := c.cb.Execute(fn)
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		return result, apperror.New(apperror.CodeCircuitOpen,
			apperror.WithCause(err),
			apperror.WithContext(c.cb.Name()))
	}
	return result, err
}

// State exposes the underlying breaker state, mainly for health checks.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}
