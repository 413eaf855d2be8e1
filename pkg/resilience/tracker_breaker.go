// Package resilience provides fault tolerance patterns for external service calls.
package resilience

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Errors returned when the breaker rejects a call.
var (
	ErrCircuitOpen     = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// BreakerConfig holds configuration for a circuit breaker.
type BreakerConfig struct {
	Name string

	// ConsecutiveFailures trips the breaker when exceeded.
	ConsecutiveFailures uint32

	// FailureRatio trips the breaker once MinRequests have been seen in an interval.
	FailureRatio float64
	MinRequests  uint32

	Interval         time.Duration // closed-state counter reset
	OpenTimeout      time.Duration // time in open state before half-open
	HalfOpenRequests uint32

	// IsSuccessful reports errors that should not count as failures.
	IsSuccessful func(err error) bool
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig(name string) *BreakerConfig {
	return &BreakerConfig{
		Name:                name,
		ConsecutiveFailures: 5,
		FailureRatio:        0.6,
		MinRequests:         10,
		Interval:            60 * time.Second,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    3,
	}
}

// NewBreaker creates a gobreaker circuit breaker that logs state transitions.
func NewBreaker(cfg *BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker {
	if cfg == nil {
		cfg = DefaultBreakerConfig("default")
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures > cfg.ConsecutiveFailures {
				return true
			}
			if counts.Requests < cfg.MinRequests || cfg.FailureRatio <= 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
		IsSuccessful: cfg.IsSuccessful,
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// IsRejected reports whether err came from the breaker rather than the call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}
