package infra

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds the tunables of an outbound-call circuit breaker.
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive failures to trip open
	HalfOpenRequests uint32        // probes allowed while half-open
	OpenTimeout      time.Duration // how long to stay open before probing
}

// DefaultBreakerConfig fits the SMTP relay: trip after 5 straight failures,
// probe again after a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		HalfOpenRequests: 2,
		OpenTimeout:      60 * time.Second,
	}
}

// NewBreaker builds a gobreaker circuit breaker that logs state transitions.
// Callers get gobreaker.ErrOpenState while it is open.
func NewBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	threshold := cfg.FailureThreshold
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
}
