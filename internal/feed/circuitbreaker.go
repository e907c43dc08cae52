package feed

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig configures the breaker guarding a single remote
// provider instance's calls to its backing keyspace (SPEC_FULL §4.8).
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns conservative defaults: trip after 5
// consecutive failures, stay open 30s, allow 1 trial request half-open.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         0,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStateChangeFunc, when set, is invoked on every breaker state
// transition; the remote provider wires this to the logging/metrics
// packages rather than this package depending on them directly.
type BreakerStateChangeFunc func(name string, from, to string)

// newCircuitBreaker builds a gobreaker instance wired so that transitions
// are reported through onChange (logged and exported as a gauge by the
// caller) and trips after cfg.FailureThreshold consecutive failures.
func newCircuitBreaker(cfg CircuitBreakerConfig, onChange BreakerStateChangeFunc) *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if onChange != nil {
				onChange(name, from.String(), to.String())
			}
		},
	}
	return gobreaker.NewCircuitBreaker[any](settings)
}

// executeWithBreaker runs fn through cb, translating a tripped breaker into
// a TransportError so callers don't need to special-case gobreaker.ErrOpenState.
func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return zero, TransportError("circuit breaker open", err)
		}
		return zero, err
	}
	return result.(T), nil
}
