package resilience

import (
	"errors"
	"fmt"
	"log"

	gobreaker "github.com/sony/gobreaker/v2"

	"pitch-pipeline/shared/config"
)

// State mirrors the circuit breaker state machine for callers that report
// health without importing gobreaker.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Breaker guards one category of flaky upstream calls. It opens after a run
// of consecutive failures, short-circuits to the caller-supplied fallback
// while open, and lets exactly one trial call through after the reset
// timeout. gobreaker owns the state transitions, so the half-open trial is
// admitted atomically before dispatch and no second trial can slip through.
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// StateChangeHook is invoked on every breaker transition, for metrics.
type StateChangeHook func(name string, from, to State)

func NewBreaker[T any](name string, cfg config.BreakerConfig, onChange StateChangeHook) *Breaker[T] {
	threshold := uint32(cfg.FailureThreshold)

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // Single trial call in half-open.
		Timeout:     cfg.ResetTimeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("breaker %s: %s -> %s", name, stateOf(from), stateOf(to))
			if onChange != nil {
				onChange(name, stateOf(from), stateOf(to))
			}
		},
	})

	return &Breaker[T]{name: name, cb: cb}
}

// Execute runs op through the breaker. Whenever op is rejected (open
// circuit, concurrent half-open trial) or fails, fallback runs
// synchronously; an error is returned only when the fallback fails too.
func (b *Breaker[T]) Execute(op func() (T, error), fallback func(cause error) (T, error)) (T, error) {
	result, err := b.cb.Execute(op)
	if err == nil {
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		log.Printf("breaker %s: open, routing to fallback", b.name)
	}

	fbResult, fbErr := fallback(err)
	if fbErr != nil {
		var zero T
		return zero, fmt.Errorf("breaker %s: operation failed (%w) and fallback failed (%v)", b.name, err, fbErr)
	}
	return fbResult, nil
}

// State reports the current circuit state.
func (b *Breaker[T]) State() State {
	return stateOf(b.cb.State())
}

// ConsecutiveFailures reports the current failure run length.
func (b *Breaker[T]) ConsecutiveFailures() uint32 {
	return b.cb.Counts().ConsecutiveFailures
}

func stateOf(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
