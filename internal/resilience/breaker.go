// Package resilience guards the external converter boundary. A
// [CircuitBreaker] stops per-call conversions from hammering a wedged
// subprocess, and a [FallbackGroup] picks the first healthy provider out of
// an ordered candidate list at initialisation time.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [CircuitBreaker.Execute] while the breaker is open
// and the reset timeout has not yet elapsed.
var ErrOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// Closed forwards every call.
	Closed State = iota

	// Open rejects every call with [ErrOpen] until the reset timeout
	// elapses.
	Open

	// HalfOpen lets a bounded number of probe calls through; their outcome
	// decides between Closed and Open.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [CircuitBreaker]. Zero fields take the defaults
// noted per field.
type BreakerConfig struct {
	// Name labels the breaker in log lines.
	Name string

	// MaxFailures is the consecutive-failure count that trips the breaker
	// open. Default 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before probing.
	// Default 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the probe budget of the half-open state. Default 3.
	HalfOpenMax int

	// Logger receives state-transition logs. Nil means slog.Default.
	Logger *slog.Logger
}

// CircuitBreaker is a three-state breaker over an unreliable call. Failures
// accumulate while closed; MaxFailures consecutive ones open it; after
// ResetTimeout a bounded probe window decides whether it closes again.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int
	logger       *slog.Logger

	mu         sync.Mutex
	state      State
	failures   int
	openedAt   time.Time
	probes     int
	probeFails int
}

// NewCircuitBreaker returns a closed breaker over cfg.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CircuitBreaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
		logger:       cfg.Logger,
	}
}

// Execute runs fn unless the breaker rejects the call, and feeds the
// outcome back into the breaker's state.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probing, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure(probing)
	} else {
		cb.onSuccess(probing)
	}
	return err
}

// admit decides whether a call may proceed, moving an expired open breaker
// into half-open. The first return reports whether the call counts as a
// half-open probe.
func (cb *CircuitBreaker) admit() (probing bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Open:
		if time.Since(cb.openedAt) < cb.resetTimeout {
			return false, ErrOpen
		}
		cb.state = HalfOpen
		cb.probes = 0
		cb.probeFails = 0
		cb.logger.Info("circuit probing after reset timeout", "breaker", cb.name)

	case HalfOpen:
		if cb.probes >= cb.halfOpenMax {
			return false, ErrOpen
		}
	}

	if cb.state == HalfOpen {
		cb.probes++
		return true, nil
	}
	return false, nil
}

// onFailure must be called with cb.mu held.
func (cb *CircuitBreaker) onFailure(probing bool) {
	if probing {
		cb.probeFails++
		cb.state = Open
		cb.openedAt = time.Now()
		cb.failures = cb.maxFailures
		cb.logger.Warn("circuit re-opened by failed probe", "breaker", cb.name)
		return
	}
	cb.failures++
	if cb.failures >= cb.maxFailures {
		cb.state = Open
		cb.openedAt = time.Now()
		cb.logger.Warn("circuit opened",
			"breaker", cb.name,
			"consecutive_failures", cb.failures,
		)
	}
}

// onSuccess must be called with cb.mu held.
func (cb *CircuitBreaker) onSuccess(probing bool) {
	if probing {
		if cb.probes-cb.probeFails >= cb.halfOpenMax {
			cb.state = Closed
			cb.failures = 0
			cb.probes = 0
			cb.probeFails = 0
			cb.logger.Info("circuit closed after probes", "breaker", cb.name)
		}
		return
	}
	cb.failures = 0
}

// State returns the breaker's effective state: an open breaker whose reset
// timeout has elapsed reports HalfOpen even though the transition happens on
// the next Execute.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == Open && time.Since(cb.openedAt) >= cb.resetTimeout {
		return HalfOpen
	}
	return cb.state
}

// Reset forces the breaker closed and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = Closed
	cb.failures = 0
	cb.probes = 0
	cb.probeFails = 0
}
