package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry of a [FallbackGroup] fails or
// sits behind an open breaker.
var ErrAllFailed = errors.New("resilience: all providers failed")

// entry pairs a provider with its dedicated breaker.
type entry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup holds an ordered list of interchangeable providers, each
// behind its own circuit breaker built from one shared config. Providers
// register with [FallbackGroup.Add] in preference order.
type FallbackGroup[T any] struct {
	cfg     BreakerConfig
	logger  *slog.Logger
	entries []entry[T]
}

// NewFallbackGroup returns an empty group whose per-entry breakers derive
// from cfg. cfg.Name is overridden per entry.
func NewFallbackGroup[T any](cfg BreakerConfig) *FallbackGroup[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackGroup[T]{cfg: cfg, logger: logger}
}

// Add registers a provider after all previously added ones.
func (g *FallbackGroup[T]) Add(name string, value T) {
	cfg := g.cfg
	cfg.Name = name
	g.entries = append(g.entries, entry[T]{
		name:    name,
		value:   value,
		breaker: NewCircuitBreaker(cfg),
	})
}

// Len returns the number of registered providers.
func (g *FallbackGroup[T]) Len() int { return len(g.entries) }

// Pick probes providers in registration order and returns the first whose
// probe succeeds, with its registration name. Probing bypasses the
// breakers: Pick is an initialisation-time choice, not a guarded call.
func (g *FallbackGroup[T]) Pick(probe func(T) error) (T, string, error) {
	var (
		zero    T
		lastErr error
	)
	for _, e := range g.entries {
		err := probe(e.value)
		if err == nil {
			return e.value, e.name, nil
		}
		lastErr = err
		g.logger.Warn("provider probe failed, trying next",
			"provider", e.name, "error", err)
	}
	if lastErr == nil {
		return zero, "", ErrAllFailed
	}
	return zero, "", fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// Execute runs fn against each provider in order until one call succeeds.
// Entries with open breakers are skipped. When every entry fails the last
// error returns wrapped in [ErrAllFailed].
func (g *FallbackGroup[T]) Execute(fn func(T) error) error {
	var lastErr error
	for i := range g.entries {
		e := &g.entries[i]
		err := e.breaker.Execute(func() error { return fn(e.value) })
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			g.logger.Debug("skipping provider behind open circuit", "provider", e.name)
		} else {
			g.logger.Warn("provider call failed, trying next",
				"provider", e.name, "error", err)
		}
	}
	return fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// ExecuteWith runs fn against each provider of g until one succeeds,
// returning the produced value. Package-level because methods cannot add
// type parameters.
func ExecuteWith[T, R any](g *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i := range g.entries {
		e := &g.entries[i]
		var out R
		err := e.breaker.Execute(func() error {
			var callErr error
			out, callErr = fn(e.value)
			return callErr
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			g.logger.Debug("skipping provider behind open circuit", "provider", e.name)
		} else {
			g.logger.Warn("provider call failed, trying next",
				"provider", e.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
