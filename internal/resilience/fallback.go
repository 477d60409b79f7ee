package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rbright/hark/internal/logging"
)

// ErrAllFailed is returned when every entry in a FallbackGroup failed or was skipped.
var ErrAllFailed = errors.New("all providers failed")

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup tries providers of one capability in registration order,
// each behind its own circuit breaker. It is safe for concurrent use once built.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     BreakerConfig
	logger  *slog.Logger
}

// NewFallbackGroup returns a group whose first entry is primary.
func NewFallbackGroup[T any](primaryName string, primary T, cfg BreakerConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg, logger: logging.Component(cfg.Logger, "resilience")}
	fg.Add(primaryName, primary)
	return fg
}

// Add appends a fallback entry.
func (fg *FallbackGroup[T]) Add(name string, value T) {
	bc := fg.cfg
	bc.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{name: name, value: value, breaker: NewCircuitBreaker(bc)})
}

// Len reports the number of entries.
func (fg *FallbackGroup[T]) Len() int {
	return len(fg.entries)
}

// Names lists entries in try order.
func (fg *FallbackGroup[T]) Names() []string {
	names := make([]string, len(fg.entries))
	for i, e := range fg.entries {
		names[i] = e.name
	}
	return names
}

// Breaker returns the breaker guarding the named entry, or nil.
func (fg *FallbackGroup[T]) Breaker(name string) *CircuitBreaker {
	for _, e := range fg.entries {
		if e.name == name {
			return e.breaker
		}
	}
	return nil
}

// Execute runs fn against entries until one succeeds.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(name string, value T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(name string, value T) (struct{}, error) {
		return struct{}{}, fn(name, value)
	})
	return err
}

// ExecuteWithResult runs fn against entries until one succeeds and returns its
// result. Open breakers are skipped. Context cancellation stops failover.
func ExecuteWithResult[T any, R any](ctx context.Context, fg *FallbackGroup[T], fn func(name string, value T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i := range fg.entries {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		entry := &fg.entries[i]

		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(entry.name, entry.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			fg.logger.Debug("skipping provider with open circuit", "provider", entry.name)
			continue
		}
		fg.logger.Warn("provider failed; trying next", "provider", entry.name, "error", err.Error())
	}
	if lastErr == nil {
		lastErr = errors.New("no providers registered")
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
