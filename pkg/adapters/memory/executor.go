package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/aretw0/homeview/pkg/domain"
)

// Executor implements ports.QueryExecutor for the cards collection from a fixed payload.
// It is used for offline runs and tests.
type Executor struct {
	payload domain.CardsPayload
	err     error
	delay   time.Duration
	calls   atomic.Int64
}

// ExecutorOption configures the Executor.
type ExecutorOption func(*Executor)

// WithDelay makes every execution wait d (or until ctx is done) before settling.
func WithDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.delay = d
	}
}

// NewExecutor creates an executor resolving with payload.
func NewExecutor(payload domain.CardsPayload, opts ...ExecutorOption) *Executor {
	e := &Executor{payload: payload}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFailingExecutor creates an executor rejecting with err.
func NewFailingExecutor(err error, opts ...ExecutorOption) *Executor {
	e := &Executor{err: err}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute settles with the configured payload or error.
func (e *Executor) Execute(ctx context.Context, desc domain.QueryDescriptor) (domain.CardsPayload, error) {
	e.calls.Add(1)

	if desc.Collection != domain.CardsCollection {
		return domain.CardsPayload{}, fmt.Errorf("%w: unknown collection %q", domain.ErrQueryFailed, desc.Collection)
	}

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.CardsPayload{}, ctx.Err()
		case <-timer.C:
		}
	}

	if e.err != nil {
		return domain.CardsPayload{}, e.err
	}

	items := make([]domain.Card, len(e.payload.Items))
	copy(items, e.payload.Items)
	return domain.CardsPayload{Items: items}, nil
}

// Calls returns how many times Execute ran.
func (e *Executor) Calls() int {
	return int(e.calls.Load())
}

// LoadFixture reads a cards payload ({"items": [...]}) from a JSON file.
func LoadFixture(path string) (domain.CardsPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CardsPayload{}, fmt.Errorf("failed to read fixture: %w", err)
	}

	var payload domain.CardsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.CardsPayload{}, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return payload, nil
}
