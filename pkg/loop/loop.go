// Package loop provides the single-goroutine event loop that owns the view.
//
// The store, the query bindings and the presentation layer are only touched
// from tasks posted to a Loop, so none of them needs to reason about the
// goroutine a network response arrived on.
package loop

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/homeview/internal/logging"
)

// Loop runs posted tasks one at a time, in posting order.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake   chan struct{}
	done   chan struct{}
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets a custom structured logger for the loop.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a Loop. Tasks posted before Run are kept until Run starts.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post enqueues fn. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes tasks until ctx is cancelled or Stop is called.
// Tasks still queued when the loop stops are discarded.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.Stop()

	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.run(fn)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			if l.isStopped() {
				return nil
			}
		}
	}
}

// Stop prevents further posts and makes Run return. It does not wait;
// use Done for that.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	dropped := len(l.queue)
	l.queue = nil
	l.mu.Unlock()

	if dropped > 0 {
		l.logger.Debug("Loop: stopped with pending tasks", "dropped", dropped)
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) isStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Loop: task panicked", "panic", r)
		}
	}()
	fn()
}
