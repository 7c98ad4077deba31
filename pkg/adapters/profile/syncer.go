package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
	"github.com/aretw0/homeview/pkg/query"
)

// Dispatcher receives the UPDATE_NAME message produced by a successful fetch.
type Dispatcher interface {
	Dispatch(msg domain.Message)
}

// ErrorHandler is told about fetch failures.
type ErrorHandler func(error)

// Syncer fetches the profile once and copies its name into the store.
type Syncer struct {
	fetcher   ports.ProfileFetcher
	target    Dispatcher
	onError   ErrorHandler
	onProfile func(domain.Profile)
	scheduler query.Scheduler
	logger    *slog.Logger

	wg sync.WaitGroup
}

// SyncerOption configures the Syncer.
type SyncerOption func(*Syncer)

// WithScheduler delivers the dispatch (and the observer call) through s.
func WithScheduler(s query.Scheduler) SyncerOption {
	return func(sy *Syncer) {
		sy.scheduler = s
	}
}

// WithObserver is called with the whole profile after the name is dispatched.
// The photo only reaches the view this way.
func WithObserver(fn func(domain.Profile)) SyncerOption {
	return func(sy *Syncer) {
		sy.onProfile = fn
	}
}

// WithLogger sets a custom structured logger for the Syncer.
func WithLogger(logger *slog.Logger) SyncerOption {
	return func(sy *Syncer) {
		sy.logger = logger
	}
}

// NewSyncer creates a Syncer. onError is mandatory: a fetch failure must be
// observable by the caller.
func NewSyncer(fetcher ports.ProfileFetcher, target Dispatcher, onError ErrorHandler, opts ...SyncerOption) (*Syncer, error) {
	if onError == nil {
		return nil, domain.ErrNoErrorHandler
	}
	sy := &Syncer{
		fetcher:   fetcher,
		target:    target,
		onError:   onError,
		scheduler: query.Inline,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sy)
	}
	return sy, nil
}

// Run starts one fetch in the background and returns immediately.
func (sy *Syncer) Run(ctx context.Context) {
	sy.wg.Add(1)
	go func() {
		defer sy.wg.Done()
		sy.sync(ctx)
	}()
}

// Wait blocks until every fetch started by Run has finished.
func (sy *Syncer) Wait() {
	sy.wg.Wait()
}

func (sy *Syncer) sync(ctx context.Context) {
	p, err := sy.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			sy.logger.Debug("Profile: fetch abandoned", "err", err)
			return
		}
		sy.fail(err)
		return
	}

	posted := sy.scheduler.Post(func() {
		sy.target.Dispatch(domain.UpdateName(p.Name))
		if sy.onProfile != nil {
			sy.onProfile(p)
		}
	})
	if !posted {
		sy.logger.Debug("Profile: scheduler closed, name dropped", "name", p.Name)
	}
}

func (sy *Syncer) fail(err error) {
	sy.logger.Warn("Profile: fetch failed", "err", err)
	wrapped := fmt.Errorf("profile sync: %w", err)
	if !sy.scheduler.Post(func() { sy.onError(wrapped) }) {
		sy.onError(wrapped)
	}
}
