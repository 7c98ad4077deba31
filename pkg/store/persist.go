package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
)

// DefaultSaveTimeout bounds a single snapshot write.
const DefaultSaveTimeout = 5 * time.Second

// Restore loads the snapshot stored under key.
// A missing snapshot is not an error: the default snapshot is returned.
func Restore(ctx context.Context, snapshots ports.SnapshotStore, key string) (domain.ActionState, error) {
	state, err := snapshots.Load(ctx, key)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return domain.NewActionState(), nil
	}
	if err != nil {
		return domain.NewActionState(), fmt.Errorf("failed to restore snapshot %q: %w", key, err)
	}
	return state, nil
}

// Persister writes every snapshot a Store produces to a SnapshotStore.
// Writes happen on a background worker; when writes fall behind, only the
// latest pending snapshot is kept.
type Persister struct {
	snapshots ports.SnapshotStore
	key       string
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	latest chan domain.ActionState
	stop   chan struct{}
	done   chan struct{}
	sub    *Subscription
	once   sync.Once
}

// PersisterOption configures the Persister.
type PersisterOption func(*Persister)

// WithPersisterLogger configures a logger for the Persister.
func WithPersisterLogger(logger *slog.Logger) PersisterOption {
	return func(p *Persister) {
		p.logger = logger
	}
}

// WithLocker serialises writes to key across replicas.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) PersisterOption {
	return func(p *Persister) {
		p.locker = locker
		p.lockTTL = ttl
	}
}

// WithSaveTimeout overrides DefaultSaveTimeout.
func WithSaveTimeout(d time.Duration) PersisterOption {
	return func(p *Persister) {
		p.timeout = d
	}
}

// NewPersister creates a Persister writing under key.
func NewPersister(snapshots ports.SnapshotStore, key string, opts ...PersisterOption) *Persister {
	p := &Persister{
		snapshots: snapshots,
		key:       key,
		lockTTL:   30 * time.Second,
		timeout:   DefaultSaveTimeout,
		logger:    logging.NewNop(),
		latest:    make(chan domain.ActionState, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach subscribes to s and starts the write worker.
// The worker stops when ctx is done or Close is called.
func (p *Persister) Attach(ctx context.Context, s *Store) {
	p.sub = s.Subscribe(p.enqueue)
	go p.work(ctx)
}

// Close unsubscribes, flushes the pending snapshot and waits for the worker.
func (p *Persister) Close() {
	p.once.Do(func() {
		if p.sub != nil {
			p.sub.Unsubscribe()
		}
		close(p.stop)
	})
	if p.sub != nil {
		<-p.done
	}
}

func (p *Persister) enqueue(state domain.ActionState) {
	select {
	case p.latest <- state:
		return
	default:
	}
	// Replace the stale pending snapshot.
	select {
	case <-p.latest:
	default:
	}
	select {
	case p.latest <- state:
	default:
	}
}

func (p *Persister) work(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case state := <-p.latest:
			p.save(ctx, state)
		case <-ctx.Done():
			return
		case <-p.stop:
			select {
			case state := <-p.latest:
				p.save(context.Background(), state)
			default:
			}
			return
		}
	}
}

func (p *Persister) save(ctx context.Context, state domain.ActionState) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.locker != nil {
		unlock, err := p.locker.Lock(ctx, p.key, p.lockTTL)
		if err != nil {
			p.logger.Warn("Persister: failed to acquire lock, snapshot skipped", "key", p.key, "err", err)
			return
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				p.logger.Warn("Persister: failed to release lock (will expire via TTL)", "key", p.key, "err", err)
			}
		}()
	}

	if err := p.snapshots.Save(ctx, p.key, state); err != nil {
		p.logger.Warn("Persister: failed to save snapshot", "key", p.key, "err", err)
		return
	}
	p.logger.Debug("Persister: snapshot saved", "key", p.key, "action", state.Action)
}
