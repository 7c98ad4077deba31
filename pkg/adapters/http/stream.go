package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/store"
)

// streamBuffer is the number of diffs a slow client may lag behind before
// new ones are dropped for it.
const streamBuffer = 10

// StreamManager fans state diffs out to the open SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan *domain.StateDiff]struct{}
	last        domain.ActionState
	closed      bool

	sub    *store.Subscription
	logger *slog.Logger
}

// NewStreamManager subscribes to app and starts broadcasting.
func NewStreamManager(app App, logger *slog.Logger) *StreamManager {
	sm := &StreamManager{
		subscribers: make(map[chan *domain.StateDiff]struct{}),
		last:        app.State(),
		logger:      logger,
	}
	sm.sub = app.Subscribe(func(state domain.ActionState) {
		sm.broadcast(app.Seq(), state)
	})
	return sm
}

// Subscribe registers a connection. The returned function unregisters it.
func (sm *StreamManager) Subscribe() (<-chan *domain.StateDiff, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan *domain.StateDiff, streamBuffer)
	if sm.closed {
		close(ch)
		return ch, func() {}
	}
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Close stops listening to the store and closes every open stream.
func (sm *StreamManager) Close() {
	sm.sub.Unsubscribe()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.closed = true
	for ch := range sm.subscribers {
		delete(sm.subscribers, ch)
		close(ch)
	}
}

func (sm *StreamManager) broadcast(seq uint64, state domain.ActionState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	prev := sm.last
	sm.last = state
	diff := domain.Diff(&prev, state)
	if diff == nil {
		return
	}
	diff.Seq = seq

	for ch := range sm.subscribers {
		select {
		case ch <- diff:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping diff", "seq", seq)
		}
	}
}
