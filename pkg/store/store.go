package store

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/google/uuid"
)

// Listener receives the snapshot produced by a dispatch.
type Listener func(state domain.ActionState)

// Subscription is the handle returned by Subscribe.
// It MUST be released with Unsubscribe when the subscribing view is torn down.
type Subscription struct {
	id     string
	store  *Store
	fn     Listener
	active atomic.Bool
}

// ID returns the subscription identifier (used in logs).
func (s *Subscription) ID() string {
	return s.id
}

// Unsubscribe stops notifications. Calling it more than once is safe.
func (s *Subscription) Unsubscribe() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}
	s.store.remove(s)
}

// Store is the single source of truth for cross-view UI flags.
//
// Dispatch reduces and notifies to completion before the next message is
// reduced. A dispatch issued by a listener is queued and handled once the
// current notification round ends, so listeners always observe snapshots in
// dispatch order. When several goroutines dispatch at once, the goroutine
// already draining the queue reduces the others' messages in arrival order.
type Store struct {
	mu       sync.Mutex
	state    domain.ActionState
	seq      uint64
	subs     []*Subscription
	queue    []queued
	draining bool

	logger *slog.Logger
	hooks  domain.StoreHooks
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.StoreHooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithInitialState starts the store from a restored snapshot instead of the default.
func WithInitialState(state domain.ActionState) Option {
	return func(s *Store) {
		s.state = state
	}
}

// New creates a Store holding the default snapshot.
func New(opts ...Option) *Store {
	s := &Store{
		state:  domain.NewActionState(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() domain.ActionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Seq returns the number of dispatches reduced so far.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Subscribe registers fn to be called after every dispatch.
func (s *Store) Subscribe(fn Listener) *Subscription {
	sub := &Subscription{
		id:    uuid.NewString(),
		store: s,
		fn:    fn,
	}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	count := len(s.subs)
	s.mu.Unlock()

	s.logger.Debug("Store: subscribed", "subscription_id", sub.id, "subscribers", count)
	return sub
}

func (s *Store) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, candidate := range s.subs {
		if candidate == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			break
		}
	}
	s.logger.Debug("Store: unsubscribed", "subscription_id", sub.id, "subscribers", len(s.subs))
}

type queued struct {
	msg  domain.Message
	then Listener
}

// Dispatch applies msg to the current snapshot and notifies every subscriber.
func (s *Store) Dispatch(msg domain.Message) {
	s.enqueue(queued{msg: msg})
}

// DispatchThen is Dispatch followed by a call to then with the snapshot msg
// produced, once every subscriber has seen it. When another goroutine is
// draining the queue, then runs on that goroutine after Dispatch returns.
func (s *Store) DispatchThen(msg domain.Message, then Listener) {
	s.enqueue(queued{msg: msg, then: then})
}

func (s *Store) enqueue(q queued) {
	s.mu.Lock()
	s.queue = append(s.queue, q)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = queued{}
		s.queue = s.queue[1:]

		prev := s.state
		state, handled := Reduce(prev, next.msg)
		s.state = state
		s.seq++
		seq := s.seq
		subs := make([]*Subscription, len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()

		s.notify(subs, state)
		s.report(seq, next.msg.Type, prev, state, handled)
		if next.then != nil {
			next.then(state)
		}

		s.mu.Lock()
	}

	s.queue = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) notify(subs []*Subscription, state domain.ActionState) {
	for _, sub := range subs {
		// A listener may have unsubscribed a later one during this round.
		if !sub.active.Load() {
			continue
		}
		s.deliver(sub, state)
	}
}

func (s *Store) deliver(sub *Subscription, state domain.ActionState) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Store: listener panicked",
				"subscription_id", sub.id,
				"err", fmt.Errorf("panic: %v", r),
			)
		}
	}()
	sub.fn(state)
}

func (s *Store) report(seq uint64, tag domain.ActionTag, prev, next domain.ActionState, handled bool) {
	if handled {
		s.logger.Debug("Store: dispatched", "seq", seq, "tag", tag, "action", next.Action, "name", next.Name)
	} else {
		s.logger.Debug("Store: unknown tag, state unchanged", "seq", seq, "tag", tag)
	}

	if s.hooks.OnDispatch != nil {
		s.hooks.OnDispatch(&domain.DispatchEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventDispatch,
			},
			Seq:      seq,
			Tag:      tag,
			Previous: prev,
			Current:  next,
			Handled:  handled,
		})
	}
}
