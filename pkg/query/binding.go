package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
	"github.com/google/uuid"
)

// RenderFunc turns the current lifecycle into a view.
// It must handle every phase; see Fold.
type RenderFunc[T any] func(Lifecycle[T]) string

// Scheduler delivers settlements onto the thread that owns the view.
// Post returns false when the scheduler no longer accepts work.
type Scheduler interface {
	Post(fn func()) bool
}

type inline struct{}

func (inline) Post(fn func()) bool {
	fn()
	return true
}

// Inline runs settlements on the goroutine that executed the query.
var Inline Scheduler = inline{}

// Handle identifies one activation. Release it when the view is torn down.
type Handle struct {
	id       string
	desc     domain.QueryDescriptor
	started  time.Time
	cancel   context.CancelFunc
	released atomic.Bool
	release  func(*Handle)
}

// ID returns the activation identifier.
func (h *Handle) ID() string {
	return h.id
}

// Released reports whether the activation was deactivated.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Release is shorthand for Deactivate on the owning binding.
func (h *Handle) Release() {
	h.release(h)
}

type options struct {
	scheduler Scheduler
	logger    *slog.Logger
	hooks     domain.QueryHooks
	timeout   time.Duration
	onView    func(string)
}

// Option configures a Binding.
type Option func(*options)

// WithScheduler routes settlements through s (e.g. the UI loop). Default: Inline.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithLogger sets a custom structured logger for the binding.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.QueryHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithTimeout bounds each activation. Zero (the default) means no timeout:
// a query that never settles stays Pending.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithViewSink receives every view the render callback produces after a phase change.
func WithViewSink(fn func(view string)) Option {
	return func(o *options) {
		o.onView = fn
	}
}

// Binding couples one remote query to a render callback.
//
// Activate moves the binding to Pending before it returns and runs the
// executor in the background; exactly one terminal phase follows unless the
// activation is deactivated first, in which case its settlement is dropped.
type Binding[T any] struct {
	exec ports.QueryExecutor[T]
	opts options

	mu      sync.Mutex
	current Lifecycle[T]
	active  *Handle
	render  RenderFunc[T]
	view    string

	// deliver serialises activation, deactivation and settlement, so a
	// callback never runs for a handle whose Deactivate has returned.
	// Render callbacks and hooks must not call back into Activate or Deactivate.
	deliver sync.Mutex
}

// New creates a Binding over exec.
func New[T any](exec ports.QueryExecutor[T], opts ...Option) *Binding[T] {
	o := options{
		scheduler: Inline,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Binding[T]{
		exec:    exec,
		opts:    o,
		current: PendingOf[T](),
	}
}

// Activate issues desc against the executor.
// A previous activation of the same binding is deactivated first.
func (b *Binding[T]) Activate(ctx context.Context, desc domain.QueryDescriptor) *Handle {
	var (
		qctx   context.Context
		cancel context.CancelFunc
	)
	if b.opts.timeout > 0 {
		qctx, cancel = context.WithTimeout(ctx, b.opts.timeout)
	} else {
		qctx, cancel = context.WithCancel(ctx)
	}

	h := &Handle{
		id:      uuid.NewString(),
		desc:    desc,
		started: time.Now(),
		cancel:  cancel,
		release: b.Deactivate,
	}

	b.deliver.Lock()
	b.mu.Lock()
	prev := b.active
	b.active = h
	b.current = PendingOf[T]()
	fn := b.render
	b.mu.Unlock()

	if prev != nil {
		b.release(prev)
	}

	b.opts.logger.Debug("Query: activated", "activation_id", h.id, "collection", desc.Collection)
	if b.opts.hooks.OnActivate != nil {
		b.opts.hooks.OnActivate(b.event(domain.EventQueryActivate, h, Pending, nil))
	}

	b.publish(fn, PendingOf[T]())
	b.deliver.Unlock()

	go b.execute(qctx, h)
	return h
}

// Deactivate releases h. Its callback is never invoked again and a late
// settlement is ignored. Calling it twice, or after settlement, is safe.
// A settlement being delivered when Deactivate is called finishes first.
func (b *Binding[T]) Deactivate(h *Handle) {
	if h == nil || h.Released() {
		return
	}
	b.deliver.Lock()
	defer b.deliver.Unlock()
	b.release(h)
}

// release requires b.deliver.
func (b *Binding[T]) release(h *Handle) {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	h.cancel()

	b.mu.Lock()
	if b.active == h {
		b.active = nil
	}
	b.mu.Unlock()

	b.opts.logger.Debug("Query: deactivated", "activation_id", h.id)
}

// Render registers fn as the render callback and returns its view of the
// current phase. fn is invoked again on every later phase change.
func (b *Binding[T]) Render(fn RenderFunc[T]) string {
	b.mu.Lock()
	b.render = fn
	current := b.current
	b.mu.Unlock()

	view := fn(current)

	b.mu.Lock()
	b.view = view
	b.mu.Unlock()
	return view
}

// Lifecycle returns the last phase observed by the binding.
func (b *Binding[T]) Lifecycle() Lifecycle[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// View returns the last view produced by the render callback.
func (b *Binding[T]) View() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Active returns the live activation, or nil.
func (b *Binding[T]) Active() *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *Binding[T]) execute(ctx context.Context, h *Handle) {
	data, err := b.call(ctx, h.desc)

	if !b.opts.scheduler.Post(func() { b.settle(h, data, err) }) {
		b.opts.logger.Debug("Query: scheduler closed, settlement dropped", "activation_id", h.id)
		b.dropped(h, err)
	}
}

// call runs the executor; a panic becomes an error like any other failure.
func (b *Binding[T]) call(ctx context.Context, desc domain.QueryDescriptor) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: executor panicked: %v", domain.ErrQueryFailed, r)
		}
	}()
	return b.exec.Execute(ctx, desc)
}

func (b *Binding[T]) settle(h *Handle, data T, err error) {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	if h.Released() {
		b.dropped(h, err)
		return
	}

	next := ResolvedWith(data)
	if err != nil {
		next = FailedWith[T](err)
	}

	b.mu.Lock()
	if b.active != h {
		b.mu.Unlock()
		b.dropped(h, err)
		return
	}
	b.current = next
	fn := b.render
	b.mu.Unlock()
	h.cancel()

	if err != nil {
		b.opts.logger.Warn("Query: failed", "activation_id", h.id, "collection", h.desc.Collection, "err", err)
	} else {
		b.opts.logger.Debug("Query: resolved", "activation_id", h.id, "collection", h.desc.Collection, "elapsed", time.Since(h.started))
	}
	if b.opts.hooks.OnTransition != nil {
		b.opts.hooks.OnTransition(b.event(domain.EventQueryTransition, h, next.Phase, err))
	}

	b.publish(fn, next)
}

func (b *Binding[T]) publish(fn RenderFunc[T], l Lifecycle[T]) {
	if fn == nil {
		return
	}
	view := fn(l)

	b.mu.Lock()
	b.view = view
	b.mu.Unlock()

	if b.opts.onView != nil {
		b.opts.onView(view)
	}
}

func (b *Binding[T]) dropped(h *Handle, err error) {
	if b.opts.hooks.OnDropped != nil {
		b.opts.hooks.OnDropped(b.event(domain.EventQueryDropped, h, Pending, err))
	}
}

func (b *Binding[T]) event(typ domain.EventType, h *Handle, phase Phase, err error) *domain.QueryEvent {
	return &domain.QueryEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
		},
		ActivationID: h.id,
		Collection:   h.desc.Collection,
		Phase:        phase.String(),
		Elapsed:      time.Since(h.started),
		Err:          err,
	}
}
