package homeview

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/internal/presentation/tui"
	"github.com/aretw0/homeview/pkg/adapters/memory"
	"github.com/aretw0/homeview/pkg/adapters/profile"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
	"github.com/aretw0/homeview/pkg/query"
	"github.com/aretw0/homeview/pkg/store"
	"github.com/muesli/termenv"
)

// App is the home screen: the action store, the cards binding and the static catalog.
type App struct {
	store    *store.Store
	cards    *query.Binding[domain.CardsPayload]
	executor ports.CardsExecutor

	catalogLoader ports.CatalogLoader
	fetcher       ports.ProfileFetcher
	snapshots     ports.SnapshotStore
	snapshotKey   string
	locker        ports.DistributedLocker
	lockTTL       time.Duration

	scheduler    query.Scheduler
	queryTimeout time.Duration
	cardsQuery   domain.QueryDescriptor
	storeHooks   domain.StoreHooks
	queryHooks   domain.QueryHooks
	onError      func(error)
	style        *tui.Style
	menu         []string
	logger       *slog.Logger

	mu       sync.Mutex
	catalog  domain.Catalog
	profile  domain.Profile
	handle   *query.Handle
	watchers map[int]func()
	nextID   int
	started  bool
	cancel   context.CancelFunc

	persister *store.Persister
	syncer    *profile.Syncer
	storeSub  *store.Subscription
}

// Option configures the App.
type Option func(*App)

// WithExecutor sets the collaborator that answers the cards query.
// Without one the cards resolve to an empty list.
func WithExecutor(exec ports.CardsExecutor) Option {
	return func(a *App) {
		a.executor = exec
	}
}

// WithCatalog sets where logos and popular courses come from.
func WithCatalog(loader ports.CatalogLoader) Option {
	return func(a *App) {
		a.catalogLoader = loader
	}
}

// WithProfileFetcher enables the profile lookup that fills in the user's name.
func WithProfileFetcher(f ports.ProfileFetcher) Option {
	return func(a *App) {
		a.fetcher = f
	}
}

// WithSnapshotStore restores the flags from snapshots[key] and saves every change back.
func WithSnapshotStore(snapshots ports.SnapshotStore, key string) Option {
	return func(a *App) {
		a.snapshots = snapshots
		a.snapshotKey = key
	}
}

// WithLocker serialises snapshot writes across processes sharing the same key.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(a *App) {
		a.locker = locker
		a.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the App and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithScheduler delivers query and profile settlements through s.
func WithScheduler(s query.Scheduler) Option {
	return func(a *App) {
		a.scheduler = s
	}
}

// WithQueryTimeout bounds each cards query. Zero means no bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(a *App) {
		a.queryTimeout = d
	}
}

// WithStoreHooks registers store observability hooks.
func WithStoreHooks(hooks domain.StoreHooks) Option {
	return func(a *App) {
		a.storeHooks = hooks
	}
}

// WithQueryHooks registers query observability hooks.
func WithQueryHooks(hooks domain.QueryHooks) Option {
	return func(a *App) {
		a.queryHooks = hooks
	}
}

// WithCardsQuery replaces the default cards query (e.g. a different collection name).
func WithCardsQuery(desc domain.QueryDescriptor) Option {
	return func(a *App) {
		a.cardsQuery = desc
	}
}

// WithErrorHandler receives failures of background work (profile lookup).
// The default logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(a *App) {
		a.onError = fn
	}
}

// WithStyle sets the terminal style used by Home and Section.
func WithStyle(s *tui.Style) Option {
	return func(a *App) {
		a.style = s
	}
}

// WithMenu sets the entries of the slide-in menu.
func WithMenu(items []string) Option {
	return func(a *App) {
		a.menu = items
	}
}

// New builds the App: it restores the last snapshot, loads the catalog and
// registers the cards renderer. Nothing runs in the background until Start.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &App{
		cardsQuery: domain.CardsQuery(),
		scheduler:  query.Inline,
		logger:     logging.NewNop(),
		lockTTL:    30 * time.Second,
		watchers:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.executor == nil {
		a.executor = memory.NewExecutor(domain.CardsPayload{})
	}
	if a.style == nil {
		a.style = tui.NewStyle(&bytes.Buffer{}, tui.WithProfile(termenv.Ascii), tui.WithMarkdownStyle("notty"))
	}
	if a.onError == nil {
		a.onError = func(err error) {
			a.logger.Warn("App: background operation failed", "err", err)
		}
	}

	initial := domain.NewActionState()
	if a.snapshots != nil {
		restored, err := store.Restore(ctx, a.snapshots, a.snapshotKey)
		if err != nil {
			return nil, err
		}
		initial = restored
	}

	if a.catalogLoader != nil {
		catalog, err := a.catalogLoader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		a.catalog = catalog
	}

	a.store = store.New(
		store.WithInitialState(initial),
		store.WithLogger(a.logger),
		store.WithHooks(a.storeHooks),
	)
	a.cards = query.New[domain.CardsPayload](a.executor,
		query.WithScheduler(a.scheduler),
		query.WithLogger(a.logger),
		query.WithHooks(a.queryHooks),
		query.WithTimeout(a.queryTimeout),
		query.WithViewSink(func(string) { a.changed() }),
	)
	a.cards.Render(tui.CardsSection(a.style))

	return a, nil
}

// Start activates the cards query, starts the profile lookup and, when a
// snapshot store is configured, persistence. Calling it twice is an error.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("app already started")
	}
	a.started = true
	ctx, a.cancel = context.WithCancel(ctx)
	a.mu.Unlock()

	a.storeSub = a.store.Subscribe(func(domain.ActionState) { a.changed() })

	if a.snapshots != nil {
		popts := []store.PersisterOption{store.WithPersisterLogger(a.logger)}
		if a.locker != nil {
			popts = append(popts, store.WithLocker(a.locker, a.lockTTL))
		}
		a.persister = store.NewPersister(a.snapshots, a.snapshotKey, popts...)
		a.persister.Attach(ctx, a.store)
	}

	if a.fetcher != nil {
		syncer, err := profile.NewSyncer(a.fetcher, a.store, a.onError,
			profile.WithScheduler(a.scheduler),
			profile.WithLogger(a.logger),
			profile.WithObserver(a.setProfile),
		)
		if err != nil {
			return err
		}
		a.syncer = syncer
		syncer.Run(ctx)
	}

	a.Refresh(ctx)
	a.logger.Info("App: started", "collection", a.cardsQuery.Collection)
	return nil
}

// Stop releases the cards activation, cancels background work and flushes
// the last snapshot. It is safe to call more than once.
func (a *App) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	h := a.handle
	a.handle = nil
	cancel := a.cancel
	a.mu.Unlock()

	if h != nil {
		h.Release()
	}
	if a.persister != nil {
		a.persister.Close()
	}
	cancel()
	if a.syncer != nil {
		a.syncer.Wait()
	}
	if a.storeSub != nil {
		a.storeSub.Unsubscribe()
	}
	a.logger.Info("App: stopped")
}

// Refresh re-issues the cards query. A still-running previous request is dropped.
// Call it from the scheduler's goroutine; other goroutines use RequestRefresh.
func (a *App) Refresh(ctx context.Context) *query.Handle {
	h := a.cards.Activate(ctx, a.cardsQuery)
	a.mu.Lock()
	a.handle = h
	a.mu.Unlock()
	return h
}

// RequestRefresh posts Refresh onto the App's scheduler, so surfaces serving
// requests on their own goroutines re-issue the query on the loop that owns
// the binding. It returns false when the scheduler no longer accepts work.
func (a *App) RequestRefresh(ctx context.Context) bool {
	return a.scheduler.Post(func() { a.Refresh(ctx) })
}

// Dispatch sends msg to the action store.
func (a *App) Dispatch(msg domain.Message) {
	a.store.Dispatch(msg)
}

// DispatchThen sends msg to the action store and calls then with the
// snapshot msg produced.
func (a *App) DispatchThen(msg domain.Message, then store.Listener) {
	a.store.DispatchThen(msg, then)
}

// State returns the current flags.
func (a *App) State() domain.ActionState {
	return a.store.State()
}

// Seq returns the number of dispatches reduced so far. Read from a
// subscriber, it is the position of the snapshot being delivered.
func (a *App) Seq() uint64 {
	return a.store.Seq()
}

// Subscribe registers fn for every dispatch. Release the subscription when done.
func (a *App) Subscribe(fn store.Listener) *store.Subscription {
	return a.store.Subscribe(fn)
}

// Cards returns the lifecycle of the cards query.
func (a *App) Cards() query.Lifecycle[domain.CardsPayload] {
	return a.cards.Lifecycle()
}

// Catalog returns the logos and popular courses.
func (a *App) Catalog() domain.Catalog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog
}

// Profile returns the last fetched profile.
func (a *App) Profile() domain.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

// Home renders the home screen.
func (a *App) Home() string {
	a.mu.Lock()
	model := tui.HomeModel{
		Profile: a.profile,
		Catalog: a.catalog,
		Menu:    a.menu,
	}
	a.mu.Unlock()

	model.State = a.store.State()
	model.Cards = a.cards.View()
	return tui.Home(a.style, model)
}

// Section renders the detail screen of the n-th card (1-based).
func (a *App) Section(n int) (string, error) {
	l := a.cards.Lifecycle()
	if l.Phase != query.Resolved || n < 1 || n > len(l.Data.Items) {
		return "", fmt.Errorf("%w: %d", domain.ErrCardNotFound, n)
	}
	return tui.Section(a.style, l.Data.Items[n-1])
}

// Watch registers fn to run after any visible change: a dispatch, a cards
// phase change or a new profile. It returns a function that removes fn.
func (a *App) Watch(fn func()) (unwatch func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.watchers[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.watchers, id)
		a.mu.Unlock()
	}
}

func (a *App) setProfile(p domain.Profile) {
	a.mu.Lock()
	a.profile = p
	a.mu.Unlock()
	a.changed()
}

func (a *App) changed() {
	a.mu.Lock()
	fns := make([]func(), 0, len(a.watchers))
	for _, fn := range a.watchers {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
