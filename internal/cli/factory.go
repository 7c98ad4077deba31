package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/homeview"
	"github.com/aretw0/homeview/internal/config"
	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/internal/metrics"
	"github.com/aretw0/homeview/internal/presentation/tui"
	"github.com/aretw0/homeview/pkg/adapters/graphql"
	loamAdapter "github.com/aretw0/homeview/pkg/adapters/loam"
	"github.com/aretw0/homeview/pkg/adapters/memory"
	"github.com/aretw0/homeview/pkg/adapters/profile"
	redisAdapter "github.com/aretw0/homeview/pkg/adapters/redis"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/loop"
	"github.com/aretw0/homeview/pkg/persistence/middleware"
	"github.com/aretw0/homeview/pkg/ports"
	"github.com/muesli/termenv"
)

const (
	lockPrefix = "homeview:"
	lockTTL    = 5 * time.Second
)

// Components is a fully wired App together with the resources it holds.
type Components struct {
	App     *homeview.App
	Loop    *loop.Loop
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	closers []func() error
}

// Close releases the resources opened by Build (redis connection).
// Stop the App first.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildOptions tune Build for the surface the App is served on.
type BuildOptions struct {
	// Output is where screens are drawn. Colour and width are detected from it.
	Output io.Writer
	// Plain disables colours and terminal styling (HTTP, MCP).
	Plain bool
	// Logger overrides the logger derived from the configuration.
	Logger *slog.Logger
	// Runtime adds the Go runtime collectors to the metrics registry.
	Runtime bool
}

// Build wires an App from cfg. Nothing runs until the App is started.
func Build(ctx context.Context, cfg config.Config, opts BuildOptions) (*Components, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = createLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
	}

	c := &Components{
		Loop:    loop.New(loop.WithLogger(logger)),
		Metrics: metrics.New(opts.Runtime),
		Logger:  logger,
	}

	appOpts := []homeview.Option{
		homeview.WithLogger(logger),
		homeview.WithScheduler(c.Loop),
		homeview.WithQueryTimeout(cfg.Content.Timeout),
		homeview.WithStoreHooks(c.Metrics.StoreHooks()),
		homeview.WithQueryHooks(metrics.ChainQuery(c.Metrics.QueryHooks(), debugQueryHooks(logger))),
		homeview.WithCardsQuery(domain.QueryDescriptor{
			Collection: cfg.Content.Collection,
			Fields:     domain.CardsQuery().Fields,
		}),
		homeview.WithMenu(cfg.Menu.Items),
		homeview.WithStyle(createStyle(opts)),
	}

	executor, err := createExecutor(cfg.Content, logger)
	if err != nil {
		return nil, err
	}
	appOpts = append(appOpts, homeview.WithExecutor(executor))

	catalog, err := createCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	appOpts = append(appOpts, homeview.WithCatalog(catalog))

	if cfg.Profile.Enabled && cfg.Profile.URL != "" {
		appOpts = append(appOpts, homeview.WithProfileFetcher(
			profile.NewFetcher(cfg.Profile.URL, profile.WithFetcherLogger(logger)),
		))
	}

	snapshots, locker, err := createPersistence(cfg.Persistence, logger)
	if err != nil {
		return nil, err
	}
	if closer, ok := snapshots.(io.Closer); ok {
		c.closers = append(c.closers, closer.Close)
	}
	mws, err := createMiddleware(cfg.Persistence)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	snapshots = middleware.Chain(snapshots, mws...)
	appOpts = append(appOpts, homeview.WithSnapshotStore(snapshots, cfg.Persistence.Key))
	if locker != nil {
		appOpts = append(appOpts, homeview.WithLocker(locker, lockTTL))
	}

	app, err := homeview.New(ctx, appOpts...)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.App = app
	return c, nil
}

func createLogger(cfg config.Log) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.Format), nil
}

func createStyle(opts BuildOptions) *tui.Style {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	if opts.Plain {
		return tui.NewStyle(out, tui.WithProfile(termenv.Ascii), tui.WithMarkdownStyle("notty"))
	}
	if !tui.IsTerminal(out) {
		return tui.NewStyle(out, tui.WithMarkdownStyle("notty"))
	}
	return tui.NewStyle(out)
}

// createExecutor picks the GraphQL client when an endpoint is configured,
// otherwise a fixture file, otherwise an empty list.
func createExecutor(cfg config.Content, logger *slog.Logger) (ports.CardsExecutor, error) {
	switch {
	case cfg.Endpoint != "":
		if err := graphql.ValidateCollection(cfg.Collection); err != nil {
			return nil, fmt.Errorf("content.collection: %w", err)
		}
		return graphql.New(cfg.Endpoint,
			graphql.WithToken(cfg.Token),
			graphql.WithLogger(logger),
		), nil
	case cfg.Fixture != "":
		payload, err := memory.LoadFixture(cfg.Fixture)
		if err != nil {
			return nil, err
		}
		return memory.NewExecutor(payload), nil
	default:
		logger.Warn("No content endpoint configured, cards will be empty")
		return memory.NewExecutor(domain.CardsPayload{}), nil
	}
}

func createCatalog(cfg config.Catalog) (ports.CatalogLoader, error) {
	if cfg.Dir != "" {
		return loamAdapter.Open(cfg.Dir)
	}
	catalog, err := config.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return memory.NewCatalog(catalog), nil
}

func createPersistence(cfg config.Persistence, logger *slog.Logger) (ports.SnapshotStore, ports.DistributedLocker, error) {
	if cfg.RedisURL == "" {
		return memory.NewStore(), nil, nil
	}

	var opts []redisAdapter.Option
	if cfg.TTL > 0 {
		opts = append(opts, redisAdapter.WithTTL(cfg.TTL))
	}
	store, err := redisAdapter.New(cfg.RedisURL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Debug("Snapshots stored in redis", "key", cfg.Key)
	return store, redisAdapter.NewLocker(store.Client(), lockPrefix), nil
}

// createMiddleware orders redaction before encryption so a sealed snapshot
// never carries the name.
func createMiddleware(cfg config.Persistence) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if cfg.RedactName {
		mws = append(mws, middleware.NewRedactMiddleware(""))
	}
	if cfg.EncryptionKey == "" {
		if len(cfg.FallbackKeys) > 0 {
			return nil, errors.New("fallback_keys set without encryption_key")
		}
		return mws, nil
	}

	active, err := decodeKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption_key: %w", err)
	}
	encCfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
	}

	enc, err := middleware.NewEncryptionMiddleware(encCfg)
	if err != nil {
		return nil, err
	}
	return append(mws, enc), nil
}

func decodeKey(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func debugQueryHooks(logger *slog.Logger) domain.QueryHooks {
	return domain.QueryHooks{
		OnActivate: func(e *domain.QueryEvent) {
			logger.Debug("Cards query activated", "activation_id", e.ActivationID, "collection", e.Collection)
		},
		OnTransition: func(e *domain.QueryEvent) {
			logger.Debug("Cards query settled", "activation_id", e.ActivationID, "phase", e.Phase, "elapsed", e.Elapsed)
		},
		OnDropped: func(e *domain.QueryEvent) {
			logger.Debug("Cards query result dropped", "activation_id", e.ActivationID)
		},
	}
}
