// Package app wires every component into one explicitly owned context object.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vmunix/moviedeck/internal/accounts"
	"github.com/vmunix/moviedeck/internal/cache"
	"github.com/vmunix/moviedeck/internal/config"
	"github.com/vmunix/moviedeck/internal/events"
	"github.com/vmunix/moviedeck/internal/identity"
	"github.com/vmunix/moviedeck/internal/kakao"
	"github.com/vmunix/moviedeck/internal/storage"
	"github.com/vmunix/moviedeck/internal/tmdb"
	"github.com/vmunix/moviedeck/internal/wishlist"
)

// App owns the process-wide state. Open restores it, Close tears it down.
type App struct {
	Config   *config.Config
	Storage  storage.Store
	Events   *events.Bus
	EventLog *events.EventLog // nil unless sqlite with events.persist
	Cache    *cache.Store
	Identity *identity.Store
	Kakao    *kakao.Client // nil unless kakao.enabled
	Catalog  *tmdb.Client
	Wishlist *wishlist.Store
	Accounts *accounts.Service

	logger *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	notifier   wishlist.Notifier
	httpClient *http.Client
}

// WithNotifier sets where wishlist notifications go.
func WithNotifier(n wishlist.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithHTTPClient overrides the HTTP client shared by the catalog and Kakao clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// Open builds storage, the event bus, cache, identity, catalog, wishlist and
// accounts in that order, then validates the restored session once.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{
		httpClient: &http.Client{Timeout: cfg.TMDB.Timeout},
	}
	for _, opt := range opts {
		opt(&o)
	}

	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &App{
		Config:  cfg,
		Storage: kv,
		logger:  logger,
	}

	if sq, ok := kv.(*storage.SQLite); ok && cfg.Events.Persist {
		a.EventLog = events.NewEventLog(sq.DB())
		if cfg.Events.Retention > 0 {
			n, err := a.EventLog.Prune(ctx, cfg.Events.Retention)
			if err != nil {
				logger.Warn("prune events failed", "error", err)
			} else if n > 0 {
				logger.Debug("pruned events", "removed", n, "retention", cfg.Events.Retention)
			}
		}
	}
	a.Events = events.NewBus(a.EventLog, logger.With("component", "events"))
	a.Cache = cache.New(kv, logger.With("component", "cache"))

	idOpts := []identity.Option{
		identity.WithAPIKey(cfg.TMDB.APIKey),
		identity.WithBus(a.Events),
		identity.WithLogger(logger.With("component", "identity")),
	}
	if cfg.Kakao.Enabled {
		a.Kakao = kakao.NewClient(
			kakao.WithBaseURL(cfg.Kakao.BaseURL),
			kakao.WithHTTPClient(o.httpClient),
		)
		idOpts = append(idOpts, identity.WithProvider(a.Kakao))
	}
	a.Identity = identity.New(ctx, kv, idOpts...)

	a.Catalog = tmdb.NewClient(a.Identity, a.Cache,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithHTTPClient(o.httpClient),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithRegion(cfg.TMDB.Region),
		tmdb.WithLogger(logger.With("component", "tmdb")),
	)

	wlOpts := []wishlist.Option{
		wishlist.WithBus(a.Events),
		wishlist.WithLogger(logger),
	}
	if o.notifier != nil {
		wlOpts = append(wlOpts, wishlist.WithNotifier(o.notifier))
	}
	a.Wishlist = wishlist.New(ctx, kv, a.Identity, wlOpts...)
	a.Accounts = accounts.New(kv, a.Identity, logger)

	authed := a.Identity.CheckAuth(ctx)
	logger.Debug("app opened",
		"storage", cfg.Storage.Driver,
		"authenticated", authed,
		"partition", a.Wishlist.Partition(),
	)
	return a, nil
}

// Close shuts down the bus, then storage.
func (a *App) Close() error {
	var errs []error
	if err := a.Wishlist.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close wishlist: %w", err))
	}
	if err := a.Events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close events: %w", err))
	}
	if err := a.Storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
