// Package app provides the application context and dependency management
// for the overlay CLI: configuration, logging, the fetch cache and the two
// data sources.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/appcontext"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/overlay"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/sources/tarkovdev"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/sources/wiki"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/transport"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/reconcile"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
)

// App represents the overlay application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Fetch cache (lazy-initialized, closed on shutdown)
	mu    sync.Mutex
	store *cache.Store
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// NoColor reports whether colored output is disabled.
func (a *App) NoColor() bool { return a.config.NoColor }

// Settings returns the reconciliation settings.
func (a *App) Settings() appcontext.Settings {
	cutover, _ := a.config.Cutover() // validated on load
	return appcontext.Settings{
		GameModes:          a.config.Modes(),
		Cutover:            cutover,
		SubstringMinTokens: a.config.SubstringMinTokens,
		TextCoverRatio:     a.config.TextCoverRatio,
		LargeItemPool:      a.config.LargeItemPool,
		Trust:              a.config.Trust,
		OverlayPath:        a.config.OverlayPath,
		WikiWrongPath:      a.config.WikiWrongPath,
		CacheDir:           a.config.CacheDir,
		CacheTTL:           a.config.CacheTTL,
	}
}

// Cache returns the fetch cache, opening it on first use.
func (a *App) Cache() (appcontext.CacheStore, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.NewConfigError("cache", "the cache is disabled", nil)
	}
	return store, nil
}

// openStore returns nil without error when the cache is disabled.
func (a *App) openStore() (*cache.Store, error) {
	if a.config.NoCache {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	store, err := cache.Open(a.config.CacheDir, cache.WithTTL(a.config.CacheTTL))
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// Tasks returns the tarkov.dev client.
func (a *App) Tasks(offline bool) (appcontext.TaskSource, error) {
	store, err := a.sourceCache(offline)
	if err != nil {
		return nil, err
	}
	opts := []tarkovdev.Option{
		tarkovdev.WithURL(a.config.APIURL),
		tarkovdev.WithOffline(offline),
		tarkovdev.WithTransport(transport.WithTimeout(a.config.HTTPTimeout)),
	}
	if store != nil {
		opts = append(opts, tarkovdev.WithCache(store))
	}
	return tarkovdev.New(opts...), nil
}

// Pages returns the wiki client.
func (a *App) Pages(offline bool) (reconcile.PageSource, error) {
	store, err := a.sourceCache(offline)
	if err != nil {
		return nil, err
	}
	opts := []wiki.Option{
		wiki.WithURL(a.config.WikiAPIURL),
		wiki.WithDelay(a.config.RequestDelay),
		wiki.WithOffline(offline),
		wiki.WithTransport(transport.WithTimeout(a.config.HTTPTimeout)),
	}
	if store != nil {
		opts = append(opts, wiki.WithCache(store))
	}
	return wiki.New(opts...), nil
}

func (a *App) sourceCache(offline bool) (*cache.Store, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if store == nil && offline {
		return nil, errors.NewConfigError("cache", "offline mode needs the cache", nil)
	}
	return store, nil
}

// Suppressions loads the correction overlay and the wiki-wrong list.
func (a *App) Suppressions() (*suppression.Set, error) {
	set, err := overlay.Load(a.config.OverlayPath, a.config.WikiWrongPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().
		Int("entries", set.Len()).
		Str("overlay", a.config.OverlayPath).
		Str("wiki_wrong", a.config.WikiWrongPath).
		Msg("Loaded suppressions")
	return set, nil
}

// Shutdown releases the fetch cache.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
