// Package appcontext provides the shared application context interface
// used by all commands. Commands accept Interface rather than the concrete
// App so they can be tested with Mock.
package appcontext

import (
	"context"
	"time"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/authority"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/reconcile"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/suppression"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// TaskSource returns the structured task list.
type TaskSource interface {
	FetchAll(ctx context.Context, modes []tasks.GameMode) ([]tasks.StructuredTask, error)
}

// CacheStore is the maintenance surface of the fetch cache.
type CacheStore interface {
	Stats(ctx context.Context) (*cache.Stats, error)
	Clear(ctx context.Context, namespace string) (int64, error)
}

// Settings are the reconciliation knobs resolved from configuration.
type Settings struct {
	GameModes          []tasks.GameMode
	Cutover            utc.Time
	SubstringMinTokens int
	TextCoverRatio     float64
	LargeItemPool      int
	Trust              []authority.Field
	OverlayPath        string
	WikiWrongPath      string
	CacheDir           string
	CacheTTL           time.Duration
}

// Interface defines what commands need from the application.
type Interface interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, ...).
	OutputFormat() string

	// NoColor reports whether colored output is disabled.
	NoColor() bool

	// Settings returns the reconciliation settings.
	Settings() Settings

	// Tasks returns the structured source. Offline serves only cached data.
	Tasks(offline bool) (TaskSource, error)

	// Pages returns the wiki page source. Offline serves only cached pages.
	Pages(offline bool) (reconcile.PageSource, error)

	// Cache returns the fetch cache, opening it on first use.
	Cache() (CacheStore, error)

	// Suppressions loads the correction overlay and the wiki-wrong list.
	Suppressions() (*suppression.Set, error)

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
