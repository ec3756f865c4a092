// Package constants provides shared constants used throughout the overlay codebase.
// This includes timeouts, file permissions, source endpoints and reconciliation
// defaults that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the data sources
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 30 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Rate limiting constants
const (
	// DefaultRequestDelay is the pause between two uncached wiki requests
	DefaultRequestDelay = 1 * time.Second
)

// Cache constants
const (
	// CacheTTL is how long a cached fetch result is considered fresh
	CacheTTL = 24 * time.Hour

	// MemoTTL is the lifetime of the in-process memo tier
	MemoTTL = 15 * time.Minute

	// MemoCleanupInterval is how often to clean expired memo entries
	MemoCleanupInterval = 5 * time.Minute

	// CacheFileName is the sqlite database inside the cache directory
	CacheFileName = "fetch-cache.db"

	// CacheLockName is the lock file guarding the cache directory
	CacheLockName = ".lock"
)

// Path constants
const (
	// DefaultCachePath is the default directory for cached fetch results
	DefaultCachePath = ".cache/overlay"

	// DefaultOverlayPath is the default correction overlay file
	DefaultOverlayPath = "data/overlay.yaml"

	// DefaultWikiWrongPath is the default "wiki is wrong" suppression list
	DefaultWikiWrongPath = "data/wiki-wrong.yaml"
)

// Source endpoints
const (
	// TarkovDevAPIURL is the GraphQL endpoint of the structured feed
	TarkovDevAPIURL = "https://api.tarkov.dev/graphql"

	// WikiAPIURL is the MediaWiki API endpoint of the free-text source
	WikiAPIURL = "https://escapefromtarkov.fandom.com/api.php"

	// UserAgent identifies this tool to both sources
	UserAgent = "tarkov-data-overlay/wiki-check"
)

// Reconciliation defaults
const (
	// DefaultCutoverDate is the game release date; wiki edits after it are
	// considered current
	DefaultCutoverDate = "2025-11-15"

	// DateLayout is the layout used for configured dates
	DateLayout = "2006-01-02"

	// SubstringMinTokens is the minimum key length for substring matching
	SubstringMinTokens = 4

	// TextCoverRatio is the share of an item name's tokens that prose must
	// contain to count as mentioning the item
	TextCoverRatio = 0.5

	// LargeItemPool is the item count from which an objective is treated as
	// "any item from a large pool"
	LargeItemPool = 10

	// ReputationTolerance absorbs floating point rounding in standings
	ReputationTolerance = 0.001
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)
