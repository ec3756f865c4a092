// Package cache stores raw fetch results on disk so repeated runs do not hit
// the remote sources. Entries live in a sqlite database, compressed with
// zstd, behind an in-process memo tier. A lock file keeps two processes from
// sharing one cache directory.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/utc"
	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
)

// Namespaces used by the sources.
const (
	NamespaceTasks = "tasks"
	NamespaceWiki  = "wiki"
)

// Entry is one cached payload.
type Entry struct {
	Namespace string
	Key       string
	Payload   []byte
	FetchedAt utc.Time
	// Fresh is true while the entry is younger than the store's TTL.
	Fresh bool
}

// Age returns how long ago the entry was fetched.
func (e Entry) Age(now utc.Time) time.Duration {
	return now.Time.Sub(e.FetchedAt.Time)
}

// NamespaceStats describes one namespace.
type NamespaceStats struct {
	Namespace string   `json:"namespace" yaml:"namespace"`
	Entries   int      `json:"entries" yaml:"entries"`
	Bytes     int64    `json:"bytes" yaml:"bytes"`
	Stale     int      `json:"stale" yaml:"stale"`
	Oldest    utc.Time `json:"oldest" yaml:"oldest"`
	Newest    utc.Time `json:"newest" yaml:"newest"`
}

// Stats describes the whole store.
type Stats struct {
	Path       string           `json:"path" yaml:"path"`
	TTL        time.Duration    `json:"ttl" yaml:"ttl"`
	Namespaces []NamespaceStats `json:"namespaces" yaml:"namespaces"`
	Memo       int              `json:"memo" yaml:"memo"`
}

// Store is a persistent fetch cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
	memo *memo
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	ttl  time.Duration
	now  func() utc.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long entries count as fresh.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() utc.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens or creates the cache in dir and takes its lock.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	lock := flock.New(filepath.Join(dir, constants.CacheLockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.WrapIO("lock", lock.Path(), err)
	}
	if !ok {
		return nil, &errors.ResourceError{
			Operation: "open",
			Resource:  "cache",
			ID:        dir,
			Err:       fmt.Errorf("cache directory is locked by another process"),
		}
	}

	s := &Store{
		path: filepath.Join(dir, constants.CacheFileName),
		lock: lock,
		memo: newMemo(constants.MemoTTL, constants.MemoCleanupInterval),
		ttl:  constants.CacheTTL,
		now:  utc.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.open(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.WrapIO("open", s.path, err)
	}
	// one writer keeps sqlite happy under concurrent fetches
	db.SetMaxOpenConns(1)
	s.db = db

	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		`CREATE TABLE IF NOT EXISTS entries (
            namespace  TEXT NOT NULL,
            key        TEXT NOT NULL,
            fetched_at TEXT NOT NULL,
            size       INTEGER NOT NULL,
            payload    BLOB NOT NULL,
            PRIMARY KEY (namespace, key)
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return errors.WrapResource("migrate", "cache", s.path, err)
		}
	}

	if s.enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); err != nil {
		return err
	}
	if s.dec, err = zstd.NewReader(nil); err != nil {
		return err
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TTL returns the freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the entry for (namespace, key). Stale entries are returned
// with Fresh unset; callers decide whether to refetch.
func (s *Store) Get(ctx context.Context, namespace, key string) (Entry, bool, error) {
	if e, ok := s.memo.get(namespace, key); ok {
		return s.stamp(e), true, nil
	}

	var (
		fetched string
		blob    []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM entries WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&fetched, &blob)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, errors.WrapResource("get", "cache", namespace+"/"+key, err)
	}

	payload, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return Entry{}, false, errors.WrapResource("decompress", "cache", namespace+"/"+key, err)
	}
	at, err := parseTime(fetched)
	if err != nil {
		return Entry{}, false, errors.WrapParse("time", namespace+"/"+key, err)
	}

	e := Entry{Namespace: namespace, Key: key, Payload: payload, FetchedAt: at}
	s.memo.set(e)
	return s.stamp(e), true, nil
}

// Put stores payload under (namespace, key), replacing any previous entry.
func (s *Store) Put(ctx context.Context, namespace, key string, payload []byte) error {
	at := s.now()
	blob := s.enc.EncodeAll(payload, nil)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (namespace, key, fetched_at, size, payload)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(namespace, key) DO UPDATE SET
            fetched_at = excluded.fetched_at,
            size       = excluded.size,
            payload    = excluded.payload`,
		namespace, key, formatTime(at), len(payload), blob,
	)
	if err != nil {
		return errors.WrapResource("put", "cache", namespace+"/"+key, err)
	}
	s.memo.set(Entry{Namespace: namespace, Key: key, Payload: payload, FetchedAt: at})
	return nil
}

// Stats summarizes the store per namespace.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, COUNT(*), COALESCE(SUM(size), 0), MIN(fetched_at), MAX(fetched_at),
                SUM(CASE WHEN fetched_at < ? THEN 1 ELSE 0 END)
         FROM entries GROUP BY namespace ORDER BY namespace`,
		formatTime(utc.New(s.now().Time.Add(-s.ttl))),
	)
	if err != nil {
		return nil, errors.WrapResource("stats", "cache", s.path, err)
	}
	defer rows.Close()

	stats := &Stats{Path: s.path, TTL: s.ttl, Memo: s.memo.len()}
	for rows.Next() {
		var (
			ns             NamespaceStats
			oldest, newest string
		)
		if err := rows.Scan(&ns.Namespace, &ns.Entries, &ns.Bytes, &oldest, &newest, &ns.Stale); err != nil {
			return nil, errors.WrapResource("stats", "cache", s.path, err)
		}
		ns.Oldest, _ = parseTime(oldest)
		ns.Newest, _ = parseTime(newest)
		stats.Namespaces = append(stats.Namespaces, ns)
	}
	return stats, rows.Err()
}

// Clear removes every entry of namespace, or all entries when namespace is
// empty. It returns the number of removed entries.
func (s *Store) Clear(ctx context.Context, namespace string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if namespace == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM entries`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM entries WHERE namespace = ?`, namespace)
	}
	if err != nil {
		return 0, errors.WrapResource("clear", "cache", namespace, err)
	}
	s.memo.clear(namespace)
	return res.RowsAffected()
}

// Close releases the database and the directory lock.
func (s *Store) Close() error {
	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
	}
	if s.enc != nil {
		if err := s.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.dec != nil {
		s.dec.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) stamp(e Entry) Entry {
	e.Fresh = e.Age(s.now()) < s.ttl
	return e
}

// timestamps are stored in a fixed-width layout so they sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t utc.Time) string {
	return t.Time.UTC().Format(timeLayout)
}

func parseTime(s string) (utc.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return utc.Time{}, err
	}
	return utc.New(t), nil
}
