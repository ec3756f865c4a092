// Package tarkovdev fetches structured tasks from the tarkov.dev GraphQL API.
package tarkovdev

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/transport"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/logging"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// SourceName identifies this source in errors and logs.
const SourceName = "tarkov.dev"

// Cache is the part of the fetch cache the client uses.
type Cache interface {
	Get(ctx context.Context, namespace, key string) (cache.Entry, bool, error)
	Put(ctx context.Context, namespace, key string, payload []byte) error
}

// Client reads tasks for one or more game modes.
type Client struct {
	http    *transport.Client
	url     string
	cache   Cache
	offline bool
}

// Option configures a Client.
type Option func(*Client)

// WithURL sets the GraphQL endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithCache enables the fetch cache.
func WithCache(store Cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithOffline serves only cached responses, stale or not.
func WithOffline(offline bool) Option {
	return func(c *Client) {
		c.offline = offline
	}
}

// WithTransport passes options to the HTTP client.
func WithTransport(opts ...transport.Option) Option {
	return func(c *Client) {
		c.http = transport.New(SourceName, opts...)
	}
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		http: transport.New(SourceName),
		url:  constants.TarkovDevAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the tasks of one game mode.
func (c *Client) Fetch(ctx context.Context, mode tasks.GameMode) ([]tasks.StructuredTask, error) {
	ctx = logging.WithGameMode(logging.WithSource(ctx, SourceName), string(mode))
	logger := logging.FromContext(ctx)

	var resp response
	cached, err := c.load(ctx, mode, func(body []byte) error {
		resp = response{}
		return c.decode(body, &resp)
	})
	if err != nil {
		return nil, err
	}

	out := make([]tasks.StructuredTask, 0, len(resp.Data.Tasks))
	for _, w := range resp.Data.Tasks {
		if w.ID == "" {
			continue
		}
		out = append(out, convertTask(w, mode))
	}
	logger.Debug().Int("tasks", len(out)).Bool("cached", cached).Msg("Fetched tasks")
	return out, nil
}

// decode reads a GraphQL response. Errors without any tasks fail it.
func (c *Client) decode(body []byte, resp *response) error {
	if err := transport.Decode(body, resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 && len(resp.Data.Tasks) == 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		apiErr := errors.NewAPIError(SourceName, 0, strings.Join(msgs, "; "))
		apiErr.Endpoint = c.url
		return apiErr
	}
	return nil
}

// load hands the raw response to decode, from the cache when it is fresh.
// Only responses decode accepts are cached. A failed fetch falls back to a
// stale cached copy.
func (c *Client) load(ctx context.Context, mode tasks.GameMode, decode func([]byte) error) (bool, error) {
	logger := logging.FromContext(ctx)
	key := string(mode)

	var stale *cache.Entry
	if c.cache != nil {
		e, ok, err := c.cache.Get(ctx, cache.NamespaceTasks, key)
		if err != nil {
			logger.Warn().Err(err).Msg("Cache read failed")
		} else if ok {
			if e.Fresh || c.offline {
				return true, decode(e.Payload)
			}
			stale = &e
		}
	}
	if c.offline {
		return false, errors.NewFetchError(SourceName, key, &errors.NotFoundError{Resource: "cached tasks", ID: key})
	}

	body, err := c.http.PostJSON(ctx, c.url, request{
		Query:     tasksQuery,
		Variables: map[string]any{"gameMode": key},
	})
	if err == nil {
		err = decode(body)
	}
	if err != nil {
		if stale != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Time("fetched_at", stale.FetchedAt.Time).Msg("Using stale cached tasks")
			return true, decode(stale.Payload)
		}
		return false, errors.NewFetchError(SourceName, key, err)
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, cache.NamespaceTasks, key, body); err != nil {
			logger.Warn().Err(err).Msg("Cache write failed")
		}
	}
	return false, nil
}

type modeResult struct {
	mode  tasks.GameMode
	tasks []tasks.StructuredTask
}

// FetchAll fetches the modes concurrently and merges them by task ID. A task
// served in several modes keeps the first mode's record and lists every
// mode. Any failing mode fails the whole call with ErrSourceUnavailable.
func (c *Client) FetchAll(ctx context.Context, modes []tasks.GameMode) ([]tasks.StructuredTask, error) {
	if len(modes) == 0 {
		modes = []tasks.GameMode{tasks.GameModeRegular}
	}

	p := pool.NewWithResults[modeResult]().WithContext(ctx).WithCancelOnError()
	for _, mode := range modes {
		mode := mode
		p.Go(func(ctx context.Context) (modeResult, error) {
			list, err := c.Fetch(ctx, mode)
			if err != nil {
				return modeResult{}, fmt.Errorf("game mode %s: %w", mode, err)
			}
			return modeResult{mode: mode, tasks: list}, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrSourceUnavailable, err)
	}

	byMode := make(map[tasks.GameMode][]tasks.StructuredTask, len(results))
	for _, r := range results {
		byMode[r.mode] = r.tasks
	}
	ordered := make([][]tasks.StructuredTask, 0, len(modes))
	for _, mode := range modes {
		ordered = append(ordered, byMode[mode])
	}
	merged := Merge(ordered...)
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: no tasks returned", errors.ErrSourceUnavailable)
	}
	return merged, nil
}

// Merge unions task lists by ID in first-seen order.
func Merge(lists ...[]tasks.StructuredTask) []tasks.StructuredTask {
	index := make(map[string]int)
	var out []tasks.StructuredTask
	for _, list := range lists {
		for _, t := range list {
			if i, ok := index[t.ID]; ok {
				for _, m := range t.GameModes {
					if !out[i].HasMode(m) {
						out[i].GameModes = append(out[i].GameModes, m)
					}
				}
				continue
			}
			index[t.ID] = len(out)
			out = append(out, t)
		}
	}
	return out
}
