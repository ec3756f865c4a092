// Package wiki reads task pages from the MediaWiki API of the free-text source.
package wiki

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/internal/transport"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/constants"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/logging"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/reconcile"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

// SourceName identifies this source in errors and logs.
const SourceName = "wiki"

// Cache is the part of the fetch cache the client uses.
type Cache interface {
	Get(ctx context.Context, namespace, key string) (cache.Entry, bool, error)
	Put(ctx context.Context, namespace, key string, payload []byte) error
}

// Client fetches pages one at a time, pacing network requests. Cache hits
// are never delayed.
type Client struct {
	http    *transport.Client
	pacer   *transport.Pacer
	url     string
	cache   Cache
	offline bool
}

var _ reconcile.PageSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithURL sets the api.php endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithDelay sets the pause between network requests.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.pacer = transport.NewPacer(d)
	}
}

// WithCache enables the fetch cache.
func WithCache(store Cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithOffline serves only cached pages.
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
		http:  transport.New(SourceName),
		pacer: transport.NewPacer(constants.DefaultRequestDelay),
		url:   constants.WikiAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Page returns the latest revision of a page. A missing page is a
// NotFoundError wrapped in a FetchError.
func (c *Client) Page(ctx context.Context, title string) (reconcile.Page, error) {
	ctx = logging.WithSource(ctx, SourceName)
	logger := logging.FromContext(ctx)
	title = strings.TrimSpace(title)
	if title == "" {
		return reconcile.Page{}, errors.NewValidationError("title", title, "must not be empty")
	}

	page, cached, err := c.load(ctx, title)
	if err != nil {
		return reconcile.Page{}, errors.NewFetchError(SourceName, title, err)
	}
	page.Cached = cached
	logger.Debug().Str("title", page.Title).Bool("cached", cached).Msg("Fetched page")
	return page, nil
}

// load returns the decoded page, from the cache when it is fresh. Only
// pages and missing-page answers are cached; API errors such as maxlag are
// retried on the next run. A failed fetch falls back to a stale cached copy.
func (c *Client) load(ctx context.Context, title string) (reconcile.Page, bool, error) {
	logger := logging.FromContext(ctx)

	var stale *cache.Entry
	if c.cache != nil {
		e, ok, err := c.cache.Get(ctx, cache.NamespaceWiki, title)
		if err != nil {
			logger.Warn().Err(err).Msg("Cache read failed")
		} else if ok {
			if e.Fresh || c.offline {
				page, err := decodePage(e.Payload, title)
				return page, true, err
			}
			stale = &e
		}
	}
	if c.offline {
		return reconcile.Page{}, false, &errors.NotFoundError{Resource: "cached page", ID: title}
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return reconcile.Page{}, false, err
	}
	body, err := c.http.Get(ctx, c.url+"?"+query(title).Encode())
	var page reconcile.Page
	if err == nil {
		page, err = decodePage(body, title)
	}
	if body != nil && (err == nil || errors.IsNotFound(err)) {
		c.store(ctx, title, body)
		return page, false, err
	}

	if stale != nil && ctx.Err() == nil {
		logger.Warn().Err(err).Str("title", title).Msg("Using stale cached page")
		page, err := decodePage(stale.Payload, title)
		return page, true, err
	}
	return reconcile.Page{}, false, err
}

func (c *Client) store(ctx context.Context, title string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, cache.NamespaceWiki, title, body); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Cache write failed")
	}
}

func query(title string) url.Values {
	v := url.Values{}
	v.Set("action", "query")
	v.Set("prop", "revisions")
	v.Set("rvprop", "content|timestamp|user|comment")
	v.Set("rvslots", "main")
	v.Set("format", "json")
	v.Set("formatversion", "2")
	v.Set("titles", title)
	return v
}

type apiResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			Revisions []struct {
				User      string `json:"user"`
				Timestamp string `json:"timestamp"`
				Comment   string `json:"comment"`
				Content   string `json:"content"`
				Slots     struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func decodePage(body []byte, title string) (reconcile.Page, error) {
	var resp apiResponse
	if err := transport.Decode(body, &resp); err != nil {
		return reconcile.Page{}, err
	}
	if resp.Error != nil {
		return reconcile.Page{}, errors.NewAPIError(SourceName, 0, resp.Error.Code+": "+resp.Error.Info)
	}
	if len(resp.Query.Pages) == 0 {
		return reconcile.Page{}, &errors.NotFoundError{Resource: "page", ID: title}
	}

	p := resp.Query.Pages[0]
	if p.Missing || p.Invalid || len(p.Revisions) == 0 {
		return reconcile.Page{}, &errors.NotFoundError{Resource: "page", ID: title}
	}
	rev := p.Revisions[0]
	content := rev.Slots.Main.Content
	if content == "" {
		content = rev.Content
	}

	page := reconcile.Page{Title: p.Title, Markup: content}
	if page.Title == "" {
		page.Title = title
	}
	if ts, err := time.Parse(time.RFC3339, rev.Timestamp); err == nil {
		page.Revision = &tasks.Revision{Timestamp: utc.New(ts), Editor: rev.User, Comment: rev.Comment}
	}
	return page, nil
}
