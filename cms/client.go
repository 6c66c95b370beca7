// Package cms is a client for a Prismic-compatible headless CMS REST API.
//
// A Client is constructed once at startup and passed to everything that
// queries content. All calls go through a circuit breaker and carry a
// per-request timeout.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout = 10 * time.Second
	defaultRefTTL  = 30 * time.Second
	searchPath     = "/documents/search"
	// maxCursorPage bounds the page numbers a cursor may address.
	maxCursorPage = 1000
)

// cursorOwnParams are the search parameters a cursor may set on its own.
// Everything else must match the query the cursor was issued for.
var cursorOwnParams = []string{"page", "ref", "access_token"}

var (
	// ErrNotFound is returned when a lookup by uid or id matches nothing.
	ErrNotFound = errors.New("cms: document not found")
	// ErrInvalidCursor is returned for cursors that do not continue the
	// query they are followed for.
	ErrInvalidCursor = errors.New("cms: invalid cursor")
	// ErrNoMasterRef is returned when the API lists no master ref.
	ErrNoMasterRef = errors.New("cms: no master ref")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms: %s: HTTP %d", e.URL, e.Code)
}

// Config configures a Client.
type Config struct {
	// Endpoint is the API root, e.g. https://my-repo.cdn.prismic.io/api/v2.
	Endpoint    string
	AccessToken string
	Timeout     time.Duration
	// RefTTL bounds how long the master ref is reused before re-reading it.
	RefTTL     time.Duration
	HTTPClient *http.Client
}

// Client queries the CMS.
type Client struct {
	endpoint *url.URL
	token    string
	timeout  time.Duration
	refTTL   time.Duration
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker

	mu         sync.Mutex
	masterRef  string
	refFetched time.Time
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("cms: endpoint is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("cms: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("cms: endpoint %q must be http or https", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RefTTL <= 0 {
		cfg.RefTTL = defaultRefTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		endpoint: u,
		token:    cfg.AccessToken,
		timeout:  cfg.Timeout,
		refTTL:   cfg.RefTTL,
		http:     cfg.HTTPClient,
		breaker:  newBreaker(u.Host),
	}, nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cms:" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

// Endpoint returns the configured API root.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// MasterRef returns the current master ref, re-reading it at most once per RefTTL.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.masterRef != "" && time.Since(c.refFetched) < c.refTTL {
		ref := c.masterRef
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	u := *c.endpoint
	if c.token != "" {
		u.RawQuery = url.Values{"access_token": {c.token}}.Encode()
	}
	var info apiInfo
	if err := c.get(ctx, u.String(), &info); err != nil {
		return "", fmt.Errorf("cms: read refs: %w", err)
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.masterRef = r.Ref
			c.refFetched = time.Now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// Query runs a documents/search request.
func (c *Client) Query(ctx context.Context, q Query) (*Response, error) {
	ref := q.Ref
	if ref == "" {
		var err error
		if ref, err = c.MasterRef(ctx); err != nil {
			return nil, err
		}
	}
	v := q.values(ref)
	if c.token != "" {
		v.Set("access_token", c.token)
	}
	u := *c.endpoint
	u.Path += searchPath
	u.RawQuery = v.Encode()

	var resp Response
	if err := c.get(ctx, u.String(), &resp); err != nil {
		return nil, fmt.Errorf("cms: query: %w", err)
	}
	resp.NextPage = stripToken(resp.NextPage)
	resp.PrevPage = stripToken(resp.PrevPage)
	return &resp, nil
}

// FetchPage follows a NextPage cursor returned for q. Only the page number
// is taken from the cursor: its other parameters must match q, and the page
// is read at q.Ref (or the master ref), never at a ref named by the cursor.
func (c *Client) FetchPage(ctx context.Context, q Query, cursor string) (*Response, error) {
	page, err := c.cursorPage(q, cursor)
	if err != nil {
		return nil, err
	}
	q.Page = page
	return c.Query(ctx, q)
}

func (c *Client) cursorPage(q Query, cursor string) (int, error) {
	u, err := url.Parse(cursor)
	if err != nil || u.Scheme != c.endpoint.Scheme || u.Host != c.endpoint.Host || u.Path != c.endpoint.Path+searchPath {
		return 0, ErrInvalidCursor
	}
	page, err := CursorPage(cursor)
	if err != nil {
		return 0, err
	}
	got, want := u.Query(), q.values("")
	for _, k := range cursorOwnParams {
		got.Del(k)
		want.Del(k)
	}
	if len(got) != len(want) {
		return 0, ErrInvalidCursor
	}
	for k, vs := range want {
		if !slices.Equal(got[k], vs) {
			return 0, ErrInvalidCursor
		}
	}
	return page, nil
}

// CursorPage returns the page number a NextPage cursor addresses.
func CursorPage(cursor string) (int, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || n < 2 || n > maxCursorPage {
		return 0, ErrInvalidCursor
	}
	return n, nil
}

// GetByUID returns the document of docType with the given uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid, ref string) (*Document, error) {
	return c.getSingle(ctx, Query{
		Predicates: []Predicate{At("my."+docType+".uid", uid)},
		PageSize:   1,
		Ref:        ref,
	})
}

// GetByID returns the document with the given id.
func (c *Client) GetByID(ctx context.Context, id, ref string) (*Document, error) {
	return c.getSingle(ctx, Query{
		Predicates: []Predicate{At(FieldID, id)},
		PageSize:   1,
		Ref:        ref,
	})
}

func (c *Client) getSingle(ctx context.Context, q Query) (*Document, error) {
	resp, err := c.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	doc := resp.Results[0]
	return &doc, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, &StatusError{Code: resp.StatusCode, URL: redact(req.URL)}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return nil, nil
	})
	return err
}

// redact strips the access token before a URL ends up in an error or log line.
func redact(u *url.URL) string {
	c := *u
	v := c.Query()
	if v.Has("access_token") {
		v.Set("access_token", "REDACTED")
		c.RawQuery = v.Encode()
	}
	return c.String()
}

// stripToken drops the access token the API echoes into page links, so a
// cursor can be handed to browsers.
func stripToken(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	v := u.Query()
	if !v.Has("access_token") {
		return link
	}
	v.Del("access_token")
	u.RawQuery = v.Encode()
	return u.String()
}
