package blog

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrLoadInFlight is returned by LoadMore while another load is running.
	ErrLoadInFlight = errors.New("blog: load already in progress")
	// ErrStaleLoad is returned when the paginator was re-initialised while a
	// load was running; the fetched page is discarded.
	ErrStaleLoad = errors.New("blog: paginator re-initialised during load")
)

// PageLoader fetches the page addressed by a cursor.
type PageLoader interface {
	NextPage(ctx context.Context, cursor string) (Page, error)
}

// Paginator holds an ordered list of summaries and the cursor of the next
// page. Items keep arrival order; nothing is sorted or deduplicated.
type Paginator struct {
	loader PageLoader

	mu         sync.Mutex
	items      []PostSummary
	cursor     string
	loading    bool
	generation uint64
}

// NewPaginator returns an empty paginator that loads pages through loader.
func NewPaginator(loader PageLoader) *Paginator {
	return &Paginator{loader: loader}
}

// Initialize replaces the state with a first page. A load started before the
// call completes with ErrStaleLoad and leaves the new state untouched.
func (p *Paginator) Initialize(items []PostSummary, cursor string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append([]PostSummary(nil), items...)
	p.cursor = cursor
	p.loading = false
	p.generation++
}

// LoadMore fetches the page at the stored cursor, appends its items and
// stores the new cursor. With no cursor it does nothing and returns nil, nil.
// On failure the items and cursor are left as they were, so calling again
// retries the same page.
func (p *Paginator) LoadMore(ctx context.Context) ([]PostSummary, error) {
	p.mu.Lock()
	if p.cursor == "" {
		p.mu.Unlock()
		return nil, nil
	}
	if p.loading {
		p.mu.Unlock()
		return nil, ErrLoadInFlight
	}
	p.loading = true
	cursor, gen := p.cursor, p.generation
	p.mu.Unlock()

	page, err := p.loader.NextPage(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil, ErrStaleLoad
	}
	p.loading = false
	if err != nil {
		return nil, fmt.Errorf("blog: load more: %w", err)
	}
	p.items = append(p.items, page.Items...)
	p.cursor = page.Cursor
	return page.Items, nil
}

// Drain calls LoadMore until the cursor is exhausted or maxPages loads were made.
func (p *Paginator) Drain(ctx context.Context, maxPages int) error {
	for i := 0; i < maxPages && p.HasMore(); i++ {
		if _, err := p.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Items returns a copy of the loaded summaries.
func (p *Paginator) Items() []PostSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PostSummary(nil), p.items...)
}

// Cursor returns the cursor of the next page, or "" when exhausted.
func (p *Paginator) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// HasMore reports whether a further page exists.
func (p *Paginator) HasMore() bool {
	return p.Cursor() != ""
}
