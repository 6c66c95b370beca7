package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eringen/spacetraveling/cms"
)

// fakeSource serves canned responses keyed by cursor and records queries.
type fakeSource struct {
	mu        sync.Mutex
	queries   []cms.Query
	cursors   []string
	followed  []cms.Query
	first     *cms.Response
	pages     map[string]*cms.Response
	byUID     map[string]cms.Document
	byID      map[string]cms.Document
	adjacent  map[bool]*cms.Document // keyed by ordering.Desc
	queryErr  error
	fetchErr  error
	fetchWait chan struct{}
}

func (f *fakeSource) Query(ctx context.Context, q cms.Query) (*cms.Response, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if q.After != "" {
		doc := f.adjacent[q.Orderings[0].Desc]
		if doc == nil {
			return &cms.Response{}, nil
		}
		return &cms.Response{Results: []cms.Document{*doc}}, nil
	}
	if f.first == nil {
		return &cms.Response{}, nil
	}
	return f.first, nil
}

func (f *fakeSource) FetchPage(ctx context.Context, q cms.Query, cursor string) (*cms.Response, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	f.followed = append(f.followed, q)
	wait := f.fetchWait
	f.mu.Unlock()
	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	resp, ok := f.pages[cursor]
	if !ok {
		return nil, cms.ErrInvalidCursor
	}
	return resp, nil
}

func (f *fakeSource) GetByUID(ctx context.Context, docType, uid, ref string) (*cms.Document, error) {
	doc, ok := f.byUID[uid]
	if !ok {
		return nil, cms.ErrNotFound
	}
	return &doc, nil
}

func (f *fakeSource) GetByID(ctx context.Context, id, ref string) (*cms.Document, error) {
	doc, ok := f.byID[id]
	if !ok {
		return nil, cms.ErrNotFound
	}
	return &doc, nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

func date(s string) cms.Timestamp {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return cms.Timestamp{Time: t, Valid: true}
}

func postDoc(id, published string) cms.Document {
	data, _ := json.Marshal(map[string]string{
		"title":    "Post " + id,
		"subtitle": "About " + id,
		"author":   "Author " + id,
	})
	doc := cms.Document{ID: id, UID: "post-" + id, Type: "posts", Data: data}
	if published != "" {
		doc.FirstPublicationDate = date(published)
	}
	return doc
}

func summaryOf(id, published string) PostSummary {
	s, err := SummaryFromDocument(postDoc(id, published))
	if err != nil {
		panic(err)
	}
	return s
}

// staticLoader serves pages from a map without the CMS layer.
type staticLoader struct {
	mu    sync.Mutex
	pages map[string]Page
	calls []string
	err   error
}

func (l *staticLoader) NextPage(ctx context.Context, cursor string) (Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, cursor)
	if l.err != nil {
		return Page{}, l.err
	}
	page, ok := l.pages[cursor]
	if !ok {
		return Page{}, fmt.Errorf("unknown cursor %q", cursor)
	}
	return page, nil
}

var errBoom = errors.New("boom")
