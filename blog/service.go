package blog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/cms"
)

const (
	DefaultDocumentType = "posts"
	DefaultPageSize     = 5
	// maxDrainPages bounds a full walk of the post list.
	maxDrainPages = 200
)

// Source is the subset of the CMS client the blog needs.
type Source interface {
	Query(ctx context.Context, q cms.Query) (*cms.Response, error)
	FetchPage(ctx context.Context, q cms.Query, cursor string) (*cms.Response, error)
	GetByUID(ctx context.Context, docType, uid, ref string) (*cms.Document, error)
	GetByID(ctx context.Context, id, ref string) (*cms.Document, error)
}

// Options configures a Service.
type Options struct {
	DocumentType string
	PageSize     int
}

// Service reads posts from the CMS.
type Service struct {
	src      Source
	docType  string
	pageSize int
}

// NewService returns a Service reading documents of opts.DocumentType from src.
func NewService(src Source, opts Options) *Service {
	if opts.DocumentType == "" {
		opts.DocumentType = DefaultDocumentType
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Service{src: src, docType: opts.DocumentType, pageSize: opts.PageSize}
}

func (s *Service) summaryFields() []string {
	return []string{s.docType + ".title", s.docType + ".subtitle", s.docType + ".author"}
}

// listQuery is the post list query. Every page of the list is read with it.
func (s *Service) listQuery(ref string) cms.Query {
	return cms.Query{
		Predicates: []cms.Predicate{cms.At(cms.FieldType, s.docType)},
		Orderings:  []cms.Ordering{cms.Desc(cms.FieldFirstPublicationDate)},
		Fetch:      s.summaryFields(),
		PageSize:   s.pageSize,
		Ref:        ref,
	}
}

// FirstPage returns the newest posts, publication date descending.
func (s *Service) FirstPage(ctx context.Context, ref string) (Page, error) {
	resp, err := s.src.Query(ctx, s.listQuery(ref))
	if err != nil {
		return Page{}, fmt.Errorf("blog: first page: %w", err)
	}
	return pageFromResponse(resp)
}

// NextPage returns the page addressed by cursor on the master ref.
func (s *Service) NextPage(ctx context.Context, cursor string) (Page, error) {
	return s.PageAt(ctx, cursor, "")
}

// PageAt returns the page of the post list addressed by cursor, read at ref.
func (s *Service) PageAt(ctx context.Context, cursor, ref string) (Page, error) {
	resp, err := s.src.FetchPage(ctx, s.listQuery(ref), cursor)
	if err != nil {
		return Page{}, err
	}
	return pageFromResponse(resp)
}

// Loader returns a PageLoader reading the post list at ref.
func (s *Service) Loader(ref string) PageLoader {
	return refLoader{s: s, ref: ref}
}

type refLoader struct {
	s   *Service
	ref string
}

func (l refLoader) NextPage(ctx context.Context, cursor string) (Page, error) {
	return l.s.PageAt(ctx, cursor, l.ref)
}

// AllSummaries walks every page of the post list in order.
func (s *Service) AllSummaries(ctx context.Context, ref string) ([]PostSummary, error) {
	first, err := s.FirstPage(ctx, ref)
	if err != nil {
		return nil, err
	}
	p := NewPaginator(s.Loader(ref))
	p.Initialize(first.Items, first.Cursor)
	if err := p.Drain(ctx, maxDrainPages); err != nil {
		return nil, err
	}
	return p.Items(), nil
}

// Post returns the post with the given uid. ErrNotFound is returned for unknown uids.
func (s *Service) Post(ctx context.Context, uid, ref string) (*PostDetail, error) {
	doc, err := s.src.GetByUID(ctx, s.docType, uid, ref)
	if err != nil {
		return nil, fmt.Errorf("blog: post %q: %w", uid, err)
	}
	return DetailFromDocument(*doc)
}

// ResolveUID returns the uid of the post document with the given id.
func (s *Service) ResolveUID(ctx context.Context, id, ref string) (string, error) {
	doc, err := s.src.GetByID(ctx, id, ref)
	if err != nil {
		return "", fmt.Errorf("blog: resolve %q: %w", id, err)
	}
	if doc.Type != s.docType || doc.UID == "" {
		return "", fmt.Errorf("blog: resolve %q: %w", id, ErrNotFound)
	}
	return doc.UID, nil
}

// NavigationLinks are the posts adjacent to a post. A nil field means there
// is no post in that direction.
type NavigationLinks struct {
	Previous *PostSummary `json:"previous,omitempty"`
	Next     *PostSummary `json:"next,omitempty"`
}

// Navigation resolves the posts adjacent to the post with the given CMS id.
// Previous is the first document after it in ascending publication order,
// Next the first after it in descending order. Both queries run concurrently.
func (s *Service) Navigation(ctx context.Context, id, ref string) (NavigationLinks, error) {
	var links NavigationLinks
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.adjacent(gctx, id, ref, cms.Asc(cms.FieldFirstPublicationDate))
		links.Previous = p
		return err
	})
	g.Go(func() error {
		p, err := s.adjacent(gctx, id, ref, cms.Desc(cms.FieldFirstPublicationDate))
		links.Next = p
		return err
	})
	if err := g.Wait(); err != nil {
		return NavigationLinks{}, fmt.Errorf("blog: navigation for %q: %w", id, err)
	}
	return links, nil
}

func (s *Service) adjacent(ctx context.Context, id, ref string, order cms.Ordering) (*PostSummary, error) {
	resp, err := s.src.Query(ctx, cms.Query{
		Predicates: []cms.Predicate{cms.At(cms.FieldType, s.docType)},
		Orderings:  []cms.Ordering{order},
		Fetch:      s.summaryFields(),
		PageSize:   1,
		After:      id,
		Ref:        ref,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	sum, err := SummaryFromDocument(resp.Results[0])
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// IsNotFound reports whether err means the post does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
