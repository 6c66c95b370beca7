package spacetraveling

import (
	"context"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/cms"
)

// Content lookups. A non-empty ref means a preview session: those bypass the
// cache so editors always see the release they are previewing.

func (a *App) firstPage(ctx context.Context, ref string) (blog.Page, error) {
	if ref != "" {
		return a.Blog.FirstPage(ctx, ref)
	}
	return cached(ctx, a.Cache, "page:first", func(ctx context.Context) (blog.Page, error) {
		return a.Blog.FirstPage(ctx, "")
	})
}

// pageLoader feeds a blog.Paginator through the content cache.
type pageLoader struct {
	a   *App
	ref string
}

func (l pageLoader) NextPage(ctx context.Context, cursor string) (blog.Page, error) {
	if l.ref != "" {
		return l.a.Blog.PageAt(ctx, cursor, l.ref)
	}
	// Cursors differing only in parameters the client ignores share an entry.
	n, err := cms.CursorPage(cursor)
	if err != nil {
		return blog.Page{}, err
	}
	return cached(ctx, l.a.Cache, "page:"+itoa(n), func(ctx context.Context) (blog.Page, error) {
		return l.a.Blog.PageAt(ctx, cursor, "")
	})
}

func (a *App) post(ctx context.Context, uid, ref string) (*blog.PostDetail, error) {
	if ref != "" {
		return a.Blog.Post(ctx, uid, ref)
	}
	return cached(ctx, a.Cache, "post:"+uid, func(ctx context.Context) (*blog.PostDetail, error) {
		return a.Blog.Post(ctx, uid, "")
	})
}

// navigation never fails: a lookup error is logged and the page renders
// without previous/next links.
func (a *App) navigation(ctx context.Context, id, ref string) blog.NavigationLinks {
	var (
		links blog.NavigationLinks
		err   error
	)
	if ref != "" {
		links, err = a.Blog.Navigation(ctx, id, ref)
	} else {
		links, err = cached(ctx, a.Cache, "nav:"+id, func(ctx context.Context) (blog.NavigationLinks, error) {
			return a.Blog.Navigation(ctx, id, "")
		})
	}
	if err != nil {
		a.log.Warn().Err(err).Str("id", id).Msg("post navigation unavailable")
		return blog.NavigationLinks{}
	}
	return links
}

func (a *App) allSummaries(ctx context.Context) ([]blog.PostSummary, error) {
	return cached(ctx, a.Cache, "summaries", func(ctx context.Context) ([]blog.PostSummary, error) {
		return a.Blog.AllSummaries(ctx, "")
	})
}
