package spacetraveling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/views"
)

func (a *App) homeMeta() views.PageMeta {
	return views.PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
	}
}

func (a *App) postData(post *blog.PostDetail, nav blog.NavigationLinks, preview bool) views.PostData {
	site := a.viewSite()
	return views.PostData{
		Site: site,
		Meta: views.PageMeta{
			Title:       post.Title + " | " + a.Config.Name,
			Description: post.Subtitle,
			URL:         BuildURL(site.URL, "post", post.UID),
			OGType:      "article",
			Image:       post.Banner.URL,
		},
		Post:        post,
		ReadingTime: blog.ReadingTime(post.Sections),
		Nav:         nav,
		Comments:    blog.NewCommentsEmbed(a.Config.Comments, post.Link()),
		Preview:     preview,
		Format:      a.Format,
	}
}

func (a *App) handleHome(c echo.Context) error {
	ref := a.previewRef(c)
	page, err := a.firstPage(c.Request().Context(), ref)
	if err != nil {
		return err
	}
	if ref != "" {
		noStore(c)
	}
	href, fragment := moreLinks(page.Cursor)
	return Render(c, views.Home(views.HomeData{
		Site:    a.viewSite(),
		Meta:    a.homeMeta(),
		List:    views.ListData{Items: page.Items, MoreHref: href, MoreFragment: fragment, Format: a.Format},
		Preview: ref != "",
	}))
}

// handleMore serves the page after a cursor. With partial=list it answers
// with a list fragment for the load-more script; a failed load then yields
// a retry control for the same cursor instead of an error page.
func (a *App) handleMore(c echo.Context) error {
	partial := c.QueryParam("partial") == "list"
	ref := a.previewRef(c)
	if ref != "" {
		noStore(c)
	}

	cursor, err := DecodeCursor(c.QueryParam("cursor"))
	if err != nil {
		return a.loadMoreFailed(c, partial, "", http.StatusBadRequest, err)
	}

	p := blog.NewPaginator(pageLoader{a: a, ref: ref})
	p.Initialize(nil, cursor)
	items, err := p.LoadMore(c.Request().Context())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, blog.ErrInvalidCursor) {
			code = http.StatusBadRequest
		}
		return a.loadMoreFailed(c, partial, cursor, code, err)
	}

	href, fragment := moreLinks(p.Cursor())
	list := views.ListData{Items: items, MoreHref: href, MoreFragment: fragment, Format: a.Format}
	if partial {
		return Render(c, views.PostList(list))
	}
	meta := a.homeMeta()
	meta.URL = ""
	return Render(c, views.Home(views.HomeData{
		Site:    a.viewSite(),
		Meta:    meta,
		List:    list,
		Preview: ref != "",
	}))
}

func (a *App) loadMoreFailed(c echo.Context, partial bool, cursor string, code int, err error) error {
	a.log.Warn().Err(err).Int("status", code).Msg("load more failed")
	if !partial {
		return echo.NewHTTPError(code, http.StatusText(code)).SetInternal(err)
	}
	noStore(c)
	href, fragment := moreLinks(cursor)
	return RenderStatus(c, code, views.LoadMoreFailed(views.ListData{
		MoreHref:     href,
		MoreFragment: fragment,
		Format:       a.Format,
	}))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	ref := a.previewRef(c)

	post, err := a.post(ctx, slug, ref)
	if err != nil {
		if blog.IsNotFound(err) {
			return RenderStatus(c, http.StatusNotFound, views.NotFound(a.errorData()))
		}
		return err
	}
	nav := a.navigation(ctx, post.ID, ref)
	if ref != "" {
		noStore(c)
	}
	return Render(c, views.Post(a.postData(post, nav, ref != "")))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.allSummaries(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeSitemap(c.Response(), posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.allSummaries(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeRSS(c.Response(), posts)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, a.robotsTxt())
}

func (a *App) robotsTxt() string {
	return "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: " + BuildURL(a.Config.URL, "sitemap.xml") + "\n"
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.errorData()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.log.Error().Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("uri", c.Request().RequestURI).
			Msg("server error")
		noStore(c)
		_ = RenderStatus(c, code, views.ServerError(a.errorData()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
