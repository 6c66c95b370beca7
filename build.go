package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/views"
)

// maxStaticPages bounds the list walk of a static build.
const maxStaticPages = 200

func staticPageHref(n int) string {
	return "/pages/" + itoa(n) + ".html"
}

// Build writes the whole site as static files: the index and its load-more
// fragments, every post page, the 404 page, feed, sitemap, robots.txt and
// assets. The content cache is bypassed so the build reflects the CMS as
// it is now.
func (a *App) Build(ctx context.Context, opts BuildOptions) (BuildReport, error) {
	var report BuildReport
	if err := a.prepare(ctx); err != nil {
		return report, err
	}
	opts.setDefaults()
	out := opts.OutputDir

	if opts.Clean {
		if err := os.RemoveAll(out); err != nil {
			return report, fmt.Errorf("build: clean %s: %w", out, err)
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return report, fmt.Errorf("build: create %s: %w", out, err)
	}

	posts, pages, err := a.buildList(ctx, out)
	if err != nil {
		return report, err
	}
	report.Pages = pages

	if err := a.buildPosts(ctx, out, posts, opts, &report); err != nil {
		return report, err
	}

	if err := writeComponent(filepath.Join(out, "404.html"), views.NotFound(a.errorData())); err != nil {
		return report, err
	}
	var feed, sitemap bytes.Buffer
	if err := a.writeRSS(&feed, posts); err != nil {
		return report, fmt.Errorf("build: feed: %w", err)
	}
	if err := a.writeSitemap(&sitemap, posts); err != nil {
		return report, fmt.Errorf("build: sitemap: %w", err)
	}
	files := map[string][]byte{
		"feed.xml":    feed.Bytes(),
		"sitemap.xml": sitemap.Bytes(),
		"robots.txt":  []byte(a.robotsTxt()),
	}
	for name, data := range files {
		if err := writeFile(filepath.Join(out, name), data); err != nil {
			return report, err
		}
	}
	if err := a.copyAssets(out); err != nil {
		return report, err
	}

	a.log.Info().
		Str("output", out).
		Int("pages", report.Pages).
		Int("posts", report.Posts).
		Int("banners", report.Banners).
		Msg("static build complete")
	return report, nil
}

// buildList walks the post list with a Paginator, writing index.html and one
// fragment per further page. It returns every summary in list order.
func (a *App) buildList(ctx context.Context, out string) ([]blog.PostSummary, int, error) {
	first, err := a.Blog.FirstPage(ctx, "")
	if err != nil {
		return nil, 0, fmt.Errorf("build: %w", err)
	}
	p := blog.NewPaginator(a.Blog)
	p.Initialize(first.Items, first.Cursor)

	next := ""
	if p.HasMore() {
		next = staticPageHref(2)
	}
	index := views.Home(views.HomeData{
		Site: a.viewSite(),
		Meta: a.homeMeta(),
		List: views.ListData{Items: first.Items, MoreHref: next, MoreFragment: next, Format: a.Format},
	})
	if err := writeComponent(filepath.Join(out, "index.html"), index); err != nil {
		return nil, 0, err
	}

	n := 1
	for p.HasMore() {
		if n >= maxStaticPages {
			return nil, n, fmt.Errorf("build: post list exceeds %d pages", maxStaticPages)
		}
		n++
		items, err := p.LoadMore(ctx)
		if err != nil {
			return nil, n, fmt.Errorf("build: page %d: %w", n, err)
		}
		next = ""
		if p.HasMore() {
			next = staticPageHref(n + 1)
		}
		fragment := views.PostList(views.ListData{Items: items, MoreHref: next, MoreFragment: next, Format: a.Format})
		if err := writeComponent(filepath.Join(out, "pages", itoa(n)+".html"), fragment); err != nil {
			return nil, n, err
		}
	}
	return p.Items(), n, nil
}

func (a *App) buildPosts(ctx context.Context, out string, posts []blog.PostSummary, opts BuildOptions, report *BuildReport) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, s := range posts {
		if !safeSegment(s.UID) {
			a.log.Warn().Str("uid", s.UID).Msg("skipping post with unusable uid")
			report.Skipped = append(report.Skipped, s.UID)
			continue
		}
		s := s
		g.Go(func() error {
			post, err := a.Blog.Post(gctx, s.UID, "")
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			nav, err := a.Blog.Navigation(gctx, post.ID, "")
			if err != nil {
				a.log.Warn().Err(err).Str("uid", s.UID).Msg("post navigation unavailable")
				nav = blog.NavigationLinks{}
			}
			data := a.postData(post, nav, false)

			localized := false
			if opts.LocalizeImages && post.Banner.URL != "" {
				img, err := a.fetchBanner(gctx, post.Banner.URL, opts.MaxImageWidth)
				if err != nil {
					a.log.Warn().Err(err).Str("uid", s.UID).Msg("keeping remote banner")
				} else {
					name := filepath.Join(out, "banners", s.UID+".jpg")
					if err := writeFile(name, img.Data); err != nil {
						return err
					}
					data.BannerURL = "/banners/" + s.UID + ".jpg"
					data.Meta.Image = BuildURL(a.Config.URL, "banners", s.UID+".jpg")
					post.Banner.Width, post.Banner.Height = img.Width, img.Height
					localized = true
				}
			}

			if err := writeComponent(filepath.Join(out, "post", s.UID, "index.html"), views.Post(data)); err != nil {
				return err
			}
			mu.Lock()
			report.Posts++
			if localized {
				report.Banners++
			}
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// safeSegment reports whether uid can be used as a single path element.
func safeSegment(uid string) bool {
	return uid != "" && uid != "." && uid != ".." && !strings.ContainsAny(uid, `/\`)
}

// copyAssets writes the embedded assets and then the user's static directory,
// which may override them.
func (a *App) copyAssets(out string) error {
	embedded, _ := fs.Sub(EmbeddedAssets, "embedded")
	if err := copyFS(embedded, filepath.Join(out, "public")); err != nil {
		return err
	}
	favicon, err := fs.ReadFile(embedded, "favicon.svg")
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(out, "favicon.svg"), favicon); err != nil {
		return err
	}
	if info, err := os.Stat(a.staticDir); err == nil && info.IsDir() {
		return copyFS(os.DirFS(a.staticDir), filepath.Join(out, "public"))
	}
	return nil
}

func copyFS(src fs.FS, dst string) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dst, filepath.FromSlash(path)), data)
	})
}

func writeComponent(path string, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(context.Background(), &buf); err != nil {
		return fmt.Errorf("build: render %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("build: create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("build: write %s: %w", path, err)
	}
	return nil
}
