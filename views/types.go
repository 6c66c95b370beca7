package views

import (
	"github.com/eringen/spacetraveling/blog"
)

// SiteConfig holds the site-wide settings every page needs.
type SiteConfig struct {
	Name        string
	URL         string // canonical base, no trailing slash
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image, optional
}

// ListData is one run of post summaries followed by the load-more control.
type ListData struct {
	Items []blog.PostSummary
	// MoreHref is the full-page link to the next page; empty when exhausted.
	MoreHref string
	// MoreFragment is fetched by the script to append the next page in place.
	MoreFragment string
	Format       *blog.Formatter
}

// HomeData renders the post list page.
type HomeData struct {
	Site    SiteConfig
	Meta    PageMeta
	List    ListData
	Preview bool
}

// PostData renders a single post.
type PostData struct {
	Site SiteConfig
	Meta PageMeta
	Post *blog.PostDetail
	// BannerURL overrides Post.Banner.URL, for banners copied into a static build.
	BannerURL   string
	ReadingTime int
	Nav         blog.NavigationLinks
	Comments    *blog.CommentsEmbed
	Preview     bool
	Format      *blog.Formatter
}

// Banner returns the banner address to render.
func (d PostData) Banner() string {
	if d.BannerURL != "" {
		return d.BannerURL
	}
	return d.Post.Banner.URL
}

// ErrorData renders the 404 and 500 pages.
type ErrorData struct {
	Site   SiteConfig
	Format *blog.Formatter
}
