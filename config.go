package spacetraveling

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/cache"
)

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string // Site name (default "spacetraveling")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD and the feed

	Locale   string // BCP 47 locale for dates and UI strings (default "pt-BR")
	TimeZone string // IANA zone for displayed dates (default "America/Sao_Paulo")

	Addr string // Listen address (default ":3000")

	CMSEndpoint    string        // Required: CMS API entry point, e.g. https://repo.cdn.prismic.io/api/v2
	CMSAccessToken string        // Optional: CMS access token
	DocumentType   string        // Post document type (default "posts")
	PageSize       int           // Posts per list page (default 5)
	CMSTimeout     time.Duration // Per-request CMS timeout (default 10s)
	RefTTL         time.Duration // How long the master ref is reused (default 30s)

	Cache    cache.Config  // Content cache backend (default memory)
	CacheTTL time.Duration // Content stays fresh this long (default 20min)
	StaleTTL time.Duration // Content may be served stale this long when the CMS fails (default 24h)

	Comments blog.CommentsConfig

	PreviewEnabled bool   // Enable CMS preview sessions
	SessionSecret  string // Required when PreviewEnabled: session encryption secret
	CookieSecure   bool   // Set true for HTTPS

	RevalidateSecret string // Enables POST /api/revalidate when set

	RateLimit  int           // Requests per RateWindow on rate-limited routes (default 30)
	RateWindow time.Duration // Rate limit window (default 1min)

	ShutdownTimeout time.Duration // Graceful shutdown budget (default 10s)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.TimeZone == "" {
		c.TimeZone = "America/Sao_Paulo"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DocumentType == "" {
		c.DocumentType = blog.DefaultDocumentType
	}
	if c.PageSize <= 0 {
		c.PageSize = blog.DefaultPageSize
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 20 * time.Minute
	}
	if c.StaleTTL == 0 {
		c.StaleTTL = 24 * time.Hour
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "spacetraveling"
	}
	if c.RateLimit == 0 {
		c.RateLimit = 30
	}
	if c.RateWindow == 0 {
		c.RateWindow = time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithSource replaces the CMS client, typically with a fake in tests.
func WithSource(src blog.Source) Option {
	return func(a *App) {
		a.source = src
	}
}

// WithStore sets the content cache store instead of opening SiteConfig.Cache.
// The caller keeps ownership and closes it.
func WithStore(s cache.Store) Option {
	return func(a *App) {
		a.store = s
	}
}

// WithHTTPClient sets the client used for CMS calls and banner downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithLogger sets the logger (default: the global zerolog logger).
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}
