// Package spacetraveling is a blog front-end for a headless CMS built with
// Go, Echo, and templ. It serves a paginated post list, post pages with
// previous/next navigation and comments, RSS and a sitemap, and can write
// the whole site out as static files.
package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/cache"
	"github.com/eringen/spacetraveling/cms"
)

// App is the central application. It wires together the CMS client, the
// content cache, handlers, middleware, and views.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Blog   *blog.Service
	Cache  *ContentCache
	Format *blog.Formatter

	source       blog.Source
	store        cache.Store
	ownsStore    bool
	httpClient   *http.Client
	limiter      *RateLimiter
	log          zerolog.Logger
	customRoutes []func(*App)
	staticDir    string
	prepared     bool
	routed       bool
	stop         chan struct{}
	stopOnce     sync.Once
}

// pruneInterval is how often expired cache entries are swept.
const pruneInterval = time.Hour

// New creates an App with the given configuration. Nothing is connected
// until Init, Start, Run or Build.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
		log:       log.Logger,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return a
}

// prepare builds the CMS client, blog service, formatter and content cache.
func (a *App) prepare(ctx context.Context) error {
	if a.prepared {
		return nil
	}
	if a.source == nil && a.Config.CMSEndpoint == "" {
		return errors.New("spacetraveling: CMSEndpoint is required")
	}

	loc, err := time.LoadLocation(a.Config.TimeZone)
	if err != nil {
		return fmt.Errorf("spacetraveling: time zone: %w", err)
	}
	a.Format, err = blog.NewFormatter(a.Config.Locale, loc)
	if err != nil {
		return fmt.Errorf("spacetraveling: %w", err)
	}

	if a.source == nil {
		client, err := cms.New(cms.Config{
			Endpoint:    a.Config.CMSEndpoint,
			AccessToken: a.Config.CMSAccessToken,
			Timeout:     a.Config.CMSTimeout,
			RefTTL:      a.Config.RefTTL,
			HTTPClient:  a.httpClient,
		})
		if err != nil {
			return fmt.Errorf("spacetraveling: init cms client: %w", err)
		}
		a.source = client
	}
	a.Blog = blog.NewService(a.source, blog.Options{
		DocumentType: a.Config.DocumentType,
		PageSize:     a.Config.PageSize,
	})

	if a.store == nil {
		store, err := cache.Open(ctx, a.Config.Cache)
		if err != nil {
			return fmt.Errorf("spacetraveling: init cache: %w", err)
		}
		a.store = store
		a.ownsStore = true
	}
	a.Cache = NewContentCache(a.store, a.Config.CacheTTL, a.Config.StaleTTL, a.log)
	a.prepared = true
	return nil
}

// Init prepares dependencies and registers middleware and routes. It is
// safe to call more than once.
func (a *App) Init(ctx context.Context) error {
	if err := a.prepare(ctx); err != nil {
		return err
	}
	if a.routed {
		return nil
	}
	if a.Config.PreviewEnabled && a.Config.SessionSecret == "" {
		return errors.New("spacetraveling: SessionSecret is required when preview is enabled")
	}

	a.limiter = NewRateLimiter(a.Config.RateLimit, a.Config.RateWindow)
	a.stop = make(chan struct{})
	go a.Cache.janitor(pruneInterval, a.stop)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.routed = true
	return nil
}

// Start initializes the app and serves until the server is closed.
func (a *App) Start() error {
	if err := a.Init(context.Background()); err != nil {
		return err
	}
	a.log.Info().Str("addr", a.Config.Addr).Str("cms", a.Config.CMSEndpoint).Msg("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := a.Echo.Shutdown(sctx); err != nil {
		return fmt.Errorf("spacetraveling: shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/styles.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/loadmore.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/favicon.svg", echo.WrapHandler(embeddedHandler))

	// User's static assets
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/posts/more", a.handleMore, a.limiter.Middleware())
	e.GET("/post/:slug", a.handlePost)

	if a.Config.PreviewEnabled {
		e.GET("/api/preview", a.handlePreview, a.limiter.Middleware())
		e.GET("/api/exit-preview", a.handleExitPreview)
	}
	if a.Config.RevalidateSecret != "" {
		e.POST("/api/revalidate", a.handleRevalidate)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.stop != nil {
		a.stopOnce.Do(func() { close(a.stop) })
	}
	if a.ownsStore && a.store != nil {
		return a.store.Close()
	}
	return nil
}
