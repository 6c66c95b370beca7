package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/cache"
)

const envPrefix = "SPACETRAVELING"

// loadConfig reads the optional config file and the environment on top of
// the defaults. A missing default file is fine; a missing explicit one is not.
func loadConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("spacetraveling")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.name", "spacetraveling")
	v.SetDefault("site.url", "http://localhost:3000")
	v.SetDefault("site.description", "")
	v.SetDefault("site.author", "")
	v.SetDefault("site.locale", "pt-BR")
	v.SetDefault("site.timezone", "America/Sao_Paulo")

	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.rate_window", time.Minute)

	v.SetDefault("cms.endpoint", "")
	v.SetDefault("cms.access_token", "")
	v.SetDefault("cms.document_type", blog.DefaultDocumentType)
	v.SetDefault("cms.page_size", blog.DefaultPageSize)
	v.SetDefault("cms.timeout", 10*time.Second)
	v.SetDefault("cms.ref_ttl", 30*time.Second)

	v.SetDefault("cache.backend", cache.BackendMemory)
	v.SetDefault("cache.ttl", 20*time.Minute)
	v.SetDefault("cache.stale_ttl", 24*time.Hour)
	v.SetDefault("cache.sqlite_path", "spacetraveling-cache.db")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.prefix", "spacetraveling")

	v.SetDefault("comments.enabled", false)
	v.SetDefault("comments.repo", "")
	v.SetDefault("comments.issue_term", "pathname")
	v.SetDefault("comments.label", blog.DefaultCommentsLabel)
	v.SetDefault("comments.theme", blog.DefaultCommentsTheme)

	v.SetDefault("preview.enabled", false)
	v.SetDefault("preview.session_secret", "")
	v.SetDefault("preview.cookie_secure", false)

	v.SetDefault("revalidate.secret", "")

	v.SetDefault("build.output_dir", "dist")
	v.SetDefault("build.clean", false)
	v.SetDefault("build.localize_images", false)
	v.SetDefault("build.max_image_width", 1440)
	v.SetDefault("build.concurrency", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func siteConfig(v *viper.Viper) (spacetraveling.SiteConfig, error) {
	cfg := spacetraveling.SiteConfig{
		Name:        v.GetString("site.name"),
		URL:         v.GetString("site.url"),
		Description: v.GetString("site.description"),
		Author:      v.GetString("site.author"),
		Locale:      v.GetString("site.locale"),
		TimeZone:    v.GetString("site.timezone"),

		Addr:            v.GetString("server.addr"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		RateLimit:       v.GetInt("server.rate_limit"),
		RateWindow:      v.GetDuration("server.rate_window"),

		CMSEndpoint:    v.GetString("cms.endpoint"),
		CMSAccessToken: v.GetString("cms.access_token"),
		DocumentType:   v.GetString("cms.document_type"),
		PageSize:       v.GetInt("cms.page_size"),
		CMSTimeout:     v.GetDuration("cms.timeout"),
		RefTTL:         v.GetDuration("cms.ref_ttl"),

		Cache: cache.Config{
			Backend:       v.GetString("cache.backend"),
			SQLitePath:    v.GetString("cache.sqlite_path"),
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
			Prefix:        v.GetString("cache.prefix"),
		},
		CacheTTL: v.GetDuration("cache.ttl"),
		StaleTTL: v.GetDuration("cache.stale_ttl"),

		Comments: blog.CommentsConfig{
			Enabled:   v.GetBool("comments.enabled"),
			Repo:      v.GetString("comments.repo"),
			IssueTerm: v.GetString("comments.issue_term"),
			Label:     v.GetString("comments.label"),
			Theme:     v.GetString("comments.theme"),
		},

		PreviewEnabled: v.GetBool("preview.enabled"),
		SessionSecret:  v.GetString("preview.session_secret"),
		CookieSecure:   v.GetBool("preview.cookie_secure"),

		RevalidateSecret: v.GetString("revalidate.secret"),
	}

	if cfg.CMSEndpoint == "" {
		return cfg, errors.New("cms.endpoint is required (set SPACETRAVELING_CMS_ENDPOINT)")
	}
	if cfg.PreviewEnabled && cfg.SessionSecret == "" {
		return cfg, errors.New("preview.session_secret is required when preview is enabled")
	}
	switch cfg.Cache.Backend {
	case cache.BackendMemory, cache.BackendSQLite, cache.BackendRedis:
	default:
		return cfg, fmt.Errorf("cache.backend: unknown backend %q", cfg.Cache.Backend)
	}
	return cfg, nil
}

func buildOptions(v *viper.Viper) spacetraveling.BuildOptions {
	return spacetraveling.BuildOptions{
		OutputDir:      v.GetString("build.output_dir"),
		Clean:          v.GetBool("build.clean"),
		LocalizeImages: v.GetBool("build.localize_images"),
		MaxImageWidth:  v.GetInt("build.max_image_width"),
		Concurrency:    v.GetInt("build.concurrency"),
	}
}
