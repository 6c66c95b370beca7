package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/blog"
)

// Asset paths served by the site and copied into static builds.
const (
	StylesheetPath = "/public/styles.css"
	ScriptPath     = "/public/loadmore.js"
	FaviconPath    = "/favicon.svg"
	FeedPath       = "/feed.xml"
	ExitPreview    = "/api/exit-preview"
)

type layoutData struct {
	Site    SiteConfig
	Meta    PageMeta
	JsonLD  string
	Preview bool
	Format  *blog.Formatter
}

func layout(d layoutData, body templ.Component) templ.Component {
	return component(func(p *page) {
		lang := "pt-BR"
		if d.Format != nil {
			lang = d.Format.Lang()
		}
		p.raw("<!DOCTYPE html>")
		p.open("html", "lang", lang)
		p.open("head")
		p.raw(`<meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.elem("title", d.Meta.Title)
		if d.Meta.Description != "" {
			p.open("meta", "name", "description", "content", d.Meta.Description)
		}
		if d.Meta.URL != "" {
			p.open("link", "rel", "canonical", "href", d.Meta.URL)
			p.open("meta", "property", "og:url", "content", d.Meta.URL)
		}
		p.open("meta", "property", "og:title", "content", d.Meta.Title)
		p.open("meta", "property", "og:type", "content", d.Meta.OGType)
		p.open("meta", "property", "og:site_name", "content", d.Site.Name)
		if d.Meta.Image != "" {
			p.open("meta", "property", "og:image", "content", d.Meta.Image)
		}
		p.open("link", "rel", "icon", "type", "image/svg+xml", "href", FaviconPath)
		p.open("link", "rel", "stylesheet", "href", StylesheetPath)
		p.open("link", "rel", "alternate", "type", "application/rss+xml", "title", d.Site.Name, "href", FeedPath)
		if d.JsonLD != "" {
			// json.Marshal escapes <, > and &, so the payload cannot close the tag.
			p.raw(`<script type="application/ld+json">` + d.JsonLD + `</script>`)
		}
		p.open("script", "src", ScriptPath, "defer", "defer")
		p.close("script")
		p.close("head")

		p.open("body")
		p.open("header", "class", "site-header")
		p.open("div", "class", "site-header-content")
		p.open("a", "href", "/", "class", "logo")
		p.open("img", "src", FaviconPath, "alt", "logo", "width", "32", "height", "32")
		p.elem("span", d.Site.Name)
		p.close("a")
		p.close("div")
		p.close("header")

		p.render(body)

		if d.Preview {
			exit := "Exit preview mode"
			if d.Format != nil {
				exit = d.Format.Messages().ExitPreview
			}
			p.open("aside", "class", "preview-banner")
			p.elem("a", exit, "href", ExitPreview)
			p.close("aside")
		}
		p.close("body")
		p.close("html")
	})
}
