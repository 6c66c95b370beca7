package views

import (
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/richtext"
)

// Post renders a post page: banner, header, sections, navigation, comments.
func Post(d PostData) templ.Component {
	body := component(func(p *page) {
		post := d.Post
		msgs := d.Format.Messages()

		if banner := d.Banner(); banner != "" {
			p.open("div", "class", "post-banner")
			attrs := []string{"src", banner, "alt", post.Banner.Alt, "fetchpriority", "high"}
			if post.Banner.Width > 0 && post.Banner.Height > 0 {
				attrs = append(attrs, "width", itoa(post.Banner.Width), "height", itoa(post.Banner.Height))
			}
			p.open("img", attrs...)
			p.close("div")
		}

		p.open("main", "class", "container post-container")
		p.open("article", "class", "post")
		p.open("header")
		p.elem("h1", post.Title)
		p.open("div", "class", "post-meta")
		timeTag(p, post.PublicationDate, d.Format.PostDate(post.PublicationDate))
		p.elem("span", post.Author, "class", "post-author")
		p.elem("span", itoa(d.ReadingTime)+" "+msgs.ReadingMinutes, "class", "reading-time")
		p.close("div")
		if post.LastEdit != nil {
			p.elem("p", msgs.EditedAt+" "+d.Format.EditedAt(post.LastEdit), "class", "edited-at")
		}
		p.close("header")

		seen := map[string]int{}
		for _, s := range post.Sections {
			p.open("section", "class", "post-content")
			if s.Heading != "" {
				if id := richtext.HeadingID(s.Heading, seen); id != "" {
					p.elem("h2", s.Heading, "id", id)
				} else {
					p.elem("h2", s.Heading)
				}
			}
			p.open("div", "class", "post-body")
			p.render(richtext.Component(s.Body))
			p.close("div")
			p.close("section")
		}
		p.close("article")

		p.open("footer", "class", "post-footer")
		p.raw(`<span class="divider"></span>`)
		if d.Nav.Previous != nil || d.Nav.Next != nil {
			p.open("nav", "class", "post-navigation")
			navLink(p, d.Nav.Previous, "prev-post", msgs.PreviousPost)
			navLink(p, d.Nav.Next, "next-post", msgs.NextPost)
			p.close("nav")
		}
		if d.Comments != nil {
			p.render(Comments(*d.Comments))
		}
		p.close("footer")
		p.close("main")
	})

	return layout(layoutData{
		Site:    d.Site,
		Meta:    d.Meta,
		JsonLD:  BlogPostingJsonLD(d.Site, d),
		Preview: d.Preview,
		Format:  d.Format,
	}, body)
}

func navLink(p *page, target *blog.PostSummary, class, label string) {
	if target == nil {
		return
	}
	p.open("a", "class", class, "href", target.Link())
	p.text(target.Title)
	p.elem("strong", label)
	p.close("a")
}

func timeTag(p *page, t *time.Time, formatted string) {
	if t == nil {
		p.elem("time", formatted)
		return
	}
	p.elem("time", formatted, "datetime", t.Format(time.RFC3339))
}

// Comments renders the discussion widget script for e.
func Comments(e blog.CommentsEmbed) templ.Component {
	return component(func(p *page) {
		p.open("div", "class", "comments", "data-page-path", e.PagePath)
		attrs := make([]string, 0, 2*len(e.Attributes())+2)
		for _, a := range e.Attributes() {
			attrs = append(attrs, a[0], a[1])
		}
		attrs = append(attrs, "async", "async")
		p.open("script", attrs...)
		p.close("script")
		p.close("div")
	})
}
