package views

import (
	"github.com/a-h/templ"
)

// Home renders the full post list page.
func Home(d HomeData) templ.Component {
	body := component(func(p *page) {
		p.open("main", "class", "container")
		p.open("div", "class", "posts", "id", "posts")
		p.render(PostList(d.List))
		p.close("div")
		p.close("main")
	})
	return layout(layoutData{
		Site:    d.Site,
		Meta:    d.Meta,
		JsonLD:  WebsiteJsonLD(d.Site),
		Preview: d.Preview,
		Format:  d.List.Format,
	}, body)
}

// PostList renders summaries and, when another page exists, the load-more
// control. It is also the fragment appended by the load-more script.
func PostList(d ListData) templ.Component {
	return component(func(p *page) {
		for _, item := range d.Items {
			p.open("a", "class", "post-item", "href", item.Link())
			p.elem("strong", item.Title)
			p.elem("p", item.Subtitle)
			p.open("div", "class", "post-meta")
			timeTag(p, item.PublicationDate, d.Format.ListDate(item.PublicationDate))
			p.elem("span", item.Author, "class", "post-author")
			p.close("div")
			p.close("a")
		}
		if d.MoreHref != "" {
			msgs := d.Format.Messages()
			p.open("div", "class", "load-more", "data-load-more-container", "")
			loadMoreLink(p, d, msgs.LoadMore, msgs.Loading)
			p.close("div")
		}
	})
}

func loadMoreLink(p *page, d ListData, label, loading string) {
	fragment := d.MoreFragment
	if fragment == "" {
		fragment = d.MoreHref
	}
	p.elem("a", label,
		"class", "load-more-button",
		"href", d.MoreHref,
		"data-load-more", "",
		"data-fragment", fragment,
		"data-loading-label", loading,
		"rel", "next",
	)
}

// LoadMoreFailed replaces the load-more control after a failed load. The
// retry link addresses the same page, so the list stays intact.
func LoadMoreFailed(d ListData) templ.Component {
	return component(func(p *page) {
		msgs := d.Format.Messages()
		p.open("div", "class", "load-more load-more-failed", "data-load-more-container", "")
		p.elem("p", msgs.LoadMoreFailed, "class", "load-more-error", "role", "alert")
		loadMoreLink(p, d, msgs.Retry, msgs.Loading)
		p.close("div")
	})
}
