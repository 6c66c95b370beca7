package views

import "github.com/a-h/templ"

// NotFound renders the 404 page.
func NotFound(d ErrorData) templ.Component {
	return errorPage(d, "404", d.Format.Messages().NotFound)
}

// ServerError renders the 500 page.
func ServerError(d ErrorData) templ.Component {
	return errorPage(d, "500", d.Format.Messages().ServerError)
}

func errorPage(d ErrorData, code, message string) templ.Component {
	body := component(func(p *page) {
		p.open("main", "class", "container error-page")
		p.elem("h1", code)
		p.elem("p", message)
		p.elem("a", d.Site.Name, "href", "/")
		p.close("main")
	})
	return layout(layoutData{
		Site:   d.Site,
		Meta:   PageMeta{Title: code + " | " + d.Site.Name, OGType: "website"},
		Format: d.Format,
	}, body)
}
