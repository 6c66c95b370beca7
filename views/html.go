package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// page accumulates markup and keeps the first write error, so components
// read top to bottom without an error check per element.
type page struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

// open writes <tag attr="v" ...>. attrs alternate name, value.
func (p *page) open(tag string, attrs ...string) {
	p.raw("<" + tag)
	p.attrs(attrs...)
	p.raw(">")
}

func (p *page) attrs(attrs ...string) {
	for i := 0; i+1 < len(attrs); i += 2 {
		p.raw(" " + attrs[i] + `="` + templ.EscapeString(attrs[i+1]) + `"`)
	}
}

func (p *page) close(tag string) {
	p.raw("</" + tag + ">")
}

// elem writes a complete element with escaped text content.
func (p *page) elem(tag, content string, attrs ...string) {
	p.open(tag, attrs...)
	p.text(content)
	p.close(tag)
}

func (p *page) render(c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(p.ctx, p.w)
	}
}

func component(fn func(p *page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		fn(p)
		return p.err
	})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
