// Package richtext renders CMS structured text (blocks with inline spans) to HTML.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
	"github.com/gosimple/slug"
)

// Block types emitted by the CMS.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// Span marks a range of a block's text. Start and End are UTF-16 offsets.
type Span struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Type  string   `json:"type"`
	Data  SpanData `json:"data"`
}

// SpanData carries hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Embed is the oEmbed payload of an embed block.
type Embed struct {
	Type     string `json:"type"`
	EmbedURL string `json:"embed_url"`
	Title    string `json:"title"`
}

// Block is one element of structured text.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Embed      `json:"oembed,omitempty"`
}

// Blocks is a structured text field.
type Blocks []Block

// AsText joins the text of every block with newlines.
func (bs Blocks) AsText() string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Component returns a templ.Component that renders blocks as HTML.
func Component(blocks Blocks) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		Render(&buf, blocks)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Render writes the HTML representation of blocks to buf.
func Render(buf *bytes.Buffer, blocks Blocks) {
	imageCount := 0
	ids := make(map[string]int)
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range blocks {
		switch {
		case b.Type == TypeListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
		case b.Type == TypeOListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
		default:
			flushList()
			flushOrderedList()
			renderBlock(buf, b, &imageCount, ids)
		}
	}
	flushList()
	flushOrderedList()
}

func renderBlock(buf *bytes.Buffer, b Block, imageCount *int, ids map[string]int) {
	if level, ok := headingLevel(b.Type); ok {
		tag := "h" + strconv.Itoa(level)
		buf.WriteString("<" + tag)
		if id := HeadingID(b.Text, ids); id != "" {
			buf.WriteString(` id="` + id + `"`)
		}
		buf.WriteString(">")
		buf.WriteString(FormatSpans(b.Text, b.Spans))
		buf.WriteString("</" + tag + ">")
		return
	}

	switch b.Type {
	case TypeParagraph:
		buf.WriteString("<p>")
		buf.WriteString(FormatSpans(b.Text, b.Spans))
		buf.WriteString("</p>")
	case TypePreformatted:
		buf.WriteString(`<pre class="code-block">`)
		buf.WriteString(html.EscapeString(b.Text))
		buf.WriteString("</pre>")
	case TypeImage:
		src := SafeURL(b.URL)
		if src == "" {
			return
		}
		*imageCount++
		loadAttr := `loading="lazy"`
		if *imageCount == 1 {
			loadAttr = `fetchpriority="high"`
		}
		buf.WriteString(`<img ` + loadAttr + ` src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
		if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
			buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
		}
		buf.WriteString(` decoding="async"/>`)
	case TypeEmbed:
		if b.Oembed == nil {
			return
		}
		href := SafeURL(b.Oembed.EmbedURL)
		if href == "" {
			return
		}
		title := b.Oembed.Title
		if title == "" {
			title = b.Oembed.EmbedURL
		}
		buf.WriteString(`<div class="embed" data-oembed-type="` + html.EscapeString(b.Oembed.Type) + `">`)
		buf.WriteString(`<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + html.EscapeString(title) + `</a>`)
		buf.WriteString("</div>")
	default:
		if b.Text != "" {
			buf.WriteString("<p>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</p>")
		}
	}
}

func headingLevel(t string) (int, bool) {
	if len(t) != len("heading1") || !strings.HasPrefix(t, "heading") {
		return 0, false
	}
	n := int(t[len(t)-1] - '0')
	if n < 1 || n > 6 {
		return 0, false
	}
	return n, true
}

// HeadingID returns a unique anchor id for a heading, tracking previously
// issued ids in seen.
func HeadingID(text string, seen map[string]int) string {
	id := slug.Make(text)
	if id == "" {
		return ""
	}
	seen[id]++
	if n := seen[id]; n > 1 {
		id += "-" + strconv.Itoa(n)
	}
	return id
}

// FormatSpans escapes text and wraps the ranges covered by spans in their
// tags. Overlapping spans are split at every boundary so output is always
// well nested. Newlines become <br/>.
func FormatSpans(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]Span, 0, len(spans))
	points := []int{0, n}
	for _, s := range spans {
		start, end := clamp(s.Start, 0, n), clamp(s.End, 0, n)
		if start >= end {
			continue
		}
		s.Start, s.End = start, end
		valid = append(valid, s)
		points = append(points, start, end)
	}
	sort.Ints(points)
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	var b strings.Builder
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		if from == to {
			continue
		}
		var open []Span
		for _, s := range valid {
			if s.Start <= from && s.End >= to {
				open = append(open, s)
			}
		}
		for _, s := range open {
			b.WriteString(openTag(s))
		}
		segment := string(utf16.Decode(units[from:to]))
		b.WriteString(strings.ReplaceAll(html.EscapeString(segment), "\n", "<br/>"))
		for j := len(open) - 1; j >= 0; j-- {
			b.WriteString(closeTag(open[j]))
		}
	}
	return b.String()
}

func openTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		href := SafeURL(s.Data.URL)
		if href == "" {
			return "<span>"
		}
		attrs := ""
		if s.Data.Target == "_blank" {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>`
	case SpanLabel:
		return `<span class="` + html.EscapeString(s.Data.Label) + `">`
	default:
		return "<span>"
	}
}

func closeTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		if SafeURL(s.Data.URL) == "" {
			return "</span>"
		}
		return "</a>"
	default:
		return "</span>"
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeURL validates and escapes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
