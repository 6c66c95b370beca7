package views

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/blog"
	"github.com/eringen/spacetraveling/richtext"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func ptFormat(t *testing.T) *blog.Formatter {
	t.Helper()
	f, err := blog.NewFormatter("pt-BR", time.UTC)
	if err != nil {
		t.Fatalf("NewFormatter: %v", err)
	}
	return f
}

func day(s string) *time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return &d
}

var site = SiteConfig{Name: "spacetraveling", URL: "https://blog.example.com", Description: "Space blog"}

func TestPostListRendersSummaries(t *testing.T) {
	f := ptFormat(t)
	doc := render(t, PostList(ListData{
		Items: []blog.PostSummary{
			{ID: "A", UID: "a", Title: "Como <utilizar> Hooks", Subtitle: "sub", Author: "Joseph", PublicationDate: day("2024-03-01")},
			{ID: "B", UID: "b", Title: "Undated", Author: "Danilo"},
		},
		MoreHref:     "/posts/more?cursor=abc",
		MoreFragment: "/posts/more?cursor=abc&partial=list",
		Format:       f,
	}))

	items := doc.Find("a.post-item")
	if items.Length() != 2 {
		t.Fatalf("post items = %d, want 2", items.Length())
	}
	first := items.First()
	if href, _ := first.Attr("href"); href != "/post/a" {
		t.Errorf("href = %q", href)
	}
	if got := first.Find("strong").Text(); got != "Como <utilizar> Hooks" {
		t.Errorf("title = %q", got)
	}
	if got := first.Find("time").Text(); got != "01 mar 2024" {
		t.Errorf("date = %q", got)
	}
	if got := items.Eq(1).Find("time").Text(); got != "" {
		t.Errorf("undated post date = %q, want empty", got)
	}

	btn := doc.Find("[data-load-more]")
	if btn.Text() != "Carregar mais posts" {
		t.Errorf("button label = %q", btn.Text())
	}
	if frag, _ := btn.Attr("data-fragment"); frag != "/posts/more?cursor=abc&partial=list" {
		t.Errorf("fragment = %q", frag)
	}
}

func TestPostListOmitsButtonWithoutNextPage(t *testing.T) {
	doc := render(t, PostList(ListData{
		Items:  []blog.PostSummary{{ID: "A", UID: "a", Title: "A"}},
		Format: ptFormat(t),
	}))
	if doc.Find("[data-load-more]").Length() != 0 {
		t.Error("load-more control rendered without a next page")
	}
}

func TestLoadMoreFailedKeepsCursor(t *testing.T) {
	doc := render(t, LoadMoreFailed(ListData{
		MoreHref:     "/posts/more?cursor=abc",
		MoreFragment: "/posts/more?cursor=abc&partial=list",
		Format:       ptFormat(t),
	}))
	if got := doc.Find("[role=alert]").Text(); got != "Não foi possível carregar mais posts." {
		t.Errorf("message = %q", got)
	}
	if href, _ := doc.Find("[data-load-more]").Attr("href"); href != "/posts/more?cursor=abc" {
		t.Errorf("retry href = %q", href)
	}
}

func TestHomePage(t *testing.T) {
	doc := render(t, Home(HomeData{
		Site: site,
		Meta: PageMeta{Title: "spacetraveling", URL: "https://blog.example.com/", OGType: "website"},
		List: ListData{Format: ptFormat(t)},
	}))
	if lang, _ := doc.Find("html").Attr("lang"); lang != "pt-BR" {
		t.Errorf("lang = %q", lang)
	}
	if doc.Find("title").Text() != "spacetraveling" {
		t.Errorf("title = %q", doc.Find("title").Text())
	}
	if doc.Find("aside.preview-banner").Length() != 0 {
		t.Error("preview aside outside preview mode")
	}
	var ld map[string]any
	if err := json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).Text()), &ld); err != nil {
		t.Fatalf("json-ld: %v", err)
	}
	if ld["@type"] != "WebSite" || ld["url"] != "https://blog.example.com/" {
		t.Errorf("json-ld = %v", ld)
	}
}

func samplePost() *blog.PostDetail {
	return &blog.PostDetail{
		PostSummary: blog.PostSummary{
			ID: "P", UID: "como-utilizar-hooks", Title: "Como utilizar Hooks",
			Author: "Joseph Oliveira", PublicationDate: day("2021-03-15"),
		},
		Banner:   blog.Image{URL: "https://images.example.com/banner.png", Width: 1440, Height: 400},
		LastEdit: func() *time.Time { t := time.Date(2021, 3, 25, 19, 27, 0, 0, time.UTC); return &t }(),
		Sections: []blog.Section{
			{Heading: "Proin et varius", Body: richtext.Blocks{{Type: richtext.TypeParagraph, Text: "Lorem ipsum"}}},
			{Heading: "Proin et varius", Body: richtext.Blocks{{Type: richtext.TypeParagraph, Text: "dolor sit"}}},
		},
	}
}

func TestPostPage(t *testing.T) {
	f := ptFormat(t)
	comments := blog.NewCommentsEmbed(blog.CommentsConfig{Enabled: true, Repo: "owner/comments", Label: "blog-comment"}, "/post/como-utilizar-hooks")
	doc := render(t, Post(PostData{
		Site:        site,
		Meta:        PageMeta{Title: "Como utilizar Hooks | spacetraveling", OGType: "article"},
		Post:        samplePost(),
		ReadingTime: 4,
		Nav: blog.NavigationLinks{
			Next: &blog.PostSummary{UID: "criando-um-app", Title: "Criando um app"},
		},
		Comments: comments,
		Preview:  true,
		Format:   f,
	}))

	if got := doc.Find("article h1").Text(); got != "Como utilizar Hooks" {
		t.Errorf("h1 = %q", got)
	}
	if got := doc.Find(".post-meta time").Text(); got != "15 mar 2021" {
		t.Errorf("date = %q", got)
	}
	if got := doc.Find(".reading-time").Text(); got != "4 min" {
		t.Errorf("reading time = %q", got)
	}
	if got := doc.Find(".edited-at").Text(); got != "* editado em 25 mar 2021, às 19:27" {
		t.Errorf("edited = %q", got)
	}
	ids := doc.Find("section h2").Map(func(_ int, s *goquery.Selection) string {
		id, _ := s.Attr("id")
		return id
	})
	if strings.Join(ids, ",") != "proin-et-varius,proin-et-varius-2" {
		t.Errorf("heading ids = %v", ids)
	}
	if doc.Find(".post-body p").Length() != 2 {
		t.Errorf("body paragraphs = %d", doc.Find(".post-body p").Length())
	}

	if doc.Find("a.prev-post").Length() != 0 {
		t.Error("absent previous post rendered a link")
	}
	next := doc.Find("a.next-post")
	if href, _ := next.Attr("href"); href != "/post/criando-um-app" {
		t.Errorf("next href = %q", href)
	}
	if next.Find("strong").Text() != "Próximo post" {
		t.Errorf("next label = %q", next.Find("strong").Text())
	}

	script := doc.Find(".comments script")
	if src, _ := script.Attr("src"); src != blog.UtterancesScript {
		t.Errorf("comments src = %q", src)
	}
	if repo, _ := script.Attr("repo"); repo != "owner/comments" {
		t.Errorf("comments repo = %q", repo)
	}

	if href, _ := doc.Find("aside.preview-banner a").Attr("href"); href != ExitPreview {
		t.Errorf("exit preview href = %q", href)
	}
	if img, _ := doc.Find(".post-banner img").Attr("src"); img != "https://images.example.com/banner.png" {
		t.Errorf("banner = %q", img)
	}
}

func TestPostPageWithoutNavigationOrComments(t *testing.T) {
	doc := render(t, Post(PostData{
		Site: site, Post: samplePost(), ReadingTime: 1, Format: ptFormat(t),
		BannerURL: "/banners/como-utilizar-hooks.jpg",
	}))
	if doc.Find("nav.post-navigation").Length() != 0 {
		t.Error("navigation rendered with no neighbours")
	}
	if doc.Find(".comments").Length() != 0 {
		t.Error("comments rendered while disabled")
	}
	if img, _ := doc.Find(".post-banner img").Attr("src"); img != "/banners/como-utilizar-hooks.jpg" {
		t.Errorf("banner override = %q", img)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	d := PostData{Post: samplePost(), ReadingTime: 3, BannerURL: "/banners/x.jpg"}
	var ld map[string]any
	if err := json.Unmarshal([]byte(BlogPostingJsonLD(site, d)), &ld); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ld["url"] != "https://blog.example.com/post/como-utilizar-hooks" {
		t.Errorf("url = %v", ld["url"])
	}
	if ld["datePublished"] != "2021-03-15T00:00:00Z" {
		t.Errorf("datePublished = %v", ld["datePublished"])
	}
	if ld["image"] != "https://blog.example.com/banners/x.jpg" {
		t.Errorf("image = %v", ld["image"])
	}
	if ld["timeRequired"] != "PT3M" {
		t.Errorf("timeRequired = %v", ld["timeRequired"])
	}
}

func TestErrorPages(t *testing.T) {
	f := ptFormat(t)
	nf := render(t, NotFound(ErrorData{Site: site, Format: f}))
	if nf.Find("main h1").Text() != "404" || nf.Find("main p").Text() != "Post não encontrado." {
		t.Errorf("404 page = %q / %q", nf.Find("main h1").Text(), nf.Find("main p").Text())
	}
	se := render(t, ServerError(ErrorData{Site: site, Format: f}))
	if se.Find("main h1").Text() != "500" {
		t.Errorf("500 page h1 = %q", se.Find("main h1").Text())
	}
}
