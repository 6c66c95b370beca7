package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

type fakeAPI struct {
	server     *httptest.Server
	refHits    atomic.Int32
	searchHits atomic.Int32
	lastQuery  atomic.Value
	search     func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T, search func(w http.ResponseWriter, r *http.Request)) *fakeAPI {
	t.Helper()
	f := &fakeAPI{search: search}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2":
			f.refHits.Add(1)
			_ = json.NewEncoder(w).Encode(apiInfo{Refs: []Ref{
				{ID: "preview", Ref: "release-ref"},
				{ID: "master", Ref: "master-ref", IsMasterRef: true},
			}})
		case "/api/v2/documents/search":
			f.searchHits.Add(1)
			f.lastQuery.Store(r.URL.Query())
			f.search(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) endpoint() string {
	return f.server.URL + "/api/v2"
}

func (f *fakeAPI) lastValues() url.Values {
	v, _ := f.lastQuery.Load().(url.Values)
	return v
}

func writeResponse(w http.ResponseWriter, resp Response) {
	_ = json.NewEncoder(w).Encode(resp)
}

func TestNew(t *testing.T) {
	t.Run("missing endpoint", func(t *testing.T) {
		if _, err := New(Config{}); err == nil {
			t.Fatal("expected error for empty endpoint")
		}
	})
	t.Run("bad scheme", func(t *testing.T) {
		if _, err := New(Config{Endpoint: "ftp://example.com/api/v2"}); err == nil {
			t.Fatal("expected error for ftp endpoint")
		}
	})
	t.Run("trailing slash trimmed", func(t *testing.T) {
		c, err := New(Config{Endpoint: "https://example.com/api/v2/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Endpoint() != "https://example.com/api/v2" {
			t.Errorf("endpoint = %q", c.Endpoint())
		}
	})
}

func TestQueryEncodesParameters(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, Response{Page: 1})
	})
	c, err := New(Config{Endpoint: api.endpoint(), AccessToken: "secret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.Query(context.Background(), Query{
		Predicates: []Predicate{At(FieldType, "posts")},
		Orderings:  []Ordering{Desc(FieldFirstPublicationDate)},
		PageSize:   5,
		After:      "doc-1",
		Fetch:      []string{"posts.title", "posts.subtitle"},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	q := api.lastValues()
	tests := []struct {
		key  string
		want string
	}{
		{"ref", "master-ref"},
		{"q", `[[at(document.type,"posts")]]`},
		{"orderings", "[document.first_publication_date desc]"},
		{"pageSize", "5"},
		{"after", "doc-1"},
		{"fetch", "posts.title,posts.subtitle"},
		{"access_token", "secret"},
	}
	for _, tt := range tests {
		if got := q.Get(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestQueryUsesExplicitRef(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, Response{})
	})
	c, _ := New(Config{Endpoint: api.endpoint()})

	if _, err := c.Query(context.Background(), Query{Ref: "preview-ref"}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if api.refHits.Load() != 0 {
		t.Errorf("ref endpoint hit %d times, want 0", api.refHits.Load())
	}
	q := api.lastValues()
	if q.Get("ref") != "preview-ref" {
		t.Errorf("ref = %q, want preview-ref", q.Get("ref"))
	}
}

func TestMasterRefIsReused(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, Response{})
	})
	c, _ := New(Config{Endpoint: api.endpoint(), RefTTL: time.Hour})

	for i := 0; i < 3; i++ {
		if _, err := c.Query(context.Background(), Query{}); err != nil {
			t.Fatalf("Query %d: %v", i, err)
		}
	}
	if api.refHits.Load() != 1 {
		t.Errorf("ref endpoint hit %d times, want 1", api.refHits.Load())
	}
}

func listQuery() Query {
	return Query{
		Predicates: []Predicate{At(FieldType, "posts")},
		Orderings:  []Ordering{Desc(FieldFirstPublicationDate)},
		PageSize:   1,
		Fetch:      []string{"posts.title"},
	}
}

// echoNextPage answers page 1 with a next_page link that repeats the
// request's own parameters, the way the CMS builds it.
func echoNextPage(api **fakeAPI) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query()
		if v.Get("page") == "2" {
			writeResponse(w, Response{Page: 2, Results: []Document{{ID: "c", UID: "post-c"}}})
			return
		}
		v.Set("page", "2")
		writeResponse(w, Response{
			Page:     1,
			NextPage: (*api).endpoint() + "/documents/search?" + v.Encode(),
			Results:  []Document{{ID: "a", UID: "post-a"}},
		})
	}
}

func TestFetchPageFollowsCursor(t *testing.T) {
	var api *fakeAPI
	api = newFakeAPI(t, echoNextPage(&api))
	c, _ := New(Config{Endpoint: api.endpoint()})

	first, err := c.Query(context.Background(), listQuery())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if first.NextPage == "" {
		t.Fatal("expected a next page cursor")
	}
	second, err := c.FetchPage(context.Background(), listQuery(), first.NextPage)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if second.Page != 2 || len(second.Results) != 1 || second.Results[0].UID != "post-c" {
		t.Errorf("unexpected second page: %+v", second)
	}
	if second.NextPage != "" {
		t.Errorf("NextPage = %q, want empty", second.NextPage)
	}
}

func TestQueryStripsTokenFromNextPage(t *testing.T) {
	var api *fakeAPI
	api = newFakeAPI(t, echoNextPage(&api))
	c, _ := New(Config{Endpoint: api.endpoint(), AccessToken: "tok"})

	first, err := c.Query(context.Background(), listQuery())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if strings.Contains(first.NextPage, "tok") || strings.Contains(first.NextPage, "access_token") {
		t.Fatalf("NextPage carries the access token: %q", first.NextPage)
	}
	if _, err := c.FetchPage(context.Background(), listQuery(), first.NextPage); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got := api.lastValues().Get("access_token"); got != "tok" {
		t.Errorf("access_token = %q, want tok", got)
	}
}

func TestFetchPageReadsAtServerRef(t *testing.T) {
	var api *fakeAPI
	api = newFakeAPI(t, echoNextPage(&api))
	c, _ := New(Config{Endpoint: api.endpoint()})

	cursor := api.endpoint() + "/documents/search?" + listQuery().values("release-ref").Encode() + "&page=2"
	if _, err := c.FetchPage(context.Background(), listQuery(), cursor); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got := api.lastValues().Get("ref"); got != "master-ref" {
		t.Errorf("ref = %q, want master-ref", got)
	}

	q := listQuery()
	q.Ref = "preview-ref"
	if _, err := c.FetchPage(context.Background(), q, cursor); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got := api.lastValues().Get("ref"); got != "preview-ref" {
		t.Errorf("ref = %q, want preview-ref", got)
	}
}

func TestFetchPageRejectsForeignCursor(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, Response{})
	})
	c, _ := New(Config{Endpoint: api.endpoint()})

	search := api.endpoint() + "/documents/search?"
	list := listQuery().values("master-ref")
	with := func(key, value string) string {
		v := listQuery().values("master-ref")
		v.Set("page", "2")
		if value == "" {
			v.Del(key)
		} else {
			v.Set(key, value)
		}
		return search + v.Encode()
	}

	cursors := []string{
		"https://evil.example.com/api/v2/documents/search?" + list.Encode() + "&page=2",
		api.server.URL + "/other/documents/search?" + list.Encode() + "&page=2",
		api.endpoint(),
		"::not a url",
		search + list.Encode(),
		with("q", `[[at(document.type,"private_notes")]]`),
		with("pageSize", "100"),
		with("fetch", ""),
		with("orderings", "[document.first_publication_date]"),
		with("lang", "*"),
		with("page", "0"),
		with("page", "two"),
		with("page", "1000000"),
	}
	for _, cursor := range cursors {
		_, err := c.FetchPage(context.Background(), listQuery(), cursor)
		if !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("FetchPage(%q) err = %v, want ErrInvalidCursor", cursor, err)
		}
	}
	if api.searchHits.Load() != 0 {
		t.Errorf("search endpoint hit %d times, want 0", api.searchHits.Load())
	}
}

func TestCursorPage(t *testing.T) {
	tests := []struct {
		cursor string
		want   int
		ok     bool
	}{
		{"https://repo.cdn.prismic.io/api/v2/documents/search?page=3&pageSize=5", 3, true},
		{"https://repo.cdn.prismic.io/api/v2/documents/search?pageSize=5", 0, false},
		{"https://repo.cdn.prismic.io/api/v2/documents/search?page=1", 0, false},
		{"::bad", 0, false},
	}
	for _, tt := range tests {
		got, err := CursorPage(tt.cursor)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("CursorPage(%q) = %d, %v", tt.cursor, got, err)
		}
	}
}

func TestGetByUID(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), `"known"`) {
			writeResponse(w, Response{Results: []Document{{ID: "x1", UID: "known", Type: "posts"}}})
			return
		}
		writeResponse(w, Response{})
	})
	c, _ := New(Config{Endpoint: api.endpoint()})

	doc, err := c.GetByUID(context.Background(), "posts", "known", "")
	if err != nil {
		t.Fatalf("GetByUID: %v", err)
	}
	if doc.ID != "x1" {
		t.Errorf("ID = %q, want x1", doc.ID)
	}
	q := api.lastValues()
	if q.Get("q") != `[[at(my.posts.uid,"known")]]` {
		t.Errorf("q = %q", q.Get("q"))
	}

	if _, err := c.GetByUID(context.Background(), "posts", "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStatusErrorRedactsToken(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c, _ := New(Config{Endpoint: api.endpoint(), AccessToken: "topsecret"})

	_, err := c.Query(context.Background(), Query{Ref: "r"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Code != http.StatusBadGateway {
		t.Errorf("Code = %d, want 502", se.Code)
	}
	if strings.Contains(err.Error(), "topsecret") {
		t.Errorf("error leaks access token: %v", err)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c, _ := New(Config{Endpoint: api.endpoint()})

	for i := 0; i < 3; i++ {
		if _, err := c.Query(context.Background(), Query{Ref: "r"}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	_, err := c.Query(context.Background(), Query{Ref: "r"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if api.searchHits.Load() != 3 {
		t.Errorf("search hits = %d, want 3", api.searchHits.Load())
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c, _ := New(Config{Endpoint: api.endpoint()})

	for i := 0; i < 5; i++ {
		_, err := c.Query(context.Background(), Query{Ref: "r"})
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("call %d: breaker opened on 4xx responses", i)
		}
	}
}

func TestTimestampDecoding(t *testing.T) {
	var doc Document
	raw := `{"id":"a","first_publication_date":"2021-03-25T19:25:28+0000","last_publication_date":null}`
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !doc.FirstPublicationDate.Valid {
		t.Fatal("first publication date should be valid")
	}
	want := time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)
	if !doc.FirstPublicationDate.Time.Equal(want) {
		t.Errorf("first = %v, want %v", doc.FirstPublicationDate.Time, want)
	}
	if doc.LastPublicationDate.Valid || doc.LastPublicationDate.Ptr() != nil {
		t.Error("null last publication date should be invalid")
	}

	if err := json.Unmarshal([]byte(`{"first_publication_date":"yesterday"}`), &doc); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}
