package blog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func ids(items []PostSummary) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(got []PostSummary, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestPaginatorScenario(t *testing.T) {
	loader := &staticLoader{pages: map[string]Page{
		"tok1": {Items: []PostSummary{summaryOf("C", "2024-02-01")}},
	}}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("A", "2024-03-01"), summaryOf("B", "2024-02-15")}, "tok1")

	added, err := p.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if !equalIDs(added, "C") {
		t.Errorf("added = %v, want [C]", ids(added))
	}
	if !equalIDs(p.Items(), "A", "B", "C") {
		t.Errorf("items = %v, want [A B C]", ids(p.Items()))
	}
	if p.HasMore() {
		t.Error("expected no further pages")
	}

	added, err = p.LoadMore(context.Background())
	if err != nil || added != nil {
		t.Fatalf("second LoadMore = %v, %v; want nil, nil", added, err)
	}
	if len(loader.calls) != 1 {
		t.Errorf("loader called %d times, want 1", len(loader.calls))
	}
	if !equalIDs(p.Items(), "A", "B", "C") {
		t.Errorf("items changed by no-op load: %v", ids(p.Items()))
	}
}

func TestPaginatorConcatenatesPagesInOrder(t *testing.T) {
	loader := &staticLoader{pages: map[string]Page{
		"c1": {Items: []PostSummary{summaryOf("3", ""), summaryOf("4", "")}, Cursor: "c2"},
		"c2": {Items: []PostSummary{summaryOf("5", "")}, Cursor: "c3"},
		"c3": {Items: []PostSummary{summaryOf("6", ""), summaryOf("7", ""), summaryOf("8", "")}},
	}}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("1", ""), summaryOf("2", "")}, "c1")

	total := 2
	for p.HasMore() {
		added, err := p.LoadMore(context.Background())
		if err != nil {
			t.Fatalf("LoadMore: %v", err)
		}
		total += len(added)
	}
	if !equalIDs(p.Items(), "1", "2", "3", "4", "5", "6", "7", "8") {
		t.Errorf("items = %v", ids(p.Items()))
	}
	if len(p.Items()) != total {
		t.Errorf("len = %d, want %d", len(p.Items()), total)
	}
	want := []string{"c1", "c2", "c3"}
	for i, c := range want {
		if loader.calls[i] != c {
			t.Errorf("call %d cursor = %q, want %q", i, loader.calls[i], c)
		}
	}
}

func TestPaginatorDoesNotReorderOrDeduplicate(t *testing.T) {
	loader := &staticLoader{pages: map[string]Page{
		"next": {Items: []PostSummary{summaryOf("old", "2020-01-01"), summaryOf("A", "2024-03-01")}},
	}}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("A", "2024-03-01")}, "next")

	if _, err := p.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if !equalIDs(p.Items(), "A", "old", "A") {
		t.Errorf("items = %v, want [A old A]", ids(p.Items()))
	}
}

func TestPaginatorNoCursorIsNoop(t *testing.T) {
	loader := &staticLoader{}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("A", "")}, "")

	added, err := p.LoadMore(context.Background())
	if err != nil || added != nil {
		t.Fatalf("LoadMore = %v, %v; want nil, nil", added, err)
	}
	if len(loader.calls) != 0 {
		t.Errorf("loader called %d times, want 0", len(loader.calls))
	}
	if !equalIDs(p.Items(), "A") || p.Cursor() != "" {
		t.Errorf("state changed: %v %q", ids(p.Items()), p.Cursor())
	}
}

func TestPaginatorFailureKeepsState(t *testing.T) {
	loader := &staticLoader{err: errBoom, pages: map[string]Page{
		"c1": {Items: []PostSummary{summaryOf("B", "")}},
	}}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("A", "")}, "c1")

	if _, err := p.LoadMore(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if !equalIDs(p.Items(), "A") || p.Cursor() != "c1" {
		t.Fatalf("state changed after failure: %v %q", ids(p.Items()), p.Cursor())
	}

	loader.err = nil
	if _, err := p.LoadMore(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !equalIDs(p.Items(), "A", "B") {
		t.Errorf("items after retry = %v", ids(p.Items()))
	}
	if len(loader.calls) != 2 || loader.calls[1] != "c1" {
		t.Errorf("retry should reuse cursor c1: %v", loader.calls)
	}
}

// blockingLoader holds NextPage until release is closed.
type blockingLoader struct {
	started chan struct{}
	release chan struct{}
	page    Page
}

func (l *blockingLoader) NextPage(ctx context.Context, cursor string) (Page, error) {
	close(l.started)
	<-l.release
	return l.page, nil
}

func TestPaginatorRejectsConcurrentLoad(t *testing.T) {
	loader := &blockingLoader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		page:    Page{Items: []PostSummary{summaryOf("B", "")}},
	}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("A", "")}, "c1")

	done := make(chan error, 1)
	go func() {
		_, err := p.LoadMore(context.Background())
		done <- err
	}()
	<-loader.started

	if _, err := p.LoadMore(context.Background()); !errors.Is(err, ErrLoadInFlight) {
		t.Fatalf("concurrent LoadMore err = %v, want ErrLoadInFlight", err)
	}
	close(loader.release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first LoadMore: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first LoadMore did not finish")
	}
	if !equalIDs(p.Items(), "A", "B") {
		t.Errorf("items = %v, want [A B]", ids(p.Items()))
	}
}

func TestPaginatorDiscardsLoadAfterReinitialize(t *testing.T) {
	loader := &blockingLoader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		page:    Page{Items: []PostSummary{summaryOf("stale", "")}, Cursor: "stale-cursor"},
	}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("A", "")}, "c1")

	done := make(chan error, 1)
	go func() {
		_, err := p.LoadMore(context.Background())
		done <- err
	}()
	<-loader.started

	p.Initialize([]PostSummary{summaryOf("X", "")}, "")
	close(loader.release)

	if err := <-done; !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("err = %v, want ErrStaleLoad", err)
	}
	if !equalIDs(p.Items(), "X") || p.Cursor() != "" {
		t.Errorf("stale page applied: %v %q", ids(p.Items()), p.Cursor())
	}
}

func TestPaginatorItemsIsACopy(t *testing.T) {
	p := NewPaginator(&staticLoader{})
	seed := []PostSummary{summaryOf("A", "")}
	p.Initialize(seed, "")
	seed[0].ID = "mutated"

	items := p.Items()
	items[0].ID = "changed"
	if p.Items()[0].ID != "A" {
		t.Errorf("paginator state aliased caller slices")
	}
}

func TestPaginatorDrain(t *testing.T) {
	loader := &staticLoader{pages: map[string]Page{
		"c1": {Items: []PostSummary{summaryOf("B", "")}, Cursor: "c2"},
		"c2": {Items: []PostSummary{summaryOf("C", "")}, Cursor: "c1"},
	}}
	p := NewPaginator(loader)
	p.Initialize([]PostSummary{summaryOf("A", "")}, "c1")

	if err := p.Drain(context.Background(), 3); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(loader.calls) != 3 {
		t.Errorf("Drain made %d loads, want 3 (bounded)", len(loader.calls))
	}
}
