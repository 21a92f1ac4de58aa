package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nbsearch/nbsearch/internal/config"
	"github.com/nbsearch/nbsearch/internal/query"
	"github.com/nbsearch/nbsearch/internal/solr"
)

// fakeSolr records select requests and replies with a canned response
// per call.
type fakeSolr struct {
	requests   []map[string]string
	nextError  *solr.Error
	numFound   int
	httpServer *httptest.Server
}

func newFakeSolr(t *testing.T) *fakeSolr {
	f := &fakeSolr{numFound: 25}
	f.httpServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := map[string]string{}
		for key, values := range r.URL.Query() {
			params[key] = values[0]
		}
		f.requests = append(f.requests, params)

		w.Header().Set("Content-Type", "application/json")
		if f.nextError != nil {
			fmt.Fprintf(w, `{"error":{"msg":%q,"code":%d}}`, f.nextError.Msg, f.nextError.Code)
			f.nextError = nil
			return
		}

		start := 0
		fmt.Sscanf(params["start"], "%d", &start)
		docs := []map[string]interface{}{{"id": fmt.Sprintf("doc-%d", start)}}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{
				"numFound": f.numFound,
				"start":    start,
				"docs":     docs,
			},
		})
	}))
	t.Cleanup(f.httpServer.Close)
	return f
}

func (f *fakeSolr) client() *solr.Client {
	return solr.NewClient(&config.Config{SolrBaseURL: f.httpServer.URL})
}

func (f *fakeSolr) lastRequest(t *testing.T) map[string]string {
	if len(f.requests) == 0 {
		t.Fatal("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func TestSessionSearch(t *testing.T) {
	fake := newFakeSolr(t)
	session := NewSession(fake.client(), "jupyter-cell", 10)

	var searching bool
	session.OnSearching(func() { searching = true })

	page, err := session.Search(context.Background(), query.SearchQuery{QueryString: "pandas"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if !searching {
		t.Error("OnSearching observer not invoked")
	}
	if session.State() != StateReady {
		t.Errorf("state = %v, want StateReady", session.State())
	}
	if page.NumFound != 25 || page.Start != 0 || page.Limit != 10 {
		t.Errorf("page = %+v", page)
	}

	req := fake.lastRequest(t)
	if req["q"] != "pandas" || req["q.op"] != "AND" || req["start"] != "0" || req["rows"] != "10" {
		t.Errorf("request params = %v", req)
	}

	last := session.LastQuery()
	if last == nil || last.QueryString != "pandas" || last.Page.Start != 0 {
		t.Errorf("LastQuery() = %+v", last)
	}
}

func TestSessionSearchBackendError(t *testing.T) {
	fake := newFakeSolr(t)
	session := NewSession(fake.client(), "jupyter-cell", 10)

	// A first successful search establishes a snapshot.
	if _, err := session.Search(context.Background(), query.SearchQuery{QueryString: "good"}); err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	fake.nextError = &solr.Error{Msg: "undefined field bogus", Code: 400}
	_, err := session.Search(context.Background(), query.SearchQuery{QueryString: "bogus:x"})

	var searchErr *SearchError
	if !errors.As(err, &searchErr) {
		t.Fatalf("error = %v, want *SearchError", err)
	}
	if searchErr.Code != 400 {
		t.Errorf("code = %d, want 400", searchErr.Code)
	}
	if session.State() != StateFailed {
		t.Errorf("state = %v, want StateFailed", session.State())
	}

	// The snapshot still holds the last query that succeeded.
	if last := session.LastQuery(); last == nil || last.QueryString != "good" {
		t.Errorf("LastQuery() = %+v, want the earlier successful query", last)
	}
}

func TestSessionPagination(t *testing.T) {
	fake := newFakeSolr(t)
	session := NewSession(fake.client(), "jupyter-cell", 10)

	if _, err := session.Search(context.Background(), query.SearchQuery{QueryString: "x"}); err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	page, err := session.NextPage(context.Background())
	if err != nil {
		t.Fatalf("NextPage() error: %v", err)
	}
	if page.Start != 10 {
		t.Errorf("NextPage start = %d, want 10", page.Start)
	}

	page, err = session.PrevPage(context.Background())
	if err != nil {
		t.Fatalf("PrevPage() error: %v", err)
	}
	if page.Start != 0 {
		t.Errorf("PrevPage start = %d, want 0", page.Start)
	}
}

func TestSessionPrevPageAtStartIsNoOp(t *testing.T) {
	fake := newFakeSolr(t)
	session := NewSession(fake.client(), "jupyter-cell", 10)

	if _, err := session.Search(context.Background(), query.SearchQuery{QueryString: "x"}); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	requestsBefore := len(fake.requests)

	page, err := session.PrevPage(context.Background())
	if page != nil || err != nil {
		t.Errorf("PrevPage() = %v, %v, want nil, nil", page, err)
	}
	if len(fake.requests) != requestsBefore {
		t.Error("PrevPage at the first page should not issue a request")
	}
}

func TestSessionPageActionsBeforeFirstSearch(t *testing.T) {
	fake := newFakeSolr(t)
	session := NewSession(fake.client(), "jupyter-cell", 10)

	if page, err := session.NextPage(context.Background()); page != nil || err != nil {
		t.Errorf("NextPage() = %v, %v, want nil, nil", page, err)
	}
	if page, err := session.PrevPage(context.Background()); page != nil || err != nil {
		t.Errorf("PrevPage() = %v, %v, want nil, nil", page, err)
	}
	if page, err := session.ToggleSort(context.Background(), query.FieldModified); page != nil || err != nil {
		t.Errorf("ToggleSort() = %v, %v, want nil, nil", page, err)
	}
}

func TestSessionToggleSort(t *testing.T) {
	fake := newFakeSolr(t)
	session := NewSession(fake.client(), "jupyter-cell", 10)

	if _, err := session.Search(context.Background(), query.SearchQuery{QueryString: "x"}); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	// Move off the first page so the reset is observable.
	if _, err := session.NextPage(context.Background()); err != nil {
		t.Fatalf("NextPage() error: %v", err)
	}

	// First toggle on a column sorts descending.
	if _, err := session.ToggleSort(context.Background(), query.FieldModified); err != nil {
		t.Fatalf("ToggleSort() error: %v", err)
	}
	req := fake.lastRequest(t)
	if req["sort"] != "mtime desc" {
		t.Errorf("sort = %q, want %q", req["sort"], "mtime desc")
	}
	if req["start"] != "0" {
		t.Errorf("start = %q, want 0 after sort toggle", req["start"])
	}

	// Second toggle on the same column flips to ascending.
	if _, err := session.ToggleSort(context.Background(), query.FieldModified); err != nil {
		t.Fatalf("ToggleSort() error: %v", err)
	}
	if req := fake.lastRequest(t); req["sort"] != "mtime asc" {
		t.Errorf("sort = %q, want %q", req["sort"], "mtime asc")
	}

	// Toggling a different column starts descending again.
	if _, err := session.ToggleSort(context.Background(), query.FieldOwner); err != nil {
		t.Fatalf("ToggleSort() error: %v", err)
	}
	if req := fake.lastRequest(t); req["sort"] != "owner desc" {
		t.Errorf("sort = %q, want %q", req["sort"], "owner desc")
	}
}
