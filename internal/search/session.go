package search

import (
	"context"
	"fmt"

	"github.com/nbsearch/nbsearch/internal/constants"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/query"
	"github.com/nbsearch/nbsearch/internal/solr"
)

// State is the session's lifecycle state. Any state can transition back
// to StateSearching when a new search is triggered.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateReady
	StateFailed
)

// SearchError is a backend-reported failure carried as data. It is
// surfaced inline to the user and leaves previously rendered results
// untouched until the next search.
type SearchError struct {
	Msg  string
	Code int
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s (code=%d)", e.Msg, e.Code)
}

// Page is one settled results page.
type Page struct {
	Docs     []solr.Document
	Start    int
	Limit    int
	NumFound int
	// SolrQuery is the encoded query the backend actually received.
	SolrQuery string
}

// Session owns the current query, pagination cursor, and sort state for
// one search panel. It is created per panel and discarded when the
// panel closes; there is no process-wide search state.
type Session struct {
	client       *solr.Client
	core         string
	defaultLimit int
	state        State
	last         *query.SearchQuery
	onSearching  func()
}

func NewSession(client *solr.Client, core string, defaultLimit int) *Session {
	if defaultLimit <= 0 {
		defaultLimit = constants.DefaultSearchLimit
	}
	return &Session{
		client:       client,
		core:         core,
		defaultLimit: defaultLimit,
		state:        StateIdle,
	}
}

// OnSearching registers an observer invoked when a search starts, used
// by callers to signal a loading affordance.
func (s *Session) OnSearching(fn func()) {
	s.onSearching = fn
}

func (s *Session) State() State {
	return s.state
}

// LastQuery returns a copy of the most recently successful query, or
// nil before the first success. Page and sort actions derive from this
// snapshot, never from a query that failed.
func (s *Session) LastQuery() *query.SearchQuery {
	if s.last == nil {
		return nil
	}
	snapshot := *s.last
	return &snapshot
}

// Search executes a query and settles into Ready or Failed. A
// backend-reported error payload is authoritative even on transport
// success and comes back as *SearchError.
//
// There is no cancellation of in-flight requests: when searches
// overlap, whichever response settles last overwrites the snapshot
// (last resolution wins).
func (s *Session) Search(ctx context.Context, q query.SearchQuery) (*Page, error) {
	s.state = StateSearching
	if s.onSearching != nil {
		s.onSearching()
	}

	page := q.Page
	if page == nil {
		page = &query.PageQuery{Start: constants.DefaultSearchStart, Limit: s.defaultLimit}
	}
	sort := ""
	if q.Sort != nil {
		sort = q.Sort.String()
	}

	resp, urlquery, err := s.client.Select(ctx, s.core, solr.SelectParams{
		Query: q.QueryString,
		Op:    q.Op,
		Start: &page.Start,
		Rows:  &page.Limit,
		Sort:  sort,
	})
	if err != nil {
		s.state = StateFailed
		return nil, err
	}
	if resp.Error != nil {
		s.state = StateFailed
		return nil, &SearchError{Msg: resp.Error.Msg, Code: resp.Error.Code}
	}

	result := &Page{
		Start:     page.Start,
		Limit:     page.Limit,
		SolrQuery: urlquery,
	}
	if resp.Response != nil {
		result.Docs = resp.Response.Docs
		result.Start = resp.Response.Start
		result.NumFound = resp.Response.NumFound
	}

	snapshot := q
	snapshot.Page = &query.PageQuery{Start: result.Start, Limit: page.Limit}
	s.last = &snapshot
	s.state = StateReady
	logger.Debug("Search settled: %d of %d results from %d", len(result.Docs), result.NumFound, result.Start)
	return result, nil
}

// NextPage re-runs the last successful query one page further.
func (s *Session) NextPage(ctx context.Context) (*Page, error) {
	if s.last == nil || s.last.Page == nil {
		return nil, nil
	}
	next := *s.last
	next.Page = &query.PageQuery{
		Start: s.last.Page.Start + s.last.Page.Limit,
		Limit: s.last.Page.Limit,
	}
	return s.Search(ctx, next)
}

// PrevPage re-runs the last successful query one page back. When the
// cursor is already at the first page this is a no-op: no request is
// issued and both results are nil.
func (s *Session) PrevPage(ctx context.Context) (*Page, error) {
	if s.last == nil || s.last.Page == nil {
		return nil, nil
	}
	if s.last.Page.Start <= 0 {
		return nil, nil
	}
	start := s.last.Page.Start - s.last.Page.Limit
	if start < 0 {
		start = 0
	}
	prev := *s.last
	prev.Page = &query.PageQuery{Start: start, Limit: s.last.Page.Limit}
	return s.Search(ctx, prev)
}

// ToggleSort re-runs the last successful query sorted on column,
// flipping between descending and ascending. Descending is the first
// direction when the column was not previously sorted. The cursor
// resets to the first page.
func (s *Session) ToggleSort(ctx context.Context, column query.Field) (*Page, error) {
	if s.last == nil {
		return nil, nil
	}
	order := query.SortDescending
	if s.last.Sort != nil && s.last.Sort.Column == column && s.last.Sort.Order == query.SortDescending {
		order = query.SortAscending
	}
	sorted := *s.last
	sorted.Sort = &query.SortQuery{Column: column, Order: order}
	sorted.Page = &query.PageQuery{Start: constants.DefaultSearchStart, Limit: s.defaultLimit}
	return s.Search(ctx, sorted)
}
