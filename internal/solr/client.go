package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nbsearch/nbsearch/internal/config"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/query"
)

type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	baseURL := cfg.SolrBaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8983"
	}

	return &Client{
		baseURL:  baseURL,
		username: cfg.SolrBasicAuthUsername,
		password: cfg.SolrBasicAuthPassword,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Document is one backend document. Field names follow the index
// schema; values of fields outside the known set stay opaque.
type Document map[string]interface{}

// Str returns a document field as a string. Numeric values are
// formatted; missing fields and other shapes return "".
func (d Document) Str(key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// QuoteTerm wraps a term value in double quotes so that ids holding
// reserved query characters match literally.
func QuoteTerm(term string) string {
	escaped := strings.ReplaceAll(term, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// Error is the backend-reported error payload. Its presence in a
// response is authoritative regardless of transport-level success.
type Error struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code=%d)", e.Msg, e.Code)
}

type responseBody struct {
	NumFound int        `json:"numFound"`
	Start    int        `json:"start"`
	Docs     []Document `json:"docs"`
}

// SelectResponse is the decoded result of a select call.
type SelectResponse struct {
	Response *responseBody `json:"response"`
	Error    *Error        `json:"error"`
}

// SelectParams carries the query parameters of one select call. Start
// and Rows are optional; the zero Op means AND.
type SelectParams struct {
	Query string
	Op    query.Composition
	Start *int
	Rows  *int
	Sort  string
}

func (p SelectParams) encode() string {
	values := url.Values{}
	op := p.Op
	if op == "" {
		op = query.CompositionAnd
	}
	values.Set("q.op", string(op))
	values.Set("q", p.Query)
	if p.Start != nil {
		values.Set("start", strconv.Itoa(*p.Start))
	}
	if p.Rows != nil {
		values.Set("rows", strconv.Itoa(*p.Rows))
	}
	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}
	return values.Encode()
}

// Select runs a query against a core. It also returns the encoded
// query string sent to the backend, which API responses echo for
// debugging. Backend error payloads come back inside the response, not
// as a Go error; only transport failures and 5xx statuses do.
func (c *Client) Select(ctx context.Context, core string, params SelectParams) (*SelectResponse, string, error) {
	urlquery := params.encode()
	requestURL := fmt.Sprintf("%s/solr/%s/select?%s", c.baseURL, core, urlquery)
	logger.Debug("Solr select %s", requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, urlquery, fmt.Errorf("failed to build select request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, urlquery, fmt.Errorf("failed to query solr: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(resp.Body)
		return nil, urlquery, fmt.Errorf("solr select failed with status %d: %s", resp.StatusCode, string(body))
	}

	var selectResp SelectResponse
	if err := json.NewDecoder(resp.Body).Decode(&selectResp); err != nil {
		return nil, urlquery, fmt.Errorf("failed to decode select response: %w", err)
	}
	// A successful Select always carries Response or Error, so callers
	// can read one after checking the other.
	if selectResp.Response == nil && selectResp.Error == nil {
		return nil, urlquery, fmt.Errorf("select response with status %d carries neither documents nor an error payload", resp.StatusCode)
	}
	return &selectResp, urlquery, nil
}

// Update posts documents to a core with an immediate commit.
func (c *Client) Update(ctx context.Context, core string, docs []Document) error {
	jsonData, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to marshal update request: %w", err)
	}

	requestURL := fmt.Sprintf("%s/solr/%s/update?commit=true", c.baseURL, core)
	logger.Debug("Solr update %s (%d docs)", requestURL, len(docs))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post update: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("solr update failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// DeleteByID removes documents by id with an immediate commit.
func (c *Client) DeleteByID(ctx context.Context, core string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	payload := map[string]interface{}{"delete": ids}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal delete request: %w", err)
	}

	requestURL := fmt.Sprintf("%s/solr/%s/update?commit=true", c.baseURL, core)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post delete: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("solr delete failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

// IsAvailable probes the backend admin ping endpoint.
func (c *Client) IsAvailable(ctx context.Context, core string) bool {
	requestURL := fmt.Sprintf("%s/solr/%s/admin/ping", c.baseURL, core)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return false
	}
	c.setAuth(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}
