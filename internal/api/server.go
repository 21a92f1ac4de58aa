package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/nbsearch/nbsearch/internal/config"
	"github.com/nbsearch/nbsearch/internal/constants"
	interrors "github.com/nbsearch/nbsearch/internal/errors"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/query"
	"github.com/nbsearch/nbsearch/internal/solr"
	"github.com/nbsearch/nbsearch/internal/storage"
)

const (
	targetNotebook = "notebook"
	targetCell     = "cell"
)

type APIServer struct {
	cfg    *config.Config
	client *solr.Client
	store  *storage.Store
	server *http.Server
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewAPIServer(cfg *config.Config, client *solr.Client, store *storage.Store) *APIServer {
	return &APIServer{
		cfg:    cfg,
		client: client,
		store:  store,
	}
}

func (s *APIServer) Start(host string, port int) error {
	router := mux.NewRouter()

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/{target:notebook|cell}/search", s.handleSearch).Methods("GET")
	v1.HandleFunc("/data/{id}", s.handleData).Methods("GET")
	v1.HandleFunc("/import/{path:.*}/{id}", s.handleImport).Methods("GET")
	v1.HandleFunc("/import/{id}", s.handleImport).Methods("GET")
	v1.HandleFunc("/health", s.handleHealth).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
	handler := c.Handler(router)

	addr := fmt.Sprintf("%s:%d", host, port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting HTTP API server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *APIServer) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleSearch runs a query against the notebook or cell core and
// echoes the paging parameters alongside the matched documents. The
// result key follows the target ("notebooks" or "cells"). A backend
// error payload passes through to the caller instead of becoming an
// HTTP failure.
func (s *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	logger.LogRequest(r.Method, r.URL.Path, r.RemoteAddr)
	target := mux.Vars(r)["target"]
	core := s.cfg.SolrNotebookCore
	resultKey := "notebooks"
	if target == targetCell {
		core = s.cfg.SolrCellCore
		resultKey = "cells"
	}

	params, err := s.selectParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, urlquery, err := s.client.Select(r.Context(), core, *params)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", interrors.ErrBackendQuery, err))
		return
	}

	payload := map[string]interface{}{
		"solrquery": urlquery,
		"start":     *params.Start,
		"limit":     *params.Rows,
		"sort":      params.Sort,
	}
	if resp.Error != nil {
		payload["error"] = resp.Error
		payload[resultKey] = []solr.Document{}
		payload["numFound"] = 0
	} else {
		docs := resp.Response.Docs
		if docs == nil {
			docs = []solr.Document{}
		}
		payload[resultKey] = docs
		payload["numFound"] = resp.Response.NumFound
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// selectParams reads query, q_op, start, limit and sort from the
// request. An absent query matches everything.
func (s *APIServer) selectParams(r *http.Request) (*solr.SelectParams, error) {
	q := r.URL.Query().Get("query")
	if q == "" {
		q = query.EmptyQueryString
	}

	op := query.CompositionAnd
	if rawOp := r.URL.Query().Get("q_op"); rawOp != "" {
		parsed, err := query.ParseComposition(rawOp)
		if err != nil {
			return nil, err
		}
		op = parsed
	}

	start := constants.DefaultSearchStart
	if rawStart := r.URL.Query().Get("start"); rawStart != "" {
		n, err := strconv.Atoi(rawStart)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("start must be a non-negative integer: %q", rawStart)
		}
		start = n
	}

	limit := s.cfg.SearchLimit
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("limit must be a positive integer: %q", rawLimit)
		}
		limit = n
	}

	sort := ""
	if rawSort := r.URL.Query().Get("sort"); rawSort != "" {
		parsed, err := query.ParseSort(rawSort)
		if err != nil {
			return nil, err
		}
		sort = parsed.String()
	}

	return &solr.SelectParams{
		Query: q,
		Op:    op,
		Start: &start,
		Rows:  &limit,
		Sort:  sort,
	}, nil
}

// handleData streams the stored raw notebook for an id.
func (s *APIServer) handleData(w http.ResponseWriter, r *http.Request) {
	logger.LogRequest(r.Method, r.URL.Path, r.RemoteAddr)
	id := mux.Vars(r)["id"]

	content, err := s.store.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, interrors.ErrNotebookNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		logger.Error("Failed to write notebook content: %v", err)
	}
}

// handleImport downloads a stored notebook into a directory below the
// base directory. The saved name keeps the original filename, or gets
// a " (N)" suffix when that name is taken.
func (s *APIServer) handleImport(w http.ResponseWriter, r *http.Request) {
	logger.LogRequest(r.Method, r.URL.Path, r.RemoteAddr)
	vars := mux.Vars(r)
	id := vars["id"]

	relDir, err := sanitizeImportPath(vars["path"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	content, err := s.store.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, interrors.ErrNotebookNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	destDir := filepath.Join(s.cfg.BaseDirectory, filepath.FromSlash(relDir))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to create import directory: %w", err))
		return
	}

	filename, err := uniqueFilename(destDir, s.importFilename(r.Context(), id))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := os.WriteFile(filepath.Join(destDir, filename), content, 0644); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to write notebook: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"filename": path.Join(relDir, filename),
	})
}

// importFilename resolves the original filename of a notebook id from
// the notebook core, falling back to the id itself.
func (s *APIServer) importFilename(ctx context.Context, id string) string {
	resp, _, err := s.client.Select(ctx, s.cfg.SolrNotebookCore, solr.SelectParams{
		Query: "id:" + solr.QuoteTerm(id),
	})
	if err == nil && resp.Error == nil && len(resp.Response.Docs) > 0 {
		if nbPath := resp.Response.Docs[0].Str("signature_notebook_path"); nbPath != "" {
			return path.Base(nbPath)
		}
	}
	return id + ".ipynb"
}

// sanitizeImportPath normalizes the destination directory and rejects
// any path element that would escape the base directory.
func sanitizeImportPath(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	clean := make([]string, 0, 4)
	for _, element := range strings.Split(raw, "/") {
		if element == "" {
			continue
		}
		if element == "." || element == ".." {
			return "", fmt.Errorf("%w: %q", interrors.ErrInvalidPath, raw)
		}
		clean = append(clean, element)
	}
	return path.Join(clean...), nil
}

// uniqueFilename appends " (N)" before the extension until the name is
// free in the directory.
func uniqueFilename(dir, filename string) (string, error) {
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	candidate := filename
	for n := 1; ; n++ {
		_, err := os.Stat(filepath.Join(dir, candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	notebookOK := s.client.IsAvailable(r.Context(), s.cfg.SolrNotebookCore)
	cellOK := s.client.IsAvailable(r.Context(), s.cfg.SolrCellCore)

	health := map[string]interface{}{
		"status":        "healthy",
		"notebook_core": notebookOK,
		"cell_core":     cellOK,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	if !notebookOK || !cellOK {
		health["status"] = "degraded"
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	s.writeJSON(w, http.StatusOK, health)
}

func (s *APIServer) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: err.Error()}); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}
