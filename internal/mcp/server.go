package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nbsearch/nbsearch/internal/config"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/query"
	"github.com/nbsearch/nbsearch/internal/solr"
	"github.com/nbsearch/nbsearch/internal/storage"
)

// SearchServer exposes notebook search over MCP so that assistants can
// query the index and fetch notebook content.
type SearchServer struct {
	cfg       *config.Config
	client    *solr.Client
	store     *storage.Store
	mcpServer *server.MCPServer
}

func NewSearchServer(cfg *config.Config, client *solr.Client, store *storage.Store) *SearchServer {
	ss := &SearchServer{
		cfg:    cfg,
		client: client,
		store:  store,
	}

	ss.mcpServer = server.NewMCPServer(
		"nbsearch",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	ss.registerTools()
	return ss
}

func (s *SearchServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *SearchServer) registerTools() {
	searchNotebooksTool := mcp.NewTool("search_notebooks",
		mcp.WithDescription("Search indexed Jupyter notebooks by full-text query. The query uses Solr syntax; a plain keyword searches all text fields."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("start",
			mcp.Description("Result offset for paging (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: configured search limit)"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort specification, e.g. \"mtime desc\" (optional)"),
		),
	)
	s.mcpServer.AddTool(searchNotebooksTool, s.handleSearchNotebooks)

	searchCellsTool := mcp.NewTool("search_cells",
		mcp.WithDescription("Search individual notebook cells by full-text query. The query uses Solr syntax; a plain keyword searches all text fields."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("start",
			mcp.Description("Result offset for paging (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: configured search limit)"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort specification, e.g. \"estimated_mtime desc\" (optional)"),
		),
	)
	s.mcpServer.AddTool(searchCellsTool, s.handleSearchCells)

	getNotebookTool := mcp.NewTool("get_notebook",
		mcp.WithDescription("Fetch the full JSON content of an indexed notebook by its id"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The notebook id as returned by search results"),
		),
	)
	s.mcpServer.AddTool(getNotebookTool, s.handleGetNotebook)
}

func (s *SearchServer) handleSearchNotebooks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: search_notebooks")
	return s.search(ctx, request, s.cfg.SolrNotebookCore, formatNotebookDoc)
}

func (s *SearchServer) handleSearchCells(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: search_cells")
	return s.search(ctx, request, s.cfg.SolrCellCore, formatCellDoc)
}

func (s *SearchServer) search(ctx context.Context, request mcp.CallToolRequest, core string, format func(int, solr.Document) string) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("query")
	if err != nil {
		return nil, err
	}

	start := request.GetInt("start", 0)
	if start < 0 {
		return nil, fmt.Errorf("start must not be negative")
	}
	limit := request.GetInt("limit", s.cfg.SearchLimit)
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	sort := ""
	if rawSort := request.GetString("sort", ""); rawSort != "" {
		parsed, err := query.ParseSort(rawSort)
		if err != nil {
			return nil, err
		}
		sort = parsed.String()
	}

	resp, _, err := s.client.Select(ctx, core, solr.SelectParams{
		Query: q,
		Start: &start,
		Rows:  &limit,
		Sort:  sort,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("search failed: %w", resp.Error)
	}

	docs := resp.Response.Docs
	if len(docs) == 0 {
		return mcp.NewToolResultText("No results found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results (showing %d from offset %d):\n\n", resp.Response.NumFound, len(docs), resp.Response.Start)
	for i, doc := range docs {
		b.WriteString(format(start+i+1, doc))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatNotebookDoc(ordinal int, doc solr.Document) string {
	return fmt.Sprintf("%d. [ID: %s] %s\n   server: %s, owner: %s, modified: %s\n\n",
		ordinal,
		doc.Str("id"),
		doc.Str("filename"),
		doc.Str("signature_server_url"),
		doc.Str("owner"),
		doc.Str("mtime"),
	)
}

func formatCellDoc(ordinal int, doc solr.Document) string {
	source := doc.Str("source__code")
	if source == "" {
		source = doc.Str("source__markdown")
	}
	return fmt.Sprintf("%d. [ID: %s] %s cell in %s\n   %s\n\n",
		ordinal,
		doc.Str("id"),
		doc.Str("cell_type"),
		doc.Str("notebook_filename"),
		truncateString(source, 200),
	)
}

func (s *SearchServer) handleGetNotebook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: get_notebook")

	id, err := request.RequireString("id")
	if err != nil {
		return nil, err
	}

	content, err := s.store.Download(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notebook: %w", err)
	}
	return mcp.NewToolResultText(string(content)), nil
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
