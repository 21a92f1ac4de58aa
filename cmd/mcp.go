package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/mcp"
	"github.com/nbsearch/nbsearch/internal/storage"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for LLM integration",
	Long: `Start a Model Context Protocol (MCP) server that lets LLMs search the
notebook index.

Tools:
- search_notebooks: Search notebook documents by full-text query
- search_cells: Search individual cell documents
- get_notebook: Fetch the full JSON of a notebook by id

To use with Claude Desktop, add this to your claude_desktop_config.json:
{
  "mcpServers": {
    "nbsearch": {
      "command": "nbsearch",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger.Info("Starting MCP server...")

	store, err := storage.NewStore(cmdContext(), appConfig)
	if err != nil {
		return err
	}

	searchServer := mcp.NewSearchServer(appConfig, solrClient, store)
	mcpServer := searchServer.GetMCPServer()

	logger.Info("MCP server ready. Listening on stdio...")
	if err := server.ServeStdio(mcpServer); err != nil {
		if err.Error() != "EOF" {
			logger.Error("MCP server error: %v", err)
			return err
		}
	}

	logger.Info("MCP server shutting down")
	return nil
}
