package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/api"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/storage"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start an HTTP API server exposing notebook search via REST endpoints:

- GET /v1/notebook/search and /v1/cell/search run queries
- GET /v1/data/{id} returns the stored notebook JSON
- GET /v1/import/{path}/{id} saves a stored notebook below the base directory
- GET /v1/health reports backend availability

Examples:
  nbsearch serve                              # Start on localhost:8080
  nbsearch serve --host 0.0.0.0 --port 3000   # All interfaces, port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind the server to")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to bind the server to")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("Initializing HTTP API server...")

	store, err := storage.NewStore(cmdContext(), appConfig)
	if err != nil {
		return err
	}

	apiServer := api.NewAPIServer(appConfig, solrClient, store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Start(serveHost, servePort)
	}()

	fmt.Printf("Server URL: http://%s:%d\n", serveHost, servePort)
	fmt.Printf("Health:     http://%s:%d/v1/health\n", serveHost, servePort)
	fmt.Printf("Press Ctrl+C to stop the server\n")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down gracefully...", sig)
		if err := apiServer.Stop(); err != nil {
			logger.Error("Error during server shutdown: %v", err)
			return err
		}
		logger.Info("Server stopped successfully")
		return nil
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error: %v", err)
			return err
		}
		return nil
	}
}
