package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/config"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/solr"
)

var (
	appConfig  *config.Config
	solrClient *solr.Client
	debugFlag  bool
	Version    = "dev" // Version is set from main.go
)

var rootCmd = &cobra.Command{
	Use:     "nbsearch",
	Short:   "Search and merge Jupyter notebooks through a Solr index",
	Version: Version,
	Long: `nbsearch indexes Jupyter notebooks into Solr, stores the notebook files
in S3-compatible object storage, and searches them at notebook and cell
granularity. Matched cells can be merged back into a notebook with a
provenance marker.

First time users should run 'nbsearch init' to set up the configuration.`,
}

func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initAppConfig)
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func initAppConfig() {
	// Skip initialization for init and config commands
	if len(os.Args) > 1 && (os.Args[1] == "init" || os.Args[1] == "config") {
		return
	}

	var err error
	appConfig, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please run 'nbsearch init' to set up the configuration.\n")
		os.Exit(1)
	}

	if debugFlag || appConfig.Debug {
		logger.SetDebugMode(true)
		logger.Debug("Configuration loaded from: %s", func() string {
			path, _ := config.GetConfigPath()
			return path
		}())
		logger.Debug("Solr base URL: %s", appConfig.SolrBaseURL)
		logger.Debug("S3 endpoint: %s", appConfig.S3EndpointURL)
		logger.Debug("Base directory: %s", appConfig.BaseDirectory)
	}

	solrClient = solr.NewClient(appConfig)
}

func cmdContext() context.Context {
	return context.Background()
}
