package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage nbsearch configuration",
	Long:  `View and manage nbsearch configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current nbsearch configuration settings.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value.

Available keys:
  - solr_base_url: Solr base URL
  - solr_basic_auth_username / solr_basic_auth_password: Solr credentials
  - solr_notebook_core / solr_cell_core: Solr core names
  - s3_endpoint_url / s3_access_key / s3_secret_key / s3_region_name / s3_bucket_name
  - base_directory: Directory tree crawled for notebooks
  - server_url: URL identifying this notebook server
  - owner / owner_pattern: Owner recorded on indexed notebooks
  - data_directory: Local index state directory
  - search_limit: Default number of search results per page
  - debug: Enable/disable debug logging (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Printf("Config file:        %s\n", configPath)
	fmt.Printf("solr_base_url:      %s\n", cfg.SolrBaseURL)
	fmt.Printf("solr_notebook_core: %s\n", cfg.SolrNotebookCore)
	fmt.Printf("solr_cell_core:     %s\n", cfg.SolrCellCore)
	fmt.Printf("s3_endpoint_url:    %s\n", cfg.S3EndpointURL)
	fmt.Printf("s3_bucket_name:     %s\n", cfg.S3BucketName)
	fmt.Printf("base_directory:     %s\n", cfg.BaseDirectory)
	fmt.Printf("server_url:         %s\n", cfg.ServerURL)
	fmt.Printf("owner:              %s\n", cfg.Owner)
	fmt.Printf("owner_pattern:      %s\n", cfg.OwnerPattern)
	fmt.Printf("data_directory:     %s\n", cfg.DataDirectory)
	fmt.Printf("search_limit:       %d\n", cfg.SearchLimit)
	fmt.Printf("debug:              %v\n", cfg.Debug)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Println(configPath)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Set %s\n", args[0])
	return nil
}
