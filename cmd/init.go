package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize nbsearch configuration",
	Long: `Initialize nbsearch configuration.
This command writes the configuration file and creates the data directory.`,
	RunE: runInit,
}

var (
	initSolrURL    string
	initS3Endpoint string
	initS3Bucket   string
	initBaseDir    string
	initServerURL  string
	initOwner      string
	initDataDir    string
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initSolrURL, "solr-url", "", "Solr base URL (e.g., http://localhost:8983)")
	initCmd.Flags().StringVar(&initS3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL (e.g., http://localhost:9000)")
	initCmd.Flags().StringVar(&initS3Bucket, "s3-bucket", "", "Bucket holding notebook files")
	initCmd.Flags().StringVar(&initBaseDir, "base-dir", "", "Directory tree to crawl for notebooks")
	initCmd.Flags().StringVar(&initServerURL, "server-url", "", "URL identifying this notebook server in the index")
	initCmd.Flags().StringVar(&initOwner, "owner", "", "Owner recorded on indexed notebooks")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "Data directory for local index state")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Configuration already exists at: %s\n", configPath)
		fmt.Print("Do you want to overwrite it? (y/N): ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Configuration initialization cancelled.")
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to build configuration: %w", err)
	}

	flagValues := map[string]string{
		"solr_base_url":   initSolrURL,
		"s3_endpoint_url": initS3Endpoint,
		"s3_bucket_name":  initS3Bucket,
		"base_directory":  initBaseDir,
		"server_url":      initServerURL,
		"owner":           initOwner,
		"data_directory":  initDataDir,
	}
	for key, value := range flagValues {
		if value == "" {
			continue
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(cfg.DataDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Printf("Solr base URL:  %s\n", cfg.SolrBaseURL)
	fmt.Printf("S3 endpoint:    %s\n", cfg.S3EndpointURL)
	fmt.Printf("S3 bucket:      %s\n", cfg.S3BucketName)
	fmt.Printf("Base directory: %s\n", cfg.BaseDirectory)
	fmt.Printf("Data directory: %s\n", cfg.DataDirectory)
	fmt.Println("\nRun 'nbsearch index' to index your notebooks.")
	return nil
}
