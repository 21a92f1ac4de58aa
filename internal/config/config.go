package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nbsearch/nbsearch/internal/constants"
	interrors "github.com/nbsearch/nbsearch/internal/errors"
)

type Config struct {
	// Solr connection
	SolrBaseURL           string `json:"solr_base_url"`
	SolrBasicAuthUsername string `json:"solr_basic_auth_username,omitempty"`
	SolrBasicAuthPassword string `json:"solr_basic_auth_password,omitempty"`
	SolrNotebookCore      string `json:"solr_notebook_core"`
	SolrCellCore          string `json:"solr_cell_core"`

	// S3-compatible object storage for notebook files
	S3EndpointURL string `json:"s3_endpoint_url"`
	S3AccessKey   string `json:"s3_access_key,omitempty"`
	S3SecretKey   string `json:"s3_secret_key,omitempty"`
	S3RegionName  string `json:"s3_region_name,omitempty"`
	S3BucketName  string `json:"s3_bucket_name"`

	// Local notebook source
	BaseDirectory string `json:"base_directory"`
	ServerURL     string `json:"server_url,omitempty"`
	Owner         string `json:"owner,omitempty"`
	OwnerPattern  string `json:"owner_pattern,omitempty"`

	// Local state
	DataDirectory string `json:"data_directory"`

	// Search defaults
	SearchLimit int `json:"search_limit"`

	Debug bool `json:"debug"`
}

// getDefaultConfig returns a fresh copy of the default configuration
func getDefaultConfig() Config {
	return Config{
		SolrBaseURL:      "http://localhost:8983",
		SolrNotebookCore: constants.NotebookCore,
		SolrCellCore:     constants.CellCore,
		S3EndpointURL:    "http://localhost:9000",
		S3BucketName:     "notebooks",
		BaseDirectory:    "", // Will be set to the working directory on first load
		DataDirectory:    "", // Will be set to ~/.local/share/nbsearch
		SearchLimit:      constants.DefaultSearchLimit,
		Debug:            false,
	}
}

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "nbsearch", "config.json"), nil
}

func GetDefaultDataDirectory() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".nbsearch")
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "nbsearch")
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyFallbacks(&cfg)
		return &cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := getDefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applyFallbacks(&cfg)
	return &cfg, nil
}

func applyFallbacks(cfg *Config) {
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = GetDefaultDataDirectory()
	}
	if cfg.BaseDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.BaseDirectory = wd
		} else {
			cfg.BaseDirectory = "."
		}
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = constants.DefaultSearchLimit
	}
}

func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, constants.ConfigFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetStatePath returns the path of the sqlite database holding index state.
func (c *Config) GetStatePath() string {
	return filepath.Join(c.DataDirectory, "index-state.db")
}

// Get returns a configuration value by its JSON key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "solr_base_url":
		return c.SolrBaseURL, nil
	case "solr_basic_auth_username":
		return c.SolrBasicAuthUsername, nil
	case "solr_notebook_core":
		return c.SolrNotebookCore, nil
	case "solr_cell_core":
		return c.SolrCellCore, nil
	case "s3_endpoint_url":
		return c.S3EndpointURL, nil
	case "s3_region_name":
		return c.S3RegionName, nil
	case "s3_bucket_name":
		return c.S3BucketName, nil
	case "base_directory":
		return c.BaseDirectory, nil
	case "server_url":
		return c.ServerURL, nil
	case "owner":
		return c.Owner, nil
	case "owner_pattern":
		return c.OwnerPattern, nil
	case "data_directory":
		return c.DataDirectory, nil
	case "search_limit":
		return strconv.Itoa(c.SearchLimit), nil
	case "debug":
		return strconv.FormatBool(c.Debug), nil
	default:
		return "", fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}
}

// Set updates a configuration value by its JSON key. Secrets
// (auth password, S3 keys) are settable but never readable via Get.
func (c *Config) Set(key, value string) error {
	switch key {
	case "solr_base_url":
		c.SolrBaseURL = strings.TrimRight(value, "/")
	case "solr_basic_auth_username":
		c.SolrBasicAuthUsername = value
	case "solr_basic_auth_password":
		c.SolrBasicAuthPassword = value
	case "solr_notebook_core":
		c.SolrNotebookCore = value
	case "solr_cell_core":
		c.SolrCellCore = value
	case "s3_endpoint_url":
		c.S3EndpointURL = strings.TrimRight(value, "/")
	case "s3_access_key":
		c.S3AccessKey = value
	case "s3_secret_key":
		c.S3SecretKey = value
	case "s3_region_name":
		c.S3RegionName = value
	case "s3_bucket_name":
		c.S3BucketName = value
	case "base_directory":
		c.BaseDirectory = value
	case "server_url":
		c.ServerURL = value
	case "owner":
		c.Owner = value
	case "owner_pattern":
		c.OwnerPattern = value
	case "data_directory":
		c.DataDirectory = value
	case "search_limit":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("search_limit must be a positive integer: %q", value)
		}
		c.SearchLimit = n
	case "debug":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		c.Debug = b
	default:
		return fmt.Errorf("%w: %s", interrors.ErrUnknownConfigKey, key)
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case constants.BoolTrue, constants.BoolYes, constants.BoolOne:
		return true, nil
	case constants.BoolFalse, constants.BoolNo, constants.BoolZero:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", interrors.ErrInvalidBoolean, value)
	}
}
