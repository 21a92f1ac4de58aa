package config

import (
	"errors"
	"path/filepath"
	"testing"

	interrors "github.com/nbsearch/nbsearch/internal/errors"
)

func TestGetSetRoundTrip(t *testing.T) {
	cfg := getDefaultConfig()

	tests := []struct {
		key   string
		value string
	}{
		{"solr_base_url", "http://solr:8983"},
		{"solr_notebook_core", "nb-core"},
		{"solr_cell_core", "cell-core"},
		{"s3_endpoint_url", "http://minio:9000"},
		{"s3_bucket_name", "my-notebooks"},
		{"base_directory", "/srv/notebooks"},
		{"server_url", "http://jupyter:8888"},
		{"owner", "alice"},
		{"owner_pattern", `home/(?P<owner>[^/]+)/`},
		{"data_directory", "/var/lib/nbsearch"},
		{"search_limit", "25"},
		{"debug", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q) error: %v", tt.key, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error: %v", tt.key, err)
			}
			if got != tt.value {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestSecretsAreWriteOnly(t *testing.T) {
	cfg := getDefaultConfig()

	for _, key := range []string{"solr_basic_auth_password", "s3_access_key", "s3_secret_key"} {
		if err := cfg.Set(key, "secret"); err != nil {
			t.Fatalf("Set(%q) error: %v", key, err)
		}
		if _, err := cfg.Get(key); !errors.Is(err, interrors.ErrUnknownConfigKey) {
			t.Errorf("Get(%q) error = %v, want ErrUnknownConfigKey", key, err)
		}
	}
}

func TestSetUnknownKey(t *testing.T) {
	cfg := getDefaultConfig()
	if err := cfg.Set("no_such_key", "x"); !errors.Is(err, interrors.ErrUnknownConfigKey) {
		t.Errorf("Set() error = %v, want ErrUnknownConfigKey", err)
	}
}

func TestSetTrimsTrailingSlashOnURLs(t *testing.T) {
	cfg := getDefaultConfig()
	if err := cfg.Set("solr_base_url", "http://solr:8983/"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if cfg.SolrBaseURL != "http://solr:8983" {
		t.Errorf("SolrBaseURL = %q", cfg.SolrBaseURL)
	}
}

func TestSetSearchLimitValidation(t *testing.T) {
	cfg := getDefaultConfig()
	for _, value := range []string{"0", "-5", "ten"} {
		if err := cfg.Set("search_limit", value); err == nil {
			t.Errorf("Set(search_limit, %q) should fail", value)
		}
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"true", "TRUE", "yes", "1"}
	falsy := []string{"false", "no", "0"}

	for _, value := range truthy {
		got, err := parseBool(value)
		if err != nil || !got {
			t.Errorf("parseBool(%q) = %v, %v, want true", value, got, err)
		}
	}
	for _, value := range falsy {
		got, err := parseBool(value)
		if err != nil || got {
			t.Errorf("parseBool(%q) = %v, %v, want false", value, got, err)
		}
	}
	if _, err := parseBool("maybe"); !errors.Is(err, interrors.ErrInvalidBoolean) {
		t.Errorf("parseBool(maybe) error = %v, want ErrInvalidBoolean", err)
	}
}

func TestGetStatePath(t *testing.T) {
	cfg := getDefaultConfig()
	cfg.DataDirectory = "/var/lib/nbsearch"
	if got := cfg.GetStatePath(); got != filepath.Join("/var/lib/nbsearch", "index-state.db") {
		t.Errorf("GetStatePath() = %q", got)
	}
}

func TestApplyFallbacks(t *testing.T) {
	cfg := Config{}
	applyFallbacks(&cfg)

	if cfg.DataDirectory == "" {
		t.Error("DataDirectory fallback not applied")
	}
	if cfg.BaseDirectory == "" {
		t.Error("BaseDirectory fallback not applied")
	}
	if cfg.SearchLimit <= 0 {
		t.Error("SearchLimit fallback not applied")
	}
}
