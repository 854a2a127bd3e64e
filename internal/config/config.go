// Package config loads formrec settings from an optional TOML file overlaid
// by FORMREC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/formrec/internal/model"
)

type Config struct {
	// Record store connection
	APIKey  string        // FORMREC_API_KEY
	BaseID  string        // FORMREC_BASE_ID
	Table   string        // FORMREC_TABLE (default "Objects")
	Host    string        // FORMREC_HOST (default "api.airtable.com")
	Timeout time.Duration // FORMREC_TIMEOUT (default 30s)

	NATSURL string // FORMREC_NATS_URL (optional, empty = no events)

	// Development server
	HTTPAddr    string // FORMREC_HTTP_ADDR (default ":8080")
	DatabaseURL string // FORMREC_DATABASE_URL (empty = in-memory)
	AuthToken   string // FORMREC_AUTH_TOKEN (optional, empty = auth disabled)

	// Sync settings
	SyncInterval   time.Duration // FORMREC_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // FORMREC_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // FORMREC_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // FORMREC_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // FORMREC_SYNC_S3_KEY (default "formrec/records.jsonl")
	SyncGitRepo    string        // FORMREC_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // FORMREC_SYNC_GIT_FILE (default "records.jsonl")
	SyncGitBranch  string        // FORMREC_SYNC_GIT_BRANCH (default "main")

	// Schemas declared in the config file, looked up before the built-ins.
	Schemas []model.Schema
}

// File is the on-disk TOML layout. Every key is optional.
type File struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseID  string `toml:"base_id,omitempty"`
	Table   string `toml:"table,omitempty"`
	Host    string `toml:"host,omitempty"`
	Timeout string `toml:"timeout,omitempty"`
	NATSURL string `toml:"nats_url,omitempty"`

	Server struct {
		HTTPAddr    string `toml:"http_addr,omitempty"`
		DatabaseURL string `toml:"database_url,omitempty"`
		AuthToken   string `toml:"auth_token,omitempty"`
	} `toml:"server"`

	Sync struct {
		Interval   string `toml:"interval,omitempty"`
		S3Bucket   string `toml:"s3_bucket,omitempty"`
		S3Endpoint string `toml:"s3_endpoint,omitempty"`
		S3Region   string `toml:"s3_region,omitempty"`
		S3Key      string `toml:"s3_key,omitempty"`
		GitRepo    string `toml:"git_repo,omitempty"`
		GitFile    string `toml:"git_file,omitempty"`
		GitBranch  string `toml:"git_branch,omitempty"`
	} `toml:"sync"`

	Schemas []model.Schema `toml:"schemas,omitempty"`
}

// DefaultPath returns the config file location: FORMREC_CONFIG when set,
// else ~/.config/formrec/config.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv("FORMREC_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "formrec", "config.toml"), nil
}

// Load reads the config file at DefaultPath (if any) and applies the
// environment on top.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("locating config file: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path and applies the environment on
// top. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	var f File
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	c := &Config{
		APIKey:         envOr("FORMREC_API_KEY", f.APIKey, ""),
		BaseID:         envOr("FORMREC_BASE_ID", f.BaseID, ""),
		Table:          envOr("FORMREC_TABLE", f.Table, "Objects"),
		Host:           envOr("FORMREC_HOST", f.Host, "api.airtable.com"),
		NATSURL:        envOr("FORMREC_NATS_URL", f.NATSURL, ""),
		HTTPAddr:       envOr("FORMREC_HTTP_ADDR", f.Server.HTTPAddr, ":8080"),
		DatabaseURL:    envOr("FORMREC_DATABASE_URL", f.Server.DatabaseURL, ""),
		AuthToken:      envOr("FORMREC_AUTH_TOKEN", f.Server.AuthToken, ""),
		SyncS3Bucket:   envOr("FORMREC_SYNC_S3_BUCKET", f.Sync.S3Bucket, ""),
		SyncS3Endpoint: envOr("FORMREC_SYNC_S3_ENDPOINT", f.Sync.S3Endpoint, ""),
		SyncS3Region:   envOr("FORMREC_SYNC_S3_REGION", f.Sync.S3Region, "us-east-1"),
		SyncS3Key:      envOr("FORMREC_SYNC_S3_KEY", f.Sync.S3Key, "formrec/records.jsonl"),
		SyncGitRepo:    envOr("FORMREC_SYNC_GIT_REPO", f.Sync.GitRepo, ""),
		SyncGitFile:    envOr("FORMREC_SYNC_GIT_FILE", f.Sync.GitFile, "records.jsonl"),
		SyncGitBranch:  envOr("FORMREC_SYNC_GIT_BRANCH", f.Sync.GitBranch, "main"),
		Schemas:        f.Schemas,
	}

	timeout, err := parseDuration("FORMREC_TIMEOUT", envOr("FORMREC_TIMEOUT", f.Timeout, "30s"))
	if err != nil {
		return nil, err
	}
	c.Timeout = timeout

	interval, err := parseDuration("FORMREC_SYNC_INTERVAL", envOr("FORMREC_SYNC_INTERVAL", f.Sync.Interval, "0s"))
	if err != nil {
		return nil, err
	}
	c.SyncInterval = interval

	return c, nil
}

// Save writes f to path as TOML, creating the parent directory.
func Save(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(out).Encode(f); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

// Validate checks the settings needed to reach the remote record store.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("FORMREC_API_KEY is required")
	}
	if c.BaseID == "" {
		return fmt.Errorf("FORMREC_BASE_ID is required")
	}
	if c.Table == "" {
		return fmt.Errorf("FORMREC_TABLE must not be empty")
	}
	return nil
}

// Schema returns the schema named name, ignoring case, preferring ones
// declared in the config file over the built-ins.
func (c *Config) Schema(name string) (model.Schema, bool) {
	for _, s := range c.Schemas {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return model.SchemaFor(name)
}

func parseDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// envOr returns the env value for key, else fileVal, else fallback.
func envOr(key, fileVal, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return fallback
}
