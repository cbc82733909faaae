// Package config loads server settings from an optional docweave.yaml
// file with DOCWEAVE_* environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up next to the docs root
// when no explicit path is given.
const DefaultFile = "docweave.yaml"

const (
	defaultDocsDir     = "./docs"
	defaultLogLevel    = "info"
	defaultCacheSize   = 128
	defaultMaxDepth    = 3
	defaultSearchLimit = 10
)

// Config holds the server settings. Fields absent from the file keep
// their defaults; every field can be overridden by environment.
type Config struct {
	// DocsDir is the root directory of the document corpus.
	DocsDir string `yaml:"docs_dir"`
	// DataDir holds server state (the search index). Defaults to
	// .docweave under the docs root.
	DataDir string `yaml:"data_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// CacheSize is the document snapshot cache capacity.
	CacheSize int `yaml:"cache_size"`
	// Watch enables the filesystem watcher on the docs root.
	Watch bool `yaml:"watch"`
	// MaxDepth bounds relationship traversal.
	MaxDepth int `yaml:"max_depth"`
	// SearchLimit is the default search result count.
	SearchLimit int `yaml:"search_limit"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DocsDir:     defaultDocsDir,
		LogLevel:    defaultLogLevel,
		CacheSize:   defaultCacheSize,
		Watch:       true,
		MaxDepth:    defaultMaxDepth,
		SearchLimit: defaultSearchLimit,
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (if path is non-empty), then environment overrides. A missing
// explicit file is an error; pass "" to skip the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Lookup returns the path of the config file under dir, or "" if none
// exists there.
func Lookup(dir string) string {
	p := filepath.Join(dir, DefaultFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func (c *Config) applyEnv() {
	c.DocsDir = envOr("DOCWEAVE_DOCS_DIR", c.DocsDir)
	c.DataDir = envOr("DOCWEAVE_DATA_DIR", c.DataDir)
	c.LogLevel = envOr("DOCWEAVE_LOG_LEVEL", c.LogLevel)
	c.CacheSize = envInt("DOCWEAVE_CACHE_SIZE", c.CacheSize)
	c.Watch = envBool("DOCWEAVE_WATCH", c.Watch)
	c.MaxDepth = envInt("DOCWEAVE_MAX_DEPTH", c.MaxDepth)
	c.SearchLimit = envInt("DOCWEAVE_SEARCH_LIMIT", c.SearchLimit)
}

func (c *Config) normalize() {
	if c.DocsDir == "" {
		c.DocsDir = defaultDocsDir
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(c.DocsDir, ".docweave")
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = defaultSearchLimit
	}
}

// Validate rejects settings no component could run with.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// IndexPath returns the location of the search index database.
func (c Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// SlogLevel maps the configured level onto slog's levels.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
