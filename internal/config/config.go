// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/cover-letter-generator/internal/llm"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

const (
	// DefaultTimeoutSeconds bounds a whole generate run.
	DefaultTimeoutSeconds = 180
	// DefaultServerAddr is where `serve` listens. Other interfaces must be
	// chosen explicitly.
	DefaultServerAddr = "127.0.0.1:8080"
	// MaxFontSize is the largest accepted body font size in points.
	MaxFontSize = 72
)

// Config is the file configuration. It is read from JSON, or from YAML when the
// file ends in .yaml or .yml. All fields are optional.
type Config struct {
	// Provider
	APIKey    string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Provider  string            `json:"provider,omitempty" yaml:"provider,omitempty"` // empty means detect from the key
	Model     string            `json:"model,omitempty" yaml:"model,omitempty"`
	Endpoints map[string]string `json:"endpoints,omitempty" yaml:"endpoints,omitempty"` // provider id -> endpoint override

	// Inputs and outputs
	Profile   string  `json:"profile,omitempty" yaml:"profile,omitempty"` // path to a resume profile JSON/YAML
	OutputDir string  `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	FontSize  float64 `json:"font_size,omitempty" yaml:"font_size,omitempty"`

	// Behavior
	TimeoutSeconds int  `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	UseBrowser     bool `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`
	Verbose        bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	Store  StoreConfig  `json:"store,omitempty" yaml:"store,omitempty"`
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`
}

// StoreConfig selects where credentials and profiles are kept.
type StoreConfig struct {
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"` // file or sqlite path
	Passphrase  string `json:"passphrase,omitempty" yaml:"passphrase,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr               string `json:"addr,omitempty" yaml:"addr,omitempty"`
	AllowedOrigin      string `json:"allowed_origin,omitempty" yaml:"allowed_origin,omitempty"`
	JWTSecret          string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty" yaml:"jwt_expiration_hours,omitempty"`
}

// LoadConfig loads configuration from a JSON or YAML file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		OutputDir:      ".",
		FontSize:       12,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Store: StoreConfig{
			Kind: StoreFile,
			Path: DefaultStorePath(),
		},
		Server: ServerConfig{
			Addr:               DefaultServerAddr,
			AllowedOrigin:      "*",
			JWTExpirationHours: DefaultJWTExpirationHours,
		},
	}
}

// DefaultStorePath is the file store location under the user config directory,
// or a relative file when that directory is unknown.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "cover-letter-store.json"
	}
	return filepath.Join(dir, "cover-letter-generator", "store.json")
}

// Validate checks that the configuration has valid values.
// Required inputs are checked by the commands after merging.
func (c *Config) Validate() error {
	registry := llm.DefaultRegistry()

	if c.Provider != "" {
		if _, ok := registry.Get(llm.ProviderID(c.Provider)); !ok {
			return fmt.Errorf("config error: unknown provider %q (known: %s)", c.Provider, joinIDs(registry.IDs()))
		}
	}
	for id, endpoint := range c.Endpoints {
		if _, ok := registry.Get(llm.ProviderID(id)); !ok {
			return fmt.Errorf("config error: endpoint override for unknown provider %q", id)
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config error: endpoint for %q must be an absolute http(s) URL", id)
		}
	}

	if c.FontSize < 0 || c.FontSize > MaxFontSize {
		return fmt.Errorf("config error: 'font_size' must be between 0 and %d", MaxFontSize)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.Server.JWTExpirationHours < 0 {
		return fmt.Errorf("config error: 'server.jwt_expiration_hours' must be non-negative")
	}

	switch c.Store.Kind {
	case "", StoreFile, StoreSQLite:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config error: 'store.database_url' is required for the postgres store")
		}
	default:
		return fmt.Errorf("config error: unknown store kind %q (use file, sqlite or postgres)", c.Store.Kind)
	}

	if c.Profile != "" {
		if _, err := os.Stat(c.Profile); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.Profile)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Booleans cannot be told apart from unset, so they are OR-ed.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.Provider, defaults.Provider)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.Profile, defaults.Profile)
	mergeString(&result.OutputDir, defaults.OutputDir)
	mergeString(&result.Store.Kind, defaults.Store.Kind)
	mergeString(&result.Store.Path, defaults.Store.Path)
	mergeString(&result.Store.Passphrase, defaults.Store.Passphrase)
	mergeString(&result.Store.DatabaseURL, defaults.Store.DatabaseURL)
	mergeString(&result.Server.Addr, defaults.Server.Addr)
	mergeString(&result.Server.AllowedOrigin, defaults.Server.AllowedOrigin)
	mergeString(&result.Server.JWTSecret, defaults.Server.JWTSecret)

	if result.FontSize == 0 {
		result.FontSize = defaults.FontSize
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.Server.JWTExpirationHours == 0 {
		result.Server.JWTExpirationHours = defaults.Server.JWTExpirationHours
	}

	if len(defaults.Endpoints) > 0 {
		merged := make(map[string]string, len(defaults.Endpoints)+len(c.Endpoints))
		for k, v := range defaults.Endpoints {
			merged[k] = v
		}
		for k, v := range c.Endpoints {
			merged[k] = v
		}
		result.Endpoints = merged
	}

	result.UseBrowser = c.UseBrowser || defaults.UseBrowser
	result.Verbose = c.Verbose || defaults.Verbose
	return result
}

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey          = "COVERLETTER_API_KEY"
	EnvProvider        = "COVERLETTER_PROVIDER"
	EnvModel           = "COVERLETTER_MODEL"
	EnvStorePassphrase = "COVERLETTER_STORE_PASSPHRASE"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvJWTSecret       = "JWT_SECRET"
	EnvJWTExpiration   = "JWT_EXPIRATION_HOURS"
)

// ApplyEnv overrides fields with any set environment variables. lookup is
// usually os.LookupEnv. Setting DATABASE_URL also selects the postgres store.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.APIKey, EnvAPIKey)
	set(&c.Provider, EnvProvider)
	set(&c.Model, EnvModel)
	set(&c.Store.Passphrase, EnvStorePassphrase)
	set(&c.Server.JWTSecret, EnvJWTSecret)
	if v, ok := lookup(EnvDatabaseURL); ok && v != "" {
		c.Store.DatabaseURL = v
		c.Store.Kind = StorePostgres
	}
	if v, ok := lookup(EnvJWTExpiration); ok && v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvJWTExpiration, err)
		}
		c.Server.JWTExpirationHours = hours
	}
	return nil
}

// Timeout returns the run timeout, or zero for none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProviderRegistry returns the default registry with the configured endpoint overrides applied.
func (c *Config) ProviderRegistry() (*llm.Registry, error) {
	registry := llm.DefaultRegistry()
	ids := make([]string, 0, len(c.Endpoints))
	for id := range c.Endpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		next, err := registry.WithEndpoint(llm.ProviderID(id), c.Endpoints[id])
		if err != nil {
			return nil, fmt.Errorf("failed to override endpoint for %s: %w", id, err)
		}
		registry = next
	}
	return registry, nil
}

func mergeString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func joinIDs(ids []llm.ProviderID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
