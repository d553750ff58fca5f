package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit for one route. A Path ending in "/" matches by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity; 0 means Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	IdleTTL         time.Duration // buckets unused this long are dropped
	Allow           map[string]bool
	Deny            map[string]bool
	EndpointConfigs []EndpointConfig
}

// Environment variables read by LoadConfig.
const (
	EnvEnabled       = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit  = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvGenerateLimit = "RATE_LIMIT_GENERATE_PER_HOUR"
	EnvAllowList     = "RATE_LIMIT_ALLOWLIST"
	EnvDenyList      = "RATE_LIMIT_DENYLIST"
)

// DefaultConfig returns the built-in limits.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		IdleTTL:         time.Hour,
		Allow:           map[string]bool{},
		Deny:            map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(30),
	}
}

// LoadConfig returns DefaultConfig adjusted by environment variables.
// Unparseable values keep the default.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = envBool(EnvEnabled, cfg.Enabled)
	cfg.DefaultLimit = envInt(EnvDefaultLimit, cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration(EnvDefaultWindow, cfg.DefaultWindow)
	cfg.EndpointConfigs = DefaultEndpointConfigs(envInt(EnvGenerateLimit, 30))
	cfg.Allow = parseIPList(os.Getenv(EnvAllowList))
	cfg.Deny = parseIPList(os.Getenv(EnvDenyList))
	return cfg
}

// DefaultEndpointConfigs returns the per-route limits. Generation calls a paid
// provider API and gets generatePerHour requests per hour with a burst of 3.
func DefaultEndpointConfigs(generatePerHour int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/cover-letters", Method: http.MethodPost, Limit: generatePerHour, Window: time.Hour, Burst: 3},
		{Path: "/cover-letters/stream", Method: http.MethodPost, Limit: generatePerHour, Window: time.Hour, Burst: 3},
		{Path: "/detect", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/health", Method: http.MethodGet, Limit: 0},
	}
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
