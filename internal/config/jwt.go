package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultJWTExpirationHours is used when no expiration is configured.
const DefaultJWTExpirationHours = 24

// JWTConfig holds configuration for signing and checking API tokens.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig creates a JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv(EnvJWTSecret)
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	hours := DefaultJWTExpirationHours
	if v := os.Getenv(EnvJWTExpiration); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		hours = parsed
	}

	cfg := &JWTConfig{Secret: secret, ExpirationHours: hours}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// JWTConfigFrom builds a JWT configuration from server settings. It returns
// (nil, nil) when no secret is set, meaning authentication is disabled.
func JWTConfigFrom(server ServerConfig) (*JWTConfig, error) {
	if server.JWTSecret == "" {
		return nil, nil
	}
	hours := server.JWTExpirationHours
	if hours == 0 {
		hours = DefaultJWTExpirationHours
	}
	cfg := &JWTConfig{Secret: server.JWTSecret, ExpirationHours: hours}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
