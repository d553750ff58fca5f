// Package store persists the provider credential and the resume profile
// between runs. Backends: a JSON file, SQLite and PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/cover-letter-generator/internal/config"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

var (
	// ErrNotFound is returned when nothing has been saved yet.
	ErrNotFound = errors.New("not found")
	// ErrPassphraseRequired is returned when a sealed credential is loaded without a passphrase.
	ErrPassphraseRequired = errors.New("credential is sealed; a passphrase is required")
)

// Credential is a saved provider key.
type Credential struct {
	Key       string
	Provider  llm.ProviderID // empty means detect from Key
	UpdatedAt time.Time
}

// Store keeps one credential and one resume profile.
type Store interface {
	LoadCredential(ctx context.Context) (Credential, error)
	SaveCredential(ctx context.Context, cred Credential) error
	LoadProfile(ctx context.Context) (*types.ResumeProfile, error)
	SaveProfile(ctx context.Context, profile *types.ResumeProfile) error
	Close() error
}

// Open returns the backend named by cfg.Kind. An empty kind means the file store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Kind {
	case "", config.StoreFile:
		path := cfg.Path
		if path == "" {
			path = config.DefaultStorePath()
		}
		return NewFileStore(path, cfg.Passphrase), nil
	case config.StoreSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite store requires a path")
		}
		return NewSQLiteStore(ctx, cfg.Path, cfg.Passphrase)
	case config.StorePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, cfg.Passphrase)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

// storedCredential is the persisted form shared by every backend.
type storedCredential struct {
	Value     string    `json:"value"`
	Sealed    bool      `json:"sealed,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func encodeCredential(cred Credential, passphrase string) (storedCredential, error) {
	if cred.Key == "" {
		return storedCredential{}, fmt.Errorf("credential key is empty")
	}
	updated := cred.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	sc := storedCredential{Value: cred.Key, Provider: string(cred.Provider), UpdatedAt: updated}
	if passphrase != "" {
		sealed, err := Seal([]byte(cred.Key), passphrase)
		if err != nil {
			return storedCredential{}, err
		}
		sc.Value = sealed
		sc.Sealed = true
	}
	return sc, nil
}

func decodeCredential(sc storedCredential, passphrase string) (Credential, error) {
	key := sc.Value
	if sc.Sealed {
		if passphrase == "" {
			return Credential{}, ErrPassphraseRequired
		}
		plain, err := Unseal(sc.Value, passphrase)
		if err != nil {
			return Credential{}, err
		}
		key = string(plain)
	}
	return Credential{Key: key, Provider: llm.ProviderID(sc.Provider), UpdatedAt: sc.UpdatedAt}, nil
}

func marshalProfile(profile *types.ResumeProfile) ([]byte, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is nil")
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	return data, nil
}

func unmarshalProfile(data []byte) (*types.ResumeProfile, error) {
	var profile types.ResumeProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return &profile, nil
}
