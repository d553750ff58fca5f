package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

// PostgresStore keeps the credential and profile as JSONB rows.
type PostgresStore struct {
	pool       *pgxpool.Pool
	passphrase string
}

// NewPostgresStore connects to databaseURL and ensures the settings table exists.
func NewPostgresStore(ctx context.Context, databaseURL, passphrase string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres store requires a database URL")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS cover_letter_settings (
		name       TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &PostgresStore{pool: pool, passphrase: passphrase}, nil
}

func (s *PostgresStore) LoadCredential(ctx context.Context) (Credential, error) {
	data, err := s.get(ctx, keyCredential)
	if err != nil {
		return Credential{}, err
	}
	var sc storedCredential
	if err := json.Unmarshal(data, &sc); err != nil {
		return Credential{}, fmt.Errorf("failed to decode stored credential: %w", err)
	}
	return decodeCredential(sc, s.passphrase)
}

func (s *PostgresStore) SaveCredential(ctx context.Context, cred Credential) error {
	sc, err := encodeCredential(cred, s.passphrase)
	if err != nil {
		return err
	}
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	return s.put(ctx, keyCredential, data)
}

func (s *PostgresStore) LoadProfile(ctx context.Context) (*types.ResumeProfile, error) {
	data, err := s.get(ctx, keyProfile)
	if err != nil {
		return nil, err
	}
	return unmarshalProfile(data)
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile *types.ResumeProfile) error {
	data, err := marshalProfile(profile)
	if err != nil {
		return err
	}
	return s.put(ctx, keyProfile, data)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) get(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM cover_letter_settings WHERE name = $1`, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return value, nil
}

func (s *PostgresStore) put(ctx context.Context, name string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cover_letter_settings (name, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (name) DO UPDATE SET value = $2, updated_at = NOW()`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}
