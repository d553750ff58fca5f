package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/cover-letter-generator/internal/types"
	_ "modernc.org/sqlite"
)

const (
	keyCredential = "credential"
	keyProfile    = "profile"
)

// SQLiteStore keeps the credential and profile as JSON rows in a SQLite database.
type SQLiteStore struct {
	db         *sql.DB
	passphrase string
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// settings table exists.
func NewSQLiteStore(ctx context.Context, dbPath, passphrase string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// one writer keeps "database is locked" away
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	const createTable = `CREATE TABLE IF NOT EXISTS settings (
		name       TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &SQLiteStore{db: db, passphrase: passphrase}, nil
}

func (s *SQLiteStore) LoadCredential(ctx context.Context) (Credential, error) {
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

func (s *SQLiteStore) SaveCredential(ctx context.Context, cred Credential) error {
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

func (s *SQLiteStore) LoadProfile(ctx context.Context) (*types.ResumeProfile, error) {
	data, err := s.get(ctx, keyProfile)
	if err != nil {
		return nil, err
	}
	return unmarshalProfile(data)
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *types.ResumeProfile) error {
	data, err := marshalProfile(profile)
	if err != nil {
		return err
	}
	return s.put(ctx, keyProfile, data)
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, name string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return []byte(value), nil
}

func (s *SQLiteStore) put(ctx context.Context, name string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}
