package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// SourceKind says where ingested text came from.
type SourceKind string

const (
	SourceFile   SourceKind = "file"
	SourceURL    SourceKind = "url"
	SourceReader SourceKind = "reader"
	SourceInline SourceKind = "inline"
)

// Metadata describes one piece of ingested text.
type Metadata struct {
	Kind      SourceKind `json:"kind"`
	Location  string     `json:"location,omitempty"`
	Platform  string     `json:"platform,omitempty"`
	Timestamp string     `json:"timestamp"` // RFC3339
	Hash      string     `json:"hash"`      // SHA256 hex digest of the cleaned text
	Chars     int        `json:"chars"`
}

// NewMetadata records content from location.
func NewMetadata(kind SourceKind, location, content string) *Metadata {
	return &Metadata{
		Kind:      kind,
		Location:  location,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Chars:     len([]rune(content)),
	}
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals the metadata as indented JSON.
func (m *Metadata) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return data, nil
}
