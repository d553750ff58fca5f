package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jonathan/cover-letter-generator/internal/fetch"
)

// ErrEmptyInput is returned when a source yields no text after cleaning.
var ErrEmptyInput = errors.New("input is empty")

// MaxReaderBytes caps how much is read from a file or reader.
const MaxReaderBytes = 10 << 20

// URLOptions configures FromURL.
type URLOptions struct {
	Fetch      *fetch.Options
	UseBrowser bool
	Logger     *slog.Logger
}

// FromFile reads a job posting from a text file.
func FromFile(path string) (string, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer func() { _ = f.Close() }()

	text, meta, err := FromReader(f, path)
	if err != nil {
		return "", nil, err
	}
	meta.Kind = SourceFile
	return text, meta, nil
}

// FromReader reads a job posting from r. label names the source in metadata.
func FromReader(r io.Reader, label string) (string, *Metadata, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxReaderBytes))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read input: %w", err)
	}
	return fromText(SourceReader, label, string(data))
}

// FromString cleans job posting text supplied directly.
func FromString(text string) (string, *Metadata, error) {
	return fromText(SourceInline, "", text)
}

// FromURL fetches a job posting page and extracts its text.
func FromURL(ctx context.Context, rawURL string, opts URLOptions) (string, *Metadata, error) {
	text, platform, err := fetch.JobPosting(ctx, rawURL, opts.Fetch, opts.UseBrowser, opts.Logger)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch job posting: %w", err)
	}
	cleaned, meta, err := fromText(SourceURL, rawURL, text)
	if err != nil {
		return "", nil, err
	}
	meta.Platform = string(platform)
	return cleaned, meta, nil
}

func fromText(kind SourceKind, location, text string) (string, *Metadata, error) {
	cleaned := CleanText(text)
	if strings.TrimSpace(cleaned) == "" {
		return "", nil, ErrEmptyInput
	}
	return cleaned, NewMetadata(kind, location, cleaned), nil
}
