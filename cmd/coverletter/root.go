package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/cover-letter-generator/internal/config"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/store"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

var (
	cfgPath   string
	verbose   bool
	storeKind string
	storePath string
)

var rootCmd = &cobra.Command{
	Use:   "coverletter",
	Short: "Generate tailored cover letter PDFs with any LLM provider",
	Long: `coverletter drafts a cover letter for a job posting from your resume profile,
using whichever LLM provider your API key belongs to, and renders it as a PDF.

Settings are resolved in this order: flags, environment, config file (--config), defaults.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed progress and debug logs")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Store backend: file, sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Path of the file or sqlite store")
}

// loadSettings resolves the configuration from defaults, the config file,
// the environment and the persistent flags, in rising precedence.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if cfgPath != "" {
		loaded, err := config.LoadConfig(cfgPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("store") {
		cfg.Store.Kind = storeKind
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = storePath
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setupLogger logs to w at info level, or debug when verbose.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newClient builds the provider client with any endpoint overrides from cfg.
func newClient(cfg config.Config, logger *slog.Logger) (*llm.Client, error) {
	registry, err := cfg.ProviderRegistry()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(registry, llm.WithLogger(logger)), nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Kind, err)
	}
	return st, nil
}

// readProfileFile reads a resume profile from JSON, or YAML for .yaml/.yml.
func readProfileFile(path string) (*types.ResumeProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile types.ResumeProfile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &profile)
	default:
		err = json.Unmarshal(data, &profile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s is incomplete: %w", path, err)
	}
	return &profile, nil
}

// maskKey shows only the first and last four characters of a credential.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
