package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter-generator/internal/ingestion"
	"github.com/jonathan/cover-letter-generator/internal/observability"
	"github.com/jonathan/cover-letter-generator/internal/parsing"
	"github.com/jonathan/cover-letter-generator/internal/store"
)

var (
	parseOut    string
	parseNoSave bool
	parseAPIKey string
)

var parseResumeCmd = &cobra.Command{
	Use:   "parse-resume <file>",
	Short: "Extract a resume profile from a PDF or text resume",
	Long: `Reads a resume (.pdf, .txt or .md), asks the provider to extract a structured
profile, and saves it for generate. Use --out to also write the profile as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runParseResume,
}

func init() {
	parseResumeCmd.Flags().StringVar(&parseOut, "out", "", "Write the parsed profile JSON to this path")
	parseResumeCmd.Flags().BoolVar(&parseNoSave, "no-save", false, "Do not save the profile in the store")
	parseResumeCmd.Flags().StringVar(&parseAPIKey, "api-key", "", "Provider API key (defaults to COVERLETTER_API_KEY or the saved key)")
	rootCmd.AddCommand(parseResumeCmd)
}

func runParseResume(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = parseAPIKey
	}

	ctx := cmd.Context()
	if timeout := cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	resumeText, err := ingestion.ReadResumeFile(args[0])
	if err != nil {
		return err
	}

	var st store.Store
	open := func() (store.Store, error) {
		if st == nil {
			opened, err := openStore(ctx, cfg)
			if err != nil {
				return nil, err
			}
			st = opened
		}
		return st, nil
	}
	defer func() {
		if st != nil {
			_ = st.Close()
		}
	}()

	key, provider, err := resolveCredential(ctx, cfg, open)
	if err != nil {
		return err
	}
	target := client.AutoTarget(key, cfg.Model)
	if provider != "" {
		if target, err = client.Target(provider, key, cfg.Model); err != nil {
			return err
		}
	}
	logger.Debug("parsing resume", "file", args[0], "provider", target.Provider, "chars", len(resumeText))

	profile, err := parsing.NewResumeParser(client, target, logger).ParseResume(ctx, resumeText)
	if err != nil {
		return err
	}

	if parseOut != "" {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		if err := os.WriteFile(parseOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
	}

	if !parseNoSave {
		s, err := open()
		if err != nil {
			return err
		}
		if err := s.SaveProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintProfile(profile)
	if !parseNoSave {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Profile saved.")
	}
	return nil
}
