package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter-generator/internal/config"
	"github.com/jonathan/cover-letter-generator/internal/ingestion"
	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/observability"
	"github.com/jonathan/cover-letter-generator/internal/pipeline"
	"github.com/jonathan/cover-letter-generator/internal/store"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a cover letter PDF for a job posting",
	Long: `Reads a job posting from a file (--job-file, "-" for stdin) or URL (--job-url),
drafts a cover letter from your resume profile, and writes
CoverLetter_<name>_<company>_<role>_<YYYYMMDD>.pdf to the output directory.

The API key comes from --api-key, COVERLETTER_API_KEY, the config file, or the
key saved with set-key. The profile comes from --profile or the one saved by parse-resume.`,
	RunE: runGenerate,
}

var (
	genJobFile    string
	genJobURL     string
	genProfile    string
	genAPIKey     string
	genProvider   string
	genModel      string
	genOutputDir  string
	genFontSize   float64
	genUseBrowser bool
	genTimeout    time.Duration
	genDate       string
)

func init() {
	generateCmd.Flags().StringVarP(&genJobFile, "job-file", "j", "", `Path to the job posting text ("-" reads stdin)`)
	generateCmd.Flags().StringVar(&genJobURL, "job-url", "", "URL to fetch the job posting from")
	generateCmd.Flags().StringVarP(&genProfile, "profile", "p", "", "Resume profile JSON or YAML (defaults to the saved profile)")
	generateCmd.Flags().StringVar(&genAPIKey, "api-key", "", "Provider API key (defaults to COVERLETTER_API_KEY or the saved key)")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "Provider id; detected from the key when empty")
	generateCmd.Flags().StringVar(&genModel, "model", "", "Model name; provider default when empty")
	generateCmd.Flags().StringVarP(&genOutputDir, "output-dir", "o", "", "Directory for the PDF (default: current directory)")
	generateCmd.Flags().Float64Var(&genFontSize, "font-size", 0, "Body font size in points (default 12)")
	generateCmd.Flags().BoolVar(&genUseBrowser, "use-browser", false, "Render the job page in headless Chrome when the fetched text is too short")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 0, "Overall timeout (default from config, 3m)")
	generateCmd.Flags().StringVar(&genDate, "date", "", "Letter date as YYYY-MM-DD (default today)")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if genJobFile == "" && genJobURL == "" {
		return fmt.Errorf("either --job-file or --job-url must be provided")
	}
	if genJobFile != "" && genJobURL != "" {
		return fmt.Errorf("--job-file and --job-url are mutually exclusive; provide only one")
	}

	var date time.Time
	if genDate != "" {
		date, err = time.Parse(time.DateOnly, genDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", genDate)
		}
	}

	ctx := cmd.Context()
	if timeout := cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	printer := observability.NewPrinter(cmd.ErrOrStderr())

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	// The store is only opened when the key or profile has to come from it.
	var st store.Store
	needStore := func() (store.Store, error) {
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

	key, provider, err := resolveCredential(ctx, cfg, needStore)
	if err != nil {
		return err
	}
	profile, err := resolveProfile(ctx, cfg, needStore)
	if err != nil {
		return err
	}

	jobText, err := readJob(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		target := client.AutoTarget(key, cfg.Model)
		rule := "explicit"
		if provider == "" {
			_, rule = client.Explain(key)
		} else {
			target.Provider = provider
		}
		printer.PrintProvider(target, rule)
	}

	runner := pipeline.NewRunner(client,
		pipeline.WithLogger(logger),
		pipeline.WithLayout(layout.Config{Geometry: layout.USLetter(), Typography: layout.DefaultTypography(cfg.FontSize)}),
		pipeline.WithProgress(func(e pipeline.ProgressEvent) {
			logger.Debug(e.Message, "step", e.Step, "run_id", e.RunID)
		}),
	)

	result, err := runner.Run(ctx, pipeline.Request{
		JobText:    jobText,
		Profile:    profile,
		Credential: key,
		Provider:   provider,
		Model:      cfg.Model,
		Date:       date,
	})
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printer.PrintJobInfo(result.JobInfo)
		printer.PrintLayout(result.Document)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(cfg.OutputDir, result.FileName)
	if err := os.WriteFile(path, result.PDF, 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cover letter written to %s (%d page(s), %s)\n",
		path, len(result.Document.Pages), result.Target.Provider)
	return nil
}

func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("profile") {
		cfg.Profile = genProfile
	}
	if flags.Changed("api-key") {
		cfg.APIKey = genAPIKey
	}
	if flags.Changed("provider") {
		cfg.Provider = genProvider
	}
	if flags.Changed("model") {
		cfg.Model = genModel
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = genOutputDir
	}
	if flags.Changed("font-size") {
		cfg.FontSize = genFontSize
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = genUseBrowser
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = int(genTimeout.Seconds())
	}
}

// resolveCredential returns the configured key, or the stored one. The provider
// is empty when it should be detected from the key.
func resolveCredential(ctx context.Context, cfg config.Config, open func() (store.Store, error)) (string, llm.ProviderID, error) {
	provider := llm.ProviderID(cfg.Provider)
	if cfg.APIKey != "" {
		return cfg.APIKey, provider, nil
	}

	st, err := open()
	if err != nil {
		return "", "", err
	}
	cred, err := st.LoadCredential(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", "", fmt.Errorf("no API key: pass --api-key, set %s, or save one with 'coverletter set-key'", config.EnvAPIKey)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load saved API key: %w", err)
	}
	if provider == "" {
		provider = cred.Provider
	}
	return cred.Key, provider, nil
}

func resolveProfile(ctx context.Context, cfg config.Config, open func() (store.Store, error)) (*types.ResumeProfile, error) {
	if cfg.Profile != "" {
		return readProfileFile(cfg.Profile)
	}

	st, err := open()
	if err != nil {
		return nil, err
	}
	profile, err := st.LoadProfile(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no resume profile: pass --profile or run 'coverletter parse-resume' first")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved profile: %w", err)
	}
	return profile, nil
}

func readJob(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *slog.Logger) (string, error) {
	var (
		text string
		meta *ingestion.Metadata
		err  error
	)
	switch {
	case genJobFile == "-":
		text, meta, err = ingestion.FromReader(cmd.InOrStdin(), "stdin")
	case genJobFile != "":
		text, meta, err = ingestion.FromFile(genJobFile)
	default:
		text, meta, err = ingestion.FromURL(ctx, genJobURL, ingestion.URLOptions{UseBrowser: cfg.UseBrowser, Logger: logger})
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job posting: %w", err)
	}
	logger.Debug("job posting loaded", "source", meta.Kind, "location", meta.Location, "chars", meta.Chars, "hash", meta.Hash)
	return text, nil
}
