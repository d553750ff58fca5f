package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/observability"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported LLM providers",
	Long: `Lists every provider with its display name and default model. When an API key
is configured the provider it belongs to is marked.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "Print the list as JSON")
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	registry, err := cfg.ProviderRegistry()
	if err != nil {
		return err
	}
	list := registry.List()

	if providersJSON {
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal providers: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	var detected llm.ProviderID
	if cfg.APIKey != "" {
		detected = llm.NewClient(registry).Classify(cfg.APIKey)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintProviders(list, detected)
	return nil
}
