package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/store"
)

// minKeyLength rejects obvious typos before anything is saved.
const minKeyLength = 10

var setKeyProvider string

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Save an API key for later runs",
	Long: `Saves the API key in the configured store. The provider is detected from the
key unless --provider is given. Set COVERLETTER_STORE_PASSPHRASE to encrypt it.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetKey,
}

func init() {
	setKeyCmd.Flags().StringVar(&setKeyProvider, "provider", "", "Provider id, when detection would pick the wrong one")
	rootCmd.AddCommand(setKeyCmd)
}

func runSetKey(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	if len(key) < minKeyLength {
		return fmt.Errorf("API key is too short (%d characters); check that it was pasted completely", len(key))
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	provider := client.Classify(key)
	if setKeyProvider != "" {
		if _, err := client.Registry().Resolve(llm.ProviderID(setKeyProvider)); err != nil {
			return err
		}
		provider = llm.ProviderID(setKeyProvider)
	}
	if !client.Registry().ValidateCredentialFormat(provider, key) {
		logger.Warn("key format does not match the provider", "provider", provider)
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	cred := store.Credential{Key: key, UpdatedAt: time.Now().UTC()}
	if setKeyProvider != "" {
		cred.Provider = provider
	}
	if err := st.SaveCredential(ctx, cred); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	name := string(provider)
	if d, ok := client.Registry().Get(provider); ok {
		name = d.DisplayName
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s key %s\n", name, maskKey(key))
	return nil
}
