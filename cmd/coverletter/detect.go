package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <api-key>",
	Short: "Show which provider an API key belongs to",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}

	key := strings.TrimSpace(args[0])
	id, rule := client.Explain(key)
	valid := client.Registry().ValidateCredentialFormat(id, key)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Key:      %s\n", maskKey(key))
	_, _ = fmt.Fprintf(out, "Provider: %s (%s)\n", client.DetectProviderName(key), id)
	_, _ = fmt.Fprintf(out, "Rule:     %s\n", rule)
	_, _ = fmt.Fprintf(out, "Format:   %s\n", formatVerdict(valid))
	return nil
}

func formatVerdict(valid bool) string {
	if valid {
		return "ok"
	}
	return "unexpected for this provider"
}
