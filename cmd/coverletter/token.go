package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter-generator/internal/config"
	"github.com/jonathan/cover-letter-generator/internal/server"
)

var (
	tokenName     string
	tokenClientID string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the HTTP API",
	Long:  `Signs a token with JWT_SECRET (or server.jwt_secret in the config file) for clients of serve.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Client name recorded in the token")
	tokenCmd.Flags().StringVar(&tokenClientID, "client-id", "", "Client UUID (default: a new random one)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	jwtCfg, err := config.JWTConfigFrom(cfg.Server)
	if err != nil {
		return err
	}
	if jwtCfg == nil {
		return fmt.Errorf("no JWT secret: set %s or server.jwt_secret", config.EnvJWTSecret)
	}

	clientID := uuid.New()
	if tokenClientID != "" {
		clientID, err = uuid.Parse(tokenClientID)
		if err != nil {
			return fmt.Errorf("invalid --client-id: %w", err)
		}
	}

	token, err := server.NewJWTService(jwtCfg).GenerateToken(clientID, tokenName)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
