package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/cover-letter-generator/internal/config"
	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/server"
	"github.com/jonathan/cover-letter-generator/internal/server/ratelimit"
	"github.com/jonathan/cover-letter-generator/internal/store"
)

var (
	serveAddr    string
	serveNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the cover letter API on 127.0.0.1:8080 unless --addr says otherwise.

When JWT_SECRET is set every route except /health and /providers requires a
bearer token (see the token command), and requests without an X-Provider-Key
header or profile fall back to the saved ones. Without JWT_SECRET the saved key
and profile are never used: every request must bring its own.

job_url may not point at loopback, private or link-local addresses.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default 127.0.0.1:8080)")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "Do not fall back to the saved key and profile")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	jwtCfg, err := config.JWTConfigFrom(cfg.Server)
	if err != nil {
		return err
	}
	if jwtCfg == nil {
		logger.Warn("JWT_SECRET is not set; the API is unauthenticated and the saved key and profile are not served")
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if !serveNoStore && jwtCfg != nil {
		st, err = openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		logger.Debug("store opened", "kind", cfg.Store.Kind)
	}

	srv, err := server.New(server.Options{
		Client:        client,
		Store:         st,
		JWT:           jwtCfg,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Layout:        layout.Config{Geometry: layout.USLetter(), Typography: layout.DefaultTypography(cfg.FontSize)},
		UseBrowser:    cfg.UseBrowser,
		RunTimeout:    cfg.Timeout(),
		RateLimit:     ratelimit.LoadConfig(),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
