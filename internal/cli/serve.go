package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tailorpro/internal/config"
	"tailorpro/internal/observability"
	"tailorpro/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing every action as a JSON endpoint.

Model endpoints read the caller's Gemini key from the X-Gemini-Key header
(server.credentialHeader). Server API keys, rate limiting, TLS and Vault key
rotation are configured under server.*.`,
	RunE: runServe,
}

var serveFlags struct {
	port     string
	host     string
	tlsMode  string
	certFile string
	keyFile  string
	caFile   string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

func applyServeOverrides(cmd *cobra.Command, srv *config.ServerConfig) {
	set := func(flag string, target *string, value string) {
		if cmd.Flags().Changed(flag) {
			*target = value
		}
	}
	set("port", &srv.Port, serveFlags.port)
	set("host", &srv.Host, serveFlags.host)
	set("tls-mode", &srv.TLS.Mode, serveFlags.tlsMode)
	set("cert-file", &srv.TLS.CertFile, serveFlags.certFile)
	set("key-file", &srv.TLS.KeyFile, serveFlags.keyFile)
	set("ca-file", &srv.TLS.CAFile, serveFlags.caFile)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeOverrides(cmd, &cfg.Server)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewManager(cfg.Observability, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer shutdownObservability(om, logger)

	dispatcher, svc, err := newDispatcher(cfg, logger, om)
	if err != nil {
		return err
	}

	store, err := optionalStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	promptWatcher, err := startPromptWatcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to watch prompt files: %w", err)
	}
	defer stopWatcher(promptWatcher, logger)

	srv := server.NewServer(cfg, Version, server.Deps{
		Dispatcher:    dispatcher,
		Health:        svc,
		Storage:       store,
		Observability: om,
		PromptWatcher: promptWatcher,
		Secrets:       getSecretsFromContext(ctx),
	}, logger)

	return srv.Start(ctx)
}
