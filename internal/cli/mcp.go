package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tailorpro/internal/errors"
	"tailorpro/internal/mcpserver"
	"tailorpro/internal/observability"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the actions as MCP tools over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout. The Gemini key given
with --gemini-key (or GEMINI_API_KEY) at start is used for every tool call.
Logs go to stderr.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)

	// stdout carries the protocol
	logger, err := errors.NewWithWriter(cfg.App.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	cred := resolveCredential()
	if cred.IsZero() {
		logger.Warn("No Gemini API key configured; model tools will fail with MISSING_CREDENTIAL",
			"env", CredentialEnv)
	}

	om, err := observability.NewManager(cfg.Observability, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer shutdownObservability(om, logger)

	dispatcher, _, err := newDispatcher(cfg, logger, om)
	if err != nil {
		return err
	}

	var opts []mcpserver.Option
	store, err := optionalStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		opts = append(opts, mcpserver.WithStorage(store))
	}

	promptWatcher, err := startPromptWatcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to watch prompt files: %w", err)
	}
	defer stopWatcher(promptWatcher, logger)

	return mcpserver.New(dispatcher, cred, Version, logger, opts...).Run(ctx)
}
