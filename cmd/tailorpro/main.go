package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tailorpro/internal/cli"
	"tailorpro/internal/config"
	"tailorpro/internal/errors"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := errors.NewWithWriter(cfg.App.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	vaultClient, err := config.ApplyVaultSecrets(cfg, logger)
	if err != nil {
		logger.LogError(err, "Failed to load secrets from Vault")
		os.Exit(1)
	}
	var secrets config.SecretReader
	if vaultClient != nil {
		secrets = vaultClient
	}

	logger.Debug("Starting tailorpro",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	if err := cli.Execute(ctx, cfg, logger, secrets); err != nil {
		logger.LogError(err, "Command failed")
		os.Exit(1)
	}
}
