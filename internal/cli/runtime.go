package cli

import (
	"context"
	"time"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/observability"
	"tailorpro/internal/storage"
	"tailorpro/internal/watch"
)

const observabilityShutdownTimeout = 5 * time.Second

// startPromptWatcher reloads prompt files into the store when they change.
// It returns nil when watching is off or no prompt comes from a file.
func startPromptWatcher(cfg *config.Config, logger *errors.Logger) (*watch.FileWatcher, error) {
	store := cfg.PromptStore()
	files := store.Files()
	if !cfg.Prompts.Watch || len(files) == 0 {
		return nil, nil
	}

	w, err := watch.New("prompts", files, cfg.Prompts.DebounceDelay, func(changed []string) {
		for _, path := range changed {
			if _, err := store.Reload(path); err != nil {
				logger.LogError(err, "Failed to reload prompt file", "path", path)
			}
		}
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	logger.Info("Watching prompt files", "count", len(files))
	return w, nil
}

// optionalStorage returns nil when S3 storage is disabled.
func optionalStorage(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*storage.Store, error) {
	if !cfg.Storage.S3.Enabled {
		return nil, nil
	}
	return storage.New(ctx, cfg.Storage.S3, cfg.App.MaxResumeSize, logger)
}

func shutdownObservability(om *observability.Manager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shut down observability")
	}
}

func stopWatcher(w *watch.FileWatcher, logger *errors.Logger) {
	if w == nil {
		return
	}
	if err := w.Stop(); err != nil {
		logger.LogError(err, "Failed to stop file watcher")
	}
}
