package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tailorpro/internal/actions"
	"tailorpro/internal/common"
	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/profile"
	"tailorpro/internal/storage"
)

var parseCmd = &cobra.Command{
	Use:   "parse <resume.pdf|resume.docx|s3://bucket/key>",
	Short: "Extract a structured profile from a resume",
	Long: `Parse a PDF or DOCX resume (5 MiB limit) into a structured profile.

The resume may be a local file or an s3:// location when storage.s3 is
configured. The profile in the output can be edited and passed to the
generate commands.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var parseConfig common.CommandConfig

func init() {
	addOutputFlags(parseCmd, &parseConfig)
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	cred := resolveCredential()
	if err := cred.Require(); err != nil {
		return err
	}

	dataURI, err := loadResume(ctx, cfg, logger, args[0])
	if err != nil {
		return err
	}

	d, _, err := newDispatcher(cfg, logger, actions.NopRecorder{})
	if err != nil {
		return err
	}

	logger.Info("Parsing resume", "source", args[0])
	result, err := d.ParseResume(ctx, cred, dataURI)
	if err != nil {
		return err
	}
	return outputHandler(cmd).HandleOutput(result, parseConfig)
}

// loadResume reads a local file or an s3:// object as a data URI.
func loadResume(ctx context.Context, cfg *config.Config, logger *errors.Logger, source string) (string, error) {
	if !storage.IsURL(source) {
		return profile.ReadResumeFile(source, cfg.App.MaxResumeSize)
	}

	store, err := storage.New(ctx, cfg.Storage.S3, cfg.App.MaxResumeSize, logger)
	if err != nil {
		return "", err
	}
	return store.FetchURL(ctx, source)
}
