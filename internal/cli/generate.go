package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tailorpro/internal/actions"
	"tailorpro/internal/ai"
	"tailorpro/internal/common"
	"tailorpro/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate tailored documents from a profile and a job posting",
	Long: `Generate a tailored resume, an ATS score, a cover letter, or all three.

Each subcommand takes a profile JSON file (as produced by parse) and a job
posting file. "all" succeeds only if all three generations succeed.`,
}

var generateConfig common.CommandConfig

type generateFunc[T any] func(d *actions.Dispatcher) func(ctx context.Context, cred ai.Credential, p types.UserProfile, jd string) (T, error)

func newGenerateCmd[T any](use, short string, pick generateFunc[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <profile.json> <job-description-file>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, pick)
		},
	}
	addOutputFlags(cmd, &generateConfig)
	return cmd
}

func runGenerate[T any](cmd *cobra.Command, args []string, pick generateFunc[T]) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	cred := resolveCredential()
	if err := cred.Require(); err != nil {
		return err
	}

	fp := common.NewFileProcessor(logger)
	p, err := fp.ReadProfile(args[0])
	if err != nil {
		return err
	}
	jd, err := fp.ReadFile(args[1])
	if err != nil {
		return err
	}

	d, _, err := newDispatcher(cfg, logger, actions.NopRecorder{})
	if err != nil {
		return err
	}

	logger.Info("Generating", "command", cmd.Name(), "profile", args[0], "job_chars", len(jd))
	result, err := pick(d)(ctx, cred, p, jd)
	if err != nil {
		return err
	}
	return outputHandler(cmd).HandleOutput(result, generateConfig)
}

func init() {
	generateCmd.AddCommand(
		newGenerateCmd[types.GeneratedResume]("resume", "Write a plain-text resume tailored to the posting",
			func(d *actions.Dispatcher) func(context.Context, ai.Credential, types.UserProfile, string) (types.GeneratedResume, error) {
				return d.GenerateResume
			}),
		newGenerateCmd[types.ATSScore]("ats", "Score the profile against the posting (0-100)",
			func(d *actions.Dispatcher) func(context.Context, ai.Credential, types.UserProfile, string) (types.ATSScore, error) {
				return d.CalculateATSScore
			}),
		newGenerateCmd[types.CoverLetter]("cover-letter", "Write a cover letter for the posting",
			func(d *actions.Dispatcher) func(context.Context, ai.Credential, types.UserProfile, string) (types.CoverLetter, error) {
				return d.GenerateCoverLetter
			}),
		newGenerateCmd[types.GenerationBundle]("all", "Generate the resume, ATS score and cover letter together",
			func(d *actions.Dispatcher) func(context.Context, ai.Credential, types.UserProfile, string) (types.GenerationBundle, error) {
				return d.GenerateAll
			}),
	)
}
