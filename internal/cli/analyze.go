package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tailorpro/internal/actions"
	"tailorpro/internal/common"
	"tailorpro/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <job-description-file>",
	Short: "List the skills, qualifications and keywords a job posting asks for",
	Long: `Analyze a job posting. The file may be plain text, Markdown or HTML;
HTML is converted to Markdown before it is sent to the model.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	cred := resolveCredential()
	if err := cred.Require(); err != nil {
		return err
	}

	d, _, err := newDispatcher(cfg, logger, actions.NopRecorder{})
	if err != nil {
		return err
	}

	return common.RunFileAction(cmd.Context(), logger, cmd.OutOrStdout(), analyzeConfig, args,
		func(ctx context.Context, contents []string) (types.JobAnalysis, error) {
			logger.Info("Analyzing job description", "job_chars", len(contents[0]))
			return d.AnalyzeJobDescription(ctx, cred, contents[0])
		})
}
