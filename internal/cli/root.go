package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tailorpro/internal/actions"
	"tailorpro/internal/ai"
	"tailorpro/internal/common"
	"tailorpro/internal/config"
	"tailorpro/internal/errors"
)

// CredentialEnv is read when --gemini-key is not given.
const CredentialEnv = "GEMINI_API_KEY"

type configKeyType struct{}
type loggerKeyType struct{}
type secretsKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}
var secretsKey = secretsKeyType{}

var rootCmd = &cobra.Command{
	Use:   "tailorpro",
	Short: "Tailor resumes, cover letters and ATS scores to a job posting",
	Long: `tailorpro uses Google Gemini to parse a resume into a structured profile,
analyze a job posting, and generate a tailored resume, an ATS compatibility
score and a cover letter. It runs as a CLI, an HTTP API (serve) or an MCP
server (mcp).

Model commands need a Gemini API key: pass --gemini-key or set GEMINI_API_KEY.`,
	SilenceUsage: true,
}

var geminiKey string

// clientFactory builds model clients; nil means the Gemini API.
var clientFactory ai.ClientFactory

// Execute runs the root command. secrets may be nil when Vault is disabled.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger, secrets config.SecretReader) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	ctx = context.WithValue(ctx, secretsKey, secrets)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

func getSecretsFromContext(ctx context.Context) config.SecretReader {
	secrets, _ := ctx.Value(secretsKey).(config.SecretReader)
	return secrets
}

// resolveCredential returns the --gemini-key flag, else GEMINI_API_KEY. It
// is resolved once per command and passed explicitly from there on.
func resolveCredential() ai.Credential {
	key := strings.TrimSpace(geminiKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(CredentialEnv))
	}
	return ai.NewCredential(key)
}

// newDispatcher builds the model flows and the dispatcher around them.
func newDispatcher(cfg *config.Config, logger *errors.Logger, recorder actions.Recorder) (*actions.Dispatcher, *ai.Service, error) {
	svc, err := ai.NewService(cfg, clientFactory, logger)
	if err != nil {
		return nil, nil, err
	}
	d := actions.New(svc, logger,
		actions.WithRecorder(recorder),
		actions.WithMaxResumeSize(cfg.App.MaxResumeSize))
	return d, svc, nil
}

// addOutputFlags registers -o and --format and validates the format before
// the command runs.
func addOutputFlags(cmd *cobra.Command, out *common.CommandConfig) {
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&out.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if out.OutputFormat == "" {
			out.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(out.OutputFormat, cfg.App.SupportedFormats)
	}
}

func outputHandler(cmd *cobra.Command) *common.OutputHandler {
	return common.NewOutputHandler(getLoggerFromContext(cmd.Context())).WithWriter(cmd.OutOrStdout())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&geminiKey, "gemini-key", "", "Gemini API key (default $"+CredentialEnv+")")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
