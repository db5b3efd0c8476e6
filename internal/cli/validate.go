package cli

import (
	"github.com/spf13/cobra"

	"tailorpro/internal/actions"
	"tailorpro/internal/common"
)

var validateCmd = &cobra.Command{
	Use:   "validate <profile.json>",
	Short: "Normalize and validate a profile without calling the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var validateConfig common.CommandConfig

func init() {
	addOutputFlags(validateCmd, &validateConfig)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := getLoggerFromContext(ctx)

	p, err := common.NewFileProcessor(logger).ReadProfile(args[0])
	if err != nil {
		return err
	}

	// validation needs no model, so no client is built
	result, err := actions.New(nil, logger).ValidateProfile(ctx, p)
	if err != nil {
		return err
	}
	return outputHandler(cmd).HandleOutput(result, validateConfig)
}
