package common

import (
	"context"
	"io"

	"tailorpro/internal/errors"
)

// ActionFunc runs one dispatcher action on the contents of the command's
// input files.
type ActionFunc[Output any] func(ctx context.Context, contents []string) (Output, error)

// RunFileAction reads args as text files, runs action on their contents and
// writes the formatted result.
func RunFileAction[Output any](
	ctx context.Context,
	logger *errors.Logger,
	out io.Writer,
	cmdConfig CommandConfig,
	args []string,
	action ActionFunc[Output],
) error {
	contents, err := NewFileProcessor(logger).ReadTextFiles(args...)
	if err != nil {
		return err
	}

	result, err := action(ctx, contents)
	if err != nil {
		return err
	}

	return NewOutputHandler(logger).WithWriter(out).HandleOutput(result, cmdConfig)
}
