package common

import (
	"fmt"
	"slices"

	"tailorpro/internal/errors"
	"tailorpro/internal/formatters"
)

// ValidateOutputFormat checks format against the configured list and the
// formats the registry can render. An empty list allows every registered
// format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	allowed := GetSupportedFormats(supportedFormats)
	if slices.Contains(allowed, format) && slices.Contains(formatters.GlobalRegistry.GetSupportedFormats(), format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, allowed), nil)
}

// GetSupportedFormats returns the configured formats, or every registered
// format when none are configured.
func GetSupportedFormats(supportedFormats []string) []string {
	if len(supportedFormats) == 0 {
		return formatters.GlobalRegistry.GetSupportedFormats()
	}
	return supportedFormats
}
