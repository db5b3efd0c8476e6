package ai

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"tailorpro/internal/errors"
	"tailorpro/internal/profile"
)

// decodeStrict decodes a model response into Out. Unknown fields, trailing
// data and values failing the struct's validate tags are rejected; nothing is
// clamped or repaired.
func decodeStrict[Out any](op, text string) (Out, error) {
	var out Out

	text = strings.TrimSpace(text)
	if text == "" {
		return out, errors.NewUpstreamError(errors.ErrCodeAIResponseParseFailed,
			fmt.Sprintf("empty model response for %s", op), nil)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		var syntaxErr *json.SyntaxError
		if stderrors.As(err, &syntaxErr) || stderrors.Is(err, io.ErrUnexpectedEOF) {
			return out, errors.NewUpstreamError(errors.ErrCodeAIResponseParseFailed,
				fmt.Sprintf("model response for %s is not valid JSON", op), err)
		}
		return out, errors.NewUpstreamError(errors.ErrCodeSchemaValidationFailed,
			fmt.Sprintf("model response for %s does not match the expected schema", op), err)
	}
	if dec.More() {
		return out, errors.NewUpstreamError(errors.ErrCodeSchemaValidationFailed,
			fmt.Sprintf("model response for %s has trailing data", op), nil)
	}

	if err := profile.Validator().Struct(out); err != nil {
		appErr := errors.NewUpstreamError(errors.ErrCodeSchemaValidationFailed,
			fmt.Sprintf("model response for %s failed validation", op), err)
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			appErr = appErr.WithContext("fields", profile.FieldErrors(verrs))
		}
		return out, appErr
	}

	return out, nil
}
