package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError(ErrCodeProfileInvalid, "bad", nil), http.StatusBadRequest},
		{"too large", NewValidationError(ErrCodeFileTooLarge, "big", nil), http.StatusRequestEntityTooLarge},
		{"media type", NewValidationError(ErrCodeUnsupportedMediaType, "png", nil), http.StatusUnsupportedMediaType},
		{"credential", NewCredentialError(ErrCodeMissingCredential, "no key", nil), http.StatusUnauthorized},
		{"upstream", NewUpstreamError(ErrCodeSchemaValidationFailed, "bad json", nil), http.StatusBadGateway},
		{"timeout", NewUpstreamError(ErrCodeAITimeout, "slow", nil), http.StatusGatewayTimeout},
		{"wrapped", fmt.Errorf("outer: %w", NewCredentialError(ErrCodeMissingCredential, "no key", nil)), http.StatusUnauthorized},
		{"not found", NewIOError(ErrCodeFileNotFound, "missing", nil), http.StatusNotFound},
		{"storage", NewIOError(ErrCodeStorageFailed, "s3 down", nil), http.StatusInternalServerError},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestTypeOfAndHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewUpstreamError(ErrCodeAIServiceFailed, "down", nil))

	assert.Equal(t, ErrorTypeUpstream, TypeOf(err))
	assert.True(t, HasCode(err, ErrCodeAIServiceFailed))
	assert.False(t, HasCode(err, ErrCodeAITimeout))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))
}

func TestAppErrorMessage(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewUpstreamError(ErrCodeAIServiceFailed, "model call failed", cause)

	assert.Equal(t, "AI_SERVICE_FAILED: model call failed (caused by: connection reset)", err.Error())
	assert.ErrorIs(t, err, cause)

	err.WithContext("operation", "ats-score")
	assert.Equal(t, "ats-score", err.Context["operation"])
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	logger.LogError(
		NewValidationError(ErrCodeFileTooLarge, "resume too large", nil).WithContext("size", 6),
		"upload rejected",
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "upload rejected", entry["msg"])
	assert.Equal(t, "validation", entry["error_type"])
	assert.Equal(t, ErrCodeFileTooLarge, entry["error_code"])
	assert.EqualValues(t, 6, entry["size"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("verbose")
	assert.Error(t, err)

	logger, err := New("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewWithWriterHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
