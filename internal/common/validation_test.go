package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorpro/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	all := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: all},
		{name: "text", format: "text", supportedFormats: all},
		{name: "markdown", format: "markdown", supportedFormats: all},
		{
			name:             "xml",
			format:           "xml",
			supportedFormats: all,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive",
			format:           "JSON",
			supportedFormats: all,
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:             "empty format",
			format:           "",
			supportedFormats: all,
			expectedError:    "unsupported output format ''. Supported formats: [json text markdown]",
		},
		{name: "no configured formats allows registered", format: "markdown", supportedFormats: nil},
		{
			name:             "no configured formats still rejects unknown",
			format:           "xml",
			supportedFormats: nil,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json markdown text]",
		},
		{
			name:             "configured but not renderable",
			format:           "yaml",
			supportedFormats: []string{"json", "yaml"},
			expectedError:    "unsupported output format 'yaml'. Supported formats: [json yaml]",
		},
		{
			name:             "single format",
			format:           "text",
			supportedFormats: []string{"json"},
			expectedError:    "unsupported output format 'text'. Supported formats: [json]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
			assert.Equal(t, tt.expectedError, appErr.Message)
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json"}, GetSupportedFormats([]string{"json"}))
	assert.Equal(t, []string{"json", "markdown", "text"}, GetSupportedFormats(nil))
}

func TestReadProfile(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(nil)

	good := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"name":"Jane Doe","email":"jane@x.com","skills":["React"]}`), 0o600))
	p, err := fp.ReadProfile(good)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, []string{"React"}, p.Skills)

	typo := filepath.Join(dir, "typo.json")
	require.NoError(t, os.WriteFile(typo, []byte(`{"name":"Jane","skils":["React"]}`), 0o600))
	_, err = fp.ReadProfile(typo)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, err = fp.ReadProfile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
}

func TestHandleOutputWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "result.json")
	oh := NewOutputHandler(nil)

	err := oh.HandleOutput(map[string]int{"score": 82}, CommandConfig{OutputFile: out, OutputFormat: "json"})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":82}`, string(data))
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
