package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  logLevel: warn\n"), 0600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, int64(5*1024*1024), cfg.App.MaxResumeSize)
	assert.Equal(t, "X-Gemini-Key", cfg.Server.CredentialHeader)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)

	parse := cfg.GetOperationConfig(OpParseResume)
	assert.Equal(t, InputModeAuto, parse.InputMode)
	assert.Equal(t, 1, *parse.MaxRetries)
	assert.Equal(t, 90*time.Second, *parse.Timeout)
	assert.True(t, parse.CircuitBreaker.Enabled)

	ats := cfg.GetOperationConfig(OpATSScore)
	assert.Equal(t, 0, *ats.MaxRetries, "generate flows do not retry by default")
	assert.InDelta(t, 0.1, float64(*ats.Temperature), 0.0001)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	promptFile := filepath.Join(dir, "ats.md")
	require.NoError(t, os.WriteFile(promptFile, []byte("Score strictly."), 0600))

	yaml := `
ai:
  model: gemini-2.5-flash
  operations:
    atsScore:
      model: gemini-2.5-pro
      prompts:
        systemFile: ` + promptFile + `
server:
  apiKeys: ["k1", "k2"]
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.GetOperationConfig(OpATSScore).Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.GetOperationConfig(OpAnalyzeJob).Model)
	assert.Equal(t, "Score strictly.", cfg.PromptStore().Get(OpATSScore).System)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
}

func TestGetOperationConfigFallsBackToGlobal(t *testing.T) {
	cfg := &Config{AI: AIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.0-flash",
		Timeout:          30 * time.Second,
		MaxRetries:       2,
		Temperature:      0.5,
		UseSystemPrompts: true,
	}}
	retries := 0
	cfg.AI.Operations.CoverLetter.MaxRetries = &retries

	cover := cfg.GetOperationConfig(OpCoverLetter)
	assert.Equal(t, 0, *cover.MaxRetries)
	assert.Equal(t, 30*time.Second, *cover.Timeout)
	assert.Equal(t, "gemini-2.0-flash", cover.Model)
	assert.True(t, *cover.UseSystemPrompts)

	// the returned pointers must not alias the global config
	*cover.Timeout = time.Hour
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
}

func validConfig() *Config {
	return &Config{
		AI:     AIConfig{Timeout: time.Minute, Model: "gemini-2.0-flash"},
		Server: ServerConfig{Port: "8080", CredentialHeader: "X-Gemini-Key", TLS: TLSConfig{Mode: "disabled"}},
		App: AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text"},
			MaxResumeSize:    5 << 20,
			MaxRequestSize:   8 << 20,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero timeout", mutate: func(c *Config) { c.AI.Timeout = 0 }, errorMsg: "AI timeout must be positive"},
		{name: "bad format", mutate: func(c *Config) { c.App.DefaultFormat = "xml" }, errorMsg: "invalid default format"},
		{
			name:     "request smaller than resume",
			mutate:   func(c *Config) { c.App.MaxRequestSize = 1024 },
			errorMsg: "maxRequestSize",
		},
		{
			name:     "bad input mode",
			mutate:   func(c *Config) { c.AI.Operations.ParseResume.InputMode = "ocr" },
			errorMsg: "invalid parseResume inputMode",
		},
		{
			name:     "s3 without bucket",
			mutate:   func(c *Config) { c.Storage.S3.Enabled = true },
			errorMsg: "storage.s3.bucket is required",
		},
		{
			name:     "rotation without vault",
			mutate:   func(c *Config) { c.Server.KeyRotation = KeyRotationConfig{Enabled: true, Interval: time.Minute} },
			errorMsg: "keyRotation requires vault",
		},
		{
			name: "breaker threshold",
			mutate: func(c *Config) {
				c.AI.Operations.AnalyzeJob.CircuitBreaker = CircuitBreakerConfig{Enabled: true, FailureThreshold: 1.5}
			},
			errorMsg: "failureThreshold",
		},
		{
			name:     "inline user prompt missing placeholder",
			mutate:   func(c *Config) { c.AI.Operations.ATSScore.Prompts.User = "Resume: %s" },
			errorMsg: "atsScore user prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errorMsg)
		})
	}
}

func TestServerAPIKeysFromCommaList(t *testing.T) {
	cfg := &Config{Server: ServerConfig{APIKeys: []string{"a, b,c"}}}
	cfg.applyServerAPIKeyFallbacks()
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Server.APIKeys)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "AIza****", MaskSecret("AIzaSyExampleKey"))
}
