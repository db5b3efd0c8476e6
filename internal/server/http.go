package server

import (
	"context"
	"time"

	"tailorpro/internal/actions"
	"tailorpro/internal/ai"
	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/observability"
	"tailorpro/internal/storage"
	"tailorpro/internal/types"
	"tailorpro/internal/watch"
)

// ParseRequest is the body of POST /v1/resume/parse. ObjectKey is only
// accepted when object storage is enabled.
type ParseRequest struct {
	ResumeDataURI string `json:"resumeDataUri"`
	ObjectKey     string `json:"objectKey,omitempty"`
}

// AnalyzeRequest is the body of POST /v1/job/analyze
type AnalyzeRequest struct {
	JobDescription string `json:"jobDescription"`
}

// GenerationRequest is the body of every generate endpoint
type GenerationRequest struct {
	Profile        types.UserProfile `json:"profile"`
	JobDescription string            `json:"jobDescription"`
}

// ValidateRequest is the body of POST /v1/profile/validate
type ValidateRequest struct {
	Profile types.UserProfile `json:"profile"`
}

// ValidateResponse is returned for a valid profile
type ValidateResponse struct {
	Valid     bool              `json:"valid"`
	Profile   types.UserProfile `json:"profile"`
	Formatted string            `json:"formatted"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HealthReporter exposes model and breaker state for /health
type HealthReporter interface {
	CircuitBreakerStats() map[string]any
	Healthy() bool
	GetModelInfo(ctx context.Context, op config.Operation, cred ai.Credential) *ai.ModelInfo
}

// Deps are the collaborators a Server routes requests to
type Deps struct {
	Dispatcher    *actions.Dispatcher
	Health        HealthReporter
	Storage       *storage.Store
	Observability *observability.Manager
	PromptWatcher *watch.FileWatcher
	// Secrets backs API key rotation; nil disables it
	Secrets config.SecretReader
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config
	TLSConfig config.TLSConfig

	Dispatcher    *actions.Dispatcher
	Health        HealthReporter
	Storage       *storage.Store
	Observability *observability.Manager
	PromptWatcher *watch.FileWatcher

	// API authentication; the set may be swapped by KeyRotator
	APIKeys    *KeySet
	KeyRotator *KeyRotator

	CertReloader *CertReloader

	// Header carrying the caller's model credential
	CredentialHeader string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *errors.Logger
}

// NewServer creates a Server from the application config.
func NewServer(appCfg *config.Config, version string, deps Deps, logger *errors.Logger) *Server {
	om := deps.Observability
	if om == nil {
		om, _ = observability.NewManager(config.ObservabilityConfig{}, version, logger)
	}

	serverCfg := appCfg.Server
	rateLimit := serverCfg.RateLimit

	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	credentialHeader := serverCfg.CredentialHeader
	if credentialHeader == "" {
		credentialHeader = DefaultCredentialHeader
	}

	keys := NewKeySet(serverCfg.APIKeys)

	s := &Server{
		Host:             serverCfg.Host,
		Port:             serverCfg.Port,
		Version:          version,
		AppConfig:        appCfg,
		TLSConfig:        serverCfg.TLS,
		Dispatcher:       deps.Dispatcher,
		Health:           deps.Health,
		Storage:          deps.Storage,
		Observability:    om,
		PromptWatcher:    deps.PromptWatcher,
		APIKeys:          keys,
		CredentialHeader: credentialHeader,
		ReadTimeout:      serverCfg.ReadTimeout,
		WriteTimeout:     serverCfg.WriteTimeout,
		IdleTimeout:      serverCfg.IdleTimeout,
		MaxRequestSize:   appCfg.App.MaxRequestSize,
		RateLimit:        &rateLimit,
		RateLimiter:      rateLimiter,
		Logger:           logger,
	}

	if serverCfg.KeyRotation.Enabled && deps.Secrets != nil && appCfg.Vault.Secrets.APIKeys != "" {
		s.KeyRotator = NewKeyRotator(deps.Secrets, appCfg.Vault.Secrets.APIKeys,
			serverCfg.KeyRotation.Interval, keys, om, logger)
	}

	return s
}
