package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"tailorpro/internal/ai"
	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/types"
)

const (
	serviceName      = "tailorpro"
	codeUnauthorized = "UNAUTHORIZED"
	codeInternal     = "INTERNAL_ERROR"

	defaultHealthCheckTimeout = 5 * time.Second
)

// credential reads the caller's model key from the configured header.
func (s *Server) credential(r *http.Request) ai.Credential {
	return ai.NewCredential(strings.TrimSpace(r.Header.Get(s.CredentialHeader)))
}

// requireCredential writes 401 and returns false when the header is missing.
// It runs before the body is read so a keyless request costs nothing.
func (s *Server) requireCredential(w http.ResponseWriter, r *http.Request) (ai.Credential, bool) {
	cred := s.credential(r)
	if err := cred.Require(); err != nil {
		s.writeError(w, r, err)
		return ai.Credential{}, false
	}
	return cred, true
}

func (s *Server) parseResumeHandler(w http.ResponseWriter, r *http.Request) {
	cred, ok := s.requireCredential(w, r)
	if !ok {
		return
	}

	var req ParseRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	dataURI := req.ResumeDataURI
	if strings.TrimSpace(dataURI) == "" && req.ObjectKey != "" {
		if s.Storage == nil {
			s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"objectKey requires object storage to be enabled", nil))
			return
		}
		var err error
		if dataURI, err = s.Storage.Fetch(r.Context(), req.ObjectKey); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	result, err := s.Dispatcher.ParseResume(r.Context(), cred, dataURI)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) analyzeJobHandler(w http.ResponseWriter, r *http.Request) {
	cred, ok := s.requireCredential(w, r)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	analysis, err := s.Dispatcher.AnalyzeJobDescription(r.Context(), cred, req.JobDescription)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analysis)
}

// generationFunc is the shape shared by the dispatcher's generate actions.
type generationFunc[T any] func(ctx context.Context, cred ai.Credential, p types.UserProfile, jd string) (T, error)

func generationHandler[T any](s *Server, generate generationFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cred, ok := s.requireCredential(w, r)
		if !ok {
			return
		}

		var req GenerationRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := generate(r.Context(), cred, req.Profile, req.JobDescription)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) validateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.Dispatcher.ValidateProfile(r.Context(), req.Profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:     true,
		Profile:   result.Profile,
		Formatted: result.Formatted,
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": serviceName,
		"version": s.Version,
	}
	healthy := true

	if s.Health != nil {
		response["circuit_breakers"] = s.Health.CircuitBreakerStats()
		healthy = s.Health.Healthy()

		// model availability needs a key, so it is only probed for callers that send one
		if cred := s.credential(r); !cred.IsZero() {
			models := s.checkModels(r.Context(), cred)
			for _, info := range models {
				if !info.Available {
					healthy = false
				}
			}
			response["ai_models"] = models
		}
	}

	watchers := map[string]any{}
	if s.PromptWatcher != nil {
		watchers["prompts"] = map[string]any{
			"running": s.PromptWatcher.IsRunning(),
			"files":   s.PromptWatcher.Files(),
		}
	}
	if s.CertReloader != nil {
		status := s.CertReloader.Status()
		if ok, _ := status["healthy"].(bool); !ok {
			healthy = false
		}
		watchers["certificates"] = status
	}
	if s.KeyRotator != nil {
		watchers["key_rotation"] = s.KeyRotator.Status()
	}
	response["watchers"] = watchers

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

func (s *Server) checkModels(ctx context.Context, cred ai.Credential) map[string]*ai.ModelInfo {
	timeout := defaultHealthCheckTimeout
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		timeout = s.AppConfig.Observability.HealthCheck.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	models := make(map[string]*ai.ModelInfo, len(config.Operations()))
	for _, op := range config.Operations() {
		models[op.String()] = s.Health.GetModelInfo(ctx, op, cred)
	}
	return models
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"service": serviceName,
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys":               s.APIKeys.Len(),
			"storage_enabled":        s.Storage != nil,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.Stats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes the body into v. An oversized body maps to
// FILE_TOO_LARGE so it shares the 413 path with oversized documents.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeFileTooLarge, "request body too large", err).
				WithContext("limit_bytes", maxBytesErr.Limit)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "request body is not valid JSON", err)
	}
	return nil
}

// writeError logs err and writes it as an ErrorResponse with the status
// errors.HTTPStatus assigns to it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	resp := ErrorResponse{Error: http.StatusText(status)}

	if appErr, ok := errors.As(err); ok {
		resp.Message = appErr.Message
		resp.Code = appErr.Code
		if fields, ok := appErr.Context["fields"].(map[string]string); ok {
			resp.Fields = fields
		}
	} else {
		resp.Message = "internal server error"
		resp.Code = codeInternal
	}

	args := []any{"endpoint", r.URL.Path, "status", status, "request_id", RequestID(r.Context())}
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", args...)
	} else {
		s.Logger.Info("Request rejected", append(args, "code", resp.Code)...)
	}

	writeErrorResponse(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
