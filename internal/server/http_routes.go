package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"tailorpro/internal/config"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the server.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Routes builds the handler tree: request id, rate limit, auth and body
// limit wrap every /v1 endpoint; the whole mux is wrapped in otelhttp.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.authMiddleware(s.requestSizeLimitMiddleware(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /v1/resume/parse", protect(s.parseResumeHandler))
	mux.HandleFunc("POST /v1/job/analyze", protect(s.analyzeJobHandler))
	mux.HandleFunc("POST /v1/resume/generate", protect(generationHandler(s, s.Dispatcher.GenerateResume)))
	mux.HandleFunc("POST /v1/ats/score", protect(generationHandler(s, s.Dispatcher.CalculateATSScore)))
	mux.HandleFunc("POST /v1/cover-letter/generate", protect(generationHandler(s, s.Dispatcher.GenerateCoverLetter)))
	mux.HandleFunc("POST /v1/generate", protect(generationHandler(s, s.Dispatcher.GenerateAll)))
	mux.HandleFunc("POST /v1/profile/validate", protect(s.validateProfileHandler))

	return s.Observability.HTTPMiddleware()(s.requestIDMiddleware(mux))
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// authMiddleware checks the server API key. An empty key set disables it.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.APIKeys == nil || s.APIKeys.Len() == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", clientIP(r))
			writeErrorResponse(w, http.StatusUnauthorized, ErrorResponse{
				Error:   http.StatusText(http.StatusUnauthorized),
				Message: "X-API-Key header or Authorization Bearer token required",
				Code:    codeUnauthorized,
			})
			return
		}

		if !s.APIKeys.Contains(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", clientIP(r),
				"api_key", config.MaskSecret(apiKey))
			writeErrorResponse(w, http.StatusUnauthorized, ErrorResponse{
				Error:   http.StatusText(http.StatusUnauthorized),
				Message: "Invalid API key",
				Code:    codeUnauthorized,
			})
			return
		}

		next(w, r)
	}
}

func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next(w, r)
	}
}
