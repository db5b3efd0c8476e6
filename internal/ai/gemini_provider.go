package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
)

const (
	defaultRetryBaseDelay = time.Second
	maxRetryBackoff       = 30 * time.Second
	modelCheckTimeout     = 10 * time.Second
)

// geminiOperation runs one flow against Gemini: timeout, circuit breaker,
// retry and strict decoding.
type geminiOperation struct {
	op        config.Operation
	cfg       config.OperationAIConfig
	breaker   *AICircuitBreaker
	factory   ClientFactory
	logger    *errors.Logger
	baseDelay time.Duration
}

func newGeminiOperation(op config.Operation, cfg config.OperationAIConfig, factory ClientFactory, logger *errors.Logger) *geminiOperation {
	return &geminiOperation{
		op:        op,
		cfg:       cfg,
		breaker:   NewAICircuitBreaker(op, cfg.CircuitBreaker, logger),
		factory:   factory,
		logger:    logger,
		baseDelay: defaultRetryBaseDelay,
	}
}

// request is one prepared model call
type request struct {
	contents     []*genai.Content
	systemPrompt string
	schema       *genai.Schema
	attributes   []attribute.KeyValue
}

// executeAIOperation makes one logical model call for g.op and decodes the
// response into Out.
func executeAIOperation[Out any](ctx context.Context, g *geminiOperation, cred Credential, req request) (Out, *TokenUsage, error) {
	var output Out

	if err := cred.Require(); err != nil {
		return output, nil, err
	}

	tracer := otel.Tracer("tailorpro.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+string(g.op))
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", g.cfg.Provider),
		attribute.String("ai.model", g.cfg.Model),
		attribute.Float64("ai.temperature", float64(*g.cfg.Temperature)),
		attribute.Int("ai.max_retries", *g.cfg.MaxRetries),
	)
	span.SetAttributes(req.attributes...)

	fail := func(err error) (Out, *TokenUsage, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, *g.cfg.Timeout)
	defer cancel()

	client, err := g.factory(callCtx, cred)
	if err != nil {
		return fail(errors.NewUpstreamError(errors.ErrCodeAIServiceFailed,
			"failed to create Gemini client", err))
	}

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.schema,
	}
	if *g.cfg.Temperature > 0 {
		temperature := *g.cfg.Temperature
		genCfg.Temperature = &temperature
	}

	contents := req.contents
	if req.systemPrompt != "" {
		if *g.cfg.UseSystemPrompts {
			genCfg.SystemInstruction = genai.NewContentFromText(req.systemPrompt, genai.RoleUser)
		} else {
			contents = append([]*genai.Content{genai.NewContentFromText(req.systemPrompt, genai.RoleUser)}, contents...)
		}
	}

	start := time.Now()
	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, func() (*genai.GenerateContentResponse, error) {
			return client.GenerateContent(callCtx, g.cfg.Model, contents, genCfg)
		})
	})
	span.SetAttributes(attribute.Int64("ai.duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		return fail(g.classifyError(callCtx, err))
	}
	if result == nil {
		return fail(errors.NewUpstreamError(errors.ErrCodeAIResponseParseFailed,
			fmt.Sprintf("no response from model for %s", g.op), nil))
	}

	output, err = decodeStrict[Out](string(g.op), result.Text())
	if err != nil {
		if g.logger != nil {
			g.logger.LogError(err, "Model response rejected", "operation", g.op, "model", g.cfg.Model)
		}
		return fail(err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

func (g *geminiOperation) classifyError(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewUpstreamError(errors.ErrCodeAITimeout,
			fmt.Sprintf("%s timed out after %s", g.op, *g.cfg.Timeout), err)
	case stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewUpstreamError(errors.ErrCodeAIServiceFailed,
			fmt.Sprintf("%s is temporarily unavailable (circuit breaker open)", g.op), err)
	default:
		return errors.NewUpstreamError(errors.ErrCodeAIServiceFailed,
			fmt.Sprintf("failed to generate content for %s", g.op), err)
	}
}

// executeWithRetry sends the identical request again on transient errors,
// with exponential backoff and jitter.
func (g *geminiOperation) executeWithRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	maxRetries := *g.cfg.MaxRetries
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if g.logger != nil {
				g.logger.Warn("Retrying AI operation",
					"operation", g.op,
					"attempt", attempt,
					"max_retries", maxRetries,
					"error", lastErr.Error())
			}

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 && g.logger != nil {
				g.logger.Info("AI operation succeeded after retry",
					"operation", g.op,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	return nil, lastErr
}

func (g *geminiOperation) backoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * g.baseDelay
	jitter := time.Duration(0)
	if jitterMax := int64(float64(base) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(base+jitter, maxRetryBackoff)
}

// isRetryableError reports transient failures: network errors and 429/5xx
// API responses. Context cancellation is never retried.
func isRetryableError(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}
	var genaiErrPtr *genai.APIError
	if stderrors.As(err, &genaiErrPtr) && genaiErrPtr != nil {
		return retryableStatus(genaiErrPtr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// modelInfo checks that the configured model is reachable with cred.
func (g *geminiOperation) modelInfo(ctx context.Context, cred Credential) *ModelInfo {
	info := &ModelInfo{Name: g.cfg.Model}

	if err := cred.Require(); err != nil {
		info.Error = err.Error()
		return info
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	client, err := g.factory(checkCtx, cred)
	if err != nil {
		info.Error = fmt.Sprintf("Failed to create client: %v", err)
		return info
	}

	model, err := client.Get(checkCtx, g.cfg.Model, &genai.GetModelConfig{})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		if g.logger != nil {
			g.logger.Warn("Model availability check failed", "model", g.cfg.Model, "error", err.Error())
		}
		return info
	}

	info.Available = true
	if model != nil {
		info.DisplayName = model.DisplayName
		info.Version = model.Version
	}
	return info
}
