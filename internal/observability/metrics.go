package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"tailorpro/internal/actions"
	"tailorpro/internal/ai"
	"tailorpro/internal/errors"
)

// Metrics holds the application instruments
type Metrics struct {
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AIProcessingTime metric.Float64Histogram
	AITokenUsage     metric.Int64Counter

	ResumesParsed        metric.Int64Counter
	JobsAnalyzed         metric.Int64Counter
	ResumesGenerated     metric.Int64Counter
	ATSScoresCalculated  metric.Int64Counter
	CoverLettersWritten  metric.Int64Counter
	GenerationBundles    metric.Int64Counter
	ATSScore             metric.Int64Histogram
	ValidationFailures   metric.Int64Counter
	RateLimitHits        metric.Int64Counter
	CertReloadCount      metric.Int64Counter
	APIKeyRotationsCount metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.AIRequestCount, "tailorpro_ai_requests_total", "Total number of model-backed actions"},
		{&m.AIErrorCount, "tailorpro_ai_errors_total", "Total number of model-backed actions that failed upstream"},
		{&m.AITokenUsage, "tailorpro_ai_token_usage_total", "Tokens consumed by model calls"},
		{&m.ResumesParsed, "tailorpro_resumes_parsed_total", "Total number of resumes parsed"},
		{&m.JobsAnalyzed, "tailorpro_jobs_analyzed_total", "Total number of job descriptions analyzed"},
		{&m.ResumesGenerated, "tailorpro_resumes_generated_total", "Total number of tailored resumes generated"},
		{&m.ATSScoresCalculated, "tailorpro_ats_scores_total", "Total number of ATS scores calculated"},
		{&m.CoverLettersWritten, "tailorpro_cover_letters_generated_total", "Total number of cover letters generated"},
		{&m.GenerationBundles, "tailorpro_generation_bundles_total", "Total number of resume, score and letter bundles generated"},
		{&m.ValidationFailures, "tailorpro_validation_failures_total", "Requests rejected before any model call"},
		{&m.RateLimitHits, "tailorpro_rate_limit_hits_total", "Total number of rate limit hits"},
		{&m.CertReloadCount, "tailorpro_cert_reloads_total", "Total number of TLS certificate reloads"},
		{&m.APIKeyRotationsCount, "tailorpro_api_key_rotations_total", "Total number of server API key set rotations"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	m.AIProcessingTime, err = meter.Float64Histogram(
		"tailorpro_ai_processing_duration_seconds",
		metric.WithDescription("Time spent in model-backed actions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.ATSScore, err = meter.Int64Histogram(
		"tailorpro_ats_score",
		metric.WithDescription("Distribution of ATS compatibility scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ATS score metric: %w", err)
	}

	return m, nil
}

var _ actions.Recorder = (*Manager)(nil)

// businessCounter maps an action onto its outcome counter
func (m *Metrics) businessCounter(action string) metric.Int64Counter {
	switch action {
	case actions.ActionParseResume:
		return m.ResumesParsed
	case actions.ActionAnalyzeJob:
		return m.JobsAnalyzed
	case actions.ActionGenerateResume:
		return m.ResumesGenerated
	case actions.ActionATSScore:
		return m.ATSScoresCalculated
	case actions.ActionCoverLetter:
		return m.CoverLettersWritten
	case actions.ActionGenerateAll:
		return m.GenerationBundles
	}
	return nil
}

// RecordAction counts an action and its duration. Validation and credential
// failures are counted separately by RecordValidationFailure.
func (om *Manager) RecordAction(ctx context.Context, action string, duration time.Duration, err error) {
	if om.metrics == nil {
		return
	}
	counter := om.metrics.businessCounter(action)
	if counter == nil {
		return
	}

	typ := errors.TypeOf(err)
	if err != nil && (typ == errors.ErrorTypeValidation || typ == errors.ErrorTypeCredential) {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("success", err == nil),
	)
	om.metrics.AIRequestCount.Add(ctx, 1, attrs)
	om.metrics.AIProcessingTime.Record(ctx, duration.Seconds(), attrs)
	counter.Add(ctx, 1, attrs)

	if err != nil {
		code := "UNKNOWN"
		if appErr, ok := errors.As(err); ok {
			code = appErr.Code
		}
		om.metrics.AIErrorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("code", code),
		))
	}
}

// RecordTokenUsage adds input, output and total token counts for an action.
func (om *Manager) RecordTokenUsage(ctx context.Context, action string, usage *ai.TokenUsage) {
	if om.metrics == nil || usage == nil {
		return
	}

	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		om.metrics.AITokenUsage.Add(ctx, tt.value, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordATSScore records one score in the distribution.
func (om *Manager) RecordATSScore(ctx context.Context, score int) {
	if om.metrics == nil {
		return
	}
	om.metrics.ATSScore.Record(ctx, int64(score))
}

// RecordValidationFailure counts an action rejected before any model call.
func (om *Manager) RecordValidationFailure(ctx context.Context, action, code string) {
	if om.metrics == nil {
		return
	}
	om.metrics.ValidationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("code", code),
	))
}

// RecordRateLimitHit counts a rejected request.
func (om *Manager) RecordRateLimitHit(ctx context.Context, clientType string) {
	if om.metrics == nil {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("client_type", clientType)))
}

// RecordCertReload counts a TLS certificate reload attempt.
func (om *Manager) RecordCertReload(ctx context.Context, success bool) {
	if om.metrics == nil {
		return
	}
	om.metrics.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordAPIKeyRotation counts a swap of the server API key set.
func (om *Manager) RecordAPIKeyRotation(ctx context.Context, keys int) {
	if om.metrics == nil {
		return
	}
	om.metrics.APIKeyRotationsCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("keys", keys)))
}
