package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"tailorpro/internal/actions"
	"tailorpro/internal/ai"
	"tailorpro/internal/config"
	"tailorpro/internal/errors"
)

func testConfig() config.ObservabilityConfig {
	return config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "tailorpro-test",
		Metrics:     config.MetricsConfig{Enabled: true, CollectionInterval: time.Minute},
		Prometheus:  config.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
	}
}

// collect sums every int64 sum data point and counts histogram observations by name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	values := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += dp.Value
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += int64(dp.Count)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					values[m.Name] += int64(dp.Count)
				}
			}
		}
	}
	return values
}

func TestManagerRecordsActions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	om, err := NewManager(testConfig(), "1.0.0", nil, WithReader(reader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	ctx := context.Background()
	om.RecordAction(ctx, actions.ActionGenerateAll, time.Second, nil)
	om.RecordAction(ctx, actions.ActionATSScore, time.Second,
		errors.NewUpstreamError(errors.ErrCodeSchemaValidationFailed, "score out of range", nil))
	om.RecordAction(ctx, actions.ActionGenerateResume, time.Millisecond,
		errors.NewValidationError(errors.ErrCodeProfileInvalid, "bad profile", nil))
	om.RecordAction(ctx, actions.ActionValidateProfile, time.Millisecond, nil)
	om.RecordValidationFailure(ctx, actions.ActionGenerateResume, errors.ErrCodeProfileInvalid)
	om.RecordATSScore(ctx, 82)
	om.RecordTokenUsage(ctx, actions.ActionATSScore, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15})
	om.RecordTokenUsage(ctx, actions.ActionATSScore, nil)
	om.RecordRateLimitHit(ctx, "ip")

	values := collect(t, reader)
	assert.Equal(t, int64(2), values["tailorpro_ai_requests_total"])
	assert.Equal(t, int64(1), values["tailorpro_ai_errors_total"])
	assert.Equal(t, int64(2), values["tailorpro_ai_processing_duration_seconds"])
	assert.Equal(t, int64(1), values["tailorpro_generation_bundles_total"])
	assert.Equal(t, int64(1), values["tailorpro_ats_scores_total"])
	assert.Zero(t, values["tailorpro_resumes_generated_total"])
	assert.Equal(t, int64(1), values["tailorpro_validation_failures_total"])
	assert.Equal(t, int64(30), values["tailorpro_ai_token_usage_total"])
	assert.Equal(t, int64(1), values["tailorpro_ats_score"])
	assert.Equal(t, int64(1), values["tailorpro_rate_limit_hits_total"])
}

func TestPrometheusHandler(t *testing.T) {
	om, err := NewManager(testConfig(), "1.0.0", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	om.RecordAction(context.Background(), actions.ActionParseResume, time.Second, nil)

	handler := om.PrometheusHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tailorpro_resumes_parsed")
}

func TestDisabledManager(t *testing.T) {
	om, err := NewManager(config.ObservabilityConfig{ServiceName: "tailorpro"}, "1.0.0", nil)
	require.NoError(t, err)
	assert.False(t, om.Enabled())

	ctx := context.Background()
	om.RecordAction(ctx, actions.ActionGenerateAll, time.Second, nil)
	om.RecordATSScore(ctx, 50)
	om.RecordCertReload(ctx, true)
	om.RecordAPIKeyRotation(ctx, 2)

	assert.Nil(t, om.PrometheusHandler())
	assert.NotNil(t, om.Tracer("test"))

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	om.HTTPMiddleware()(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.NoError(t, om.Shutdown(ctx))
}
