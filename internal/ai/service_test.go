package ai

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/profile"
	"tailorpro/internal/types"
)

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeModels records every call and answers from respond.
type fakeModels struct {
	mu      sync.Mutex
	calls   []generateCall
	respond func(ctx context.Context, call int) (*genai.GenerateContentResponse, error)
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generateCall{model: model, contents: contents, config: cfg})
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(ctx, n)
}

func (f *fakeModels) Get(ctx context.Context, model string, cfg *genai.GetModelConfig) (*genai.Model, error) {
	return &genai.Model{Name: model, DisplayName: "Gemini Test", Version: "001"}, nil
}

func (f *fakeModels) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeModels) lastCall() generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func jsonResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 8,
			TotalTokenCount:      20,
		},
	}
}

func respondWith(text string) func(context.Context, int) (*genai.GenerateContentResponse, error) {
	return func(context.Context, int) (*genai.GenerateContentResponse, error) {
		return jsonResponse(text), nil
	}
}

func testConfig() *config.Config {
	return &config.Config{AI: config.AIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.0-flash",
		Timeout:          5 * time.Second,
		MaxRetries:       0,
		Temperature:      0.2,
		UseSystemPrompts: true,
	}}
}

// newTestService returns a service whose factory counts client creations.
func newTestService(t *testing.T, cfg *config.Config, models *fakeModels) (*Service, *int) {
	t.Helper()
	factoryCalls := 0
	factory := func(ctx context.Context, cred Credential) (ModelClient, error) {
		factoryCalls++
		return models, nil
	}
	logger := errors.NewLoggerWithHandler(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(cfg, factory, logger)
	require.NoError(t, err)
	for _, g := range svc.ops {
		g.baseDelay = time.Millisecond
	}
	return svc, &factoryCalls
}

func allText(contents []*genai.Content) string {
	var b strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func TestMissingCredentialMakesNoCalls(t *testing.T) {
	models := &fakeModels{respond: respondWith(`{"resume":"x"}`)}
	svc, factoryCalls := newTestService(t, testConfig(), models)
	ctx := context.Background()

	_, _, err := svc.GenerateResume(ctx, NewCredential("  "), types.GenerateResumeInput{UserDetails: "u", JobDescription: "j"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))
	assert.Equal(t, errors.ErrorTypeCredential, errors.TypeOf(err))

	_, _, err = svc.ParseResume(ctx, Credential{}, types.ParseResumeInput{MIMEType: profile.MIMETypePDF, Data: []byte("%PDF")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))

	assert.Equal(t, 0, *factoryCalls)
	assert.Equal(t, 0, models.callCount())
}

func TestAnalyzeJob(t *testing.T) {
	models := &fakeModels{respond: respondWith(`{"skills":["Go"],"qualifications":[],"keywords":["backend","Go"]}`)}
	svc, _ := newTestService(t, testConfig(), models)

	out, usage, err := svc.AnalyzeJob(context.Background(), NewCredential("AIzaTestKey123"), types.AnalyzeJobInput{
		JobDescription: "Senior Go engineer",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Go"}, out.Skills)
	assert.NotNil(t, out.Qualifications)
	assert.Empty(t, out.Qualifications)
	require.NotNil(t, usage)
	assert.Equal(t, int64(20), usage.TotalTokens)

	call := models.lastCall()
	assert.Equal(t, "gemini-2.0-flash", call.model)
	assert.Equal(t, "application/json", call.config.ResponseMIMEType)
	require.NotNil(t, call.config.ResponseSchema)
	assert.ElementsMatch(t, []string{"skills", "qualifications", "keywords"}, call.config.ResponseSchema.Required)
	require.NotNil(t, call.config.SystemInstruction)
	assert.Contains(t, allText([]*genai.Content{call.config.SystemInstruction}), "expert recruiter")
	assert.Contains(t, allText(call.contents), "Senior Go engineer")
}

func TestResponseSchemaEnforcement(t *testing.T) {
	tests := []struct {
		name     string
		response string
		code     string
	}{
		{name: "score above range", response: `{"atsScore":150,"suggestions":[]}`, code: errors.ErrCodeSchemaValidationFailed},
		{name: "negative score", response: `{"atsScore":-1,"suggestions":[]}`, code: errors.ErrCodeSchemaValidationFailed},
		{name: "missing list", response: `{"atsScore":70}`, code: errors.ErrCodeSchemaValidationFailed},
		{name: "unknown field", response: `{"atsScore":70,"suggestions":[],"bonus":1}`, code: errors.ErrCodeSchemaValidationFailed},
		{name: "wrong type", response: `{"atsScore":"high","suggestions":[]}`, code: errors.ErrCodeSchemaValidationFailed},
		{name: "not json", response: `Sure! Here is your score: 70`, code: errors.ErrCodeAIResponseParseFailed},
		{name: "empty", response: ``, code: errors.ErrCodeAIResponseParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			models := &fakeModels{respond: respondWith(tt.response)}
			svc, _ := newTestService(t, cfg, models)

			out, usage, err := svc.CalculateATSScore(context.Background(), NewCredential("AIzaTestKey123"),
				types.ATSScoreInput{Resume: "r", JobDescription: "j"})

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, errors.ErrorTypeUpstream, errors.TypeOf(err))
			assert.Equal(t, types.ATSScore{}, out)
			assert.Nil(t, usage)
			assert.Equal(t, 1, models.callCount())
		})
	}
}

func TestATSScoreInRange(t *testing.T) {
	models := &fakeModels{respond: respondWith(`{"atsScore":100,"suggestions":["Use the word React"]}`)}
	svc, _ := newTestService(t, testConfig(), models)

	out, _, err := svc.CalculateATSScore(context.Background(), NewCredential("AIzaTestKey123"),
		types.ATSScoreInput{Resume: "Skills: React", JobDescription: "React developer"})
	require.NoError(t, err)
	assert.Equal(t, 100, out.Score)

	text := allText(models.lastCall().contents)
	assert.Contains(t, text, "Skills: React")
	assert.Contains(t, text, "React developer")
}

func TestRetryOnTransientError(t *testing.T) {
	cfg := testConfig()
	retries := 1
	cfg.AI.Operations.CoverLetter.MaxRetries = &retries

	models := &fakeModels{respond: func(_ context.Context, call int) (*genai.GenerateContentResponse, error) {
		if call == 1 {
			return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
		}
		return jsonResponse(`{"coverLetter":"Dear team"}`), nil
	}}
	svc, _ := newTestService(t, cfg, models)

	out, _, err := svc.GenerateCoverLetter(context.Background(), NewCredential("AIzaTestKey123"),
		types.CoverLetterInput{JobDescription: "j", UserInformation: "u"})
	require.NoError(t, err)
	assert.Equal(t, "Dear team", out.CoverLetter)
	assert.Equal(t, 2, models.callCount())

	// both attempts carry the identical request
	models.mu.Lock()
	assert.Equal(t, models.calls[0].contents, models.calls[1].contents)
	models.mu.Unlock()
}

func TestNoRetryByDefaultForGenerateFlows(t *testing.T) {
	models := &fakeModels{respond: func(context.Context, int) (*genai.GenerateContentResponse, error) {
		return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
	}}
	svc, _ := newTestService(t, testConfig(), models)

	_, _, err := svc.GenerateResume(context.Background(), NewCredential("AIzaTestKey123"),
		types.GenerateResumeInput{UserDetails: "u", JobDescription: "j"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeAIServiceFailed))
	assert.Equal(t, 1, models.callCount())
}

func TestNonRetryableErrorStopsImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.AI.MaxRetries = 3
	models := &fakeModels{respond: func(context.Context, int) (*genai.GenerateContentResponse, error) {
		return nil, &googleapi.Error{Code: http.StatusBadRequest}
	}}
	svc, _ := newTestService(t, cfg, models)

	_, _, err := svc.AnalyzeJob(context.Background(), NewCredential("AIzaTestKey123"), types.AnalyzeJobInput{JobDescription: "j"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeAIServiceFailed))
	assert.Equal(t, 1, models.callCount())
}

func TestTimeout(t *testing.T) {
	cfg := testConfig()
	timeout := 20 * time.Millisecond
	cfg.AI.Operations.GenerateResume.Timeout = &timeout

	models := &fakeModels{respond: func(ctx context.Context, _ int) (*genai.GenerateContentResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc, _ := newTestService(t, cfg, models)

	_, _, err := svc.GenerateResume(context.Background(), NewCredential("AIzaTestKey123"),
		types.GenerateResumeInput{UserDetails: "u", JobDescription: "j"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeAITimeout), "got %v", err)
	assert.Equal(t, http.StatusGatewayTimeout, errors.HTTPStatus(err))
}

func TestCircuitBreakerOpens(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Operations.AnalyzeJob.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      1,
		FailureThreshold: 0.5,
	}
	models := &fakeModels{respond: func(context.Context, int) (*genai.GenerateContentResponse, error) {
		return nil, &googleapi.Error{Code: http.StatusInternalServerError}
	}}
	svc, _ := newTestService(t, cfg, models)
	cred := NewCredential("AIzaTestKey123")

	_, _, err := svc.AnalyzeJob(context.Background(), cred, types.AnalyzeJobInput{JobDescription: "j"})
	require.Error(t, err)
	assert.False(t, svc.Healthy())

	_, _, err = svc.AnalyzeJob(context.Background(), cred, types.AnalyzeJobInput{JobDescription: "j"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, 1, models.callCount(), "open breaker short-circuits the call")

	stats := svc.CircuitBreakerStats()
	assert.Equal(t, "open", stats[string(config.OpAnalyzeJob)].(map[string]any)["state"])
	assert.Equal(t, false, stats[string(config.OpCoverLetter)].(map[string]any)["enabled"])
}

func TestParseResumeInlinePDF(t *testing.T) {
	models := &fakeModels{respond: respondWith(`{
		"name":"Jane Doe","email":"jane@example.com","phone":"",
		"experience":[{"jobTitle":"Engineer","company":"Acme","startDate":"2020","endDate":"Present","description":"Built things"}],
		"education":[],"skills":["React"],"projects":[],"certifications":[]
	}`)}
	svc, _ := newTestService(t, testConfig(), models)

	pdf := []byte("%PDF-1.4 fake")
	out, _, err := svc.ParseResume(context.Background(), NewCredential("AIzaTestKey123"),
		types.ParseResumeInput{MIMEType: profile.MIMETypePDF, Data: pdf})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", out.Name)
	assert.Len(t, out.Experience, 1)

	call := models.lastCall()
	require.Len(t, call.contents, 1)
	parts := call.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, inlineDocumentRef)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, profile.MIMETypePDF, parts[1].InlineData.MIMEType)
	assert.Equal(t, pdf, parts[1].InlineData.Data)
}

func TestParseResumeKeepsSchemelessProjectURL(t *testing.T) {
	models := &fakeModels{respond: respondWith(`{
		"name":"Jane Doe","email":"jane@example.com","phone":"",
		"experience":[],"education":[],"skills":["Go"],
		"projects":[{"name":"Site","description":"Personal site","url":"github.com/jane/site"}],
		"certifications":[]
	}`)}
	svc, _ := newTestService(t, testConfig(), models)

	out, _, err := svc.ParseResume(context.Background(), NewCredential("AIzaTestKey123"),
		types.ParseResumeInput{MIMEType: profile.MIMETypePDF, Data: []byte("%PDF-1.4 fake")})
	require.NoError(t, err)
	require.Len(t, out.Projects, 1)
	assert.Equal(t, "github.com/jane/site", out.Projects[0].URL)
}

func TestParseResumeTextModeExtractionFailure(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Operations.ParseResume.InputMode = config.InputModeText
	models := &fakeModels{respond: respondWith(`{}`)}
	svc, _ := newTestService(t, cfg, models)

	_, _, err := svc.ParseResume(context.Background(), NewCredential("AIzaTestKey123"),
		types.ParseResumeInput{MIMEType: profile.MIMETypeDOCX, Data: []byte("not a zip")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeTextExtractionFailed))
	assert.Equal(t, 0, models.callCount())
}

func TestPromptPrecedence(t *testing.T) {
	dir := t.TempDir()
	systemFile := filepath.Join(dir, "cover.system.md")
	require.NoError(t, os.WriteFile(systemFile, []byte("FILE SYSTEM PROMPT"), 0600))

	cfg := testConfig()
	cfg.AI.Operations.CoverLetter.Prompts = config.PromptConfig{
		System:     "CONFIG SYSTEM PROMPT",
		SystemFile: systemFile,
		User:       "CONFIG USER %s | %s",
	}
	require.NoError(t, cfg.PromptStore().Load(cfg))

	models := &fakeModels{respond: respondWith(`{"coverLetter":"ok"}`)}
	svc, _ := newTestService(t, cfg, models)

	_, _, err := svc.GenerateCoverLetter(context.Background(), NewCredential("AIzaTestKey123"),
		types.CoverLetterInput{JobDescription: "JD", UserInformation: "ME"})
	require.NoError(t, err)

	call := models.lastCall()
	assert.Equal(t, "FILE SYSTEM PROMPT", allText([]*genai.Content{call.config.SystemInstruction}))
	assert.Equal(t, "CONFIG USER JD | ME", allText(call.contents))
}

func TestSystemPromptInlinedWhenDisabled(t *testing.T) {
	cfg := testConfig()
	off := false
	cfg.AI.Operations.GenerateResume.UseSystemPrompts = &off

	models := &fakeModels{respond: respondWith(`{"resume":"plain text"}`)}
	svc, _ := newTestService(t, cfg, models)

	_, _, err := svc.GenerateResume(context.Background(), NewCredential("AIzaTestKey123"),
		types.GenerateResumeInput{UserDetails: "u", JobDescription: "j"})
	require.NoError(t, err)

	call := models.lastCall()
	assert.Nil(t, call.config.SystemInstruction)
	require.Len(t, call.contents, 2)
	assert.Contains(t, allText(call.contents[:1]), "professional resume writer")
}

func TestUnsupportedProvider(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Provider = "openai"
	_, err := NewService(cfg, nil, nil)
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
}

func TestGetModelInfo(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &fakeModels{})

	info := svc.GetModelInfo(context.Background(), config.OpAnalyzeJob, NewCredential("AIzaTestKey123"))
	assert.True(t, info.Available)
	assert.Equal(t, "Gemini Test", info.DisplayName)

	info = svc.GetModelInfo(context.Background(), config.OpAnalyzeJob, Credential{})
	assert.False(t, info.Available)
	assert.NotEmpty(t, info.Error)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.True(t, isRetryableError(&googleapi.Error{Code: http.StatusBadGateway}))
	assert.False(t, isRetryableError(&googleapi.Error{Code: http.StatusUnauthorized}))
	assert.False(t, isRetryableError(context.DeadlineExceeded))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(nil))
}

func TestResolveInputMode(t *testing.T) {
	assert.Equal(t, config.InputModeInline, resolveInputMode(config.InputModeAuto, profile.MIMETypePDF))
	assert.Equal(t, config.InputModeText, resolveInputMode(config.InputModeAuto, profile.MIMETypeDOCX))
	assert.Equal(t, config.InputModeText, resolveInputMode(config.InputModeText, profile.MIMETypePDF))
	assert.Equal(t, config.InputModeInline, resolveInputMode(config.InputModeInline, profile.MIMETypeDOCX))
}

func TestCredentialString(t *testing.T) {
	assert.Equal(t, "AIza****", NewCredential(" AIzaSyLongSecret ").String())
	assert.Equal(t, "AIzaSyLongSecret", NewCredential(" AIzaSyLongSecret ").Key())
	assert.Equal(t, "****", NewCredential("short").String())
	assert.True(t, Credential{}.IsZero())
}
