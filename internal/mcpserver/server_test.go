package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorpro/internal/actions"
	"tailorpro/internal/ai"
	"tailorpro/internal/errors"
	"tailorpro/internal/types"
)

type countingFlows struct {
	mu    sync.Mutex
	calls map[string]int
	mimes []string
}

func (f *countingFlows) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *countingFlows) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *countingFlows) ParseResume(_ context.Context, _ ai.Credential, in types.ParseResumeInput) (types.ParsedResume, *ai.TokenUsage, error) {
	f.hit("parse")
	f.mu.Lock()
	f.mimes = append(f.mimes, in.MIMEType)
	f.mu.Unlock()
	return types.ParsedResume{Name: "Jane Doe", Email: "jane@x.com", Skills: []string{"React"}}, nil, nil
}

func (f *countingFlows) AnalyzeJob(context.Context, ai.Credential, types.AnalyzeJobInput) (types.JobAnalysis, *ai.TokenUsage, error) {
	f.hit("analyze")
	return types.JobAnalysis{Skills: []string{"React"}, Qualifications: []string{}, Keywords: []string{}}, nil, nil
}

func (f *countingFlows) GenerateResume(context.Context, ai.Credential, types.GenerateResumeInput) (types.GeneratedResume, *ai.TokenUsage, error) {
	f.hit("resume")
	return types.GeneratedResume{Resume: "resume"}, nil, nil
}

func (f *countingFlows) CalculateATSScore(context.Context, ai.Credential, types.ATSScoreInput) (types.ATSScore, *ai.TokenUsage, error) {
	f.hit("ats")
	return types.ATSScore{Score: 77, Suggestions: []string{}}, nil, nil
}

func (f *countingFlows) GenerateCoverLetter(context.Context, ai.Credential, types.CoverLetterInput) (types.CoverLetter, *ai.TokenUsage, error) {
	f.hit("cover")
	return types.CoverLetter{CoverLetter: "letter"}, nil, nil
}

func newTestServer(t *testing.T, key string) (*Server, *countingFlows) {
	t.Helper()
	flows := &countingFlows{}
	logger := errors.NewLoggerWithHandler(slog.NewTextHandler(io.Discard, nil))
	d := actions.New(flows, logger)
	return New(d, ai.NewCredential(key), "test", logger), flows
}

func janeProfile() map[string]any {
	return map[string]any{
		"name":   "Jane Doe",
		"email":  "jane@x.com",
		"skills": []any{"React"},
	}
}

func TestToolsRegistered(t *testing.T) {
	s, _ := newTestServer(t, "AIzaKey")

	assert.ElementsMatch(t, []string{
		"parse_resume", "analyze_job_description", "generate_resume",
		"calculate_ats_score", "generate_cover_letter", "generate_all", "validate_profile",
	}, s.Tools())
	assert.NotNil(t, s.MCP())
}

func TestGenerateAllTool(t *testing.T) {
	s, flows := newTestServer(t, "AIzaKey")

	_, bundle, err := s.generateAll(context.Background(), nil, GenerationInput{
		Profile:        janeProfile(),
		JobDescription: "React developer",
	})
	require.NoError(t, err)
	assert.Equal(t, "resume", bundle.Resume.Resume)
	assert.Equal(t, 77, bundle.ATSScore.Score)
	assert.Equal(t, "letter", bundle.CoverLetter.CoverLetter)
	assert.Equal(t, 3, flows.total())
}

func TestToolsWithoutCredential(t *testing.T) {
	s, flows := newTestServer(t, "")
	ctx := context.Background()
	in := GenerationInput{Profile: janeProfile(), JobDescription: "React developer"}

	_, _, err := s.generateResume(ctx, nil, in)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))
	_, _, err = s.calculateATSScore(ctx, nil, in)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))
	_, _, err = s.generateCoverLetter(ctx, nil, in)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))
	_, _, err = s.analyzeJob(ctx, nil, AnalyzeJobInput{JobDescription: "React developer"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))

	assert.Equal(t, 0, flows.total())

	// validation needs no credential
	_, result, err := s.validateProfile(ctx, nil, ValidateProfileInput{Profile: janeProfile()})
	require.NoError(t, err)
	assert.Contains(t, result.Formatted, "Skills: React")
}

func TestParseResumeChecksCredentialBeforeReading(t *testing.T) {
	s, flows := newTestServer(t, "")
	ctx := context.Background()

	// the file does not exist; the credential error must come first
	_, _, err := s.parseResume(ctx, nil, ParseResumeInput{Path: filepath.Join(t.TempDir(), "missing.pdf")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))

	_, _, err = s.parseResume(ctx, nil, ParseResumeInput{ObjectKey: "jane.pdf"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeMissingCredential))

	assert.Equal(t, 0, flows.total())
}

func TestParseResumeFromPath(t *testing.T) {
	s, flows := newTestServer(t, "AIzaKey")
	path := filepath.Join(t.TempDir(), "jane.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0600))

	_, result, err := s.parseResume(context.Background(), nil, ParseResumeInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", result.Profile.Name)
	assert.Equal(t, []string{"application/pdf"}, flows.mimes)
}

func TestParseResumeSources(t *testing.T) {
	s, flows := newTestServer(t, "AIzaKey")
	ctx := context.Background()

	_, _, err := s.parseResume(ctx, nil, ParseResumeInput{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, _, err = s.parseResume(ctx, nil, ParseResumeInput{ObjectKey: "jane.pdf"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, _, err = s.parseResume(ctx, nil, ParseResumeInput{Path: filepath.Join(t.TempDir(), "missing.pdf")})
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))

	assert.Equal(t, 0, flows.total())
}

func TestDecodeProfile(t *testing.T) {
	p, err := decodeProfile(janeProfile())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, []string{"React"}, p.Skills)

	_, err = decodeProfile(nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileInvalid))

	_, err = decodeProfile(map[string]any{"name": "Jane", "nickname": "JD"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))

	_, err = decodeProfile(map[string]any{"skills": "React"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}
