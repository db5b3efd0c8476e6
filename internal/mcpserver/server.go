// Package mcpserver exposes the resume actions as MCP tools over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"tailorpro/internal/actions"
	"tailorpro/internal/ai"
	"tailorpro/internal/errors"
	"tailorpro/internal/profile"
	"tailorpro/internal/storage"
	"tailorpro/internal/types"
)

// Tool names
const (
	ToolParseResume     = "parse_resume"
	ToolAnalyzeJob      = "analyze_job_description"
	ToolGenerateResume  = "generate_resume"
	ToolATSScore        = "calculate_ats_score"
	ToolCoverLetter     = "generate_cover_letter"
	ToolGenerateAll     = "generate_all"
	ToolValidateProfile = "validate_profile"

	implementationName = "tailorpro"
)

// ParseResumeInput selects the resume document. Exactly one field is used,
// in the order dataUri, path, objectKey.
type ParseResumeInput struct {
	DataURI   string `json:"dataUri,omitempty" jsonschema:"Resume as a data URI (data:application/pdf;base64,...)"`
	Path      string `json:"path,omitempty" jsonschema:"Local path to a PDF or DOCX resume"`
	ObjectKey string `json:"objectKey,omitempty" jsonschema:"Object key in the configured S3 bucket"`
}

// AnalyzeJobInput is the input of analyze_job_description
type AnalyzeJobInput struct {
	JobDescription string `json:"jobDescription" jsonschema:"Job posting text; HTML is converted to Markdown"`
}

// GenerationInput is shared by the generate tools.
type GenerationInput struct {
	Profile        map[string]any `json:"profile" jsonschema:"Job seeker profile: name, email, phone, skills, experiences, education, projects, certifications"`
	JobDescription string         `json:"jobDescription" jsonschema:"Job posting text; HTML is converted to Markdown"`
}

// ValidateProfileInput is the input of validate_profile
type ValidateProfileInput struct {
	Profile map[string]any `json:"profile" jsonschema:"Job seeker profile to validate"`
}

// Server wraps an MCP server bound to one dispatcher and one credential.
type Server struct {
	server     *mcp.Server
	dispatcher *actions.Dispatcher
	cred       ai.Credential
	store      *storage.Store
	logger     *errors.Logger
	tools      []string
}

// Option configures a Server
type Option func(*Server)

// WithStorage enables objectKey resume input.
func WithStorage(store *storage.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New registers every tool. cred is passed to each action unchanged; a zero
// credential makes every model-backed tool fail with MISSING_CREDENTIAL.
func New(dispatcher *actions.Dispatcher, cred ai.Credential, version string, logger *errors.Logger, opts ...Option) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    implementationName,
			Version: version,
		}, nil),
		dispatcher: dispatcher,
		cred:       cred,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolParseResume,
		Description: "Extract a structured profile from a PDF or DOCX resume (5 MiB limit). Returns the parsed resume and an editable profile with entry IDs.",
		Annotations: readOnly,
	}, s.parseResume)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolAnalyzeJob,
		Description: "List the skills, qualifications and keywords a job posting asks for.",
		Annotations: readOnly,
	}, s.analyzeJob)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGenerateResume,
		Description: "Write a plain-text resume tailored to the job posting from the given profile.",
		Annotations: readOnly,
	}, s.generateResume)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolATSScore,
		Description: "Score how well the profile matches the job posting (0-100) with improvement suggestions.",
		Annotations: readOnly,
	}, s.calculateATSScore)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolCoverLetter,
		Description: "Write a cover letter for the job posting from the given profile.",
		Annotations: readOnly,
	}, s.generateCoverLetter)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGenerateAll,
		Description: "Generate the tailored resume, ATS score and cover letter together. Fails as a whole if any of the three fails.",
		Annotations: readOnly,
	}, s.generateAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolValidateProfile,
		Description: "Normalize and validate a profile and return its text rendering. Makes no model call.",
		Annotations: readOnly,
	}, s.validateProfile)

	s.tools = []string{
		ToolParseResume, ToolAnalyzeJob, ToolGenerateResume, ToolATSScore,
		ToolCoverLetter, ToolGenerateAll, ToolValidateProfile,
	}
	if s.logger != nil {
		s.logger.Info("MCP tools registered", "count", len(s.tools), "credential", s.cred.String())
	}
}

// Tools returns the registered tool names.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) parseResume(ctx context.Context, _ *mcp.CallToolRequest, in ParseResumeInput) (*mcp.CallToolResult, *actions.ParseResult, error) {
	if err := s.cred.Require(); err != nil {
		return nil, nil, err
	}
	dataURI, err := s.resolveResume(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.dispatcher.ParseResume(ctx, s.cred, dataURI)
	if err != nil {
		return nil, nil, err
	}
	return nil, &result, nil
}

// resolveResume turns whichever source is set into a data URI. Local files
// and objects are size-checked before they are read.
func (s *Server) resolveResume(ctx context.Context, in ParseResumeInput) (string, error) {
	switch {
	case strings.TrimSpace(in.DataURI) != "":
		return in.DataURI, nil
	case strings.TrimSpace(in.Path) != "":
		return profile.ReadResumeFile(in.Path, s.dispatcher.MaxResumeSize())
	case strings.TrimSpace(in.ObjectKey) != "":
		if s.store == nil {
			return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "object storage is not enabled", nil)
		}
		return s.store.Fetch(ctx, in.ObjectKey)
	}
	return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "one of dataUri, path or objectKey is required", nil)
}

func (s *Server) analyzeJob(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeJobInput) (*mcp.CallToolResult, *types.JobAnalysis, error) {
	analysis, err := s.dispatcher.AnalyzeJobDescription(ctx, s.cred, in.JobDescription)
	if err != nil {
		return nil, nil, err
	}
	return nil, &analysis, nil
}

func (s *Server) generateResume(ctx context.Context, _ *mcp.CallToolRequest, in GenerationInput) (*mcp.CallToolResult, *types.GeneratedResume, error) {
	p, err := decodeProfile(in.Profile)
	if err != nil {
		return nil, nil, err
	}
	resume, err := s.dispatcher.GenerateResume(ctx, s.cred, p, in.JobDescription)
	if err != nil {
		return nil, nil, err
	}
	return nil, &resume, nil
}

func (s *Server) calculateATSScore(ctx context.Context, _ *mcp.CallToolRequest, in GenerationInput) (*mcp.CallToolResult, *types.ATSScore, error) {
	p, err := decodeProfile(in.Profile)
	if err != nil {
		return nil, nil, err
	}
	score, err := s.dispatcher.CalculateATSScore(ctx, s.cred, p, in.JobDescription)
	if err != nil {
		return nil, nil, err
	}
	return nil, &score, nil
}

func (s *Server) generateCoverLetter(ctx context.Context, _ *mcp.CallToolRequest, in GenerationInput) (*mcp.CallToolResult, *types.CoverLetter, error) {
	p, err := decodeProfile(in.Profile)
	if err != nil {
		return nil, nil, err
	}
	letter, err := s.dispatcher.GenerateCoverLetter(ctx, s.cred, p, in.JobDescription)
	if err != nil {
		return nil, nil, err
	}
	return nil, &letter, nil
}

func (s *Server) generateAll(ctx context.Context, _ *mcp.CallToolRequest, in GenerationInput) (*mcp.CallToolResult, *types.GenerationBundle, error) {
	p, err := decodeProfile(in.Profile)
	if err != nil {
		return nil, nil, err
	}
	bundle, err := s.dispatcher.GenerateAll(ctx, s.cred, p, in.JobDescription)
	if err != nil {
		return nil, nil, err
	}
	return nil, &bundle, nil
}

func (s *Server) validateProfile(ctx context.Context, _ *mcp.CallToolRequest, in ValidateProfileInput) (*mcp.CallToolResult, *actions.ValidatedProfile, error) {
	p, err := decodeProfile(in.Profile)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.dispatcher.ValidateProfile(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return nil, &result, nil
}

// decodeProfile maps the loosely typed tool argument onto a UserProfile.
// Unknown fields are rejected so typos surface instead of being dropped.
func decodeProfile(raw map[string]any) (types.UserProfile, error) {
	if raw == nil {
		return types.UserProfile{}, errors.NewValidationError(errors.ErrCodeProfileInvalid, "profile is required", nil).
			WithContext("fields", map[string]string{"profile": "Profile is required"})
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return types.UserProfile{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "profile is not valid JSON", err)
	}

	var p types.UserProfile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return types.UserProfile{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("profile does not match the expected shape: %v", err), err)
	}
	return p, nil
}
