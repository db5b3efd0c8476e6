package ai

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/profile"
	"tailorpro/internal/types"
)

// Service implements Flows on top of Gemini, one configured operation per flow.
type Service struct {
	ops     map[config.Operation]*geminiOperation
	prompts *config.PromptStore
	logger  *errors.Logger
}

var _ Flows = (*Service)(nil)

// NewService builds every flow from cfg. A nil factory means GeminiClientFactory.
func NewService(cfg *config.Config, factory ClientFactory, logger *errors.Logger) (*Service, error) {
	if factory == nil {
		factory = GeminiClientFactory
	}

	s := &Service{
		ops:     make(map[config.Operation]*geminiOperation, len(config.Operations())),
		prompts: cfg.PromptStore(),
		logger:  logger,
	}

	for _, op := range config.Operations() {
		opCfg := cfg.GetOperationConfig(op)
		if opCfg.Provider != "gemini" {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("unsupported AI provider for %s: %s", op, opCfg.Provider), nil)
		}

		if logger != nil {
			logger.Debug("Initializing AI operation",
				"operation", op,
				"model", opCfg.Model,
				"temperature", *opCfg.Temperature,
				"timeout", *opCfg.Timeout,
				"max_retries", *opCfg.MaxRetries,
				"use_system_prompts", *opCfg.UseSystemPrompts)
		}
		s.ops[op] = newGeminiOperation(op, opCfg, factory, logger)
	}

	return s, nil
}

// promptsFor returns the system prompt and the user template for op
func (s *Service) promptsFor(op config.Operation) (string, string) {
	loaded := s.prompts.Get(op)
	configured := s.ops[op].cfg.Prompts
	defaults := defaultPrompts[op]

	return resolvePrompt(loaded.System, configured.System, defaults.System),
		resolvePrompt(loaded.User, configured.User, defaults.User)
}

// ParseResume extracts a structured profile from a PDF or DOCX document.
func (s *Service) ParseResume(ctx context.Context, cred Credential, input types.ParseResumeInput) (types.ParsedResume, *TokenUsage, error) {
	if err := cred.Require(); err != nil {
		return types.ParsedResume{}, nil, err
	}

	g := s.ops[config.OpParseResume]
	systemPrompt, userTemplate := s.promptsFor(config.OpParseResume)
	mode := resolveInputMode(g.cfg.InputMode, input.MIMEType)

	req := request{
		systemPrompt: systemPrompt,
		schema:       parsedResumeSchema(),
		attributes: []attribute.KeyValue{
			attribute.String("input.mime_type", input.MIMEType),
			attribute.Int("input.document_bytes", len(input.Data)),
			attribute.String("input.mode", mode),
		},
	}

	switch mode {
	case config.InputModeText:
		text, err := profile.ExtractText(profile.Resume{MIMEType: input.MIMEType, Data: input.Data})
		if err != nil {
			return types.ParsedResume{}, nil, err
		}
		req.contents = genai.Text(fmt.Sprintf(userTemplate, text))
	default:
		req.contents = []*genai.Content{genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(userTemplate, inlineDocumentRef)),
			genai.NewPartFromBytes(input.Data, input.MIMEType),
		}, genai.RoleUser)}
	}

	return executeAIOperation[types.ParsedResume](ctx, g, cred, req)
}

// resolveInputMode turns "auto" into inline for PDF and text for anything else.
func resolveInputMode(mode, mimeType string) string {
	switch mode {
	case config.InputModeInline, config.InputModeText:
		return mode
	}
	if mimeType == profile.MIMETypePDF {
		return config.InputModeInline
	}
	return config.InputModeText
}

// AnalyzeJob extracts skills, qualifications and keywords from a posting.
func (s *Service) AnalyzeJob(ctx context.Context, cred Credential, input types.AnalyzeJobInput) (types.JobAnalysis, *TokenUsage, error) {
	systemPrompt, userTemplate := s.promptsFor(config.OpAnalyzeJob)

	return executeAIOperation[types.JobAnalysis](ctx, s.ops[config.OpAnalyzeJob], cred, request{
		contents:     genai.Text(fmt.Sprintf(userTemplate, input.JobDescription)),
		systemPrompt: systemPrompt,
		schema:       jobAnalysisSchema(),
		attributes:   []attribute.KeyValue{attribute.Int("input.job_length", len(input.JobDescription))},
	})
}

// GenerateResume writes a plain-text resume tailored to the posting.
func (s *Service) GenerateResume(ctx context.Context, cred Credential, input types.GenerateResumeInput) (types.GeneratedResume, *TokenUsage, error) {
	systemPrompt, userTemplate := s.promptsFor(config.OpGenerateResume)

	return executeAIOperation[types.GeneratedResume](ctx, s.ops[config.OpGenerateResume], cred, request{
		contents:     genai.Text(fmt.Sprintf(userTemplate, input.UserDetails, input.JobDescription)),
		systemPrompt: systemPrompt,
		schema:       generatedResumeSchema(),
		attributes: []attribute.KeyValue{
			attribute.Int("input.user_details_length", len(input.UserDetails)),
			attribute.Int("input.job_length", len(input.JobDescription)),
		},
	})
}

// CalculateATSScore scores resume text against the posting.
func (s *Service) CalculateATSScore(ctx context.Context, cred Credential, input types.ATSScoreInput) (types.ATSScore, *TokenUsage, error) {
	systemPrompt, userTemplate := s.promptsFor(config.OpATSScore)

	return executeAIOperation[types.ATSScore](ctx, s.ops[config.OpATSScore], cred, request{
		contents:     genai.Text(fmt.Sprintf(userTemplate, input.Resume, input.JobDescription)),
		systemPrompt: systemPrompt,
		schema:       atsScoreSchema(),
		attributes: []attribute.KeyValue{
			attribute.Int("input.resume_length", len(input.Resume)),
			attribute.Int("input.job_length", len(input.JobDescription)),
		},
	})
}

// GenerateCoverLetter writes a cover letter for the posting.
func (s *Service) GenerateCoverLetter(ctx context.Context, cred Credential, input types.CoverLetterInput) (types.CoverLetter, *TokenUsage, error) {
	systemPrompt, userTemplate := s.promptsFor(config.OpCoverLetter)

	return executeAIOperation[types.CoverLetter](ctx, s.ops[config.OpCoverLetter], cred, request{
		contents:     genai.Text(fmt.Sprintf(userTemplate, input.JobDescription, input.UserInformation)),
		systemPrompt: systemPrompt,
		schema:       coverLetterSchema(),
		attributes: []attribute.KeyValue{
			attribute.Int("input.job_length", len(input.JobDescription)),
			attribute.Int("input.user_information_length", len(input.UserInformation)),
		},
	})
}

// GetModelInfo checks the model used by op with the caller's credential.
func (s *Service) GetModelInfo(ctx context.Context, op config.Operation, cred Credential) *ModelInfo {
	g, ok := s.ops[op]
	if !ok {
		return &ModelInfo{Error: fmt.Sprintf("unknown operation: %s", op)}
	}
	return g.modelInfo(ctx, cred)
}

// CircuitBreakerStats returns per-operation breaker state.
func (s *Service) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(s.ops))
	for _, op := range config.Operations() {
		stats[string(op)] = s.ops[op].breaker.Stats()
	}
	return stats
}

// Healthy reports whether every circuit breaker is closed.
func (s *Service) Healthy() bool {
	for _, g := range s.ops {
		if !g.breaker.IsHealthy() {
			return false
		}
	}
	return true
}
