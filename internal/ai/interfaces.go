package ai

import (
	"context"

	"google.golang.org/genai"

	"tailorpro/internal/types"
)

// Flows is the set of model-backed operations. Every method makes exactly
// one logical model call and returns token usage, which callers may ignore.
type Flows interface {
	ParseResume(ctx context.Context, cred Credential, input types.ParseResumeInput) (types.ParsedResume, *TokenUsage, error)
	AnalyzeJob(ctx context.Context, cred Credential, input types.AnalyzeJobInput) (types.JobAnalysis, *TokenUsage, error)
	GenerateResume(ctx context.Context, cred Credential, input types.GenerateResumeInput) (types.GeneratedResume, *TokenUsage, error)
	CalculateATSScore(ctx context.Context, cred Credential, input types.ATSScoreInput) (types.ATSScore, *TokenUsage, error)
	GenerateCoverLetter(ctx context.Context, cred Credential, input types.CoverLetterInput) (types.CoverLetter, *TokenUsage, error)
}

// ModelClient is the subset of *genai.Models the flows use.
type ModelClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// ClientFactory builds a model client bound to one credential.
type ClientFactory func(ctx context.Context, cred Credential) (ModelClient, error)

// GeminiClientFactory creates a Gemini API client for the credential.
func GeminiClientFactory(ctx context.Context, cred Credential) (ModelClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cred.Key(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
