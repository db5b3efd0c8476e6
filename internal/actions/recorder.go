package actions

import (
	"context"
	"time"

	"tailorpro/internal/ai"
)

// Action names, used in logs and as the metrics "action" attribute
const (
	ActionParseResume     = "parse_resume"
	ActionAnalyzeJob      = "analyze_job_description"
	ActionGenerateResume  = "generate_resume"
	ActionATSScore        = "calculate_ats_score"
	ActionCoverLetter     = "generate_cover_letter"
	ActionGenerateAll     = "generate_all"
	ActionValidateProfile = "validate_profile"
)

// Recorder receives per-action measurements.
type Recorder interface {
	RecordAction(ctx context.Context, action string, duration time.Duration, err error)
	RecordTokenUsage(ctx context.Context, action string, usage *ai.TokenUsage)
	RecordATSScore(ctx context.Context, score int)
	RecordValidationFailure(ctx context.Context, action, code string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordAction(context.Context, string, time.Duration, error) {}
func (NopRecorder) RecordTokenUsage(context.Context, string, *ai.TokenUsage) {}
func (NopRecorder) RecordATSScore(context.Context, int) {}
func (NopRecorder) RecordValidationFailure(context.Context, string, string) {}
