// Package actions is the single entry point the HTTP, CLI and MCP surfaces
// call. Each action checks the credential, validates its inputs and then
// makes exactly one flow call.
package actions

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tailorpro/internal/ai"
	"tailorpro/internal/errors"
	"tailorpro/internal/jobdesc"
	"tailorpro/internal/profile"
	"tailorpro/internal/types"
)

// Dispatcher routes actions to flows.
type Dispatcher struct {
	flows         ai.Flows
	logger        *errors.Logger
	recorder      Recorder
	maxResumeSize int64
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithRecorder sets the metrics hook.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithMaxResumeSize sets the upload limit. Non-positive values keep the default.
func WithMaxResumeSize(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxResumeSize = n
		}
	}
}

// New creates a dispatcher over flows.
func New(flows ai.Flows, logger *errors.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		flows:         flows,
		logger:        logger,
		recorder:      NopRecorder{},
		maxResumeSize: profile.MaxResumeSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxResumeSize returns the configured upload limit in bytes.
func (d *Dispatcher) MaxResumeSize() int64 {
	return d.maxResumeSize
}

// ParseResult is a parsed resume plus the editable profile derived from it
type ParseResult struct {
	Parsed  types.ParsedResume `json:"parsed"`
	Profile types.UserProfile  `json:"profile"`
}

// ValidatedProfile is a normalized profile and its text rendering
type ValidatedProfile struct {
	Profile   types.UserProfile `json:"profile"`
	Formatted string            `json:"formatted"`
}

// generationInput is the validated, rendered input shared by the generate flows
type generationInput struct {
	userDetails    string
	jobDescription string
}

// ParseResume decodes a resume data URI and extracts a profile from it.
func (d *Dispatcher) ParseResume(ctx context.Context, cred ai.Credential, dataURI string) (result ParseResult, err error) {
	defer d.observe(ctx, ActionParseResume, time.Now(), &err)

	if err = cred.Require(); err != nil {
		return ParseResult{}, err
	}
	doc, err := profile.ParseDataURI(dataURI, d.maxResumeSize)
	if err != nil {
		return ParseResult{}, err
	}

	parsed, usage, err := d.flows.ParseResume(ctx, cred, types.ParseResumeInput{MIMEType: doc.MIMEType, Data: doc.Data})
	if err != nil {
		return ParseResult{}, err
	}
	d.recorder.RecordTokenUsage(ctx, ActionParseResume, usage)

	p := parsed.ToProfile()
	profile.Normalize(&p)
	return ParseResult{Parsed: parsed, Profile: p}, nil
}

// AnalyzeJobDescription extracts skills, qualifications and keywords.
func (d *Dispatcher) AnalyzeJobDescription(ctx context.Context, cred ai.Credential, jd string) (analysis types.JobAnalysis, err error) {
	defer d.observe(ctx, ActionAnalyzeJob, time.Now(), &err)

	if err = cred.Require(); err != nil {
		return types.JobAnalysis{}, err
	}
	normalized, err := jobdesc.Normalize(jd)
	if err != nil {
		return types.JobAnalysis{}, err
	}

	analysis, usage, err := d.flows.AnalyzeJob(ctx, cred, types.AnalyzeJobInput{JobDescription: normalized})
	if err != nil {
		return types.JobAnalysis{}, err
	}
	d.recorder.RecordTokenUsage(ctx, ActionAnalyzeJob, usage)
	return analysis, nil
}

// GenerateResume writes a resume for the profile, tailored to the posting.
func (d *Dispatcher) GenerateResume(ctx context.Context, cred ai.Credential, p types.UserProfile, jd string) (resume types.GeneratedResume, err error) {
	defer d.observe(ctx, ActionGenerateResume, time.Now(), &err)

	in, err := d.prepare(cred, p, jd)
	if err != nil {
		return types.GeneratedResume{}, err
	}
	return d.generateResume(ctx, cred, in)
}

// CalculateATSScore scores the profile against the posting.
func (d *Dispatcher) CalculateATSScore(ctx context.Context, cred ai.Credential, p types.UserProfile, jd string) (score types.ATSScore, err error) {
	defer d.observe(ctx, ActionATSScore, time.Now(), &err)

	in, err := d.prepare(cred, p, jd)
	if err != nil {
		return types.ATSScore{}, err
	}
	return d.calculateATSScore(ctx, cred, in)
}

// GenerateCoverLetter writes a cover letter for the profile and posting.
func (d *Dispatcher) GenerateCoverLetter(ctx context.Context, cred ai.Credential, p types.UserProfile, jd string) (letter types.CoverLetter, err error) {
	defer d.observe(ctx, ActionCoverLetter, time.Now(), &err)

	in, err := d.prepare(cred, p, jd)
	if err != nil {
		return types.CoverLetter{}, err
	}
	return d.generateCoverLetter(ctx, cred, in)
}

// GenerateAll runs the three generate flows concurrently. It validates once up
// front, invokes each flow exactly once and returns either all three results
// or the first error; the first failure cancels the remaining calls.
func (d *Dispatcher) GenerateAll(ctx context.Context, cred ai.Credential, p types.UserProfile, jd string) (bundle types.GenerationBundle, err error) {
	defer d.observe(ctx, ActionGenerateAll, time.Now(), &err)

	in, err := d.prepare(cred, p, jd)
	if err != nil {
		return types.GenerationBundle{}, err
	}

	var (
		resume types.GeneratedResume
		score  types.ATSScore
		letter types.CoverLetter
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resume, err = d.generateResume(gctx, cred, in)
		return err
	})
	g.Go(func() error {
		var err error
		score, err = d.calculateATSScore(gctx, cred, in)
		return err
	})
	g.Go(func() error {
		var err error
		letter, err = d.generateCoverLetter(gctx, cred, in)
		return err
	})

	if err := g.Wait(); err != nil {
		return types.GenerationBundle{}, err
	}

	return types.GenerationBundle{Resume: resume, ATSScore: score, CoverLetter: letter}, nil
}

// ValidateProfile normalizes and validates a profile without any model call.
func (d *Dispatcher) ValidateProfile(ctx context.Context, p types.UserProfile) (result ValidatedProfile, err error) {
	defer d.observe(ctx, ActionValidateProfile, time.Now(), &err)

	profile.Normalize(&p)
	if err = profile.Validate(p); err != nil {
		return ValidatedProfile{}, err
	}
	return ValidatedProfile{Profile: p, Formatted: profile.Format(p)}, nil
}

// prepare runs the shared checks in order: credential, profile, job description.
func (d *Dispatcher) prepare(cred ai.Credential, p types.UserProfile, jd string) (generationInput, error) {
	if err := cred.Require(); err != nil {
		return generationInput{}, err
	}

	profile.Normalize(&p)
	if err := profile.Validate(p); err != nil {
		return generationInput{}, err
	}

	normalized, err := jobdesc.Normalize(jd)
	if err != nil {
		return generationInput{}, err
	}

	return generationInput{userDetails: profile.Format(p), jobDescription: normalized}, nil
}

func (d *Dispatcher) generateResume(ctx context.Context, cred ai.Credential, in generationInput) (types.GeneratedResume, error) {
	out, usage, err := d.flows.GenerateResume(ctx, cred, types.GenerateResumeInput{
		UserDetails:    in.userDetails,
		JobDescription: in.jobDescription,
	})
	if err != nil {
		return types.GeneratedResume{}, err
	}
	d.recorder.RecordTokenUsage(ctx, ActionGenerateResume, usage)
	return out, nil
}

func (d *Dispatcher) calculateATSScore(ctx context.Context, cred ai.Credential, in generationInput) (types.ATSScore, error) {
	out, usage, err := d.flows.CalculateATSScore(ctx, cred, types.ATSScoreInput{
		Resume:         in.userDetails,
		JobDescription: in.jobDescription,
	})
	if err != nil {
		return types.ATSScore{}, err
	}
	d.recorder.RecordTokenUsage(ctx, ActionATSScore, usage)
	d.recorder.RecordATSScore(ctx, out.Score)
	return out, nil
}

func (d *Dispatcher) generateCoverLetter(ctx context.Context, cred ai.Credential, in generationInput) (types.CoverLetter, error) {
	out, usage, err := d.flows.GenerateCoverLetter(ctx, cred, types.CoverLetterInput{
		JobDescription:  in.jobDescription,
		UserInformation: in.userDetails,
	})
	if err != nil {
		return types.CoverLetter{}, err
	}
	d.recorder.RecordTokenUsage(ctx, ActionCoverLetter, usage)
	return out, nil
}

// observe records the outcome of an action and logs failures once.
func (d *Dispatcher) observe(ctx context.Context, action string, start time.Time, errp *error) {
	duration := time.Since(start)
	err := *errp

	d.recorder.RecordAction(ctx, action, duration, err)
	if err == nil {
		if d.logger != nil {
			d.logger.Debug("Action completed", "action", action, "duration_ms", duration.Milliseconds())
		}
		return
	}

	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation, errors.ErrorTypeCredential:
		if appErr, ok := errors.As(err); ok {
			d.recorder.RecordValidationFailure(ctx, action, appErr.Code)
		}
		if d.logger != nil {
			d.logger.Warn("Action rejected", "action", action, "error", err.Error())
		}
	default:
		if d.logger != nil {
			d.logger.LogError(err, "Action failed", "action", action, "duration_ms", duration.Milliseconds())
		}
	}
}
