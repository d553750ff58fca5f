// Package coverletter turns a job posting and a resume profile into cover letter
// text and filename-safe job metadata by prompting a language model.
package coverletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/prompts"
	"github.com/jonathan/cover-letter-generator/internal/schemas"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

const (
	// ExtractionTemperature keeps job info extraction close to deterministic.
	ExtractionTemperature = 0.1
	// DraftTemperature is used when writing the letter.
	DraftTemperature = 0.5
)

// Pipeline runs the prompts against one provider target.
type Pipeline struct {
	caller llm.Caller
	target llm.Target
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline that sends every request to target through caller.
func New(caller llm.Caller, target llm.Target, opts ...Option) *Pipeline {
	p := &Pipeline{
		caller: caller,
		target: target,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Target returns the provider target the pipeline calls.
func (p *Pipeline) Target() llm.Target {
	return p.target
}

// ExtractJobInfo asks the model for the company and role named in jobText.
// It never fails: any call, decode or schema problem yields the fallback values,
// and a missing field falls back on its own.
func (p *Pipeline) ExtractJobInfo(ctx context.Context, jobText string) types.ExtractedJobInfo {
	info, err := p.extractJobInfo(ctx, jobText)
	if err != nil {
		p.logger.WarnContext(ctx, "job info extraction failed, using fallback",
			"provider", p.target.Provider, "error", err)
		return types.FallbackJobInfo()
	}
	return info
}

func (p *Pipeline) extractJobInfo(ctx context.Context, jobText string) (types.ExtractedJobInfo, error) {
	template, err := prompts.Get(prompts.CoverLetterFile, prompts.KeyExtractJobInfo)
	if err != nil {
		return types.ExtractedJobInfo{}, err
	}
	prompt := prompts.Format(template, map[string]string{"JobText": jobText})

	text, err := p.caller.Call(ctx, p.target.Request([]llm.Message{llm.User(prompt)}, ExtractionTemperature))
	if err != nil {
		return types.ExtractedJobInfo{}, err
	}

	cleaned := llm.CleanJSONBlock(text)
	if err := schemas.ValidateJobInfo(cleaned); err != nil {
		return types.ExtractedJobInfo{}, err
	}

	var raw struct {
		Company string `json:"company"`
		Role    string `json:"role"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return types.ExtractedJobInfo{}, fmt.Errorf("failed to decode job info: %w", err)
	}

	info := types.ExtractedJobInfo{
		Company: SanitizeToken(raw.Company, types.FallbackCompany),
		Role:    SanitizeToken(raw.Role, types.FallbackRole),
	}
	p.logger.DebugContext(ctx, "extracted job info", "company", info.Company, "role", info.Role)
	return info, nil
}

// GenerateCoverLetter drafts the letter for jobText from profile. The result is trimmed.
// Failures are returned as *GenerationError.
func (p *Pipeline) GenerateCoverLetter(ctx context.Context, jobText string, profile *types.ResumeProfile) (string, error) {
	if profile == nil {
		return "", &GenerationError{Message: "resume profile is required"}
	}

	template, err := prompts.Get(prompts.CoverLetterFile, prompts.KeyDraftCoverLetter)
	if err != nil {
		return "", &GenerationError{Message: "prompt unavailable", Cause: err}
	}
	prompt := prompts.Format(template, map[string]string{
		"ResumeContext": BuildResumeContext(*profile),
		"JobText":       jobText,
		"Name":          profile.Name,
	})

	text, err := p.caller.Call(ctx, p.target.Request([]llm.Message{llm.User(prompt)}, DraftTemperature))
	if err != nil {
		return "", &GenerationError{Message: "provider call failed", Cause: err}
	}

	letter := strings.TrimSpace(text)
	if letter == "" {
		return "", &GenerationError{
			Message: "empty response",
			Cause:   &llm.MalformedResponseError{Provider: string(p.target.Provider), Message: "no cover letter text in response"},
		}
	}
	p.logger.DebugContext(ctx, "drafted cover letter", "words", len(strings.Fields(letter)))
	return letter, nil
}
