package parsing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/prompts"
	"github.com/jonathan/cover-letter-generator/internal/schemas"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

const (
	// MinResumeTextLength is the shortest resume text sent to the model.
	MinResumeTextLength = 50
	// ResumeTemperature keeps resume extraction close to deterministic.
	ResumeTemperature = 0.1
)

// ResumeParser extracts ResumeProfiles through a provider target.
type ResumeParser struct {
	caller llm.Caller
	target llm.Target
	logger *slog.Logger
}

// NewResumeParser creates a parser. A nil logger discards output.
func NewResumeParser(caller llm.Caller, target llm.Target, logger *slog.Logger) *ResumeParser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResumeParser{caller: caller, target: target, logger: logger}
}

// ParseResume asks the model for a structured profile of resumeText. The
// returned profile carries the original text in RawText and has passed Validate.
func (p *ResumeParser) ParseResume(ctx context.Context, resumeText string) (*types.ResumeProfile, error) {
	if len([]rune(strings.TrimSpace(resumeText))) < MinResumeTextLength {
		return nil, &ValidationError{
			Field:   "resumeText",
			Message: fmt.Sprintf("resume text is too short or empty (need at least %d characters)", MinResumeTextLength),
		}
	}

	template, err := prompts.Get(prompts.CoverLetterFile, prompts.KeyParseResume)
	if err != nil {
		return nil, fmt.Errorf("failed to load resume prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{"ResumeText": resumeText})

	text, err := p.caller.Call(ctx, p.target.Request([]llm.Message{llm.User(prompt)}, ResumeTemperature))
	if err != nil {
		return nil, &APICallError{Message: "failed to parse resume", Cause: err}
	}

	cleaned := llm.CleanJSONBlock(text)
	if cleaned == "" {
		return nil, &ParseError{Message: "model returned no JSON"}
	}
	if err := schemas.ValidateResumeProfile(cleaned); err != nil {
		return nil, schemaParseError(err)
	}

	profile, err := parseJSONResponse(cleaned)
	if err != nil {
		return nil, err
	}
	postProcessProfile(profile)
	profile.RawText = resumeText

	if err := profile.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	p.logger.DebugContext(ctx, "parsed resume",
		"experience", len(profile.Experience), "projects", len(profile.Projects))
	return profile, nil
}

func parseJSONResponse(jsonText string) (*types.ResumeProfile, error) {
	var profile types.ResumeProfile
	if err := json.Unmarshal([]byte(jsonText), &profile); err != nil {
		return nil, &ParseError{Message: "failed to decode resume JSON", Cause: err}
	}
	return &profile, nil
}

var fieldValidator = validator.New()

// postProcessProfile trims fields, drops an unusable email, drops entries
// missing their required fields and normalizes skill lists.
func postProcessProfile(profile *types.ResumeProfile) {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Email != "" && fieldValidator.Var(profile.Email, "email") != nil {
		profile.Email = ""
	}
	profile.Phone = strings.TrimSpace(profile.Phone)
	profile.Education = strings.TrimSpace(profile.Education)
	profile.Summary = strings.TrimSpace(profile.Summary)
	profile.Skills = NormalizeSkillList(profile.Skills)

	experience := profile.Experience[:0]
	for _, exp := range profile.Experience {
		exp.Title = strings.TrimSpace(exp.Title)
		exp.Company = strings.TrimSpace(exp.Company)
		if exp.Title == "" || exp.Company == "" {
			continue
		}
		exp.Duration = strings.TrimSpace(exp.Duration)
		exp.Description = strings.TrimSpace(exp.Description)
		experience = append(experience, exp)
	}
	profile.Experience = experience

	projects := profile.Projects[:0]
	for _, proj := range profile.Projects {
		proj.Name = strings.TrimSpace(proj.Name)
		if proj.Name == "" {
			continue
		}
		proj.Description = strings.TrimSpace(proj.Description)
		proj.Technologies = NormalizeSkillList(proj.Technologies)
		projects = append(projects, proj)
	}
	profile.Projects = projects
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Namespace(), Message: fmt.Sprintf("failed %q check", verrs[0].Tag())}
	}
	return &ValidationError{Message: err.Error()}
}
