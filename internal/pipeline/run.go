// Package pipeline provides the high-level orchestration of one cover letter run:
// provider selection, job info extraction and drafting, layout, PDF rendering and naming.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cover-letter-generator/internal/coverletter"
	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/rendering"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

// Step names reported in progress events.
const (
	StepSelectProvider = "select_provider"
	StepExtractJobInfo = "extract_job_info"
	StepDraftLetter    = "draft_letter"
	StepLayout         = "layout"
	StepRender         = "render"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs. It may be called from
// more than one goroutine.
type ProgressCallback func(event ProgressEvent)

// Gateway is the part of the provider client a run needs.
type Gateway interface {
	llm.Caller
	Target(provider llm.ProviderID, credential, model string) (llm.Target, error)
	AutoTarget(credential, model string) llm.Target
}

// Request is one cover letter to produce.
type Request struct {
	JobText    string
	Profile    *types.ResumeProfile
	Credential string
	Provider   llm.ProviderID // empty means classify Credential
	Model      string         // empty means the provider default
	Date       time.Time      // zero means now
}

// Result holds everything a run produced.
type Result struct {
	RunID    uuid.UUID
	Target   llm.Target
	JobInfo  types.ExtractedJobInfo
	Letter   string
	Document *layout.Document
	PDF      []byte
	FileName string
}

// Runner executes runs against one gateway.
type Runner struct {
	gateway    Gateway
	layout     layout.Config
	logger     *slog.Logger
	onProgress ProgressCallback
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(cb ProgressCallback) Option {
	return func(r *Runner) { r.onProgress = cb }
}

// WithLayout sets the page configuration.
func WithLayout(cfg layout.Config) Option {
	return func(r *Runner) { r.layout = cfg }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a runner. The layout defaults to US Letter with 12pt Times.
func NewRunner(gateway Gateway, opts ...Option) *Runner {
	r := &Runner{
		gateway: gateway,
		layout:  layout.DefaultConfig(),
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With returns a copy of the runner with opts applied.
func (r *Runner) With(opts ...Option) *Runner {
	c := *r
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (r *Runner) emit(runID uuid.UUID, step, message string, content any) {
	if r.onProgress != nil {
		r.onProgress(ProgressEvent{Step: step, Message: message, RunID: runID.String(), Content: content})
	}
}

// Run produces one cover letter PDF. Input problems are reported as
// *ConfigurationError before any provider is called. A failed drafting call is
// returned as *coverletter.GenerationError; a failed extraction is not an
// error and yields the fallback company and role.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	runID := uuid.New()
	logger := r.logger.With("run_id", runID.String())

	target, err := r.selectTarget(req)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "starting run", "provider", target.Provider, "model", target.Model)
	r.emit(runID, StepSelectProvider, fmt.Sprintf("Using provider %s", target.Provider), target.Provider)

	gen := coverletter.New(r.gateway, target, coverletter.WithLogger(logger))

	var (
		info   types.ExtractedJobInfo
		letter string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info = gen.ExtractJobInfo(gCtx, req.JobText)
		r.emit(runID, StepExtractJobInfo, fmt.Sprintf("Job info: %s at %s", info.Role, info.Company), info)
		return nil
	})
	g.Go(func() error {
		text, err := gen.GenerateCoverLetter(gCtx, req.JobText, req.Profile)
		if err != nil {
			return err
		}
		letter = text
		r.emit(runID, StepDraftLetter, fmt.Sprintf("Drafted %d words", len(strings.Fields(text))), nil)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "run failed", "error", err)
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = r.now()
	}
	day := date.UTC().Truncate(24 * time.Hour)

	renderer := rendering.NewPDFRenderer(r.layout,
		rendering.WithCreationDate(day),
		rendering.WithMetadata(documentTitle(info), strings.TrimSpace(req.Profile.Name)),
	)
	pdf, doc, err := renderer.LayoutAndRender(letter)
	if err != nil {
		logger.ErrorContext(ctx, "rendering failed", "error", err)
		return nil, err
	}
	r.emit(runID, StepLayout, fmt.Sprintf("Laid out %d lines on %d page(s)", doc.LineCount(), len(doc.Pages)), nil)

	name := rendering.FileName(req.Profile.Name, info.Company, info.Role, date)
	r.emit(runID, StepRender, fmt.Sprintf("Rendered %s", name), name)
	logger.InfoContext(ctx, "run complete", "file", name, "pages", len(doc.Pages), "bytes", len(pdf))

	return &Result{
		RunID:    runID,
		Target:   target,
		JobInfo:  info,
		Letter:   letter,
		Document: doc,
		PDF:      pdf,
		FileName: name,
	}, nil
}

func (r *Runner) selectTarget(req Request) (llm.Target, error) {
	if req.Provider == "" {
		return r.gateway.AutoTarget(req.Credential, req.Model), nil
	}
	return r.gateway.Target(req.Provider, req.Credential, req.Model)
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.JobText) == "" {
		return &ConfigurationError{Field: "job_text", Message: "job description is empty"}
	}
	if req.Profile == nil {
		return &ConfigurationError{Field: "profile", Message: "no resume profile; parse a resume first"}
	}
	if err := req.Profile.Validate(); err != nil {
		return &ConfigurationError{Field: "profile", Message: "resume profile is incomplete", Cause: err}
	}
	if strings.TrimSpace(req.Credential) == "" {
		return &ConfigurationError{Field: "credential", Message: "no API key configured"}
	}
	return nil
}

func documentTitle(info types.ExtractedJobInfo) string {
	role := strings.ReplaceAll(info.Role, "_", " ")
	company := strings.ReplaceAll(info.Company, "_", " ")
	return fmt.Sprintf("Cover Letter: %s at %s", role, company)
}
