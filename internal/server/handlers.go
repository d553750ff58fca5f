package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/cover-letter-generator/internal/ingestion"
	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/pipeline"
	"github.com/jonathan/cover-letter-generator/internal/store"
	"github.com/jonathan/cover-letter-generator/internal/types"
)

// ProviderKeyHeader carries the caller's provider credential.
const ProviderKeyHeader = "X-Provider-Key"

// maxBodyBytes bounds request bodies. A job posting plus a profile fits easily.
const maxBodyBytes = 1 << 20

// CoverLetterRequest is the body of POST /cover-letters.
type CoverLetterRequest struct {
	JobText  string               `json:"job_text" validate:"required_without=JobURL"`
	JobURL   string               `json:"job_url" validate:"omitempty,url"`
	Profile  *types.ResumeProfile `json:"profile,omitempty"`
	Provider string               `json:"provider,omitempty" validate:"omitempty,max=32"`
	Model    string               `json:"model,omitempty" validate:"omitempty,max=128"`
	FontSize float64              `json:"font_size,omitempty" validate:"omitempty,gt=0,lte=72"`
	Date     string               `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// DetectRequest is the body of POST /detect. The key may also come from X-Provider-Key.
type DetectRequest struct {
	Credential string `json:"credential"`
}

// DetectResponse reports how a credential was classified.
type DetectResponse struct {
	Provider    llm.ProviderID `json:"provider"`
	Name        string         `json:"name"`
	Rule        string         `json:"rule"`
	FormatValid bool           `json:"format_valid"`
}

// CompleteEvent is the final event of a streamed generation.
type CompleteEvent struct {
	RunID    string `json:"run_id"`
	FileName string `json:"file_name"`
	Provider string `json:"provider"`
	Company  string `json:"company"`
	Role     string `json:"role"`
	Pages    int    `json:"pages"`
	PDF      string `json:"pdf_base64"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProviders lists the registered providers.
func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"providers": s.client.Registry().List()})
}

// handleDetect classifies a credential without calling any provider.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			s.errorResponse(w, r, err)
			return
		}
	}
	credential := strings.TrimSpace(req.Credential)
	if credential == "" {
		credential = strings.TrimSpace(r.Header.Get(ProviderKeyHeader))
	}
	if credential == "" {
		s.errorResponse(w, r, &ErrValidation{Field: "credential", Message: "is required"})
		return
	}

	id, rule := s.client.Explain(credential)
	s.jsonResponse(w, http.StatusOK, DetectResponse{
		Provider:    id,
		Name:        s.client.DetectProviderName(credential),
		Rule:        rule,
		FormatValid: s.client.Registry().ValidateCredentialFormat(id, credential),
	})
}

// handleCoverLetter generates a letter and returns the PDF.
func (s *Server) handleCoverLetter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	runner, req, err := s.prepareRun(ctx, w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	result, err := runner.Run(ctx, req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName}))
	h.Set("Content-Length", strconv.Itoa(len(result.PDF)))
	h.Set("X-Run-ID", result.RunID.String())
	h.Set("X-Provider", string(result.Target.Provider))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.PDF); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write PDF response", "error", err)
	}
}

// handleCoverLetterStream runs the same generation and reports progress as
// server-sent events. The last event is "complete" with the PDF in base64, or "error".
func (s *Server) handleCoverLetterStream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	runner, req, err := s.prepareRun(ctx, w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	runner = runner.With(pipeline.WithProgress(func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			s.logger.WarnContext(ctx, "failed to write progress event", "error", err)
		}
	}))

	result, err := runner.Run(ctx, req)
	if err != nil {
		sse.WriteError(err)
		return
	}

	if err := sse.WriteEvent("complete", CompleteEvent{
		RunID:    result.RunID.String(),
		FileName: result.FileName,
		Provider: string(result.Target.Provider),
		Company:  result.JobInfo.Company,
		Role:     result.JobInfo.Role,
		Pages:    len(result.Document.Pages),
		PDF:      base64.StdEncoding.EncodeToString(result.PDF),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to write complete event", "error", err)
	}
}

// prepareRun decodes and validates the request and resolves the credential,
// profile and job text into a runner and a pipeline request.
func (s *Server) prepareRun(ctx context.Context, w http.ResponseWriter, r *http.Request) (*pipeline.Runner, pipeline.Request, error) {
	var body CoverLetterRequest
	if err := decodeBody(w, r, &body); err != nil {
		return nil, pipeline.Request{}, err
	}
	if err := s.validate.Struct(&body); err != nil {
		return nil, pipeline.Request{}, validationError(err)
	}

	req := pipeline.Request{
		Provider: llm.ProviderID(strings.ToLower(strings.TrimSpace(body.Provider))),
		Model:    strings.TrimSpace(body.Model),
		Profile:  body.Profile,
	}
	if body.Date != "" {
		req.Date, _ = time.Parse(time.DateOnly, body.Date)
	}

	if err := s.resolveCredential(ctx, r, &req); err != nil {
		return nil, pipeline.Request{}, err
	}
	if req.Profile == nil {
		profile, err := s.loadProfile(ctx)
		if err != nil {
			return nil, pipeline.Request{}, err
		}
		req.Profile = profile
	}

	jobText, err := s.jobText(ctx, body)
	if err != nil {
		return nil, pipeline.Request{}, err
	}
	req.JobText = jobText

	cfg := s.layout
	if body.FontSize > 0 {
		cfg = layout.Config{Geometry: s.layout.Geometry, Typography: layout.DefaultTypography(body.FontSize)}
	}
	runner := pipeline.NewRunner(s.client,
		pipeline.WithLogger(s.logger),
		pipeline.WithLayout(cfg),
	)
	return runner, req, nil
}

// storeFallback reports whether requests may use the stored key and profile.
// Without authentication anyone who reaches the port would spend the owner's key.
func (s *Server) storeFallback() bool {
	return s.store != nil && s.jwt != nil
}

// resolveCredential prefers the request header, then the stored key. A stored
// provider applies only when the request names none.
func (s *Server) resolveCredential(ctx context.Context, r *http.Request, req *pipeline.Request) error {
	if key := strings.TrimSpace(r.Header.Get(ProviderKeyHeader)); key != "" {
		req.Credential = key
		return nil
	}
	if !s.storeFallback() {
		return &ErrMissingCredential{}
	}
	cred, err := s.store.LoadCredential(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return &ErrMissingCredential{}
	}
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	req.Credential = cred.Key
	if req.Provider == "" {
		req.Provider = cred.Provider
	}
	return nil
}

func (s *Server) loadProfile(ctx context.Context) (*types.ResumeProfile, error) {
	if !s.storeFallback() {
		return nil, &ErrMissingProfile{}
	}
	profile, err := s.store.LoadProfile(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &ErrMissingProfile{}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func (s *Server) jobText(ctx context.Context, body CoverLetterRequest) (string, error) {
	if strings.TrimSpace(body.JobText) != "" {
		text, _, err := ingestion.FromString(body.JobText)
		return text, err
	}
	text, meta, err := ingestion.FromURL(ctx, body.JobURL, ingestion.URLOptions{
		Fetch:      s.fetch,
		UseBrowser: s.useBrowser,
		Logger:     s.logger,
	})
	if err != nil {
		return "", err
	}
	s.logger.DebugContext(ctx, "fetched job posting", "url", meta.Location, "platform", meta.Platform, "chars", meta.Chars)
	return text, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
