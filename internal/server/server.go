package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cover-letter-generator/internal/config"
	"github.com/jonathan/cover-letter-generator/internal/fetch"
	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/server/middleware"
	"github.com/jonathan/cover-letter-generator/internal/server/ratelimit"
	"github.com/jonathan/cover-letter-generator/internal/store"
)

// DefaultRunTimeout bounds one generation request.
const DefaultRunTimeout = 3 * time.Minute

// Options configures a Server. Client is required.
type Options struct {
	Client        *llm.Client
	Store         store.Store       // nil means every request must carry its key and profile
	JWT           *config.JWTConfig // nil disables authentication
	AllowedOrigin string
	Layout        layout.Config
	Fetch         *fetch.Options // internal addresses are always refused unless AllowPrivateFetch
	UseBrowser    bool
	// AllowPrivateFetch lets job_url point at loopback and private networks.
	AllowPrivateFetch bool
	RunTimeout    time.Duration
	RateLimit     *ratelimit.Config
	Logger        *slog.Logger
}

// Server serves the cover letter API.
type Server struct {
	client     *llm.Client
	store      store.Store
	jwt        *JWTService
	limiter    *ratelimit.Limiter
	validate   *validator.Validate
	logger     *slog.Logger
	origin     string
	layout     layout.Config
	fetch      *fetch.Options
	useBrowser bool
	runTimeout time.Duration
	handler    http.Handler
}

// New builds the server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("server requires a provider client")
	}

	s := &Server{
		client:     opts.Client,
		store:      opts.Store,
		limiter:    ratelimit.NewLimiter(opts.RateLimit),
		validate:   newValidator(),
		logger:     opts.Logger,
		origin:     opts.AllowedOrigin,
		layout:     opts.Layout,
		fetch:      fetchOptions(opts),
		useBrowser: opts.UseBrowser,
		runTimeout: opts.RunTimeout,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.origin == "" {
		s.origin = "*"
	}
	if s.layout == (layout.Config{}) {
		s.layout = layout.DefaultConfig()
	}
	if s.runTimeout <= 0 {
		s.runTimeout = DefaultRunTimeout
	}
	if opts.JWT != nil {
		s.jwt = NewJWTService(opts.JWT)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /providers", s.handleProviders)
	mux.Handle("POST /detect", s.protect(http.HandlerFunc(s.handleDetect)))
	mux.Handle("POST /cover-letters", s.protect(http.HandlerFunc(s.handleCoverLetter)))
	mux.Handle("POST /cover-letters/stream", s.protect(http.HandlerFunc(s.handleCoverLetterStream)))

	s.handler = middleware.RequestID(s.withLogging(s.withCORS(s.withRateLimit(mux))))
	return s, nil
}

// fetchOptions copies the configured fetch options and applies the
// private network policy.
func fetchOptions(opts Options) *fetch.Options {
	fo := fetch.DefaultOptions()
	if opts.Fetch != nil {
		copied := *opts.Fetch
		fo = &copied
	}
	fo.BlockPrivateNetworks = !opts.AllowPrivateFetch
	return fo
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.runTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "auth", s.jwt != nil, "store", s.store != nil)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-errCh
	s.logger.Info("server stopped")
	return nil
}

// protect requires a bearer token when authentication is configured.
func (s *Server) protect(next http.Handler) http.Handler {
	if s.jwt == nil {
		return next
	}
	return middleware.AuthMiddleware(s.jwt.AsTokenValidator())(next)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+ProviderKeyHeader)
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Run-ID, X-Provider, "+middleware.RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging. It keeps Flush
// working for event streams.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging logs one line per request. Headers are never logged, so
// provider keys and tokens stay out of the log.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", middleware.GetRequestID(r.Context()),
			"remote", clientIP(r),
		)
	})
}

// withRateLimit applies the per-client limits.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(clientIP(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		}
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":      "rate_limit_exceeded",
		"message":    "Rate limit exceeded. Please try again later.",
		"request_id": middleware.GetRequestID(r.Context()),
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		seconds = max(seconds, 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	s.logger.WarnContext(r.Context(), "rate limit exceeded", "path", r.URL.Path, "remote", clientIP(r))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// clientIP uses the connection address. Forwarded headers are not trusted.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes err as JSON with the status from HTTPStatus. Internal
// errors are logged and replaced by a generic message.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "error", err,
			"request_id", middleware.GetRequestID(r.Context()))
		message = "internal server error"
	}
	s.jsonResponse(w, status, map[string]string{
		"error":      message,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts the first validator failure into an *ErrValidation.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var message string
	switch fe.Tag() {
	case "required", "required_without":
		message = "is required"
	case "url":
		message = "must be an absolute URL"
	case "email":
		message = "must be an email address"
	case "datetime":
		message = "must be a date in YYYY-MM-DD form"
	case "gt", "lte", "max":
		message = fmt.Sprintf("fails %s=%s", fe.Tag(), fe.Param())
	default:
		message = "is invalid (" + fe.Tag() + ")"
	}
	return &ErrValidation{Field: field, Message: message}
}
