package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultTimeout bounds a single provider call when the caller's context has no deadline.
const DefaultTimeout = 120 * time.Second

// Caller performs a single generation request. The prompt pipeline depends on
// this interface rather than on a concrete client.
type Caller interface {
	Call(ctx context.Context, req GenerationRequest) (string, error)
}

// Target is a resolved provider, credential and model reused across calls.
type Target struct {
	Provider   ProviderID
	Credential string
	Model      string
}

// Request builds a GenerationRequest for the target.
func (t Target) Request(messages []Message, temperature float64) GenerationRequest {
	return GenerationRequest{
		Provider:    t.Provider,
		Credential:  t.Credential,
		Messages:    messages,
		Temperature: temperature,
		Model:       t.Model,
	}
}

// Client adapts GenerationRequests to provider HTTP APIs.
type Client struct {
	registry   *Registry
	classifier *Classifier
	httpClient *http.Client
	logger     *slog.Logger
	validate   *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger. Credentials are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClassifier replaces the credential classifier.
func WithClassifier(classifier *Classifier) Option {
	return func(c *Client) {
		if classifier != nil {
			c.classifier = classifier
		}
	}
}

// NewClient creates a client over registry. A nil registry uses DefaultRegistry.
func NewClient(registry *Registry, opts ...Option) *Client {
	if registry == nil {
		registry = DefaultRegistry()
	}
	c := &Client{
		registry:   registry,
		classifier: DefaultClassifier(),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.DiscardHandler),
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the client resolves providers from.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Classify returns the provider the classifier picks for credential.
func (c *Client) Classify(credential string) ProviderID {
	return c.classifier.Classify(credential)
}

// Explain returns the classified provider and the name of the rule that matched.
func (c *Client) Explain(credential string) (ProviderID, string) {
	return c.classifier.Explain(credential)
}

// DetectProviderName returns the display name of the provider classified from credential.
func (c *Client) DetectProviderName(credential string) string {
	id := c.classifier.Classify(credential)
	if d, ok := c.registry.Get(id); ok {
		return d.DisplayName
	}
	return string(id)
}

// Target returns a target for an explicitly chosen provider.
func (c *Client) Target(provider ProviderID, credential, model string) (Target, error) {
	if _, err := c.registry.Resolve(provider); err != nil {
		return Target{}, err
	}
	return Target{Provider: provider, Credential: credential, Model: model}, nil
}

// AutoTarget returns a target whose provider is classified from credential.
func (c *Client) AutoTarget(credential, model string) Target {
	return Target{Provider: c.classifier.Classify(credential), Credential: credential, Model: model}
}

// CallAutoDetected classifies credential and performs the call.
func (c *Client) CallAutoDetected(ctx context.Context, credential string, messages []Message, temperature float64, model string) (string, error) {
	return c.Call(ctx, c.AutoTarget(credential, model).Request(messages, temperature))
}

// Call performs one POST to the provider named in req and returns the decoded text.
// A successful response with no text at the expected path returns "".
func (c *Client) Call(ctx context.Context, req GenerationRequest) (string, error) {
	if err := c.validateRequest(req); err != nil {
		return "", err
	}

	desc, err := c.registry.Resolve(req.Provider)
	if err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = desc.DefaultModel
	}

	body, err := encodeBody(desc.WireFormat, model, req.Messages, req.Temperature)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, resolveEndpoint(desc, model, req.Credential), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create %s request: %w", desc.DisplayName, err)
	}
	applyHeaders(httpReq.Header, desc, req.Credential)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		redactURLError(err)
		c.logger.DebugContext(ctx, "provider call failed",
			"provider", desc.ID, "model", model, "latency", time.Since(start), "error", err)
		return "", &TransportError{Provider: desc.DisplayName, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	c.logger.DebugContext(ctx, "provider call",
		"provider", desc.ID, "model", model, "status", resp.StatusCode, "latency", time.Since(start))
	if err != nil {
		return "", &TransportError{Provider: desc.DisplayName, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderHTTPError{Provider: desc.DisplayName, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	text, err := decodeText(desc.WireFormat, respBody)
	if err != nil {
		return "", &MalformedResponseError{Provider: desc.DisplayName, Message: "response is not valid JSON", Cause: err}
	}
	return text, nil
}

func (c *Client) validateRequest(req GenerationRequest) error {
	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InvalidRequestError{Field: fe.Namespace(), Message: describeTag(fe)}
	}
	return &InvalidRequestError{Message: err.Error()}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("must be between 0 and 1, got %v", fe.Value())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// resolveEndpoint fills the model placeholder and, for query-parameter auth,
// appends the escaped credential.
func resolveEndpoint(desc ProviderDescriptor, model, credential string) string {
	if desc.AuthStyle != AuthQueryParameter {
		return desc.Endpoint
	}
	endpoint := strings.ReplaceAll(desc.Endpoint, ModelPlaceholder, url.PathEscape(model))
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "key=" + url.QueryEscape(credential)
}

// redactURLError masks the key query parameter in a *url.Error so query-parameter
// credentials never reach error messages or logs.
func redactURLError(err error) {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return
	}
	parsed, perr := url.Parse(uerr.URL)
	if perr != nil {
		uerr.URL = "(redacted)"
		return
	}
	q := parsed.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		parsed.RawQuery = q.Encode()
		uerr.URL = parsed.String()
	}
}

func applyHeaders(h http.Header, desc ProviderDescriptor, credential string) {
	h.Set("Content-Type", "application/json")
	switch desc.AuthStyle {
	case AuthBearer:
		h.Set("Authorization", "Bearer "+credential)
	case AuthAPIKeyHeader:
		h.Set("x-api-key", credential)
		h.Set("anthropic-version", AnthropicVersion)
	}
	for k, v := range desc.ExtraHeaders {
		h.Set(k, v)
	}
}
