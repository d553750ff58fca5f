package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/cover-letter-generator/internal/coverletter"
	"github.com/jonathan/cover-letter-generator/internal/fetch"
	"github.com/jonathan/cover-letter-generator/internal/ingestion"
	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "job_url", Message: "must be a URL"}
	assert.Equal(t, "validation error: job_url - must be a URL", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", &ErrValidation{Field: "f", Message: "m"}, http.StatusBadRequest},
		{"configuration", &pipeline.ConfigurationError{Field: "job_text", Message: "empty"}, http.StatusBadRequest},
		{"invalid request", &llm.InvalidRequestError{Message: "no messages"}, http.StatusBadRequest},
		{"unknown provider", &llm.UnknownProviderError{Provider: "mistral"}, http.StatusBadRequest},
		{"layout input", &layout.InputError{Message: "bad text"}, http.StatusBadRequest},
		{"empty input", fmt.Errorf("job: %w", ingestion.ErrEmptyInput), http.StatusBadRequest},
		{"missing credential", &ErrMissingCredential{}, http.StatusUnauthorized},
		{"missing profile", &ErrMissingProfile{}, http.StatusUnprocessableEntity},
		{"provider http", &llm.ProviderHTTPError{Provider: "groq", StatusCode: 401}, http.StatusBadGateway},
		{
			"wrapped provider http",
			&coverletter.GenerationError{Message: "provider call failed", Cause: &llm.ProviderHTTPError{Provider: "openai", StatusCode: 500}},
			http.StatusBadGateway,
		},
		{"malformed", &llm.MalformedResponseError{Provider: "gemini", Message: "no candidates"}, http.StatusBadGateway},
		{"fetch", &fetch.Error{URL: "https://x", Message: "HTTP status 404"}, http.StatusBadGateway},
		{"blocked fetch", &fetch.Error{URL: "http://127.0.0.1", Message: "refusing to fetch", Cause: fetch.ErrBlockedAddress}, http.StatusBadRequest},
		{"deadline", &llm.TransportError{Provider: "groq", Cause: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
