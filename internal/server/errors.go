// Package server provides the HTTP API for generating cover letters.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/cover-letter-generator/internal/fetch"
	"github.com/jonathan/cover-letter-generator/internal/ingestion"
	"github.com/jonathan/cover-letter-generator/internal/layout"
	"github.com/jonathan/cover-letter-generator/internal/llm"
	"github.com/jonathan/cover-letter-generator/internal/pipeline"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrMissingCredential indicates no provider key was sent and none is stored.
type ErrMissingCredential struct{}

func (e *ErrMissingCredential) Error() string {
	return "no provider key: send X-Provider-Key or save one with set-key"
}

// ErrMissingProfile indicates no profile was sent and none is stored.
type ErrMissingProfile struct{}

func (e *ErrMissingProfile) Error() string {
	return "no resume profile: send one in the request or save one with parse-resume"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Wrapped errors are matched, so a provider failure inside a generation error
// still maps to 502.
func HTTPStatus(err error) int {
	var (
		validation    *ErrValidation
		configuration *pipeline.ConfigurationError
		invalid       *llm.InvalidRequestError
		unknown       *llm.UnknownProviderError
		layoutInput   *layout.InputError
		missingCred   *ErrMissingCredential
		missingProf   *ErrMissingProfile
		providerHTTP  *llm.ProviderHTTPError
		malformed     *llm.MalformedResponseError
		transport     *llm.TransportError
		fetchErr      *fetch.Error
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validation), errors.As(err, &configuration), errors.As(err, &invalid),
		errors.As(err, &unknown), errors.As(err, &layoutInput), errors.Is(err, ingestion.ErrEmptyInput),
		errors.Is(err, fetch.ErrBlockedAddress):
		return http.StatusBadRequest
	case errors.As(err, &missingCred):
		return http.StatusUnauthorized
	case errors.As(err, &missingProf):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &providerHTTP), errors.As(err, &malformed), errors.As(err, &transport), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
