package llm

import "fmt"

// ProviderHTTPError is returned when a provider answers with a non-2xx status.
type ProviderHTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// MalformedResponseError is returned when a provider response cannot be decoded.
type MalformedResponseError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Provider, e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// UnknownProviderError is returned when a provider id is not in the registry.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %q", e.Provider)
}

// InvalidRequestError is returned before any network I/O when a request is unusable.
type InvalidRequestError struct {
	Field   string
	Message string
}

func (e *InvalidRequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// TransportError wraps a failure to reach the provider.
type TransportError struct {
	Provider string
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
