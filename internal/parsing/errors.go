// Package parsing turns free-form resume text into a structured ResumeProfile
// with a language model.
package parsing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/cover-letter-generator/internal/schemas"
)

// APICallError wraps a provider failure while parsing a resume.
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resume parsing call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("resume parsing call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError means the model answered but the answer was not a usable profile.
// Fields lists the profile fields the schema rejected, if any.
type ParseError struct {
	Message string
	Fields  []string
	Cause   error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s (fields: %s)", msg, strings.Join(e.Fields, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("unusable resume JSON: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("unusable resume JSON: %s", msg)
}

// schemaParseError builds a ParseError from a schema validation failure,
// keeping each rejected field once in report order.
func schemaParseError(err error) *ParseError {
	parseErr := &ParseError{Message: "resume JSON does not match schema", Cause: err}
	var verr *schemas.ValidationError
	if !errors.As(err, &verr) {
		return parseErr
	}
	seen := make(map[string]bool, len(verr.Errors))
	for _, fe := range verr.Errors {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			parseErr.Fields = append(parseErr.Fields, fe.Field)
		}
	}
	return parseErr
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents input or output that fails validation.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}
