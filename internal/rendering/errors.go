// Package rendering draws laid out cover letters as PDF documents and names the output file.
package rendering

import "fmt"

// RenderError is returned when a laid out document cannot be turned into PDF bytes.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pdf rendering failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("pdf rendering failed: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
