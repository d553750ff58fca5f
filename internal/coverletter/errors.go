package coverletter

import "fmt"

// GenerationError is returned when the cover letter could not be drafted.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to generate cover letter: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to generate cover letter: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
