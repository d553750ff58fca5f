package pipeline

import "fmt"

// ConfigurationError reports a run that cannot start because an input is
// missing or invalid. Nothing has been sent to a provider.
type ConfigurationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}
