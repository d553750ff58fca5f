package layout

import "fmt"

// InputError is returned for text or configuration that cannot be laid out.
type InputError struct {
	Message string
	Offset  int
}

func (e *InputError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("layout input error at byte %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("layout input error: %s", e.Message)
}

func configError(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...), Offset: -1}
}
