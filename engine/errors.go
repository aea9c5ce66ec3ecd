package engine

import (
	"errors"
	"fmt"
)

// ErrAborted reports an operator interrupt (Escape, window close or a
// termination signal).
var ErrAborted = errors.New("aborted by operator")

// ConfigurationError is fatal and raised before any device interaction.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
