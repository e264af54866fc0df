package cmd

import "fmt"

// Exit codes for apiplay CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitHTTPError indicates the server answered with a non-2xx status
	ExitHTTPError = 1

	// ExitValidationError indicates the draft failed validation
	ExitValidationError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a transport failure, cancellation or timeout
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code. A nil err means the failure was
// already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	return &exitError{code: code, err: err}
}
