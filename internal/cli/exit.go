package cli

import (
	"errors"
	"fmt"

	"github.com/bjaus/datagrid"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rendering or datasource failure
	ExitCommandError = 2 // Bad arguments or grid definition
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not
// an ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify picks the exit code for a library error: bad input is a
// command error, everything else a failure.
func classify(message string, err error) *ExitError {
	switch {
	case errors.Is(err, datagrid.ErrValidation),
		errors.Is(err, datagrid.ErrDriverLoad),
		errors.Is(err, datagrid.ErrBinding),
		errors.Is(err, datagrid.ErrUnsupported):
		return WrapExitError(ExitCommandError, message, err)
	default:
		return WrapExitError(ExitFailure, message, err)
	}
}
