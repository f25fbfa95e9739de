package errors

import (
	"errors"
	"fmt"
)

// Exit codes for the stevedore CLI. Each failure kind gets its own code so
// scripts can distinguish, say, "nothing to roll back to" from "restore
// failed" without parsing output.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a generic, unclassified error.
	ExitFailure = 1

	// ExitConfig indicates invalid or missing configuration.
	ExitConfig = 2

	// ExitHook indicates a hook command exited non-zero.
	ExitHook = 3

	// ExitBackup indicates snapshot creation failed.
	ExitBackup = 4

	// ExitNotFound indicates a named backup does not exist.
	ExitNotFound = 5

	// ExitNoBackups indicates a rollback was requested with nothing to restore.
	ExitNoBackups = 6

	// ExitDeploy indicates a copy or restore I/O failure.
	ExitDeploy = 7
)

// ExitError wraps an error with an exit code and optional suggestion for the CLI.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewExitErrorWithSuggestion creates an ExitError with a suggestion.
func NewExitErrorWithSuggestion(err error, code int, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       code,
		Suggestion: suggestion,
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Code extracts the exit code from an error chain.
// Returns ExitSuccess for nil and ExitFailure for errors that carry no ExitError.
func Code(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
