package cli

import "fmt"

// Exit codes.
const (
	ExitSuccess      = 0 // Success
	ExitGeneral      = 1 // General/unknown error
	ExitConfig       = 2 // Invalid YAML or configuration values
	ExitDatabase     = 3 // Database init fails, corrupt/locked
	ExitUnknownCheck = 4 // Check kind not recognised or not enabled
	ExitViolation    = 5 // Operation did not pass and --fail-on-violation was set
	ExitTerminated   = 6 // Enforcement ended the session
)

// ExitCoder is an interface for errors that carry a custom exit code and message.
type ExitCoder interface {
	ExitCode() int
	Message() string
}

type cliError struct {
	code    int
	message string
	err     error
}

// NewCLIError creates a new CLIError with the given code and message.
func NewCLIError(code int, message string) *cliError {
	return &cliError{
		code:    code,
		message: message,
	}
}

// WrapError creates a new CLIError wrapping an underlying error.
func WrapError(code int, message string, err error) *cliError {
	return &cliError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Error implements the error interface.
func (e *cliError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

// ExitCode returns the exit code for this error.
func (e *cliError) ExitCode() int {
	return e.code
}

// Message returns the formatted message for display.
func (e *cliError) Message() string {
	return fmt.Sprintf("Error: %s\n", e.Error())
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *cliError) Unwrap() error {
	return e.err
}

// ErrConfig creates a configuration error.
func ErrConfig(message string, err error) *cliError {
	return WrapError(ExitConfig, message, err)
}

// ErrDatabase creates a database error.
func ErrDatabase(message string, err error) *cliError {
	return WrapError(ExitDatabase, message, err)
}

// ErrUnknownCheck creates an unknown or disabled check error.
func ErrUnknownCheck(name string, err error) *cliError {
	return WrapError(ExitUnknownCheck, fmt.Sprintf("cannot run check %q", name), err)
}

// ErrViolation reports an operation that did not pass.
func ErrViolation(message string) *cliError {
	return NewCLIError(ExitViolation, message)
}

// ErrTerminated reports that enforcement ended the session.
func ErrTerminated(message string) *cliError {
	return NewCLIError(ExitTerminated, fmt.Sprintf("session terminated: %s", message))
}
