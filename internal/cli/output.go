package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitInvalid      = 1 // Validation failure (the query does not validate)
	ExitCommandError = 2 // Command error (bad flags, unreadable files)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (ExitInvalid or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. A nil error is success;
// an error that carries no code is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`            // "ok" or "error"
	Data    any       `json:"data,omitempty"`    // success payload
	Error   *CLIError `json:"error,omitempty"`   // error details
	Session string    `json:"session,omitempty"` // registry session token
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string   `json:"code"`              // validation error code
	Message string   `json:"message"`           // human-readable message
	Context []string `json:"context,omitempty"` // scope context labels
}

// Success outputs a successful result in the configured format. text renders
// the payload's String form; json wraps it in a CLIResponse.
func (f *OutputFormatter) Success(data any, session string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			Session: session,
		})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format and returns an ExitError
// carrying exitCode so main can translate it.
func (f *OutputFormatter) Error(exitCode int, code, message string, context []string, session string) error {
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "error",
			Error:   &CLIError{Code: code, Message: message, Context: context},
			Session: session,
		})
	} else {
		fmt.Fprintf(f.Writer, "error [%s]: %s\n", code, message)
		for _, label := range context {
			fmt.Fprintf(f.Writer, "  in %s\n", label)
		}
	}
	return &ExitError{Code: exitCode, Message: message}
}
