package internal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitUsage indicates invalid arguments or flags
	ExitUsage = 2
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitUnhealthy indicates a health check found a failing dependency
	ExitUnhealthy = 5
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitStartupError indicates the lexicon or template catalog could not be loaded
	ExitStartupError = 11
	// ExitGraphError indicates the graph database could not be reached
	ExitGraphError = 12
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError prints err to the command's error output and returns the exit
// code for it.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil && verboseFlagSet(cmd) {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	var medErr *types.Error
	if errors.As(err, &medErr) {
		cmd.PrintErrln("Error:", medErr.Error())
		return mapErrorCodeToExitCode(medErr.Code)
	}

	cmd.PrintErrln("Error:", err)
	return ExitError
}

func verboseFlagSet(cmd *cobra.Command) bool {
	f := cmd.Flag("verbose")
	return f != nil && f.Changed
}

// mapErrorCodeToExitCode maps error codes to CLI exit codes
func mapErrorCodeToExitCode(code types.ErrorCode) int {
	switch code {
	case types.CONFIG_LOAD_FAILED,
		types.CONFIG_PARSE_FAILED,
		types.CONFIG_VALIDATION_FAILED,
		types.CONFIG_NOT_FOUND:
		return ExitConfigError
	case types.LEXICON_LOAD_FAILED,
		types.LEXICON_EMPTY,
		types.TEMPLATE_INVALID,
		types.INIT_FAILED,
		types.TRACING_INIT_FAILED:
		return ExitStartupError
	case graph.ErrCodeGraphConnectionFailed,
		graph.ErrCodeGraphConnectionClosed,
		graph.ErrCodeGraphInvalidConfig:
		return ExitGraphError
	case types.INTENT_UNKNOWN,
		types.CATEGORY_UNKNOWN,
		types.RELATION_UNKNOWN,
		types.INPUT_INVALID:
		return ExitUsage
	default:
		return ExitError
	}
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag.
// It is used by panic recovery before flags are parsed.
func IsVerbose() bool {
	if os.Getenv("MEDQA_VERBOSE") != "" {
		return true
	}
	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}
	return false
}
