// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for seqdiff commands.
//
// Handlers always return errors and never print-and-return-nil; Run
// displays them once and maps them to an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/tasks"
	"github.com/bionova/seqdiff/internal/verify"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a missing or rejected approval code
	ExitAuthError = 4
	// ExitNetworkError indicates the verification gateway could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitValidationError indicates a sequence failed validation
	ExitValidationError = 9
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "history", "verify")
	Action  string // Action being performed (e.g., "show", "delete")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	what := e.Command
	if e.Action != "" {
		what += " " + e.Action
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", what, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", what, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid command usage: a missing argument,
// a bad flag value, an unknown subcommand.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "comparison", "task")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Reason:  reason,
		Example: example,
	}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// ErrUnsupportedFormat creates an error for unsupported formats.
func ErrUnsupportedFormat(format string, supportedFormats []string) error {
	return NewValidationErrorWithExample(
		"format",
		format,
		"unsupported format",
		fmt.Sprintf("supported formats: %s", strings.Join(supportedFormats, ", ")),
	)
}

// =============================================================================
// ERROR DISPLAY HELPERS
// =============================================================================

// DisplayError displays an error in a consistent format.
//
// In JSON mode, outputs a failed JSONResponse with structured details.
// In normal mode, displays formatted error message on stderr.
func DisplayError(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		DisplayErrorJSON(command, err)
		return
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var seqErr *sequence.ValidationError
	if errors.As(err, &seqErr) && seqErr.Kind == sequence.KindInvalidCharacter {
		fmt.Fprintln(os.Stderr, DimStyle.Render("Sequences may only contain A, C, G and T (case, spaces and quotes are ignored)."))
	}
	fmt.Fprintln(os.Stderr)
}

// DisplayErrorJSON outputs an error as a JSONResponse whose data holds
// the error details.
func DisplayErrorJSON(command string, err error) {
	resp := NewJSONErrorResponse(command, err)
	resp.Data = errorDetails(err)
	resp.Fprint(os.Stdout, false)
}

// errorDetails describes err for machine consumers.
func errorDetails(err error) map[string]interface{} {
	output := make(map[string]interface{})

	var (
		seqErr      *sequence.ValidationError
		cmdErr      *CommandError
		usageErr    *ValidationError
		notFoundErr *NotFoundError
	)
	switch {
	case errors.As(err, &seqErr):
		output["error_type"] = seqErr.Kind.String()
		if seqErr.Field != "" {
			output["field"] = seqErr.Field
		}
		if seqErr.Kind == sequence.KindInvalidCharacter {
			output["symbol"] = string(seqErr.Symbol)
			output["index"] = seqErr.Index
		}

	case errors.As(err, &usageErr):
		output["error_type"] = "usage_error"
		output["field"] = usageErr.Field
		output["value"] = usageErr.Value
		output["reason"] = usageErr.Reason
		if usageErr.Example != "" {
			output["example"] = usageErr.Example
		}

	case errors.As(err, &notFoundErr):
		output["error_type"] = "not_found_error"
		output["resource"] = notFoundErr.Resource
		output["id"] = notFoundErr.ID

	case errors.As(err, &cmdErr):
		output["error_type"] = "command_error"
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
		output["reason"] = cmdErr.Reason
		if cmdErr.Err != nil {
			output["underlying_error"] = cmdErr.Err.Error()
		}

	default:
		output["error_type"] = "generic_error"
	}
	output["exit_code"] = GetExitCode(err)

	return output
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		seqErr      *sequence.ValidationError
		usageErr    *ValidationError
		notFoundErr *NotFoundError
		cfgErrs     config.ValidateErrors
		cfgErr      config.ValidationError
		gatewayErr  *verify.GatewayError
		netErr      net.Error
	)

	switch {
	case errors.As(err, &seqErr):
		return ExitValidationError

	case errors.As(err, &usageErr):
		return ExitUsageError

	case errors.As(err, &notFoundErr),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, tasks.ErrNotFound):
		return ExitNotFoundError

	case errors.Is(err, storage.ErrAmbiguousID):
		return ExitUsageError

	case errors.Is(err, verify.ErrApprovalRequired),
		errors.Is(err, verify.ErrApprovalInvalid):
		return ExitAuthError

	case errors.As(err, &cfgErrs), errors.As(err, &cfgErr):
		return ExitConfigError

	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError

	case errors.As(err, &gatewayErr), errors.As(err, &netErr):
		return ExitNetworkError
	}

	// Fall back to the message for errors from outside our packages
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "config"):
		return ExitConfigError
	case strings.Contains(errMsg, "timed out"):
		return ExitTimeoutError
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "no such host"):
		return ExitNetworkError
	}

	return ExitGeneralError
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsValidationError checks if an error is a usage validation error.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n) || errors.Is(err, storage.ErrNotFound)
}
