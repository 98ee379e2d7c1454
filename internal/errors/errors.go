// Package errors provides centralized error definitions and error handling utilities
// for calcwizard. It defines the sentinel errors of the wizard core, the domain
// error types for each failure class, and classification helpers used by the UI
// to decide what to show and whether an operation may be retried.
//
// # Error Taxonomy
//
// The wizard distinguishes four classes of failure:
//
//   - CompositionError: a plugin failed to load or declared a malformed
//     descriptor, or a blueprint declared a dependency that does not exist.
//     Plugin failures are recovered locally as an unavailable tab.
//   - Precondition violations (confirming a step whose predecessor is
//     unconfirmed) are not errors at all: transitions report false and leave
//     the state untouched.
//   - TransientError: job hydration or status query failures. Retryable in
//     principle, though the status monitor halts on the first one.
//   - SubmissionError: the job service rejected a submission. Carries the
//     server-provided detail when there is one.
//
// # Usage
//
//	err := errors.NewTransientError("fetch job status", cause).WithJobID("42")
//	if errors.IsRetryable(err) { ... }
//
//	var subErr *errors.SubmissionError
//	if errors.As(err, &subErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that degrade the wizard but leave it usable.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Plugin and composition sentinel errors
var (
	// ErrPluginUnavailable indicates that a plugin's code unit could not be loaded.
	ErrPluginUnavailable = New("plugin unavailable")
	// ErrMalformedManifest indicates that a plugin declared an invalid descriptor.
	ErrMalformedManifest = New("malformed plugin manifest")
	// ErrInvalidBlueprint indicates that a step blueprint is internally inconsistent.
	ErrInvalidBlueprint = New("invalid step blueprint")
	// ErrTabConflict indicates that a plugin tab would take the title of a built-in tab.
	ErrTabConflict = New("plugin tab conflicts with a built-in tab")
)

// Wizard state sentinel errors
var (
	// ErrUnknownStep indicates a step index or id that does not exist.
	ErrUnknownStep = New("unknown step")
	// ErrUnknownTab indicates a tab title that does not exist in its step.
	ErrUnknownTab = New("unknown tab")
)

// Job service sentinel errors
var (
	// ErrJobNotFound indicates that the job service has no record for a job id.
	ErrJobNotFound = New("job not found")
	// ErrNoJob indicates that no job id is available yet.
	ErrNoJob = New("no job submitted")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// WizardError is the base interface for all calcwizard errors.
type WizardError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Unwrap() error        { return e.cause }
func (e *baseError) Severity() Severity   { return e.severity }
func (e *baseError) IsRetryable() bool    { return e.retryable }
func (e *baseError) IsUserFacing() bool   { return e.userFacing }
func (e *baseError) is(target error) bool { return e.cause != nil && errors.Is(e.cause, target) }

// format renders "prefix [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// CompositionError reports a plugin or blueprint problem found while building
// the step list.
//
// Example:
//
//	err := errors.NewCompositionError("load plugin", errors.ErrPluginUnavailable).WithPluginID("bands")
//	fmt.Println(err) // "composition error [plugin=bands]: load plugin: plugin unavailable"
type CompositionError struct {
	baseError
	PluginID string
	StepID   string
}

// NewCompositionError creates a new CompositionError.
func NewCompositionError(message string, cause error) *CompositionError {
	return &CompositionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithPluginID adds the offending plugin id to the error context.
func (e *CompositionError) WithPluginID(id string) *CompositionError {
	e.PluginID = id
	return e
}

// WithStepID adds the offending step id to the error context.
func (e *CompositionError) WithStepID(id string) *CompositionError {
	e.StepID = id
	return e
}

// Error returns the formatted error message.
func (e *CompositionError) Error() string {
	var parts []string
	if e.PluginID != "" {
		parts = append(parts, "plugin="+e.PluginID)
	}
	if e.StepID != "" {
		parts = append(parts, "step="+e.StepID)
	}
	return e.format("composition error", parts)
}

// Is checks if this error matches the target.
func (e *CompositionError) Is(target error) bool {
	if _, ok := target.(*CompositionError); ok {
		return true
	}
	return e.is(target)
}

// TransientError reports an I/O failure talking to the job service.
//
// Example:
//
//	err := errors.NewTransientError("fetch job status", cause).WithJobID("42")
type TransientError struct {
	baseError
	Op    string
	JobID string
}

// NewTransientError creates a new TransientError for the named operation.
func NewTransientError(op string, cause error) *TransientError {
	return &TransientError{
		baseError: baseError{
			message:    op,
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: true,
		},
		Op: op,
	}
}

// WithJobID adds a job id to the error context.
func (e *TransientError) WithJobID(id string) *TransientError {
	e.JobID = id
	return e
}

// Error returns the formatted error message.
func (e *TransientError) Error() string {
	var parts []string
	if e.JobID != "" {
		parts = append(parts, "job="+e.JobID)
	}
	return e.format("transient error", parts)
}

// Is checks if this error matches the target.
func (e *TransientError) Is(target error) bool {
	if _, ok := target.(*TransientError); ok {
		return true
	}
	return e.is(target)
}

// SubmissionError reports a rejected job submission. Detail holds the message
// supplied by the server, if any.
type SubmissionError struct {
	baseError
	StatusCode int
	Status     string
	Detail     string
}

// NewSubmissionError creates a new SubmissionError from an HTTP response.
func NewSubmissionError(statusCode int, status, detail string) *SubmissionError {
	return &SubmissionError{
		baseError: baseError{
			message:    "submission rejected",
			severity:   SeverityError,
			userFacing: true,
		},
		StatusCode: statusCode,
		Status:     status,
		Detail:     detail,
	}
}

// WithCause attaches an underlying error.
func (e *SubmissionError) WithCause(cause error) *SubmissionError {
	e.cause = cause
	return e
}

// Message returns the user-visible text: the server detail when present,
// otherwise a generic status-code message.
func (e *SubmissionError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.StatusCode == 0 && e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("Server responded with %d, %s", e.StatusCode, e.Status)
}

// Error returns the formatted error message.
func (e *SubmissionError) Error() string {
	return "submission error: " + e.Message()
}

// Is checks if this error matches the target.
func (e *SubmissionError) Is(target error) bool {
	if _, ok := target.(*SubmissionError); ok {
		return true
	}
	return e.is(target)
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsRetryable reports whether err is a transient failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var wizardErr WizardError
	if As(err, &wizardErr) {
		return wizardErr.IsRetryable()
	}
	return false
}

// IsUserFacing reports whether err's message is safe to show in the UI.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var wizardErr WizardError
	if As(err, &wizardErr) {
		return wizardErr.IsUserFacing()
	}
	return Is(err, ErrJobNotFound) || Is(err, ErrNoJob)
}

// GetSeverity returns the severity of err, defaulting to SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var wizardErr WizardError
	if As(err, &wizardErr) {
		return wizardErr.Severity()
	}
	return SeverityError
}

// UserMessage returns the text the UI shows for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var subErr *SubmissionError
	if As(err, &subErr) {
		return "Error submitting data: " + subErr.Message()
	}
	if IsUserFacing(err) {
		return err.Error()
	}
	return "unexpected error (see log for details)"
}

// Wrap wraps an error with additional context.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
