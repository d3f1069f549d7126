// Package errors provides standardized error handling for the assessment
// pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeAnalysisFailed            ErrorCode = "ANALYSIS_FAILED"
	ErrCodeAnalysisTimeout           ErrorCode = "ANALYSIS_TIMEOUT"
	ErrCodeAnalysisContractViolation ErrorCode = "ANALYSIS_CONTRACT_VIOLATION"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeLeadRecordFailed       ErrorCode = "LEAD_RECORD_FAILED"

	ErrCodeExportFailed ErrorCode = "EXPORT_FAILED"

	ErrCodeProgressStoreFailed ErrorCode = "PROGRESS_STORE_FAILED"
	ErrCodeProgressCorrupt     ErrorCode = "PROGRESS_CORRUPT"

	ErrCodeSubmissionInFlight  ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeInvalidStateForCall ErrorCode = "INVALID_STATE_FOR_CALL"

	ErrCodeNarrativeUnavailable ErrorCode = "NARRATIVE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from any error, normalizing non-standard
// errors to INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// IsRetryable reports whether the caller may usefully retry the failed
// operation without changing its input.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable draft validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Assessment data validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisFailedError creates a retryable analysis error. The draft is
// retained so the user may resubmit.
func NewAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisFailed,
		Message:   "Product analysis failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisTimeoutError creates a retryable analysis timeout error.
func NewAnalysisTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisTimeout,
		Message:   "Product analysis timed out",
		Details:   fmt.Sprintf("timeout: %s", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisContractViolationError creates a non-retryable error for a
// structurally invalid analysis result (zero recommendations, duplicate
// primary, malformed payload).
func NewAnalysisContractViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisContractViolation,
		Message:   "Analysis result violates the data contract",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
// Never user-visible; logged by the dispatcher.
func NewNotificationSendFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Lead notification delivery failed",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadRecordFailedError creates a retryable lead persistence error.
func NewLeadRecordFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadRecordFailed,
		Message:   "Lead record insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError creates a retryable export error. Surfaced to the user
// as recoverable; never invalidates a completed assessment.
func NewExportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Report export failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProgressStoreFailedError creates a progress persistence error. Callers
// swallow it; persistence is an optimization, not a correctness requirement.
func NewProgressStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProgressStoreFailed,
		Message:   "Progress store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProgressCorruptError marks a stored snapshot that could not be decoded.
func NewProgressCorruptError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProgressCorrupt,
		Message:   "Stored progress is malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInFlightError rejects a re-entrant submit while an analysis
// call is outstanding.
func NewSubmissionInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "A submission is already being analyzed",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidStateForCallError rejects an operation not permitted in the
// machine's current state.
func NewInvalidStateForCallError(operation, state string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStateForCall,
		Message:   "Operation not permitted in current state",
		Details:   fmt.Sprintf("operation: %s, state: %s", operation, state),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNarrativeUnavailableError marks the optional narrative generator as
// unreachable; the deterministic engine falls back to local text.
func NewNarrativeUnavailableError(details string, err error) *StandardError {
	if err != nil {
		details = fmt.Sprintf("%s: %s", details, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeNarrativeUnavailable,
		Message:   "Narrative generator unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
