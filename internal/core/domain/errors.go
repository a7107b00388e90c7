// Package domain defines the core domain models for mobsession.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a client-side error with a structured error code.
// Codes have the form "MS-<AREA>-<NNNN>".
type DomainError struct {
	Code    string // Error code (e.g., "MS-SESS-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrCookieNotValid indicates a required session cookie is absent or expired.
	ErrCookieNotValid = NewDomainError("MS-SESS-4010", "cookie not valid")

	// ErrCheckpointRequired indicates the platform demands an interactive
	// verification before the session can be used.
	ErrCheckpointRequired = NewDomainError("MS-SESS-4030", "checkpoint required")

	// ErrDeviceMismatch indicates the cookie store belongs to another device.
	ErrDeviceMismatch = NewDomainError("MS-SESS-4090", "cookie store belongs to a different device")

	// ErrSessionDestroyed indicates the session was destroyed and cannot be used.
	ErrSessionDestroyed = NewDomainError("MS-SESS-4100", "session destroyed")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAuthentication indicates the platform rejected the credentials.
	ErrAuthentication = NewDomainError("MS-AUTH-4010", "authentication failed")

	// ErrLoginRequired indicates the platform no longer accepts the session cookies.
	ErrLoginRequired = NewDomainError("MS-AUTH-4011", "login required")

	// ErrAccountBanned indicates the account is inactive or banned.
	ErrAccountBanned = NewDomainError("MS-AUTH-4030", "account banned")
)

// ============================================================================
// Request Errors (REQ)
// ============================================================================

var (
	// ErrRequestFailed indicates the platform answered with an error payload.
	ErrRequestFailed = NewDomainError("MS-REQ-4000", "request failed")

	// ErrRequestsLimit indicates the platform is throttling this client.
	ErrRequestsLimit = NewDomainError("MS-REQ-4290", "requests limit reached")

	// ErrTransport indicates the request never produced a response.
	ErrTransport = NewDomainError("MS-REQ-5000", "transport error")

	// ErrParseResponse indicates a response body could not be decoded.
	ErrParseResponse = NewDomainError("MS-REQ-5020", "unparsable response")
)

// ============================================================================
// Challenge Errors (CHAL)
// ============================================================================

var (
	// ErrChallengeRejected indicates the platform refused a submitted code or number.
	ErrChallengeRejected = NewDomainError("MS-CHAL-4000", "challenge rejected")

	// ErrNoPhoneAvailable indicates the phone inbox pool is empty.
	ErrNoPhoneAvailable = NewDomainError("MS-CHAL-4040", "no phone number available")

	// ErrVerificationCodeNotFound indicates no code arrived on the side-channel.
	ErrVerificationCodeNotFound = NewDomainError("MS-CHAL-4041", "verification code not found")

	// ErrChallengeNotImplemented indicates an unsupported challenge type.
	ErrChallengeNotImplemented = NewDomainError("MS-CHAL-5010", "challenge type not implemented")

	// ErrSideChannelUnavailable indicates the challenge needs a side-channel
	// that was not configured.
	ErrSideChannelUnavailable = NewDomainError("MS-CHAL-5030", "verification side-channel not configured")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("MS-SYS-5000", "internal error")

	// ErrStorage indicates a cookie storage failure.
	ErrStorage = NewDomainError("MS-SYS-5001", "storage error")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("MS-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("MS-ARG-1002", "missing required argument")

	// ErrInvalidProxyURL indicates the proxy URL failed validation.
	ErrInvalidProxyURL = NewDomainError("MS-ARG-1004", "invalid proxy url")
)

// Checkpoint describes the verification the platform asked for.
type Checkpoint struct {
	URL     string // Web URL of the challenge
	APIPath string // API path of the challenge, relative to the API root
	Lock    bool   // Account is locked until the challenge is passed
}

// CheckpointError is returned when the platform answers with
// "checkpoint_required". It matches ErrCheckpointRequired with errors.Is.
type CheckpointError struct {
	Checkpoint Checkpoint
	Message    string
}

// NewCheckpointError creates a CheckpointError for the given checkpoint.
func NewCheckpointError(cp Checkpoint, message string) *CheckpointError {
	return &CheckpointError{Checkpoint: cp, Message: message}
}

func (e *CheckpointError) Error() string {
	msg := ErrCheckpointRequired.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Checkpoint.URL != "" {
		msg += " (" + e.Checkpoint.URL + ")"
	}
	return msg
}

// Unwrap exposes the sentinel so errors.Is(err, ErrCheckpointRequired) holds.
func (e *CheckpointError) Unwrap() error {
	return ErrCheckpointRequired
}

// ErrorPayload is the JSON body the platform attaches to failed responses.
type ErrorPayload struct {
	Status             string `json:"status"`
	Message            string `json:"message"`
	ErrorType          string `json:"error_type"`
	HelpURL            string `json:"help_url"`
	InvalidCredentials bool   `json:"invalid_credentials"`
	ChallengeURL       string `json:"checkpoint_url"`
	Lock               bool   `json:"lock"`
	Challenge          *struct {
		URL     string `json:"url"`
		APIPath string `json:"api_path"`
		Lock    bool   `json:"lock"`
	} `json:"challenge,omitempty"`
}

// RequestError is returned when the platform rejected a request with a
// payload that maps to no more specific kind. It matches ErrRequestFailed.
type RequestError struct {
	StatusCode int
	Payload    ErrorPayload
}

func (e *RequestError) Error() string {
	parts := []string{fmt.Sprintf("status %d", e.StatusCode)}
	if e.Payload.ErrorType != "" {
		parts = append(parts, e.Payload.ErrorType)
	}
	if e.Payload.Message != "" {
		parts = append(parts, e.Payload.Message)
	}
	return ErrRequestFailed.Error() + ": " + strings.Join(parts, ", ")
}

// Unwrap exposes the sentinel so errors.Is(err, ErrRequestFailed) holds.
func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}
