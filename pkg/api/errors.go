package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// CodeUnknown is used when the backend error body carries no code.
	CodeUnknown = "UNKNOWN_ERROR"
	// CodeNetwork marks failures that never produced an HTTP response:
	// timeouts, DNS errors, refused connections.
	CodeNetwork = "NETWORK_ERROR"
)

// ErrPollTimeout is returned by PollJobStatus when the job does not reach a
// terminal state within the configured timeout.
var ErrPollTimeout = errors.New("Job polling timeout exceeded")

// Error is a classified backend failure.
//
// Status is the HTTP status code, or 0 for network failures. Details holds
// whatever the backend put in the "details" field of its error body.
type Error struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
	Status  int             `json:"status"`

	cause error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure belongs to the transient class
// (5xx, 429 or network).
func (e *Error) Retryable() bool {
	return isRetryableStatus(e.Status) || e.Status == 0
}

// errorBody is the optional error document returned by the backend.
type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// newHTTPError classifies a non-2xx response. A body that is not JSON, or that
// lacks fields, falls back to the defaults.
func newHTTPError(status int, body []byte) *Error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	e := &Error{
		Code:    parsed.Code,
		Message: parsed.Message,
		Details: parsed.Details,
		Status:  status,
	}
	if e.Code == "" {
		e.Code = CodeUnknown
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", status)
	}
	if string(e.Details) == "null" {
		e.Details = nil
	}
	return e
}

func newNetworkError(err error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: err.Error(),
		cause:   err,
	}
}

// JobError reports a job that finished in the failed state.
type JobError struct {
	JobID   string
	Message string
}

func (e *JobError) Error() string {
	return e.Message
}

// IsStatus reports whether err is a classified error with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == status
}

// AsError returns the classified form of err, if it has one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
