package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUpstreamNonSuccess = "UPSTREAM_NON_SUCCESS"
	ErrCodeTransport          = "TRANSPORT_ERROR"
	ErrCodeAutomation         = "AUTOMATION_ERROR"

	// Routing-layer codes; never produced by the dispatcher.
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Step       string `json:"step,omitempty"`
}

// ScrapeError is the classified failure of a dispatch.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string

	// StatusCode is the upstream HTTP status for UPSTREAM_NON_SUCCESS.
	StatusCode int

	// Step names the automation step for AUTOMATION_ERROR.
	Step string

	Err error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// BadRequest reports invalid caller input.
func BadRequest(message string) *ScrapeError {
	return NewScrapeError(ErrCodeBadRequest, message, nil)
}

// UpstreamNonSuccess reports a response outside the 2xx range.
func UpstreamNonSuccess(status int, url string) *ScrapeError {
	e := NewScrapeError(ErrCodeUpstreamNonSuccess, fmt.Sprintf("upstream returned HTTP %d for %s", status, url), nil)
	e.StatusCode = status
	return e
}

// TransportFailure reports a fetch that never produced a response.
func TransportFailure(message string, err error) *ScrapeError {
	return NewScrapeError(ErrCodeTransport, message, err)
}

// AutomationFailure reports a browser launch or step failure.
func AutomationFailure(step, message string, err error) *ScrapeError {
	e := NewScrapeError(ErrCodeAutomation, fmt.Sprintf("%s: %s", step, message), err)
	e.Step = step
	return e
}

// AsScrapeError extracts a *ScrapeError from err's chain. Errors without
// one are wrapped as INTERNAL_ERROR.
func AsScrapeError(err error) *ScrapeError {
	if err == nil {
		return nil
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Step:       e.Step,
	}
}
