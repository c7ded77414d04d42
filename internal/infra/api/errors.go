package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// ErrorCode is a stable identifier for a classified failure.
type ErrorCode string

const (
	CodeNetworkError        ErrorCode = "NETWORK_ERROR"
	CodeTimeout             ErrorCode = "TIMEOUT"
	CodeBadRequest          ErrorCode = "BAD_REQUEST"
	CodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	CodeForbidden           ErrorCode = "FORBIDDEN"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodePayloadTooLarge     ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeInternalServerError ErrorCode = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	CodeUnknownHTTPError    ErrorCode = "UNKNOWN_HTTP_ERROR"
	CodeUnknownError        ErrorCode = "UNKNOWN_ERROR"
)

// Error is a normalized failure descriptor. It is constructed fresh on every
// failed call and immutable once built.
type Error struct {
	Message    string
	Code       ErrorCode
	StatusCode int // 0 when no HTTP response was involved
	Retryable  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPError carries a non-2xx backend response so classification can dispatch
// on the status code and surface the server-provided detail.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("http %d", e.Status)
}

// Classify maps any failure to a normalized *Error. It is total: every input,
// however shaped, produces a value.
func Classify(err error) *Error {
	if err == nil {
		return &Error{Message: "no error", Code: CodeUnknownError}
	}

	// Already classified.
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// Aborted or timed-out request.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{
			Message:   "Request timed out. Please try again.",
			Code:      CodeTimeout,
			Retryable: true,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{
			Message:   "Request timed out. Please try again.",
			Code:      CodeTimeout,
			Retryable: true,
		}
	}

	// HTTP response present: dispatch on status.
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr)
	}

	// Generic network-level failure (connection refused, DNS, offline).
	var opErr *net.OpError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &urlErr) {
		return &Error{
			Message:   "Network error. Please check your connection.",
			Code:      CodeNetworkError,
			Retryable: true,
		}
	}

	return &Error{
		Message: err.Error(),
		Code:    CodeUnknownError,
	}
}

func classifyStatus(httpErr *HTTPError) *Error {
	msg := httpErr.Detail
	status := httpErr.Status

	switch status {
	case http.StatusBadRequest:
		if msg == "" {
			msg = "Invalid request."
		}
		return &Error{Message: msg, Code: CodeBadRequest, StatusCode: status}
	case http.StatusUnauthorized:
		return &Error{Message: "Authentication required.", Code: CodeUnauthorized, StatusCode: status}
	case http.StatusForbidden:
		return &Error{Message: "Access denied.", Code: CodeForbidden, StatusCode: status}
	case http.StatusNotFound:
		return &Error{Message: "Resource not found.", Code: CodeNotFound, StatusCode: status}
	case http.StatusRequestEntityTooLarge:
		return &Error{Message: "File is too large to upload.", Code: CodePayloadTooLarge, StatusCode: status}
	case http.StatusTooManyRequests:
		return &Error{Message: "Rate limited. Retrying shortly.", Code: CodeRateLimited, StatusCode: status, Retryable: true}
	case http.StatusInternalServerError:
		return &Error{Message: "Server error. Retrying.", Code: CodeInternalServerError, StatusCode: status, Retryable: true}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &Error{Message: "Service temporarily unavailable.", Code: CodeServiceUnavailable, StatusCode: status, Retryable: true}
	default:
		if msg == "" {
			msg = fmt.Sprintf("Unexpected server response (%d).", status)
		}
		return &Error{
			Message:    msg,
			Code:       CodeUnknownHTTPError,
			StatusCode: status,
			Retryable:  status >= 500,
		}
	}
}
