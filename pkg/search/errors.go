package search

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrQuotaExhausted is returned, wrapped, when a request is refused locally
// because the last response reported no search quota left.
var ErrQuotaExhausted = errors.New("search rate limit exhausted")

// maxBodySnippet bounds how much of an error body ends up in messages.
const maxBodySnippet = 512

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429, or 403 with an exhausted quota.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents DNS, dial and connection errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents bodies that are not the expected JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// TransportError wraps a failure to get any HTTP response at all.
// Its message is the underlying error verbatim.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return e.Err.Error()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Class returns ErrorClassNetwork.
func (e *TransportError) Class() ErrorClass {
	return ErrorClassNetwork
}

// UpstreamError represents a non-2xx answer from the search API.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
	ErrorClass ErrorClass
}

// Error implements the error interface.
// Format: search API error: 403 Forbidden - <body snippet>
func (e *UpstreamError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Body == "" {
		return fmt.Sprintf("search API error: %s", status)
	}
	return fmt.Sprintf("search API error: %s - %s", status, e.Body)
}

// Class returns the classification of the status code.
func (e *UpstreamError) Class() ErrorClass {
	return e.ErrorClass
}

// MalformedResponseError means the body could not be decoded as a search result.
type MalformedResponseError struct {
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed search response (status %d): %v", e.StatusCode, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Class returns ErrorClassDecode.
func (e *MalformedResponseError) Class() ErrorClass {
	return ErrorClassDecode
}

// ClassOf returns the ErrorClass of err, or "" when err carries none.
func ClassOf(err error) ErrorClass {
	var classed interface{ Class() ErrorClass }
	if errors.As(err, &classed) {
		return classed.Class()
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return ErrorClassRateLimit
	}
	return ""
}

// classifyStatus categorizes a non-2xx response.
func classifyStatus(resp *http.Response) ErrorClass {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// snippet trims and bounds an error body for inclusion in messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet] + "..."
	}
	return s
}
