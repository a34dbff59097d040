package enrich

import (
	"errors"
	"net/http"
)

// Kind classifies pipeline failures.
type Kind int

const (
	// KindInvalidRequest is a caller error; never retried.
	KindInvalidRequest Kind = iota + 1
	// KindUpstreamUnavailable means acquisition failed and no description was supplied.
	KindUpstreamUnavailable
	// KindRateLimited is absorbed by the heuristic fallback and never reaches callers.
	KindRateLimited
	// KindExtraction is a failed or malformed completion after a credential was available.
	KindExtraction
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindRateLimited:
		return "rate_limited"
	case KindExtraction:
		return "extraction_failed"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure. Message is safe to show callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind onto a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// HTTPStatus maps any error to a response status; unclassified errors are 500.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func invalidRequest(msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}

func extractionError(msg string, err error) *Error {
	return &Error{Kind: KindExtraction, Message: msg, Err: err}
}
