package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeResolution     = "RESOLUTION_FAILED"
	ErrCodeFetchTimeout   = "FETCH_TIMEOUT"
	ErrCodeFetchBlocked   = "FETCH_BLOCKED"
	ErrCodeFetchExhausted = "FETCH_EXHAUSTED"
	ErrCodeMarkerNotFound = "MARKER_NOT_FOUND"
	ErrCodeMalformedJSON  = "MALFORMED_JSON"
	ErrCodeRender         = "RENDER_FAILED"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CodedError is implemented by every pipeline failure so the shells can
// report a stable code without inspecting concrete types.
type CodedError interface {
	error
	Code() string
}

// ResolutionError means no canonical scorecard URL could be derived.
type ResolutionError struct {
	URL     string
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.URL, e.Message)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
func (e *ResolutionError) Code() string  { return ErrCodeResolution }

// FetchReason classifies why every fetch tier failed.
type FetchReason string

const (
	FetchTimeout   FetchReason = "timeout"
	FetchBlocked   FetchReason = "blocked"
	FetchExhausted FetchReason = "exhausted"
)

// FetchError means neither transport produced a document carrying the
// embedded-data marker.
type FetchError struct {
	Reason FetchReason
	URL    string
	Err    error

	// Snapshot and Screenshot are paths of diagnostic artifacts written on
	// rendered-tier failure. Either may be empty.
	Snapshot   string
	Screenshot string
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Code() string {
	switch e.Reason {
	case FetchTimeout:
		return ErrCodeFetchTimeout
	case FetchBlocked:
		return ErrCodeFetchBlocked
	default:
		return ErrCodeFetchExhausted
	}
}

// ExtractionReason classifies why the payload could not be read.
type ExtractionReason string

const (
	ExtractionMarkerNotFound ExtractionReason = "markerNotFound"
	ExtractionMalformedJSON  ExtractionReason = "malformedJson"
)

// ExtractionError means the document had no decodable embedded payload.
type ExtractionError struct {
	Reason ExtractionReason

	// Diagnosis is informational only: "challenge", "javascript" or "".
	Diagnosis string
	Err       error
}

func (e *ExtractionError) Error() string {
	msg := "extract: " + string(e.Reason)
	if e.Diagnosis != "" {
		msg += " (" + e.Diagnosis + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Code() string {
	if e.Reason == ExtractionMalformedJSON {
		return ErrCodeMalformedJSON
	}
	return ErrCodeMarkerNotFound
}

// RenderError means the report could not be produced from a scorecard.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
func (e *RenderError) Code() string  { return ErrCodeRender }

// InvalidInputError rejects a request before any network work happens.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Message }
func (e *InvalidInputError) Code() string  { return ErrCodeInvalidInput }

// CodeOf returns the API code carried by err, or ErrCodeInternal.
func CodeOf(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ErrCodeInternal
}

// ToDetail converts any error to an API-facing ErrorDetail.
func ToDetail(err error) *ErrorDetail {
	return &ErrorDetail{Code: CodeOf(err), Message: err.Error()}
}
