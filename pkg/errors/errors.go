package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeTimeout          = "TIMEOUT_ERROR"
	CodeQuota            = "QUOTA_ERROR"
	CodeParse            = "PARSE_ERROR"
	CodeEnrichment       = "ENRICHMENT_ERROR"
	CodeIncompleteStream = "INCOMPLETE_STREAM_ERROR"
	CodeAPI              = "API_ERROR"
	CodeCache            = "CACHE_ERROR"
)

type SuggestError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *SuggestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SuggestError) Unwrap() error {
	return e.Cause
}

func New(message, code string, statusCode int, context map[string]any) *SuggestError {
	return &SuggestError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *SuggestError) WithCause(cause error) *SuggestError {
	e.Cause = cause
	return e
}

// ValidationError is surfaced to callers as a 4xx; it never reaches the pipeline.
type ValidationError struct {
	*SuggestError
	Field string
	Value interface{}
}

// Unwrap exposes the embedded SuggestError so code-based matching works
// through the wrapper type.
func (e *ValidationError) Unwrap() error { return e.SuggestError }

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		SuggestError: &SuggestError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

func NewUpstreamError(message string, cause error) *SuggestError {
	return &SuggestError{
		Message:    message,
		Code:       CodeUpstream,
		StatusCode: 502,
		Cause:      cause,
	}
}

func NewTimeoutError(message string, cause error) *SuggestError {
	return &SuggestError{
		Message:    message,
		Code:       CodeTimeout,
		StatusCode: 504,
		Cause:      cause,
	}
}

func NewQuotaError(message string, cause error) *SuggestError {
	return &SuggestError{
		Message:    message,
		Code:       CodeQuota,
		StatusCode: 429,
		Cause:      cause,
	}
}

func NewParseError(message string, context map[string]any) *SuggestError {
	return &SuggestError{
		Message:    message,
		Code:       CodeParse,
		StatusCode: 502,
		Context:    context,
	}
}

// EnrichmentError is per-item: it never fails a batch, the affected
// suggestion just keeps its optional fields absent.
type EnrichmentError struct {
	*SuggestError
	Title string
}

func (e *EnrichmentError) Unwrap() error { return e.SuggestError }

func NewEnrichmentError(title string, cause error) *EnrichmentError {
	return &EnrichmentError{
		SuggestError: &SuggestError{
			Message:    fmt.Sprintf("metadata lookup failed for %q", title),
			Code:       CodeEnrichment,
			StatusCode: 502,
			Context:    map[string]any{"title": title},
			Cause:      cause,
		},
		Title: title,
	}
}

func NewIncompleteStreamError(message string, cause error) *SuggestError {
	return &SuggestError{
		Message:    message,
		Code:       CodeIncompleteStream,
		StatusCode: 502,
		Cause:      cause,
	}
}

type APIError struct {
	*SuggestError
}

func (e *APIError) Unwrap() error { return e.SuggestError }

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		SuggestError: &SuggestError{
			Message:    message,
			Code:       CodeAPI,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type CacheError struct {
	*SuggestError
	Operation string
	Key       string
}

func (e *CacheError) Unwrap() error { return e.SuggestError }

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		SuggestError: &SuggestError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code string) bool {
	var se *SuggestError
	if stderrors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func IsTimeout(err error) bool          { return HasCode(err, CodeTimeout) }
func IsQuota(err error) bool            { return HasCode(err, CodeQuota) }
func IsParse(err error) bool            { return HasCode(err, CodeParse) }
func IsIncompleteStream(err error) bool { return HasCode(err, CodeIncompleteStream) }
