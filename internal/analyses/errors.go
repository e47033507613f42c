package analyses

import (
	"context"
	"errors"
	"fmt"

	"ats-resume-checker/internal/extract"
	"ats-resume-checker/internal/llm"
	"ats-resume-checker/internal/reports"
	"ats-resume-checker/internal/shared/util"
	"ats-resume-checker/internal/uploads"
)

// ErrMalformedResponse matches any *MalformedResponseError.
var ErrMalformedResponse = errors.New("malformed analysis response")

const (
	ErrorCodeValidation        = "validation_error"
	ErrorCodeUnsupportedFormat = "unsupported_format"
	ErrorCodeExtraction        = "extraction_failed"
	ErrorCodeUpstream          = "upstream_error"
	ErrorCodeMalformedResponse = "malformed_response"
	ErrorCodeUnavailable       = "service_unavailable"
	ErrorCodeInvalidID         = "invalid_id"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeTimeout           = "analysis_timeout"
	ErrorCodeCanceled          = "request_canceled"
	ErrorCodeInternal          = "internal_error"
)

// ValidationError reports a missing or invalid run input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MalformedResponseError means the model reply was not a JSON object.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse analysis results: %s: %v", e.Reason, e.Err)
	}
	return "failed to parse analysis results: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// ErrorCode classifies err into one of the ErrorCode* values.
func ErrorCode(err error) string {
	var validationErr *ValidationError
	var extractionErr *extract.ExtractionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr),
		errors.Is(err, uploads.ErrNoFile),
		errors.Is(err, util.ErrInvalidFileName),
		errors.Is(err, uploads.ErrFileTooLarge):
		return ErrorCodeValidation
	case errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, uploads.ErrFileType):
		return ErrorCodeUnsupportedFormat
	case errors.As(err, &extractionErr):
		return ErrorCodeExtraction
	case errors.Is(err, ErrMalformedResponse):
		return ErrorCodeMalformedResponse
	case errors.Is(err, llm.ErrUpstream):
		return ErrorCodeUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrorCodeCanceled
	case errors.Is(err, reports.ErrUnavailable):
		return ErrorCodeUnavailable
	case errors.Is(err, reports.ErrInvalidID):
		return ErrorCodeInvalidID
	case errors.Is(err, reports.ErrNotFound):
		return ErrorCodeNotFound
	default:
		return ErrorCodeInternal
	}
}
