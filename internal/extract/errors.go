package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat marks a document whose extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrInsufficientText marks a document that yielded fewer than MinTextLength characters.
	ErrInsufficientText = errors.New("could not extract sufficient text from the resume; ensure the file is not corrupted or password-protected")
)

// UnsupportedFormatError reports the rejected extension.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported file type: missing extension"
	}
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// ExtractionError wraps a codec failure or the insufficient-text rule.
type ExtractionError struct {
	Format string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if errors.Is(e.Cause, ErrInsufficientText) {
		return e.Cause.Error()
	}
	return fmt.Sprintf("extract %s: %v", e.Format, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }
