package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
	ErrTooLarge        = fmt.Errorf("%w: file too large", ErrInvalidInput)
	ErrExtraction      = errors.New("text extraction failed")
	ErrUpstream        = errors.New("upstream service failed")
	ErrParse           = errors.New("model output is not valid json")
	ErrNotFound        = errors.New("record not found")
)

// ParseError keeps the raw model output that could not be decoded.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ErrParse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrParse.Error(), e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// Invalid wraps ErrInvalidInput with a caller-facing reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
