// Package errcode defines the machine-readable error taxonomy shared by the
// comparison pipeline, the extractor client and the HTTP layer. Every failure
// a caller can act on carries one of these codes; wrapping preserves the
// underlying cause for logs.
package errcode

import (
	"errors"
	"fmt"
)

// Code identifies a failure class.
type Code string

const (
	NoFaceDetected        Code = "NO_FACE_DETECTED"
	MultipleFacesDetected Code = "MULTIPLE_FACES_DETECTED"
	InvalidImage          Code = "INVALID_IMAGE"
	ModelError            Code = "MODEL_ERROR"
	InvalidEmbedding      Code = "INVALID_EMBEDDING"
	DownloadFailed        Code = "DOWNLOAD_FAILED"
	InternalError         Code = "INTERNAL_ERROR"
	ClipError             Code = "CLIP_ERROR"
	HashError             Code = "HASH_ERROR"
)

// Error is a typed error carrying a code, a human-readable message and
// optional structured details (e.g. face_count on a multiple-faces failure).
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a typed error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error preserving the underlying cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// WithDetail attaches a structured detail and returns the same error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the code from an error chain.
// Untyped errors report InternalError.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// Is reports whether the error chain carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// AsError returns the typed error from a chain, or wraps an untyped one
// as InternalError so callers always have a code and message to render.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: InternalError, Message: err.Error(), cause: err}
}
