package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline error for handling decisions.
type ErrorKind string

const (
	// KindConfig marks invalid or missing configuration.
	KindConfig ErrorKind = "config"
	// KindValidation marks rejected input (bad path, bad argument).
	KindValidation ErrorKind = "validation"
	// KindAPI marks a permanent extraction-service failure. Not retried.
	KindAPI ErrorKind = "api"
	// KindTransient marks a network or timeout failure. Retried with backoff.
	KindTransient ErrorKind = "transient"
	// KindConversion marks a PDF rasterization or decoding failure.
	KindConversion ErrorKind = "conversion"
	// KindIO marks a filesystem failure.
	KindIO ErrorKind = "io"
)

// Error is a tagged pipeline error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigError builds a configuration error.
func ConfigError(msg string, err error) *Error {
	return &Error{Kind: KindConfig, Message: msg, Err: err}
}

// ValidationError builds an input validation error.
func ValidationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// APIError builds a permanent extraction-service error.
func APIError(msg string, err error) *Error {
	return &Error{Kind: KindAPI, Message: msg, Err: err}
}

// TransientError builds a retryable transport error.
func TransientError(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Message: msg, Err: err}
}

// ConversionError builds a PDF conversion error.
func ConversionError(msg string, err error) *Error {
	return &Error{Kind: KindConversion, Message: msg, Err: err}
}

// IOError builds a filesystem error.
func IOError(msg string, err error) *Error {
	return &Error{Kind: KindIO, Message: msg, Err: err}
}

// IsTransient reports whether err is tagged retryable.
func IsTransient(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransient
}
