package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures into the HTTP status family they are reported with.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Status returns the HTTP status code for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a classified, client-presentable error.
type AppError struct {
	Kind    ErrorKind
	Message string
	// Fields holds per-field validation messages.
	Fields map[string]string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...interface{}) *AppError {
	return newAppError(KindValidation, format, args...)
}

// FieldErrors builds a validation error carrying a field -> message map.
func FieldErrors(fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func Unauthorized(format string, args ...interface{}) *AppError {
	return newAppError(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *AppError {
	return newAppError(KindForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *AppError {
	return newAppError(KindConflict, format, args...)
}

// Internal wraps an unexpected error. The message is never shown to clients.
func Internal(err error, format string, args ...interface{}) *AppError {
	e := newAppError(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
