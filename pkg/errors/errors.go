// Package errors carries a result code together with an underlying cause, so
// handlers can map failures onto the unified response envelope while keeping
// the original error for logs.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/penflow/penflow-sync-service/pkg/code"
)

// AppError pairs a result code with the error that produced it.
type AppError struct {
	Code  *code.Code
	Cause error
}

func New(c *code.Code, cause error) *AppError {
	return &AppError{Code: c, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code.Msg()
	}
	return fmt.Sprintf("%s: %v", e.Code.Msg(), e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the result code carried by err, unwrapping as needed.
// Services return *code.Code values directly and store layers may wrap them
// in an AppError; both shapes resolve here. fallback is returned when err
// carries no code.
func CodeOf(err error, fallback *code.Code) *code.Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	var cerr *code.Code
	if stderrors.As(err, &cerr) {
		return cerr
	}
	return fallback
}

// Is reports whether err carries the given result code.
func Is(err error, c *code.Code) bool {
	carried := CodeOf(err, nil)
	return carried != nil && carried.Code() == c.Code()
}
