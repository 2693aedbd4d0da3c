package identity

import (
	"errors"
	"fmt"
)

// Code classifies identity failures. The values mirror the wire codes that
// hosted identity services report.
type Code string

const (
	CodeInvalidEmail  Code = "auth/invalid-email"
	CodeUserNotFound  Code = "auth/user-not-found"
	CodeWrongPassword Code = "auth/wrong-password"
	CodeEmailInUse    Code = "auth/email-already-in-use"
	CodeWeakPassword  Code = "auth/weak-password"
	CodeInternal      Code = "auth/internal-error"
)

type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf returns the identity code carried by err, or "" when err is not an
// identity error.
func CodeOf(err error) Code {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Code
	}
	return ""
}
