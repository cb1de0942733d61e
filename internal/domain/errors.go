package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindForbidden  ErrorKind = "forbidden"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
)

// Error is a business failure the API layer is allowed to show to the client.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(format string, args ...any) *Error {
	return NewError(KindValidation, fmt.Sprintf(format, args...))
}

func Forbidden(message string) *Error {
	return NewError(KindForbidden, message)
}

var (
	ErrUserNotFound       = NewError(KindNotFound, "user not found")
	ErrCourseNotFound     = NewError(KindNotFound, "course not found")
	ErrLessonNotFound     = NewError(KindNotFound, "lesson not found")
	ErrProgressNotFound   = NewError(KindNotFound, "progress not found")
	ErrEmailTaken         = NewError(KindConflict, "user already exists")
	ErrAlreadyEnrolled    = NewError(KindConflict, "already enrolled in this course")
	ErrInvalidCredentials = NewError(KindAuth, "invalid credentials")
	ErrInvalidToken       = NewError(KindAuth, "invalid or expired token")
	ErrCourseUnavailable  = NewError(KindForbidden, "course not available")
	ErrAuthorsOnly        = NewError(KindForbidden, "access denied: instructors or admins only")
	ErrNotCourseOwner     = NewError(KindForbidden, "access denied: you cannot edit this course")
)

// KindOf reports the kind of a domain error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
