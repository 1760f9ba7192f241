package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status a failure should be reported with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap attaches cause to a sentinel built with NewError. The result still
// matches the sentinel under errors.Is and keeps its status code.
func Wrap(sentinel error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &Error{
		Code: StatusCode(sentinel),
		Err:  fmt.Errorf("%w: %w", sentinel, cause),
	}
}

// StatusCode reports the status carried by err, or 500 for anything else.
func StatusCode(err error) int {
	var respErr *Error
	if errors.As(err, &respErr) {
		return respErr.Code
	}
	return http.StatusInternalServerError
}
