package model

import (
	"fmt"

	"github.com/pkg/errors"
)

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func newNotFoundError(format string, args ...interface{}) error {
	return errors.WithStack(&notFoundError{msg: fmt.Sprintf(format, args...)})
}

// IsNotFound reports whether err was caused by a lookup of an index,
// metric or attribute that the series does not have.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*notFoundError)
	return ok
}
