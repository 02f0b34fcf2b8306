package broker

import (
	"errors"
	"fmt"
)

// TransientError marks a broker failure that is safe to retry: network
// trouble, rate limiting, or a 5xx from the API. Anything else is a hard
// rejection and must not be retried.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient broker error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient reports whether err (or anything it wraps) is a TransientError.
func Transient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
