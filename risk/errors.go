package risk

import (
	"errors"
	"fmt"
)

// InvariantViolation means the engine's own accounting can no longer be
// trusted: a negative spend, a trading day that moved backwards. The process
// must stop trading when one of these surfaces.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Msg
}

func invariantf(format string, args ...any) error {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}

// IsInvariant reports whether err (or anything it wraps) is an
// InvariantViolation.
func IsInvariant(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
