package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrSplitNotFound   = errors.New("no split exists for this user on this expense")
	ErrAlreadyPaid     = errors.New("payment already recorded for this expense")
)

// ValidationError reports invalid caller input. It is always returned before
// any store call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErr(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
