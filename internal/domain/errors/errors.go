package errors

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error wraps exactly one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not authorized")
	ErrConflict      = errors.New("conflict")
	ErrDependency    = errors.New("dependency failure")
)

var (
	ErrPlanNotFound     = fmt.Errorf("unknown plan: %w", ErrValidation)
	ErrMalformedCommand = fmt.Errorf("malformed command: %w", ErrValidation)

	ErrNoPendingOrder   = fmt.Errorf("no pending order: %w", ErrNotFound)
	ErrNoAwaitingOrder  = fmt.Errorf("no order awaiting confirmation: %w", ErrNotFound)
	ErrNoConfirmedOrder = fmt.Errorf("no confirmed order: %w", ErrNotFound)

	ErrNotAuthorized = fmt.Errorf("caller is not the approver: %w", ErrAuthorization)

	ErrAlreadyConfirmed = fmt.Errorf("order already confirmed: %w", ErrConflict)
	ErrOrderInProgress  = fmt.Errorf("order already in progress: %w", ErrConflict)
	ErrStaleOrder       = fmt.Errorf("order changed concurrently: %w", ErrConflict)
)

// DependencyError reports a failed call to an external collaborator.
type DependencyError struct {
	Op  string
	Err error
}

// Dependency wraps err as a DependencyError unless it is nil.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Op: op, Err: err}
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Is makes every DependencyError match ErrDependency.
func (e *DependencyError) Is(target error) bool {
	return target == ErrDependency
}
