package services

import (
	"errors"
	"fmt"
)

// Guard violation sentinels. Registry operations wrap them in *GuardError.
var (
	ErrDuplicateRegistration = errors.New("service already registered")
	ErrNotRegistered         = errors.New("service not registered")
	ErrAlreadyStarted        = errors.New("service already started")
	ErrAlreadyStopped        = errors.New("service already stopped")
	ErrNeverStarted          = errors.New("service never started")
)

// Violation classifies a guard violation.
type Violation string

const (
	ViolationDuplicateRegistration Violation = "duplicate_registration"
	ViolationNotRegistered         Violation = "not_registered"
	ViolationAlreadyStarted        Violation = "already_started"
	ViolationAlreadyStopped        Violation = "already_stopped"
	ViolationNeverStarted          Violation = "never_started"
)

// Err returns the sentinel error for the violation.
func (v Violation) Err() error {
	switch v {
	case ViolationDuplicateRegistration:
		return ErrDuplicateRegistration
	case ViolationNotRegistered:
		return ErrNotRegistered
	case ViolationAlreadyStarted:
		return ErrAlreadyStarted
	case ViolationAlreadyStopped:
		return ErrAlreadyStopped
	case ViolationNeverStarted:
		return ErrNeverStarted
	default:
		return nil
	}
}

// GuardError reports a rejected registry operation. The operation was a no-op.
type GuardError struct {
	Kind    Violation
	Service string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Service, e.Kind.Err())
}

// Unwrap returns the sentinel for errors.Is.
func (e *GuardError) Unwrap() error {
	return e.Kind.Err()
}

// ViolationOf extracts the violation kind from err, if any.
func ViolationOf(err error) (Violation, bool) {
	var ge *GuardError
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return "", false
}
