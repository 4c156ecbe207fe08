package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can branch on category
// instead of matching message text.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	// ErrKindTransient covers network errors, timeouts and non-2xx
	// responses. Items failing with this kind stay queued.
	ErrKindTransient
	// ErrKindStorage covers local store failures (engine unavailable,
	// disk full).
	ErrKindStorage
	// ErrKindValidation covers malformed items rejected at enqueue time.
	ErrKindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindTransient:
		return "transient"
	case ErrKindStorage:
		return "storage"
	case ErrKindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is a tagged error carrying its failure category.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TransientError wraps err as a transient delivery failure
func TransientError(op string, err error) error {
	return &Error{Kind: ErrKindTransient, Op: op, Err: err}
}

// StorageError wraps err as a local storage failure
func StorageError(op string, err error) error {
	return &Error{Kind: ErrKindStorage, Op: op, Err: err}
}

// ValidationError reports a malformed item rejected before queueing
func ValidationError(op string, err error) error {
	return &Error{Kind: ErrKindValidation, Op: op, Err: err}
}

// KindOf returns the error kind anywhere in err's chain, or
// ErrKindUnknown when no tagged error is present.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
