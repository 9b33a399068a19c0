package remote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a remote call failure. The kind is assigned by the
// transport wrapper at the call boundary, so callers branch on an explicit
// tag instead of sniffing message text.
type ErrorKind string

const (
	// KindNetwork is a transient transport failure; safe to retry
	KindNetwork ErrorKind = "network"
	// KindConflict is a duplicate-key insert; idempotent writes treat it
	// as success
	KindConflict ErrorKind = "conflict"
	// KindValidation is a fatal request error (bad credentials, bad
	// payload); never retried
	KindValidation ErrorKind = "validation"
	// KindNotFound is a missing record
	KindNotFound ErrorKind = "not_found"
	// KindUnknown is anything the wrapper could not classify
	KindUnknown ErrorKind = "unknown"
)

// Error is a classified remote call failure
type Error struct {
	Kind ErrorKind
	Op   string // the remote operation, e.g. "tables.insert_profile"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation name
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the error's kind, or KindUnknown for unclassified errors
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// IsNetwork reports whether err is a transient network-classified failure
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsConflict reports whether err is a duplicate-key conflict
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsNotFound reports whether err is a missing-record failure
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
