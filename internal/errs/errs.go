// Package errs holds the engine's error taxonomy. Every ledger-mutating
// operation returns exactly one of these types, so callers can decide
// between "fix the input", "re-fetch state" and "retry".
package errs

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError: malformed input. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidStateError: the operation is forbidden in the entity's current
// state. The caller should re-fetch before deciding what to do next.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func InvalidState(op, format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientStockError: a debit would drive a ledger entry negative.
type InsufficientStockError struct {
	PartID    int64
	PartName  string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	name := e.PartName
	if name == "" {
		name = fmt.Sprintf("part %d", e.PartID)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		name, e.Requested, e.Available)
}

// ConcurrencyConflictError: a conditional write lost the race. Safe to
// retry a bounded number of times after re-reading state.
type ConcurrencyConflictError struct {
	Op string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("%s: concurrent update, precondition no longer holds", e.Op)
}

// StorageError: the persistence layer itself failed. Not retried inside
// the engine; the operation as a whole is safe to retry from the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Postgres SQLSTATEs that mean "you lost a race, try again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Storage wraps a raw persistence error, promoting serialization and
// deadlock failures to ConcurrencyConflictError so the engine's retry
// loop can pick them up.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected {
			return &ConcurrencyConflictError{Op: op}
		}
	}
	return &StorageError{Op: op, Err: err}
}

// IsConflict reports whether err is a ConcurrencyConflictError.
func IsConflict(err error) bool {
	var c *ConcurrencyConflictError
	return errors.As(err, &c)
}
