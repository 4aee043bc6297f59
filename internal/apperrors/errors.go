// Package apperrors defines the error taxonomy shared by the services and their transports.
//
// Services return wrapped errors; transports (REST, Slack) decide how to log and respond.
// Quota and authentication outcomes are expected control flow, store failures are not.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotAuthenticated means no current user could be resolved
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrQuotaExceeded means the user's plan has no generations left in this window
	ErrQuotaExceeded = errors.New("monthly post quota exceeded")

	// ErrStoreUnavailable marks a failed round-trip to the persistent store; callers may retry
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCorruptRecord marks a stored record that failed shape validation
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrNotFound means the addressed record does not exist
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict means a conditional write lost a race with another writer
	ErrVersionConflict = errors.New("version conflict")
)

// storeError keeps the driver cause while matching ErrStoreUnavailable
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storeError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.err}
}

// Store wraps a persistence failure. Not-found, version conflicts and corruption are
// domain outcomes and pass through with context only.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrCorruptRecord) || errors.Is(err, ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return &storeError{op: op, err: err}
}

// Retryable reports whether err is a transient failure worth retrying from the caller
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrNotAuthenticated) || errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrVersionConflict) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// constraint and syntax errors will fail the same way again
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || // connection exception
			strings.HasPrefix(pgErr.Code, "40") || // transaction rollback (serialization, deadlock)
			strings.HasPrefix(pgErr.Code, "53") || // insufficient resources
			strings.HasPrefix(pgErr.Code, "57") // operator intervention
	}

	return errors.Is(err, ErrStoreUnavailable)
}
