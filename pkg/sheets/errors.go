package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// StorageError reports a failed remote call. Transient errors (rate limits,
// server-side failures, timeouts) are safe to retry; the sync layer rolls
// back the mirror either way.
type StorageError struct {
	Op        string
	Table     string
	Transient bool
	Err       error
}

func (e *StorageError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s %s: %s storage error: %v", e.Op, e.Table, kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err wraps a retryable storage failure.
func IsTransient(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Transient
}

// classify wraps a raw API error as a StorageError, deciding whether it is
// retryable from the HTTP status code.
func classify(op, table string, err error) *StorageError {
	return &StorageError{Op: op, Table: table, Transient: transient(err), Err: err}
}

// retryableAppend restricts append retries to failures the API reported
// (429/5xx). A timed-out append may have landed server-side, so retrying it
// risks writing the row twice.
func retryableAppend(err error) bool {
	return IsTransient(err) && !errors.Is(err, context.DeadlineExceeded)
}

func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
