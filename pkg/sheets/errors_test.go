package sheets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

func TestClassifyTransientCodes(t *testing.T) {
	transientCodes := []int{429, 500, 502, 503, 504}
	for _, code := range transientCodes {
		se := classify("read", "tasks", &googleapi.Error{Code: code})
		if !se.Transient {
			t.Errorf("Code %d: expected transient", code)
		}
	}

	permanentCodes := []int{400, 401, 403, 404}
	for _, code := range permanentCodes {
		se := classify("read", "tasks", &googleapi.Error{Code: code})
		if se.Transient {
			t.Errorf("Code %d: expected permanent", code)
		}
	}
}

func TestClassifyDeadline(t *testing.T) {
	se := classify("append", "tasks", fmt.Errorf("call: %w", context.DeadlineExceeded))
	if !se.Transient {
		t.Error("Deadline exhaustion should classify as transient")
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := &googleapi.Error{Code: 404}
	se := classify("update", "tasks", cause)

	var apiErr *googleapi.Error
	if !errors.As(se, &apiErr) || apiErr.Code != 404 {
		t.Errorf("Expected to unwrap to the API error, got %v", se)
	}
	if IsTransient(se) {
		t.Error("404 reported as transient")
	}
}

func TestIsTransientNonStorageError(t *testing.T) {
	if IsTransient(errors.New("plain")) {
		t.Error("Plain error reported as transient")
	}
	if IsTransient(nil) {
		t.Error("nil reported as transient")
	}
}

func TestRetryableAppend(t *testing.T) {
	if !retryableAppend(classify("append", "tasks", &googleapi.Error{Code: 429})) {
		t.Error("Rate-limited append should be retryable")
	}
	if !retryableAppend(classify("append", "tasks", &googleapi.Error{Code: 503})) {
		t.Error("503 append should be retryable")
	}
	if retryableAppend(classify("append", "tasks", fmt.Errorf("call: %w", context.DeadlineExceeded))) {
		t.Error("Timed-out append must not be retried: the row may already exist")
	}
	if retryableAppend(classify("append", "tasks", &googleapi.Error{Code: 404})) {
		t.Error("Permanent append failure reported as retryable")
	}
}

func TestWithRetryIfSkipsTimedOutAppends(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	attempts := 0
	err := withRetryIf(context.Background(), policy, retryableAppend, func() error {
		attempts++
		return classify("append", "tasks", fmt.Errorf("call: %w", context.DeadlineExceeded))
	})
	if err == nil {
		t.Fatal("Expected the timed-out append to fail")
	}
	if attempts != 1 {
		t.Errorf("Expected a single attempt for a timed-out append, got %d", attempts)
	}
}

func TestWithRetryRecoversFromTransientFailures(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	attempts := 0
	err := withRetry(context.Background(), policy, func() error {
		attempts++
		if attempts < 3 {
			return &StorageError{Op: "read", Table: "tasks", Transient: true, Err: errors.New("quota")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	attempts := 0
	err := withRetry(context.Background(), policy, func() error {
		attempts++
		return &StorageError{Op: "read", Table: "tasks", Err: errors.New("forbidden")}
	})
	if err == nil || attempts != 1 {
		t.Errorf("Expected a single failed attempt, got %d attempts, err=%v", attempts, err)
	}
}

func TestWithRetryExhaustsRetries(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	attempts := 0
	err := withRetry(context.Background(), policy, func() error {
		attempts++
		return &StorageError{Op: "read", Table: "tasks", Transient: true, Err: errors.New("quota")}
	})
	if err == nil {
		t.Fatal("Expected failure after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("Expected initial attempt + 2 retries, got %d", attempts)
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := withRetry(ctx, policy, func() error {
		attempts++
		return &StorageError{Op: "read", Table: "tasks", Transient: true, Err: errors.New("quota")}
	})
	if err == nil {
		t.Fatal("Expected failure with canceled context")
	}
	if attempts != 1 {
		t.Errorf("Expected no retry after cancellation, got %d attempts", attempts)
	}
}
