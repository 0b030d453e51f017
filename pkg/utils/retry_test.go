package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errOverloaded = errors.New("model is overloaded")

func isOverloaded(err error) bool {
	return errors.Is(err, errOverloaded)
}

func TestRetryWithBackoff_Success(t *testing.T) {
	result, err := RetryWithBackoff(context.Background(), 3, 10*time.Millisecond, isOverloaded, func() (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected 'ok', got %q", result)
	}
}

func TestRetryWithBackoff_NonRetriableError(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(context.Background(), 3, 10*time.Millisecond, isOverloaded, func() (string, error) {
		calls++
		return "", errors.New("invalid request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call for non-retriable error, got %d", calls)
	}
}

func TestRetryWithBackoff_RetriableEventualSuccess(t *testing.T) {
	calls := 0
	result, err := RetryWithBackoff(context.Background(), 5, 10*time.Millisecond, isOverloaded, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errOverloaded
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "recovered" {
		t.Fatalf("expected 'recovered', got %q", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_AllRetriesFail(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(context.Background(), 3, 10*time.Millisecond, isOverloaded, func() (string, error) {
		calls++
		return "", errOverloaded
	})
	if err == nil {
		t.Fatal("expected error after all retries")
	}
	if !errors.Is(err, errOverloaded) {
		t.Fatalf("expected wrapped last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithBackoff(ctx, 5, 10*time.Millisecond, isOverloaded, func() (string, error) {
		return "", errOverloaded
	})
	if err == nil {
		t.Fatal("expected context cancelled error")
	}
}

func TestRetryWithBackoff_NilPredicate(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(context.Background(), 3, 10*time.Millisecond, nil, func() (string, error) {
		calls++
		return "", errOverloaded
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected no retries without a predicate, got %d calls", calls)
	}
}
