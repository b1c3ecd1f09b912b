package net

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"vcptools/internal/domain/errs"
)

func testRetrier(attempts int) Retrier {
	return Retrier{MaxAttempts: attempts, BackoffBase: time.Millisecond}
}

func TestFetchSucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	res, err := testRetrier(3).Fetch(context.Background(), "test", func() (FetchResult, error) {
		calls++
		if calls < 3 {
			return FetchResult{}, errors.New("connection reset")
		}
		return FetchResult{StatusCode: 200, Body: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3", calls)
	}
	if res.Body != "ok" {
		t.Errorf("got body %q", res.Body)
	}
}

func TestFetchRetriesServerErrorsAndEmptyBodies(t *testing.T) {
	responses := []FetchResult{
		{StatusCode: 503, Body: "unavailable"},
		{StatusCode: 200, Body: ""},
		{StatusCode: 200, Body: "payload"},
	}
	calls := 0
	res, err := testRetrier(3).Fetch(context.Background(), "test", func() (FetchResult, error) {
		res := responses[calls]
		calls++
		return res, nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 3 || res.Body != "payload" {
		t.Errorf("calls=%d body=%q", calls, res.Body)
	}
}

func TestFetchDoesNotRetryMalformedInput(t *testing.T) {
	calls := 0
	_, err := testRetrier(3).Fetch(context.Background(), "test", func() (FetchResult, error) {
		calls++
		return FetchResult{}, fmt.Errorf("%w: bad payload", errs.ErrMalformedInput)
	})
	if !errors.Is(err, errs.ErrMalformedInput) {
		t.Fatalf("got %v, want ErrMalformedInput", err)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

func TestFetchExhaustionNamesLastCause(t *testing.T) {
	calls := 0
	_, err := testRetrier(2).Fetch(context.Background(), "work info", func() (FetchResult, error) {
		calls++
		return FetchResult{}, fmt.Errorf("attempt %d failed", calls)
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 2 {
		t.Errorf("got %d calls, want 2", calls)
	}
	if !strings.Contains(err.Error(), "work info failed after 2 attempts") ||
		!strings.Contains(err.Error(), "attempt 2 failed") {
		t.Errorf("error missing context: %v", err)
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := Retrier{MaxAttempts: 3, BackoffBase: time.Minute}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := r.Fetch(ctx, "test", func() (FetchResult, error) {
			calls++
			return FetchResult{}, errors.New("transient")
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Fetch did not honor cancellation")
	}
}
