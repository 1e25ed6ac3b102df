package fn

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(3, nil); !r.IsOk() {
		t.Fatal("nil error should be ok")
	}
	r := FromPair(0, errors.New("bad"))
	if _, err := r.Unwrap(); r.IsOk() || err.Error() != "bad" {
		t.Fatal("error should propagate")
	}
}

// --- Stages ---

var double Stage[int, int] = func(_ context.Context, v int) Result[int] { return Ok(v * 2) }

var itoa Stage[int, string] = func(_ context.Context, v int) Result[string] { return Ok(strconv.Itoa(v)) }

func TestThen(t *testing.T) {
	s := Then(double, itoa)
	v, err := s(context.Background(), 21).Unwrap()
	if err != nil || v != "42" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestThenShortCircuits(t *testing.T) {
	called := false
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("stop")) })
	next := Stage[int, string](func(_ context.Context, _ int) Result[string] {
		called = true
		return Ok("")
	})
	r := Then(fail, next)(context.Background(), 1)
	if r.IsOk() || called {
		t.Fatal("second stage must not run after an error")
	}
}

func TestThenStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := Stage[int, int](func(_ context.Context, v int) Result[int] {
		cancel()
		return Ok(v)
	})
	_, err := Then(cancelling, itoa)(ctx, 1).Unwrap()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTracedStagePassesThrough(t *testing.T) {
	v, err := TracedStage("double", double)(context.Background(), 4).Unwrap()
	if err != nil || v != 8 {
		t.Fatalf("got %d, %v", v, err)
	}
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("x")) })
	if TracedStage("fail", fail)(context.Background(), 1).IsOk() {
		t.Fatal("error should survive tracing")
	}
}

func TestLoggedTapAndTimed(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	s := Timed("double", log, Then(LoggedTap[int]("double", log), double))
	v, err := s(context.Background(), 5).Unwrap()
	if err != nil || v != 10 {
		t.Fatalf("got %d, %v", v, err)
	}
	out := buf.String()
	if !strings.Contains(out, "stage.enter") || !strings.Contains(out, "stage.exit") {
		t.Fatalf("missing stage logs: %s", out)
	}
	if !strings.Contains(out, "stage=double") {
		t.Fatalf("missing stage name: %s", out)
	}
}

func TestTimedLogsError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("no nodes")) })

	Timed("extract", log, fail)(context.Background(), 0)
	if !strings.Contains(buf.String(), `error="no nodes"`) {
		t.Fatalf("missing error attr: %s", buf.String())
	}
}

// --- Retry ---

func TestRetrySuccess(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond}, func(_ context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Err[int](errors.New("not yet"))
		}
		return Ok(42)
	})
	if v, _ := r.Unwrap(); v != 42 || attempts != 3 {
		t.Fatal("Retry should succeed on 3rd attempt")
	}
}

func TestRetryExhausted(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond}, func(_ context.Context) Result[int] {
		attempts++
		return Err[int](errors.New("fail"))
	})
	if r.IsOk() || attempts != 2 {
		t.Fatalf("expected 2 failed attempts, got %d", attempts)
	}
}

func TestRetryNotRetryable(t *testing.T) {
	permanent := errors.New("unauthorized")
	attempts := 0
	opts := RetryOpts{
		MaxAttempts: 5,
		InitialWait: time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
	}
	r := Retry(context.Background(), opts, func(_ context.Context) Result[int] {
		attempts++
		return Err[int](permanent)
	})
	if r.IsOk() || attempts != 1 {
		t.Fatalf("non-retryable error should stop after 1 attempt, got %d", attempts)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	r := Retry(ctx, RetryOpts{MaxAttempts: 100, InitialWait: 10 * time.Millisecond}, func(ctx context.Context) Result[int] {
		return Err[int](errors.New("fail"))
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryMaxWaitCapsJitter(t *testing.T) {
	start := time.Now()
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 2 * time.Millisecond, Jitter: true}
	Retry(context.Background(), opts, func(_ context.Context) Result[int] {
		return Err[int](errors.New("fail"))
	})
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("MaxWait should cap the backoff")
	}
}
