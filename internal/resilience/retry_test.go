package resilience

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoVal_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	v, err := DoVal(context.Background(), DefaultRetryConfig(), func(_ context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ServerErrorsThenSuccess(t *testing.T) {
	// 503 three times, then 200 on the 4th attempt: must succeed, with
	// 1+2+4 backoff units slept before the successful attempt.
	unit := time.Millisecond
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: unit,
		MaxBackoff:     30 * unit,
		Multiplier:     2.0,
	}

	var calls int
	start := time.Now()
	v, err := DoVal(context.Background(), cfg, func(_ context.Context) (string, error) {
		calls++
		if calls <= 3 {
			return "", &StatusError{StatusCode: 503, Body: "unavailable"}
		}
		return "ok", nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 4, calls)
	assert.GreaterOrEqual(t, elapsed, 7*unit)
}

func TestDo_ClientErrorFailsImmediately(t *testing.T) {
	var calls int
	start := time.Now()
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return &StatusError{StatusCode: 404, Body: "not found"}
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, elapsed, 500*time.Millisecond)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 404, se.StatusCode)
}

func TestDo_RateLimitStatusIsFatal(t *testing.T) {
	// Every 4xx stops the loop on the first attempt, 429 and 408 included.
	for _, code := range []int{408, 429} {
		var calls int
		err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
			calls++
			return &StatusError{StatusCode: code}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls, "status %d must not be retried", code)
	}
}

func TestDo_ExhaustionRaisesLastError(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}

	var calls int
	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return &StatusError{StatusCode: 500, Body: "boom"}
	})

	// Exhausting the budget must surface the error, never an empty success.
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.StatusCode)
}

func TestDo_ContextCancelStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: 50 * time.Millisecond}

	var calls int
	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return &StatusError{StatusCode: 502}
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 3)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		OnRetry:        func(attempt int, _ error) { attempts = append(attempts, attempt) },
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return &StatusError{StatusCode: 503}
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestBackoffDelay_CapsAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{})
	assert.Equal(t, time.Second, backoffDelay(0, cfg))
	assert.Equal(t, 2*time.Second, backoffDelay(1, cfg))
	assert.Equal(t, 4*time.Second, backoffDelay(2, cfg))
	assert.Equal(t, 30*time.Second, backoffDelay(10, cfg))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"500", &StatusError{StatusCode: 500}, true},
		{"503", &StatusError{StatusCode: 503}, true},
		{"429", &StatusError{StatusCode: 429}, false},
		{"408", &StatusError{StatusCode: 408}, false},
		{"404", &StatusError{StatusCode: 404}, false},
		{"400", &StatusError{StatusCode: 400}, false},
		{"401", &StatusError{StatusCode: 401}, false},
		{"plain error", errors.New("something else"), false},
		{"conn reset text", errors.New("read tcp: connection reset by peer"), true},
		{"dns", errors.New("dial tcp: lookup api.example: no such host"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestStatusError_TruncatesBody(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	se := &StatusError{StatusCode: 500, Body: string(long)}
	assert.LessOrEqual(t, len(se.Error()), 330)
}

func TestStatusError_TruncatesOnRuneBoundary(t *testing.T) {
	// One leading ASCII byte shifts every 3-byte rune off the 300 mark, so a
	// byte-offset cut would split a rune mid-sequence.
	body := "x" + strings.Repeat("日", 200)
	se := &StatusError{StatusCode: 500, Body: body}
	msg := se.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.LessOrEqual(t, len(msg), 330)
}
