package gateway

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"resumelift/internal/config"
	appErrors "resumelift/internal/errors"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

func TestBreakerDisabledExecutesDirectly(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.Enabled = false

	breaker := NewBreaker[int]("test", cfg, appErrors.NewLogger(slog.LevelError))
	if breaker != nil {
		t.Fatal("disabled breaker should be nil")
	}

	// Nil breakers pass calls through.
	got, err := breaker.Execute(func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got != 42 {
		t.Errorf("Execute() = %d, want 42", got)
	}
	if !breaker.IsHealthy() {
		t.Error("nil breaker should report healthy")
	}
	if stats := breaker.GetStats(); stats["enabled"] != false {
		t.Errorf("stats = %v", stats)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	breaker := NewBreaker[int]("test", testBreakerConfig(), appErrors.NewLogger(slog.LevelError))
	failure := errors.New("backend down")

	for i := 0; i < 3; i++ {
		_, err := breaker.Execute(func() (int, error) { return 0, failure })
		if !errors.Is(err, failure) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}

	if breaker.IsHealthy() {
		t.Error("breaker still healthy after tripping threshold")
	}

	// Calls are rejected without running the function.
	ran := false
	_, err := breaker.Execute(func() (int, error) {
		ran = true
		return 0, nil
	})
	if err == nil {
		t.Error("Expected open-circuit error")
	}
	if ran {
		t.Error("function executed while breaker open")
	}
}

func TestBreakerStaysClosedUnderMinRequests(t *testing.T) {
	breaker := NewBreaker[int]("test", testBreakerConfig(), appErrors.NewLogger(slog.LevelError))

	_, _ = breaker.Execute(func() (int, error) { return 0, errors.New("one failure") })
	if !breaker.IsHealthy() {
		t.Error("breaker tripped below minRequests")
	}
}
