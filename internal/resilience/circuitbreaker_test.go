package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var (
	errUpstream = errors.New("upstream down")
	errBadInput = errors.New("bad input")
)

func newTestBreaker(threshold int) (*CircuitBreaker, *time.Time) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("TCBS", CircuitBreakerConfig{
		FailureThreshold: threshold,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
		IsFailure:        func(err error) bool { return errors.Is(err, errUpstream) },
	})
	cb.now = func() time.Time { return clock }
	return cb, &clock
}

func call(cb *CircuitBreaker, err error) error {
	_, got := Execute(cb, context.Background(), func(context.Context) (int, error) {
		return 1, err
	})
	return got
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3)

	for i := 0; i < 3; i++ {
		if err := call(cb, errUpstream); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d err = %v", i, err)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want OPEN", cb.State())
	}
	if err := call(cb, nil); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open circuit err = %v", err)
	}
	if s := cb.Stats(); s.TotalRejected != 1 || s.TotalFailures != 3 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	cb, _ := newTestBreaker(2)

	for i := 0; i < 5; i++ {
		if err := call(cb, errBadInput); !errors.Is(err, errBadInput) {
			t.Fatalf("err = %v", err)
		}
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, bad input must not open the circuit", cb.State())
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(3)

	call(cb, errUpstream)
	call(cb, errUpstream)
	call(cb, nil)
	call(cb, errUpstream)
	call(cb, errUpstream)
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, failures are counted consecutively", cb.State())
	}
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	tests := []struct {
		name  string
		trial error
		want  CircuitState
	}{
		{"success closes", nil, CircuitClosed},
		{"failure reopens", errUpstream, CircuitOpen},
		{"neutral error stays open", errBadInput, CircuitOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := newTestBreaker(1)
			call(cb, errUpstream)

			*clock = clock.Add(31 * time.Second)
			call(cb, tt.trial)
			if cb.State() != tt.want {
				t.Errorf("state = %s, want %s", cb.State(), tt.want)
			}
		})
	}
}

func TestCircuitBreaker_NeutralTrialAllowsRetry(t *testing.T) {
	cb, clock := newTestBreaker(1)
	call(cb, errUpstream)
	*clock = clock.Add(31 * time.Second)

	call(cb, errBadInput)
	if err := call(cb, nil); err != nil {
		t.Errorf("retry after neutral trial err = %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s", cb.State())
	}
}

func TestCircuitBreaker_CanceledCallerIsNeutral(t *testing.T) {
	cb, _ := newTestBreaker(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(cb, ctx, func(ctx context.Context) (int, error) {
		return 0, errors.Join(errUpstream, ctx.Err())
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, cancellation must not count", cb.State())
	}
}

func TestRegistry(t *testing.T) {
	r := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig())

	if r.Get("VCI") != r.Get("VCI") {
		t.Errorf("Get must return the same breaker")
	}
	r.Get("TCBS")

	stats := r.AllStats()
	if len(stats) != 2 || stats[0].Name != "TCBS" || stats[1].Name != "VCI" {
		t.Errorf("stats = %+v", stats)
	}

	cb := r.Get("TCBS")
	for i := 0; i < 5; i++ {
		call(cb, errUpstream)
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s", cb.State())
	}
	r.ResetAll()
	if cb.State() != CircuitClosed {
		t.Errorf("state after reset = %s", cb.State())
	}
}

// The circuit opens exactly when the trailing run of failures reaches the
// threshold.
func TestProperty_OpensOnConsecutiveFailures(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("open iff trailing failures >= threshold", prop.ForAll(
		func(outcomes []bool, threshold int) bool {
			cb, _ := newTestBreaker(threshold)
			run := 0
			for _, failed := range outcomes {
				if run >= threshold {
					break
				}
				if failed {
					call(cb, errUpstream)
					run++
				} else {
					call(cb, nil)
					run = 0
				}
			}
			return (cb.State() == CircuitOpen) == (run >= threshold)
		},
		gen.SliceOf(gen.Bool()),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
