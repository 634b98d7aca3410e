package retry

import (
	"math"
	"testing"
	"time"
)

func TestFixedNextInterval(t *testing.T) {
	p := Fixed(3, 750*time.Millisecond)

	// Fixed ignores the current interval entirely.
	inputs := []time.Duration{
		0,
		time.Millisecond,
		750 * time.Millisecond,
		10 * time.Second,
		time.Duration(math.MaxInt64),
	}
	for _, current := range inputs {
		if got := p.NextInterval(current); got != 750*time.Millisecond {
			t.Errorf("NextInterval(%v) = %v, want %v", current, got, 750*time.Millisecond)
		}
	}
}

func TestExponentialNextInterval(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		current time.Duration
		want    time.Duration
	}{
		{
			name:    "doubles below cap",
			policy:  ExponentialCap(3, 500*time.Millisecond, 3*time.Second),
			current: 500 * time.Millisecond,
			want:    time.Second,
		},
		{
			name:    "saturates at cap",
			policy:  ExponentialCap(3, 500*time.Millisecond, 3*time.Second),
			current: 2 * time.Second,
			want:    3 * time.Second,
		},
		{
			name:    "stays at cap once reached",
			policy:  ExponentialCap(3, 500*time.Millisecond, 3*time.Second),
			current: 3 * time.Second,
			want:    3 * time.Second,
		},
		{
			name:    "above cap clamps back to cap",
			policy:  ExponentialCap(3, 500*time.Millisecond, 3*time.Second),
			current: 10 * time.Second,
			want:    3 * time.Second,
		},
		{
			name:    "unbounded cap doubles freely",
			policy:  ExponentialCap(3, time.Second, 0),
			current: time.Hour,
			want:    2 * time.Hour,
		},
		{
			name:    "unbounded cap saturates instead of overflowing",
			policy:  ExponentialCap(3, time.Second, 0),
			current: time.Duration(math.MaxInt64) - time.Second,
			want:    time.Duration(math.MaxInt64),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.NextInterval(tt.current); got != tt.want {
				t.Errorf("NextInterval(%v) = %v, want %v", tt.current, got, tt.want)
			}
		})
	}
}

func TestExponentialSequence(t *testing.T) {
	// The documented walk: exponential(maxRetries=4, base=500ms, cap=3s)
	// spaces its retries 500ms, 1s, 2s, 3s, 3s.
	p := ExponentialCap(4, 500*time.Millisecond, 3*time.Second)

	want := []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		3 * time.Second,
		3 * time.Second,
	}

	current := p.BaseInterval
	for i, w := range want {
		if current != w {
			t.Fatalf("interval %d = %v, want %v", i, current, w)
		}
		current = p.NextInterval(current)
	}
}

func TestExponentialMonotonicAndCapped(t *testing.T) {
	p := ExponentialCap(10, 50*time.Millisecond, 3*time.Second)

	current := p.BaseInterval
	prev := time.Duration(0)
	for i := 0; i < 20; i++ {
		if current < prev {
			t.Fatalf("step %d: interval %v decreased from %v", i, current, prev)
		}
		if current > p.CapInterval {
			t.Fatalf("step %d: interval %v exceeds cap %v", i, current, p.CapInterval)
		}
		prev = current
		current = p.NextInterval(current)
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		wantEnabled bool
		wantTotal   int
	}{
		{"disabled", Disabled(), false, 1},
		{"fixed", Fixed(3, time.Second), true, 4},
		{"fixed zero retries", Fixed(0, time.Second), false, 1},
		{"fixed negative retries clamped", Fixed(-5, time.Second), false, 1},
		{"exponential", Exponential(2, 500*time.Millisecond), true, 3},
		{"exponential capped", ExponentialCap(4, 500*time.Millisecond, 10*time.Second), true, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Enabled(); got != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", got, tt.wantEnabled)
			}
			if got := tt.policy.Attempts(); got != tt.wantTotal {
				t.Errorf("Attempts() = %d, want %d", got, tt.wantTotal)
			}
		})
	}
}

func TestExponentialDefaultCap(t *testing.T) {
	p := Exponential(3, 100*time.Millisecond)
	if p.CapInterval != DefaultCapInterval {
		t.Errorf("CapInterval = %v, want %v", p.CapInterval, DefaultCapInterval)
	}
}

func TestNegativeMaxRetriesAttempts(t *testing.T) {
	// Hand-built policies may carry negative retry counts; consumers still
	// make one attempt.
	p := Policy{MaxRetries: -3, Strategy: StrategyFixed, BaseInterval: time.Second}
	if got := p.Attempts(); got != 1 {
		t.Errorf("Attempts() = %d, want 1", got)
	}
	if p.Enabled() {
		t.Error("Enabled() = true, want false")
	}
}

func TestPolicyString(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   string
	}{
		{"disabled", Disabled(), "disabled"},
		{"fixed", Fixed(2, time.Second), "fixed(retries=2, base=1s)"},
		{"exponential", ExponentialCap(4, 500*time.Millisecond, 3*time.Second), "exponential(retries=4, base=500ms, cap=3s)"},
		{"exponential unbounded", ExponentialCap(1, time.Second, 0), "exponential(retries=1, base=1s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
