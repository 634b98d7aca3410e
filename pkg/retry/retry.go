// Package retry defines the retry policy shared by the point-to-point
// exchange engine and the broadcast discovery collector.
//
// A Policy is an immutable value describing how many retries to make and
// how to space them. The "current interval" of a running retry sequence is
// tracked by the caller, not by the policy: callers start at BaseInterval
// and feed each interval back through NextInterval to obtain the next one.
package retry

import (
	"fmt"
	"math"
	"time"
)

// Strategy selects how retry intervals evolve across a sequence.
type Strategy int

const (
	// StrategyFixed keeps every interval at BaseInterval.
	StrategyFixed Strategy = iota

	// StrategyExponential doubles the interval on each step, saturating
	// at CapInterval.
	StrategyExponential
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyFixed:
		return "fixed"
	case StrategyExponential:
		return "exponential"
	default:
		return "unknown"
	}
}

// DefaultCapInterval bounds exponential growth when no explicit cap is
// given. Long retry sequences otherwise double into intervals that exceed
// any reasonable reply window.
const DefaultCapInterval = 3 * time.Second

// Policy describes a retry schedule. The zero value is a disabled policy
// (no retries). Policies are plain values: construct once per call, copy
// freely, never mutate.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Consumers make MaxRetries+1 attempts in total. Negative values are
	// treated as 0.
	MaxRetries int

	// Strategy selects fixed or exponential interval spacing.
	Strategy Strategy

	// BaseInterval is the first inter-attempt interval.
	BaseInterval time.Duration

	// CapInterval bounds exponential growth. Only meaningful for
	// StrategyExponential; 0 means unbounded.
	CapInterval time.Duration
}

// Disabled returns a policy that makes no retries.
func Disabled() Policy {
	return Policy{}
}

// Fixed returns a policy retrying maxRetries times with a constant
// interval between attempts.
func Fixed(maxRetries int, interval time.Duration) Policy {
	return Policy{
		MaxRetries:   clampRetries(maxRetries),
		Strategy:     StrategyFixed,
		BaseInterval: interval,
	}
}

// Exponential returns a policy retrying maxRetries times, doubling the
// interval on each retry starting from base, capped at DefaultCapInterval.
func Exponential(maxRetries int, base time.Duration) Policy {
	return ExponentialCap(maxRetries, base, DefaultCapInterval)
}

// ExponentialCap is Exponential with an explicit growth cap. A cap of 0
// leaves growth unbounded.
func ExponentialCap(maxRetries int, base, cap time.Duration) Policy {
	return Policy{
		MaxRetries:   clampRetries(maxRetries),
		Strategy:     StrategyExponential,
		BaseInterval: base,
		CapInterval:  cap,
	}
}

// Enabled reports whether the policy schedules any retries at all.
func (p Policy) Enabled() bool {
	return p.MaxRetries > 0
}

// Attempts returns the total number of attempts a consumer should make,
// the initial attempt included. Never less than 1.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// NextInterval derives the interval that follows current in a retry
// sequence. For StrategyFixed it returns BaseInterval regardless of
// current. For StrategyExponential it returns min(current*2, cap), where
// an absent cap is treated as the largest representable duration; the
// doubling saturates instead of overflowing.
func (p Policy) NextInterval(current time.Duration) time.Duration {
	if p.Strategy != StrategyExponential {
		return p.BaseInterval
	}

	limit := p.CapInterval
	if limit <= 0 {
		limit = time.Duration(math.MaxInt64)
	}
	if current >= limit || current > limit/2 {
		return limit
	}
	return current * 2
}

// String returns a compact description, e.g. "exponential(retries=4, base=500ms, cap=3s)".
func (p Policy) String() string {
	if !p.Enabled() {
		return "disabled"
	}
	if p.Strategy == StrategyExponential && p.CapInterval > 0 {
		return fmt.Sprintf("%s(retries=%d, base=%s, cap=%s)", p.Strategy, p.MaxRetries, p.BaseInterval, p.CapInterval)
	}
	return fmt.Sprintf("%s(retries=%d, base=%s)", p.Strategy, p.MaxRetries, p.BaseInterval)
}

func clampRetries(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
