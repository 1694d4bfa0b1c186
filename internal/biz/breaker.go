package biz

import (
	"sync"
	"time"
)

// BreakerState is the state of a CircuitBreaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the wire name of the state.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Clock abstracts time so recovery windows can be simulated in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// BreakerSettings configures a CircuitBreaker. Zero values take the defaults.
type BreakerSettings struct {
	// FailureThreshold is the failure count that opens the circuit (default 5).
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open after the last failure (default 30s).
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls bounds trial calls, and the successes needed to close again (default 3).
	HalfOpenMaxCalls int
	// Clock defaults to SystemClock.
	Clock Clock
	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(name string, from, to BreakerState)
}

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
	DefaultHalfOpenMaxCalls = 3
)

// BreakerSnapshot is a read-only view of a CircuitBreaker.
type BreakerSnapshot struct {
	Name             string     `json:"-"`
	State            string     `json:"state"`
	FailureCount     int        `json:"failure_count"`
	SuccessCount     int        `json:"success_count"`
	HalfOpenCalls    int        `json:"half_open_calls"`
	FailureThreshold int        `json:"failure_threshold"`
	RecoveryTimeout  float64    `json:"recovery_timeout"`
	HalfOpenMaxCalls int        `json:"half_open_max_calls"`
	LastFailureTime  *time.Time `json:"last_failure_time"`
}

// CircuitBreaker guards calls to a single downstream dependency.
//
// Callers ask CanExecute before the call and report exactly one of
// RecordSuccess or RecordFailure afterwards. The gate and the record are
// separate critical sections; nothing blocks while the lock is held.
type CircuitBreaker struct {
	name     string
	settings BreakerSettings

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	halfOpenCalls   int
	lastFailureTime time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(name string, settings BreakerSettings) *CircuitBreaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = DefaultFailureThreshold
	}
	if settings.RecoveryTimeout <= 0 {
		settings.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if settings.HalfOpenMaxCalls <= 0 {
		settings.HalfOpenMaxCalls = DefaultHalfOpenMaxCalls
	}
	if settings.Clock == nil {
		settings.Clock = SystemClock
	}
	return &CircuitBreaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
	}
}

// Name returns the dependency name the breaker guards.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// CanExecute reports whether a call may proceed. It never blocks.
//
// Once the recovery timeout has elapsed, the first caller moves the breaker
// to half-open and is itself counted as the first trial call.
func (b *CircuitBreaker) CanExecute() bool {
	b.mu.Lock()
	from := b.state
	allowed := false

	switch b.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if !b.lastFailureTime.IsZero() && b.settings.Clock.Now().Sub(b.lastFailureTime) >= b.settings.RecoveryTimeout {
			b.state = StateHalfOpen
			b.successCount = 0
			b.halfOpenCalls = 1
			allowed = true
		}
	case StateHalfOpen:
		if b.halfOpenCalls < b.settings.HalfOpenMaxCalls {
			b.halfOpenCalls++
			allowed = true
		}
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return allowed
}

// RecordSuccess reports a successful guarded call.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	from := b.state

	switch b.state {
	case StateClosed:
		b.failureCount = 0
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.settings.HalfOpenMaxCalls {
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
			b.halfOpenCalls = 0
		}
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// RecordFailure reports a failed guarded call.
// A single failure while half-open reopens the circuit.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	from := b.state

	b.failureCount++
	b.lastFailureTime = b.settings.Clock.Now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.settings.FailureThreshold {
			b.state = StateOpen
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.successCount = 0
		b.halfOpenCalls = 0
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// State returns the current state without triggering the recovery check.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a consistent copy of the breaker's bookkeeping.
func (b *CircuitBreaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := BreakerSnapshot{
		Name:             b.name,
		State:            b.state.String(),
		FailureCount:     b.failureCount,
		SuccessCount:     b.successCount,
		HalfOpenCalls:    b.halfOpenCalls,
		FailureThreshold: b.settings.FailureThreshold,
		RecoveryTimeout:  b.settings.RecoveryTimeout.Seconds(),
		HalfOpenMaxCalls: b.settings.HalfOpenMaxCalls,
	}
	if !b.lastFailureTime.IsZero() {
		t := b.lastFailureTime
		snap.LastFailureTime = &t
	}
	return snap
}

func (b *CircuitBreaker) notify(from, to BreakerState) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
