package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"epk-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // deliveries allowed
	StateOpen                  // deliveries blocked until cooldown passes
	StateHalfOpen              // one trial delivery in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration
type Config struct {
	Name            string
	Threshold       int           // consecutive failures before opening
	Cooldown        time.Duration // time spent open before a trial call
	HalfOpenTimeout time.Duration // trial calls older than this count as failed
	// OnStateChange is called outside the lock after every transition
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker stops calls to a dependency after repeated failures
type CircuitBreaker struct {
	cfg           Config
	state         State
	failures      int
	openedAt      time.Time
	halfOpenStart time.Time
	now           func() time.Time
	mu            sync.Mutex
}

// New creates a circuit breaker, filling unset config with defaults
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.HalfOpenTimeout <= 0 {
		cfg.HalfOpenTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// Name returns the breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.cfg.Name
}

// transition must be called with the lock held. It returns a func that
// fires the state change callback once the lock is released.
func (cb *CircuitBreaker) transition(to State) func() {
	from := cb.state
	cb.state = to
	if from == to || cb.cfg.OnStateChange == nil {
		return func() {}
	}
	name, hook := cb.cfg.Name, cb.cfg.OnStateChange
	return func() { hook(name, from, to) }
}

// Allow reports whether a call may proceed
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	allowed, notify := cb.allowLocked()
	cb.mu.Unlock()
	notify()
	return allowed
}

func (cb *CircuitBreaker) allowLocked() (bool, func()) {
	prefix := logcolors.CircuitBreakerPrefix(cb.cfg.Name)

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.Cooldown {
			return false, func() {}
		}
		cb.halfOpenStart = cb.now()
		log.Infof("%s Cooldown passed, transitioning to HALF-OPEN", prefix)
		return true, cb.transition(StateHalfOpen)

	case StateHalfOpen:
		if cb.now().Sub(cb.halfOpenStart) >= cb.cfg.HalfOpenTimeout {
			cb.openedAt = cb.now()
			log.Warnf("%s Trial call timed out, transitioning back to OPEN", prefix)
			return false, cb.transition(StateOpen)
		}
		return false, func() {}

	default:
		return true, func() {}
	}
}

// RecordSuccess closes a half-open breaker and clears the failure count
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	notify := func() {}
	if cb.state == StateHalfOpen {
		log.Infof("%s Trial call succeeded, transitioning to CLOSED", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
		notify = cb.transition(StateClosed)
	}
	cb.failures = 0
	cb.mu.Unlock()
	notify()
}

// RecordFailure counts a failure and opens the breaker when the threshold
// is reached or a trial call fails
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.failures++
	notify := func() {}
	prefix := logcolors.CircuitBreakerPrefix(cb.cfg.Name)

	switch {
	case cb.state == StateHalfOpen:
		cb.openedAt = cb.now()
		log.Warnf("%s Trial call failed, transitioning back to OPEN", prefix)
		notify = cb.transition(StateOpen)
	case cb.state == StateClosed && cb.failures >= cb.cfg.Threshold:
		cb.openedAt = cb.now()
		log.Warnf("%s Threshold reached (%d failures), transitioning to OPEN (cooldown: %v)",
			prefix, cb.failures, cb.cfg.Cooldown)
		notify = cb.transition(StateOpen)
	}
	cb.mu.Unlock()
	notify()
}

// Execute runs fn if the breaker allows it and records the outcome
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// TimeUntilRetry returns the remaining cooldown of an open breaker, or 0
func (cb *CircuitBreaker) TimeUntilRetry() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return 0
	}
	remaining := cb.cfg.Cooldown - cb.now().Sub(cb.openedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset forces the breaker closed
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.failures = 0
	cb.openedAt = time.Time{}
	cb.halfOpenStart = time.Time{}
	notify := cb.transition(StateClosed)
	cb.mu.Unlock()
	notify()
	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
}
