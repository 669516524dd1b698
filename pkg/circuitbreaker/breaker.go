package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

type Config struct {
	// FailureThreshold consecutive failures trip the breaker open.
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	Logger      *zap.Logger
}

// CircuitBreaker guards a single downstream dependency. Once it trips,
// calls fail fast with ErrCircuitOpen until a probe succeeds.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	logger           *zap.Logger

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

func New(name string, cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &CircuitBreaker{
		name:             name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		logger:           cfg.Logger,
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked(time.Now())
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.stateLocked(time.Now()) == StateOpen {
		return ErrCircuitOpen
	}
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.stateLocked(time.Now())

	if success {
		cb.failures = 0
		if state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.successThreshold {
				cb.transition(StateClosed)
			}
		}
		return
	}

	cb.successes = 0
	cb.failures++
	if state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.openedAt = time.Now()
		cb.transition(StateOpen)
	}
}

// stateLocked resolves open -> half-open once the timeout has elapsed.
func (cb *CircuitBreaker) stateLocked(now time.Time) State {
	if cb.state == StateOpen && now.Sub(cb.openedAt) >= cb.openTimeout {
		cb.transition(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to
	cb.successes = 0
	if to == StateClosed {
		cb.failures = 0
	}

	cb.logger.Info("Circuit breaker state changed",
		zap.String("name", cb.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}
