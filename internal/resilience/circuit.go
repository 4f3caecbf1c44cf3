// Package resilience classifies collaborator failures and guards flaky
// providers with circuit breakers. Nothing here retries: a failed call is
// reported once and the caller decides what to fall back to.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState is the state of a breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected without being attempted.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// BreakerConfig controls when a breaker opens and how long it stays open.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout" mapstructure:"reset_timeout"`

	// ShouldTrip decides which errors count as failures. Defaults to
	// transport failures only.
	ShouldTrip func(err error) bool `yaml:"-" mapstructure:"-"`
}

// DefaultBreakerConfig opens after 3 consecutive failures for 60s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     60 * time.Second,
	}
}

// Breaker is a consecutive-failure circuit breaker for one provider. A
// single trial call is let through once the reset timeout elapses.
type Breaker struct {
	name string
	cfg  BreakerConfig

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker creates a closed breaker. Zero config values fall back to the
// defaults.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = func(err error) bool { return Classify(err) == KindTransport }
	}
	return &Breaker{name: name, cfg: cfg, now: time.Now}
}

// Name returns the provider name the breaker guards.
func (b *Breaker) Name() string { return b.name }

// Do runs fn unless the breaker is open.
func Do[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !b.allow() {
		return zero, eris.Wrapf(ErrCircuitOpen, "resilience: %s", b.name)
	}
	v, err := fn(ctx)
	b.record(err)
	return v, err
}

// State returns the current state, reporting half-open once an open breaker
// has waited out its reset timeout.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == CircuitOpen && b.now().Sub(b.openedAt) >= b.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return b.state
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setState(CircuitClosed)
	b.failures = 0
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case CircuitOpen:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return false
		}
		b.setState(CircuitHalfOpen)
		return true
	default:
		return true
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !b.cfg.ShouldTrip(err) {
		b.failures = 0
		if b.state == CircuitHalfOpen {
			b.setState(CircuitClosed)
		}
		return
	}

	b.failures++
	if b.state == CircuitHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		b.setState(CircuitOpen)
	}
}

func (b *Breaker) setState(to CircuitState) {
	if b.state == to {
		return
	}
	zap.L().Debug("resilience: breaker state change",
		zap.String("provider", b.name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
	)
	b.state = to
}
