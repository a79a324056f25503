// Package clients provides resilient HTTP plumbing for outbound calls:
// a failsafe-go retry policy with exponential backoff and an optional
// circuit breaker. The translation backend is the main consumer.
package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/A-Crow-Pixel/IK-SS25-G4/pkg/logging"
)

// CircuitBreakerState mirrors the breaker's three states for logs.
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateHalfOpen
	StateOpen
)

func (s CircuitBreakerState) String() string {
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

// CircuitBreakerConfig configures NewCircuitBreaker. Zero values fall back
// to defaults sized for a low-volume outbound API.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in log lines.
	Name string

	// MinRequests is how many calls must be observed before FailureRatio
	// is evaluated, so a cold start cannot trip the breaker.
	MinRequests uint32

	// FailureRatio opens the circuit once failures/requests exceeds it.
	FailureRatio float64

	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration

	// MaxRequests is the successes required in half-open state to close.
	MaxRequests uint32

	// Logger, when set, records state transitions.
	Logger logging.Logger
}

func normalizeBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	if cfg.Name == "" {
		cfg.Name = "breaker"
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	return cfg
}

func failureThreshold(cfg CircuitBreakerConfig) uint {
	th := uint(float64(cfg.MinRequests) * cfg.FailureRatio)
	if th < 1 {
		th = 1
	}
	return th
}

// CircuitBreaker guards an outbound dependency; calls fail fast while the
// circuit is open.
type CircuitBreaker struct {
	cb  circuitbreaker.CircuitBreaker[any]
	cfg CircuitBreakerConfig
}

// NewCircuitBreaker creates a breaker from the given configuration.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg = normalizeBreakerConfig(cfg)

	builder := circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(failureThreshold(cfg), uint(cfg.MinRequests)).
		WithDelay(cfg.Timeout).
		WithSuccessThreshold(uint(cfg.MaxRequests))

	if cfg.Logger != nil {
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			cfg.Logger.WithFields(logging.Fields{
				"circuit_breaker": cfg.Name,
				"from_state":      convertState(event.OldState).String(),
				"to_state":        convertState(event.NewState).String(),
			}).Warn("Circuit breaker state change")
		})
	}

	return &CircuitBreaker{cb: builder.Build(), cfg: cfg}
}

func convertState(state circuitbreaker.State) CircuitBreakerState {
	switch state {
	case circuitbreaker.HalfOpenState:
		return StateHalfOpen
	case circuitbreaker.OpenState:
		return StateOpen
	default:
		return StateClosed
	}
}

// Call runs fn through the breaker.
func (cb *CircuitBreaker) Call(fn func() error) error {
	_, err := failsafe.With(cb.cb).Get(func() (any, error) {
		return nil, fn()
	})
	return err
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	return convertState(cb.cb.State())
}

// IsOpen reports whether calls are currently rejected.
func (cb *CircuitBreaker) IsOpen() bool { return cb.cb.IsOpen() }

// IsClosed reports whether the breaker is in its normal pass-through state.
func (cb *CircuitBreaker) IsClosed() bool { return cb.cb.IsClosed() }

// httpTwin builds a response-aware breaker with the same thresholds.
// failsafe policies are typed, so the any-typed breaker cannot be composed
// into an HTTP executor directly.
//
//nolint:bodyclose // [*http.Response] is a type parameter, not a live response
func (cb *CircuitBreaker) httpTwin() circuitbreaker.CircuitBreaker[*http.Response] {
	return circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(failureThreshold(cb.cfg), uint(cb.cfg.MinRequests)).
		WithDelay(cb.cfg.Timeout).
		WithSuccessThreshold(uint(cb.cfg.MaxRequests)).
		HandleIf(func(resp *http.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode >= http.StatusInternalServerError)
		}).
		Build()
}

// DefaultShouldRetry retries on network errors, server errors (5xx) and
// rate limits (429).
func DefaultShouldRetry(resp *http.Response, err error) bool {
	if err != nil || resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// HTTPExecutorConfig configures NewHTTPExecutor.
type HTTPExecutorConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// CircuitBreaker, when set, contributes its thresholds to the executor.
	CircuitBreaker *CircuitBreaker

	// ShouldRetry decides per attempt; DefaultShouldRetry when nil.
	ShouldRetry func(resp *http.Response, err error) bool
}

func normalizeHTTPConfig(cfg HTTPExecutorConfig) HTTPExecutorConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = DefaultShouldRetry
	}
	return cfg
}

// NewHTTPRetryPolicy creates the retry policy for HTTP requests.
//
//nolint:bodyclose // [*http.Response] is a type parameter, not a live response
func NewHTTPRetryPolicy(cfg HTTPExecutorConfig) retrypolicy.RetryPolicy[*http.Response] {
	cfg = normalizeHTTPConfig(cfg)
	return retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(resp *http.Response, err error) bool {
			return cfg.ShouldRetry(resp, err)
		}).
		Build()
}

// NewHTTPExecutor combines the retry policy with the optional breaker.
//
//nolint:bodyclose // [*http.Response] is a type parameter, not a live response
func NewHTTPExecutor(cfg HTTPExecutorConfig) failsafe.Executor[*http.Response] {
	retry := NewHTTPRetryPolicy(cfg)
	if cfg.CircuitBreaker != nil {
		return failsafe.With(retry, cfg.CircuitBreaker.httpTwin())
	}
	return failsafe.With(retry)
}

// ExecuteHTTP runs one HTTP call through the executor.
func ExecuteHTTP(ctx context.Context, executor failsafe.Executor[*http.Response], fn func() (*http.Response, error)) (*http.Response, error) {
	return executor.WithContext(ctx).Get(fn)
}
