package data

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// BackendOptions tunes the call guard shared by all backends
type BackendOptions struct {
	RPS     float64       // 0 disables throttling
	Timeout time.Duration // per-request deadline
}

const defaultBackendTimeout = 60 * time.Second

// guard throttles calls and stops hammering a backend that keeps failing
type guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func newGuard(name string, opts BackendOptions, logger *zap.Logger) *guard {
	g := &guard{timeout: opts.Timeout}
	if g.timeout <= 0 {
		g.timeout = defaultBackendTimeout
	}
	if opts.RPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A status reply means the backend is reachable
		IsSuccessful: func(err error) bool {
			var statusErr *repo.StatusError
			return err == nil || errors.As(err, &statusErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("backend circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
			backendBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return g
}

// do runs fn under the rate limit, breaker and deadline
func (g *guard) do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	backendLatency.WithLabelValues(g.breaker.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		backendErrors.WithLabelValues(g.breaker.Name()).Inc()
		return "", err
	}
	return out.(string), nil
}
