package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable means recent attempts to reach the database failed and
// requests are being turned away until it recovers.
var ErrUnavailable = errors.New("data source unavailable")

// BreakerSettings controls when the breaker opens and how long it stays open.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker rejects before probing again.
	OpenTimeout time.Duration
}

var DefaultBreakerSettings = BreakerSettings{
	Name:                "climate-db",
	ConsecutiveFailures: 5,
	OpenTimeout:         30 * time.Second,
}

type breakerRepository struct {
	inner   ClimateRepository
	circuit *gobreaker.TwoStepCircuitBreaker
}

// WithBreaker guards inner.Acquire with a circuit breaker. An acquisition
// that fails because its own context ended is not recorded while closed; as
// the half-open trial it counts as a failure and the breaker reopens.
func WithBreaker(inner ClimateRepository, s BreakerSettings) ClimateRepository {
	threshold := s.ConsecutiveFailures
	cb := gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &breakerRepository{inner: inner, circuit: cb}
}

func (b *breakerRepository) Acquire(ctx context.Context) (Session, error) {
	done, err := b.circuit.Allow()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	trial := b.circuit.State() == gobreaker.StateHalfOpen

	sess, err := b.inner.Acquire(ctx)
	switch {
	case err == nil:
		done(true)
		return sess, nil
	case ctx.Err() != nil:
		if trial {
			done(false)
		}
		return nil, err
	default:
		done(false)
		return nil, err
	}
}
