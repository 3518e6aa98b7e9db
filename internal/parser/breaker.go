package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"docparse/internal/config"
	"docparse/internal/domain"
	"docparse/internal/logger"
	"docparse/internal/port"
)

// callerAbort marks a failed call whose context the caller had already
// cancelled or let expire. The breaker counts it as a success.
type callerAbort struct {
	err error
}

func (a *callerAbort) Error() string { return a.err.Error() }

func (a *callerAbort) Unwrap() error { return a.err }

// breakerGateway fails calls fast while the provider keeps returning backend
// errors. It never retries: one call in, at most one provider call out.
type breakerGateway struct {
	next     port.Gateway
	provider string
	cb       *gobreaker.CircuitBreaker[*port.Completion]
}

// WithCircuitBreaker wraps gw in a circuit breaker configured from cfg. When
// the breaker is disabled in cfg, gw is returned unchanged. Only backend
// failures count against the provider; caller cancellation does not.
func WithCircuitBreaker(gw port.Gateway, cfg *config.GatewayConfig, log *zap.Logger) port.Gateway {
	if !cfg.BreakerEnabled() {
		return gw
	}
	log = logger.OrNop(log)

	ratio := cfg.BreakerFailureRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	minRequests := cfg.BreakerMinRequests

	settings := gobreaker.Settings{
		Name:        cfg.Provider,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		IsSuccessful: func(err error) bool {
			var abort *callerAbort
			if err == nil || errors.As(err, &abort) || errors.Is(err, context.Canceled) {
				return true
			}
			return !errors.Is(err, domain.ErrBackendUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("gateway: circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &breakerGateway{
		next:     gw,
		provider: cfg.Provider,
		cb:       gobreaker.NewCircuitBreaker[*port.Completion](settings),
	}
}

func (g *breakerGateway) Complete(ctx context.Context, req port.CompletionRequest) (*port.Completion, error) {
	out, err := g.cb.Execute(func() (*port.Completion, error) {
		out, err := g.next.Complete(ctx, req)
		if err != nil && ctx.Err() != nil {
			return nil, &callerAbort{err: err}
		}
		return out, err
	})
	var abort *callerAbort
	if errors.As(err, &abort) {
		return nil, abort.err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, NewBackendError(g.provider, 0, fmt.Errorf("circuit open: %w", err))
	}
	return out, err
}
