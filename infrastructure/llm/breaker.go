package llm

import (
	"context"
	"errors"
	"time"

	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// FailureRecorder counts failed provider calls
type FailureRecorder interface {
	RecordLLMFailure(provider string)
}

// BreakerConfig holds configuration for circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// BreakerModel stops calling a failing provider for a while. Calls made
// while the circuit is open fail with ports.ErrModelUnavailable.
type BreakerModel struct {
	inner    ports.LanguageModel
	cb       *gobreaker.CircuitBreaker
	recorder FailureRecorder
	logger   *zap.Logger
}

var _ ports.LanguageModel = (*BreakerModel)(nil)

func NewBreakerModel(inner ports.LanguageModel, cfg BreakerConfig, recorder FailureRecorder, logger *zap.Logger) *BreakerModel {
	m := &BreakerModel{inner: inner, recorder: recorder, logger: logger}
	m.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + inner.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// a caller hanging up says nothing about the provider
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return m
}

func (m *BreakerModel) Name() string { return m.inner.Name() }

func (m *BreakerModel) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	out, err := m.cb.Execute(func() (interface{}, error) {
		return m.inner.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ports.ErrModelUnavailable
		}
		if m.recorder != nil && !errors.Is(err, ports.ErrModelUnavailable) {
			m.recorder.RecordLLMFailure(m.inner.Name())
		}
		m.logger.Warn("Language model call failed", zap.String("provider", m.inner.Name()), zap.Error(err))
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state, for health checks
func (m *BreakerModel) State() string {
	return m.cb.State().String()
}
