package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ReliableSource оборачивает Source лимитером, предохранителем (по одному на источник) и ретраями.
// Политика ретраев внутренняя: клиент видит одну ошибку, последнюю.
type ReliableSource struct {
	next     Source
	breakers map[string]*gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	attempts uint
	logger   *zap.Logger
}

func NewReliableSource(next Source, cfg infra.AnalyticsConfig, metrics *infra.Metrics, logger *zap.Logger) *ReliableSource {
	logger = logger.Named("analytics-source")
	s := &ReliableSource{
		next:     next,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		attempts: cfg.RetryAttempts,
		logger:   logger,
	}
	if s.attempts == 0 {
		s.attempts = 1
	}

	failures := cfg.CBFailures
	for _, name := range []string{SourceUsage, SourceSeats, SourceAdoption, SourceCopilot, SourceAudit} {
		s.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.CBMaxRequests,
			Interval:    cfg.CBInterval,
			Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > failures
			},
			// Отмена вытесненного запроса - не отказ источника
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("source", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
				if metrics != nil {
					metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				}
			},
		})
	}
	return s
}

func guard[T any](ctx context.Context, s *ReliableSource, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := s.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("rate limit exceeded: %w", err)
	}

	res, err := s.breakers[name].Execute(func() (interface{}, error) {
		var (
			out     T
			lastErr error
		)
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(s.attempts),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				return retry.BackOffDelay(n, err, config)
			}),
		)
		retryErr := r.Do(func() error {
			out, lastErr = fn(ctx)
			if lastErr != nil && errors.Is(lastErr, domain.ErrValidation) {
				// Невалидный запрос не станет валидным от повтора
				return nil
			}
			return lastErr
		})
		if lastErr != nil {
			return nil, lastErr
		}
		if retryErr != nil {
			return nil, retryErr
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

func (s *ReliableSource) Usage(ctx context.Context, tenantID string, r domain.DateRange, g domain.Grain) ([]domain.UsagePoint, error) {
	return guard(ctx, s, SourceUsage, func(ctx context.Context) ([]domain.UsagePoint, error) {
		return s.next.Usage(ctx, tenantID, r, g)
	})
}

func (s *ReliableSource) SeatsByRole(ctx context.Context, tenantID string) ([]domain.SeatsByRole, error) {
	return guard(ctx, s, SourceSeats, func(ctx context.Context) ([]domain.SeatsByRole, error) {
		return s.next.SeatsByRole(ctx, tenantID)
	})
}

func (s *ReliableSource) FeatureAdoption(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.FeatureAdoption, error) {
	return guard(ctx, s, SourceAdoption, func(ctx context.Context) ([]domain.FeatureAdoption, error) {
		return s.next.FeatureAdoption(ctx, tenantID, r)
	})
}

func (s *ReliableSource) CopilotMetrics(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.CopilotPoint, error) {
	return guard(ctx, s, SourceCopilot, func(ctx context.Context) ([]domain.CopilotPoint, error) {
		return s.next.CopilotMetrics(ctx, tenantID, r)
	})
}

func (s *ReliableSource) AuditRollup(ctx context.Context, tenantID string, r domain.DateRange) ([]domain.AuditRollupPoint, error) {
	return guard(ctx, s, SourceAudit, func(ctx context.Context) ([]domain.AuditRollupPoint, error) {
		return s.next.AuditRollup(ctx, tenantID, r)
	})
}
