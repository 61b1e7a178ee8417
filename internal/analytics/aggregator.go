package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAnalyticsDisabled = fmt.Errorf("analytics: %w", domain.ErrFeatureDisabled)
	// ErrSuperseded - пока запрос считался, тот же view отправил новый.
	ErrSuperseded = errors.New("analytics request superseded by a newer one")
)

// Request - параметры композиции дашборда.
type Request struct {
	TenantID string
	Features domain.Features
	Range    domain.DateRange
	Grain    domain.Grain
	// ViewKey идентифицирует вкладку/виджет, от которого пришел запрос. Пусто - TenantID.
	ViewKey string
	// Strict - отказ любого источника валит всю композицию.
	Strict bool
}

// Aggregator собирает снапшот аналитики тенанта из независимых источников.
type Aggregator struct {
	source  Source
	cache   SnapshotCache
	gens    *Generations
	timeout time.Duration
	metrics *infra.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAggregator. cache может быть nil - тогда каждый запрос идет в источники.
func NewAggregator(source Source, cache SnapshotCache, timeout time.Duration, metrics *infra.Metrics, logger *zap.Logger) *Aggregator {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Aggregator{
		source:  source,
		cache:   cache,
		gens:    NewGenerations(),
		timeout: timeout,
		metrics: metrics,
		logger:  logger.Named("analytics"),
		now:     time.Now,
	}
}

func (a *Aggregator) Compose(parent context.Context, req Request) (*domain.AnalyticsSnapshot, error) {
	if !req.Features.Analytics {
		return nil, ErrAnalyticsDisabled
	}
	if err := req.Range.Validate(); err != nil {
		return nil, err
	}
	if req.Grain == "" {
		req.Grain = domain.GrainDay
	}
	if req.ViewKey == "" {
		req.ViewKey = req.TenantID
	}

	ctx, ticket := a.gens.Begin(parent, req.ViewKey)
	defer a.gens.Finish(ticket)

	key := Fingerprint(req.TenantID, req.Range, req.Grain, req.Features)
	if a.cache != nil {
		if snap, ok := a.cache.Get(ctx, key); ok {
			snap.Generation = ticket.Gen
			snap.Cached = true
			a.metrics.Compositions.WithLabelValues("cached").Inc()
			return &snap, nil
		}
	}

	snap := domain.AnalyticsSnapshot{
		TenantID: req.TenantID,
		Range:    req.Range,
		Grain:    req.Grain,
		Copilot:  domain.DisabledSlot[[]domain.CopilotPoint](),
		Audit:    domain.DisabledSlot[[]domain.AuditRollupPoint](),
	}

	// В lenient-режиме ошибки оседают в слотах, группа их не видит и не отменяет соседей.
	g, gctx := &errgroup.Group{}, ctx
	if req.Strict {
		g, gctx = errgroup.WithContext(ctx)
	}
	fail := func(name string, err error) error {
		if req.Strict {
			return &SourceError{Source: name, Err: err}
		}
		return nil
	}

	g.Go(func() error {
		pts, err := call(gctx, a, SourceUsage, func(ctx context.Context) ([]domain.UsagePoint, error) {
			return a.source.Usage(ctx, req.TenantID, req.Range, req.Grain)
		})
		if err != nil {
			snap.Usage = domain.ErrorSlot[[]domain.UsagePoint](err)
			return fail(SourceUsage, err)
		}
		// Источник может отдать дневные точки, повторное бакетирование идемпотентно
		snap.Usage = domain.ReadySlot(nonNil(BucketUsage(pts, req.Grain)))
		return nil
	})
	g.Go(func() error {
		seats, err := call(gctx, a, SourceSeats, func(ctx context.Context) ([]domain.SeatsByRole, error) {
			return a.source.SeatsByRole(ctx, req.TenantID)
		})
		if err != nil {
			snap.Seats = domain.ErrorSlot[[]domain.SeatsByRole](err)
			return fail(SourceSeats, err)
		}
		snap.Seats = domain.ReadySlot(nonNil(seats))
		return nil
	})
	g.Go(func() error {
		adoption, err := call(gctx, a, SourceAdoption, func(ctx context.Context) ([]domain.FeatureAdoption, error) {
			return a.source.FeatureAdoption(ctx, req.TenantID, req.Range)
		})
		if err != nil {
			snap.Adoption = domain.ErrorSlot[[]domain.FeatureAdoption](err)
			return fail(SourceAdoption, err)
		}
		snap.Adoption = domain.ReadySlot(nonNil(adoption))
		return nil
	})
	if req.Features.Copilot {
		g.Go(func() error {
			pts, err := call(gctx, a, SourceCopilot, func(ctx context.Context) ([]domain.CopilotPoint, error) {
				return a.source.CopilotMetrics(ctx, req.TenantID, req.Range)
			})
			if err != nil {
				snap.Copilot = domain.ErrorSlot[[]domain.CopilotPoint](err)
				return fail(SourceCopilot, err)
			}
			snap.Copilot = domain.ReadySlot(nonNil(BucketCopilot(pts, req.Grain)))
			return nil
		})
	}
	if req.Features.Audit {
		g.Go(func() error {
			rollup, err := call(gctx, a, SourceAudit, func(ctx context.Context) ([]domain.AuditRollupPoint, error) {
				return a.source.AuditRollup(ctx, req.TenantID, req.Range)
			})
			if err != nil {
				snap.Audit = domain.ErrorSlot[[]domain.AuditRollupPoint](err)
				return fail(SourceAudit, err)
			}
			snap.Audit = domain.ReadySlot(nonNil(rollup))
			return nil
		})
	}

	err := g.Wait()

	// Устаревший результат не отдаем и не кэшируем, даже если он успешный
	if !a.gens.Current(ticket) {
		a.metrics.Compositions.WithLabelValues("superseded").Inc()
		return nil, ErrSuperseded
	}
	if parent.Err() != nil {
		return nil, parent.Err()
	}
	if err != nil {
		a.metrics.Compositions.WithLabelValues("failed").Inc()
		var se *SourceError
		if errors.As(err, &se) {
			a.logger.Warn("strict composition aborted",
				zap.String("tenant_id", req.TenantID),
				zap.String("source", se.Source),
				zap.Error(se.Err))
		}
		return nil, err
	}

	snap.Generation = ticket.Gen
	snap.ComputedAt = a.now().UTC()

	if snap.Complete() {
		a.metrics.Compositions.WithLabelValues("ok").Inc()
		if a.cache != nil {
			a.cache.Set(ctx, key, snap)
		}
	} else {
		a.metrics.Compositions.WithLabelValues("partial").Inc()
	}
	return &snap, nil
}

// Fetch отдает один источник (отдельные эндпоинты /analytics/{source}).
func (a *Aggregator) Fetch(ctx context.Context, req Request, source string) (any, error) {
	if !req.Features.Analytics {
		return nil, ErrAnalyticsDisabled
	}
	if err := req.Range.Validate(); err != nil {
		return nil, err
	}
	if req.Grain == "" {
		req.Grain = domain.GrainDay
	}

	var (
		out any
		err error
	)
	switch source {
	case SourceUsage:
		var pts []domain.UsagePoint
		pts, err = call(ctx, a, source, func(ctx context.Context) ([]domain.UsagePoint, error) {
			return a.source.Usage(ctx, req.TenantID, req.Range, req.Grain)
		})
		out = nonNil(BucketUsage(pts, req.Grain))
	case SourceSeats:
		out, err = call(ctx, a, source, func(ctx context.Context) ([]domain.SeatsByRole, error) {
			return a.source.SeatsByRole(ctx, req.TenantID)
		})
	case SourceAdoption:
		out, err = call(ctx, a, source, func(ctx context.Context) ([]domain.FeatureAdoption, error) {
			return a.source.FeatureAdoption(ctx, req.TenantID, req.Range)
		})
	case SourceCopilot:
		if !req.Features.Copilot {
			return nil, fmt.Errorf("copilot: %w", domain.ErrFeatureDisabled)
		}
		var pts []domain.CopilotPoint
		pts, err = call(ctx, a, source, func(ctx context.Context) ([]domain.CopilotPoint, error) {
			return a.source.CopilotMetrics(ctx, req.TenantID, req.Range)
		})
		out = nonNil(BucketCopilot(pts, req.Grain))
	case SourceAudit:
		if !req.Features.Audit {
			return nil, fmt.Errorf("audit: %w", domain.ErrFeatureDisabled)
		}
		out, err = call(ctx, a, source, func(ctx context.Context) ([]domain.AuditRollupPoint, error) {
			return a.source.AuditRollup(ctx, req.TenantID, req.Range)
		})
	default:
		return nil, fmt.Errorf("%w: unknown analytics source %q", domain.ErrNotFound, source)
	}
	if err != nil {
		return nil, &SourceError{Source: source, Err: err}
	}
	return out, nil
}

// call выполняет запрос к источнику с таймаутом и снимает метрики.
func call[T any](ctx context.Context, a *Aggregator, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	out, err := fn(ctx)
	a.metrics.SourceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.SourceErrors.WithLabelValues(name, errorType(err)).Inc()
	}
	return out, err
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}

// nonNil - фронту нужен [], а не null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
