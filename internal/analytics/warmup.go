package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
)

// TenantLister - все тенанты, для которых стоит греть кэш.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
}

// Warmer заранее считает дефолтное окно дашборда (последние 30 дней по дням),
// чтобы первое открытие страницы попадало в кэш.
type Warmer struct {
	agg     *Aggregator
	tenants TenantLister
	rdb     *redis.Client // nil - без распределенной блокировки
	lockTTL time.Duration
	logger  *zap.Logger
}

func NewWarmer(agg *Aggregator, tenants TenantLister, rdb *redis.Client, logger *zap.Logger) *Warmer {
	return &Warmer{
		agg:     agg,
		tenants: tenants,
		rdb:     rdb,
		lockTTL: 5 * time.Minute,
		logger:  logger.Named("analytics-warmup"),
	}
}

// Run прогревает всех тенантов с включенной аналитикой. Возвращает число прогретых.
func (w *Warmer) Run(ctx context.Context) (int, error) {
	if w.rdb != nil {
		// Распределенная блокировка (SetNX), чтобы только один инстанс гонял источники
		ok, err := w.rdb.SetNX(ctx, infra.RedisKeyLockWarmup, "processing", w.lockTTL).Result()
		if err != nil || !ok {
			w.logger.Debug("warm-up skipped, lock is held or Redis unavailable", zap.Error(err))
			return 0, nil
		}
		defer w.rdb.Del(context.WithoutCancel(ctx), infra.RedisKeyLockWarmup)
	}

	tenants, err := w.tenants.ListTenants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tenants: %w", err)
	}

	warmed := 0
	for _, t := range tenants {
		if !t.Features.Analytics {
			continue
		}
		if err := w.WarmTenant(ctx, t); err != nil {
			if ctx.Err() != nil {
				return warmed, ctx.Err()
			}
			w.logger.Warn("tenant warm-up failed", zap.String("tenant_id", t.ID), zap.Error(err))
			continue
		}
		warmed++
	}
	w.logger.Info("analytics cache warmed", zap.Int("tenants", warmed), zap.Int("total", len(tenants)))
	return warmed, nil
}

// WarmTenant считает снапшот по умолчанию для одного тенанта.
func (w *Warmer) WarmTenant(ctx context.Context, t domain.Tenant) error {
	r, err := domain.ParseDateRange("", "", w.agg.now())
	if err != nil {
		return err
	}
	_, err = w.agg.Compose(ctx, Request{
		TenantID: t.ID,
		Features: t.Features,
		Range:    r,
		Grain:    domain.GrainDay,
		ViewKey:  "warmup:" + t.ID,
	})
	return err
}

// Schedule запускает прогрев по cron-расписанию. Остановка - через Stop() у возвращенного cron.
func (w *Warmer) Schedule(ctx context.Context, spec string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if _, err := w.Run(runCtx); err != nil {
			w.logger.Error("scheduled warm-up failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid warm-up schedule %q: %w", spec, err)
	}
	c.Start()
	w.logger.Info("analytics warm-up scheduled", zap.String("schedule", spec))
	return c, nil
}
