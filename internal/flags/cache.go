// Package flags держит в памяти тенантов вместе с их фич-флагами.
// Каждый запрос к консоли читает флаги отсюда, а не из БД.
package flags

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
)

// TenantStore - источник истины для флагов.
type TenantStore interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)
}

type Cache struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant
	store   TenantStore
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewCache(store TenantStore, rdb *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{
		tenants: make(map[string]domain.Tenant),
		store:   store,
		rdb:     rdb,
		logger:  logger.Named("flags"),
	}
}

// Sync загружает текущее состояние из хранилища целиком.
func (c *Cache) Sync(ctx context.Context) error {
	list, err := c.store.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("sync feature flags: %w", err)
	}
	fresh := make(map[string]domain.Tenant, len(list))
	for _, t := range list {
		fresh[t.ID] = t
	}

	c.mu.Lock()
	c.tenants = fresh
	c.mu.Unlock()

	c.logger.Info("feature flags synced", zap.Int("tenants", len(fresh)))
	return nil
}

// Tenant отдает тенанта из кэша, при промахе идет в хранилище.
func (c *Cache) Tenant(ctx context.Context, id string) (domain.Tenant, error) {
	c.mu.RLock()
	t, ok := c.tenants[id]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	stored, err := c.store.GetTenant(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}
	c.Put(*stored)
	return *stored, nil
}

// Put кладет (или заменяет) тенанта, например сразу после создания.
func (c *Cache) Put(t domain.Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants[t.ID] = t
}

// Apply применяет сигнал вида "tenant_id:feature=on|off".
// Сигнал для тенанта, которого нет в кэше, игнорируется: при первом обращении он загрузится из БД.
func (c *Cache) Apply(payload string) error {
	tenantID, rest, ok := strings.Cut(payload, ":")
	if !ok || tenantID == "" {
		return fmt.Errorf("%w: malformed feature signal %q", domain.ErrValidation, payload)
	}
	feature, state, ok := strings.Cut(rest, "=")
	if !ok {
		return fmt.Errorf("%w: malformed feature signal %q", domain.ErrValidation, payload)
	}
	var on bool
	switch state {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("%w: unknown feature state %q", domain.ErrValidation, state)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	t, exists := c.tenants[tenantID]
	if !exists {
		return nil
	}
	if err := t.Features.Set(feature, on); err != nil {
		return err
	}
	c.tenants[tenantID] = t
	return nil
}

// Publish рассылает смену флага остальным инстансам (и себе тоже).
func (c *Cache) Publish(ctx context.Context, tenantID, feature string, on bool) error {
	if c.rdb == nil {
		return c.Apply(infra.FeatureSignal(tenantID, feature, on))
	}
	return c.rdb.Publish(ctx, infra.RedisChanFeatureFlags, infra.FeatureSignal(tenantID, feature, on)).Err()
}

// Listen держит подписку на сигналы флагов до отмены ctx.
// После каждого переподключения кэш пересинхронизируется: сигналы за время обрыва потеряны.
func (c *Cache) Listen(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	c.logger.Info("feature flag listener started")
	infra.ListenResilient(ctx, c.rdb, c.logger, infra.RedisChanFeatureFlags, c.Sync, func(payload string) {
		if err := c.Apply(payload); err != nil {
			c.logger.Warn("bad feature signal", zap.String("payload", payload), zap.Error(err))
			return
		}
		c.logger.Debug("feature signal applied", zap.String("payload", payload))
	})
}
