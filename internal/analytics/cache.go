package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
)

// SnapshotCache хранит готовые снапшоты по отпечатку запроса.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (domain.AnalyticsSnapshot, bool)
	Set(ctx context.Context, key string, snap domain.AnalyticsSnapshot)
}

// Fingerprint - ключ кэша: тенант, окно, grain и набор включенных фич.
// Смена флагов дает другой ключ, поэтому инвалидировать ничего не надо.
func Fingerprint(tenantID string, r domain.DateRange, g domain.Grain, f domain.Features) string {
	return fmt.Sprintf("%s|%s|%s|c%t|a%t", tenantID, r.String(), g, f.Copilot, f.Audit)
}

// TieredCache: L1 - in-process LRU с TTL, L2 - Redis (общий для инстансов).
type TieredCache struct {
	l1      *expirable.LRU[string, domain.AnalyticsSnapshot]
	rdb     *redis.Client // nil - только L1
	ttl     time.Duration
	metrics *infra.Metrics
	logger  *zap.Logger
}

func NewTieredCache(rdb *redis.Client, size int, ttl time.Duration, metrics *infra.Metrics, logger *zap.Logger) *TieredCache {
	if size <= 0 {
		size = 128
	}
	return &TieredCache{
		l1:      expirable.NewLRU[string, domain.AnalyticsSnapshot](size, nil, ttl),
		rdb:     rdb,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.Named("analytics-cache"),
	}
}

func (c *TieredCache) Get(ctx context.Context, key string) (domain.AnalyticsSnapshot, bool) {
	if snap, ok := c.l1.Get(key); ok {
		c.observe("l1", "hit")
		return snap, true
	}
	c.observe("l1", "miss")

	if c.rdb == nil {
		return domain.AnalyticsSnapshot{}, false
	}

	raw, err := c.rdb.Get(ctx, infra.AnalyticsSnapshotKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Redis лежит - считаем промахом, дашборд досчитает из источников
			c.logger.Warn("L2 lookup failed", zap.String("key", key), zap.Error(err))
		}
		c.observe("l2", "miss")
		return domain.AnalyticsSnapshot{}, false
	}

	var snap domain.AnalyticsSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.logger.Warn("corrupted snapshot in L2", zap.String("key", key), zap.Error(err))
		c.observe("l2", "miss")
		return domain.AnalyticsSnapshot{}, false
	}
	c.observe("l2", "hit")
	c.l1.Add(key, snap)
	return snap, true
}

func (c *TieredCache) Set(ctx context.Context, key string, snap domain.AnalyticsSnapshot) {
	c.l1.Add(key, snap)
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		c.logger.Error("failed to encode snapshot", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, infra.AnalyticsSnapshotKey(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("L2 store failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *TieredCache) observe(level, result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(level, result).Inc()
	}
}
