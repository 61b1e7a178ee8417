package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
)

type staticTenants []domain.Tenant

func (s staticTenants) ListTenants(context.Context) ([]domain.Tenant, error) { return s, nil }

type failingTenants struct{}

func (failingTenants) ListTenants(context.Context) ([]domain.Tenant, error) {
	return nil, errors.New("db down")
}

func TestWarmer_Run(t *testing.T) {
	cache := newMapCache()
	agg := newTestAggregator(&fakeSource{}, cache)
	agg.now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }

	tenants := staticTenants{
		{ID: "t1", Features: domain.Features{Analytics: true}},
		{ID: "t2", Features: domain.Features{Analytics: false}},
		{ID: "t3", Features: allFeatures()},
	}
	w := NewWarmer(agg, tenants, nil, zap.NewNop())

	n, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, cache.sets)

	// Дашборд с окном по умолчанию попадает в прогретый кэш
	r, err := domain.ParseDateRange("", "", agg.now())
	require.NoError(t, err)
	snap, err := agg.Compose(context.Background(), Request{TenantID: "t1", Features: tenants[0].Features, Range: r})
	require.NoError(t, err)
	assert.True(t, snap.Cached)
}

func TestWarmer_LockHeldByAnotherInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	require.NoError(t, mr.Set(infra.RedisKeyLockWarmup, "processing"))

	cache := newMapCache()
	w := NewWarmer(newTestAggregator(&fakeSource{}, cache), staticTenants{{ID: "t1", Features: allFeatures()}}, rdb, zap.NewNop())

	n, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, cache.sets)
}

func TestWarmer_ReleasesLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	w := NewWarmer(newTestAggregator(&fakeSource{}, newMapCache()), staticTenants{{ID: "t1", Features: allFeatures()}}, rdb, zap.NewNop())
	n, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists(infra.RedisKeyLockWarmup))
}

func TestWarmer_ListError(t *testing.T) {
	w := NewWarmer(newTestAggregator(&fakeSource{}, nil), failingTenants{}, nil, zap.NewNop())
	_, err := w.Run(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestWarmer_InvalidSchedule(t *testing.T) {
	w := NewWarmer(newTestAggregator(&fakeSource{}, nil), staticTenants{}, nil, zap.NewNop())
	_, err := w.Schedule(context.Background(), "not a cron", time.Second)
	assert.Error(t, err)
}
