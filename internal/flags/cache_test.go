package flags

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/domain"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu      sync.Mutex
	tenants map[string]domain.Tenant
	gets    int
}

func newFakeStore(tenants ...domain.Tenant) *fakeStore {
	s := &fakeStore{tenants: make(map[string]domain.Tenant)}
	for _, t := range tenants {
		s.tenants[t.ID] = t
	}
	return s
}

func (s *fakeStore) ListTenants(context.Context) ([]domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) GetTenant(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	t, ok := s.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func TestCache_SyncAndGet(t *testing.T) {
	store := newFakeStore(domain.Tenant{ID: "t1", Features: domain.Features{Analytics: true}})
	c := NewCache(store, nil, zap.NewNop())
	require.NoError(t, c.Sync(context.Background()))

	tenant, err := c.Tenant(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, tenant.Features.Analytics)
	assert.Zero(t, store.gets)

	_, err = c.Tenant(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_MissFallsBackToStore(t *testing.T) {
	store := newFakeStore(domain.Tenant{ID: "t2"})
	c := NewCache(store, nil, zap.NewNop())

	_, err := c.Tenant(context.Background(), "t2")
	require.NoError(t, err)
	_, err = c.Tenant(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets)
}

func TestCache_Apply(t *testing.T) {
	c := NewCache(newFakeStore(), nil, zap.NewNop())
	c.Put(domain.Tenant{ID: "t1"})

	require.NoError(t, c.Apply("t1:copilot=on"))
	tenant, _ := c.Tenant(context.Background(), "t1")
	assert.True(t, tenant.Features.Copilot)

	require.NoError(t, c.Apply("t1:copilot=off"))
	tenant, _ = c.Tenant(context.Background(), "t1")
	assert.False(t, tenant.Features.Copilot)

	// Неизвестный тенант - не ошибка
	assert.NoError(t, c.Apply("ghost:audit=on"))

	for _, bad := range []string{"", "t1", "t1:copilot", "t1:copilot=maybe", "t1:payroll=on", ":audit=on"} {
		assert.ErrorIs(t, c.Apply(bad), domain.ErrValidation, bad)
	}
}

func TestCache_ListenAppliesPublishedSignals(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := newFakeStore(domain.Tenant{ID: "t1", Features: domain.Features{Analytics: true}})
	c := NewCache(store, rdb, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Listen(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Listen синхронизирует кэш сразу после подписки
	require.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		_, ok := c.tenants["t1"]
		return ok
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Publish(context.Background(), "t1", domain.FeatureExport, true))
	require.Eventually(t, func() bool {
		tenant, err := c.Tenant(context.Background(), "t1")
		return err == nil && tenant.Features.Export
	}, time.Second, 10*time.Millisecond)
}

func TestCache_PublishWithoutRedisAppliesLocally(t *testing.T) {
	c := NewCache(newFakeStore(), nil, zap.NewNop())
	c.Put(domain.Tenant{ID: "t1"})

	require.NoError(t, c.Publish(context.Background(), "t1", domain.FeatureAudit, true))
	tenant, _ := c.Tenant(context.Background(), "t1")
	assert.True(t, tenant.Features.Audit)
}
