package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (m *memStorage) WriteBatch(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, events)
	return m.err
}

func (m *memStorage) events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func (m *memStorage) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTrail_FlushesByBatchSize(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, infra.AuditConfig{BufferSize: 10, BatchSize: 2, FlushInterval: time.Hour}, nil, zap.NewNop())
	trail.Start()
	defer trail.Stop()

	trail.Log(Event{TenantID: "t1", Action: ActionRoleDelete, TargetID: "r1"})
	trail.Log(Event{TenantID: "t1", Action: ActionRoleDelete, TargetID: "r2"})

	require.Eventually(t, func() bool { return store.batchCount() == 1 }, time.Second, 5*time.Millisecond)
	got := store.events()
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Equal(t, StatusSuccess, got[0].Status)
}

func TestTrail_FlushesByTimer(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, infra.AuditConfig{BufferSize: 10, BatchSize: 100, FlushInterval: 10 * time.Millisecond}, nil, zap.NewNop())
	trail.Start()
	defer trail.Stop()

	trail.Log(Event{TenantID: "t1", Action: ActionRuleToggle})
	require.Eventually(t, func() bool { return len(store.events()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestTrail_StopDrainsBuffer(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, infra.AuditConfig{BufferSize: 100, BatchSize: 1000, FlushInterval: time.Hour}, nil, zap.NewNop())
	trail.Start()

	for i := 0; i < 50; i++ {
		trail.Log(Event{TenantID: "t1", Action: ActionEmployeesExport})
	}
	trail.Stop()
	assert.Len(t, store.events(), 50)

	// После остановки события отбрасываются без паники
	trail.Log(Event{TenantID: "t1", Action: ActionEmployeesExport})
	trail.Stop()
	assert.Len(t, store.events(), 50)
}

func TestTrail_OverflowIsDropped(t *testing.T) {
	store := &memStorage{}
	metrics := infra.NewMetrics(nil)
	// Воркер не запущен: буфер на 2 события заполнится
	trail := NewTrail(store, infra.AuditConfig{BufferSize: 2, BatchSize: 10, FlushInterval: time.Hour}, metrics, zap.NewNop())

	for i := 0; i < 5; i++ {
		trail.Log(Event{TenantID: "t1", Action: ActionAnalyticsExport})
	}
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.AuditDropped))

	trail.Start()
	trail.Stop()
	assert.Len(t, store.events(), 2)
}

func TestTrail_StorageErrorDoesNotStopWorker(t *testing.T) {
	store := &memStorage{err: errors.New("db down")}
	trail := NewTrail(store, infra.AuditConfig{BufferSize: 10, BatchSize: 1, FlushInterval: time.Hour}, nil, zap.NewNop())
	trail.Start()

	trail.Log(Event{Action: ActionTenantCreate})
	trail.Log(Event{Action: ActionTenantCreate})
	trail.Stop()

	assert.Equal(t, 2, store.batchCount())
}
