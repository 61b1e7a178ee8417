package audit

/*
Trail - асинхронный журнал действий администраторов консоли.

- Log не блокирует запрос: событие кладется в буферизированный канал,
  при переполнении отбрасывается (load shedding) и считается в метрике.
- Воркер копит события и пишет пачкой по размеру батча или по таймеру.
- Stop закрывает вход и дожидается финального сброса (drain).
*/

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/workforce-console/internal/infra"
	"go.uber.org/zap"
)

// Storage определяет, куда физически сохраняются события
type Storage interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []Event) error
}

// Auditor - то, что нужно сервисам.
type Auditor interface {
	Log(event Event)
}

type Trail struct {
	ch            chan Event
	repo          Storage
	batchSize     int
	flushInterval time.Duration
	metrics       *infra.Metrics
	logger        *zap.Logger
	wg            sync.WaitGroup

	mu       sync.RWMutex // защищает закрытие канала от параллельного Log
	closed   bool
	stopOnce sync.Once
}

func NewTrail(repo Storage, cfg infra.AuditConfig, metrics *infra.Metrics, logger *zap.Logger) *Trail {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	return &Trail{
		ch:            make(chan Event, cfg.BufferSize),
		repo:          repo,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		metrics:       metrics,
		logger:        logger.Named("audit"),
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop запирает вход в канал и ждет, пока воркер всё допишет. Повторный вызов ничего не делает.
func (t *Trail) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.ch)
		t.mu.Unlock()

		t.logger.Info("stopping audit trail: flushing buffer...")
		t.wg.Wait()
		t.logger.Info("audit trail stopped gracefully")
	})
}

func (t *Trail) Log(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Status == "" {
		event.Status = StatusSuccess
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.metrics.AuditDropped.Inc()
		t.logger.Warn("audit event dropped: trail is stopping", zap.String("id", event.ID))
		return
	}

	select {
	case t.ch <- event:
		t.metrics.AuditBufferFill.Set(float64(len(t.ch)))
	default:
		// Backpressure: запрос важнее журнала, но след оставляем в логах
		t.metrics.AuditDropped.Inc()
		t.logger.Error("audit_buffer_overflow",
			zap.String("tenant_id", event.TenantID),
			zap.String("action", event.Action),
			zap.String("target_id", event.TargetID),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, t.batchSize)
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: контекст запроса, породившего событие, давно закрыт
		if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
			t.logger.Error("audit flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = make([]Event, 0, t.batchSize)
		t.metrics.AuditBufferFill.Set(float64(len(t.ch)))
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop: все, что было в очереди, уже вычитано
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= t.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Nop - журнал-заглушка для CLI-команд, которым аудит не нужен.
type Nop struct{}

func (Nop) Log(Event) {}
