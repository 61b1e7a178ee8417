package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"github.com/xela07ax/workforce-console/internal/infra"
	"github.com/xela07ax/workforce-console/internal/repository/memory"
	"go.uber.org/zap"
)

func statuses(t *testing.T, svc *AutomationService, tenantID string) map[string]domain.Status {
	t.Helper()
	page, err := svc.Rules(context.Background(), tenantID, filter.Params{Limit: 100})
	require.NoError(t, err)
	out := make(map[string]domain.Status, len(page.Data))
	for _, r := range page.Data {
		out[r.ID] = r.Status
	}
	return out
}

func TestToggle_FlipsOnlyTargetRule(t *testing.T) {
	store := newStore(t)
	rec := &recAuditor{}
	svc := NewAutomationService(store, nil, rec, zap.NewNop())
	ctx := asAdmin()

	before := statuses(t, svc, acme)

	rule, err := svc.Toggle(ctx, acme, "rule-01")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, rule.Status)

	after := statuses(t, svc, acme)
	for id, st := range before {
		if id == "rule-01" {
			assert.Equal(t, domain.StatusPaused, after[id])
			continue
		}
		assert.Equal(t, st, after[id], "rule %s must not change", id)
	}

	rule, err = svc.Toggle(ctx, acme, "rule-01")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, rule.Status)

	ev := rec.last(t)
	assert.Equal(t, audit.ActionRuleToggle, ev.Action)
	assert.Equal(t, "active", ev.Details["status"])
	assert.Equal(t, 2, rec.count())
}

func TestToggle_DraftRejected(t *testing.T) {
	svc := NewAutomationService(newStore(t), nil, nil, zap.NewNop())

	_, err := svc.Toggle(context.Background(), acme, "rule-03")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Toggle(context.Background(), acme, "rule-05")
	assert.ErrorIs(t, err, domain.ErrNotFound, "rule of another tenant")
}

func TestToggle_PublishesSignal(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sub := rdb.Subscribe(context.Background(), infra.RedisChanAutomationRule)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	svc := NewAutomationService(newStore(t), rdb, nil, zap.NewNop())
	_, err = svc.Toggle(context.Background(), acme, "rule-02")
	require.NoError(t, err)

	msg, err := sub.ReceiveMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tnt-acme:rule-02=active", msg.Payload)
}

// lockstepRules задерживает каждое чтение правила, пока его не сделают все участники,
// так что оба Toggle видят один и тот же исходный статус.
type lockstepRules struct {
	*memory.Store
	reads sync.WaitGroup
}

func (l *lockstepRules) GetRule(ctx context.Context, tenantID, id string) (*domain.AutomationRule, error) {
	rule, err := l.Store.GetRule(ctx, tenantID, id)
	l.reads.Done()
	l.reads.Wait()
	return rule, err
}

func TestToggle_ConcurrentCallsDoNotBothApply(t *testing.T) {
	repo := &lockstepRules{Store: newStore(t)}
	repo.reads.Add(2)
	svc := NewAutomationService(repo, nil, &recAuditor{}, zap.NewNop())
	ctx := asAdmin()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Toggle(ctx, acme, "rule-01")
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	rule, err := repo.Store.GetRule(context.Background(), acme, "rule-01")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, rule.Status)
}
