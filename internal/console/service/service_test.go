package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/flags"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
	"github.com/xela07ax/workforce-console/internal/repository/memory"
	"go.uber.org/zap"
)

const acme = "tnt-acme"

// recAuditor запоминает события синхронно, без воркера.
type recAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recAuditor) Log(e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recAuditor) last(t *testing.T) audit.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events, "no audit events recorded")
	return r.events[len(r.events)-1]
}

func (r *recAuditor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	return store
}

func newFlags(store *memory.Store) *flags.Cache {
	return flags.NewCache(store, nil, zap.NewNop())
}

// asAdmin - контекст запроса от администратора acme.
func asAdmin() context.Context {
	return auth.WithClaims(context.Background(), &domain.CustomClaims{UserID: "usr-acme-admin", TenantID: acme})
}
