package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/risk"
	"go.uber.org/zap"
)

func newRoleService(t *testing.T) (*RoleService, *recAuditor) {
	rec := &recAuditor{}
	return NewRoleService(newStore(t), risk.NewAnalyzer(zap.NewNop()), rec, zap.NewNop()), rec
}

func TestRoleList_SecondPage(t *testing.T) {
	svc, _ := newRoleService(t)

	page, err := svc.List(context.Background(), acme, domain.RoleFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, 25, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.Pages)
	assert.Equal(t, "Showing 11 to 20 of 25 roles", page.Pagination.Summary("roles"))

	for _, r := range page.Data {
		assert.NotNil(t, r.AIInsight, "role %s must carry an insight", r.ID)
	}
}

func TestRoleList_NormalizesPaging(t *testing.T) {
	svc, _ := newRoleService(t)

	page, err := svc.List(context.Background(), acme, domain.RoleFilter{Page: -3, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 100, page.Pagination.Limit)
	assert.Len(t, page.Data, 25)

	empty, err := svc.List(context.Background(), "tnt-initech", domain.RoleFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, "Showing 0 to 0 of 0 roles", empty.Pagination.Summary("roles"))
}

func TestRoleStats(t *testing.T) {
	svc, _ := newRoleService(t)

	stats, err := svc.Stats(context.Background(), acme)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.TotalRoles)
	assert.Equal(t, 22, stats.ActiveRoles)
	assert.Equal(t, 21, stats.CustomRoles)
	assert.Positive(t, stats.AssignedUsers)
	assert.GreaterOrEqual(t, stats.HighRiskRoles, 1, "role-04 has a stored high-risk insight")
	require.NotNil(t, stats.AIInsight)
}

func TestRoleGet_KeepsStoredInsight(t *testing.T) {
	svc, _ := newRoleService(t)

	role, err := svc.Get(context.Background(), acme, "role-04")
	require.NoError(t, err)
	require.NotNil(t, role.AIInsight)
	assert.Equal(t, 72, role.AIInsight.RiskScore)

	_, err = svc.Get(context.Background(), acme, "role-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoleDelete(t *testing.T) {
	svc, rec := newRoleService(t)
	ctx := asAdmin()

	err := svc.Delete(ctx, acme, "role-01")
	assert.ErrorIs(t, err, domain.ErrConflict, "built-in role")
	assert.Equal(t, audit.StatusFailed, rec.last(t).Status)

	err = svc.Delete(ctx, acme, "role-05")
	assert.ErrorIs(t, err, domain.ErrConflict, "role with assigned users")

	err = svc.Delete(ctx, acme, "role-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, acme, "role-17"))
	ev := rec.last(t)
	assert.Equal(t, audit.ActionRoleDelete, ev.Action)
	assert.Equal(t, "role-17", ev.TargetID)
	assert.Equal(t, "usr-acme-admin", ev.ActorID)
	assert.Equal(t, audit.StatusSuccess, ev.Status)

	_, err = svc.Get(ctx, acme, "role-17")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
