package service

import (
	"context"
	"fmt"

	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"github.com/xela07ax/workforce-console/internal/risk"
	"go.uber.org/zap"
)

// RoleRepository - хранилище ролей. Фильтрация и пагинация списка выполняются на его стороне.
type RoleRepository interface {
	ListRoles(ctx context.Context, tenantID string, f domain.RoleFilter) ([]domain.Role, int, error)
	AllRoles(ctx context.Context, tenantID string) ([]domain.Role, error)
	GetRole(ctx context.Context, tenantID, id string) (*domain.Role, error)
	DeleteRole(ctx context.Context, tenantID, id string) error
}

type RoleService struct {
	repo     RoleRepository
	analyzer *risk.Analyzer
	audit    audit.Auditor
	logger   *zap.Logger
}

func NewRoleService(repo RoleRepository, analyzer *risk.Analyzer, auditor audit.Auditor, logger *zap.Logger) *RoleService {
	return &RoleService{
		repo:     repo,
		analyzer: analyzer,
		audit:    auditor,
		logger:   logger.Named("role-service"),
	}
}

func (s *RoleService) List(ctx context.Context, tenantID string, f domain.RoleFilter) (filter.Page[domain.Role], error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = filter.DefaultLimit
	}
	f.Limit = min(f.Limit, filter.MaxLimit)

	roles, total, err := s.repo.ListRoles(ctx, tenantID, f)
	if err != nil {
		return filter.Page[domain.Role]{}, fmt.Errorf("role_service: list: %w", err)
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	for i := range roles {
		s.withInsight(&roles[i])
	}
	return filter.Page[domain.Role]{
		Data:       roles,
		Pagination: filter.NewPagination(f.Page, f.Limit, total),
	}, nil
}

// Stats - карточки над таблицей ролей.
func (s *RoleService) Stats(ctx context.Context, tenantID string) (*domain.RoleStats, error) {
	roles, err := s.repo.AllRoles(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("role_service: stats: %w", err)
	}

	stats := &domain.RoleStats{TotalRoles: len(roles)}
	for _, r := range roles {
		if r.IsActive {
			stats.ActiveRoles++
		}
		if !r.IsBuiltIn {
			stats.CustomRoles++
		}
		stats.AssignedUsers += r.UserCount
	}
	stats.AIInsight, stats.HighRiskRoles = s.analyzer.Overview(roles)
	return stats, nil
}

func (s *RoleService) Get(ctx context.Context, tenantID, id string) (*domain.Role, error) {
	role, err := s.repo.GetRole(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.withInsight(role)
	return role, nil
}

// Delete удаляет кастомную роль без назначенных пользователей.
// Встроенные и назначенные роли - domain.ErrConflict.
func (s *RoleService) Delete(ctx context.Context, tenantID, id string) (err error) {
	defer func() {
		record(ctx, s.audit, audit.Event{
			TenantID:   tenantID,
			Action:     audit.ActionRoleDelete,
			TargetType: "role",
			TargetID:   id,
		}, err)
	}()

	role, err := s.repo.GetRole(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if role.IsBuiltIn {
		return fmt.Errorf("role %q is built-in: %w", role.Name, domain.ErrConflict)
	}
	if role.UserCount > 0 {
		return fmt.Errorf("role %q is assigned to %d users: %w", role.Name, role.UserCount, domain.ErrConflict)
	}

	if err := s.repo.DeleteRole(ctx, tenantID, id); err != nil {
		s.logger.Error("failed to delete role",
			zap.String("tenant_id", tenantID),
			zap.String("role_id", id),
			zap.Error(err))
		return err
	}

	s.logger.Info("role deleted", zap.String("tenant_id", tenantID), zap.String("role_id", id))
	return nil
}

func (s *RoleService) withInsight(r *domain.Role) {
	if r.AIInsight == nil {
		in := s.analyzer.Assess(*r)
		r.AIInsight = &in
	}
}
