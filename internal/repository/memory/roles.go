package memory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
)

func roleQuery(f domain.RoleFilter) *filter.Query[domain.Role] {
	p := filter.Params{Search: f.Search, Equals: map[string]string{}, Sort: "name", Page: f.Page, Limit: f.Limit}
	if f.Scope != "" && f.Scope != filter.Any {
		p.Equals["scope"] = f.Scope
	}
	if f.IsActive != nil {
		p.Equals["is_active"] = strconv.FormatBool(*f.IsActive)
	}
	return filter.New[domain.Role](p).
		SearchIn(
			func(r domain.Role) string { return r.Name },
			func(r domain.Role) string { return r.Description },
		).
		Field("name", func(r domain.Role) string { return r.Name }).
		Field("scope", func(r domain.Role) string { return string(r.Scope) }).
		Field("is_active", func(r domain.Role) string { return strconv.FormatBool(r.IsActive) })
}

// ListRoles возвращает страницу ролей тенанта и общее количество подходящих.
func (s *Store) ListRoles(_ context.Context, tenantID string, f domain.RoleFilter) ([]domain.Role, int, error) {
	s.mu.RLock()
	own := s.tenantRoles(tenantID)
	s.mu.RUnlock()

	page, err := roleQuery(f).Apply(own)
	if err != nil {
		return nil, 0, err
	}
	return page.Data, page.Pagination.Total, nil
}

func (s *Store) AllRoles(_ context.Context, tenantID string) ([]domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenantRoles(tenantID), nil
}

func (s *Store) GetRole(_ context.Context, tenantID, id string) (*domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.ID == id && r.TenantID == tenantID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", id, domain.ErrNotFound)
}

func (s *Store) DeleteRole(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.roles {
		if r.ID == id && r.TenantID == tenantID {
			s.roles = append(s.roles[:i], s.roles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("role %s: %w", id, domain.ErrNotFound)
}

// tenantRoles - копия ролей тенанта. Вызывать под s.mu.
func (s *Store) tenantRoles(tenantID string) []domain.Role {
	out := make([]domain.Role, 0)
	for _, r := range s.roles {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out
}
