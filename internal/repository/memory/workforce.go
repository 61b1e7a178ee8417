package memory

import (
	"context"
	"fmt"

	"github.com/xela07ax/workforce-console/internal/domain"
)

// byTenant - копия записей тенанта.
func byTenant[T any](items []T, tenantID string, tenantOf func(T) string) []T {
	out := make([]T, 0)
	for _, it := range items {
		if tenantOf(it) == tenantID {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) ListEmployees(_ context.Context, tenantID string) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byTenant(s.employees, tenantID, func(e domain.Employee) string { return e.TenantID }), nil
}

// --- Автоматизация ---

func (s *Store) ListRules(_ context.Context, tenantID string) ([]domain.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byTenant(s.rules, tenantID, func(r domain.AutomationRule) string { return r.TenantID }), nil
}

func (s *Store) GetRule(_ context.Context, tenantID, id string) (*domain.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.ID == id && r.TenantID == tenantID {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("automation rule %s: %w", id, domain.ErrNotFound)
}

// UpdateRuleStatus - compare-and-set под s.mu: статус меняется, только если он все еще from.
func (s *Store) UpdateRuleStatus(_ context.Context, tenantID, id string, from, to domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id && s.rules[i].TenantID == tenantID {
			if s.rules[i].Status != from {
				return fmt.Errorf("automation rule %s is no longer %s: %w", id, from, domain.ErrConflict)
			}
			s.rules[i].Status = to
			s.rules[i].UpdatedAt = s.now().UTC()
			return nil
		}
	}
	return fmt.Errorf("automation rule %s: %w", id, domain.ErrNotFound)
}

// --- Staffing, рекрутинг, обучение ---

func (s *Store) ListUtilization(_ context.Context, tenantID string) ([]domain.UtilizationData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byTenant(s.utilization, tenantID, func(u domain.UtilizationData) string { return u.TenantID }), nil
}

func (s *Store) ListCandidates(_ context.Context, tenantID string) ([]domain.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byTenant(s.candidates, tenantID, func(c domain.Candidate) string { return c.TenantID }), nil
}

func (s *Store) ListCourses(_ context.Context, tenantID string) ([]domain.TrainingCourse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byTenant(s.courses, tenantID, func(c domain.TrainingCourse) string { return c.TenantID }), nil
}

func (s *Store) ListEmployeeTraining(_ context.Context, tenantID string) ([]domain.EmployeeTraining, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byTenant(s.training, tenantID, func(t domain.EmployeeTraining) string { return t.TenantID }), nil
}

func (s *Store) ListSessions(_ context.Context, tenantID string) ([]domain.TrainingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return byTenant(s.sessions, tenantID, func(t domain.TrainingSession) string { return t.TenantID }), nil
}

// EnrollSession занимает одно место. Проверка и инкремент - под одной блокировкой.
func (s *Store) EnrollSession(_ context.Context, tenantID, id string) (*domain.TrainingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		sess := &s.sessions[i]
		if sess.ID != id || sess.TenantID != tenantID {
			continue
		}
		if sess.Status != domain.StatusScheduled {
			return nil, fmt.Errorf("session %s is %s: %w", id, sess.Status, domain.ErrInvalidTransition)
		}
		if sess.Full() {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionFull)
		}
		sess.CurrentParticipants++
		out := *sess
		return &out, nil
	}
	return nil, fmt.Errorf("training session %s: %w", id, domain.ErrNotFound)
}

// --- Payroll ---

// ListPayrollRuns отдает прогоны без построчной детализации.
func (s *Store) ListPayrollRuns(_ context.Context, tenantID string) ([]domain.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := byTenant(s.payroll, tenantID, func(r domain.PayrollRun) string { return r.TenantID })
	for i := range runs {
		runs[i].EmployeeLines = nil
	}
	return runs, nil
}

func (s *Store) GetPayrollRun(_ context.Context, tenantID, id string) (*domain.PayrollRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.payroll {
		if r.ID == id && r.TenantID == tenantID {
			lines := make([]domain.EmployeePay, len(r.EmployeeLines))
			copy(lines, r.EmployeeLines)
			r.EmployeeLines = lines
			return &r, nil
		}
	}
	return nil, fmt.Errorf("payroll run %s: %w", id, domain.ErrNotFound)
}

func (s *Store) GetForecasts(_ context.Context, tenantID string) (*domain.Forecasts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forecasts[tenantID]
	if !ok {
		return &domain.Forecasts{
			Workforce:   []domain.ForecastData{},
			SkillDemand: []domain.SkillDemandForecast{},
			Resources:   []domain.ResourceForecast{},
		}, nil
	}
	return &f, nil
}
