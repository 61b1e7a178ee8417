// Package memory - хранилище на встроенных демо-данных (storage.driver=fixtures).
// Реализует те же интерфейсы, что и postgres, и используется в тестах сервисов.
package memory

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type fixtureUser struct {
	domain.User `yaml:",inline"`
	Password    string `yaml:"password"`
}

type fixtures struct {
	Tenants          []domain.Tenant             `yaml:"tenants"`
	Users            []fixtureUser               `yaml:"users"`
	Roles            []domain.Role               `yaml:"roles"`
	Employees        []domain.Employee           `yaml:"employees"`
	AutomationRules  []domain.AutomationRule     `yaml:"automation_rules"`
	Utilization      []domain.UtilizationData    `yaml:"utilization"`
	Candidates       []domain.Candidate          `yaml:"candidates"`
	Courses          []domain.TrainingCourse     `yaml:"courses"`
	EmployeeTraining []domain.EmployeeTraining   `yaml:"employee_training"`
	Sessions         []domain.TrainingSession    `yaml:"sessions"`
	PayrollRuns      []domain.PayrollRun         `yaml:"payroll_runs"`
	Forecasts        map[string]domain.Forecasts `yaml:"forecasts"`
}

// Store - потокобезопасное in-memory хранилище. Наружу отдаются только копии.
type Store struct {
	mu sync.RWMutex

	tenants        []domain.Tenant
	accessRequests []domain.AccessRequest
	users          []domain.User
	roles          []domain.Role
	employees      []domain.Employee
	rules          []domain.AutomationRule
	utilization    []domain.UtilizationData
	candidates     []domain.Candidate
	courses        []domain.TrainingCourse
	training       []domain.EmployeeTraining
	sessions       []domain.TrainingSession
	payroll        []domain.PayrollRun
	forecasts      map[string]domain.Forecasts
	auditEvents    []audit.Event

	now func() time.Time
}

// New загружает встроенные демо-данные.
func New() (*Store, error) {
	return Load(fixturesYAML)
}

// Load разбирает YAML с фикстурами. Пароли пользователей хэшируются bcrypt.
func Load(data []byte) (*Store, error) {
	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("memory: parse fixtures: %w", err)
	}

	s := &Store{
		tenants:     f.Tenants,
		roles:       f.Roles,
		employees:   f.Employees,
		rules:       f.AutomationRules,
		utilization: f.Utilization,
		candidates:  f.Candidates,
		courses:     f.Courses,
		training:    f.EmployeeTraining,
		sessions:    f.Sessions,
		payroll:     f.PayrollRuns,
		forecasts:   f.Forecasts,
		now:         time.Now,
	}
	if s.forecasts == nil {
		s.forecasts = make(map[string]domain.Forecasts)
	}

	for _, u := range f.Users {
		user := u.User
		if u.Password != "" {
			// MinCost: демо-режим, пароли и так лежат в открытом виде в фикстурах
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
			if err != nil {
				return nil, fmt.Errorf("memory: hash password for %s: %w", u.Username, err)
			}
			user.PasswordHash = string(hash)
		}
		s.users = append(s.users, user)
	}
	return s, nil
}

// Ping - хранилище в памяти всегда доступно.
func (s *Store) Ping(context.Context) error { return nil }

// --- Тенанты ---

func (s *Store) ListTenants(_ context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tenant, len(s.tenants))
	copy(out, s.tenants)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetTenant(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
}

func (s *Store) GetTenantBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("tenant %q: %w", slug, domain.ErrNotFound)
}

func (s *Store) CreateTenant(_ context.Context, t *domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tenants {
		if existing.Slug == t.Slug || existing.ID == t.ID {
			return fmt.Errorf("tenant slug %q: %w", t.Slug, domain.ErrConflict)
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	s.tenants = append(s.tenants, *t)
	return nil
}

// SetFeature меняет один флаг под s.mu и возвращает итоговый набор флагов.
func (s *Store) SetFeature(_ context.Context, id, feature string, on bool) (domain.Features, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tenants {
		if s.tenants[i].ID == id {
			if err := s.tenants[i].Features.Set(feature, on); err != nil {
				return domain.Features{}, err
			}
			return s.tenants[i].Features, nil
		}
	}
	return domain.Features{}, fmt.Errorf("tenant %s: %w", id, domain.ErrNotFound)
}

func (s *Store) CreateAccessRequest(_ context.Context, r *domain.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accessRequests {
		if existing.TenantID == r.TenantID && existing.Email == r.Email && existing.Status == domain.StatusPending {
			return fmt.Errorf("access request for %s: %w", r.Email, domain.ErrConflict)
		}
	}
	s.accessRequests = append(s.accessRequests, *r)
	return nil
}

// AccessRequests - заявки тенанта, для тестов и демо.
func (s *Store) AccessRequests(tenantID string) []domain.AccessRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AccessRequest
	for _, r := range s.accessRequests {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out
}

// --- Пользователи ---

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username || u.Email == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

// --- Аудит ---

func (s *Store) WriteBatch(_ context.Context, events []audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditEvents = append(s.auditEvents, events...)
	return nil
}

// AuditEvents - записанные события, для тестов.
func (s *Store) AuditEvents() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.auditEvents))
	copy(out, s.auditEvents)
	return out
}
