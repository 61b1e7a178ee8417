package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

// EmployeeFilters - выпадающие фильтры директории сотрудников.
var EmployeeFilters = []string{"department", "status", "location"}

// EmployeeCSVHeader - колонки выгрузки, по одной на поле сотрудника.
var EmployeeCSVHeader = []string{"ID", "First Name", "Last Name", "Email", "Department", "Position", "Status", "Location", "Start Date"}

type EmployeeRepository interface {
	ListEmployees(ctx context.Context, tenantID string) ([]domain.Employee, error)
}

type EmployeeService struct {
	repo   EmployeeRepository
	audit  audit.Auditor
	logger *zap.Logger
}

func NewEmployeeService(repo EmployeeRepository, auditor audit.Auditor, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		repo:   repo,
		audit:  auditor,
		logger: logger.Named("employee-service"),
	}
}

func employeeQuery(p filter.Params) *filter.Query[domain.Employee] {
	return filter.New[domain.Employee](p).
		SearchIn(
			func(e domain.Employee) string { return e.FirstName },
			func(e domain.Employee) string { return e.LastName },
			func(e domain.Employee) string { return e.Email },
			func(e domain.Employee) string { return e.Position },
		).
		Field("department", func(e domain.Employee) string { return e.Department }).
		Field("status", func(e domain.Employee) string { return string(e.Status) }).
		Field("location", func(e domain.Employee) string { return e.Location }).
		Field("name", domain.Employee.FullName).
		Field("start_date", func(e domain.Employee) string { return e.StartDate.Format(domain.DateLayout) })
}

func (s *EmployeeService) List(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.Employee], error) {
	all, err := s.repo.ListEmployees(ctx, tenantID)
	if err != nil {
		return filter.Page[domain.Employee]{}, fmt.Errorf("employee_service: list: %w", err)
	}
	return employeeQuery(p).Apply(all)
}

// Filtered - все подходящие под фильтр сотрудники без пагинации.
func (s *EmployeeService) Filtered(ctx context.Context, tenantID string, p filter.Params) ([]domain.Employee, error) {
	all, err := s.repo.ListEmployees(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("employee_service: list: %w", err)
	}
	return employeeQuery(p).Filter(all)
}

// ExportCSV пишет отфильтрованный список в CSV (RFC 4180) и возвращает число строк данных.
func (s *EmployeeService) ExportCSV(ctx context.Context, tenantID string, p filter.Params, w io.Writer) (n int, err error) {
	defer func() {
		record(ctx, s.audit, audit.Event{
			TenantID:   tenantID,
			Action:     audit.ActionEmployeesExport,
			TargetType: "employee",
			Details:    map[string]any{"rows": n, "search": p.Search, "filters": p.Equals},
		}, err)
	}()

	employees, err := s.Filtered(ctx, tenantID, p)
	if err != nil {
		return 0, err
	}
	if err := WriteEmployeesCSV(w, employees); err != nil {
		return 0, err
	}

	s.logger.Info("employees exported", zap.String("tenant_id", tenantID), zap.Int("rows", len(employees)))
	return len(employees), nil
}

func WriteEmployeesCSV(w io.Writer, employees []domain.Employee) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EmployeeCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range employees {
		row := []string{
			e.ID, e.FirstName, e.LastName, e.Email, e.Department, e.Position,
			string(e.Status), e.Location, e.StartDate.Format(domain.DateLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
