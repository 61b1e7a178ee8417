package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xela07ax/workforce-console/internal/domain"
)

// queryList - общий цикл SELECT -> []T.
func queryList[T any](ctx context.Context, db *sql.DB, what, query string, scan func(rowScanner) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list %s: %w", what, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", what, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *Repo) ListEmployees(ctx context.Context, tenantID string) ([]domain.Employee, error) {
	query := `
		SELECT id, tenant_id, first_name, last_name, email, department, position, status, location, start_date
		FROM employees WHERE tenant_id = $1 ORDER BY last_name, first_name`

	return queryList(ctx, r.db, "employees", query, func(row rowScanner) (domain.Employee, error) {
		var e domain.Employee
		err := row.Scan(&e.ID, &e.TenantID, &e.FirstName, &e.LastName, &e.Email, &e.Department, &e.Position, &e.Status, &e.Location, &e.StartDate)
		return e, err
	}, tenantID)
}

func (r *Repo) ListUtilization(ctx context.Context, tenantID string) ([]domain.UtilizationData, error) {
	query := `
		SELECT id, tenant_id, employee_name, role, department, project, billable_hours, total_hours, utilization, status
		FROM utilization WHERE tenant_id = $1 ORDER BY employee_name`

	return queryList(ctx, r.db, "utilization", query, func(row rowScanner) (domain.UtilizationData, error) {
		var u domain.UtilizationData
		err := row.Scan(&u.ID, &u.TenantID, &u.EmployeeName, &u.Role, &u.Department, &u.Project, &u.BillableHours, &u.TotalHours, &u.Utilization, &u.Status)
		return u, err
	}, tenantID)
}

func (r *Repo) ListCandidates(ctx context.Context, tenantID string) ([]domain.Candidate, error) {
	query := `
		SELECT id, tenant_id, name, email, position, source, skills, match_score, status, applied_at
		FROM candidates WHERE tenant_id = $1 ORDER BY applied_at DESC`

	return queryList(ctx, r.db, "candidates", query, func(row rowScanner) (domain.Candidate, error) {
		var (
			c      domain.Candidate
			skills []byte
		)
		if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Position, &c.Source, &skills, &c.MatchScore, &c.Status, &c.AppliedAt); err != nil {
			return c, err
		}
		c.Skills = []string{}
		if len(skills) > 0 {
			if err := json.Unmarshal(skills, &c.Skills); err != nil {
				return c, fmt.Errorf("decode skills: %w", err)
			}
		}
		return c, nil
	}, tenantID)
}

func (r *Repo) ListCourses(ctx context.Context, tenantID string) ([]domain.TrainingCourse, error) {
	query := `
		SELECT id, tenant_id, title, category, duration_hours, mandatory, enrolled, completed
		FROM training_courses WHERE tenant_id = $1 ORDER BY title`

	return queryList(ctx, r.db, "courses", query, func(row rowScanner) (domain.TrainingCourse, error) {
		var c domain.TrainingCourse
		err := row.Scan(&c.ID, &c.TenantID, &c.Title, &c.Category, &c.DurationHours, &c.Mandatory, &c.Enrolled, &c.Completed)
		return c, err
	}, tenantID)
}

func (r *Repo) ListEmployeeTraining(ctx context.Context, tenantID string) ([]domain.EmployeeTraining, error) {
	query := `
		SELECT tenant_id, employee_id, employee_name, course_id, progress, status, due_date
		FROM employee_training WHERE tenant_id = $1 ORDER BY due_date`

	return queryList(ctx, r.db, "employee training", query, func(row rowScanner) (domain.EmployeeTraining, error) {
		var t domain.EmployeeTraining
		err := row.Scan(&t.TenantID, &t.EmployeeID, &t.EmployeeName, &t.CourseID, &t.Progress, &t.Status, &t.DueDate)
		return t, err
	}, tenantID)
}

const sessionColumns = `id, tenant_id, title, instructor, type, starts_at, current_participants, max_participants, status`

func scanSession(row rowScanner) (domain.TrainingSession, error) {
	var s domain.TrainingSession
	err := row.Scan(&s.ID, &s.TenantID, &s.Title, &s.Instructor, &s.Type, &s.StartsAt, &s.CurrentParticipants, &s.MaxParticipants, &s.Status)
	return s, err
}

func (r *Repo) ListSessions(ctx context.Context, tenantID string) ([]domain.TrainingSession, error) {
	return queryList(ctx, r.db, "sessions",
		`SELECT `+sessionColumns+` FROM training_sessions WHERE tenant_id = $1 ORDER BY starts_at`, scanSession, tenantID)
}

// EnrollSession занимает место условным UPDATE: переполнение невозможно даже при гонке запросов.
func (r *Repo) EnrollSession(ctx context.Context, tenantID, id string) (*domain.TrainingSession, error) {
	query := `
		UPDATE training_sessions
		SET current_participants = current_participants + 1
		WHERE tenant_id = $1 AND id = $2 AND status = $3 AND current_participants < max_participants
		RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRowContext(ctx, query, tenantID, id, domain.StatusScheduled))
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("postgres: enroll session: %w", err)
	}

	// Ни одна строка не обновилась - выясняем почему
	current, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "training session", id)
	}
	if current.Status != domain.StatusScheduled {
		return nil, fmt.Errorf("session %s is %s: %w", id, current.Status, domain.ErrInvalidTransition)
	}
	return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionFull)
}

const payrollColumns = `id, tenant_id, period, pay_date, employee_count, gross_total, net_total, currency, status`

func scanPayroll(row rowScanner) (domain.PayrollRun, error) {
	var p domain.PayrollRun
	err := row.Scan(&p.ID, &p.TenantID, &p.Period, &p.PayDate, &p.EmployeeCount, &p.GrossTotal, &p.NetTotal, &p.Currency, &p.Status)
	return p, err
}

func (r *Repo) ListPayrollRuns(ctx context.Context, tenantID string) ([]domain.PayrollRun, error) {
	return queryList(ctx, r.db, "payroll runs",
		`SELECT `+payrollColumns+` FROM payroll_runs WHERE tenant_id = $1 ORDER BY period DESC`, scanPayroll, tenantID)
}

func (r *Repo) GetPayrollRun(ctx context.Context, tenantID, id string) (*domain.PayrollRun, error) {
	run, err := scanPayroll(r.db.QueryRowContext(ctx,
		`SELECT `+payrollColumns+` FROM payroll_runs WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "payroll run", id)
	}

	query := `
		SELECT employee_id, employee_name, gross, deductions, net
		FROM payroll_lines WHERE run_id = $1 ORDER BY employee_name`
	run.EmployeeLines, err = queryList(ctx, r.db, "payroll lines", query, func(row rowScanner) (domain.EmployeePay, error) {
		var l domain.EmployeePay
		err := row.Scan(&l.EmployeeID, &l.EmployeeName, &l.Gross, &l.Deductions, &l.Net)
		return l, err
	}, id)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetForecasts - ряды прогнозов хранятся как JSONB-документ на тенанта.
func (r *Repo) GetForecasts(ctx context.Context, tenantID string) (*domain.Forecasts, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM forecasts WHERE tenant_id = $1`, tenantID).Scan(&raw)
	f := &domain.Forecasts{
		Workforce:   []domain.ForecastData{},
		SkillDemand: []domain.SkillDemandForecast{},
		Resources:   []domain.ResourceForecast{},
	}
	if errors.Is(err, sql.ErrNoRows) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get forecasts: %w", err)
	}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("postgres: decode forecasts: %w", err)
	}
	return f, nil
}
