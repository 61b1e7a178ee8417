package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

// Equal-фильтры списочных страниц
var (
	UtilizationFilters = []string{"department", "status"}
	CandidateFilters   = []string{"status", "source"}
	CourseFilters      = []string{"category"}
	TrainingFilters    = []string{"status", "course_id"}
	SessionFilters     = []string{"status", "type"}
	PayrollFilters     = []string{"status"}
)

type WorkforceRepository interface {
	ListUtilization(ctx context.Context, tenantID string) ([]domain.UtilizationData, error)
	ListCandidates(ctx context.Context, tenantID string) ([]domain.Candidate, error)
	ListCourses(ctx context.Context, tenantID string) ([]domain.TrainingCourse, error)
	ListEmployeeTraining(ctx context.Context, tenantID string) ([]domain.EmployeeTraining, error)
	ListSessions(ctx context.Context, tenantID string) ([]domain.TrainingSession, error)
	EnrollSession(ctx context.Context, tenantID, id string) (*domain.TrainingSession, error)
	ListPayrollRuns(ctx context.Context, tenantID string) ([]domain.PayrollRun, error)
	GetPayrollRun(ctx context.Context, tenantID, id string) (*domain.PayrollRun, error)
	GetForecasts(ctx context.Context, tenantID string) (*domain.Forecasts, error)
}

// WorkforceService - staffing, найм, обучение, зарплата и прогнозы.
type WorkforceService struct {
	repo   WorkforceRepository
	audit  audit.Auditor
	logger *zap.Logger
}

func NewWorkforceService(repo WorkforceRepository, auditor audit.Auditor, logger *zap.Logger) *WorkforceService {
	return &WorkforceService{
		repo:   repo,
		audit:  auditor,
		logger: logger.Named("workforce-service"),
	}
}

// page - загрузить, отфильтровать, нарезать.
func page[T any](ctx context.Context, what string, load func(context.Context) ([]T, error), q *filter.Query[T]) (filter.Page[T], error) {
	items, err := load(ctx)
	if err != nil {
		return filter.Page[T]{}, fmt.Errorf("workforce_service: list %s: %w", what, err)
	}
	return q.Apply(items)
}

func (s *WorkforceService) Utilization(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.UtilizationData], error) {
	q := filter.New[domain.UtilizationData](p).
		SearchIn(
			func(u domain.UtilizationData) string { return u.EmployeeName },
			func(u domain.UtilizationData) string { return u.Role },
			func(u domain.UtilizationData) string { return u.Project },
		).
		Field("department", func(u domain.UtilizationData) string { return u.Department }).
		Field("status", func(u domain.UtilizationData) string { return string(u.Status) }).
		Field("name", func(u domain.UtilizationData) string { return u.EmployeeName })

	return page(ctx, "utilization", func(ctx context.Context) ([]domain.UtilizationData, error) {
		return s.repo.ListUtilization(ctx, tenantID)
	}, q)
}

func (s *WorkforceService) Candidates(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.Candidate], error) {
	q := filter.New[domain.Candidate](p).
		SearchIn(
			func(c domain.Candidate) string { return c.Name },
			func(c domain.Candidate) string { return c.Position },
			func(c domain.Candidate) string { return strings.Join(c.Skills, " ") },
		).
		Field("status", func(c domain.Candidate) string { return string(c.Status) }).
		Field("source", func(c domain.Candidate) string { return c.Source }).
		Field("name", func(c domain.Candidate) string { return c.Name }).
		Field("applied_at", func(c domain.Candidate) string { return c.AppliedAt.Format(domain.DateLayout) })

	return page(ctx, "candidates", func(ctx context.Context) ([]domain.Candidate, error) {
		return s.repo.ListCandidates(ctx, tenantID)
	}, q)
}

func (s *WorkforceService) Courses(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.TrainingCourse], error) {
	q := filter.New[domain.TrainingCourse](p).
		SearchIn(
			func(c domain.TrainingCourse) string { return c.Title },
			func(c domain.TrainingCourse) string { return c.Category },
		).
		Field("category", func(c domain.TrainingCourse) string { return c.Category }).
		Field("title", func(c domain.TrainingCourse) string { return c.Title })

	return page(ctx, "courses", func(ctx context.Context) ([]domain.TrainingCourse, error) {
		return s.repo.ListCourses(ctx, tenantID)
	}, q)
}

func (s *WorkforceService) Training(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.EmployeeTraining], error) {
	q := filter.New[domain.EmployeeTraining](p).
		SearchIn(func(t domain.EmployeeTraining) string { return t.EmployeeName }).
		Field("status", func(t domain.EmployeeTraining) string { return string(t.Status) }).
		Field("course_id", func(t domain.EmployeeTraining) string { return t.CourseID }).
		Field("due_date", func(t domain.EmployeeTraining) string { return t.DueDate.Format(domain.DateLayout) })

	return page(ctx, "employee training", func(ctx context.Context) ([]domain.EmployeeTraining, error) {
		return s.repo.ListEmployeeTraining(ctx, tenantID)
	}, q)
}

func (s *WorkforceService) Sessions(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.TrainingSession], error) {
	q := filter.New[domain.TrainingSession](p).
		SearchIn(
			func(t domain.TrainingSession) string { return t.Title },
			func(t domain.TrainingSession) string { return t.Instructor },
		).
		Field("status", func(t domain.TrainingSession) string { return string(t.Status) }).
		Field("type", func(t domain.TrainingSession) string { return t.Type }).
		Field("starts_at", func(t domain.TrainingSession) string { return t.StartsAt.Format("2006-01-02T15:04") })

	return page(ctx, "sessions", func(ctx context.Context) ([]domain.TrainingSession, error) {
		return s.repo.ListSessions(ctx, tenantID)
	}, q)
}

// Enroll занимает место в сессии. Переполнение отсекает хранилище атомарно.
func (s *WorkforceService) Enroll(ctx context.Context, tenantID, sessionID string) (*domain.TrainingSession, error) {
	session, err := s.repo.EnrollSession(ctx, tenantID, sessionID)
	record(ctx, s.audit, audit.Event{
		TenantID:   tenantID,
		Action:     audit.ActionSessionEnroll,
		TargetType: "training_session",
		TargetID:   sessionID,
	}, err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("session seat taken",
		zap.String("session_id", sessionID),
		zap.Int("participants", session.CurrentParticipants),
		zap.Int("capacity", session.MaxParticipants))
	return session, nil
}

func (s *WorkforceService) PayrollRuns(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.PayrollRun], error) {
	q := filter.New[domain.PayrollRun](p).
		SearchIn(func(r domain.PayrollRun) string { return r.Period }).
		Field("status", func(r domain.PayrollRun) string { return string(r.Status) }).
		Field("period", func(r domain.PayrollRun) string { return r.Period })

	return page(ctx, "payroll runs", func(ctx context.Context) ([]domain.PayrollRun, error) {
		return s.repo.ListPayrollRuns(ctx, tenantID)
	}, q)
}

func (s *WorkforceService) PayrollRun(ctx context.Context, tenantID, id string) (*domain.PayrollRun, error) {
	return s.repo.GetPayrollRun(ctx, tenantID, id)
}

func (s *WorkforceService) Forecasts(ctx context.Context, tenantID string) (*domain.Forecasts, error) {
	f, err := s.repo.GetForecasts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("workforce_service: forecasts: %w", err)
	}
	return f, nil
}
