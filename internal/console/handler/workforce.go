package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

type WorkforceService interface {
	Utilization(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.UtilizationData], error)
	Candidates(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.Candidate], error)
	Courses(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.TrainingCourse], error)
	Training(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.EmployeeTraining], error)
	Sessions(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.TrainingSession], error)
	Enroll(ctx context.Context, tenantID, sessionID string) (*domain.TrainingSession, error)
	PayrollRuns(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.PayrollRun], error)
	PayrollRun(ctx context.Context, tenantID, id string) (*domain.PayrollRun, error)
	Forecasts(ctx context.Context, tenantID string) (*domain.Forecasts, error)
}

// WorkforceHandler - списочные страницы staffing, sourcing, training и payroll.
type WorkforceHandler struct {
	service WorkforceService
	logger  *zap.Logger

	Utilization http.HandlerFunc
	Candidates  http.HandlerFunc
	Courses     http.HandlerFunc
	Training    http.HandlerFunc
	Sessions    http.HandlerFunc
	PayrollRuns http.HandlerFunc
}

func NewWorkforceHandler(s WorkforceService, logger *zap.Logger) *WorkforceHandler {
	return &WorkforceHandler{
		service:     s,
		logger:      logger,
		Utilization: listHandler(logger, s.Utilization, service.UtilizationFilters...),
		Candidates:  listHandler(logger, s.Candidates, service.CandidateFilters...),
		Courses:     listHandler(logger, s.Courses, service.CourseFilters...),
		Training:    listHandler(logger, s.Training, service.TrainingFilters...),
		Sessions:    listHandler(logger, s.Sessions, service.SessionFilters...),
		PayrollRuns: listHandler(logger, s.PayrollRuns, service.PayrollFilters...),
	}
}

// Enroll занимает место в сессии: 409 если мест нет или сессия не в статусе scheduled.
// POST /api/v1/training/sessions/{id}/enroll
func (h *WorkforceHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Enroll(r.Context(), claims(r).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: session})
}

// GET /api/v1/payroll/runs/{id}
func (h *WorkforceHandler) PayrollRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.PayrollRun(r.Context(), claims(r).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: run})
}

// GET /api/v1/forecasts
func (h *WorkforceHandler) Forecasts(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Forecasts(r.Context(), claims(r).TenantID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: f})
}

// Statuses - общая таблица оформления статусов для бейджей фронтенда.
// GET /api/v1/statuses
func Statuses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dataBody{Data: domain.StatusKinds})
}
