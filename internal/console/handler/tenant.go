package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

type TenantService interface {
	Current(ctx context.Context, tenantID string) (domain.Tenant, error)
	List(ctx context.Context, p filter.Params) ([]domain.Tenant, error)
	Create(ctx context.Context, form domain.CreateTenantForm) (domain.ActionResult, error)
	RequestAccess(ctx context.Context, form domain.AccessRequestForm) (domain.ActionResult, error)
	SetFeature(ctx context.Context, tenantID, feature string, on bool) (domain.Tenant, error)
}

type TenantHandler struct {
	service TenantService
	logger  *zap.Logger
}

func NewTenantHandler(s TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{service: s, logger: logger}
}

// Current - тенант из токена вместе с фич-флагами.
// GET /api/v1/tenant
func (h *TenantHandler) Current(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.service.Current(r.Context(), claims(r).TenantID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// List - директория тенантов.
// GET /api/v1/tenants?search=&plan=
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := filter.ParseParams(r.URL.Query(), service.TenantFilters...)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	tenants, err := h.service.List(r.Context(), p)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: tenants})
}

// Create - экшен createTenant.
// POST /api/v1/tenants
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form domain.CreateTenantForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	res, err := h.service.Create(r.Context(), form)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeAction(w, res, http.StatusCreated)
}

// RequestAccess - экшен requestAccess.
// POST /api/v1/tenants/access-requests
func (h *TenantHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	var form domain.AccessRequestForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	res, err := h.service.RequestAccess(r.Context(), form)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeAction(w, res, http.StatusAccepted)
}

type featureRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetFeature переключает фичу текущего тенанта.
// PUT /api/v1/tenant/features/{feature}
func (h *TenantHandler) SetFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		badRequest(w, `body must be {"enabled": true|false}`)
		return
	}
	tenant, err := h.service.SetFeature(r.Context(), claims(r).TenantID, chi.URLParam(r, "feature"), *req.Enabled)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// writeAction - ответ серверного экшена: тело всегда {ok, redirect?, error?}.
func writeAction(w http.ResponseWriter, res domain.ActionResult, okStatus int) {
	status := okStatus
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}
