package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

type RoleService interface {
	List(ctx context.Context, tenantID string, f domain.RoleFilter) (filter.Page[domain.Role], error)
	Stats(ctx context.Context, tenantID string) (*domain.RoleStats, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Role, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type RoleHandler struct {
	service RoleService
	logger  *zap.Logger
}

func NewRoleHandler(s RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{service: s, logger: logger}
}

// List возвращает страницу ролей.
// GET /api/admin/roles?page&limit&search&scope&is_active
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := filter.ParseParams(r.URL.Query(), "scope", "is_active")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	f := domain.RoleFilter{
		Search: p.Search,
		Scope:  p.Equals["scope"],
		Page:   p.Page,
		Limit:  p.Limit,
	}
	if raw, ok := p.Equals["is_active"]; ok {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "is_active must be a boolean")
			return
		}
		f.IsActive = &active
	}

	page, err := h.service.List(r.Context(), claims(r).TenantID, f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/admin/roles/stats
func (h *RoleHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), claims(r).TenantID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: stats})
}

// GET /api/admin/roles/{id}
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), claims(r).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: role})
}

// Delete: 204, 404 если роли нет, 409 для встроенной или назначенной роли.
// DELETE /api/admin/roles/{id}
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), claims(r).TenantID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
