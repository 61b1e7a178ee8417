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

type AutomationService interface {
	Rules(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.AutomationRule], error)
	Toggle(ctx context.Context, tenantID, id string) (*domain.AutomationRule, error)
}

type AutomationHandler struct {
	service AutomationService
	logger  *zap.Logger
	List    http.HandlerFunc
}

func NewAutomationHandler(s AutomationService, logger *zap.Logger) *AutomationHandler {
	return &AutomationHandler{
		service: s,
		logger:  logger,
		// GET /api/v1/automation/rules
		List: listHandler(logger, s.Rules, service.RuleFilters...),
	}
}

// Toggle переключает правило active <-> paused.
// POST /api/v1/automation/rules/{id}/toggle
func (h *AutomationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	rule, err := h.service.Toggle(r.Context(), claims(r).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: rule})
}
