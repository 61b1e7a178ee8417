package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

type EmployeeService interface {
	List(ctx context.Context, tenantID string, p filter.Params) (filter.Page[domain.Employee], error)
	ExportCSV(ctx context.Context, tenantID string, p filter.Params, w io.Writer) (int, error)
}

type EmployeeHandler struct {
	service EmployeeService
	logger  *zap.Logger
	List    http.HandlerFunc
}

func NewEmployeeHandler(s EmployeeService, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: s,
		logger:  logger,
		// GET /api/v1/employees?search&department&status&location&page&limit
		List: listHandler(logger, s.List, service.EmployeeFilters...),
	}
}

// Export - CSV по тем же фильтрам, что и таблица, без пагинации.
// GET /api/v1/employees/export
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	p, err := filter.ParseParams(r.URL.Query(), service.EmployeeFilters...)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var buf bytes.Buffer
	if _, err := h.service.ExportCSV(r.Context(), claims(r).TenantID, p, &buf); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="employees.csv"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
