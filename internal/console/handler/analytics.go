package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/domain"
	"go.uber.org/zap"
)

type AnalyticsService interface {
	Snapshot(ctx context.Context, tenantID string, q service.AnalyticsQuery) (*domain.AnalyticsSnapshot, error)
	Source(ctx context.Context, tenantID, source string, q service.AnalyticsQuery) (any, error)
	Export(ctx context.Context, tenantID string, q service.AnalyticsQuery, format string, w io.Writer) error
}

type AnalyticsHandler struct {
	service AnalyticsService
	logger  *zap.Logger
	now     func() time.Time
}

func NewAnalyticsHandler(s AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: s, logger: logger, now: time.Now}
}

// query разбирает ?from&to&grain&strict. Ошибки разбора - 400.
func (h *AnalyticsHandler) query(r *http.Request) (service.AnalyticsQuery, error) {
	v := r.URL.Query()
	rng, err := domain.ParseDateWindow(v.Get("from"), v.Get("to"), h.now().UTC())
	if err != nil {
		return service.AnalyticsQuery{}, err
	}
	grain, err := domain.ParseGrain(v.Get("grain"))
	if err != nil {
		return service.AnalyticsQuery{}, err
	}
	var strict bool
	if raw := v.Get("strict"); raw != "" {
		if strict, err = strconv.ParseBool(raw); err != nil {
			return service.AnalyticsQuery{}, fmt.Errorf("strict must be a boolean")
		}
	}

	c := claims(r)
	return service.AnalyticsQuery{
		Range:   rng,
		Grain:   grain,
		Strict:  strict,
		ViewKey: c.TenantID + ":" + c.UserID + ":" + r.Header.Get("X-View-ID"),
	}, nil
}

// parse пишет ответ сам: кривые параметры - 400, окно вне правил (from > to, длиннее MaxRangeDays) - 422.
func (h *AnalyticsHandler) parse(w http.ResponseWriter, r *http.Request) (service.AnalyticsQuery, bool) {
	q, err := h.query(r)
	if err != nil {
		badRequest(w, err.Error())
		return q, false
	}
	if err = q.Range.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return q, false
	}
	return q, true
}

// Snapshot - весь дашборд одним запросом.
// GET /api/v1/tenant/analytics?from&to&grain&strict
func (h *AnalyticsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parse(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Snapshot(r.Context(), claims(r).TenantID, q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Source - один источник метрик.
// GET /api/v1/tenant/analytics/{source}
func (h *AnalyticsHandler) Source(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parse(w, r)
	if !ok {
		return
	}
	out, err := h.service.Source(r.Context(), claims(r).TenantID, chi.URLParam(r, "source"), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: out})
}

// Export - выгрузка снапшота файлом.
// GET /api/v1/tenant/analytics/export?from&to&format=csv|json
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parse(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = analytics.FormatCSV
	}

	// Буферизуем: при ошибке клиент должен получить JSON, а не обрезанный файл
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), claims(r).TenantID, q, format, &buf); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filename := fmt.Sprintf("analytics-%s-%s.%s",
		q.Range.From.Format(domain.DateLayout), q.Range.To.Format(domain.DateLayout), format)
	w.Header().Set("Content-Type", analytics.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
