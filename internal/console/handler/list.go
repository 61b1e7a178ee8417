package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

// listHandler - типовой GET списочной страницы: фильтры из query-string,
// тенант из токена, ответ {data, pagination}.
func listHandler[T any](
	logger *zap.Logger,
	fetch func(ctx context.Context, tenantID string, p filter.Params) (filter.Page[T], error),
	equalKeys ...string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := filter.ParseParams(r.URL.Query(), equalKeys...)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		page, err := fetch(r.Context(), claims(r).TenantID, p)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}
