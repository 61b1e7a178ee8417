package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
	"go.uber.org/zap"
)

// statusClientClosed - клиент ушел раньше ответа (nginx 499).
const statusClientClosed = 499

type errorBody struct {
	Error  string `json:"error"`
	Source string `json:"source,omitempty"`
}

type dataBody struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// writeError переводит доменные ошибки в HTTP-статусы. Неизвестные ошибки логируются
// и уходят клиенту без подробностей.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var se *analytics.SourceError
	switch {
	case errors.As(err, &se):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: se.Error(), Source: se.Source})
	case errors.Is(err, analytics.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSessionFull):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrFeatureDisabled):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "request timed out"})
	case errors.Is(err, context.Canceled):
		w.WriteHeader(statusClientClosed)
	default:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// claims положены auth-middleware, в защищенном периметре они есть всегда.
func claims(r *http.Request) *domain.CustomClaims {
	c, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		return &domain.CustomClaims{}
	}
	return c
}
