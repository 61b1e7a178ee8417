package service

import (
	"context"

	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
)

// SystemActor - автор действий без HTTP-контекста (CLI, cron).
const SystemActor = "system"

// actorFrom достает автора действия из claims запроса.
func actorFrom(ctx context.Context) string {
	if c, ok := auth.ClaimsFrom(ctx); ok && c.UserID != "" {
		return c.UserID
	}
	return SystemActor
}

// record пишет событие в журнал. Ошибка операции сохраняется в событии со статусом FAILED.
func record(ctx context.Context, a audit.Auditor, e audit.Event, opErr error) {
	if a == nil {
		return
	}
	e.ActorID = actorFrom(ctx)
	e.Status = audit.StatusSuccess
	if opErr != nil {
		e.Status = audit.StatusFailed
		e.Error = opErr.Error()
	}
	a.Log(e)
}
