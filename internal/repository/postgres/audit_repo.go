package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xela07ax/workforce-console/internal/audit"
)

// WriteBatch - пакетная вставка событий одним INSERT.
func (r *Repo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице audit_events
	const numFields = 10
	var placeholders strings.Builder
	vals := make([]any, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		if i > 0 {
			placeholders.WriteString(",")
		}
		fmt.Fprintf(&placeholders, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		details, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("postgres: encode audit details: %w", err)
		}
		vals = append(vals,
			e.ID, e.TenantID, e.ActorID, e.Action, e.TargetType,
			e.TargetID, details, e.Status, e.Error, e.Timestamp,
		)
	}

	query := "INSERT INTO audit_events (id, tenant_id, actor_id, action, target_type, target_id, details, status, error, timestamp) VALUES " +
		placeholders.String()

	if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: write audit batch: %w", err)
	}
	return nil
}
