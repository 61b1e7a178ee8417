package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xela07ax/workforce-console/internal/domain"
)

const ruleColumns = `id, tenant_id, name, description, trigger, action, status, runs_count, last_run_at, updated_at`

func scanRule(row rowScanner) (domain.AutomationRule, error) {
	var (
		rule    domain.AutomationRule
		lastRun sql.NullTime
	)
	err := row.Scan(&rule.ID, &rule.TenantID, &rule.Name, &rule.Description, &rule.Trigger, &rule.Action,
		&rule.Status, &rule.RunsCount, &lastRun, &rule.UpdatedAt)
	rule.LastRunAt = lastRun.Time
	return rule, err
}

func (r *Repo) ListRules(ctx context.Context, tenantID string) ([]domain.AutomationRule, error) {
	return queryList(ctx, r.db, "automation rules",
		`SELECT `+ruleColumns+` FROM automation_rules WHERE tenant_id = $1 ORDER BY name`, scanRule, tenantID)
}

func (r *Repo) GetRule(ctx context.Context, tenantID, id string) (*domain.AutomationRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM automation_rules WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "automation rule", id)
	}
	return &rule, nil
}

// UpdateRuleStatus меняет статус ровно одного правила условным UPDATE (compare-and-set):
// строка обновится, только если статус все еще from. Иначе правило успели переключить - ErrConflict.
func (r *Repo) UpdateRuleStatus(ctx context.Context, tenantID, id string, from, to domain.Status) error {
	query := `UPDATE automation_rules SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3 AND status = $4`

	res, err := r.db.ExecContext(ctx, query, to, tenantID, id, from)
	if err != nil {
		return fmt.Errorf("postgres: failed to update rule status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Ни одна строка не обновилась - выясняем почему
	if _, err := r.GetRule(ctx, tenantID, id); err != nil {
		return err
	}
	return fmt.Errorf("automation rule %s is no longer %s: %w", id, from, domain.ErrConflict)
}
