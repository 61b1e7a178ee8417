package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xela07ax/workforce-console/internal/domain"
	"github.com/xela07ax/workforce-console/internal/filter"
)

const roleColumns = `id, tenant_id, name, description, scope, is_active, is_built_in, permissions, field_permissions, user_count, ai_insight, created_at, updated_at`

func scanRole(row rowScanner) (domain.Role, error) {
	var (
		role                       domain.Role
		perms, fieldPerms, insight []byte
	)
	err := row.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description, &role.Scope, &role.IsActive, &role.IsBuiltIn,
		&perms, &fieldPerms, &role.UserCount, &insight, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return role, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &role.Permissions); err != nil {
			return role, fmt.Errorf("decode permissions: %w", err)
		}
	}
	if len(fieldPerms) > 0 {
		if err := json.Unmarshal(fieldPerms, &role.FieldPermissions); err != nil {
			return role, fmt.Errorf("decode field permissions: %w", err)
		}
	}
	if len(insight) > 0 && string(insight) != "null" {
		role.AIInsight = &domain.AIInsight{}
		if err := json.Unmarshal(insight, role.AIInsight); err != nil {
			return role, fmt.Errorf("decode ai insight: %w", err)
		}
	}
	return role, nil
}

// roleWhere строит WHERE для списка ролей. Аргументы нумеруются с $1.
func roleWhere(tenantID string, f domain.RoleFilter) (string, []any) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}

	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if f.Scope != "" && f.Scope != filter.Any {
		args = append(args, f.Scope)
		conds = append(conds, fmt.Sprintf("scope = $%d", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// ListRoles - страница ролей и общее число подходящих под фильтр.
func (r *Repo) ListRoles(ctx context.Context, tenantID string, f domain.RoleFilter) ([]domain.Role, int, error) {
	where, args := roleWhere(tenantID, f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count roles: %w", err)
	}

	pg := filter.NewPagination(f.Page, f.Limit, total)
	args = append(args, pg.Limit, pg.Offset())
	query := fmt.Sprintf(`SELECT %s FROM roles WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		roleColumns, where, len(args)-1, len(args))

	roles, err := r.queryRoles(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *Repo) AllRoles(ctx context.Context, tenantID string) ([]domain.Role, error) {
	return r.queryRoles(ctx, `SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 ORDER BY name`, tenantID)
}

func (r *Repo) queryRoles(ctx context.Context, query string, args ...any) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *Repo) GetRole(ctx context.Context, tenantID, id string) (*domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "role", id)
	}
	return &role, nil
}

// DeleteRole удаляет только кастомную роль без пользователей, условие проверяется в самом DELETE.
func (r *Repo) DeleteRole(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM roles WHERE tenant_id = $1 AND id = $2 AND NOT is_built_in AND user_count = 0`, tenantID, id)
	if err != nil {
		return fmt.Errorf("postgres: delete role: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
	}
	if rows == 0 {
		// Либо роли нет, либо она стала защищенной - различаем отдельным запросом
		if _, err := r.GetRole(ctx, tenantID, id); err != nil {
			return err
		}
		return fmt.Errorf("role %s is built-in or assigned: %w", id, domain.ErrConflict)
	}
	return nil
}
