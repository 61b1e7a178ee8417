package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xela07ax/workforce-console/internal/domain"
)

// GetUserByUsername ищет по username или email - форма логина принимает оба.
func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, tenant_id, email, username, password_hash, role, scopes, created_at, updated_at
		FROM users WHERE username = $1 OR email = $1`

	var (
		u      domain.User
		scopes []byte
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID, &u.TenantID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &scopes, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "user", username)
	}
	if len(scopes) > 0 {
		if err := json.Unmarshal(scopes, &u.Scopes); err != nil {
			return nil, fmt.Errorf("postgres: decode scopes: %w", err)
		}
	}
	return &u, nil
}
