package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/auth"
)

const (
	hasRoleSQL = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`

	grantRoleSQL = `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING`
)

var _ auth.RoleRepository = (*RoleRepository)(nil)

// RoleRepository implements auth.RoleRepository backed by PostgreSQL.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a RoleRepository that uses the given pool.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// HasRole reports whether userID holds role.
func (r *RoleRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, hasRoleSQL, userID, role).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking role %q: %w", role, err)
	}
	return ok, nil
}

// GrantRole assigns role to userID.
func (r *RoleRepository) GrantRole(ctx context.Context, userID, role string) error {
	if _, err := r.pool.Exec(ctx, grantRoleSQL, userID, role); err != nil {
		return fmt.Errorf("granting role %q: %w", role, err)
	}
	return nil
}
