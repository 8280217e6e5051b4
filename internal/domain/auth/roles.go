package auth

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// RoleRepository stores user roles.
type RoleRepository interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	// GrantRole is idempotent.
	GrantRole(ctx context.Context, userID, role string) error
}

// Roles resolves whether a user is an admin. Users whose email is listed in
// the bootstrap set are granted the admin role on first check.
type Roles struct {
	repo   RoleRepository
	emails map[string]struct{}
}

// NewRoles creates Roles backed by repo.
func NewRoles(repo RoleRepository, adminEmails []string) *Roles {
	emails := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails[e] = struct{}{}
		}
	}
	return &Roles{repo: repo, emails: emails}
}

// IsAdmin reports whether id holds the admin role.
func (r *Roles) IsAdmin(ctx context.Context, id Identity) (bool, error) {
	ok, err := r.repo.HasRole(ctx, id.UserID, RoleAdmin)
	if err != nil {
		return false, errors.Wrap(err, "check role")
	}
	if ok {
		return true, nil
	}
	if _, listed := r.emails[strings.ToLower(id.Email)]; !listed || id.Email == "" {
		return false, nil
	}
	if err := r.repo.GrantRole(ctx, id.UserID, RoleAdmin); err != nil {
		return false, errors.Wrap(err, "grant admin role")
	}
	return true, nil
}

// Resolve fills in id.Admin.
func (r *Roles) Resolve(ctx context.Context, id Identity) (Identity, error) {
	admin, err := r.IsAdmin(ctx, id)
	if err != nil {
		return id, err
	}
	id.Admin = admin
	return id, nil
}
