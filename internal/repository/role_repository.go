package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/theater-booking/internal/database"
	"github.com/iliyamo/theater-booking/internal/model"
)

// RoleRepo is the role registry: named roles and user membership.
type RoleRepo struct{ db *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// FindByName fetches a role by name or returns ErrNotFound.
func (r *RoleRepo) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name FROM roles WHERE name = ? LIMIT 1", strings.TrimSpace(name)).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &role, nil
}

// Exists reports whether a role named name exists.
func (r *RoleRepo) Exists(ctx context.Context, name string) (bool, error) {
	_, err := r.FindByName(ctx, name)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a role.  A duplicate name fails with ErrDuplicateRole.
func (r *RoleRepo) Create(ctx context.Context, name string) (*model.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "Role name cannot be empty."}
	}
	res, err := r.db.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, model.ErrDuplicateRole
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Role{ID: id, Name: name}, nil
}

// Resolve looks up every name before anything is written.  The first
// unknown name is reported as an *model.UnknownRoleError.  Duplicate names
// collapse to one role.
func (r *RoleRepo) Resolve(ctx context.Context, names []string) ([]model.Role, error) {
	out := make([]model.Role, 0, len(names))
	seen := make(map[int64]bool, len(names))
	for _, name := range names {
		role, err := r.FindByName(ctx, name)
		if errors.Is(err, model.ErrNotFound) {
			return nil, &model.UnknownRoleError{Role: name}
		}
		if err != nil {
			return nil, err
		}
		if seen[role.ID] {
			continue
		}
		seen[role.ID] = true
		out = append(out, *role)
	}
	return out, nil
}

// Assign grants role name to a user.  Granting a role the user already has
// is a no-op.  Unknown roles fail with ErrUnknownRole.
func (r *RoleRepo) Assign(ctx context.Context, userID int64, name string) error {
	role, err := r.FindByName(ctx, name)
	if errors.Is(err, model.ErrNotFound) {
		return &model.UnknownRoleError{Role: name}
	}
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)", userID, role.ID); err != nil {
		if isMissingReference(err) {
			return model.ErrNotFound
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// RevokeAll removes every role membership of a user.
func (r *RoleRepo) RevokeAll(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("revoke roles: %w", err)
	}
	return nil
}

// ReplaceAll sets the user's roles to exactly names.  All names are
// resolved first; if any is unknown nothing changes.  Revocation and the
// new grants commit together.
func (r *RoleRepo) ReplaceAll(ctx context.Context, userID int64, names []string) error {
	roles, err := r.Resolve(ctx, names)
	if err != nil {
		return err
	}
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("revoke roles: %w", err)
		}
		for _, role := range roles {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", userID, role.ID); err != nil {
				if isMissingReference(err) {
					return model.ErrNotFound
				}
				return fmt.Errorf("assign role: %w", err)
			}
		}
		return nil
	})
}

// RolesOf returns the sorted role names of a user.
func (r *RoleRepo) RolesOf(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.name FROM user_roles ur
		 JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = ? ORDER BY r.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("roles of user: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
