package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/theater-booking/internal/database"
	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/utils"
)

// UserRepo is the credential store.  It owns the users table and the
// password verifiers, and it removes a user's role memberships and
// manager references together with the user.
type UserRepo struct {
	db     *sql.DB
	cost   int
	policy utils.PasswordPolicy
}

// NewUserRepo constructs a UserRepo.  cost is the bcrypt cost used for new
// verifiers and policy is applied to every new password.
func NewUserRepo(db *sql.DB, cost int, policy utils.PasswordPolicy) *UserRepo {
	return &UserRepo{db: db, cost: cost, policy: policy}
}

const userColumns = "id, username, normalized_username, password_hash, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.NormalizedUsername, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername fetches a user by name, ignoring case.
func (r *UserRepo) FindByUsername(ctx context.Context, name string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE normalized_username = ? LIMIT 1",
		model.NormalizeUsername(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	return u, nil
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// Exists reports whether a user with the given id exists.
func (r *UserRepo) Exists(ctx context.Context, id int64) (bool, error) {
	return userExists(ctx, r.db, id)
}

func userExists(ctx context.Context, q database.DBTX, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return true, nil
}

// Create inserts a user together with its role memberships in a single
// transaction.  roles must already be resolved against the role registry.
// It fails with ErrDuplicateUsername when the name is taken (ignoring
// case), whatever the password, and otherwise with
// ErrInvalidCredentialFormat when the name or password break the
// configured rules.
func (r *UserRepo) Create(ctx context.Context, username, password string, roles []model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, utils.CheckUsername(username)
	}
	// A taken name wins over any complaint about the password.
	if _, err := r.FindByUsername(ctx, username); err == nil {
		return nil, model.ErrDuplicateUsername
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if err := utils.CheckUsername(username); err != nil {
		return nil, err
	}
	if err := r.policy.Check(password); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var id int64
	err = database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, normalized_username, password_hash) VALUES (?, ?, ?)",
			username, model.NormalizeUsername(username), hash)
		if err != nil {
			if isDuplicateKey(err) {
				return model.ErrDuplicateUsername
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, role := range roles {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", id, role.ID); err != nil {
				return fmt.Errorf("insert user role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Verify reports whether password matches the user's verifier.  A wrong
// password is not an error.
func (r *UserRepo) Verify(u *model.User, password string) bool {
	if u == nil {
		return false
	}
	return utils.VerifyPassword(u.PasswordHash, password)
}

// ChangePassword replaces the verifier of user id after checking the
// password policy.
func (r *UserRepo) ChangePassword(ctx context.Context, id int64, password string) error {
	if err := r.policy.Check(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes a user.  Within the same transaction it clears the user
// from every theater it manages and drops its role memberships, so no
// theater is left pointing at a missing manager.  It returns false when
// the user does not exist.
func (r *UserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, "UPDATE theaters SET manager_id = NULL WHERE manager_id = ?", id); err != nil {
			return fmt.Errorf("clear manager: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id = ?", id); err != nil {
			return fmt.Errorf("delete user roles: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
