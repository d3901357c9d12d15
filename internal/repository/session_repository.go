package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/utils"
)

// SessionRepo persists sessions in MySQL.  Only the SHA-256 hash of a
// session id is stored.  It is the fallback session store when Redis is
// not configured.
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, sid string, userID int64, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		userID, utils.HashSessionID(sid), exp.UTC())
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Lookup returns the user bound to a non-revoked, non-expired session, or
// ErrNotFound.
func (r *SessionRepo) Lookup(ctx context.Context, sid string) (int64, error) {
	var (
		userID    int64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM sessions WHERE token_hash = ? LIMIT 1",
		utils.HashSessionID(sid)).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrNotFound
		}
		return 0, fmt.Errorf("lookup session: %w", err)
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, model.ErrNotFound
	}
	return userID, nil
}

// Revoke marks a session as revoked.
func (r *SessionRepo) Revoke(ctx context.Context, sid string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL",
		utils.HashSessionID(sid))
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll revokes every active session of a user.
func (r *SessionRepo) RevokeAll(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}
