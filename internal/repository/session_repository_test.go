package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/utils"
)

func TestSessionRepo_StoresOnlyHash(t *testing.T) {
	db, mock := newMock(t)
	exp := time.Now().Add(time.Hour).UTC()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (user_id, token_hash, expires_at)")).
		WithArgs(int64(1), utils.HashSessionID("sid-1"), exp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewSessionRepo(db).Create(context.Background(), "sid-1", 1, exp))
}

func TestSessionRepo_Lookup(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"user_id", "expires_at", "revoked_at"}
	q := regexp.QuoteMeta("FROM sessions WHERE token_hash = ?")
	mock.ExpectQuery(q).WithArgs(utils.HashSessionID("live")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, time.Now().Add(time.Hour).UTC(), nil))
	mock.ExpectQuery(q).WithArgs(utils.HashSessionID("revoked")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, time.Now().Add(time.Hour).UTC(), time.Now().UTC()))
	mock.ExpectQuery(q).WithArgs(utils.HashSessionID("expired")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, time.Now().Add(-time.Hour).UTC(), nil))
	mock.ExpectQuery(q).WithArgs(utils.HashSessionID("missing")).
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewSessionRepo(db)
	uid, err := repo.Lookup(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)

	for _, sid := range []string{"revoked", "expired", "missing"} {
		_, err := repo.Lookup(context.Background(), sid)
		assert.ErrorIs(t, err, model.ErrNotFound, sid)
	}
}

func TestSessionRepo_RevokeAll(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ?")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, NewSessionRepo(db).RevokeAll(context.Background(), 9))
}
