package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	st, err := NewSessionToken("secret", 42, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, st.SessionID)

	got, err := ParseSessionToken("secret", st.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, st.SessionID, got.SessionID)
	assert.WithinDuration(t, st.Exp, got.Exp, time.Second)
}

func TestSessionToken_Rejected(t *testing.T) {
	st, err := NewSessionToken("right", 1, time.Hour)
	require.NoError(t, err)
	_, err = ParseSessionToken("wrong", st.Token)
	assert.ErrorIs(t, err, ErrInvalidSessionToken)

	expired, err := NewSessionToken("right", 1, -time.Minute)
	require.NoError(t, err)
	_, err = ParseSessionToken("right", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidSessionToken)

	_, err = ParseSessionToken("right", "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidSessionToken)
}

func TestSessionToken_NoneAlgorithmRejected(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "1", ID: "sid", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseSessionToken("secret", raw)
	assert.ErrorIs(t, err, ErrInvalidSessionToken)
}

func TestHashSessionID(t *testing.T) {
	a := HashSessionID("abc")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashSessionID("abc"))
	assert.NotEqual(t, a, HashSessionID("abd"))
}
