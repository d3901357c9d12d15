package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for stored session ids
	"encoding/hex"  // hex encoding of digests
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"
)

// ErrInvalidSessionToken is returned for tokens that are malformed, have a
// bad signature, use an unexpected algorithm or are expired.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionToken is a signed session token together with the server-side
// session id it carries and its expiry.  Only the SHA-256 hash of the
// session id is persisted; the token itself goes back to the client.
type SessionToken struct {
	Token     string    // the serialized JWT string
	SessionID string    // random session id (jti claim)
	UserID    int64     // subject
	Exp       time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT binding a fresh session
// id to a user.  Roles are deliberately not embedded: they are looked up
// again every time the session is resolved.
func NewSessionToken(secret string, userID int64, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	sid := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, SessionID: sid, UserID: userID, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and returns
// the embedded session id and user id.
func ParseSessionToken(secret, raw string) (SessionToken, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSessionToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return SessionToken{}, ErrInvalidSessionToken
	}
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || uid <= 0 || claims.ID == "" {
		return SessionToken{}, ErrInvalidSessionToken
	}
	st := SessionToken{Token: raw, SessionID: claims.ID, UserID: uid}
	if claims.ExpiresAt != nil {
		st.Exp = claims.ExpiresAt.Time
	}
	return st, nil
}

// HashSessionID returns the SHA-256 hash of a session id as a hex string.
// Storing only the hash keeps a leaked sessions table from being replayed.
func HashSessionID(sid string) string {
	sum := sha256.Sum256([]byte(sid))
	return hex.EncodeToString(sum[:])
}
