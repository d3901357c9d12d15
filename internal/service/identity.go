package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/metrics"
	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
	"github.com/iliyamo/theater-booking/internal/utils"
)

// IdentityService maps credentials and session tokens to principals.
// Roles are looked up again on every resolution, so a role change takes
// effect on the caller's next request.
type IdentityService struct {
	users    CredentialStore
	roles    RoleRegistry
	sessions SessionStore
	events   queue.Publisher

	secret string
	ttl    time.Duration
	// compared against when the user does not exist, so unknown users
	// cost as much as wrong passwords
	dummyHash string
}

// NewIdentityService constructs the resolver.  cost is the bcrypt cost of
// the dummy verifier and should match the one used for real passwords.
func NewIdentityService(users CredentialStore, roles RoleRegistry, sessions SessionStore, events queue.Publisher, secret string, ttl time.Duration, cost int) (*IdentityService, error) {
	dummy, err := utils.HashPassword("not-a-real-password", cost)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &IdentityService{
		users:     users,
		roles:     roles,
		sessions:  sessions,
		events:    events,
		secret:    secret,
		ttl:       ttl,
		dummyHash: dummy,
	}, nil
}

// Authenticate verifies a user name and password and returns a fresh
// principal.  Unknown users and wrong passwords both yield
// ErrInvalidCredentials.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (model.Principal, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		utils.VerifyPassword(s.dummyHash, password)
		return model.Anonymous, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Anonymous, err
	}
	if !s.users.Verify(u, password) {
		return model.Anonymous, model.ErrInvalidCredentials
	}
	return s.principalFor(ctx, u)
}

// Login authenticates and opens a session.
func (s *IdentityService) Login(ctx context.Context, username, password string) (model.Principal, utils.SessionToken, error) {
	p, err := s.Authenticate(ctx, username, password)
	metrics.RecordLogin(err == nil)
	if err != nil {
		zerolog.Ctx(ctx).Info().Str("username", username).Msg("login failed")
		return model.Anonymous, utils.SessionToken{}, err
	}
	tok, err := utils.NewSessionToken(s.secret, p.UserID, s.ttl)
	if err != nil {
		return model.Anonymous, utils.SessionToken{}, err
	}
	if err := s.sessions.Create(ctx, tok.SessionID, p.UserID, tok.Exp); err != nil {
		return model.Anonymous, utils.SessionToken{}, err
	}
	zerolog.Ctx(ctx).Info().Int64("user_id", p.UserID).Msg("login")
	audit(ctx, s.events, p, queue.AuditEvent{Action: queue.ActionLogin, EntityType: "user", EntityID: p.UserID})
	return p, tok, nil
}

// ResolveSession turns a session token into a principal.  Malformed,
// expired, revoked and orphaned sessions all yield ErrUnauthenticated.
func (s *IdentityService) ResolveSession(ctx context.Context, raw string) (model.Principal, error) {
	tok, err := utils.ParseSessionToken(s.secret, raw)
	if err != nil {
		return model.Anonymous, model.ErrUnauthenticated
	}
	uid, err := s.sessions.Lookup(ctx, tok.SessionID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Anonymous, model.ErrUnauthenticated
	}
	if err != nil {
		return model.Anonymous, err
	}
	if uid != tok.UserID {
		return model.Anonymous, model.ErrUnauthenticated
	}
	u, err := s.users.FindByID(ctx, uid)
	if errors.Is(err, model.ErrNotFound) {
		return model.Anonymous, model.ErrUnauthenticated
	}
	if err != nil {
		return model.Anonymous, err
	}
	return s.principalFor(ctx, u)
}

// Logout revokes the session carried by raw.
func (s *IdentityService) Logout(ctx context.Context, raw string) error {
	tok, err := utils.ParseSessionToken(s.secret, raw)
	if err != nil {
		return model.ErrUnauthenticated
	}
	if err := s.sessions.Revoke(ctx, tok.SessionID); err != nil {
		return err
	}
	audit(ctx, s.events, model.Principal{UserID: tok.UserID}, queue.AuditEvent{
		Action: queue.ActionLogout, EntityType: "user", EntityID: tok.UserID,
	})
	return nil
}

// LogoutAll revokes every session of a user.
func (s *IdentityService) LogoutAll(ctx context.Context, userID int64) error {
	return s.sessions.RevokeAll(ctx, userID)
}

// ChangePassword replaces the caller's password after checking the current
// one, then ends all of the caller's sessions.
func (s *IdentityService) ChangePassword(ctx context.Context, p model.Principal, current, next string) error {
	if p.IsAnonymous() {
		return model.ErrUnauthenticated
	}
	u, err := s.users.FindByID(ctx, p.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	if !s.users.Verify(u, current) {
		return model.ErrInvalidCredentials
	}
	if err := s.users.ChangePassword(ctx, u.ID, next); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, u.ID); err != nil {
		return err
	}
	audit(ctx, s.events, p, queue.AuditEvent{Action: queue.ActionPasswordChanged, EntityType: "user", EntityID: u.ID})
	return nil
}

func (s *IdentityService) principalFor(ctx context.Context, u *model.User) (model.Principal, error) {
	roles, err := s.roles.RolesOf(ctx, u.ID)
	if err != nil {
		return model.Anonymous, err
	}
	return model.NewPrincipal(u, roles), nil
}
