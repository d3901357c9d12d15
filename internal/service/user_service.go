package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/authz"
	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
)

// UserRecord is a user together with its current role names.
type UserRecord struct {
	ID       int64
	Username string
	Roles    []string
}

// CreateUserInput carries a new account.
type CreateUserInput struct {
	Username string
	Password string
	Roles    []string
}

// UserService implements admin user management.
type UserService struct {
	users    CredentialStore
	roles    RoleRegistry
	sessions SessionStore
	events   queue.Publisher
}

func NewUserService(users CredentialStore, roles RoleRegistry, sessions SessionStore, events queue.Publisher) *UserService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &UserService{users: users, roles: roles, sessions: sessions, events: events}
}

func (s *UserService) record(ctx context.Context, u *model.User) (*UserRecord, error) {
	roles, err := s.roles.RolesOf(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &UserRecord{ID: u.ID, Username: u.Username, Roles: roles}, nil
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, p model.Principal) (*UserRecord, error) {
	if p.IsAnonymous() {
		return nil, model.ErrUnauthenticated
	}
	u, err := s.users.FindByID(ctx, p.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return s.record(ctx, u)
}

// List returns every user with its roles.
func (s *UserService) List(ctx context.Context, p model.Principal) ([]*UserRecord, error) {
	if err := check(ctx, "user.list", p, authz.ManageUsers(p)); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserRecord, 0, len(users))
	for _, u := range users {
		rec, err := s.record(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns user id or ErrNotFound.
func (s *UserService) Get(ctx context.Context, p model.Principal, id int64) (*UserRecord, error) {
	if err := check(ctx, "user.get", p, authz.ManageUsers(p)); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, u)
}

// Create adds an account with at least one role.
func (s *UserService) Create(ctx context.Context, p model.Principal, in CreateUserInput) (*UserRecord, error) {
	return s.create(ctx, p, in, true)
}

// Register adds an account whose role list may be empty.
func (s *UserService) Register(ctx context.Context, p model.Principal, in CreateUserInput) (*UserRecord, error) {
	return s.create(ctx, p, in, false)
}

func (s *UserService) create(ctx context.Context, p model.Principal, in CreateUserInput, needRole bool) (*UserRecord, error) {
	if err := check(ctx, "user.create", p, authz.ManageUsers(p)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Username) == "" {
		return nil, &model.ValidationError{Field: "userName", Message: "Username cannot be empty."}
	}
	// A taken name is reported before anything about the password or roles.
	if _, err := s.users.FindByUsername(ctx, strings.TrimSpace(in.Username)); err == nil {
		return nil, model.ErrDuplicateUsername
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	switch {
	case in.Password == "":
		return nil, &model.ValidationError{Field: "password", Message: "Password is required."}
	case needRole && len(in.Roles) == 0:
		return nil, &model.ValidationError{Field: "roles", Message: "At least one role is required."}
	}

	// Every role is resolved before anything is written.
	roles, err := s.roles.Resolve(ctx, in.Roles)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, in.Username, in.Password, roles)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("user created")
	audit(ctx, s.events, p, queue.AuditEvent{
		Action: queue.ActionUserCreated, EntityType: "user", EntityID: u.ID, Detail: u.Username,
	})
	return s.record(ctx, u)
}

// ReplaceRoles sets the roles of user id to exactly names.  An unknown
// role leaves the current roles untouched.
func (s *UserService) ReplaceRoles(ctx context.Context, p model.Principal, id int64, names []string) (*UserRecord, error) {
	if err := check(ctx, "user.roles", p, authz.ManageUsers(p)); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.roles.ReplaceAll(ctx, id, names); err != nil {
		return nil, err
	}
	audit(ctx, s.events, p, queue.AuditEvent{
		Action: queue.ActionUserRoles, EntityType: "user", EntityID: id, Detail: strings.Join(model.SortedRoles(names), ","),
	})
	return s.record(ctx, u)
}

// Delete removes user id, clears it as manager of any theater and ends
// its sessions.
func (s *UserService) Delete(ctx context.Context, p model.Principal, id int64) (*UserRecord, error) {
	if err := check(ctx, "user.delete", p, authz.ManageUsers(p)); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.users.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrNotFound
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", id).Msg("revoke sessions of deleted user")
	}
	audit(ctx, s.events, p, queue.AuditEvent{
		Action: queue.ActionUserDeleted, EntityType: "user", EntityID: id, Detail: u.Username,
	})
	return &UserRecord{ID: u.ID, Username: u.Username, Roles: []string{}}, nil
}
