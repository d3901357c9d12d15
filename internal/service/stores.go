// Package service holds the application use cases.  Services are the only
// callers of the authorization table; they receive the request principal
// and talk to the stores through the interfaces below.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
	"github.com/iliyamo/theater-booking/internal/repository"
)

// CredentialStore is implemented by repository.UserRepo.
type CredentialStore interface {
	FindByUsername(ctx context.Context, name string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, username, password string, roles []model.Role) (*model.User, error)
	Verify(u *model.User, password string) bool
	ChangePassword(ctx context.Context, id int64, password string) error
	Delete(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// RoleRegistry is implemented by repository.RoleRepo.
type RoleRegistry interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) (*model.Role, error)
	Resolve(ctx context.Context, names []string) ([]model.Role, error)
	Assign(ctx context.Context, userID int64, name string) error
	RevokeAll(ctx context.Context, userID int64) error
	ReplaceAll(ctx context.Context, userID int64, names []string) error
	RolesOf(ctx context.Context, userID int64) ([]string, error)
}

// TheaterStore is implemented by repository.TheaterRepo.
type TheaterStore interface {
	List(ctx context.Context) ([]*model.Theater, error)
	Get(ctx context.Context, id int64) (*model.Theater, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, t model.Theater) (*model.Theater, error)
	Update(ctx context.Context, id int64, fn repository.UpdateFunc) (*model.Theater, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// SessionStore keeps server-side session records.  Implemented by
// session.RedisStore and repository.SessionRepo.
type SessionStore interface {
	Create(ctx context.Context, sid string, userID int64, exp time.Time) error
	Lookup(ctx context.Context, sid string) (int64, error)
	Revoke(ctx context.Context, sid string) error
	RevokeAll(ctx context.Context, userID int64) error
}

// audit publishes ev on behalf of p.  A failed publish is logged and
// otherwise ignored.
func audit(ctx context.Context, pub queue.Publisher, p model.Principal, ev queue.AuditEvent) {
	if pub == nil {
		return
	}
	ev.ActorID = p.UserID
	ev.Actor = p.Username
	if err := pub.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", ev.Action).Msg("audit event dropped")
	}
}
