package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/authz"
	"github.com/iliyamo/theater-booking/internal/metrics"
	"github.com/iliyamo/theater-booking/internal/model"
	"github.com/iliyamo/theater-booking/internal/queue"
)

// TheaterService implements theater CRUD on behalf of a principal.
type TheaterService struct {
	theaters TheaterStore
	events   queue.Publisher
}

func NewTheaterService(theaters TheaterStore, events queue.Publisher) *TheaterService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &TheaterService{theaters: theaters, events: events}
}

func check(ctx context.Context, action string, p model.Principal, d authz.Decision) error {
	metrics.RecordAuthz(action, d.Allowed, d.Reason)
	if !d.Allowed {
		zerolog.Ctx(ctx).Info().
			Str("action", action).
			Int64("user_id", p.UserID).
			Str("reason", d.Reason).
			Msg("access denied")
	}
	return authz.Err(d)
}

// List returns every theater the caller may read, which is all of them.
func (s *TheaterService) List(ctx context.Context, p model.Principal) ([]*model.Theater, error) {
	all, err := s.theaters.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Theater, 0, len(all))
	for _, t := range all {
		if authz.Read(p, *t).Allowed {
			out = append(out, t)
		}
	}
	metrics.RecordAuthz("theater.read", true, authz.ReasonPublic)
	return out, nil
}

// Get returns one theater or ErrNotFound.
func (s *TheaterService) Get(ctx context.Context, p model.Principal, id int64) (*model.Theater, error) {
	t, err := s.theaters.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := check(ctx, "theater.read", p, authz.Read(p, *t)); err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts t.  Only admins may create theaters.  Any id on t is ignored.
func (s *TheaterService) Create(ctx context.Context, p model.Principal, t model.Theater) (*model.Theater, error) {
	if err := check(ctx, "theater.create", p, authz.Create(p)); err != nil {
		return nil, err
	}
	t.ID = 0
	created, err := s.theaters.Insert(ctx, t)
	if err != nil {
		return nil, err
	}
	audit(ctx, s.events, p, queue.AuditEvent{
		Action: queue.ActionTheaterCreated, EntityType: "theater", EntityID: created.ID, Detail: created.Name,
	})
	return created, nil
}

// Update replaces theater id with next.  The caller must be an admin or
// the theater's current manager; the check is made against the locked row.
// Errors come in this order: ErrUnauthenticated, validation, ErrNotFound,
// ErrForbidden, ErrInvalidManager.
func (s *TheaterService) Update(ctx context.Context, p model.Principal, id int64, next model.Theater) (*model.Theater, error) {
	if p.IsAnonymous() {
		return nil, check(ctx, "theater.update", p, authz.Update(p, model.Theater{}))
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.theaters.Update(ctx, id, func(current model.Theater) (model.Theater, error) {
		if err := check(ctx, "theater.update", p, authz.Update(p, current)); err != nil {
			return model.Theater{}, err
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	audit(ctx, s.events, p, queue.AuditEvent{
		Action: queue.ActionTheaterUpdated, EntityType: "theater", EntityID: updated.ID, Detail: updated.Name,
	})
	return updated, nil
}

// Delete removes theater id.  Only admins may delete; the permission is
// checked before existence.
func (s *TheaterService) Delete(ctx context.Context, p model.Principal, id int64) error {
	if err := check(ctx, "theater.delete", p, authz.Delete(p)); err != nil {
		return err
	}
	ok, err := s.theaters.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotFound
	}
	audit(ctx, s.events, p, queue.AuditEvent{Action: queue.ActionTheaterDeleted, EntityType: "theater", EntityID: id})
	return nil
}
