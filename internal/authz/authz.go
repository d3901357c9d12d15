// Package authz is the single authorization table for theater and user
// management.  Every function is pure: it looks only at the principal
// and, where relevant, the theater that was already loaded.  Services
// call these functions; handlers never make their own role checks.
package authz

import "github.com/iliyamo/theater-booking/internal/model"

// Decision is the outcome of a policy check.  Reason is a short label
// used for logs and metrics.
type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ReasonPublic    = "public"
	ReasonAdmin     = "admin"
	ReasonManager   = "manager"
	ReasonAnonymous = "anonymous"
	ReasonNoRole    = "missing_role"
	ReasonNotOwner  = "not_manager"
)

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Read decides whether p may list or view t.  Reading is public.
func Read(p model.Principal, t model.Theater) Decision {
	return allow(ReasonPublic)
}

// Create decides whether p may create a theater.
func Create(p model.Principal) Decision {
	return adminOnly(p)
}

// Update decides whether p may replace t.  Admins may modify any theater;
// otherwise only the manager named by t.ManagerID may.
func Update(p model.Principal, t model.Theater) Decision {
	if p.IsAdmin() {
		return allow(ReasonAdmin)
	}
	if p.IsAnonymous() {
		return deny(ReasonAnonymous)
	}
	if t.ManagedBy(p.UserID) {
		return allow(ReasonManager)
	}
	return deny(ReasonNotOwner)
}

// Delete decides whether p may delete a theater.
func Delete(p model.Principal) Decision {
	return adminOnly(p)
}

// ManageUsers decides whether p may list, create, delete or change the
// roles of user accounts.
func ManageUsers(p model.Principal) Decision {
	return adminOnly(p)
}

func adminOnly(p model.Principal) Decision {
	if p.IsAdmin() {
		return allow(ReasonAdmin)
	}
	if p.IsAnonymous() {
		return deny(ReasonAnonymous)
	}
	return deny(ReasonNoRole)
}

// Err converts a denied decision into the error the caller should see:
// ErrUnauthenticated for anonymous callers and ErrForbidden otherwise.
// It returns nil for an allowed decision.
func Err(d Decision) error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonAnonymous:
		return model.ErrUnauthenticated
	default:
		return model.ErrForbidden
	}
}
