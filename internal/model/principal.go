package model

// Principal is the resolved identity of the caller for a single request.
// It is derived from User, UserRole and Role at authentication time and is
// never persisted.  The role set is a snapshot: role changes made while a
// request is in flight do not affect it.
type Principal struct {
	UserID   int64
	Username string
	Roles    []string
}

// Anonymous is the principal of a caller that presented no valid session
// or credentials.
var Anonymous = Principal{}

// NewPrincipal builds a principal for an authenticated user.
func NewPrincipal(u *User, roles []string) Principal {
	return Principal{UserID: u.ID, Username: u.Username, Roles: SortedRoles(roles)}
}

// IsAnonymous reports whether no user is bound to the principal.
func (p Principal) IsAnonymous() bool { return p.UserID == 0 }

// HasRole reports whether name is in the principal's role set.
func (p Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (p Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }
