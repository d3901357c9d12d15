package model

import (
	"sort"
	"strings"
	"time"
)

// Well-known role names.  Both roles are created at bootstrap and are
// never removed by normal operation.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User represents an application user record as stored in the
// `users` table.  The password hash is never exposed outside the
// credential store; handlers render users through their own DTOs.
//
// Fields:
//  ID                 – primary key identifier of the user.
//  Username           – user name as it was registered (immutable).
//  NormalizedUsername – upper-cased user name used for case-insensitive lookups.
//  PasswordHash       – bcrypt hashed password.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type User struct {
	ID                 int64     // users.id
	Username           string    // users.username
	NormalizedUsername string    // users.normalized_username
	PasswordHash       string    // users.password_hash
	CreatedAt          time.Time // users.created_at
	UpdatedAt          time.Time // users.updated_at
}

// Role represents a row in the `roles` table.
//
// Fields:
//  ID   – numeric identifier of the role.
//  Name – unique role name (e.g. Admin, User).
type Role struct {
	ID   int64  // roles.id
	Name string // roles.name
}

// UserRole models an entry in the `user_roles` association table.  The
// pair (UserID, RoleID) is the primary key; rows disappear when either
// side is deleted.
type UserRole struct {
	UserID int64 // user_roles.user_id
	RoleID int64 // user_roles.role_id
}

// NormalizeUsername returns the lookup key for a user name.
func NormalizeUsername(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// SortedRoles returns a sorted copy of names with duplicates removed.
func SortedRoles(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
