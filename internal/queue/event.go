// Package queue carries audit events over RabbitMQ: a publisher used by the
// services after every successful mutation and a background consumer that
// appends them to an audit log file.
package queue

import "time"

// Audit actions.
const (
	ActionTheaterCreated  = "theater.created"
	ActionTheaterUpdated  = "theater.updated"
	ActionTheaterDeleted  = "theater.deleted"
	ActionUserCreated     = "user.created"
	ActionUserDeleted     = "user.deleted"
	ActionUserRoles       = "user.roles_replaced"
	ActionPasswordChanged = "user.password_changed"
	ActionLogin           = "session.login"
	ActionLogout          = "session.logout"
)

// AuditEvent describes one successful state change.  It contains enough
// information for the consumer to log it without querying the database.
type AuditEvent struct {
	Action     string    `json:"action"`
	ActorID    int64     `json:"actor_id"`
	Actor      string    `json:"actor"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
