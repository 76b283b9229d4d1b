package models

import "time"

// AuditAction labels recorded auth events.
type AuditAction string

const (
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionLogout        AuditAction = "LOGOUT"
	AuditActionPasswordReset AuditAction = "PASSWORD_RESET"
)

// AuditLog records an auth event for later review. Failures to write audit
// rows are logged and never fail the request.
type AuditLog struct {
	ID        string      `db:"id" json:"id"`
	ActorID   *string     `db:"actor_id" json:"actor_id,omitempty"`
	Role      Role        `db:"role" json:"role"`
	Action    AuditAction `db:"action" json:"action"`
	IPAddress string      `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string      `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
