package domain

import "time"

// Audit actions, one per mutating operation of the engine.
const (
	AuditActionCreated      = "created"
	AuditActionSubmitted    = "submitted"
	AuditActionApproved     = "approved"
	AuditActionRejected     = "rejected"
	AuditActionSuspended    = "suspended"
	AuditActionSeatAssigned = "seat_assigned"
	AuditActionSeatRemoved  = "seat_removed"
)

// AuditLogEntry is an append-only history record keyed by the member's
// stable member code rather than the mutable record id. Entries are never
// mutated or deleted.
type AuditLogEntry struct {
	ID         int64     `json:"id"`
	OrgID      int32     `json:"org_id"`
	MemberCode string    `json:"member_code"`
	Action     string    `json:"action"`
	ActorID    int32     `json:"actor_id"`
	SeatType   SeatType  `json:"seat_type,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedOn  time.Time `json:"created_on"`
}
