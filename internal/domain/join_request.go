package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type JoinRequestStatus string

const (
	JoinRequestStatusSubmitted JoinRequestStatus = "SUBMITTED"
	JoinRequestStatusApproved  JoinRequestStatus = "APPROVED"
	JoinRequestStatusRejected  JoinRequestStatus = "REJECTED"
)

// JoinRequest is a self-serve request to join an organization, submitted
// against a shareable join code and awaiting admin review.
type JoinRequest struct {
	ID              int32             `json:"id"`
	OrgID           int32             `json:"org_id"`
	JoinCodeID      *int32            `json:"join_code_id,omitempty"`
	UserID          *int32            `json:"user_id,omitempty"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	Note            string            `json:"note,omitempty"`
	Status          JoinRequestStatus `json:"status"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Version         int32             `json:"version"`
	CreatedOn       time.Time         `json:"created_on"`
	ProcessedBy     *int32            `json:"processed_by,omitempty"`
	ProcessedOn     *time.Time        `json:"processed_on,omitempty"`
}

// JoinCode is an org-scoped shareable code that lets a user submit a
// JoinRequest. Codes expire and can be deactivated by an admin.
type JoinCode struct {
	ID        int32     `json:"id"`
	OrgID     int32     `json:"org_id"`
	Code      string    `json:"code"`
	CreatedBy int32     `json:"created_by"`
	Active    bool      `json:"active"`
	ExpiresOn time.Time `json:"expires_on"`
	CreatedOn time.Time `json:"created_on"`
}

// NewJoinCode returns a fresh shareable code value.
func NewJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// Usable reports whether the code can still accept join requests at now.
func (c *JoinCode) Usable(now time.Time) bool {
	return c.Active && now.Before(c.ExpiresOn)
}
