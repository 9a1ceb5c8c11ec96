package domain

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// MemberApplication is a staff-submitted candidate member. It carries a full
// draft Member payload and stays a distinct record until approval
// materializes (or updates) the corresponding Member.
type MemberApplication struct {
	ID              int32             `json:"id"`
	OrgID           int32             `json:"org_id"`
	SubmittedBy     int32             `json:"submitted_by"`
	Status          ApplicationStatus `json:"status"`
	Member          Member            `json:"member"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Version         int32             `json:"version"`
	CreatedOn       time.Time         `json:"created_on"`
	ProcessedBy     *int32            `json:"processed_by,omitempty"`
	ProcessedOn     *time.Time        `json:"processed_on,omitempty"`
}
