package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	MemberStatusDraft     MemberStatus = "DRAFT"
	MemberStatusSubmitted MemberStatus = "SUBMITTED"
	MemberStatusActive    MemberStatus = "ACTIVE"
	MemberStatusRejected  MemberStatus = "REJECTED"
	MemberStatusSuspended MemberStatus = "SUSPENDED"
)

type SeatType string

const (
	SeatTypeNone      SeatType = "NONE"
	SeatTypePaid      SeatType = "PAID"
	SeatTypeSponsored SeatType = "SPONSORED"
)

// memberTransitions is the lifecycle state machine. REJECTED and SUSPENDED
// are terminal.
var memberTransitions = map[MemberStatus][]MemberStatus{
	MemberStatusDraft:     {MemberStatusSubmitted},
	MemberStatusSubmitted: {MemberStatusActive, MemberStatusRejected},
	MemberStatusActive:    {MemberStatusSuspended},
}

// CanTransitionTo reports whether the state machine allows moving from s to
// target.
func (s MemberStatus) CanTransitionTo(target MemberStatus) bool {
	for _, allowed := range memberTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// EnsureTransition returns ErrInvalidState when the move is not allowed.
func (s MemberStatus) EnsureTransition(target MemberStatus) error {
	if !s.CanTransitionTo(target) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, s, target)
	}
	return nil
}

// Member is one farmer's membership record within an organization. UserID is
// a weak reference into the external user directory; members created through
// the staff intake may have none.
type Member struct {
	ID         int32  `json:"id"`
	OrgID      int32  `json:"org_id"`
	MemberCode string `json:"member_code"`
	UserID     *int32 `json:"user_id,omitempty"`

	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`

	Province string `json:"province"`
	District string `json:"district"`
	Village  string `json:"village"`

	FarmName      string  `json:"farm_name"`
	FarmSizeAcres float64 `json:"farm_size_acres"`
	PrimaryCrop   string  `json:"primary_crop"`

	BankName          string `json:"bank_name"`
	BankAccountNumber string `json:"bank_account_number"`

	IDFrontURL       string   `json:"id_front_url"`
	IDBackURL        string   `json:"id_back_url"`
	FinancialDocURLs []string `json:"financial_doc_urls"`

	Status        MemberStatus `json:"status"`
	SeatType      SeatType     `json:"seat_type"`
	SponsorPoolID *int32       `json:"sponsor_pool_id,omitempty"`

	IdentityChecked  bool `json:"identity_checked"`
	LocationChecked  bool `json:"location_checked"`
	FarmChecked      bool `json:"farm_checked"`
	FinancialChecked bool `json:"financial_checked"`

	VerifiedBy      *int32     `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	Version   int32     `json:"version"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// ValidateForSubmission is the completeness gate a draft must pass before it
// can be submitted for review. The missing-field list is reported in a fixed
// order so the error message is stable.
func (m *Member) ValidateForSubmission() error {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", m.FirstName},
		{"phone", m.Phone},
		{"email", m.Email},
		{"national_id", m.NationalID},
		{"province", m.Province},
		{"district", m.District},
		{"village", m.Village},
		{"farm_name", m.FarmName},
		{"primary_crop", m.PrimaryCrop},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if m.IDFrontURL == "" || m.IDBackURL == "" {
		missing = append(missing, "identity documents")
	}
	if len(m.FinancialDocURLs) == 0 {
		missing = append(missing, "financial documents")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// NewMemberCode mints the stable external identifier assigned at creation
// and never changed afterwards.
func NewMemberCode() string {
	return "MBR-" + strings.ToUpper(uuid.NewString()[:8])
}

func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
