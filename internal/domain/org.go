package domain

import "time"

// OrgFeatures are organization-level capability flags gating optional
// behaviors of the approval coordinator and seat allocator.
type OrgFeatures struct {
	SponsorPools     bool `json:"sponsor_pools"`
	Notifications    bool `json:"notifications"`
	MembershipMirror bool `json:"membership_mirror"`
}

type Organization struct {
	ID         int32       `json:"id"`
	Name       string      `json:"name"`
	Region     string      `json:"region"`
	AdminEmail string      `json:"admin_email"`
	Features   OrgFeatures `json:"features"`
	CreatedOn  time.Time   `json:"created_on"`
}
