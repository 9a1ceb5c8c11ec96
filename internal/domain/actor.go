package domain

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// Actor identifies the authenticated user performing an operation, resolved
// by the control surface from its token claims.
type Actor struct {
	ID    int32  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the actor holds the admin capability required by
// approvals, rejections, suspensions and seat operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
