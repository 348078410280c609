package domain

// Role type to distinguish between API users
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleParent Role = "parent"
)

// User is an authenticated caller of the API. Admins are configured, parents
// are identified by the student whose portal credentials they used.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	StudentID string `json:"studentId,omitempty"` // parents only
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsParent() bool {
	return u.Role == RoleParent
}
