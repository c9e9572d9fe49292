package models

import "time"

// Admin roles known to the console. Unknown roles are treated as regular admins.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
)

// AdminAccount is a console operator account managed from the admins screen.
type AdminAccount struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	Status      string     `json:"status,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Extra       Extra      `json:"-"`
}

func (a AdminAccount) RecordID() string { return a.ID }

func (a *AdminAccount) UnmarshalJSON(b []byte) error {
	type alias AdminAccount
	return decodeRecord(b, (*alias)(a), &a.Extra)
}

func (a AdminAccount) MarshalJSON() ([]byte, error) {
	type alias AdminAccount
	return encodeRecord(alias(a), a.Extra)
}

// AdminProfile is the signed-in operator as cached in the session.
type AdminProfile struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the operator holds perm. Super admins hold all.
func (p AdminProfile) HasPermission(perm string) bool {
	if p.Role == RoleSuperAdmin || perm == "" {
		return true
	}
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}
