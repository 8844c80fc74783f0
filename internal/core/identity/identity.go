package identity

import "fmt"

type Role int

const (
	RoleSuperadmin Role = 1
	RoleSubadmin   Role = 2
	RoleUser       Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleSuperadmin:
		return "superadmin"
	case RoleSubadmin:
		return "subadmin"
	case RoleUser:
		return "user"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

func (r Role) Valid() bool {
	return r == RoleSuperadmin || r == RoleSubadmin || r == RoleUser
}

// Principal is the authenticated caller as carried by the access token.
// It is built once per request and passed by value.
type Principal struct {
	EmpID  int64  `json:"emp_id"`
	Email  string `json:"email"`
	RoleID Role   `json:"role_id"`
	DeptID int64  `json:"dept_id"`
}

func (p Principal) Authenticated() bool {
	return p.EmpID != 0 && p.RoleID.Valid()
}

func (p Principal) Is(r Role) bool {
	return p.RoleID == r
}
