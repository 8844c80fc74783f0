package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
)

// User is the administrative view of an account. Credentials never leave the
// repository layer.
type User struct {
	EmpID     int64     `json:"emp_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	DeptID    int64     `json:"dept_id"`
	RoleID    int       `json:"role_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsSuperadmin() bool {
	return identity.Role(u.RoleID) == identity.RoleSuperadmin
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		EmpID:     u.EmpID,
		Name:      u.Name,
		Email:     u.Email,
		DeptID:    u.DeptID,
		RoleID:    u.RoleID,
		Role:      identity.Role(u.RoleID).String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type ListFilter struct {
	DeptID int64
	RoleID int
	Limit  int
	Offset int
}

type Page struct {
	Users []*User `json:"users"`
	Total int64   `json:"total"`
}

// Changes lists the columns an admin update touches; nil means unchanged.
type Changes struct {
	Name   *string
	DeptID *int64
	RoleID *int
	// ClearRefreshToken ends the user's session.
	ClearRefreshToken bool
}
