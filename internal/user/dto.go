package user

import (
	"fmt"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/common/validation"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
)

type CreateSubadminDTO struct {
	EmpID    int64  `json:"emp_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DeptID   int64  `json:"dept_id"`
}

func (d CreateSubadminDTO) Validate(emailDomain string) error {
	v := validation.NewValidator()
	v.Field("emp_id", d.EmpID).Required().Between(100, 999, internal.ErrCodeInvalidEmpID)
	v.Field("name", d.Name).Required().MinLength(2).MaxLength(100)
	v.Field("email", d.Email).Required().Email(emailDomain)
	v.Field("password", d.Password).Required().MinLength(6)
	v.Field("dept_id", d.DeptID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateUserDTO holds optional changes; omitted fields stay as they are.
type UpdateUserDTO struct {
	Name   *string `json:"name"`
	DeptID *int64  `json:"dept_id"`
	RoleID *int    `json:"role_id"`
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MinLength(2).MaxLength(100)
	}
	if d.DeptID != nil {
		v.Field("dept_id", *d.DeptID).Required()
	}
	if d.RoleID != nil {
		v.Field("role_id", *d.RoleID).Custom(func(value interface{}) *internal.AppError {
			r := identity.Role(value.(int))
			if r == identity.RoleSubadmin || r == identity.RoleUser {
				return nil
			}
			return internal.NewValidationFieldError("role_id",
				fmt.Sprintf("role_id must be %d or %d", identity.RoleSubadmin, identity.RoleUser), internal.ErrCodeInvalidRole)
		})
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
