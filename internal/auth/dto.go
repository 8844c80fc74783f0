package auth

import (
	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/common/validation"
)

const minPasswordLength = 6

type RegisterDTO struct {
	EmpID    int64  `json:"emp_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DeptID   int64  `json:"dept_id"`
}

// Validate checks the registration form; emailDomain is the required suffix.
func (d RegisterDTO) Validate(emailDomain string) error {
	v := validation.NewValidator()
	v.Field("emp_id", d.EmpID).Required().Between(100, 999, internal.ErrCodeInvalidEmpID)
	v.Field("name", d.Name).Required().MinLength(2).MaxLength(100)
	v.Field("email", d.Email).Required().Email(emailDomain)
	v.Field("password", d.Password).Required().MinLength(minPasswordLength)
	v.Field("dept_id", d.DeptID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateProfileDTO changes the caller's name and, optionally, password.
// A password change needs the current password.
type UpdateProfileDTO struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (d UpdateProfileDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != "" {
		v.Field("name", d.Name).MinLength(2).MaxLength(100)
	}
	if d.NewPassword != "" {
		v.Field("current_password", d.CurrentPassword).Required()
		v.Field("new_password", d.NewPassword).MinLength(minPasswordLength)
	}
	if d.Name == "" && d.NewPassword == "" {
		v.Field("name", d.Name).Required()
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
