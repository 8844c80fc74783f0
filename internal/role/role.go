package role

import (
	roleDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/role"
	"github.com/frahmantamala/complaint-management/internal/core/common/validation"
)

type Role struct {
	RoleID int    `json:"role_id"`
	Name   string `json:"name"`
}

func FromDataModel(r *roleDatamodel.Role) *Role {
	return &Role{RoleID: r.RoleID, Name: r.Name}
}

type RoleDTO struct {
	Name string `json:"name"`
}

func (d RoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MinLength(2).MaxLength(50)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
