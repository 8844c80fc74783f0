package department

import (
	"github.com/frahmantamala/complaint-management/internal/core/common/validation"
)

type DepartmentDTO struct {
	Name string `json:"name"`
}

func (d DepartmentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MinLength(2).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
