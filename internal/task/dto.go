package task

import (
	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/common/validation"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
)

type CreateTaskDTO struct {
	ComplaintID int64  `json:"complaint_id"`
	Description string `json:"description"`
}

func (dto CreateTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("complaint_id", dto.ComplaintID).Required()
	v.Field("description", dto.Description).Required().MinLength(10).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateTaskDTO struct {
	Description string `json:"description"`
}

func (dto UpdateTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("description", dto.Description).Required().MinLength(10).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListQuery struct {
	Status string
	Limit  int
	Offset int
}

func (q ListQuery) Validate() error {
	v := validation.NewValidator()
	v.Field("status", q.Status).OneOf([]string{string(workflow.TaskPending), string(workflow.TaskCompleted)}, internal.ErrCodeInvalidStatus)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
