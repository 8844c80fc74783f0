package complaint

import (
	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/common/validation"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
)

type CreateComplaintDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DeptID      int64  `json:"dept_id"`
	Severity    string `json:"severity"`
}

func (dto CreateComplaintDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MinLength(3).MaxLength(25)
	v.Field("description", dto.Description).Required().MinLength(10).MaxLength(100)
	v.Field("dept_id", dto.DeptID).Required()
	v.Field("severity", dto.Severity).Required().OneOf(severityNames(), internal.ErrCodeInvalidSeverity)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", dto.Status).Required().OneOf(statusNames(), internal.ErrCodeInvalidStatus)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ListQuery carries the optional filters of a listing request.
type ListQuery struct {
	Status   string
	Severity string
	DeptID   int64
	Limit    int
	Offset   int
}

func (q ListQuery) Validate() error {
	v := validation.NewValidator()
	v.Field("status", q.Status).OneOf(statusNames(), internal.ErrCodeInvalidStatus)
	v.Field("severity", q.Severity).OneOf(severityNames(), internal.ErrCodeInvalidSeverity)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func statusNames() []string {
	var names []string
	for _, s := range workflow.Statuses() {
		names = append(names, string(s))
	}
	return names
}

func severityNames() []string {
	var names []string
	for _, s := range workflow.Severities() {
		names = append(names, string(s))
	}
	return names
}
