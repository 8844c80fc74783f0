package task

import (
	"time"

	taskDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
	"github.com/frahmantamala/complaint-management/internal/policy"
)

type Task struct {
	TaskID      int64               `json:"task_id"`
	EmpID       int64               `json:"emp_id"`
	ComplaintID int64               `json:"complaint_id"`
	Description string              `json:"description"`
	Status      workflow.TaskStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (t *Task) Target() *policy.Target {
	return &policy.Target{OwnerID: t.EmpID}
}

func FromDataModel(t *taskDatamodel.SubadminTask) *Task {
	return &Task{
		TaskID:      t.TaskID,
		EmpID:       t.EmpID,
		ComplaintID: t.ComplaintID,
		Description: t.Description,
		Status:      workflow.TaskStatus(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type ListFilter struct {
	Scope  *policy.ScopeFilter
	Status string
	Limit  int
	Offset int
}

type Page struct {
	Tasks  []*Task `json:"tasks"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
