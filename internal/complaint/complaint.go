package complaint

import (
	"time"

	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	taskDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
	"github.com/frahmantamala/complaint-management/internal/policy"
)

type Complaint struct {
	ComplaintID int64                    `json:"complaint_id"`
	EmpID       int64                    `json:"emp_id"`
	DeptID      int64                    `json:"dept_id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Severity    workflow.Severity        `json:"severity"`
	Status      workflow.ComplaintStatus `json:"status"`
	StatusBy    *int64                   `json:"status_by"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Tasks       []Task                   `json:"tasks,omitempty"`
}

// Task is the read-only view of a subadmin task attached to a complaint.
type Task struct {
	TaskID      int64               `json:"task_id"`
	EmpID       int64               `json:"emp_id"`
	Description string              `json:"description"`
	Status      workflow.TaskStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

func (c *Complaint) Target() *policy.Target {
	return &policy.Target{OwnerID: c.EmpID, DeptID: c.DeptID}
}

func ToDataModel(c *Complaint) *complaintDatamodel.Complaint {
	return &complaintDatamodel.Complaint{
		ComplaintID: c.ComplaintID,
		EmpID:       c.EmpID,
		DeptID:      c.DeptID,
		Title:       c.Title,
		Description: c.Description,
		Severity:    string(c.Severity),
		Status:      string(c.Status),
		StatusBy:    c.StatusBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromDataModel(c *complaintDatamodel.Complaint) *Complaint {
	return &Complaint{
		ComplaintID: c.ComplaintID,
		EmpID:       c.EmpID,
		DeptID:      c.DeptID,
		Title:       c.Title,
		Description: c.Description,
		Severity:    workflow.Severity(c.Severity),
		Status:      workflow.ComplaintStatus(c.Status),
		StatusBy:    c.StatusBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func taskFromDataModel(t *taskDatamodel.SubadminTask) Task {
	return Task{
		TaskID:      t.TaskID,
		EmpID:       t.EmpID,
		Description: t.Description,
		Status:      workflow.TaskStatus(t.Status),
		CreatedAt:   t.CreatedAt,
	}
}

// ListFilter narrows a listing. Scope comes from the policy decision and is
// always applied; the other fields are caller-supplied refinements.
type ListFilter struct {
	Scope    *policy.ScopeFilter
	Status   string
	Severity string
	DeptID   int64
	Limit    int
	Offset   int
}

type Page struct {
	Complaints []*Complaint `json:"complaints"`
	Total      int64        `json:"total"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
}
