package complaint

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/complaint-management/internal"
	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	taskDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	"github.com/frahmantamala/complaint-management/internal/core/events"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
	"github.com/frahmantamala/complaint-management/internal/policy"
	"github.com/frahmantamala/complaint-management/pkg/metrics"
)

type RepositoryAPI interface {
	Create(ctx context.Context, c *complaintDatamodel.Complaint) error
	GetByID(ctx context.Context, id int64) (*complaintDatamodel.Complaint, error)
	List(ctx context.Context, filter ListFilter) ([]*complaintDatamodel.Complaint, int64, error)
	UpdateStatus(ctx context.Context, id int64, status workflow.ComplaintStatus, statusBy int64) error
	TasksFor(ctx context.Context, complaintID int64) ([]*taskDatamodel.SubadminTask, error)
}

type DepartmentChecker interface {
	Exists(ctx context.Context, deptID int64) (bool, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, empID int64, action, description, module string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo        RepositoryAPI
	departments DepartmentChecker
	activity    ActivityRecorder
	publisher   EventPublisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, departments DepartmentChecker, activity ActivityRecorder, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		activity:    activity,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create files a complaint against a department. New complaints always start
// Pending with no status author.
func (s *Service) Create(ctx context.Context, p identity.Principal, dto CreateComplaintDTO) (*Complaint, error) {
	if err := policy.Authorize(p, policy.ActionComplaintCreate, nil).Err(); err != nil {
		return nil, err
	}

	dto.Title = strings.TrimSpace(dto.Title)
	dto.Description = strings.TrimSpace(dto.Description)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.departments.Exists(ctx, dto.DeptID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.ErrDepartmentNotFound
	}

	row := &complaintDatamodel.Complaint{
		EmpID:       p.EmpID,
		DeptID:      dto.DeptID,
		Title:       dto.Title,
		Description: dto.Description,
		Severity:    dto.Severity,
		Status:      string(workflow.StatusPending),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create complaint", "error", err, "emp_id", p.EmpID)
		return nil, err
	}

	metrics.RecordComplaintCreated(row.Severity)
	s.logger.InfoContext(ctx, "complaint created",
		"complaint_id", row.ComplaintID,
		"dept_id", row.DeptID,
		"severity", row.Severity)

	s.publish(ctx, events.NewComplaintCreatedEvent(row.ComplaintID, row.EmpID, row.DeptID, row.Title, row.Severity))
	s.activity.Record(ctx, p.EmpID, "create_complaint", "Created complaint "+row.Title, "complaint")

	return FromDataModel(row), nil
}

// List returns the complaints visible to p: everything for a superadmin, the
// department for a subadmin and the caller's own for a user.
func (s *Service) List(ctx context.Context, p identity.Principal, q ListQuery) (*Page, error) {
	return s.list(ctx, p, policy.ActionComplaintList, q)
}

// DepartmentList is the subadmin's view of their department's complaints.
func (s *Service) DepartmentList(ctx context.Context, p identity.Principal, q ListQuery) (*Page, error) {
	return s.list(ctx, p, policy.ActionDepartmentComplaints, q)
}

func (s *Service) list(ctx context.Context, p identity.Principal, action policy.Action, q ListQuery) (*Page, error) {
	decision := policy.Authorize(p, action, nil)
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter := ListFilter{
		Scope:    decision.Filter,
		Status:   q.Status,
		Severity: q.Severity,
		DeptID:   q.DeptID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	complaints := make([]*Complaint, 0, len(rows))
	for _, row := range rows {
		complaints = append(complaints, FromDataModel(row))
	}
	return &Page{Complaints: complaints, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// Get returns a single complaint with its tasks. Complaints outside the
// caller's scope are reported as missing.
func (s *Service) Get(ctx context.Context, p identity.Principal, id int64) (*Complaint, error) {
	if err := policy.Gate(p, policy.ActionComplaintView).Err(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c := FromDataModel(row)
	if err := policy.Authorize(p, policy.ActionComplaintView, c.Target()).Err(); err != nil {
		return nil, err
	}

	tasks, err := s.repo.TasksFor(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Tasks = make([]Task, 0, len(tasks))
	for _, t := range tasks {
		c.Tasks = append(c.Tasks, taskFromDataModel(t))
	}
	return c, nil
}

// UpdateStatus moves a complaint along the workflow and records who did it.
func (s *Service) UpdateStatus(ctx context.Context, p identity.Principal, id int64, dto UpdateStatusDTO) (*Complaint, error) {
	if err := policy.Gate(p, policy.ActionComplaintUpdateStatus).Err(); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrComplaintNotFound) && p.Is(identity.RoleSubadmin) {
			return nil, internal.ErrComplaintNotInDepartment
		}
		return nil, err
	}
	c := FromDataModel(row)
	if err := policy.Authorize(p, policy.ActionComplaintUpdateStatus, c.Target()).Err(); err != nil {
		return nil, err
	}

	from := c.Status
	to := workflow.ComplaintStatus(dto.Status)
	if err := workflow.Transition(from, to); err != nil {
		s.logger.InfoContext(ctx, "status transition refused",
			"complaint_id", id, "from", from, "to", to)
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, to, p.EmpID); err != nil {
		return nil, err
	}
	c.Status = to
	c.StatusBy = &p.EmpID

	s.logger.InfoContext(ctx, "complaint status updated",
		"complaint_id", id, "from", from, "to", to, "by", p.EmpID)

	if from != to {
		metrics.RecordStatusChange(string(from), string(to))
		s.publish(ctx, events.NewComplaintStatusChangedEvent(c.ComplaintID, c.EmpID, c.Title, string(from), string(to), p.EmpID))
	}
	s.activity.Record(ctx, p.EmpID, "update_complaint_status",
		"Changed complaint "+c.Title+" from "+string(from)+" to "+string(to), "complaint")

	return c, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
