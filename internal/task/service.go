package task

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
	GetByID(ctx context.Context, taskID int64) (*taskDatamodel.SubadminTask, error)
	GetComplaint(ctx context.Context, complaintID int64) (*complaintDatamodel.Complaint, error)
	Exists(ctx context.Context, empID, complaintID int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*taskDatamodel.SubadminTask, int64, error)
	// CreateForComplaint inserts t and moves its complaint to InProgress in
	// one transaction.
	CreateForComplaint(ctx context.Context, t *taskDatamodel.SubadminTask) error
	UpdateDescription(ctx context.Context, taskID int64, description string) error
	// Complete marks the task completed and its complaint Complete in one
	// transaction. Neither row changes if either write fails or the
	// complaint was closed in the meantime.
	Complete(ctx context.Context, taskID, complaintID, statusBy int64) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, empID int64, action, description, module string)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	activity  ActivityRecorder
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, activity ActivityRecorder, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		activity:  activity,
		publisher: publisher,
		logger:    logger,
	}
}

// AddTask records a subadmin's first response to a complaint in their
// department and moves the complaint to InProgress.
func (s *Service) AddTask(ctx context.Context, p identity.Principal, dto CreateTaskDTO) (*Task, error) {
	if err := policy.Gate(p, policy.ActionTaskCreate).Err(); err != nil {
		return nil, err
	}
	dto.Description = strings.TrimSpace(dto.Description)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.complaintInDepartment(ctx, p, dto.ComplaintID)
	if err != nil {
		return nil, err
	}
	from := workflow.ComplaintStatus(c.Status)
	if err := workflow.Transition(from, workflow.StatusInProgress); err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, p.EmpID, c.ComplaintID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, internal.ErrTaskExists
	}

	row := &taskDatamodel.SubadminTask{
		EmpID:       p.EmpID,
		ComplaintID: c.ComplaintID,
		Description: dto.Description,
		Status:      string(workflow.TaskPending),
	}
	if err := s.repo.CreateForComplaint(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create task", "error", err, "complaint_id", c.ComplaintID)
		return nil, err
	}

	metrics.RecordTaskCreated()
	if from != workflow.StatusInProgress {
		metrics.RecordStatusChange(string(from), string(workflow.StatusInProgress))
	}
	s.logger.InfoContext(ctx, "task created",
		"task_id", row.TaskID,
		"complaint_id", c.ComplaintID,
		"emp_id", p.EmpID)

	s.publish(ctx, events.NewTaskAssignedEvent(row.TaskID, c.ComplaintID, c.EmpID, p.EmpID, c.Title, row.Description))
	s.activity.Record(ctx, p.EmpID, "create_task", "Created task on complaint "+c.Title, "task")

	return FromDataModel(row), nil
}

// UpdateTask edits the description of the caller's own task. The complaint
// status is untouched.
func (s *Service) UpdateTask(ctx context.Context, p identity.Principal, taskID int64, dto UpdateTaskDTO) (*Task, error) {
	if err := policy.Gate(p, policy.ActionTaskUpdate).Err(); err != nil {
		return nil, err
	}
	dto.Description = strings.TrimSpace(dto.Description)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.ownTask(ctx, p, policy.ActionTaskUpdate, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.complaintInDepartment(ctx, p, t.ComplaintID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDescription(ctx, taskID, dto.Description); err != nil {
		return nil, err
	}
	t.Description = dto.Description

	s.activity.Record(ctx, p.EmpID, "update_task", "Updated task description", "task")
	return t, nil
}

// CompleteTask closes the caller's task and completes its complaint.
// Completing an already completed task changes nothing.
func (s *Service) CompleteTask(ctx context.Context, p identity.Principal, taskID int64) (*Task, error) {
	if err := policy.Gate(p, policy.ActionTaskComplete).Err(); err != nil {
		return nil, err
	}

	t, err := s.ownTask(ctx, p, policy.ActionTaskComplete, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status == workflow.TaskCompleted {
		return t, nil
	}

	c, err := s.complaintInDepartment(ctx, p, t.ComplaintID)
	if err != nil {
		return nil, err
	}
	from := workflow.ComplaintStatus(c.Status)
	if err := workflow.Transition(from, workflow.StatusComplete); err != nil {
		return nil, err
	}

	if err := s.repo.Complete(ctx, t.TaskID, c.ComplaintID, p.EmpID); err != nil {
		s.logger.ErrorContext(ctx, "failed to complete task", "error", err, "task_id", taskID)
		return nil, err
	}
	t.Status = workflow.TaskCompleted

	s.logger.InfoContext(ctx, "task completed", "task_id", taskID, "complaint_id", c.ComplaintID)
	if from != workflow.StatusComplete {
		metrics.RecordStatusChange(string(from), string(workflow.StatusComplete))
		s.publish(ctx, events.NewComplaintStatusChangedEvent(c.ComplaintID, c.EmpID, c.Title,
			string(from), string(workflow.StatusComplete), p.EmpID))
	}
	s.activity.Record(ctx, p.EmpID, "complete_task", "Completed task on complaint "+c.Title, "task")

	return t, nil
}

// ListMine returns the caller's own tasks.
func (s *Service) ListMine(ctx context.Context, p identity.Principal, q ListQuery) (*Page, error) {
	decision := policy.Authorize(p, policy.ActionTaskList, nil)
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, total, err := s.repo.List(ctx, ListFilter{Scope: decision.Filter, Status: q.Status, Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		return nil, err
	}
	tasks := make([]*Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, FromDataModel(row))
	}
	return &Page{Tasks: tasks, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *Service) complaintInDepartment(ctx context.Context, p identity.Principal, complaintID int64) (*complaintDatamodel.Complaint, error) {
	c, err := s.repo.GetComplaint(ctx, complaintID)
	if err != nil {
		if errors.Is(err, internal.ErrComplaintNotFound) {
			return nil, internal.ErrComplaintNotInDepartment
		}
		return nil, err
	}
	target := &policy.Target{OwnerID: c.EmpID, DeptID: c.DeptID}
	if err := policy.Authorize(p, policy.ActionTaskCreate, target).Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ownTask(ctx context.Context, p identity.Principal, action policy.Action, taskID int64) (*Task, error) {
	row, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	t := FromDataModel(row)
	if err := policy.Authorize(p, action, t.Target()).Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
