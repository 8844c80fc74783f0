package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	taskDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
	"github.com/frahmantamala/complaint-management/internal/policy"
	"github.com/frahmantamala/complaint-management/internal/task"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.RepositoryAPI {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*taskDatamodel.SubadminTask, error) {
	var t taskDatamodel.SubadminTask
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTaskNotFound
		}
		return nil, internal.NewInternalError("failed to get task", err)
	}
	return &t, nil
}

func (r *TaskRepository) GetComplaint(ctx context.Context, complaintID int64) (*complaintDatamodel.Complaint, error) {
	var c complaintDatamodel.Complaint
	if err := r.db.WithContext(ctx).Where("complaint_id = ?", complaintID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrComplaintNotFound
		}
		return nil, internal.NewInternalError("failed to get complaint", err)
	}
	return &c, nil
}

func (r *TaskRepository) Exists(ctx context.Context, empID, complaintID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&taskDatamodel.SubadminTask{}).
		Where("emp_id = ? AND complaint_id = ?", empID, complaintID).
		Count(&count).Error
	if err != nil {
		return false, internal.NewInternalError("failed to check task", err)
	}
	return count > 0, nil
}

func (r *TaskRepository) List(ctx context.Context, filter task.ListFilter) ([]*taskDatamodel.SubadminTask, int64, error) {
	q := r.db.WithContext(ctx).Model(&taskDatamodel.SubadminTask{})
	if filter.Scope != nil {
		if filter.Scope.Field != policy.FieldEmpID {
			q = q.Where("1 = 0")
		} else {
			q = q.Where("emp_id = ?", filter.Scope.Value)
		}
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to count tasks", err)
	}

	var rows []*taskDatamodel.SubadminTask
	page := q.Order("created_at DESC").Order("task_id DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to list tasks", err)
	}
	return rows, total, nil
}

func (r *TaskRepository) CreateForComplaint(ctx context.Context, t *taskDatamodel.SubadminTask) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return internal.ErrTaskExists
			}
			return internal.NewInternalError("failed to create task", err)
		}
		return moveComplaint(tx, t.ComplaintID, workflow.StatusInProgress, t.EmpID)
	})
}

func (r *TaskRepository) UpdateDescription(ctx context.Context, taskID int64, description string) error {
	res := r.db.WithContext(ctx).
		Model(&taskDatamodel.SubadminTask{}).
		Where("task_id = ?", taskID).
		Update("description", description)
	if res.Error != nil {
		return internal.NewInternalError("failed to update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Complete(ctx context.Context, taskID, complaintID, statusBy int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&taskDatamodel.SubadminTask{}).
			Where("task_id = ?", taskID).
			Update("status", string(workflow.TaskCompleted))
		if res.Error != nil {
			return internal.NewInternalError("failed to complete task", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrTaskNotFound
		}

		return moveComplaint(tx, complaintID, workflow.StatusComplete, statusBy)
	})
}

// moveComplaint sets the complaint status only while its current status may
// still reach to. A miss is reported as not found, closed or an invalid
// transition, and the surrounding transaction rolls back.
func moveComplaint(tx *gorm.DB, complaintID int64, to workflow.ComplaintStatus, statusBy int64) error {
	res := tx.Model(&complaintDatamodel.Complaint{}).
		Where("complaint_id = ? AND status IN ?", complaintID, workflow.Sources(to)).
		Updates(map[string]interface{}{"status": string(to), "status_by": statusBy})
	if res.Error != nil {
		return internal.NewInternalError("failed to update complaint status", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current complaintDatamodel.Complaint
	if err := tx.Select("status").First(&current, "complaint_id = ?", complaintID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return internal.ErrComplaintNotFound
		}
		return internal.NewInternalError("failed to read complaint status", err)
	}
	if err := workflow.Transition(workflow.ComplaintStatus(current.Status), to); err != nil {
		return err
	}
	return internal.ErrInvalidStatusTransition
}
