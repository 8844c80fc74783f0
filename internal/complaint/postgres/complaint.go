package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/complaint"
	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	taskDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
	"github.com/frahmantamala/complaint-management/internal/policy"
	"gorm.io/gorm"
)

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) complaint.RepositoryAPI {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) Create(ctx context.Context, c *complaintDatamodel.Complaint) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return internal.ErrDepartmentNotFound
		}
		return internal.NewInternalError("failed to create complaint", err)
	}
	return nil
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*complaintDatamodel.Complaint, error) {
	var c complaintDatamodel.Complaint
	if err := r.db.WithContext(ctx).Where("complaint_id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrComplaintNotFound
		}
		return nil, internal.NewInternalError("failed to get complaint", err)
	}
	return &c, nil
}

func (r *ComplaintRepository) List(ctx context.Context, filter complaint.ListFilter) ([]*complaintDatamodel.Complaint, int64, error) {
	q := r.db.WithContext(ctx).Model(&complaintDatamodel.Complaint{})
	q = applyScope(q, filter.Scope)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}
	if filter.DeptID > 0 {
		q = q.Where("dept_id = ?", filter.DeptID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to count complaints", err)
	}

	var rows []*complaintDatamodel.Complaint
	page := q.Order("created_at DESC").Order("complaint_id DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to list complaints", err)
	}
	return rows, total, nil
}

func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id int64, status workflow.ComplaintStatus, statusBy int64) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&complaintDatamodel.Complaint{}).
		Where("complaint_id = ? AND status IN ?", id, workflow.Sources(status)).
		Updates(map[string]interface{}{"status": string(status), "status_by": statusBy})
	if res.Error != nil {
		return internal.NewInternalError("failed to update complaint status", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// the status moved since the service checked it, or the row is gone
	var current complaintDatamodel.Complaint
	if err := db.Select("status").First(&current, "complaint_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return internal.ErrComplaintNotFound
		}
		return internal.NewInternalError("failed to read complaint status", err)
	}
	if err := workflow.Transition(workflow.ComplaintStatus(current.Status), status); err != nil {
		return err
	}
	return internal.ErrInvalidStatusTransition
}

func (r *ComplaintRepository) TasksFor(ctx context.Context, complaintID int64) ([]*taskDatamodel.SubadminTask, error) {
	var tasks []*taskDatamodel.SubadminTask
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list complaint tasks", err)
	}
	return tasks, nil
}

// applyScope pins the query to the policy's scope column. Unknown fields
// match nothing rather than everything.
func applyScope(q *gorm.DB, scope *policy.ScopeFilter) *gorm.DB {
	if scope == nil {
		return q
	}
	switch scope.Field {
	case policy.FieldEmpID:
		return q.Where("emp_id = ?", scope.Value)
	case policy.FieldDeptID:
		return q.Where("dept_id = ?", scope.Value)
	default:
		return q.Where("1 = 0")
	}
}
