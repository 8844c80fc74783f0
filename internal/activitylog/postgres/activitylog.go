package postgres

import (
	"context"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/activitylog"
	activityDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/activitylog"
	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) activitylog.RepositoryAPI {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, l *activityDatamodel.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return internal.NewInternalError("failed to create activity log", err)
	}
	return nil
}

func (r *ActivityLogRepository) List(ctx context.Context, filter activitylog.ListFilter) ([]*activityDatamodel.ActivityLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&activityDatamodel.ActivityLog{})
	if filter.Module != "" {
		q = q.Where("module = ?", filter.Module)
	}
	if filter.EmpID > 0 {
		q = q.Where("emp_id = ?", filter.EmpID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to count activity logs", err)
	}

	var rows []*activityDatamodel.ActivityLog
	page := q.Order("created_at DESC").Order("log_id DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to list activity logs", err)
	}
	return rows, total, nil
}
