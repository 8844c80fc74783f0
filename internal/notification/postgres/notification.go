package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/complaint-management/internal"
	notificationDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/complaint-management/internal/notification"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.RepositoryAPI {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notificationDatamodel.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return internal.NewInternalError("failed to create notification", err)
	}
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error) {
	var n notificationDatamodel.Notification
	if err := r.db.WithContext(ctx).Where("notification_id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrNotificationNotFound
		}
		return nil, internal.NewInternalError("failed to get notification", err)
	}
	return &n, nil
}

func (r *NotificationRepository) List(ctx context.Context, filter notification.ListFilter) ([]*notificationDatamodel.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).Where("emp_id = ?", filter.EmpID)
	if filter.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to count notifications", err)
	}

	var rows []*notificationDatamodel.Notification
	page := q.Order("created_at DESC").Order("notification_id DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to list notifications", err)
	}
	return rows, total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, empID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("emp_id = ? AND is_read = ?", empID, false).
		Count(&n).Error
	if err != nil {
		return 0, internal.NewInternalError("failed to count unread notifications", err)
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("notification_id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return internal.NewInternalError("failed to mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, empID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("emp_id = ? AND is_read = ?", empID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, internal.NewInternalError("failed to mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *NotificationRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&notificationDatamodel.Notification{})
	if res.Error != nil {
		return 0, internal.NewInternalError("failed to purge notifications", res.Error)
	}
	return res.RowsAffected, nil
}
