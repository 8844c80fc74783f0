package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	pushDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/push"
	"github.com/frahmantamala/complaint-management/internal/push"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) push.RepositoryAPI {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByEndpoint(ctx context.Context, endpoint string) (*pushDatamodel.Subscription, error) {
	var s pushDatamodel.Subscription
	if err := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrSubscriptionNotFound
		}
		return nil, internal.NewInternalError("failed to get push subscription", err)
	}
	return &s, nil
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, s *pushDatamodel.Subscription) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"emp_id", "p256dh", "auth", "is_active", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return internal.NewInternalError("failed to save push subscription", err)
	}
	stored, err := r.GetByEndpoint(ctx, s.Endpoint)
	if err != nil {
		return err
	}
	*s = *stored
	return nil
}

func (r *SubscriptionRepository) ListActive(ctx context.Context, empID int64) ([]*pushDatamodel.Subscription, error) {
	var subs []*pushDatamodel.Subscription
	err := r.db.WithContext(ctx).
		Where("emp_id = ? AND is_active = ?", empID, true).
		Order("id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list push subscriptions", err)
	}
	return subs, nil
}

func (r *SubscriptionRepository) Deactivate(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&pushDatamodel.Subscription{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return internal.NewInternalError("failed to deactivate push subscription", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrSubscriptionNotFound
	}
	return nil
}
