package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	notificationDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/notification"
	pushDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/push"
	taskDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmpID(ctx context.Context, empID int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("emp_id = ?", empID).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) SubadminOf(ctx context.Context, deptID int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("dept_id = ? AND role_id = ?", deptID, int(identity.RoleSubadmin)).
		Order("emp_id ASC").
		First(&u).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&userDatamodel.User{})
	if filter.DeptID > 0 {
		q = q.Where("dept_id = ?", filter.DeptID)
	}
	if filter.RoleID > 0 {
		q = q.Where("role_id = ?", filter.RoleID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to count users", err)
	}

	var users []*userDatamodel.User
	page := q.Order("emp_id ASC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := page.Find(&users).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to list users", err)
	}
	return users, total, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrEmailTaken
		}
		return internal.NewInternalError("failed to create user", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, empID int64, changes user.Changes) error {
	updates := map[string]interface{}{}
	if changes.Name != nil {
		updates["name"] = *changes.Name
	}
	if changes.DeptID != nil {
		updates["dept_id"] = *changes.DeptID
	}
	if changes.RoleID != nil {
		updates["role_id"] = *changes.RoleID
	}
	if changes.ClearRefreshToken {
		updates["refresh_token"] = nil
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("emp_id = ?", empID).Updates(updates)
	if res.Error != nil {
		return internal.NewInternalError("failed to update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, empID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var complaints, tasks int64
		if err := tx.Model(&complaintDatamodel.Complaint{}).Where("emp_id = ?", empID).Count(&complaints).Error; err != nil {
			return internal.NewInternalError("failed to count complaints", err)
		}
		if err := tx.Model(&taskDatamodel.SubadminTask{}).Where("emp_id = ?", empID).Count(&tasks).Error; err != nil {
			return internal.NewInternalError("failed to count tasks", err)
		}
		if complaints > 0 || tasks > 0 {
			return internal.ErrUserInUse
		}

		if err := tx.Where("emp_id = ?", empID).Delete(&notificationDatamodel.Notification{}).Error; err != nil {
			return internal.NewInternalError("failed to delete notifications", err)
		}
		if err := tx.Where("emp_id = ?", empID).Delete(&pushDatamodel.Subscription{}).Error; err != nil {
			return internal.NewInternalError("failed to delete push subscriptions", err)
		}
		res := tx.Where("emp_id = ?", empID).Delete(&userDatamodel.User{})
		if res.Error != nil {
			return internal.NewInternalError("failed to delete user", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return nil
	})
}

func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrUserNotFound
	}
	return internal.NewInternalError("user query failed", err)
}
