package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/auth"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *Repository) GetByEmpID(ctx context.Context, empID int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("emp_id = ?", empID).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *Repository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrEmailTaken
		}
		return internal.NewInternalError("failed to create user", err)
	}
	return nil
}

func (r *Repository) SetRefreshToken(ctx context.Context, empID int64, digest *string) error {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("emp_id = ?", empID).
		Update("refresh_token", digest)
	if res.Error != nil {
		return internal.NewInternalError("failed to store refresh token", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *Repository) UpdateProfile(ctx context.Context, empID int64, name string, passwordHash *string) error {
	updates := map[string]interface{}{"name": name}
	if passwordHash != nil {
		updates["password_hash"] = *passwordHash
	}
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("emp_id = ?", empID).Updates(updates)
	if res.Error != nil {
		return internal.NewInternalError("failed to update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrUserNotFound
	}
	return internal.NewInternalError("user query failed", err)
}
