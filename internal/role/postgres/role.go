package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	roleDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetAll(ctx context.Context) ([]*roleDatamodel.Role, error) {
	var roles []*roleDatamodel.Role
	if err := r.db.WithContext(ctx).Order("role_id ASC").Find(&roles).Error; err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	return roles, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	if err := r.db.WithContext(ctx).Where("role_id = ?", id).First(&row).Error; err != nil {
		return nil, mapError(err)
	}
	return &row, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		return nil, mapError(err)
	}
	return &row, nil
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrRoleExists
		}
		return internal.NewInternalError("failed to create role", err)
	}
	return nil
}

func (r *RoleRepository) Rename(ctx context.Context, id int, name string) error {
	err := r.db.WithContext(ctx).Model(&roleDatamodel.Role{}).Where("role_id = ?", id).Update("name", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrRoleExists
		}
		return internal.NewInternalError("failed to rename role", err)
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holders int64
		if err := tx.Model(&userDatamodel.User{}).Where("role_id = ?", id).Count(&holders).Error; err != nil {
			return internal.NewInternalError("failed to count role holders", err)
		}
		if holders > 0 {
			return internal.ErrRoleInUse
		}
		if err := tx.Where("role_id = ?", id).Delete(&roleDatamodel.Role{}).Error; err != nil {
			return internal.NewInternalError("failed to delete role", err)
		}
		return nil
	})
}

func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrRoleNotFound
	}
	return internal.NewInternalError("role query failed", err)
}
