package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	complaintDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	departmentDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/department"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/department"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var departments []*departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, internal.NewInternalError("failed to list departments", err)
	}
	return departments, nil
}

func (r *DepartmentRepository) GetByName(ctx context.Context, name string) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&d).Error; err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Where("dept_id = ?", id).First(&d).Error; err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, d *departmentDatamodel.Department) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *DepartmentRepository) Update(ctx context.Context, d *departmentDatamodel.Department) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Delete checks references and deletes in one transaction so a concurrent
// insert cannot slip in between.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users, complaints int64
		if err := tx.Model(&userDatamodel.User{}).Where("dept_id = ?", id).Count(&users).Error; err != nil {
			return internal.NewInternalError("failed to count department users", err)
		}
		if err := tx.Model(&complaintDatamodel.Complaint{}).Where("dept_id = ?", id).Count(&complaints).Error; err != nil {
			return internal.NewInternalError("failed to count department complaints", err)
		}
		if users > 0 || complaints > 0 {
			return internal.ErrDepartmentInUse
		}

		res := tx.Where("dept_id = ?", id).Delete(&departmentDatamodel.Department{})
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
				return internal.ErrDepartmentInUse
			}
			return internal.NewInternalError("failed to delete department", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrDepartmentNotFound
		}
		return nil
	})
}

func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrDepartmentNotFound
	}
	return internal.NewInternalError("department query failed", err)
}

func mapWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrDepartmentExists
	}
	return internal.NewInternalError("failed to save department", err)
}
