package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/complaint-management/internal"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/notification"
	"gorm.io/gorm"
)

// Directory reads notification recipients straight from the users table.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) notification.RecipientDirectory {
	return &Directory{db: db}
}

func (d *Directory) Get(ctx context.Context, empID int64) (*notification.Recipient, error) {
	var u userDatamodel.User
	if err := d.db.WithContext(ctx).Where("emp_id = ?", empID).First(&u).Error; err != nil {
		return nil, mapUserError(err)
	}
	return recipientOf(&u), nil
}

func (d *Directory) SubadminOf(ctx context.Context, deptID int64) (*notification.Recipient, error) {
	var u userDatamodel.User
	err := d.db.WithContext(ctx).
		Where("dept_id = ? AND role_id = ?", deptID, int(identity.RoleSubadmin)).
		Order("emp_id ASC").
		First(&u).Error
	if err != nil {
		return nil, mapUserError(err)
	}
	return recipientOf(&u), nil
}

func recipientOf(u *userDatamodel.User) *notification.Recipient {
	return &notification.Recipient{EmpID: u.EmpID, Name: u.Name, Email: u.Email}
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrUserNotFound
	}
	return internal.NewInternalError("failed to load recipient", err)
}
