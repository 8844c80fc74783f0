// Package testsupport opens throwaway databases for package tests.
package testsupport

import (
	"fmt"

	"github.com/frahmantamala/complaint-management/internal/core/datamodel"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/department"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/role"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns an in-memory database with the full schema migrated.
// The pool is pinned to one connection so every query sees the same memory db.
func OpenSQLite() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(datamodel.All()...); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}

// SeedRoles inserts the three built-in roles.
func SeedRoles(db *gorm.DB) error {
	roles := []role.Role{
		{RoleID: 1, Name: "superadmin"},
		{RoleID: 2, Name: "subadmin"},
		{RoleID: 3, Name: "user"},
	}
	return db.Create(&roles).Error
}

func SeedDepartment(db *gorm.DB, id int64, name string) error {
	return db.Create(&department.Department{DeptID: id, Name: name}).Error
}

// SeedUser inserts a user whose password is "password".
func SeedUser(db *gorm.DB, empID int64, email string, roleID int, deptID int64) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		return err
	}
	return db.Create(&user.User{
		EmpID:        empID,
		Name:         fmt.Sprintf("Employee %d", empID),
		Email:        email,
		PasswordHash: string(hash),
		DeptID:       deptID,
		RoleID:       roleID,
	}).Error
}
