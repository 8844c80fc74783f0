package user

import "time"

type User struct {
	EmpID        int64     `gorm:"column:emp_id;primaryKey;autoIncrement:false"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	DeptID       int64     `gorm:"column:dept_id;index;not null"`
	RoleID       int       `gorm:"column:role_id;not null;default:3"`
	RefreshToken *string   `gorm:"column:refresh_token"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
