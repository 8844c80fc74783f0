package complaint

import "time"

type Complaint struct {
	ComplaintID int64     `gorm:"column:complaint_id;primaryKey"`
	EmpID       int64     `gorm:"column:emp_id;index;not null"`
	DeptID      int64     `gorm:"column:dept_id;index;not null"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null"`
	Severity    string    `gorm:"column:severity;not null"`
	Status      string    `gorm:"column:status;not null;default:Pending"`
	StatusBy    *int64    `gorm:"column:status_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Complaint) TableName() string {
	return "complaints"
}
