package task

import "time"

type SubadminTask struct {
	TaskID      int64     `gorm:"column:task_id;primaryKey"`
	EmpID       int64     `gorm:"column:emp_id;not null;uniqueIndex:idx_subadmin_tasks_emp_complaint"`
	ComplaintID int64     `gorm:"column:complaint_id;not null;index;uniqueIndex:idx_subadmin_tasks_emp_complaint"`
	Description string    `gorm:"column:description;not null"`
	Status      string    `gorm:"column:status;not null;default:pending"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SubadminTask) TableName() string {
	return "subadmin_tasks"
}
