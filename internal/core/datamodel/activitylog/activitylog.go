package activitylog

import "time"

type ActivityLog struct {
	LogID       int64     `gorm:"column:log_id;primaryKey"`
	EmpID       int64     `gorm:"column:emp_id;index;not null"`
	Action      string    `gorm:"column:action;not null"`
	Description string    `gorm:"column:description"`
	Module      string    `gorm:"column:module;index;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
