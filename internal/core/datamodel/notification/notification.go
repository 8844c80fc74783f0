package notification

import "time"

type Notification struct {
	NotificationID int64     `gorm:"column:notification_id;primaryKey"`
	EmpID          int64     `gorm:"column:emp_id;index;not null"`
	Title          string    `gorm:"column:title;not null"`
	Message        string    `gorm:"column:message;not null"`
	Type           string    `gorm:"column:type;not null"`
	ReferenceID    *int64    `gorm:"column:reference_id"`
	IsRead         bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
