package push

import "time"

type Subscription struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	EmpID     int64     `gorm:"column:emp_id;index;not null"`
	Endpoint  string    `gorm:"column:endpoint;uniqueIndex;not null"`
	P256dh    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"column:auth;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "push_subscriptions"
}
