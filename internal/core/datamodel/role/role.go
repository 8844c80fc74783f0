package role

type Role struct {
	RoleID int    `gorm:"column:role_id;primaryKey"`
	Name   string `gorm:"column:name;uniqueIndex;not null"`
}

func (Role) TableName() string {
	return "roles"
}
