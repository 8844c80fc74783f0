package datamodel

import (
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/activitylog"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/complaint"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/department"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/push"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/role"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/task"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
)

// All lists every persisted row type, parents first.
func All() []interface{} {
	return []interface{}{
		&role.Role{},
		&department.Department{},
		&user.User{},
		&complaint.Complaint{},
		&task.SubadminTask{},
		&notification.Notification{},
		&activitylog.ActivityLog{},
		&push.Subscription{},
	}
}
