package policy

import (
	"net/http"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
)

type Action string

const (
	ActionComplaintCreate       Action = "complaint:create"
	ActionComplaintList         Action = "complaint:list"
	ActionComplaintView         Action = "complaint:view"
	ActionComplaintUpdateStatus Action = "complaint:update_status"
	ActionDepartmentComplaints  Action = "complaint:list_department"

	ActionTaskCreate   Action = "task:create"
	ActionTaskUpdate   Action = "task:update"
	ActionTaskComplete Action = "task:complete"
	ActionTaskList     Action = "task:list"

	ActionSubadminCreate   Action = "user:create_subadmin"
	ActionUserManage       Action = "user:manage"
	ActionDepartmentManage Action = "department:manage"
	ActionRoleManage       Action = "role:manage"
	ActionLogView          Action = "log:view"
	ActionAnalyticsView    Action = "analytics:view"

	ActionProfile      Action = "profile:self"
	ActionNotification Action = "notification:own"
	ActionPush         Action = "push:own"
)

var (
	everyone       = []identity.Role{identity.RoleSuperadmin, identity.RoleSubadmin, identity.RoleUser}
	adminsOnly     = []identity.Role{identity.RoleSuperadmin}
	subadminsOnly  = []identity.Role{identity.RoleSubadmin}
	staffResponder = []identity.Role{identity.RoleSuperadmin, identity.RoleSubadmin}
)

var allowedRoles = map[Action][]identity.Role{
	ActionComplaintCreate:       {identity.RoleUser},
	ActionComplaintList:         everyone,
	ActionComplaintView:         everyone,
	ActionComplaintUpdateStatus: staffResponder,
	ActionDepartmentComplaints:  subadminsOnly,

	ActionTaskCreate:   subadminsOnly,
	ActionTaskUpdate:   subadminsOnly,
	ActionTaskComplete: subadminsOnly,
	ActionTaskList:     subadminsOnly,

	ActionSubadminCreate:   adminsOnly,
	ActionUserManage:       adminsOnly,
	ActionDepartmentManage: adminsOnly,
	ActionRoleManage:       adminsOnly,
	ActionLogView:          adminsOnly,
	ActionAnalyticsView:    adminsOnly,

	ActionProfile:      everyone,
	ActionNotification: everyone,
	ActionPush:         everyone,
}

type Effect int

const (
	Deny Effect = iota
	Allow
	Scoped
)

func (e Effect) String() string {
	switch e {
	case Allow:
		return "allow"
	case Scoped:
		return "scope"
	default:
		return "deny"
	}
}

const (
	FieldEmpID  = "emp_id"
	FieldDeptID = "dept_id"
)

// ScopeFilter restricts a listing to rows where Field equals Value.
type ScopeFilter struct {
	Field string
	Value int64
}

// Target describes the resource an action is evaluated against.
type Target struct {
	OwnerID int64
	DeptID  int64
	RoleID  identity.Role
}

type Decision struct {
	Effect Effect
	Filter *ScopeFilter
	Denial *internal.AppError
}

func (d Decision) Allowed() bool {
	return d.Effect != Deny
}

// Err returns nil for allowed decisions so callers can return it directly.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return d.Denial
}

func (d Decision) Status() int {
	if d.Denial == nil {
		return http.StatusOK
	}
	return d.Denial.StatusCode
}

func (d Decision) Reason() string {
	if d.Denial == nil {
		return ""
	}
	return d.Denial.Message
}

func allow() Decision { return Decision{Effect: Allow} }

func deny(err *internal.AppError) Decision { return Decision{Effect: Deny, Denial: err} }

func scope(field string, value int64) Decision {
	return Decision{Effect: Scoped, Filter: &ScopeFilter{Field: field, Value: value}}
}

// Gate runs the authentication and role checks only.
func Gate(p identity.Principal, action Action) Decision {
	if !p.Authenticated() {
		return deny(internal.ErrMissingToken)
	}
	for _, r := range allowedRoles[action] {
		if r == p.RoleID {
			return allow()
		}
	}
	return deny(internal.ErrAccessDenied)
}

// Authorize evaluates action for p against target: authentication, then the
// role gate, then ownership or department. target may be nil for listings.
func Authorize(p identity.Principal, action Action, target *Target) Decision {
	if d := Gate(p, action); !d.Allowed() {
		return d
	}

	switch action {
	case ActionComplaintList:
		switch p.RoleID {
		case identity.RoleSubadmin:
			return scope(FieldDeptID, p.DeptID)
		case identity.RoleUser:
			return scope(FieldEmpID, p.EmpID)
		}
		return allow()

	case ActionDepartmentComplaints:
		return scope(FieldDeptID, p.DeptID)

	case ActionTaskList:
		return scope(FieldEmpID, p.EmpID)

	case ActionComplaintView:
		if target == nil {
			return deny(internal.ErrComplaintNotFound)
		}
		switch p.RoleID {
		case identity.RoleSubadmin:
			if target.DeptID != p.DeptID {
				return deny(internal.ErrComplaintNotFound)
			}
		case identity.RoleUser:
			if target.OwnerID != p.EmpID {
				return deny(internal.ErrComplaintNotFound)
			}
		}
		return allow()

	case ActionComplaintUpdateStatus, ActionTaskCreate:
		if p.Is(identity.RoleSuperadmin) {
			return allow()
		}
		if target == nil || target.DeptID != p.DeptID {
			return deny(internal.ErrComplaintNotInDepartment)
		}
		return allow()

	case ActionTaskUpdate, ActionTaskComplete:
		if target == nil || target.OwnerID != p.EmpID {
			return deny(internal.ErrTaskNotFound)
		}
		return allow()

	case ActionRoleManage:
		if target != nil && target.RoleID == identity.RoleSuperadmin {
			return deny(internal.ErrRoleImmutable)
		}
		return allow()

	case ActionNotification:
		if target != nil && target.OwnerID != p.EmpID {
			return deny(internal.ErrNotificationNotFound)
		}
		return allow()

	case ActionPush:
		if target != nil && target.OwnerID != p.EmpID {
			return deny(internal.ErrSubscriptionNotFound)
		}
		return allow()
	}

	return allow()
}
