package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/complaint-management/internal"
	userDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/policy"
)

type RepositoryAPI interface {
	GetByEmpID(ctx context.Context, empID int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	// SubadminOf returns the department's subadmin or ErrUserNotFound.
	SubadminOf(ctx context.Context, deptID int64) (*userDatamodel.User, error)
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, int64, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, empID int64, changes Changes) error
	// Delete removes the user with their notifications and push subscriptions,
	// refusing while they authored complaints or hold tasks.
	Delete(ctx context.Context, empID int64) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type DepartmentChecker interface {
	Exists(ctx context.Context, deptID int64) (bool, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, empID int64, action, description, module string)
}

type Service struct {
	repo        RepositoryAPI
	hasher      PasswordHasher
	departments DepartmentChecker
	activity    ActivityRecorder
	logger      *slog.Logger
	emailDomain string
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, departments DepartmentChecker, activity ActivityRecorder, logger *slog.Logger, emailDomain string) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		departments: departments,
		activity:    activity,
		logger:      logger,
		emailDomain: emailDomain,
	}
}

// CreateSubadmin adds the single subadmin of a department.
func (s *Service) CreateSubadmin(ctx context.Context, p identity.Principal, dto CreateSubadminDTO) (*User, error) {
	if err := policy.Authorize(p, policy.ActionSubadminCreate, nil).Err(); err != nil {
		return nil, err
	}

	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Name = strings.TrimSpace(dto.Name)
	if err := dto.Validate(s.emailDomain); err != nil {
		return nil, err
	}

	if err := s.ensureDepartment(ctx, dto.DeptID); err != nil {
		return nil, err
	}
	if err := s.ensureNoSubadmin(ctx, dto.DeptID, 0); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, dto.EmpID, dto.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		EmpID:        dto.EmpID,
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		DeptID:       dto.DeptID,
		RoleID:       int(identity.RoleSubadmin),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "subadmin created", "emp_id", row.EmpID, "dept_id", row.DeptID, "by", p.EmpID)
	s.activity.Record(ctx, p.EmpID, "create_subadmin", "Created subadmin "+row.Email, "user")
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, p identity.Principal, filter ListFilter) (*Page, error) {
	if err := policy.Authorize(p, policy.ActionUserManage, nil).Err(); err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return &Page{Users: users, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, p identity.Principal, empID int64) (*User, error) {
	if err := policy.Authorize(p, policy.ActionUserManage, nil).Err(); err != nil {
		return nil, err
	}
	row, err := s.repo.GetByEmpID(ctx, empID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Update changes name, department or role. Moving a user between roles or
// departments ends their session so the next token carries the new scope.
func (s *Service) Update(ctx context.Context, p identity.Principal, empID int64, dto UpdateUserDTO) (*User, error) {
	if err := policy.Authorize(p, policy.ActionUserManage, nil).Err(); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByEmpID(ctx, empID)
	if err != nil {
		return nil, err
	}
	if identity.Role(row.RoleID) == identity.RoleSuperadmin {
		return nil, internal.ErrAccessDenied
	}

	changes := Changes{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		changes.Name = &name
		row.Name = name
	}
	if dto.DeptID != nil && *dto.DeptID != row.DeptID {
		if err := s.ensureDepartment(ctx, *dto.DeptID); err != nil {
			return nil, err
		}
		changes.DeptID = dto.DeptID
		changes.ClearRefreshToken = true
		row.DeptID = *dto.DeptID
	}
	if dto.RoleID != nil && *dto.RoleID != row.RoleID {
		changes.RoleID = dto.RoleID
		changes.ClearRefreshToken = true
		row.RoleID = *dto.RoleID
	}

	if changes.ClearRefreshToken && identity.Role(row.RoleID) == identity.RoleSubadmin {
		if err := s.ensureNoSubadmin(ctx, row.DeptID, row.EmpID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, empID, changes); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user updated", "emp_id", empID, "by", p.EmpID, "session_reset", changes.ClearRefreshToken)
	s.activity.Record(ctx, p.EmpID, "update_user", "Updated user "+row.Email, "user")
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, p identity.Principal, empID int64) error {
	if err := policy.Authorize(p, policy.ActionUserManage, nil).Err(); err != nil {
		return err
	}
	if empID == p.EmpID {
		return internal.ErrCannotDeleteSelf
	}

	row, err := s.repo.GetByEmpID(ctx, empID)
	if err != nil {
		return err
	}
	if identity.Role(row.RoleID) == identity.RoleSuperadmin {
		return internal.ErrAccessDenied
	}

	if err := s.repo.Delete(ctx, empID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted", "emp_id", empID, "by", p.EmpID)
	s.activity.Record(ctx, p.EmpID, "delete_user", "Deleted user "+row.Email, "user")
	return nil
}

func (s *Service) ensureDepartment(ctx context.Context, deptID int64) error {
	exists, err := s.departments.Exists(ctx, deptID)
	if err != nil {
		return internal.NewInternalError("failed to check department", err)
	}
	if !exists {
		return internal.ErrDepartmentNotFound
	}
	return nil
}

// ensureNoSubadmin fails when deptID already has a subadmin other than self.
func (s *Service) ensureNoSubadmin(ctx context.Context, deptID, self int64) error {
	existing, err := s.repo.SubadminOf(ctx, deptID)
	if errors.Is(err, internal.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.EmpID != self {
		return internal.ErrSubadminExists
	}
	return nil
}

func (s *Service) ensureUnique(ctx context.Context, empID int64, email string) error {
	if _, err := s.repo.GetByEmpID(ctx, empID); err == nil {
		return internal.ErrEmpIDTaken
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return err
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return internal.ErrEmailTaken
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return err
	}
	return nil
}
