package role

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/complaint-management/internal"
	roleDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/role"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/policy"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*roleDatamodel.Role, error)
	GetByID(ctx context.Context, id int) (*roleDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	Create(ctx context.Context, r *roleDatamodel.Role) error
	Rename(ctx context.Context, id int, name string) error
	// Delete removes the role unless a user holds it.
	Delete(ctx context.Context, id int) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, empID int64, action, description, module string)
}

type Service struct {
	repo     RepositoryAPI
	activity ActivityRecorder
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, activity ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, activity: activity, logger: logger}
}

func (s *Service) List(ctx context.Context, p identity.Principal) ([]*Role, error) {
	if err := policy.Authorize(p, policy.ActionRoleManage, nil).Err(); err != nil {
		return nil, err
	}
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromDataModel(row))
	}
	return roles, nil
}

func (s *Service) Create(ctx context.Context, p identity.Principal, dto RoleDTO) (*Role, error) {
	if err := policy.Authorize(p, policy.ActionRoleManage, nil).Err(); err != nil {
		return nil, err
	}
	dto.Name = strings.ToLower(strings.TrimSpace(dto.Name))
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, dto.Name); err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{Name: dto.Name}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, p.EmpID, "create_role", "Created role "+row.Name, "role")
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, p identity.Principal, id int, dto RoleDTO) (*Role, error) {
	if err := policy.Authorize(p, policy.ActionRoleManage, &policy.Target{RoleID: identity.Role(id)}).Err(); err != nil {
		s.logger.WarnContext(ctx, "role update refused", "role_id", id, "emp_id", p.EmpID)
		return nil, err
	}
	dto.Name = strings.ToLower(strings.TrimSpace(dto.Name))
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Name != dto.Name {
		if err := s.ensureNameFree(ctx, dto.Name); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Rename(ctx, id, dto.Name); err != nil {
		return nil, err
	}

	row.Name = dto.Name
	s.activity.Record(ctx, p.EmpID, "update_role", "Renamed role to "+row.Name, "role")
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, p identity.Principal, id int) error {
	if err := policy.Authorize(p, policy.ActionRoleManage, &policy.Target{RoleID: identity.Role(id)}).Err(); err != nil {
		s.logger.WarnContext(ctx, "role deletion refused", "role_id", id, "emp_id", p.EmpID)
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, p.EmpID, "delete_role", "Deleted role", "role")
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string) error {
	_, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return internal.ErrRoleExists
	}
	if errors.Is(err, internal.ErrRoleNotFound) {
		return nil
	}
	return err
}
