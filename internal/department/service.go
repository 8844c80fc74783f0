package department

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/complaint-management/internal"
	departmentDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/department"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/policy"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	GetByName(ctx context.Context, name string) (*departmentDatamodel.Department, error)
	Create(ctx context.Context, d *departmentDatamodel.Department) error
	Update(ctx context.Context, d *departmentDatamodel.Department) error
	// Delete removes the row unless users or complaints still reference it.
	Delete(ctx context.Context, id int64) error
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
	return &Service{
		repo:     repo,
		activity: activity,
		logger:   logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list departments", "error", err)
		return nil, err
	}

	departments := make([]*Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, FromDataModel(row))
	}
	return departments, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Exists reports whether id names a department.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, internal.ErrDepartmentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Create(ctx context.Context, p identity.Principal, dto DepartmentDTO) (*Department, error) {
	if err := policy.Authorize(p, policy.ActionDepartmentManage, nil).Err(); err != nil {
		return nil, err
	}
	dto.Name = strings.TrimSpace(dto.Name)
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, dto.Name, 0); err != nil {
		return nil, err
	}

	row := &departmentDatamodel.Department{Name: dto.Name}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "department created", "dept_id", row.DeptID, "name", row.Name)
	s.activity.Record(ctx, p.EmpID, "create_department", "Created department "+row.Name, "department")
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, p identity.Principal, id int64, dto DepartmentDTO) (*Department, error) {
	if err := policy.Authorize(p, policy.ActionDepartmentManage, nil).Err(); err != nil {
		return nil, err
	}
	dto.Name = strings.TrimSpace(dto.Name)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, dto.Name, id); err != nil {
		return nil, err
	}

	row.Name = dto.Name
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, p.EmpID, "update_department", "Renamed department to "+row.Name, "department")
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, p identity.Principal, id int64) error {
	if err := policy.Authorize(p, policy.ActionDepartmentManage, nil).Err(); err != nil {
		return err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, internal.ErrDepartmentInUse) {
			s.logger.InfoContext(ctx, "department deletion refused", "dept_id", id)
		}
		return err
	}

	s.logger.InfoContext(ctx, "department deleted", "dept_id", id)
	s.activity.Record(ctx, p.EmpID, "delete_department", "Deleted department "+row.Name, "department")
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, internal.ErrDepartmentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.DeptID != selfID {
		return internal.ErrDepartmentExists
	}
	return nil
}
