package activitylog

import (
	"context"
	"log/slog"
	"time"

	activityDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/activitylog"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/policy"
)

type RepositoryAPI interface {
	Create(ctx context.Context, l *activityDatamodel.ActivityLog) error
	List(ctx context.Context, filter ListFilter) ([]*activityDatamodel.ActivityLog, int64, error)
}

// AnalyticsReader runs the aggregate queries behind the admin dashboard.
type AnalyticsReader interface {
	ComplaintsBy(ctx context.Context, column string) ([]Count, error)
	ComplaintsByDepartment(ctx context.Context) ([]Count, error)
	ActivityByModule(ctx context.Context) ([]Count, error)
	ActivityPerDay(ctx context.Context, since time.Time) ([]Count, error)
}

type Service struct {
	repo      RepositoryAPI
	analytics AnalyticsReader
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, analytics AnalyticsReader, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		analytics: analytics,
		logger:    logger,
		now:       time.Now,
	}
}

// Record appends an audit entry. Failures are logged and swallowed so the
// audited operation is never undone by its audit trail.
func (s *Service) Record(ctx context.Context, empID int64, action, description, module string) {
	row := &activityDatamodel.ActivityLog{
		EmpID:       empID,
		Action:      action,
		Description: description,
		Module:      module,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to record activity", "error", err, "action", action, "emp_id", empID)
	}
}

func (s *Service) List(ctx context.Context, p identity.Principal, filter ListFilter) (*Page, error) {
	if err := policy.Authorize(p, policy.ActionLogView, nil).Err(); err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	logs := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, FromDataModel(row))
	}
	return &Page{Logs: logs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Analytics(ctx context.Context, p identity.Principal) (*Analytics, error) {
	if err := policy.Authorize(p, policy.ActionAnalyticsView, nil).Err(); err != nil {
		return nil, err
	}

	var (
		out Analytics
		err error
	)
	if out.ComplaintsByStatus, err = s.analytics.ComplaintsBy(ctx, "status"); err != nil {
		return nil, err
	}
	if out.ComplaintsBySeverity, err = s.analytics.ComplaintsBy(ctx, "severity"); err != nil {
		return nil, err
	}
	if out.ComplaintsByDepartment, err = s.analytics.ComplaintsByDepartment(ctx); err != nil {
		return nil, err
	}
	if out.ActivityByModule, err = s.analytics.ActivityByModule(ctx); err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, 0, -7)
	if out.ActivityLastWeek, err = s.analytics.ActivityPerDay(ctx, since); err != nil {
		return nil, err
	}
	return &out, nil
}
