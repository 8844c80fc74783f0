package notification

import (
	"context"
	"log/slog"
	"time"

	notificationDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/policy"
	"github.com/frahmantamala/complaint-management/pkg/metrics"
)

type RepositoryAPI interface {
	Create(ctx context.Context, n *notificationDatamodel.Notification) error
	GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error)
	List(ctx context.Context, filter ListFilter) ([]*notificationDatamodel.Notification, int64, error)
	CountUnread(ctx context.Context, empID int64) (int64, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, empID int64) (int64, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	retention time.Duration
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, retention time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		retention: retention,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, p identity.Principal, unreadOnly bool, limit, offset int) (*Page, error) {
	if err := policy.Authorize(p, policy.ActionNotification, nil).Err(); err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, ListFilter{EmpID: p.EmpID, UnreadOnly: unreadOnly, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromDataModel(row))
	}
	return &Page{Notifications: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) UnreadCount(ctx context.Context, p identity.Principal) (int64, error) {
	if err := policy.Authorize(p, policy.ActionNotification, nil).Err(); err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, p.EmpID)
}

// MarkRead flags one of the caller's notifications as read. Notifications of
// other employees are reported as missing.
func (s *Service) MarkRead(ctx context.Context, p identity.Principal, id int64) error {
	if err := policy.Gate(p, policy.ActionNotification).Err(); err != nil {
		return err
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(p, policy.ActionNotification, &policy.Target{OwnerID: row.EmpID}).Err(); err != nil {
		return err
	}
	if row.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, p identity.Principal) (int64, error) {
	if err := policy.Authorize(p, policy.ActionNotification, nil).Err(); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, p.EmpID)
	if err != nil {
		return 0, err
	}
	s.logger.DebugContext(ctx, "notifications marked read", "emp_id", p.EmpID, "count", n)
	return n, nil
}

// Store writes the in-app copy of msg for recipient.
func (s *Service) Store(ctx context.Context, recipient Recipient, msg Message) (*Notification, error) {
	row := &notificationDatamodel.Notification{
		EmpID:   recipient.EmpID,
		Title:   msg.Title,
		Message: msg.Body,
		Type:    string(msg.Type),
	}
	if msg.ReferenceID > 0 {
		ref := msg.ReferenceID
		row.ReferenceID = &ref
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// PurgeExpired deletes notifications older than the retention window, read
// or not.
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.retention)
	n, err := s.repo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "notification purge failed", "error", err)
		return 0, err
	}
	metrics.RecordPurged(n)
	s.logger.InfoContext(ctx, "expired notifications purged", "count", n, "cutoff", cutoff)
	return n, nil
}
