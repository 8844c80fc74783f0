package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/complaint-management/internal"
	pushDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/push"
	"github.com/frahmantamala/complaint-management/internal/core/identity"
	"github.com/frahmantamala/complaint-management/internal/policy"
	"github.com/frahmantamala/complaint-management/pkg/backoff"
)

const maxConcurrentSends = 4

type RepositoryAPI interface {
	GetByEndpoint(ctx context.Context, endpoint string) (*pushDatamodel.Subscription, error)
	// Upsert inserts the subscription or, when the endpoint is known, moves it
	// to the new owner and keys and reactivates it.
	Upsert(ctx context.Context, s *pushDatamodel.Subscription) error
	ListActive(ctx context.Context, empID int64) ([]*pushDatamodel.Subscription, error)
	Deactivate(ctx context.Context, id int64) error
}

type Service struct {
	repo      RepositoryAPI
	sender    Sender
	publicKey string
	retry     backoff.Policy
	logger    *slog.Logger
}

// NewService builds the push service. A nil sender disables delivery while
// keeping subscription management available.
func NewService(repo RepositoryAPI, sender Sender, publicKey string, retry backoff.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sender:    sender,
		publicKey: publicKey,
		retry:     retry,
		logger:    logger,
	}
}

func (s *Service) PublicKey() string {
	return s.publicKey
}

func (s *Service) Subscribe(ctx context.Context, p identity.Principal, dto SubscribeDTO) (*Subscription, error) {
	if err := policy.Authorize(p, policy.ActionPush, nil).Err(); err != nil {
		return nil, err
	}
	dto.Endpoint = strings.TrimSpace(dto.Endpoint)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &pushDatamodel.Subscription{
		EmpID:    p.EmpID,
		Endpoint: dto.Endpoint,
		P256dh:   dto.Keys.P256dh,
		Auth:     dto.Keys.Auth,
		IsActive: true,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "push subscription saved", "emp_id", p.EmpID)
	return FromDataModel(row), nil
}

// Unsubscribe deactivates one of the caller's subscriptions.
func (s *Service) Unsubscribe(ctx context.Context, p identity.Principal, dto UnsubscribeDTO) error {
	if err := policy.Gate(p, policy.ActionPush).Err(); err != nil {
		return err
	}
	dto.Endpoint = strings.TrimSpace(dto.Endpoint)
	if err := dto.Validate(); err != nil {
		return err
	}

	row, err := s.repo.GetByEndpoint(ctx, dto.Endpoint)
	if err != nil {
		return err
	}
	if err := policy.Authorize(p, policy.ActionPush, &policy.Target{OwnerID: row.EmpID}).Err(); err != nil {
		return err
	}
	if !row.IsActive {
		return nil
	}
	return s.repo.Deactivate(ctx, row.ID)
}

// Notify pushes to every active subscription of empID. Subscriptions are
// tried independently; expired ones are deactivated. The returned error joins
// every delivery that still failed after retries.
func (s *Service) Notify(ctx context.Context, empID int64, title, body, link string) error {
	if s.sender == nil {
		return nil
	}

	subs, err := s.repo.ListActive(ctx, empID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(Payload{Title: title, Body: body, URL: link})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(maxConcurrentSends)
	for _, row := range subs {
		sub := FromDataModel(row)
		g.Go(func() error {
			if err := s.deliver(ctx, sub, payload); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (s *Service) deliver(ctx context.Context, sub *Subscription, payload []byte) error {
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.sender.Send(ctx, sub, payload)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrGone) {
		s.logger.InfoContext(ctx, "push subscription expired, deactivating", "subscription_id", sub.ID, "emp_id", sub.EmpID)
		if derr := s.repo.Deactivate(ctx, sub.ID); derr != nil && !errors.Is(derr, internal.ErrSubscriptionNotFound) {
			s.logger.ErrorContext(ctx, "failed to deactivate subscription", "error", derr, "subscription_id", sub.ID)
		}
		return nil
	}

	s.logger.WarnContext(ctx, "push delivery failed", "error", err, "subscription_id", sub.ID)
	return fmt.Errorf("subscription %d: %w", sub.ID, err)
}
