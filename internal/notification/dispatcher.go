package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/core/events"
	"github.com/frahmantamala/complaint-management/pkg/backoff"
	"github.com/frahmantamala/complaint-management/pkg/metrics"
)

const (
	channelInApp = "inapp"
	channelEmail = "email"
	channelPush  = "push"
)

// RecipientDirectory resolves who should hear about an event.
type RecipientDirectory interface {
	Get(ctx context.Context, empID int64) (*Recipient, error)
	// SubadminOf returns the department's subadmin or internal.ErrUserNotFound.
	SubadminOf(ctx context.Context, deptID int64) (*Recipient, error)
}

type Store interface {
	Store(ctx context.Context, recipient Recipient, msg Message) (*Notification, error)
}

// Pusher delivers a browser push to every active subscription of empID.
type Pusher interface {
	Notify(ctx context.Context, empID int64, title, body, link string) error
}

type DispatcherOptions struct {
	AppURL string
	Retry  backoff.Policy
}

// Dispatcher turns domain events into in-app, email and push notifications.
// Delivery failures are logged and never returned to the event bus.
type Dispatcher struct {
	store     Store
	directory RecipientDirectory
	mailer    Mailer
	pusher    Pusher
	opts      DispatcherOptions
	logger    *slog.Logger
}

// NewDispatcher wires the channels. mailer and pusher may be nil when the
// channel is disabled.
func NewDispatcher(store Store, directory RecipientDirectory, mailer Mailer, pusher Pusher, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if opts.Retry.Attempts == 0 {
		opts.Retry = backoff.Default()
	}
	opts.AppURL = strings.TrimRight(opts.AppURL, "/")
	return &Dispatcher{
		store:     store,
		directory: directory,
		mailer:    mailer,
		pusher:    pusher,
		opts:      opts,
		logger:    logger,
	}
}

func (d *Dispatcher) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeComplaintCreated, d.HandleComplaintCreated)
	bus.Subscribe(events.EventTypeComplaintStatusChanged, d.HandleStatusChanged)
	bus.Subscribe(events.EventTypeTaskAssigned, d.HandleTaskAssigned)

	d.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypeComplaintCreated,
			events.EventTypeComplaintStatusChanged,
			events.EventTypeTaskAssigned,
		})
}

// HandleComplaintCreated tells the department's subadmin about a new complaint.
func (d *Dispatcher) HandleComplaintCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ComplaintCreatedEvent)
	if !ok {
		d.logger.Error("unexpected event payload", "event_type", event.EventType(), "got", fmt.Sprintf("%T", event))
		return nil
	}

	recipient, err := d.directory.SubadminOf(ctx, e.DeptID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			d.logger.InfoContext(ctx, "department has no subadmin, skipping notification", "dept_id", e.DeptID)
			return nil
		}
		d.logger.ErrorContext(ctx, "failed to resolve subadmin", "error", err, "dept_id", e.DeptID)
		return nil
	}

	d.deliver(ctx, *recipient, Message{
		Title:       "New complaint",
		Body:        fmt.Sprintf("A new %s severity complaint %q was filed in your department.", e.Severity, e.Title),
		Type:        TypeComplaint,
		ReferenceID: e.ComplaintID,
		Link:        d.complaintLink(e.ComplaintID),
	})
	return nil
}

// HandleStatusChanged tells the author their complaint moved.
func (d *Dispatcher) HandleStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ComplaintStatusChangedEvent)
	if !ok {
		d.logger.Error("unexpected event payload", "event_type", event.EventType(), "got", fmt.Sprintf("%T", event))
		return nil
	}
	if e.AuthorID == e.ChangedBy {
		return nil
	}

	recipient, err := d.directory.Get(ctx, e.AuthorID)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to resolve complaint author", "error", err, "emp_id", e.AuthorID)
		return nil
	}

	d.deliver(ctx, *recipient, Message{
		Title:       "Complaint status updated",
		Body:        fmt.Sprintf("Your complaint %q is now %s.", e.Title, e.ToStatus),
		Type:        TypeComplaint,
		ReferenceID: e.ComplaintID,
		Link:        d.complaintLink(e.ComplaintID),
	})
	return nil
}

// HandleTaskAssigned tells the author a subadmin has started on their complaint.
func (d *Dispatcher) HandleTaskAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TaskAssignedEvent)
	if !ok {
		d.logger.Error("unexpected event payload", "event_type", event.EventType(), "got", fmt.Sprintf("%T", event))
		return nil
	}

	recipient, err := d.directory.Get(ctx, e.AuthorID)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to resolve complaint author", "error", err, "emp_id", e.AuthorID)
		return nil
	}

	d.deliver(ctx, *recipient, Message{
		Title:       "Your complaint is in progress",
		Body:        fmt.Sprintf("Work has started on %q: %s", e.Title, e.Description),
		Type:        TypeTask,
		ReferenceID: e.ComplaintID,
		Link:        d.complaintLink(e.ComplaintID),
	})
	return nil
}

// deliver writes the in-app row, then tries email and push. Each channel
// fails on its own.
func (d *Dispatcher) deliver(ctx context.Context, recipient Recipient, msg Message) {
	lg := d.logger.With("emp_id", recipient.EmpID, "reference_id", msg.ReferenceID)

	_, err := d.store.Store(ctx, recipient, msg)
	metrics.RecordDelivery(channelInApp, err)
	if err != nil {
		lg.ErrorContext(ctx, "failed to store notification", "error", err)
	}

	if d.mailer != nil && recipient.Email != "" {
		err := d.opts.Retry.Do(ctx, func(ctx context.Context) error {
			return d.mailer.Send(ctx, recipient.Email, msg.Title, d.emailBody(recipient, msg))
		})
		metrics.RecordDelivery(channelEmail, err)
		if err != nil {
			lg.WarnContext(ctx, "email delivery failed", "error", err)
		}
	}

	if d.pusher != nil {
		err := d.pusher.Notify(ctx, recipient.EmpID, msg.Title, msg.Body, msg.Link)
		metrics.RecordDelivery(channelPush, err)
		if err != nil {
			lg.WarnContext(ctx, "push delivery failed", "error", err)
		}
	}
}

func (d *Dispatcher) emailBody(recipient Recipient, msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n%s\n", recipient.Name, msg.Body)
	if msg.Link != "" {
		fmt.Fprintf(&b, "\nView it here: %s\n", msg.Link)
	}
	return b.String()
}

func (d *Dispatcher) complaintLink(id int64) string {
	if d.opts.AppURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/complaints/%d", d.opts.AppURL, id)
}
