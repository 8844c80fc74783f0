package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/complaint-management/internal/core/events"
	"github.com/frahmantamala/complaint-management/internal/core/workflow"
	"github.com/frahmantamala/complaint-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/complaint-management/internal/notification/postgres"
	"github.com/frahmantamala/complaint-management/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish events on the bus for testing and debugging notifications`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long: `Publish an event on the bus. Known types (complaint.created,
complaint.status_changed, task.assigned) are built from the flags; with
--deliver they go through the notification dispatcher against the database.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

type eventFlags struct {
	ComplaintID int64
	TaskID      int64
	AuthorID    int64
	ActorID     int64
	DeptID      int64
	Title       string
	Status      string
	Data        string
}

var (
	eventArgs    eventFlags
	eventDeliver bool
)

// buildEvent turns CLI flags into the typed event the dispatcher expects.
// Unknown types become a bare event with the --data message.
func buildEvent(eventType string, f eventFlags) events.Event {
	switch eventType {
	case events.EventTypeComplaintCreated:
		return events.NewComplaintCreatedEvent(f.ComplaintID, f.AuthorID, f.DeptID, f.Title, string(workflow.SeverityMedium))
	case events.EventTypeComplaintStatusChanged:
		return events.NewComplaintStatusChangedEvent(f.ComplaintID, f.AuthorID, f.Title, string(workflow.StatusPending), f.Status, f.ActorID)
	case events.EventTypeTaskAssigned:
		return events.NewTaskAssignedEvent(f.TaskID, f.ComplaintID, f.AuthorID, f.ActorID, f.Title, f.Data)
	default:
		return events.BaseEvent{
			ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"message": f.Data,
				"source":  "cli-command",
			},
		}
	}
}

func publishTestEvent(eventType string) {
	log := logger.LoggerWrapper()
	eventBus := events.NewEventBus(log)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		log.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if eventDeliver {
		closeDB, err := attachDispatcher(eventBus, log)
		if err != nil {
			log.Error("failed to wire dispatcher", "error", err)
			os.Exit(1)
		}
		defer closeDB()
	}

	event := buildEvent(eventType, eventArgs)
	log.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := eventBus.Publish(ctx, event); err != nil {
		log.Error("failed to publish event", "error", err)
		return
	}
	if err := eventBus.Drain(ctx); err != nil {
		log.Error("handlers did not finish", "error", err)
		return
	}
	log.Info("test event published successfully")
}

// attachDispatcher subscribes an in-app only dispatcher backed by the configured database.
func attachDispatcher(bus *events.EventBus, log *slog.Logger) (func(), error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}
	db, err := initDB(config.Database)
	if err != nil {
		return nil, err
	}
	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := notification.NewService(notificationPostgres.NewNotificationRepository(gdb), config.Notification.Purge.Retention, log)
	dispatcher := notification.NewDispatcher(store, notificationPostgres.NewDirectory(gdb), nil, nil,
		notification.DispatcherOptions{AppURL: config.Notification.AppURL}, log)
	dispatcher.RegisterEventHandlers(bus)

	return func() { _ = db.Close() }, nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventArgs.Data, "data", "test message", "Event data message")
	publishEventCmd.Flags().Int64Var(&eventArgs.ComplaintID, "complaint-id", 1, "Complaint the event refers to")
	publishEventCmd.Flags().Int64Var(&eventArgs.TaskID, "task-id", 1, "Task the event refers to")
	publishEventCmd.Flags().Int64Var(&eventArgs.AuthorID, "author", 0, "Complaint author emp_id")
	publishEventCmd.Flags().Int64Var(&eventArgs.ActorID, "actor", 0, "emp_id of the subadmin or admin acting")
	publishEventCmd.Flags().Int64Var(&eventArgs.DeptID, "dept", 0, "Department of the complaint")
	publishEventCmd.Flags().StringVar(&eventArgs.Title, "title", "Test complaint", "Complaint title")
	publishEventCmd.Flags().StringVar(&eventArgs.Status, "status", string(workflow.StatusInProgress), "New status for complaint.status_changed")
	publishEventCmd.Flags().BoolVar(&eventDeliver, "deliver", false, "Run the notification dispatcher against the database")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
