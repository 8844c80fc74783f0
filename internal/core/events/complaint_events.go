package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeComplaintCreated       = "complaint.created"
	EventTypeComplaintStatusChanged = "complaint.status_changed"
	EventTypeTaskAssigned           = "task.assigned"
)

// ComplaintCreatedEvent is raised when a user files a complaint. The
// department's subadmin is the audience.
type ComplaintCreatedEvent struct {
	BaseEvent
	ComplaintID int64  `json:"complaint_id"`
	AuthorID    int64  `json:"author_id"`
	DeptID      int64  `json:"dept_id"`
	Title       string `json:"title"`
	Severity    string `json:"severity"`
}

func NewComplaintCreatedEvent(complaintID, authorID, deptID int64, title, severity string) *ComplaintCreatedEvent {
	return &ComplaintCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeComplaintCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"complaint_id": complaintID,
				"author_id":    authorID,
				"dept_id":      deptID,
				"title":        title,
				"severity":     severity,
			},
		},
		ComplaintID: complaintID,
		AuthorID:    authorID,
		DeptID:      deptID,
		Title:       title,
		Severity:    severity,
	}
}

// ComplaintStatusChangedEvent is raised on every status change. The author
// is the audience.
type ComplaintStatusChangedEvent struct {
	BaseEvent
	ComplaintID int64  `json:"complaint_id"`
	AuthorID    int64  `json:"author_id"`
	Title       string `json:"title"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
	ChangedBy   int64  `json:"changed_by"`
}

func NewComplaintStatusChangedEvent(complaintID, authorID int64, title, from, to string, changedBy int64) *ComplaintStatusChangedEvent {
	return &ComplaintStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeComplaintStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"complaint_id": complaintID,
				"author_id":    authorID,
				"title":        title,
				"from_status":  from,
				"to_status":    to,
				"changed_by":   changedBy,
			},
		},
		ComplaintID: complaintID,
		AuthorID:    authorID,
		Title:       title,
		FromStatus:  from,
		ToStatus:    to,
		ChangedBy:   changedBy,
	}
}

// TaskAssignedEvent is raised when a subadmin first responds to a complaint.
type TaskAssignedEvent struct {
	BaseEvent
	TaskID      int64  `json:"task_id"`
	ComplaintID int64  `json:"complaint_id"`
	AuthorID    int64  `json:"author_id"`
	SubadminID  int64  `json:"subadmin_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func NewTaskAssignedEvent(taskID, complaintID, authorID, subadminID int64, title, description string) *TaskAssignedEvent {
	return &TaskAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTaskAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"task_id":      taskID,
				"complaint_id": complaintID,
				"author_id":    authorID,
				"subadmin_id":  subadminID,
				"title":        title,
				"description":  description,
			},
		},
		TaskID:      taskID,
		ComplaintID: complaintID,
		AuthorID:    authorID,
		SubadminID:  subadminID,
		Title:       title,
		Description: description,
	}
}
