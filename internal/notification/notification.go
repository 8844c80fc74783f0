package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/notification"
)

type Type string

const (
	TypeComplaint Type = "complaint"
	TypeTask      Type = "task"
	TypeSystem    Type = "system"
)

type Notification struct {
	NotificationID int64     `json:"notification_id"`
	EmpID          int64     `json:"emp_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Type           Type      `json:"type"`
	ReferenceID    *int64    `json:"reference_id"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		NotificationID: n.NotificationID,
		EmpID:          n.EmpID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           string(n.Type),
		ReferenceID:    n.ReferenceID,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		NotificationID: n.NotificationID,
		EmpID:          n.EmpID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           Type(n.Type),
		ReferenceID:    n.ReferenceID,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
	}
}

type ListFilter struct {
	EmpID      int64
	UnreadOnly bool
	Limit      int
	Offset     int
}

type Page struct {
	Notifications []*Notification `json:"notifications"`
	Total         int64           `json:"total"`
	Limit         int             `json:"limit"`
	Offset        int             `json:"offset"`
}

// Recipient is who a notification is addressed to.
type Recipient struct {
	EmpID int64
	Name  string
	Email string
}

// Message is one outgoing notification, rendered for every channel.
type Message struct {
	Title       string
	Body        string
	Type        Type
	ReferenceID int64
	Link        string
}
