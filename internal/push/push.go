package push

import (
	"time"

	pushDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/push"
)

type Subscription struct {
	ID        int64     `json:"id"`
	EmpID     int64     `json:"emp_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"-"`
	Auth      string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDataModel(s *pushDatamodel.Subscription) *Subscription {
	return &Subscription{
		ID:        s.ID,
		EmpID:     s.EmpID,
		Endpoint:  s.Endpoint,
		P256dh:    s.P256dh,
		Auth:      s.Auth,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}

// Payload is the JSON document the service worker receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}
