package activitylog

import (
	"time"

	activityDatamodel "github.com/frahmantamala/complaint-management/internal/core/datamodel/activitylog"
)

type Entry struct {
	LogID       int64     `json:"log_id"`
	EmpID       int64     `json:"emp_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Module      string    `json:"module"`
	CreatedAt   time.Time `json:"timestamp"`
}

func FromDataModel(l *activityDatamodel.ActivityLog) *Entry {
	return &Entry{
		LogID:       l.LogID,
		EmpID:       l.EmpID,
		Action:      l.Action,
		Description: l.Description,
		Module:      l.Module,
		CreatedAt:   l.CreatedAt,
	}
}

type ListFilter struct {
	Module string
	EmpID  int64
	Limit  int
	Offset int
}

type Page struct {
	Logs   []*Entry `json:"logs"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

type Count struct {
	Label string `db:"label" json:"label"`
	Total int64  `db:"total" json:"count"`
}

type Analytics struct {
	ComplaintsByStatus     []Count `json:"complaints_by_status"`
	ComplaintsBySeverity   []Count `json:"complaints_by_severity"`
	ComplaintsByDepartment []Count `json:"complaints_by_department"`
	ActivityByModule       []Count `json:"activity_by_module"`
	ActivityLastWeek       []Count `json:"activity_last_week"`
}
