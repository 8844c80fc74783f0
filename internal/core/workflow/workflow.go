package workflow

import (
	"github.com/frahmantamala/complaint-management/internal"
)

type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "Pending"
	StatusInProgress ComplaintStatus = "InProgress"
	StatusComplete   ComplaintStatus = "Complete"
	StatusRejected   ComplaintStatus = "Rejected"
)

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// transitions lists every allowed target per source status. Nothing moves
// back to Pending and Rejected accepts no further change. Complete only
// accepts itself so a task can still be closed after an admin completed
// the complaint directly.
var transitions = map[ComplaintStatus][]ComplaintStatus{
	StatusPending:    {StatusInProgress, StatusRejected},
	StatusInProgress: {StatusInProgress, StatusComplete, StatusRejected},
	StatusComplete:   {StatusComplete},
	StatusRejected:   {},
}

func (s ComplaintStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusRejected
}

func (s Severity) Valid() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

func CanTransition(from, to ComplaintStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Sources lists every status from which to can be reached, in table order.
// Repositories use it to guard writes against a status that changed after
// the service checked it.
func Sources(to ComplaintStatus) []string {
	var out []string
	for _, from := range Statuses() {
		if CanTransition(from, to) {
			out = append(out, string(from))
		}
	}
	return out
}

// Transition checks a status change against the table.
func Transition(from, to ComplaintStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	if from.IsTerminal() {
		return internal.ErrComplaintClosed
	}
	return internal.ErrInvalidStatusTransition
}

func Statuses() []ComplaintStatus {
	return []ComplaintStatus{StatusPending, StatusInProgress, StatusComplete, StatusRejected}
}

func Severities() []Severity {
	return []Severity{SeverityHigh, SeverityMedium, SeverityLow}
}
