package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/activitylog"
)

// AnalyticsRepository runs read-only aggregates over the shared sqlx pool.
// Queries use ? placeholders and are rebound for the driver in use.
type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) activitylog.AnalyticsReader {
	return &AnalyticsRepository{db: db}
}

var groupableColumns = map[string]bool{
	"status":   true,
	"severity": true,
}

func (r *AnalyticsRepository) ComplaintsBy(ctx context.Context, column string) ([]activitylog.Count, error) {
	if !groupableColumns[column] {
		return nil, fmt.Errorf("cannot group complaints by %q", column)
	}
	query := fmt.Sprintf(`SELECT %[1]s AS label, COUNT(*) AS total
		FROM complaints
		GROUP BY %[1]s
		ORDER BY total DESC, label ASC`, column)
	return r.counts(ctx, "complaints by "+column, query)
}

func (r *AnalyticsRepository) ComplaintsByDepartment(ctx context.Context) ([]activitylog.Count, error) {
	const query = `SELECT d.name AS label, COUNT(c.complaint_id) AS total
		FROM departments d
		LEFT JOIN complaints c ON c.dept_id = d.dept_id
		GROUP BY d.dept_id, d.name
		ORDER BY total DESC, label ASC`
	return r.counts(ctx, "complaints by department", query)
}

func (r *AnalyticsRepository) ActivityByModule(ctx context.Context) ([]activitylog.Count, error) {
	const query = `SELECT module AS label, COUNT(*) AS total
		FROM activity_logs
		GROUP BY module
		ORDER BY total DESC, label ASC`
	return r.counts(ctx, "activity by module", query)
}

func (r *AnalyticsRepository) ActivityPerDay(ctx context.Context, since time.Time) ([]activitylog.Count, error) {
	const query = `SELECT CAST(DATE(created_at) AS TEXT) AS label, COUNT(*) AS total
		FROM activity_logs
		WHERE created_at >= ?
		GROUP BY CAST(DATE(created_at) AS TEXT)
		ORDER BY label ASC`
	return r.counts(ctx, "activity per day", query, since)
}

func (r *AnalyticsRepository) counts(ctx context.Context, what, query string, args ...interface{}) ([]activitylog.Count, error) {
	out := []activitylog.Count{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, internal.NewInternalError("failed to aggregate "+what, err)
	}
	return out, nil
}
