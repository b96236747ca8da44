package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/invigil/invigil/internal/domain/activity"
)

// ActivityRepository implements activity.Repository over SQLite
type ActivityRepository struct {
	db *DB
}

var _ activity.Repository = (*ActivityRepository)(nil)

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends a feed entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	query := `
		INSERT INTO activity_log (session_id, incident_id, actor_id, kind, summary, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.SessionID, entry.IncidentID, entry.ActorID, entry.Kind,
		entry.Summary, entry.Details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	return nil
}

// List returns feed entries with filtering, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	query := `
		SELECT id, session_id, incident_id, actor_id, kind, summary, details, created_at
		FROM activity_log
	`
	var conditions []string
	var args []any
	if opts.SessionID != nil {
		conditions = append(conditions, "session_id = ?")
		args = append(args, *opts.SessionID)
	}
	if opts.IncidentID != nil {
		conditions = append(conditions, "incident_id = ?")
		args = append(args, *opts.IncidentID)
	}
	if opts.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, *opts.Kind)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var entry activity.Entry
		var sessionID, incidentID, details sql.NullString
		err := rows.Scan(&entry.ID, &sessionID, &incidentID, &entry.ActorID,
			&entry.Kind, &entry.Summary, &details, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if sessionID.Valid {
			entry.SessionID = &sessionID.String
		}
		if incidentID.Valid {
			entry.IncidentID = &incidentID.String
		}
		entry.Details = details.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
