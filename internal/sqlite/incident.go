package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/repository"
)

// IncidentRepository implements incident.Repository over SQLite
type IncidentRepository struct {
	db *DB
}

var _ incident.Repository = (*IncidentRepository)(nil)

// NewIncidentRepository creates a new IncidentRepository
func NewIncidentRepository(db *DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Create inserts an incident
func (r *IncidentRepository) Create(ctx context.Context, inc *incident.Incident) error {
	subjectJSON, err := json.Marshal(inc.Subject)
	if err != nil {
		return fmt.Errorf("failed to encode subject: %w", err)
	}
	kind := inc.Subject.Kind
	if kind == "" {
		kind = incident.SubjectNone
	}

	query := `
		INSERT INTO incidents (
			id, session_id, reporter_id, category, description, confidential,
			subject_kind, subject_json, status, created_at, modified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		inc.ID, inc.SessionID, inc.ReporterID, inc.Category, inc.Description,
		inc.Confidential, kind, string(subjectJSON), inc.Status,
		inc.CreatedAt, inc.ModifiedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// Get retrieves an incident with its attachments
func (r *IncidentRepository) Get(ctx context.Context, id string) (*incident.Incident, error) {
	query := `
		SELECT id, session_id, reporter_id, category, description, confidential,
		       subject_json, status, created_at, modified_at
		FROM incidents WHERE id = ?
	`
	var inc incident.Incident
	var subjectJSON string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inc.ID, &inc.SessionID, &inc.ReporterID, &inc.Category, &inc.Description,
		&inc.Confidential, &subjectJSON, &inc.Status, &inc.CreatedAt, &inc.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	if err := json.Unmarshal([]byte(subjectJSON), &inc.Subject); err != nil {
		return nil, fmt.Errorf("failed to decode subject: %w", err)
	}

	attachments, err := r.attachments(ctx, id)
	if err != nil {
		return nil, err
	}
	inc.Attachments = attachments
	return &inc, nil
}

// UpdateStatus advances the review status
func (r *IncidentRepository) UpdateStatus(ctx context.Context, id string, status incident.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE incidents SET status = ?, modified_at = ? WHERE id = ?`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List pages through incident summaries with filtering, newest first
func (r *IncidentRepository) List(ctx context.Context, opts incident.ListOptions) ([]incident.Summary, error) {
	query := `
		SELECT id, session_id, category, confidential, status, subject_json, created_at
		FROM incidents
	`
	var conditions []string
	var args []any
	if opts.SessionID != nil {
		conditions = append(conditions, "session_id = ?")
		args = append(args, *opts.SessionID)
	}
	if opts.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, *opts.Category)
	}
	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *opts.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
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
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// AddAttachment records attachment metadata
func (r *IncidentRepository) AddAttachment(ctx context.Context, att *attachment.Stored) error {
	query := `
		INSERT INTO attachments (id, incident_id, name, mime, size, hash, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		att.ID, att.IncidentID, att.Name, att.MIME, att.Size, att.Hash, att.UploadedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add attachment: %w", err)
	}
	return nil
}

// Search performs a full-text search over incident descriptions
func (r *IncidentRepository) Search(ctx context.Context, query string, limit int) ([]incident.Summary, error) {
	sqlQuery := `
		SELECT i.id, i.session_id, i.category, i.confidential, i.status, i.subject_json, i.created_at
		FROM incidents_fts
		JOIN incidents i ON i.rowid = incidents_fts.rowid
		WHERE incidents_fts MATCH ?
		ORDER BY rank
	`
	args := []any{query}
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search incidents: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (r *IncidentRepository) attachments(ctx context.Context, incidentID string) ([]attachment.Stored, error) {
	query := `
		SELECT id, incident_id, name, mime, size, hash, uploaded_at
		FROM attachments WHERE incident_id = ? ORDER BY uploaded_at
	`
	rows, err := r.db.QueryContext(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	defer rows.Close()

	var attachments []attachment.Stored
	for rows.Next() {
		var att attachment.Stored
		err := rows.Scan(&att.ID, &att.IncidentID, &att.Name, &att.MIME, &att.Size, &att.Hash, &att.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

func scanSummaries(rows *sql.Rows) ([]incident.Summary, error) {
	var summaries []incident.Summary
	for rows.Next() {
		var sum incident.Summary
		var subjectJSON string
		err := rows.Scan(&sum.ID, &sum.SessionID, &sum.Category, &sum.Confidential,
			&sum.Status, &subjectJSON, &sum.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		sum.Subject = subjectLabel(subjectJSON)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func subjectLabel(subjectJSON string) string {
	var subj incident.Subject
	if err := json.Unmarshal([]byte(subjectJSON), &subj); err != nil {
		return ""
	}
	switch subj.Kind {
	case incident.SubjectStudent:
		return subj.Student.IndexNumber
	case incident.SubjectManual:
		return subj.Manual.IndexNumber
	}
	return ""
}
