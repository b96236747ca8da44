package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema.
func (db *DB) RunMigrations() error {
	migration := `
-- Exam batches (one exam period each)
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    starts_on TIMESTAMP NOT NULL,
    ends_on TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Exam sessions
CREATE TABLE IF NOT EXISTS exam_sessions (
    id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL,
    course_code TEXT NOT NULL,
    title TEXT NOT NULL,
    venue TEXT NOT NULL,
    starts_at TIMESTAMP NOT NULL,
    ends_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('scheduled', 'active', 'closed')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    closed_at TIMESTAMP,
    FOREIGN KEY (batch_id) REFERENCES batches(id)
);
CREATE INDEX IF NOT EXISTS idx_batch_sessions ON exam_sessions(batch_id);
CREATE INDEX IF NOT EXISTS idx_session_status ON exam_sessions(status);

-- Student directory
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    index_number TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    program TEXT NOT NULL DEFAULT '',
    level TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_student_index ON students(index_number);

-- Session rosters (who is registered to sit)
CREATE TABLE IF NOT EXISTS rosters (
    session_id TEXT NOT NULL,
    student_id TEXT NOT NULL,
    PRIMARY KEY (session_id, student_id),
    FOREIGN KEY (session_id) REFERENCES exam_sessions(id),
    FOREIGN KEY (student_id) REFERENCES students(id)
);

-- Attendance marks, one per (session, student), latest write wins
CREATE TABLE IF NOT EXISTS attendance (
    session_id TEXT NOT NULL,
    student_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('present', 'absent', 'late')),
    marked_by TEXT NOT NULL,
    marked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, student_id),
    FOREIGN KEY (session_id, student_id) REFERENCES rosters(session_id, student_id)
);

-- Incident reports
CREATE TABLE IF NOT EXISTS incidents (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    reporter_id TEXT NOT NULL,
    category TEXT NOT NULL CHECK(category IN (
        'cheating', 'impersonation', 'illegal_material', 'misconduct',
        'harassment', 'medical', 'other')),
    description TEXT NOT NULL,
    confidential INTEGER NOT NULL DEFAULT 0,
    subject_kind TEXT NOT NULL CHECK(subject_kind IN ('student', 'manual', 'none')),
    subject_json TEXT NOT NULL DEFAULT '{}',
    status TEXT NOT NULL CHECK(status IN ('open', 'under_review', 'resolved')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES exam_sessions(id)
);
CREATE INDEX IF NOT EXISTS idx_session_incidents ON incidents(session_id);
CREATE INDEX IF NOT EXISTS idx_incident_status ON incidents(status);
CREATE INDEX IF NOT EXISTS idx_incident_category ON incidents(category);

-- Attachment metadata (bytes live on disk, named by hash)
CREATE TABLE IF NOT EXISTS attachments (
    id TEXT PRIMARY KEY,
    incident_id TEXT NOT NULL,
    name TEXT NOT NULL,
    mime TEXT NOT NULL,
    size INTEGER NOT NULL,
    hash TEXT NOT NULL,
    uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (incident_id) REFERENCES incidents(id)
);
CREATE INDEX IF NOT EXISTS idx_incident_attachments ON attachments(incident_id);

-- Operator accounts
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL CHECK(role IN ('invigilator', 'coordinator', 'admin')),
    active INTEGER NOT NULL DEFAULT 1,
    token_hash TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_user_token ON users(token_hash);

-- Activity feed
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT,
    incident_id TEXT,
    actor_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_session_activity ON activity_log(session_id);
CREATE INDEX IF NOT EXISTS idx_incident_activity ON activity_log(incident_id);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);

-- Full-text search over incident descriptions (SQLite FTS5)
CREATE VIRTUAL TABLE IF NOT EXISTS incidents_fts USING fts5(
    description,
    content='incidents',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS incidents_ai AFTER INSERT ON incidents BEGIN
    INSERT INTO incidents_fts(rowid, description)
    VALUES (new.rowid, new.description);
END;

CREATE TRIGGER IF NOT EXISTS incidents_ad AFTER DELETE ON incidents BEGIN
    DELETE FROM incidents_fts WHERE rowid = old.rowid;
END;

CREATE TRIGGER IF NOT EXISTS incidents_au AFTER UPDATE OF description ON incidents BEGIN
    INSERT INTO incidents_fts(incidents_fts, rowid, description)
    VALUES('delete', old.rowid, old.description);
    INSERT INTO incidents_fts(rowid, description)
    VALUES (new.rowid, new.description);
END;
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
