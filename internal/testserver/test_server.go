package testserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
	"github.com/invigil/invigil/internal/rest"
	"github.com/invigil/invigil/internal/sqlite"
)

// TestServer is a fully wired API server over an in-memory database,
// seeded with one admin account.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Token  string
	UserID string
}

func New(t *testing.T) *TestServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store, err := attachment.NewStore(t.TempDir())
	require.NoError(t, err)

	studentRepo := sqlite.NewStudentRepository(db)
	batchRepo := sqlite.NewBatchRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	incidentRepo := sqlite.NewIncidentRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	hub := rest.NewHub(logger)
	activitySvc := activity.NewService(activityRepo, logger)
	userSvc := user.NewService(userRepo, logger)
	services := rest.Services{
		Students:  student.NewService(studentRepo, sessionRepo, logger),
		Sessions:  examsession.NewService(batchRepo, sessionRepo, activitySvc, logger),
		Incidents: incident.NewService(incidentRepo, sessionRepo, activitySvc, store, hub, logger),
		Users:     userSvc,
		Activity:  activitySvc,
	}

	server := httptest.NewServer(rest.NewServer(services, hub, userSvc, logger))

	ts := &TestServer{Server: server, DB: db}
	ts.Token, ts.UserID = ts.AddUser(t, "adm@example.edu", user.RoleAdmin)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddUser inserts an account directly and returns its plaintext token.
func (ts *TestServer) AddUser(t *testing.T, email string, role user.Role) (token, id string) {
	t.Helper()

	id = uuid.NewString()
	token = "test-token-" + id
	_, err := ts.DB.Exec(
		`INSERT INTO users (id, name, email, role, token_hash, active, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)`,
		id, "Test "+string(role), email, string(role), user.HashToken(token), time.Now(),
	)
	require.NoError(t, err)
	return token, id
}

// Seed helpers keep API tests focused on the endpoint under test.

func (ts *TestServer) SeedStudent(t *testing.T, indexNumber, fullName string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := ts.DB.Exec(
		`INSERT INTO students (id, index_number, full_name, program, level, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, indexNumber, fullName, "BSc Computer Science", "300", time.Now(),
	)
	require.NoError(t, err)
	return id
}

func (ts *TestServer) SeedBatch(t *testing.T, name string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now()
	_, err := ts.DB.Exec(
		`INSERT INTO batches (id, name, starts_on, ends_on, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, now, now.AddDate(0, 0, 14), now,
	)
	require.NoError(t, err)
	return id
}

func (ts *TestServer) SeedSession(t *testing.T, batchID, courseCode string, status examsession.Status) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now()
	_, err := ts.DB.Exec(
		`INSERT INTO exam_sessions (id, batch_id, course_code, title, venue, starts_at, ends_at, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, batchID, courseCode, courseCode+" Final", "Main Hall", now, now.Add(3*time.Hour), string(status), now,
	)
	require.NoError(t, err)
	return id
}

func (ts *TestServer) SeedRoster(t *testing.T, sessionID, studentID string) {
	t.Helper()
	_, err := ts.DB.Exec(
		`INSERT INTO rosters (session_id, student_id) VALUES (?, ?)`,
		sessionID, studentID,
	)
	require.NoError(t, err)
}

// WaitForDB blocks until the database answers, for tests that race startup.
func (ts *TestServer) WaitForDB(ctx context.Context) error {
	return ts.DB.PingContext(ctx)
}
