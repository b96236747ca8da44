package integration_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/domain/user"
	"github.com/invigil/invigil/internal/sqlite"
)

type testEnv struct {
	db *sqlite.DB

	studentSvc  *student.Service
	sessionSvc  *examsession.Service
	incidentSvc *incident.Service
	userSvc     *user.Service
	activitySvc *activity.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	store, err := attachment.NewStore(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	studentRepo := sqlite.NewStudentRepository(db)
	batchRepo := sqlite.NewBatchRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	incidentRepo := sqlite.NewIncidentRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	activitySvc := activity.NewService(activityRepo, logger)

	return &testEnv{
		db:          db,
		studentSvc:  student.NewService(studentRepo, sessionRepo, logger),
		sessionSvc:  examsession.NewService(batchRepo, sessionRepo, activitySvc, logger),
		incidentSvc: incident.NewService(incidentRepo, sessionRepo, activitySvc, store, nil, logger),
		userSvc:     user.NewService(userRepo, logger),
		activitySvc: activitySvc,
	}
}

func (env *testEnv) seedSession(t *testing.T, ctx context.Context) *examsession.ExamSession {
	t.Helper()
	batch, err := env.sessionSvc.CreateBatch(ctx, examsession.CreateBatchRequest{
		Name:     "2026 Spring Finals",
		StartsOn: time.Now(),
		EndsOn:   time.Now().AddDate(0, 0, 14),
	})
	require.NoError(t, err)

	sess, err := env.sessionSvc.CreateSession(ctx, examsession.CreateSessionRequest{
		BatchID:    batch.ID,
		CourseCode: "CS301",
		Title:      "Operating Systems Final",
		Venue:      "Main Hall",
		StartsAt:   time.Now(),
		EndsAt:     time.Now().Add(3 * time.Hour),
	})
	require.NoError(t, err)
	return sess
}

func TestAttendanceLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sess := env.seedSession(t, ctx)

	st, err := env.studentSvc.Register(ctx, student.RegisterRequest{
		IndexNumber: "stu1001",
		FullName:    "Ama Mensah",
		Program:     "BSc Computer Science",
	})
	require.NoError(t, err)
	assert.Equal(t, "STU1001", st.IndexNumber, "index numbers are normalized")

	require.NoError(t, env.sessionSvc.AddToRoster(ctx, sess.ID, st.ID))

	// Lookup prefers the roster when scoped to a session.
	result, err := env.studentSvc.Lookup(ctx, "stu1001", sess.ID)
	require.NoError(t, err)
	assert.True(t, result.InRoster)

	_, err = env.sessionSvc.OpenSession(ctx, "actor-1", sess.ID)
	require.NoError(t, err)

	rec, err := env.sessionSvc.MarkAttendance(ctx, examsession.MarkAttendanceRequest{
		SessionID: sess.ID,
		StudentID: st.ID,
		Status:    examsession.AttendanceAbsent,
		MarkedBy:  "actor-1",
	})
	require.NoError(t, err)
	assert.Equal(t, examsession.AttendanceAbsent, rec.Status)

	// The latest mark wins.
	rec, err = env.sessionSvc.MarkAttendance(ctx, examsession.MarkAttendanceRequest{
		SessionID: sess.ID,
		StudentID: st.ID,
		Status:    examsession.AttendanceLate,
		MarkedBy:  "actor-1",
	})
	require.NoError(t, err)
	assert.Equal(t, examsession.AttendanceLate, rec.Status)

	roster, err := env.sessionSvc.Roster(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.NotNil(t, roster[0].Attendance)
	assert.Equal(t, examsession.AttendanceLate, roster[0].Attendance.Status)

	_, err = env.sessionSvc.CloseSession(ctx, "actor-1", sess.ID)
	require.NoError(t, err)

	_, err = env.sessionSvc.MarkAttendance(ctx, examsession.MarkAttendanceRequest{
		SessionID: sess.ID,
		StudentID: st.ID,
		Status:    examsession.AttendancePresent,
		MarkedBy:  "actor-1",
	})
	require.ErrorIs(t, err, examsession.ErrSessionClosed)
}

func TestIncidentReportingAndSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sess := env.seedSession(t, ctx)

	inc, err := env.incidentSvc.Report(ctx, incident.ReportRequest{
		SessionID:   sess.ID,
		ReporterID:  "actor-1",
		Category:    incident.CategoryCheating,
		Description: "candidate had formulas written on a ruler",
		Subject: incident.Subject{
			Kind:   incident.SubjectManual,
			Manual: &incident.ManualEntry{IndexNumber: "STU9001", FullName: "Unknown"},
		},
		Uploads: []incident.Upload{{
			Descriptor: attachment.Descriptor{Name: "ruler.jpg", MIME: "image/jpeg", Size: 10},
			Content:    strings.NewReader("jpeg\x00bytes"),
		}},
	})
	require.NoError(t, err)
	require.Len(t, inc.Attachments, 1)
	assert.NotEmpty(t, inc.Attachments[0].Hash)

	got, err := env.incidentSvc.Get(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.SubjectManual, got.Subject.Kind)
	assert.Equal(t, "STU9001", got.Subject.Manual.IndexNumber)

	// Full-text search over descriptions.
	hits, err := env.incidentSvc.Search(ctx, "ruler", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, inc.ID, hits[0].ID)

	hits, err = env.incidentSvc.Search(ctx, "calculator", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// The report landed in the activity feed.
	entries, err := env.activitySvc.Recent(ctx, activity.ListOptions{SessionID: &sess.ID})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, activity.KindIncidentReported, entries[0].Kind)
}

func TestBatchProgressAcrossSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	batch, err := env.sessionSvc.CreateBatch(ctx, examsession.CreateBatchRequest{
		Name:     "2026 Spring Finals",
		StartsOn: time.Now(),
		EndsOn:   time.Now().AddDate(0, 0, 14),
	})
	require.NoError(t, err)

	var sessions []*examsession.ExamSession
	for i := 0; i < 3; i++ {
		sess, err := env.sessionSvc.CreateSession(ctx, examsession.CreateSessionRequest{
			BatchID:    batch.ID,
			CourseCode: fmt.Sprintf("CS%d01", i+3),
			Title:      "Final",
			Venue:      "Hall B",
			StartsAt:   time.Now(),
			EndsAt:     time.Now().Add(2 * time.Hour),
		})
		require.NoError(t, err)
		sessions = append(sessions, sess)
	}

	st, err := env.studentSvc.Register(ctx, student.RegisterRequest{
		IndexNumber: "STU2001", FullName: "Kofi Boateng",
	})
	require.NoError(t, err)

	require.NoError(t, env.sessionSvc.AddToRoster(ctx, sessions[0].ID, st.ID))
	require.NoError(t, env.sessionSvc.AddToRoster(ctx, sessions[1].ID, st.ID))

	_, err = env.sessionSvc.OpenSession(ctx, "actor-1", sessions[0].ID)
	require.NoError(t, err)
	_, err = env.sessionSvc.MarkAttendance(ctx, examsession.MarkAttendanceRequest{
		SessionID: sessions[0].ID,
		StudentID: st.ID,
		Status:    examsession.AttendancePresent,
		MarkedBy:  "actor-1",
	})
	require.NoError(t, err)
	_, err = env.sessionSvc.CloseSession(ctx, "actor-1", sessions[0].ID)
	require.NoError(t, err)

	progress, err := env.sessionSvc.BatchProgress(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Scheduled)
	assert.Equal(t, 1, progress.Closed)
	assert.Equal(t, 2, progress.Registered)
	assert.Equal(t, 1, progress.MarkedTotal)
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	creds, err := env.userSvc.Create(ctx, user.CreateRequest{
		Name:  "Head Invigilator",
		Email: "head@example.edu",
		Role:  user.RoleCoordinator,
	})
	require.NoError(t, err)

	resolved, err := env.userSvc.ResolveToken(ctx, creds.Token)
	require.NoError(t, err)
	assert.Equal(t, creds.User.ID, resolved.ID)

	require.NoError(t, env.userSvc.Deactivate(ctx, creds.User.ID))
	_, err = env.userSvc.ResolveToken(ctx, creds.Token)
	require.ErrorIs(t, err, user.ErrUnauthorized)
}
