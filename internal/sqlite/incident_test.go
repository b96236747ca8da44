package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/repository"
)

func seedIncident(t *testing.T, db *DB, id, sessionID string) *incident.Incident {
	t.Helper()
	now := time.Now()
	inc := &incident.Incident{
		ID:          id,
		SessionID:   sessionID,
		ReporterID:  "u1",
		Category:    incident.CategoryCheating,
		Description: "unauthorized notes found under the desk",
		Subject: incident.Subject{
			Kind:   incident.SubjectManual,
			Manual: &incident.ManualEntry{IndexNumber: "STU999", FullName: "Unknown"},
		},
		Status:     incident.StatusOpen,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	require.NoError(t, NewIncidentRepository(db).Create(context.Background(), inc))
	return inc
}

func TestIncidentRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedBatch(t, db, "b1")
	seedSession(t, db, "sess1", "b1", examsession.StatusActive)
	seedIncident(t, db, "i1", "sess1")

	got, err := NewIncidentRepository(db).Get(ctx, "i1")
	require.NoError(t, err)
	require.Equal(t, incident.SubjectManual, got.Subject.Kind)
	require.Equal(t, "STU999", got.Subject.Manual.IndexNumber)
	require.Empty(t, got.Attachments)
}

func TestIncidentRepository_CreateUnknownSession(t *testing.T) {
	db := NewTestDB(t)
	inc := &incident.Incident{
		ID:          "i1",
		SessionID:   "ghost",
		ReporterID:  "u1",
		Category:    incident.CategoryOther,
		Description: "x",
		Status:      incident.StatusOpen,
		CreatedAt:   time.Now(),
		ModifiedAt:  time.Now(),
	}
	err := NewIncidentRepository(db).Create(context.Background(), inc)
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestIncidentRepository_AttachmentsRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedBatch(t, db, "b1")
	seedSession(t, db, "sess1", "b1", examsession.StatusActive)
	seedIncident(t, db, "i1", "sess1")

	repo := NewIncidentRepository(db)
	require.NoError(t, repo.AddAttachment(ctx, &attachment.Stored{
		ID:         "a1",
		IncidentID: "i1",
		Name:       "desk.jpg",
		MIME:       "image/jpeg",
		Size:       2048,
		Hash:       "abc",
		UploadedAt: time.Now(),
	}))

	got, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	require.Equal(t, "desk.jpg", got.Attachments[0].Name)
}

func TestIncidentRepository_ListFilters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedBatch(t, db, "b1")
	seedSession(t, db, "sess1", "b1", examsession.StatusActive)
	seedSession(t, db, "sess2", "b1", examsession.StatusActive)
	seedIncident(t, db, "i1", "sess1")
	seedIncident(t, db, "i2", "sess2")

	repo := NewIncidentRepository(db)
	sessID := "sess1"
	got, err := repo.List(ctx, incident.ListOptions{SessionID: &sessID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "i1", got[0].ID)
	require.Equal(t, "STU999", got[0].Subject)

	cat := incident.CategoryMedical
	got, err = repo.List(ctx, incident.ListOptions{Category: &cat})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIncidentRepository_UpdateStatus(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedBatch(t, db, "b1")
	seedSession(t, db, "sess1", "b1", examsession.StatusActive)
	seedIncident(t, db, "i1", "sess1")

	repo := NewIncidentRepository(db)
	require.NoError(t, repo.UpdateStatus(ctx, "i1", incident.StatusResolved))

	got, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	require.Equal(t, incident.StatusResolved, got.Status)

	require.ErrorIs(t, repo.UpdateStatus(ctx, "ghost", incident.StatusResolved), repository.ErrNotFound)
}

func TestIncidentRepository_Search(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	seedBatch(t, db, "b1")
	seedSession(t, db, "sess1", "b1", examsession.StatusActive)
	seedIncident(t, db, "i1", "sess1")

	got, err := NewIncidentRepository(db).Search(ctx, "notes", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "i1", got[0].ID)
}
