package incident_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/repository"
	"github.com/invigil/invigil/internal/repository/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeSession(id string) *examsession.ExamSession {
	return &examsession.ExamSession{ID: id, Status: examsession.StatusActive}
}

func TestIncidentService_Report_StudentSubject(t *testing.T) {
	ctx := context.Background()
	incidents := &mocks.IncidentRepository{}
	sessions := &mocks.SessionRepository{}

	sessions.On("Get", ctx, "sess1").Return(activeSession("sess1"), nil)
	incidents.On("Create", ctx, mock.Anything).Return(nil)

	svc := incident.NewService(incidents, sessions, nil, nil, nil, discardLogger())
	inc, err := svc.Report(ctx, incident.ReportRequest{
		SessionID:   "sess1",
		ReporterID:  "u1",
		Category:    incident.CategoryCheating,
		Description: "notes under desk",
		Subject: incident.Subject{
			Kind:    incident.SubjectStudent,
			Student: &incident.StudentRef{StudentID: "s1", IndexNumber: "STU123", FullName: "Ama"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, incident.StatusOpen, inc.Status)
	require.False(t, inc.Confidential)
}

func TestIncidentService_Report_SensitiveCategoryForcedConfidential(t *testing.T) {
	ctx := context.Background()
	incidents := &mocks.IncidentRepository{}
	sessions := &mocks.SessionRepository{}

	sessions.On("Get", ctx, "sess1").Return(activeSession("sess1"), nil)
	incidents.On("Create", ctx, mock.Anything).Return(nil)

	svc := incident.NewService(incidents, sessions, nil, nil, nil, discardLogger())
	for _, cat := range []incident.Category{incident.CategoryImpersonation, incident.CategoryHarassment} {
		inc, err := svc.Report(ctx, incident.ReportRequest{
			SessionID:    "sess1",
			ReporterID:   "u1",
			Category:     cat,
			Description:  "details",
			Confidential: false,
		})
		require.NoError(t, err)
		require.True(t, inc.Confidential, "category %s must be confidential", cat)
	}
}

func TestIncidentService_Report_SubjectExclusivity(t *testing.T) {
	ctx := context.Background()
	svc := incident.NewService(&mocks.IncidentRepository{}, &mocks.SessionRepository{}, nil, nil, nil, discardLogger())

	_, err := svc.Report(ctx, incident.ReportRequest{
		SessionID:   "sess1",
		ReporterID:  "u1",
		Category:    incident.CategoryCheating,
		Description: "x",
		Subject: incident.Subject{
			Kind:    incident.SubjectStudent,
			Student: &incident.StudentRef{StudentID: "s1"},
			Manual:  &incident.ManualEntry{IndexNumber: "STU999"},
		},
	})
	require.ErrorIs(t, err, incident.ErrInvalidInput)
}

func TestIncidentService_Report_TooManyAttachments(t *testing.T) {
	ctx := context.Background()
	svc := incident.NewService(&mocks.IncidentRepository{}, &mocks.SessionRepository{}, nil, nil, nil, discardLogger())

	uploads := make([]incident.Upload, attachment.MaxCount+1)
	for i := range uploads {
		uploads[i] = incident.Upload{
			Descriptor: attachment.Descriptor{Name: "a.png", MIME: "image/png", Size: 10},
			Content:    strings.NewReader("x"),
		}
	}
	_, err := svc.Report(ctx, incident.ReportRequest{
		SessionID:   "sess1",
		ReporterID:  "u1",
		Category:    incident.CategoryOther,
		Description: "x",
		Uploads:     uploads,
	})
	require.ErrorIs(t, err, incident.ErrTooManyAttachments)
}

func TestIncidentService_Report_InvalidAttachmentRejectedBeforePersist(t *testing.T) {
	ctx := context.Background()
	incidents := &mocks.IncidentRepository{}
	sessions := &mocks.SessionRepository{}

	svc := incident.NewService(incidents, sessions, nil, nil, nil, discardLogger())
	_, err := svc.Report(ctx, incident.ReportRequest{
		SessionID:   "sess1",
		ReporterID:  "u1",
		Category:    incident.CategoryOther,
		Description: "x",
		Uploads: []incident.Upload{{
			Descriptor: attachment.Descriptor{Name: "v.exe", MIME: "application/x-msdownload", Size: 1},
			Content:    strings.NewReader("x"),
		}},
	})
	require.ErrorIs(t, err, incident.ErrInvalidInput)
	incidents.AssertNotCalled(t, "Create", ctx, mock.Anything)
}

func TestIncidentService_Report_SessionMissing(t *testing.T) {
	ctx := context.Background()
	incidents := &mocks.IncidentRepository{}
	sessions := &mocks.SessionRepository{}

	sessions.On("Get", ctx, "ghost").Return(nil, repository.ErrNotFound)

	svc := incident.NewService(incidents, sessions, nil, nil, nil, discardLogger())
	_, err := svc.Report(ctx, incident.ReportRequest{
		SessionID:   "ghost",
		ReporterID:  "u1",
		Category:    incident.CategoryOther,
		Description: "x",
	})
	require.ErrorIs(t, err, incident.ErrSessionNotFound)
}

func TestIncidentService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	incidents := &mocks.IncidentRepository{}
	sessions := &mocks.SessionRepository{}

	incidents.On("Get", ctx, "i1").Return(&incident.Incident{ID: "i1", SessionID: "sess1"}, nil)
	incidents.On("UpdateStatus", ctx, "i1", incident.StatusResolved).Return(nil)

	svc := incident.NewService(incidents, sessions, nil, nil, nil, discardLogger())
	err := svc.UpdateStatus(ctx, "u1", "i1", incident.StatusResolved)
	require.NoError(t, err)
}

func TestSubject_UnmarshalRejectsBothVariants(t *testing.T) {
	var s incident.Subject
	err := s.UnmarshalJSON([]byte(`{"kind":"manual","student":{"student_id":"s1"},"manual":{"index_number":"X"}}`))
	require.Error(t, err)
}

func TestSubject_UnmarshalManual(t *testing.T) {
	var s incident.Subject
	err := s.UnmarshalJSON([]byte(`{"kind":"manual","manual":{"index_number":"STU123","full_name":"Ama"}}`))
	require.NoError(t, err)
	require.Equal(t, incident.SubjectManual, s.Kind)
	require.Equal(t, "STU123", s.Manual.IndexNumber)
}
