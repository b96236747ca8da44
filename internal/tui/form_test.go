package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/domain/student"
	"github.com/invigil/invigil/internal/draft"
	"github.com/invigil/invigil/internal/lookup"
)

func newTestForm(t *testing.T) (FormModel, *DraftBox) {
	t.Helper()
	store, err := draft.NewFileStore(filepath.Join(t.TempDir(), "draft.json"))
	require.NoError(t, err)

	// A controller that would never fire: the delay is far beyond any
	// test's lifetime and no test drives the key input.
	ctrl := lookup.New(func(_ context.Context, key, _ string) (*student.LookupResult, error) {
		return nil, nil
	}, time.Hour, nil)

	box := &DraftBox{}
	m := NewForm(nil, ctrl, store, box)
	m.SetSessions([]examsession.ExamSession{
		{ID: "sess-1", CourseCode: "CS301", Title: "Final", Venue: "Main Hall"},
		{ID: "sess-2", CourseCode: "CS401", Title: "Final", Venue: "Hall B"},
	})
	return m, box
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNotFoundPreseedsManualFields(t *testing.T) {
	m, _ := newTestForm(t)

	m, _ = m.Update(LookupMsg(lookup.Snapshot{
		State:             lookup.StateNotFound,
		Key:               "STU1002",
		ManualIndexNumber: "STU1002",
		Suggestions:       []student.Suggestion{{IndexNumber: "STU1001"}},
	}))

	assert.True(t, m.manualVisible())
	assert.Equal(t, "STU1002", m.manualIndex.Value())

	view := m.View()
	assert.Contains(t, view, "no match")
	assert.Contains(t, view, "STU1001")
}

func TestManualEntryNotOverwrittenByLaterMiss(t *testing.T) {
	m, _ := newTestForm(t)

	m, _ = m.Update(LookupMsg(lookup.Snapshot{
		State: lookup.StateNotFound, ManualIndexNumber: "STU1002",
	}))
	m.manualIndex.SetValue("STU1002X") // operator corrected it by hand

	m, _ = m.Update(LookupMsg(lookup.Snapshot{
		State: lookup.StateNotFound, ManualIndexNumber: "STU1003",
	}))
	assert.Equal(t, "STU1002X", m.manualIndex.Value())
}

func TestFoundAfterMissClearsManualEntry(t *testing.T) {
	m, _ := newTestForm(t)

	m, _ = m.Update(LookupMsg(lookup.Snapshot{
		State: lookup.StateNotFound, ManualIndexNumber: "STU1002",
	}))
	require.Equal(t, "STU1002", m.manualIndex.Value())

	m, _ = m.Update(LookupMsg(lookup.Snapshot{
		State: lookup.StateFound,
		Key:   "STU1002",
		Result: &student.LookupResult{
			Student: student.Student{ID: "id-2", IndexNumber: "STU1002", FullName: "Kofi Boateng"},
		},
	}))

	assert.False(t, m.manualVisible())
	assert.Empty(t, m.manualIndex.Value())

	subject := m.buildSubject()
	require.Equal(t, incident.SubjectStudent, subject.Kind)
	require.NotNil(t, subject.Student)
	assert.Equal(t, "id-2", subject.Student.StudentID)
}

func TestSubjectBuiltFromLookupResult(t *testing.T) {
	m, _ := newTestForm(t)

	m, _ = m.Update(LookupMsg(lookup.Snapshot{
		State: lookup.StateFound,
		Key:   "STU1001",
		Result: &student.LookupResult{
			Student: student.Student{ID: "id-1", IndexNumber: "STU1001", FullName: "Ama Mensah"},
		},
	}))

	subject := m.buildSubject()
	require.Equal(t, incident.SubjectStudent, subject.Kind)
	require.NotNil(t, subject.Student)
	assert.Equal(t, "id-1", subject.Student.StudentID)
}

func TestSubjectFallsBackToManual(t *testing.T) {
	m, _ := newTestForm(t)

	m.manualIndex.SetValue("stu9001")
	m.manualName.SetValue("Unknown Candidate")

	subject := m.buildSubject()
	require.Equal(t, incident.SubjectManual, subject.Kind)
	assert.Equal(t, "STU9001", subject.Manual.IndexNumber)
}

func TestAttachmentCapEnforced(t *testing.T) {
	m, _ := newTestForm(t)

	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, "evidence"+string(rune('0'+i))+".png")
		require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
		m.addAttachment(path)
	}

	assert.Len(t, m.attachments, 5)
	assert.Contains(t, m.status, "at most 5")
}

func TestAttachmentTypeRejected(t *testing.T) {
	m, _ := newTestForm(t)

	path := filepath.Join(t.TempDir(), "tool.exe")
	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0o600))
	m.addAttachment(path)

	assert.Empty(t, m.attachments)
	assert.Contains(t, m.status, "not allowed")
}

func TestRestorePromptAccept(t *testing.T) {
	m, box := newTestForm(t)

	m.OfferRestore(draft.Draft{
		SessionID:   "sess-2",
		Category:    "misconduct",
		Description: "half-written",
		SavedAt:     time.Now(),
	})
	assert.Contains(t, m.View(), "Unsubmitted draft found")

	m, _ = m.Update(keyMsg("y"))
	assert.Nil(t, m.restorePending)
	assert.Equal(t, "sess-2", m.currentSessionID())
	assert.Equal(t, "half-written", m.description.Value())
	assert.Equal(t, incident.CategoryMisconduct, m.category())

	// The restored state is visible to the autosaver.
	assert.Equal(t, "half-written", box.Get().Description)
}

func TestRestorePromptStaleSessionDropped(t *testing.T) {
	m, _ := newTestForm(t)

	m.OfferRestore(draft.Draft{
		SessionID:   "sess-gone",
		Description: "orphaned draft",
		SavedAt:     time.Now(),
	})
	m, _ = m.Update(keyMsg("y"))

	assert.Equal(t, "", m.currentSessionID())
	assert.Equal(t, "orphaned draft", m.description.Value())
}

func TestRestorePromptDiscardClearsStore(t *testing.T) {
	m, _ := newTestForm(t)
	require.NoError(t, m.store.Save(draft.Draft{Description: "x"}))

	m.OfferRestore(draft.Draft{Description: "x", SavedAt: time.Now()})
	m, _ = m.Update(keyMsg("n"))

	assert.Nil(t, m.restorePending)
	_, ok, err := m.store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfidentialForcedForSensitiveCategory(t *testing.T) {
	m, _ := newTestForm(t)

	for i, c := range categories {
		if c == incident.CategoryHarassment {
			m.categoryIdx = i
		}
	}
	assert.True(t, m.forcedConfidential())
	assert.Contains(t, m.View(), "CONFIDENTIAL")
}
