package tui

import (
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/lookup"
	"github.com/invigil/invigil/internal/rest"
)

// LookupMsg delivers a lookup state transition into the update loop.
type LookupMsg lookup.Snapshot

// EventMsg is a server invalidation push.
type EventMsg rest.Event

type sessionsLoadedMsg struct {
	sessions []examsession.ExamSession
}

type rosterLoadedMsg struct {
	sessionID string
	roster    []examsession.RosterEntry
}

type attendanceMarkedMsg struct {
	record *examsession.AttendanceRecord
}

type feedLoadedMsg struct {
	entries []activity.Entry
}

type incidentsLoadedMsg struct {
	summaries []incident.Summary
}

type submitDoneMsg struct {
	incident *incident.Incident
}

type errMsg struct {
	err error
}
