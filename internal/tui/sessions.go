package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/invigil/invigil/internal/client"
	"github.com/invigil/invigil/internal/domain/examsession"
)

// SessionsModel lists sessions and marks attendance against the roster
// of the selected one.
type SessionsModel struct {
	client *client.Client

	sessions   []examsession.ExamSession
	roster     []examsession.RosterEntry
	sessionIdx int
	rosterIdx  int
	showRoster bool
	status     string
	err        error
}

func NewSessions(c *client.Client) SessionsModel {
	return SessionsModel{client: c}
}

func (m *SessionsModel) SetSessions(sessions []examsession.ExamSession) {
	m.sessions = sessions
	if m.sessionIdx >= len(sessions) {
		m.sessionIdx = 0
	}
}

func (m SessionsModel) selected() *examsession.ExamSession {
	if m.sessionIdx < 0 || m.sessionIdx >= len(m.sessions) {
		return nil
	}
	return &m.sessions[m.sessionIdx]
}

func (m SessionsModel) loadRosterCmd(sessionID string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		roster, err := c.Roster(ctx, sessionID)
		if err != nil {
			return errMsg{err}
		}
		return rosterLoadedMsg{sessionID: sessionID, roster: roster}
	}
}

func (m SessionsModel) markCmd(sessionID, studentID, status string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		record, err := c.MarkAttendance(ctx, sessionID, studentID, status)
		if err != nil {
			return errMsg{err}
		}
		return attendanceMarkedMsg{record: record}
	}
}

func (m SessionsModel) toggleCmd(sess *examsession.ExamSession) tea.Cmd {
	c := m.client
	id := sess.ID
	open := sess.Status == examsession.StatusScheduled
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var err error
		if open {
			_, err = c.OpenSession(ctx, id)
		} else {
			_, err = c.CloseSession(ctx, id)
		}
		if err != nil {
			return errMsg{err}
		}
		sessions, err := c.ListSessions(ctx)
		if err != nil {
			return errMsg{err}
		}
		return sessionsLoadedMsg{sessions: sessions}
	}
}

func (m SessionsModel) Update(msg tea.Msg) (SessionsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case rosterLoadedMsg:
		m.roster = msg.roster
		m.rosterIdx = 0
		m.showRoster = true
		m.err = nil
		return m, nil

	case attendanceMarkedMsg:
		for i := range m.roster {
			if m.roster[i].Student.ID == msg.record.StudentID {
				m.roster[i].Attendance = msg.record
			}
		}
		m.status = fmt.Sprintf("marked %s", msg.record.Status)
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m SessionsModel) updateKeys(msg tea.KeyMsg) (SessionsModel, tea.Cmd) {
	if m.showRoster {
		switch msg.String() {
		case "esc":
			m.showRoster = false
		case "up", "k":
			if m.rosterIdx > 0 {
				m.rosterIdx--
			}
		case "down", "j":
			if m.rosterIdx < len(m.roster)-1 {
				m.rosterIdx++
			}
		case "p", "a", "l":
			if m.rosterIdx < len(m.roster) {
				sess := m.selected()
				status := map[string]string{"p": "present", "a": "absent", "l": "late"}[msg.String()]
				return m, m.markCmd(sess.ID, m.roster[m.rosterIdx].Student.ID, status)
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.sessionIdx > 0 {
			m.sessionIdx--
		}
	case "down", "j":
		if m.sessionIdx < len(m.sessions)-1 {
			m.sessionIdx++
		}
	case "enter":
		if sess := m.selected(); sess != nil {
			return m, m.loadRosterCmd(sess.ID)
		}
	case "o":
		if sess := m.selected(); sess != nil && sess.Status != examsession.StatusClosed {
			return m, m.toggleCmd(sess)
		}
	}
	return m, nil
}

func (m SessionsModel) View() string {
	if len(m.sessions) == 0 {
		return dimStyle.Render("no exam sessions")
	}
	if m.showRoster {
		return m.viewRoster()
	}

	var b strings.Builder
	for i, sess := range m.sessions {
		line := fmt.Sprintf("%-10s %-28s %-12s %s",
			sess.CourseCode, truncate(sess.Title, 28), sess.Venue, sess.Status)
		if i == m.sessionIdx {
			line = selectedRowStyle.Render(line)
		} else {
			line = valueStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(helpStyle.Render("\nenter roster · o open/close session · j/k move"))
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	return b.String()
}

func (m SessionsModel) viewRoster() string {
	sess := m.selected()
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s roster", sess.CourseCode)))
	b.WriteString("\n\n")
	if len(m.roster) == 0 {
		b.WriteString(dimStyle.Render("roster is empty"))
	}
	for i, entry := range m.roster {
		mark := dimStyle.Render("-")
		if entry.Attendance != nil {
			switch entry.Attendance.Status {
			case examsession.AttendancePresent:
				mark = foundStyle.Render("present")
			case examsession.AttendanceAbsent:
				mark = notFoundStyle.Render("absent")
			case examsession.AttendanceLate:
				mark = pendingStyle.Render("late")
			}
		}
		line := fmt.Sprintf("%-12s %-30s ", entry.Student.IndexNumber, truncate(entry.Student.FullName, 30))
		if i == m.rosterIdx {
			line = selectedRowStyle.Render(line)
		} else {
			line = valueStyle.Render(line)
		}
		b.WriteString(line + mark + "\n")
	}
	b.WriteString(helpStyle.Render("\np present · a absent · l late · esc back"))
	if m.status != "" {
		b.WriteString("\n" + successStyle.Render(m.status))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
