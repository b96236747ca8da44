package tui

import (
	"fmt"
	"strings"

	"github.com/invigil/invigil/internal/lookup"
)

func (m FormModel) View() string {
	if m.restorePending != nil {
		return m.viewRestorePrompt()
	}

	var b strings.Builder

	b.WriteString(m.renderSession())
	b.WriteString("\n")
	b.WriteString(m.renderLookup())
	if m.manualVisible() {
		b.WriteString(m.renderManual())
	}
	b.WriteString("\n")
	b.WriteString(m.renderRow(fieldCategory, "Category", m.renderCategory()))
	b.WriteString(m.renderRow(fieldDescription, "Description", ""))
	b.WriteString(m.description.View())
	b.WriteString("\n")
	b.WriteString(m.renderAttachments())
	b.WriteString(m.renderConfidential())
	b.WriteString("\n")
	b.WriteString(m.renderSubmit())

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(m.statusStyle.Render(m.status))
	}
	b.WriteString(helpStyle.Render("\ntab/shift+tab move · enter act · ctrl+c quit"))
	return b.String()
}

func (m FormModel) viewRestorePrompt() string {
	d := m.restorePending
	var b strings.Builder
	b.WriteString(titleStyle.Render("Unsubmitted draft found"))
	b.WriteString("\n\n")
	if d.Category != "" {
		b.WriteString(labelStyle.Render("Category") + valueStyle.Render(d.Category) + "\n")
	}
	if d.SubjectIndexNumber != "" {
		b.WriteString(labelStyle.Render("Subject") + valueStyle.Render(d.SubjectIndexNumber) + "\n")
	}
	desc := d.Description
	if len(desc) > 60 {
		desc = desc[:60] + "..."
	}
	if desc != "" {
		b.WriteString(labelStyle.Render("Description") + valueStyle.Render(desc) + "\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("\nsaved %s", d.SavedAt.Format("Jan 2 15:04"))))
	b.WriteString("\n\n")
	b.WriteString("Restore this draft? " + foundStyle.Render("[y]") + " yes  " + notFoundStyle.Render("[n]") + " discard")
	return b.String()
}

func (m FormModel) renderRow(f formField, label, value string) string {
	style := labelStyle
	if m.focus == f {
		style = focusedLabelStyle
	}
	return style.Render(label) + value + "\n"
}

func (m FormModel) renderSession() string {
	value := dimStyle.Render("< none selected >")
	if id := m.currentSessionID(); id != "" {
		sess := m.sessions[m.sessionIdx]
		value = valueStyle.Render(fmt.Sprintf("%s %s (%s)", sess.CourseCode, sess.Title, sess.Venue))
	}
	hint := ""
	if m.focus == fieldSession {
		hint = dimStyle.Render("  ←/→ change")
	}
	return m.renderRow(fieldSession, "Session", value+hint)
}

func (m FormModel) renderLookup() string {
	row := m.renderRow(fieldKey, "Student", m.keyInput.View())

	switch m.snap.State {
	case lookup.StatePending:
		row += labelStyle.Render("") + pendingStyle.Render("searching...") + "\n"
	case lookup.StateFound:
		st := m.snap.Result.Student
		line := fmt.Sprintf("%s - %s", st.IndexNumber, st.FullName)
		if m.snap.Result.InRoster {
			line += " (on roster)"
		} else if m.snap.Result.SessionID != "" {
			line += " (NOT on roster)"
		}
		row += labelStyle.Render("") + foundStyle.Render(line) + "\n"
	case lookup.StateNotFound:
		row += labelStyle.Render("") + notFoundStyle.Render("no match, enter details below") + "\n"
		for _, s := range m.snap.Suggestions {
			row += labelStyle.Render("") + dimStyle.Render(fmt.Sprintf("did you mean %s (%s)?", s.IndexNumber, s.FullName)) + "\n"
		}
	case lookup.StateError:
		row += labelStyle.Render("") + errorStyle.Render("lookup failed: "+m.snap.Err.Error()) + "\n"
	}
	return row
}

func (m FormModel) renderManual() string {
	var b strings.Builder
	b.WriteString(m.renderRow(fieldManualIndex, "  Index", m.manualIndex.View()))
	b.WriteString(m.renderRow(fieldManualName, "  Name", m.manualName.View()))
	b.WriteString(m.renderRow(fieldManualProgram, "  Program", m.manualProgram.View()))
	return b.String()
}

func (m FormModel) renderCategory() string {
	var parts []string
	for i, c := range categories {
		label := string(c)
		if i == m.categoryIdx {
			label = selectedRowStyle.Render(" " + label + " ")
		} else {
			label = dimStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func (m FormModel) renderAttachments() string {
	row := m.renderRow(fieldAttachments, "Evidence", m.attachInput.View())
	for _, path := range m.attachments {
		row += labelStyle.Render("") + valueStyle.Render("• "+path) + "\n"
	}
	row += labelStyle.Render("") + dimStyle.Render(fmt.Sprintf("%d of 5 attachments", len(m.attachments))) + "\n"
	return row
}

func (m FormModel) renderConfidential() string {
	value := dimStyle.Render("[ ] no")
	switch {
	case m.forcedConfidential():
		value = confidentialStyle.Render("CONFIDENTIAL") + dimStyle.Render(" (required for this category)")
	case m.confidential:
		value = confidentialStyle.Render("CONFIDENTIAL")
	}
	return m.renderRow(fieldConfidential, "Confidential", value)
}

func (m FormModel) renderSubmit() string {
	label := " Submit report "
	if m.submitting {
		label = " Submitting... "
	}
	if m.focus == fieldSubmit {
		return selectedRowStyle.Render(label)
	}
	return dimStyle.Render(label)
}
