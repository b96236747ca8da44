package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/invigil/invigil/internal/attachment"
	"github.com/invigil/invigil/internal/client"
	"github.com/invigil/invigil/internal/domain/examsession"
	"github.com/invigil/invigil/internal/domain/incident"
	"github.com/invigil/invigil/internal/draft"
	"github.com/invigil/invigil/internal/lookup"
)

// DraftBox is a thread-safe snapshot of the form read by the background
// autosaver while the update loop keeps mutating the model.
type DraftBox struct {
	mu sync.Mutex
	d  draft.Draft
}

func (b *DraftBox) Set(d draft.Draft) {
	b.mu.Lock()
	b.d = d
	b.mu.Unlock()
}

func (b *DraftBox) Get() draft.Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.d
}

type formField int

const (
	fieldSession formField = iota
	fieldKey
	fieldManualIndex
	fieldManualName
	fieldManualProgram
	fieldCategory
	fieldDescription
	fieldAttachments
	fieldConfidential
	fieldSubmit
	fieldCount
)

var categories = []incident.Category{
	incident.CategoryCheating,
	incident.CategoryImpersonation,
	incident.CategoryIllegalMaterial,
	incident.CategoryMisconduct,
	incident.CategoryHarassment,
	incident.CategoryMedical,
	incident.CategoryOther,
}

// FormModel is the incident report form. The subject field runs debounced
// lookups as the operator types; a miss flips the form into manual entry
// pre-seeded with what was typed.
type FormModel struct {
	client *client.Client
	ctrl   *lookup.Controller
	store  draft.Store
	box    *DraftBox

	sessions   []examsession.ExamSession
	sessionIdx int // -1 when no scope selected

	keyInput      textinput.Model
	manualIndex   textinput.Model
	manualName    textinput.Model
	manualProgram textinput.Model
	description   textarea.Model
	attachInput   textinput.Model

	snap         lookup.Snapshot
	categoryIdx  int
	confidential bool
	attachments  []string
	focus        formField

	restorePending *draft.Draft
	submitting     bool
	status         string
	statusStyle    lipgloss.Style
	width          int
}

// NewForm builds the report form.
func NewForm(c *client.Client, ctrl *lookup.Controller, store draft.Store, box *DraftBox) FormModel {
	key := textinput.New()
	key.Placeholder = "index number (min 3 chars)"
	key.CharLimit = 32
	key.Width = 30

	manualIndex := textinput.New()
	manualIndex.Placeholder = "index number"
	manualIndex.CharLimit = 32
	manualIndex.Width = 30

	manualName := textinput.New()
	manualName.Placeholder = "full name"
	manualName.CharLimit = 80
	manualName.Width = 30

	manualProgram := textinput.New()
	manualProgram.Placeholder = "program (optional)"
	manualProgram.CharLimit = 80
	manualProgram.Width = 30

	desc := textarea.New()
	desc.Placeholder = "What happened?"
	desc.SetWidth(60)
	desc.SetHeight(4)
	desc.CharLimit = 4000

	attach := textinput.New()
	attach.Placeholder = "path to evidence file, enter to add"
	attach.Width = 50

	m := FormModel{
		client:        c,
		ctrl:          ctrl,
		store:         store,
		box:           box,
		sessionIdx:    -1,
		keyInput:      key,
		manualIndex:   manualIndex,
		manualName:    manualName,
		manualProgram: manualProgram,
		description:   desc,
		attachInput:   attach,
		focus:         fieldSession,
	}
	return m
}

// SetSessions installs the selectable scope list.
func (m *FormModel) SetSessions(sessions []examsession.ExamSession) {
	m.sessions = sessions
}

// OfferRestore arms the restore-once prompt for a previously saved draft.
func (m *FormModel) OfferRestore(d draft.Draft) {
	m.restorePending = &d
}

func (m *FormModel) currentSessionID() string {
	if m.sessionIdx < 0 || m.sessionIdx >= len(m.sessions) {
		return ""
	}
	return m.sessions[m.sessionIdx].ID
}

func (m *FormModel) category() incident.Category {
	return categories[m.categoryIdx]
}

// forcedConfidential mirrors the server rule so the operator sees the
// flag before submitting.
func (m *FormModel) forcedConfidential() bool {
	return m.category().Confidential()
}

// pristine reports whether the operator has not entered anything yet.
func (m *FormModel) pristine() bool {
	return m.keyInput.Value() == "" &&
		m.description.Value() == "" &&
		m.manualIndex.Value() == "" &&
		m.manualName.Value() == "" &&
		m.manualProgram.Value() == "" &&
		len(m.attachments) == 0 &&
		m.categoryIdx == 0 &&
		!m.confidential
}

func (m *FormModel) manualVisible() bool {
	return m.snap.State == lookup.StateNotFound || m.manualIndex.Value() != ""
}

// applyDraft restores saved form state. The saved session scope is
// re-resolved against the live session list and silently dropped when
// the session no longer exists.
func (m *FormModel) applyDraft(d draft.Draft) {
	m.sessionIdx = -1
	if d.SessionID != "" {
		for i, sess := range m.sessions {
			if sess.ID == d.SessionID {
				m.sessionIdx = i
				m.ctrl.SetScope(sess.ID)
				break
			}
		}
	}
	for i, c := range categories {
		if string(c) == d.Category {
			m.categoryIdx = i
		}
	}
	m.description.SetValue(d.Description)
	m.confidential = d.Confidential
	m.manualIndex.SetValue(d.SubjectIndexNumber)
	m.manualName.SetValue(d.SubjectFullName)
	m.manualProgram.SetValue(d.SubjectProgram)
	m.attachments = append([]string(nil), d.AttachmentPaths...)
	if d.SubjectIndexNumber != "" && d.SubjectKind != string(incident.SubjectManual) {
		m.keyInput.SetValue(d.SubjectIndexNumber)
		m.ctrl.SetKey(d.SubjectIndexNumber)
	}
}

// syncDraft publishes the current form state for the autosaver.
func (m *FormModel) syncDraft() {
	d := draft.Draft{
		SessionID:    m.currentSessionID(),
		Category:     string(m.category()),
		Description:  m.description.Value(),
		Confidential: m.confidential || m.forcedConfidential(),
	}
	if m.description.Value() == "" && m.manualIndex.Value() == "" && len(m.attachments) == 0 {
		// Nothing typed yet: keep the box empty so autosave stays quiet.
		d.Category = ""
	}
	if m.manualVisible() {
		d.SubjectKind = string(incident.SubjectManual)
		d.SubjectIndexNumber = m.manualIndex.Value()
		d.SubjectFullName = m.manualName.Value()
		d.SubjectProgram = m.manualProgram.Value()
	} else if m.snap.State == lookup.StateFound && m.snap.Result != nil {
		d.SubjectKind = string(incident.SubjectStudent)
		d.SubjectIndexNumber = m.snap.Result.Student.IndexNumber
	}
	d.AttachmentPaths = append([]string(nil), m.attachments...)
	m.box.Set(d)
}

func (m *FormModel) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

// addAttachment validates and appends a local file path. The cap and the
// type/size rules run before the path is accepted.
func (m *FormModel) addAttachment(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	if err := attachment.CheckCap(len(m.attachments)); err != nil {
		m.setStatus(err.Error(), errorStyle)
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		m.setStatus(fmt.Sprintf("cannot read %s", path), errorStyle)
		return
	}
	desc := attachment.Descriptor{
		Path: path,
		Name: filepath.Base(path),
		MIME: mime.TypeByExtension(filepath.Ext(path)),
		Size: fi.Size(),
	}
	if err := attachment.Validate(desc); err != nil {
		m.setStatus(err.Error(), errorStyle)
		return
	}
	m.attachments = append(m.attachments, path)
	m.attachInput.SetValue("")
	m.setStatus(fmt.Sprintf("attached %s", desc.Name), successStyle)
}

func (m *FormModel) buildSubject() incident.Subject {
	if m.snap.State == lookup.StateFound && m.snap.Result != nil && !m.manualVisible() {
		st := m.snap.Result.Student
		return incident.Subject{
			Kind: incident.SubjectStudent,
			Student: &incident.StudentRef{
				StudentID:   st.ID,
				IndexNumber: st.IndexNumber,
				FullName:    st.FullName,
			},
		}
	}
	if m.manualIndex.Value() != "" {
		return incident.Subject{
			Kind: incident.SubjectManual,
			Manual: &incident.ManualEntry{
				IndexNumber: strings.ToUpper(strings.TrimSpace(m.manualIndex.Value())),
				FullName:    strings.TrimSpace(m.manualName.Value()),
				Program:     strings.TrimSpace(m.manualProgram.Value()),
			},
		}
	}
	return incident.Subject{Kind: incident.SubjectNone}
}

func (m *FormModel) submitCmd() tea.Cmd {
	req := client.ReportIncidentRequest{
		SessionID:    m.currentSessionID(),
		Category:     string(m.category()),
		Description:  strings.TrimSpace(m.description.Value()),
		Confidential: m.confidential || m.forcedConfidential(),
		Subject:      m.buildSubject(),
	}
	paths := append([]string(nil), m.attachments...)
	c := m.client

	return func() tea.Msg {
		var files []*os.File
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()
		for _, path := range paths {
			f, err := os.Open(path)
			if err != nil {
				return errMsg{fmt.Errorf("opening %s: %w", path, err)}
			}
			files = append(files, f)
			req.Attachments = append(req.Attachments, client.Attachment{
				Name:    filepath.Base(path),
				MIME:    mime.TypeByExtension(filepath.Ext(path)),
				Content: f,
			})
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		inc, err := c.ReportIncident(ctx, req)
		if err != nil {
			return errMsg{err}
		}
		return submitDoneMsg{incident: inc}
	}
}

func (m *FormModel) validate() string {
	if m.currentSessionID() == "" {
		return "select an exam session first"
	}
	if strings.TrimSpace(m.description.Value()) == "" {
		return "description is required"
	}
	if m.snap.State == lookup.StatePending {
		return "wait for the student lookup to finish"
	}
	return ""
}

// reset clears the form after a successful submission.
func (m *FormModel) reset() {
	m.keyInput.SetValue("")
	m.manualIndex.SetValue("")
	m.manualName.SetValue("")
	m.manualProgram.SetValue("")
	m.description.SetValue("")
	m.attachInput.SetValue("")
	m.attachments = nil
	m.confidential = false
	m.categoryIdx = 0
	m.snap = lookup.Snapshot{}
	m.ctrl.Reset()
	m.box.Set(draft.Draft{})
	_ = m.store.Clear()
}

func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if m.restorePending != nil {
		return m.updateRestorePrompt(msg)
	}

	switch msg := msg.(type) {
	case LookupMsg:
		m.snap = lookup.Snapshot(msg)
		switch m.snap.State {
		case lookup.StateNotFound:
			if m.manualIndex.Value() == "" {
				m.manualIndex.SetValue(m.snap.ManualIndexNumber)
			}
		case lookup.StateFound:
			// A resolved student supersedes any pre-seeded manual entry.
			m.manualIndex.SetValue("")
			m.manualName.SetValue("")
			m.manualProgram.SetValue("")
		}
		m.syncDraft()
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		m.reset()
		m.setStatus(fmt.Sprintf("incident %s filed", shortID(msg.incident.ID)), successStyle)
		return m, nil

	case errMsg:
		m.submitting = false
		m.setStatus(msg.err.Error(), errorStyle)
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m FormModel) updateRestorePrompt(msg tea.Msg) (FormModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.applyDraft(*m.restorePending)
		m.restorePending = nil
		m.syncDraft()
		m.setStatus("draft restored", successStyle)
	case "n", "N", "esc":
		m.restorePending = nil
		_ = m.store.Clear()
		m.setStatus("draft discarded", dimStyle)
	}
	return m, nil
}

func (m FormModel) updateKeys(msg tea.KeyMsg) (FormModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		if m.focus == fieldDescription && msg.String() == "down" {
			break // down moves the cursor inside the textarea
		}
		m.focus = m.nextField(m.focus, 1)
		return m.refocus(), nil
	case "shift+tab", "up":
		if m.focus == fieldDescription && msg.String() == "up" {
			break
		}
		m.focus = m.nextField(m.focus, -1)
		return m.refocus(), nil
	}

	switch m.focus {
	case fieldSession:
		switch msg.String() {
		case "left", "h":
			if m.sessionIdx > -1 {
				m.sessionIdx--
			}
		case "right", "l", "enter":
			if m.sessionIdx < len(m.sessions)-1 {
				m.sessionIdx++
			}
		}
		m.ctrl.SetScope(m.currentSessionID())
		m.syncDraft()
		return m, nil

	case fieldKey:
		var cmd tea.Cmd
		m.keyInput, cmd = m.keyInput.Update(msg)
		m.ctrl.SetKey(m.keyInput.Value())
		return m, cmd

	case fieldManualIndex:
		var cmd tea.Cmd
		m.manualIndex, cmd = m.manualIndex.Update(msg)
		m.syncDraft()
		return m, cmd

	case fieldManualName:
		var cmd tea.Cmd
		m.manualName, cmd = m.manualName.Update(msg)
		m.syncDraft()
		return m, cmd

	case fieldManualProgram:
		var cmd tea.Cmd
		m.manualProgram, cmd = m.manualProgram.Update(msg)
		m.syncDraft()
		return m, cmd

	case fieldCategory:
		switch msg.String() {
		case "left", "h":
			m.categoryIdx = (m.categoryIdx + len(categories) - 1) % len(categories)
		case "right", "l", "enter", " ":
			m.categoryIdx = (m.categoryIdx + 1) % len(categories)
		}
		m.syncDraft()
		return m, nil

	case fieldDescription:
		var cmd tea.Cmd
		m.description, cmd = m.description.Update(msg)
		m.syncDraft()
		return m, cmd

	case fieldAttachments:
		if msg.String() == "enter" {
			m.addAttachment(m.attachInput.Value())
			m.syncDraft()
			return m, nil
		}
		if msg.String() == "backspace" && m.attachInput.Value() == "" && len(m.attachments) > 0 {
			m.attachments = m.attachments[:len(m.attachments)-1]
			m.syncDraft()
			return m, nil
		}
		var cmd tea.Cmd
		m.attachInput, cmd = m.attachInput.Update(msg)
		return m, cmd

	case fieldConfidential:
		if msg.String() == " " || msg.String() == "enter" {
			m.confidential = !m.confidential
			m.syncDraft()
		}
		return m, nil

	case fieldSubmit:
		if msg.String() == "enter" && !m.submitting {
			if problem := m.validate(); problem != "" {
				m.setStatus(problem, errorStyle)
				return m, nil
			}
			m.submitting = true
			m.setStatus("submitting...", pendingStyle)
			return m, m.submitCmd()
		}
		return m, nil
	}
	return m, nil
}

// nextField steps focus, skipping manual entry fields while they are
// hidden.
func (m *FormModel) nextField(f formField, dir int) formField {
	for {
		f = formField((int(f) + dir + int(fieldCount)) % int(fieldCount))
		if f >= fieldManualIndex && f <= fieldManualProgram && !m.manualVisible() {
			continue
		}
		return f
	}
}

func (m FormModel) refocus() FormModel {
	inputs := map[formField]*textinput.Model{
		fieldKey:           &m.keyInput,
		fieldManualIndex:   &m.manualIndex,
		fieldManualName:    &m.manualName,
		fieldManualProgram: &m.manualProgram,
		fieldAttachments:   &m.attachInput,
	}
	for f, in := range inputs {
		if f == m.focus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	if m.focus == fieldDescription {
		m.description.Focus()
	} else {
		m.description.Blur()
	}
	return m
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
