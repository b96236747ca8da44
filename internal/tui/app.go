// Package tui is the invigilator's terminal interface: the incident
// report form, session attendance, and the live activity feed.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/invigil/invigil/internal/client"
	"github.com/invigil/invigil/internal/draft"
	"github.com/invigil/invigil/internal/lookup"
)

type tab int

const (
	tabReport tab = iota
	tabSessions
	tabFeed
)

var tabNames = []string{"Report (f1)", "Sessions (f2)", "Feed (f3)"}

// App is the root model.
type App struct {
	client *client.Client
	store  draft.Store

	form     FormModel
	sessions SessionsModel
	feed     FeedModel

	tab            tab
	restoreChecked bool
	width          int
	height         int
}

// NewApp wires the three views around a shared API client.
func NewApp(c *client.Client, ctrl *lookup.Controller, store draft.Store, box *DraftBox) App {
	return App{
		client:   c,
		store:    store,
		form:     NewForm(c, ctrl, store, box),
		sessions: NewSessions(c),
		feed:     NewFeed(c),
	}
}

func (a App) loadSessionsCmd() tea.Cmd {
	c := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sessions, err := c.ListSessions(ctx)
		if err != nil {
			return errMsg{err}
		}
		return sessionsLoadedMsg{sessions: sessions}
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.loadSessionsCmd(), a.feed.Refresh(), a.form.Init())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "f1":
			a.tab = tabReport
			return a, nil
		case "f2":
			a.tab = tabSessions
			return a, nil
		case "f3":
			a.tab = tabFeed
			return a, a.feed.Refresh()
		}
		return a.routeToActive(msg)

	case sessionsLoadedMsg:
		a.form.SetSessions(msg.sessions)
		a.sessions.SetSessions(msg.sessions)
		if !a.restoreChecked {
			a.restoreChecked = true
			if d, ok, err := a.store.Load(); err == nil && ok && a.form.pristine() {
				a.form.OfferRestore(d)
			}
		}
		return a, nil

	case LookupMsg, submitDoneMsg:
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd

	case rosterLoadedMsg, attendanceMarkedMsg:
		var cmd tea.Cmd
		a.sessions, cmd = a.sessions.Update(msg)
		return a, cmd

	case feedLoadedMsg, incidentsLoadedMsg:
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		return a, cmd

	case EventMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Update(msg)
		cmds = append(cmds, cmd)
		if msg.Resource == "sessions" {
			cmds = append(cmds, a.loadSessionsCmd())
		}
		return a, tea.Batch(cmds...)

	case errMsg:
		return a.routeToActive(msg)
	}
	return a, nil
}

// routeToActive sends a message to whichever view is showing.
func (a App) routeToActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.tab {
	case tabReport:
		a.form, cmd = a.form.Update(msg)
	case tabSessions:
		a.sessions, cmd = a.sessions.Update(msg)
	case tabFeed:
		a.feed, cmd = a.feed.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	var bar []string
	for i, name := range tabNames {
		if tab(i) == a.tab {
			bar = append(bar, activeTabStyle.Render(name))
		} else {
			bar = append(bar, tabStyle.Render(name))
		}
	}
	header := strings.Join(bar, "") + "\n\n"

	switch a.tab {
	case tabSessions:
		return header + a.sessions.View()
	case tabFeed:
		return header + a.feed.View()
	default:
		return header + a.form.View()
	}
}
