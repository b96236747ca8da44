package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/invigil/invigil/internal/client"
	"github.com/invigil/invigil/internal/domain/activity"
	"github.com/invigil/invigil/internal/domain/incident"
)

const feedLimit = 30

// FeedModel shows the live activity feed and recent incidents. Server
// invalidation events trigger a refetch rather than carrying payloads.
type FeedModel struct {
	client *client.Client

	entries   []activity.Entry
	incidents []incident.Summary
	err       error
}

func NewFeed(c *client.Client) FeedModel {
	return FeedModel{client: c}
}

// Refresh reloads both the feed and the incident list.
func (m FeedModel) Refresh() tea.Cmd {
	c := m.client
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			entries, err := c.RecentActivity(ctx, "", feedLimit)
			if err != nil {
				return errMsg{err}
			}
			return feedLoadedMsg{entries: entries}
		},
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			summaries, err := c.ListIncidents(ctx, "")
			if err != nil {
				return errMsg{err}
			}
			return incidentsLoadedMsg{summaries: summaries}
		},
	)
}

func (m FeedModel) Update(msg tea.Msg) (FeedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case feedLoadedMsg:
		m.entries = msg.entries
		m.err = nil
		return m, nil

	case incidentsLoadedMsg:
		m.incidents = msg.summaries
		m.err = nil
		return m, nil

	case EventMsg:
		// Anything changed server-side: refetch.
		return m, m.Refresh()

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.Refresh()
		}
	}
	return m, nil
}

func (m FeedModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Recent incidents"))
	b.WriteString("\n")
	if len(m.incidents) == 0 {
		b.WriteString(dimStyle.Render("none reported") + "\n")
	}
	for _, inc := range m.incidents {
		badge := ""
		if inc.Confidential {
			badge = " " + confidentialStyle.Render("C")
		}
		b.WriteString(fmt.Sprintf("%s  %-16s %-22s %s%s\n",
			dimStyle.Render(inc.CreatedAt.Format("15:04")),
			inc.Category, truncate(inc.Subject, 22),
			inc.Status, badge))
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Activity"))
	b.WriteString("\n")
	if len(m.entries) == 0 {
		b.WriteString(dimStyle.Render("quiet so far") + "\n")
	}
	for _, e := range m.entries {
		b.WriteString(fmt.Sprintf("%s  %s\n",
			dimStyle.Render(e.CreatedAt.Format("15:04")),
			valueStyle.Render(e.Summary)))
	}

	b.WriteString(helpStyle.Render("\nr refresh · live updates via server push"))
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	return b.String()
}
