package daylist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daylog/internal/calendar"
)

type Item struct {
	Event calendar.Event
}

func (i Item) Title() string { return i.Event.Title }

func (i Item) Description() string {
	var parts []string
	if e := i.Event.Entry; e.StartTime != "" || e.EndTime != "" {
		parts = append(parts, fmt.Sprintf("%s–%s", orDash(e.StartTime), orDash(e.EndTime)))
	}
	if i.Event.Description != "" {
		parts = append(parts, i.Event.Description)
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string { return i.Event.Title }

func orDash(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// Model lists the events of one day. Navigation keys move the selection;
// actions on the selected event are handled by the parent.
type Model struct {
	list list.Model
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the parent
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return Model{list: l}
}

// SetEvents replaces the list and keeps the cursor on the event with
// selectedID when it is still present.
func (m *Model) SetEvents(events []calendar.Event, selectedID string) {
	items := make([]list.Item, len(events))
	cursor := 0
	for i, ev := range events {
		items[i] = Item{Event: ev}
		if ev.ID == selectedID {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.Select(cursor)
}

// Selected returns the highlighted event.
func (m Model) Selected() (calendar.Event, bool) {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Event, true
	}
	return calendar.Event{}, false
}

func (m Model) Len() int { return len(m.list.Items()) }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No logs on this day.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
