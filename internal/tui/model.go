package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/daylog/internal/calendar"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/tui/components/daylist"
)

type Mode int

const (
	ModeGrid Mode = iota
	ModeCreate
	ModeDetail
	ModeEditTitle
	ModeConfirmDelete
)

// DraftForm backs the create form.
type DraftForm struct {
	Content     string
	Description string
	StartTime   string
	EndTime     string
}

// resultMsg carries a finished calendar job back to Update.
type resultMsg calendar.Result

type Model struct {
	ctx      context.Context
	session  *calendar.Session
	mode     Mode
	keys     KeyMap
	help     help.Model
	cursor   time.Time // highlighted day, UTC midnight
	today    string
	days     daylist.Model
	form     *huh.Form
	draft    *DraftForm
	title    textinput.Model
	busy     bool
	quitting bool
	width    int
	height   int
}

// NewModel builds the calendar UI over session, with the cursor on now's
// calendar day.
func NewModel(ctx context.Context, session *calendar.Session, now time.Time) Model {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ti := textinput.New()
	ti.Prompt = "Title: "
	ti.CharLimit = 500

	m := Model{
		ctx:     ctx,
		session: session,
		mode:    ModeGrid,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		cursor:  today,
		today:   today.Format(constants.DateFormat),
		days:    daylist.New(0, 0),
		title:   ti,
	}
	m.syncMonth()
	// Init starts the first fetch.
	m.busy = true
	return m
}

func (m Model) ShortHelp() []key.Binding {
	switch m.mode {
	case ModeDetail:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Edit, m.keys.Save, m.keys.Delete, m.keys.Add, m.keys.Close}
	case ModeEditTitle:
		return []key.Binding{m.keys.Enter, m.keys.Close}
	case ModeConfirmDelete:
		return []key.Binding{m.keys.Yes, m.keys.No}
	case ModeCreate:
		return []key.Binding{m.keys.Close}
	}
	return []key.Binding{m.keys.Enter, m.keys.Add, m.keys.NextMonth, m.keys.PrevMonth, m.keys.Refresh, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	if m.mode != ModeGrid {
		return [][]key.Binding{m.ShortHelp()}
	}
	return m.keys.FullHelp()
}

func (m Model) Init() tea.Cmd {
	return m.run(m.session.Fetch())
}

// Mode reports which panel has focus.
func (m Model) Mode() Mode { return m.mode }

// State returns the calendar state being displayed.
func (m Model) State() calendar.State { return m.session.State() }

// Cursor returns the highlighted day as YYYY-MM-DD.
func (m Model) Cursor() string { return m.cursor.Format(constants.DateFormat) }

func (m *Model) run(job calendar.Job) tea.Cmd {
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg(job(ctx))
	}
}

// syncMonth moves the displayed month onto the cursor.
func (m *Model) syncMonth() {
	st := m.session.State()
	want := time.Date(m.cursor.Year(), m.cursor.Month(), 1, 0, 0, 0, 0, time.UTC)
	for st.Month.Before(want) {
		st = st.NextMonth()
	}
	for st.Month.After(want) {
		st = st.PrevMonth()
	}
	m.session.Set(st)
}

// shiftMonth moves the cursor by n months, clamping the day to the new
// month's length.
func (m *Model) shiftMonth(n int) {
	first := time.Date(m.cursor.Year(), m.cursor.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := min(m.cursor.Day(), last)
	m.cursor = time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
	m.syncMonth()
}

func (m *Model) moveCursor(days int) {
	m.cursor = m.cursor.AddDate(0, 0, days)
	m.syncMonth()
}

func (m *Model) newCreateForm(date string) *huh.Form {
	m.draft = &DraftForm{}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Content").
				Value(&m.draft.Content).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("content cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(&m.draft.Description),
			huh.NewInput().
				Title("Start time").
				Placeholder(constants.TimeFormat).
				Value(&m.draft.StartTime),
			huh.NewInput().
				Title("End time").
				Placeholder(constants.TimeFormat).
				Value(&m.draft.EndTime),
		).Title("New log for " + date),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}
