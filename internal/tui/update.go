package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/daylog/internal/calendar"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
)

const (
	panelHeight  = 10
	minListWidth = 30
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.days.SetSize(max(msg.Width-4, minListWidth), panelHeight)
		return m, nil

	case resultMsg:
		return m.handleResult(calendar.Result(msg))

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	switch m.mode {
	case ModeCreate:
		return m.updateCreate(msg)
	case ModeDetail:
		return m.updateDetail(msg)
	case ModeEditTitle:
		return m.updateEditTitle(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	default:
		return m.updateGrid(msg)
	}
}

func (m Model) handleResult(r calendar.Result) (tea.Model, tea.Cmd) {
	m.busy = false
	m.session.Apply(r)
	if r.Err != nil {
		if m.mode == ModeCreate && m.form != nil {
			// Keep the form so the user can retry or cancel with esc.
			m.form.State = huh.StateNormal
		}
		return m, nil
	}

	switch r.Op {
	case calendar.OpCreate, calendar.OpUpdate, calendar.OpDelete:
		m.mode = ModeGrid
		m.form = nil
	}
	return m, nil
}

func (m Model) updateGrid(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(keyMsg, m.keys.Left):
		m.moveCursor(-1)
	case key.Matches(keyMsg, m.keys.Right):
		m.moveCursor(1)
	case key.Matches(keyMsg, m.keys.Up):
		m.moveCursor(-7)
	case key.Matches(keyMsg, m.keys.Down):
		m.moveCursor(7)
	case key.Matches(keyMsg, m.keys.NextMonth):
		m.shiftMonth(1)
	case key.Matches(keyMsg, m.keys.PrevMonth):
		m.shiftMonth(-1)
	case key.Matches(keyMsg, m.keys.Today):
		m.cursor = m.todayTime()
		m.syncMonth()
	case key.Matches(keyMsg, m.keys.Refresh):
		if m.busy {
			return m, nil
		}
		cmd := m.run(m.session.Fetch())
		return m, cmd
	case key.Matches(keyMsg, m.keys.Add):
		return m.openCreate()
	case key.Matches(keyMsg, m.keys.Enter):
		if len(m.session.State().On(m.Cursor())) == 0 {
			return m.openCreate()
		}
		return m.openDetail("")
	}
	return m, nil
}

func (m Model) openCreate() (tea.Model, tea.Cmd) {
	date := m.Cursor()
	m.session.Set(m.session.State().SelectDate(date))
	m.form = m.newCreateForm(date)
	m.mode = ModeCreate
	cmd := m.form.Init()
	return m, cmd
}

// openDetail shows the cursor day's events, selecting selectedID or the
// first one.
func (m Model) openDetail(selectedID string) (tea.Model, tea.Cmd) {
	events := m.session.State().On(m.Cursor())
	if len(events) == 0 {
		m.session.Set(m.session.State().Close())
		m.mode = ModeGrid
		return m, nil
	}
	if selectedID == "" {
		selectedID = events[0].ID
	}
	m.days.SetEvents(events, selectedID)
	m.selectHighlighted()
	m.mode = ModeDetail
	return m, nil
}

func (m *Model) selectHighlighted() {
	ev, ok := m.days.Selected()
	if !ok {
		return
	}
	if sel := m.session.State().SelectedEvent; sel != nil && sel.ID == ev.ID {
		return
	}
	m.session.Set(m.session.State().SelectEvent(ev.ID))
}

func (m Model) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Close) {
		m.session.Set(m.session.State().Close())
		m.form = nil
		m.mode = ModeGrid
		return m, nil
	}
	if m.busy {
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		cmd := m.submitDraft()
		return m, cmd
	case huh.StateAborted:
		m.session.Set(m.session.State().Close())
		m.form = nil
		m.mode = ModeGrid
	}
	return m, tea.Batch(cmds...)
}

// submitDraft sends the create form. An empty draft sends nothing.
func (m *Model) submitDraft() tea.Cmd {
	st := m.session.State().SetDraft(models.LogInput{
		Content:     m.draft.Content,
		Description: m.draft.Description,
		StartTime:   m.draft.StartTime,
		EndTime:     m.draft.EndTime,
	})
	m.session.Set(st)
	job, ok := m.session.Submit()
	if !ok {
		m.form.State = huh.StateNormal
		return nil
	}
	return m.run(job)
}

func (m Model) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.busy {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Close):
		m.session.Set(m.session.State().Close())
		m.mode = ModeGrid
		return m, nil
	case key.Matches(keyMsg, m.keys.Add):
		return m.openCreate()
	case key.Matches(keyMsg, m.keys.Edit):
		sel := m.session.State().SelectedEvent
		if sel == nil {
			return m, nil
		}
		m.title.SetValue(sel.Title)
		m.title.CursorEnd()
		m.mode = ModeEditTitle
		cmd := m.title.Focus()
		return m, cmd
	case key.Matches(keyMsg, m.keys.Save):
		job, ok := m.session.Save()
		if !ok {
			return m, nil
		}
		cmd := m.run(job)
		return m, cmd
	case key.Matches(keyMsg, m.keys.Delete):
		if m.session.State().SelectedEvent != nil {
			m.mode = ModeConfirmDelete
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.days, cmd = m.days.Update(msg)
	m.selectHighlighted()
	return m, cmd
}

func (m Model) updateEditTitle(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Close):
			// Discard the edit by reselecting the stored event.
			m.title.Blur()
			if sel := m.session.State().SelectedEvent; sel != nil {
				m.session.Set(m.session.State().SelectEvent(sel.ID))
			}
			m.mode = ModeDetail
			return m, nil
		case key.Matches(keyMsg, m.keys.Enter):
			m.title.Blur()
			m.mode = ModeDetail
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	m.session.Set(m.session.State().EditTitle(m.title.Value()))
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.busy {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		job, ok := m.session.Remove()
		if !ok {
			m.mode = ModeDetail
			return m, nil
		}
		cmd := m.run(job)
		return m, cmd
	case key.Matches(keyMsg, m.keys.No):
		m.mode = ModeDetail
	}
	return m, nil
}

func (m Model) todayTime() time.Time {
	t, err := time.Parse(constants.DateFormat, m.today)
	if err != nil {
		return m.cursor
	}
	return t
}
