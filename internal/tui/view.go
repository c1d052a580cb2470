package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/daylog/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.viewHeader(), m.viewGrid()}

	switch m.mode {
	case ModeCreate:
		if m.form != nil {
			sections = append(sections, panelStyle.Render(m.form.View()))
		}
	case ModeDetail:
		sections = append(sections, m.viewDetail())
	case ModeEditTitle:
		sections = append(sections, panelStyle.Render(m.title.View()))
	case ModeConfirmDelete:
		sections = append(sections, m.viewConfirmDelete())
	}

	sections = append(sections, m.viewStatus(), m.help.View(m))
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) viewHeader() string {
	month := m.session.State().Month
	return monthTitleStyle.Render(month.Format("January 2006"))
}

// viewGrid renders the displayed month as Sunday-first weeks.
func (m Model) viewGrid() string {
	st := m.session.State()
	first := st.Month
	daysIn := first.AddDate(0, 1, -1).Day()
	offset := int(first.Weekday())
	cursor := m.Cursor()

	var header []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		header = append(header, weekdayStyle.Render(d.String()[:3]))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	var week []string
	for i := 0; i < offset; i++ {
		week = append(week, cellStyle.Render(""))
	}
	for day := 1; day <= daysIn; day++ {
		date := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC).Format(constants.DateFormat)
		week = append(week, m.viewCell(date, day, date == cursor))
		if len(week) == 7 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, week...))
			week = nil
		}
	}
	if len(week) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, week...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) viewCell(date string, day int, selected bool) string {
	num := fmt.Sprintf("%2d", day)
	if date == m.today {
		num = todayStyle.Render(num)
	}
	lines := []string{num}

	events := m.session.State().On(date)
	if len(events) > 0 {
		lines = append(lines, eventStyle.Render(truncate(events[0].Title, cellWidth-2)))
	}
	if len(events) > 1 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", len(events)-1)))
	}

	style := cellStyle
	if selected {
		style = cursorCellStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) viewDetail() string {
	title := fmt.Sprintf("Logs for %s", m.Cursor())
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, monthTitleStyle.Render(title), m.days.View()))
}

func (m Model) viewConfirmDelete() string {
	name := ""
	if sel := m.session.State().SelectedEvent; sel != nil {
		name = sel.Title
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		dangerStyle.Render(fmt.Sprintf("Delete %q?", name)),
		"",
		"[y] Yes",
		"[n] No",
	))
}

func (m Model) viewStatus() string {
	st := m.session.State()
	switch {
	case m.busy:
		return warningStyle.Render("Working...")
	case st.Err != nil:
		return dangerStyle.Render("Error: " + st.Err.Error())
	case st.SelectedEvent != nil && st.SelectedEvent.Title != m.storedTitle():
		return warningStyle.Render("Unsaved title, press s to save")
	}
	return ""
}

// storedTitle is the title of the selected event as last loaded.
func (m Model) storedTitle() string {
	st := m.session.State()
	if st.SelectedEvent == nil {
		return ""
	}
	for _, ev := range st.Events {
		if ev.ID == st.SelectedEvent.ID {
			return ev.Title
		}
	}
	return ""
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
