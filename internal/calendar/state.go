package calendar

import (
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
)

// State is the calendar view's local state. Transitions are methods with
// value receivers that return the next State; slices are never shared with
// the previous value.
type State struct {
	Month         time.Time // first day of the displayed month, UTC
	SelectedDate  string    // create form open when non-empty
	SelectedEvent *Event    // detail panel open when non-nil
	Draft         models.LogInput
	Events        []Event
	Err           error
}

// NewState returns an empty state showing the month containing now.
func NewState(now time.Time) State {
	return State{Month: monthOf(now)}
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// SelectDate opens the create form for date and resets the draft.
func (s State) SelectDate(date string) State {
	s.SelectedDate = date
	s.SelectedEvent = nil
	s.Draft = models.LogInput{Date: date}
	return s
}

// SetDraft replaces the form fields. The date stays the selected one.
func (s State) SetDraft(in models.LogInput) State {
	in.Date = s.SelectedDate
	s.Draft = in
	return s
}

// CanSubmit reports whether the create form holds something to send.
func (s State) CanSubmit() bool {
	return s.SelectedDate != "" && strings.TrimSpace(s.Draft.Content) != ""
}

// Created appends ev and closes the create form.
func (s State) Created(ev Event) State {
	s.Events = append(slices.Clip(s.Events), ev)
	s.SelectedDate = ""
	s.Draft = models.LogInput{}
	s.Err = nil
	return s
}

// SelectEvent opens the detail panel on a copy of the event with id. Unknown
// ids leave the state as is.
func (s State) SelectEvent(id string) State {
	i := s.index(id)
	if i < 0 {
		return s
	}
	ev := s.Events[i]
	s.SelectedEvent = &ev
	s.SelectedDate = ""
	return s
}

// EditTitle changes the title of the selected event only. Nothing is saved.
func (s State) EditTitle(title string) State {
	if s.SelectedEvent == nil {
		return s
	}
	ev := *s.SelectedEvent
	ev.Title = title
	s.SelectedEvent = &ev
	return s
}

// Updated replaces the matching event where it stands and closes the panel.
func (s State) Updated(ev Event) State {
	if i := s.index(ev.ID); i >= 0 {
		s.Events = slices.Clone(s.Events)
		s.Events[i] = ev
	}
	s.SelectedEvent = nil
	s.Err = nil
	return s
}

// Deleted removes the matching event and closes the panel.
func (s State) Deleted(id string) State {
	if i := s.index(id); i >= 0 {
		s.Events = slices.Delete(slices.Clone(s.Events), i, i+1)
	}
	s.SelectedEvent = nil
	s.Err = nil
	return s
}

// Close drops the panel and any unsaved title edit.
func (s State) Close() State {
	s.SelectedEvent = nil
	s.SelectedDate = ""
	s.Draft = models.LogInput{}
	return s
}

// Loaded replaces the event list.
func (s State) Loaded(events []Event) State {
	s.Events = slices.Clone(events)
	s.Err = nil
	return s
}

// Failed records err and changes nothing else.
func (s State) Failed(err error) State {
	s.Err = err
	return s
}

// NextMonth moves the grid forward one month.
func (s State) NextMonth() State {
	s.Month = monthOf(s.Month).AddDate(0, 1, 0)
	return s
}

// PrevMonth moves the grid back one month.
func (s State) PrevMonth() State {
	s.Month = monthOf(s.Month).AddDate(0, -1, 0)
	return s
}

// On returns the events that start on date, in list order.
func (s State) On(date string) []Event {
	var out []Event
	for _, ev := range s.Events {
		if ev.Start == date {
			out = append(out, ev)
		}
	}
	return out
}

// MonthKey is the displayed month as YYYY-MM.
func (s State) MonthKey() string {
	return s.Month.Format(constants.MonthFormat)
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.Events, func(ev Event) bool { return ev.ID == id })
}
