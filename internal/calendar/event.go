package calendar

import (
	"strings"

	"github.com/julianstephens/daylog/internal/models"
)

// titleSep joins a start time to the content in an event title.
const titleSep = " - "

// Event is the display shape of a log entry on the month grid.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       string // YYYY-MM-DD
	AllDay      bool
	Entry       models.LogEntry
}

// ToEvent maps a log entry to its display event. It is the only place the
// display shape is derived.
func ToEvent(e models.LogEntry) Event {
	title := e.Content
	if e.StartTime != "" {
		title = e.StartTime + titleSep + e.Content
	}
	start, err := models.NormalizeDate(e.Date)
	if err != nil {
		start = e.Date
	}
	return Event{
		ID:          e.ID,
		Title:       title,
		Description: e.Description,
		Start:       start,
		AllDay:      true,
		Entry:       e,
	}
}

// ToEvents maps entries in order.
func ToEvents(entries []models.LogEntry) []Event {
	events := make([]Event, 0, len(entries))
	for _, e := range entries {
		events = append(events, ToEvent(e))
	}
	return events
}

// Content recovers the log content from an edited title by dropping the
// "startTime - " prefix that ToEvent adds.
func (ev Event) Content() string {
	if st := ev.Entry.StartTime; st != "" {
		if rest, ok := strings.CutPrefix(ev.Title, st+titleSep); ok {
			return rest
		}
	}
	return ev.Title
}

// Input is the update body for saving ev: the content comes from the title,
// every other field from the source entry.
func (ev Event) Input() models.LogInput {
	in := ev.Entry.Input()
	in.Content = ev.Content()
	return in
}
