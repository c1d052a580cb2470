package models

import (
	"strings"
	"time"

	"github.com/julianstephens/daylog/internal/constants"
	apperrors "github.com/julianstephens/daylog/internal/errors"
)

// LogEntry is a single calendar note.
type LogEntry struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Content     string    `json:"content"`
	Description string    `json:"description"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LogInput is the body accepted by create and update.
type LogInput struct {
	Date        string `json:"date"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
}

// Validate checks that date and content are present and that date names a
// calendar day. Start and end times are free text.
func (in LogInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(in.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return apperrors.MissingFields(missing...)
	}
	if _, err := NormalizeDate(in.Date); err != nil {
		return err
	}
	return nil
}

// Input returns the mutable fields of e as a LogInput.
func (e LogEntry) Input() LogInput {
	return LogInput{
		Date:        e.Date,
		Content:     e.Content,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
	}
}

// Apply replaces the mutable fields of e with in. Optional fields absent from
// in become empty strings. The caller validates in first.
func (e LogEntry) Apply(in LogInput) LogEntry {
	date, err := NormalizeDate(in.Date)
	if err != nil {
		date = strings.TrimSpace(in.Date)
	}
	e.Date = date
	e.Content = in.Content
	e.Description = in.Description
	e.StartTime = in.StartTime
	e.EndTime = in.EndTime
	return e
}

// NormalizeDate reduces a YYYY-MM-DD date or an RFC3339 timestamp to its
// calendar-day portion as written. The offset is ignored so a late-evening
// timestamp never drifts into the next or previous day.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", apperrors.Validation("date must be a calendar date (YYYY-MM-DD)", "date")
	}
	return t.Format(constants.DateFormat), nil
}
