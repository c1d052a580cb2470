package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/julianstephens/daylog/internal/errors"
)

func TestLogInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   LogInput
		wantErr bool
		message string
	}{
		{
			name:  "valid minimal",
			input: LogInput{Date: "2024-05-01", Content: "Standup"},
		},
		{
			name:  "valid timestamp date",
			input: LogInput{Date: "2024-05-01T23:30:00-07:00", Content: "Standup"},
		},
		{
			name:    "missing date",
			input:   LogInput{Content: "Standup"},
			wantErr: true,
			message: "date is required",
		},
		{
			name:    "missing content",
			input:   LogInput{Date: "2024-05-01"},
			wantErr: true,
			message: "content is required",
		},
		{
			name:    "whitespace content",
			input:   LogInput{Date: "2024-05-01", Content: "   "},
			wantErr: true,
			message: "content is required",
		},
		{
			name:    "both missing",
			input:   LogInput{},
			wantErr: true,
			message: "date and content are required",
		},
		{
			name:    "unparseable date",
			input:   LogInput{Date: "next tuesday", Content: "Standup"},
			wantErr: true,
			message: "date must be a calendar date (YYYY-MM-DD)",
		},
		{
			name:  "times are not validated",
			input: LogInput{Date: "2024-05-01", Content: "x", StartTime: "late", EndTime: "early"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if apperrors.KindOf(err) != apperrors.KindValidation {
				t.Errorf("KindOf() = %v, want validation", apperrors.KindOf(err))
			}
			if err.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "2024-05-01", want: "2024-05-01"},
		{raw: " 2024-05-01 ", want: "2024-05-01"},
		{raw: "2024-05-01T00:00:00.000Z", want: "2024-05-01"},
		{raw: "2024-05-01T23:59:00+14:00", want: "2024-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeDate(tt.raw)
			if err != nil {
				t.Fatalf("NormalizeDate(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}

	if _, err := NormalizeDate("2024-02-30"); err == nil {
		t.Error("NormalizeDate should reject impossible dates")
	}
}

func TestLogEntryApplyReplacesAllMutableFields(t *testing.T) {
	entry := LogEntry{
		ID:          "a",
		Date:        "2024-05-01",
		Content:     "Standup",
		Description: "daily sync",
		StartTime:   "09:00",
		EndTime:     "09:15",
	}

	got := entry.Apply(LogInput{Date: "2024-05-02T10:00:00Z", Content: "Standup (rescheduled)"})

	want := LogEntry{
		ID:      "a",
		Date:    "2024-05-02",
		Content: "Standup (rescheduled)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(got.Input(), LogInput{Date: "2024-05-02", Content: "Standup (rescheduled)"}); diff != "" {
		t.Errorf("Input() mismatch (-want +got):\n%s", diff)
	}
}
