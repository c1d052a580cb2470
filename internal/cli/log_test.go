package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/daylog/internal/models"
)

func TestLogCommands(t *testing.T) {
	ctx, out := newTestContext(t, "memory:")
	st := withServer(t, ctx)

	add := &LogAddCmd{Date: "2024-05-01", Content: "Standup", Start: "09:00", End: "09:15", JSON: true}
	if err := add.Run(ctx); err != nil {
		t.Fatalf("log add: %v", err)
	}
	var created models.LogEntry
	if err := json.Unmarshal(out.Bytes(), &created); err != nil {
		t.Fatalf("log add --json output: %v\n%s", err, out)
	}
	if created.ID == "" || created.Content != "Standup" {
		t.Fatalf("created = %+v", created)
	}

	out.Reset()
	if err := (&LogAddCmd{Date: "2024-06-03", Content: "Gym"}).Run(ctx); err != nil {
		t.Fatalf("log add: %v", err)
	}
	if !strings.Contains(out.String(), "Added log") {
		t.Errorf("log add output = %q", out)
	}

	out.Reset()
	if err := (&LogListCmd{Month: "2024-05"}).Run(ctx); err != nil {
		t.Fatalf("log list: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "09:00-09:15 Standup") || strings.Contains(got, "Gym") {
		t.Errorf("log list --month output = %q", got)
	}

	out.Reset()
	edit := &LogEditCmd{ID: created.ID, Content: ptr("Standup (short)"), Clear: []string{"endTime"}}
	if err := edit.Run(ctx); err != nil {
		t.Fatalf("log edit: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "Standup{+ (short)+}") {
		t.Errorf("log edit diff = %q", got)
	}
	stored, err := st.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Content != "Standup (short)" || stored.StartTime != "09:00" || stored.EndTime != "" {
		t.Errorf("stored after edit = %+v", stored)
	}

	out.Reset()
	if err := (&LogShowCmd{ID: created.ID}).Run(ctx); err != nil {
		t.Fatalf("log show: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "ID:          "+created.ID) {
		t.Errorf("log show output = %q", got)
	}

	if err := (&LogRmCmd{ID: created.ID}).Run(ctx); err != nil {
		t.Fatalf("log rm: %v", err)
	}
	if err := (&LogShowCmd{ID: created.ID}).Run(ctx); err == nil || !strings.Contains(err.Error(), "Log not found") {
		t.Errorf("log show after rm error = %v", err)
	}
}

func TestLogAddValidation(t *testing.T) {
	ctx, _ := newTestContext(t, "memory:")
	withServer(t, ctx)

	err := (&LogAddCmd{Date: "2024-05-01", Content: "  "}).Run(ctx)
	if err == nil {
		t.Fatal("log add with blank content succeeded")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want a 400 from the server", err)
	}
}

func TestLogListQuery(t *testing.T) {
	tests := []struct {
		name    string
		cmd     LogListCmd
		want    string
		wantErr bool
	}{
		{name: "empty"},
		{name: "filter only", cmd: LogListCmd{Filter: `content == "Gym"`}, want: `(content == "Gym")`},
		{name: "month only", cmd: LogListCmd{Month: "2024-05"}, want: `date startsWith "2024-05-"`},
		{
			name: "both",
			cmd:  LogListCmd{Filter: `content contains "a"`, Month: "2024-05"},
			want: `(content contains "a") && date startsWith "2024-05-"`,
		},
		{name: "bad month", cmd: LogListCmd{Month: "May"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.query()
			if (err != nil) != tt.wantErr {
				t.Fatalf("query() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogEditPatch(t *testing.T) {
	cmd := LogEditCmd{Description: ptr(""), Start: ptr("10:00"), Clear: []string{"endTime"}}
	want := map[string]any{"description": "", "startTime": "10:00", "endTime": nil}
	got, err := cmd.patch()
	if err != nil {
		t.Fatalf("patch() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("patch() mismatch (-want +got):\n%s", diff)
	}

	bad := LogEditCmd{Clear: []string{"content"}}
	if _, err := bad.patch(); err == nil {
		t.Error("patch() allowed clearing content")
	}

	ctx, _ := newTestContext(t, "memory:")
	if err := (&LogEditCmd{ID: "x"}).Run(ctx); err == nil {
		t.Error("log edit with no flags succeeded")
	}
}

func TestContentDiffWithoutColor(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		from, to, want string
	}{
		{from: "Standup", to: "Standup", want: "Standup"},
		{from: "Standup", to: "Standup (short)", want: "Standup{+ (short)+}"},
		{from: "Standup (short)", to: "Standup", want: "Standup[- (short)-]"},
	}
	for _, tt := range tests {
		if got := contentDiff(tt.from, tt.to); got != tt.want {
			t.Errorf("contentDiff(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func ptr(s string) *string { return &s }
