package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/julianstephens/daylog/internal/models"
)

var (
	dateColor = color.New(color.FgCyan, color.Bold)
	timeColor = color.New(color.FgYellow)
	idColor   = color.New(color.Faint)
)

func okMark() string   { return color.GreenString("✓") }
func failMark() string { return color.RedString("❌") }
func warnMark() string { return color.YellowString("⚠") }
func skipMark() string { return color.New(color.Faint).Sprint("⊘") }

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConfigureColor turns colour output off unless stdout is a terminal.
func ConfigureColor(stdout *os.File) {
	color.NoColor = os.Getenv("NO_COLOR") != "" || !IsTerminal(stdout)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func timeRange(e models.LogEntry) string {
	switch {
	case e.StartTime == "" && e.EndTime == "":
		return ""
	case e.EndTime == "":
		return e.StartTime
	default:
		return fmt.Sprintf("%s-%s", e.StartTime, e.EndTime)
	}
}

// printEntryLine writes one list row: date, time range, content, short id.
func printEntryLine(w io.Writer, e models.LogEntry) {
	tr := timeRange(e)
	if tr != "" {
		tr = timeColor.Sprint(tr) + " "
	}
	fmt.Fprintf(w, "%s  %s%s  %s\n", dateColor.Sprint(e.Date), tr, e.Content, idColor.Sprint(shortID(e.ID)))
}

func printEntry(w io.Writer, e models.LogEntry) {
	fmt.Fprintf(w, "%s %s\n", dateColor.Sprint(e.Date), e.Content)
	if tr := timeRange(e); tr != "" {
		fmt.Fprintf(w, "  Time:        %s\n", timeColor.Sprint(tr))
	}
	if e.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", e.Description)
	}
	fmt.Fprintf(w, "  ID:          %s\n", e.ID)
	fmt.Fprintf(w, "  Created:     %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if !e.UpdatedAt.IsZero() && !e.UpdatedAt.Equal(e.CreatedAt) {
		fmt.Fprintf(w, "  Updated:     %s\n", e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// contentDiff renders an inline diff of two strings, insertions in green
// and deletions in red. Without colour, changes are bracketed as [-old-]
// and {+new+}.
func contentDiff(from, to string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(from, to, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			if color.NoColor {
				b.WriteString("{+" + d.Text + "+}")
			} else {
				b.WriteString(color.New(color.FgGreen).Sprint(d.Text))
			}
		case diffmatchpatch.DiffDelete:
			if color.NoColor {
				b.WriteString("[-" + d.Text + "-]")
			} else {
				b.WriteString(color.New(color.FgRed, color.CrossedOut).Sprint(d.Text))
			}
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
