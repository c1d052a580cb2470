package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
)

type LogCmd struct {
	Add  LogAddCmd  `cmd:"" help:"Add a log entry."`
	List LogListCmd `cmd:"" help:"List log entries, newest date first." default:"1"`
	Show LogShowCmd `cmd:"" help:"Show one log entry."`
	Edit LogEditCmd `cmd:"" help:"Change fields of a log entry."`
	Rm   LogRmCmd   `cmd:"" help:"Delete a log entry."`
}

type LogAddCmd struct {
	Date        string `arg:"" help:"Calendar date (YYYY-MM-DD or 'today')."`
	Content     string `arg:"" help:"What happened."`
	Description string `short:"d" help:"Longer description."`
	Start       string `help:"Start time (HH:MM)."`
	End         string `help:"End time (HH:MM)."`
	JSON        bool   `help:"Print the created entry as JSON."`
}

func (c *LogAddCmd) Run(ctx *Context) error {
	rctx, cancel := ctx.timeout()
	defer cancel()

	entry, err := ctx.Client().Create(rctx, models.LogInput{
		Date:        resolveDate(c.Date),
		Content:     c.Content,
		Description: c.Description,
		StartTime:   c.Start,
		EndTime:     c.End,
	})
	if err != nil {
		return fmt.Errorf("failed to add log: %w", err)
	}
	if c.JSON {
		return writeJSON(ctx.Out, entry)
	}
	fmt.Fprintf(ctx.Out, "%s Added log %s\n", okMark(), entry.ID)
	printEntryLine(ctx.Out, entry)
	return nil
}

type LogListCmd struct {
	Filter string `short:"f" help:"Filter expression, e.g. 'content contains \"standup\"'."`
	Month  string `short:"m" help:"Only entries in this month (YYYY-MM)."`
	JSON   bool   `help:"Print entries as JSON."`
}

// query combines --filter and --month into one filter expression.
func (c *LogListCmd) query() (string, error) {
	var parts []string
	if f := strings.TrimSpace(c.Filter); f != "" {
		parts = append(parts, "("+f+")")
	}
	if c.Month != "" {
		if _, err := time.Parse(constants.MonthFormat, c.Month); err != nil {
			return "", fmt.Errorf("invalid month %q (expected YYYY-MM)", c.Month)
		}
		parts = append(parts, "date startsWith "+strconv.Quote(c.Month+"-"))
	}
	return strings.Join(parts, " && "), nil
}

func (c *LogListCmd) Run(ctx *Context) error {
	q, err := c.query()
	if err != nil {
		return err
	}

	rctx, cancel := ctx.timeout()
	defer cancel()

	entries, err := ctx.Client().List(rctx, q)
	if err != nil {
		return fmt.Errorf("failed to list logs: %w", err)
	}
	if c.JSON {
		return writeJSON(ctx.Out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(ctx.Out, "No logs found.")
		return nil
	}
	for _, e := range entries {
		printEntryLine(ctx.Out, e)
	}
	return nil
}

type LogShowCmd struct {
	ID   string `arg:"" help:"Log id."`
	JSON bool   `help:"Print the entry as JSON."`
}

func (c *LogShowCmd) Run(ctx *Context) error {
	rctx, cancel := ctx.timeout()
	defer cancel()

	entry, err := ctx.Client().Get(rctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get log %s: %w", c.ID, err)
	}
	if c.JSON {
		return writeJSON(ctx.Out, entry)
	}
	printEntry(ctx.Out, entry)
	return nil
}

type LogEditCmd struct {
	ID          string   `arg:"" help:"Log id."`
	Date        *string  `help:"New date (YYYY-MM-DD or 'today')."`
	Content     *string  `short:"c" help:"New content."`
	Description *string  `short:"d" help:"New description."`
	Start       *string  `help:"New start time (HH:MM)."`
	End         *string  `help:"New end time (HH:MM)."`
	Clear       []string `help:"Optional fields to reset to empty (description, startTime, endTime)."`
}

var clearableFields = []string{"description", "startTime", "endTime"}

// patch builds a JSON merge patch from the flags that were given.
func (c *LogEditCmd) patch() (map[string]any, error) {
	p := map[string]any{}
	if c.Date != nil {
		p["date"] = resolveDate(*c.Date)
	}
	if c.Content != nil {
		p["content"] = *c.Content
	}
	if c.Description != nil {
		p["description"] = *c.Description
	}
	if c.Start != nil {
		p["startTime"] = *c.Start
	}
	if c.End != nil {
		p["endTime"] = *c.End
	}
	for _, field := range c.Clear {
		if !slices.Contains(clearableFields, field) {
			return nil, fmt.Errorf("cannot clear %q (expected one of %s)", field, strings.Join(clearableFields, ", "))
		}
		p[field] = nil
	}
	return p, nil
}

func (c *LogEditCmd) Run(ctx *Context) error {
	p, err := c.patch()
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return fmt.Errorf("nothing to change: pass at least one of --date, --content, --description, --start, --end or --clear")
	}

	rctx, cancel := ctx.timeout()
	defer cancel()

	api := ctx.Client()
	before, err := api.Get(rctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get log %s: %w", c.ID, err)
	}
	after, err := api.Patch(rctx, c.ID, p)
	if err != nil {
		return fmt.Errorf("failed to edit log %s: %w", c.ID, err)
	}

	fmt.Fprintf(ctx.Out, "%s Updated log %s\n", okMark(), after.ID)
	if before.Content != after.Content {
		fmt.Fprintf(ctx.Out, "  %s\n", contentDiff(before.Content, after.Content))
	}
	printEntryLine(ctx.Out, after)
	return nil
}

type LogRmCmd struct {
	ID string `arg:"" help:"Log id."`
}

func (c *LogRmCmd) Run(ctx *Context) error {
	rctx, cancel := ctx.timeout()
	defer cancel()

	if err := ctx.Client().Delete(rctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete log %s: %w", c.ID, err)
	}
	fmt.Fprintf(ctx.Out, "%s Deleted log %s\n", okMark(), c.ID)
	return nil
}

// resolveDate expands "today" to the local calendar date.
func resolveDate(date string) string {
	if strings.EqualFold(strings.TrimSpace(date), "today") {
		return time.Now().Format(constants.DateFormat)
	}
	return date
}
