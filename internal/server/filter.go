package server

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
)

// filterEnv is what a list filter expression can see, e.g.
// `date >= "2024-05-01" && content contains "Standup"`.
type filterEnv struct {
	Date        string `expr:"date"`
	Content     string `expr:"content"`
	Description string `expr:"description"`
	StartTime   string `expr:"startTime"`
	EndTime     string `expr:"endTime"`
}

type logFilter struct {
	program *vm.Program
}

func compileFilter(src string) (*logFilter, error) {
	program, err := expr.Compile(src, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("invalid filter: %v", err), "filter")
	}
	return &logFilter{program: program}, nil
}

func (f *logFilter) match(e models.LogEntry) (bool, error) {
	out, err := expr.Run(f.program, filterEnv{
		Date:        e.Date,
		Content:     e.Content,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
	})
	if err != nil {
		return false, apperrors.Validation(fmt.Sprintf("filter failed on log %s: %v", e.ID, err), "filter")
	}
	return out.(bool), nil
}

// apply keeps the entries the filter accepts, preserving order.
func (f *logFilter) apply(entries []models.LogEntry) ([]models.LogEntry, error) {
	kept := make([]models.LogEntry, 0, len(entries))
	for _, e := range entries {
		ok, err := f.match(e)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, e)
		}
	}
	return kept, nil
}
