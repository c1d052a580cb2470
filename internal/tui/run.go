package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daylog/internal/calendar"
)

// Run starts the full-screen calendar and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, session *calendar.Session) error {
	p := tea.NewProgram(NewModel(ctx, session, time.Now()), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
