package calendar

import (
	"context"

	"github.com/julianstephens/daylog/internal/models"
)

// LogService is the subset of the log API the calendar needs. *client.Client
// satisfies it.
type LogService interface {
	List(ctx context.Context, filter string) ([]models.LogEntry, error)
	Create(ctx context.Context, in models.LogInput) (models.LogEntry, error)
	Update(ctx context.Context, id string, in models.LogInput) (models.LogEntry, error)
	Delete(ctx context.Context, id string) error
}

// Adapter turns log API calls into display events. Every event it returns is
// built from the server's response.
type Adapter struct {
	svc LogService
}

func NewAdapter(svc LogService) *Adapter {
	return &Adapter{svc: svc}
}

// FetchAll lists every log as an event. Each call is a fresh request.
func (a *Adapter) FetchAll(ctx context.Context) ([]Event, error) {
	entries, err := a.svc.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return ToEvents(entries), nil
}

func (a *Adapter) Create(ctx context.Context, in models.LogInput) (Event, error) {
	entry, err := a.svc.Create(ctx, in)
	if err != nil {
		return Event{}, err
	}
	return ToEvent(entry), nil
}

func (a *Adapter) Update(ctx context.Context, id string, in models.LogInput) (Event, error) {
	entry, err := a.svc.Update(ctx, id, in)
	if err != nil {
		return Event{}, err
	}
	return ToEvent(entry), nil
}

func (a *Adapter) Delete(ctx context.Context, id string) error {
	return a.svc.Delete(ctx, id)
}
