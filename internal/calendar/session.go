package calendar

import (
	"context"

	"github.com/charmbracelet/log"
)

// Op names the adapter call behind a Result.
type Op int

const (
	OpFetch Op = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpFetch:
		return "fetch"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Result is the outcome of one adapter call.
type Result struct {
	Op     Op
	ID     string
	Event  Event
	Events []Event
	Err    error
}

// Job performs one adapter call. Jobs capture everything they need when they
// are built, so they can run off the goroutine that owns the Session.
type Job func(ctx context.Context) Result

// Session owns a State and feeds adapter results through its transitions.
// A Session is not safe for concurrent use; run Jobs anywhere but Apply
// their results from the owning goroutine.
type Session struct {
	adapter *Adapter
	logger  *log.Logger
	state   State
}

func NewSession(adapter *Adapter, logger *log.Logger, initial State) *Session {
	return &Session{adapter: adapter, logger: logger, state: initial}
}

func (s *Session) State() State { return s.state }

// Set replaces the state with the result of a local transition, e.g.
// s.Set(s.State().SelectDate("2024-05-01")).
func (s *Session) Set(st State) { s.state = st }

// Apply folds r into the state. Failures are logged and recorded in Err;
// the rest of the state is left as it was.
func (s *Session) Apply(r Result) {
	if r.Err != nil {
		s.logger.Error("calendar request failed", "op", r.Op, "id", r.ID, "err", r.Err)
		s.state = s.state.Failed(r.Err)
		return
	}
	switch r.Op {
	case OpFetch:
		s.state = s.state.Loaded(r.Events)
	case OpCreate:
		s.state = s.state.Created(r.Event)
	case OpUpdate:
		s.state = s.state.Updated(r.Event)
	case OpDelete:
		s.state = s.state.Deleted(r.ID)
	}
}

// Fetch builds a job that reloads every event.
func (s *Session) Fetch() Job {
	a := s.adapter
	return func(ctx context.Context) Result {
		events, err := a.FetchAll(ctx)
		return Result{Op: OpFetch, Events: events, Err: err}
	}
}

// Submit builds a job creating the drafted log. It reports false when the
// form is closed or the content is empty.
func (s *Session) Submit() (Job, bool) {
	if !s.state.CanSubmit() {
		return nil, false
	}
	a, in := s.adapter, s.state.Draft
	return func(ctx context.Context) Result {
		ev, err := a.Create(ctx, in)
		return Result{Op: OpCreate, ID: ev.ID, Event: ev, Err: err}
	}, true
}

// Save builds a job persisting the selected event's edited title.
func (s *Session) Save() (Job, bool) {
	sel := s.state.SelectedEvent
	if sel == nil {
		return nil, false
	}
	a, id, in := s.adapter, sel.ID, sel.Input()
	return func(ctx context.Context) Result {
		ev, err := a.Update(ctx, id, in)
		return Result{Op: OpUpdate, ID: id, Event: ev, Err: err}
	}, true
}

// Remove builds a job deleting the selected event.
func (s *Session) Remove() (Job, bool) {
	sel := s.state.SelectedEvent
	if sel == nil {
		return nil, false
	}
	a, id := s.adapter, sel.ID
	return func(ctx context.Context) Result {
		return Result{Op: OpDelete, ID: id, Err: a.Delete(ctx, id)}
	}, true
}

// Run executes job and applies its result. It returns the job's error.
func (s *Session) Run(ctx context.Context, job Job) error {
	r := job(ctx)
	s.Apply(r)
	return r.Err
}
