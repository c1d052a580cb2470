package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julianstephens/daylog/internal/constants"
	apperrors "github.com/julianstephens/daylog/internal/errors"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
)

// POST /api/logs
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in models.LogInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.stamp()
	entry := models.LogEntry{ID: s.newID(), CreatedAt: now, UpdatedAt: now}.Apply(in)
	if err := s.store.Create(r.Context(), entry); err != nil {
		s.writeError(w, r, apperrors.Store("create log", err))
		return
	}

	s.log.Debug("Log created", "id", entry.ID, "date", entry.Date)
	writeJSON(w, http.StatusCreated, entry)
}

// GET /api/logs[?filter=<expr>]
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var filter *logFilter
	if src := r.URL.Query().Get("filter"); src != "" {
		f, err := compileFilter(src)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter = f
	}

	entries, err := s.store.FindAll(r.Context())
	if err != nil {
		s.writeError(w, r, apperrors.Store("list logs", err))
		return
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	if filter != nil {
		if entries, err = filter.apply(entries); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/logs/{id}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.find(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// PUT /api/logs/{id} replaces every mutable field. Unknown ids are reported
// before body problems.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	current, err := s.find(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in models.LogInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.replace(w, r, current, in)
}

// PATCH /api/logs/{id} applies a merge patch (or a JSON patch) to the
// stored entry and then behaves like PUT.
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	current, err := s.find(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes))
	if err != nil {
		s.writeError(w, r, bodyError(err))
		return
	}
	in, err := applyPatch(current, r.Header.Get("Content-Type"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.replace(w, r, current, in)
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request, current models.LogEntry, in models.LogInput) {
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	next := current.Apply(in)
	next.UpdatedAt = s.stamp()
	updated, err := s.store.UpdateByID(r.Context(), current.ID, next)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, r, apperrors.NotFound("log", current.ID))
			return
		}
		s.writeError(w, r, apperrors.Store("update log", err))
		return
	}

	s.log.Debug("Log updated", "id", updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

// DELETE /api/logs/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, r, apperrors.NotFound("log", id))
			return
		}
		s.writeError(w, r, apperrors.Store("delete log", err))
		return
	}

	s.log.Debug("Log deleted", "id", id)
	writeJSON(w, http.StatusOK, messageBody{Message: constants.MsgLogDeleted})
}

// find loads the entry named by the {id} path segment.
func (s *Server) find(r *http.Request) (models.LogEntry, error) {
	id := r.PathValue("id")
	entry, err := s.store.FindByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.LogEntry{}, apperrors.NotFound("log", id)
	}
	if err != nil {
		return models.LogEntry{}, apperrors.Store("get log", err)
	}
	return entry, nil
}

// stamp is the server clock at the coarsest precision any backend keeps,
// so a response carries the same timestamps a later read returns.
func (s *Server) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// inputBody is a LogInput that tolerates the server-owned fields of a full
// LogEntry, so clients can send back an entry they read. Those fields are
// ignored.
type inputBody struct {
	models.LogInput
	ID        json.RawMessage `json:"id"`
	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// decodeBody reads a single JSON object into in, rejecting unknown fields,
// trailing data and bodies over the size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, in *models.LogInput) error {
	var body inputBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return apperrors.Validation("request body must contain a single JSON object")
	}
	*in = body.LogInput
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apperrors.Validation(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		return apperrors.MissingFields("date", "content")
	default:
		return apperrors.Validation(fmt.Sprintf("invalid request body: %v", err))
	}
}
