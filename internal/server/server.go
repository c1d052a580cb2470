package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/storage"
)

// Options configures a Server. Zero values fall back to the defaults in
// the constants package.
type Options struct {
	BasePath      string
	AllowedOrigin string
	Logger        *log.Logger
	// Now and NewID are replaceable for tests.
	Now   func() time.Time
	NewID func() string
}

// Server exposes the log store over HTTP.
type Server struct {
	store         storage.Provider
	log           *log.Logger
	mux           *http.ServeMux
	basePath      string
	allowedOrigin string
	now           func() time.Time
	newID         func() string
}

func New(st storage.Provider, opts Options) *Server {
	s := &Server{
		store:         st,
		log:           opts.Logger,
		mux:           http.NewServeMux(),
		basePath:      strings.TrimSuffix(opts.BasePath, "/"),
		allowedOrigin: opts.AllowedOrigin,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if s.basePath == "" {
		s.basePath = constants.DefaultBasePath
	}
	if s.allowedOrigin == "" {
		s.allowedOrigin = constants.DefaultAllowedOrigin
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST "+s.basePath, s.handleCreate)
	s.mux.HandleFunc("GET "+s.basePath, s.handleList)
	s.mux.HandleFunc("GET "+s.basePath+"/{id}", s.handleGet)
	s.mux.HandleFunc("PUT "+s.basePath+"/{id}", s.handleUpdate)
	s.mux.HandleFunc("PATCH "+s.basePath+"/{id}", s.handlePatch)
	s.mux.HandleFunc("DELETE "+s.basePath+"/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "API is running...")
	})
}

// Handler returns the routes wrapped in the logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.cors(s.mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "store": s.store.Backend()}
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Error("Store health check failed", "backend", s.store.Backend(), "error", err)
		body["status"] = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Config holds listener settings for Run.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Ready, if set, is called with the bound address once the listener is open.
	Ready func(addr net.Addr)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.Info("Server listening", "addr", ln.Addr().String(), "base_path", s.basePath, "store", s.store.Backend())
	if cfg.Ready != nil {
		cfg.Ready(ln.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
