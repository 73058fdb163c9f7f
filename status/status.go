// Package status serves liveness and readiness probes.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

type Server struct {
	srv    *http.Server
	router *mux.Router
	ready  func() bool
	checks map[string]Check
	logger *zap.Logger
}

// New builds the probe server. ready reports gateway state; checks are run
// on every /readyz request.
func New(addr string, ready func() bool, checks map[string]Check, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router: mux.NewRouter(),
		ready:  ready,
		checks: checks,
		logger: logger.Named("status"),
	}
	s.router.HandleFunc("/healthz", s.live).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server stopped", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "alive"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{}
	ok := true

	if s.ready != nil && !s.ready() {
		deps["gateway"] = "not ready"
		ok = false
	} else {
		deps["gateway"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			deps[name] = err.Error()
			ok = false
			continue
		}
		deps[name] = "ok"
	}

	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "dependencies": deps})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "dependencies": deps})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
