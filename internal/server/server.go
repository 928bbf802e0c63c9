// SPDX-License-Identifier: MIT
// Package server exposes the live pipeline over HTTP: Prometheus metrics, the
// snapshot WebSocket, the latest snapshot as JSON and operator section
// control.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"luxsync/internal/log"
	"luxsync/internal/pipeline"
	"luxsync/internal/section"
	"luxsync/internal/transport"
	"luxsync/pkg/build"
)

// Options wires the server to the rest of the application. Nil fields
// disable the matching routes.
type Options struct {
	Addr      string
	Gatherer  prometheus.Gatherer
	WebSocket *transport.WebSocketTransport
	Selector  *section.Selector
}

// Server is also a transport: it keeps the most recent snapshot for
// /api/snapshot.
type Server struct {
	opts   Options
	router *mux.Router
	http   *http.Server

	mu     sync.RWMutex
	latest pipeline.Snapshot
	has    bool
}

// New builds the router. Call Run to listen.
func New(opts Options) *Server {
	s := &Server{opts: opts}
	s.router = s.setupMux()
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupMux() *mux.Router {
	r := mux.NewRouter()

	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.opts.WebSocket != nil {
		r.Handle("/ws", s.opts.WebSocket)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(logRequests)
	api.HandleFunc("/version", s.versionHandler).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", s.snapshotHandler).Methods(http.MethodGet)
	api.HandleFunc("/section", s.getSectionHandler).Methods(http.MethodGet)
	api.HandleFunc("/section/{label}", s.setSectionHandler).Methods(http.MethodPut, http.MethodPost)
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Infof("Server: listening on %s", s.opts.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Infof("Server: stopped")
	return nil
}

// Send records snap as the latest state.
func (s *Server) Send(snap pipeline.Snapshot) error {
	s.mu.Lock()
	s.latest, s.has = snap, true
	s.mu.Unlock()
	return nil
}

// Close is a no-op; Run owns the listener lifecycle.
func (s *Server) Close() error { return nil }

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, build.Get())
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap, ok := s.latest, s.has
	s.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type sectionResponse struct {
	Section section.Label `json:"section"`
}

func (s *Server) getSectionHandler(w http.ResponseWriter, r *http.Request) {
	if s.opts.Selector == nil {
		writeError(w, http.StatusNotFound, "sections are driven by a cue sheet")
		return
	}
	writeJSON(w, http.StatusOK, sectionResponse{Section: s.opts.Selector.Current()})
}

func (s *Server) setSectionHandler(w http.ResponseWriter, r *http.Request) {
	if s.opts.Selector == nil {
		writeError(w, http.StatusConflict, "sections are driven by a cue sheet")
		return
	}
	label, err := section.ParseLabel(mux.Vars(r)["label"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.opts.Selector.Set(label)
	log.Infof("Server: section set to %s by %s", label, r.RemoteAddr)
	writeJSON(w, http.StatusOK, sectionResponse{Section: label})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("Server: %s %s in %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("Server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var _ transport.Transport = (*Server)(nil)
