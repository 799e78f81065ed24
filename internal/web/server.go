// Package web provides an HTTP status server for the prox-sensor daemon.
package web

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/sweeney/prox-sensor/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	resets     chan<- uint8
}

// New creates a Server that reads state from the given tracker. Channel
// reset requests are queued on resets; a nil resets disables /reset.
func New(addr string, tracker *status.Tracker, resets chan<- uint8) *Server {
	s := &Server{tracker: tracker, resets: resets}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/reset", s.handleReset)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleReset queues POST /reset?channel=N for the sampling loop.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.resets == nil {
		http.Error(w, "reset disabled", http.StatusNotFound)
		return
	}
	ch, err := strconv.ParseUint(r.URL.Query().Get("channel"), 10, 8)
	if err != nil {
		http.Error(w, "invalid channel", http.StatusBadRequest)
		return
	}
	select {
	case s.resets <- uint8(ch):
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "reset queue full", http.StatusServiceUnavailable)
	}
}
