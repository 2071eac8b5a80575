package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/alanmeadows/langbridge/internal/config"
	"github.com/alanmeadows/langbridge/internal/langgraph"
)

//go:embed static
var staticFiles embed.FS

// Server is the dashboard HTTP server that serves the chat page, the thread
// state API, metrics, and the WebSocket bridge.
type Server struct {
	cfg     *config.Config
	client  langgraph.Client
	bridge  *Bridge
	metrics http.Handler
	srv     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewServer creates a dashboard server around an already-built client.
func NewServer(cfg *config.Config, client langgraph.Client, bridge *Bridge, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		client: client,
		bridge: bridge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := net.JoinHostPort(s.cfg.Dashboard.Host, strconv.Itoa(port))
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // WebSocket needs no write timeout
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down dashboard server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	slog.Info("starting dashboard server", "addr", addr, "langgraph", s.cfg.Server.URL)
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard server error: %w", err)
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		slog.Error("failed to create sub FS for static files", "error", err)
		return
	}

	mux.Handle("GET /", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("GET /ws", s.bridge.HandleWS)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/threads", s.handleCreateThread)
	mux.HandleFunc("GET /api/threads/{id}/state", s.handleGetState)
	mux.HandleFunc("POST /api/threads/{id}/state", s.handleUpdateState)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}

// --- REST Handlers ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"langgraph_url": s.cfg.Server.URL,
		"assistant_id":  s.cfg.Server.AssistantID,
		"connections":   s.bridge.Connections(),
		"reachable":     true,
	}
	if _, err := langgraph.HealthCheck(r.Context(), s.cfg.Server.URL, s.cfg.Server.APIKey); err != nil {
		status["reachable"] = false
		status["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	thread, err := s.client.CreateThread(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, thread)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.client.GetState(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	var req langgraph.StateUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Values) == 0 {
		http.Error(w, "values is required", http.StatusBadRequest)
		return
	}
	confirmed, err := s.client.UpdateState(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(confirmed)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeError relays the LangGraph status for rejected calls and reports
// transport failures as 502.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusBadGateway
	var terr *langgraph.TransportError
	if errors.As(err, &terr) && terr.StatusCode >= 400 && terr.StatusCode < 500 {
		code = terr.StatusCode
	}
	writeJSON(w, code, ErrorPayload{Message: err.Error()})
}
