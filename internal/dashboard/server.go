package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lukefredrickson/nfact-dashboard/internal/logger"
	"github.com/lukefredrickson/nfact-dashboard/internal/metrics"
	"github.com/lukefredrickson/nfact-dashboard/internal/present"
	"github.com/lukefredrickson/nfact-dashboard/internal/selection"
)

const maxEventBytes = 64 << 10

// Server is the HTTP adapter for the event and render surfaces.
type Server struct {
	engine   *Engine
	sessions *sessionTable
	log      *slog.Logger
	router   *chi.Mux
}

type sessionResponse struct {
	Session string         `json:"session"`
	Miss    bool           `json:"miss,omitempty"`
	Render  present.Render `json:"render"`
}

// NewServer builds the router.
func NewServer(e *Engine) *Server {
	l := e.opt.Logger
	s := &Server{
		engine:   e,
		sessions: newSessionTable(e.opt.SessionTTL, e.opt.MaxSessions, e.NewState),
		log:      l,
		router:   chi.NewRouter(),
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(logger.AccessMiddleware(l, observeRequest))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())
	s.router.Get("/api/map", s.handleMap)
	s.router.Post("/api/sessions", s.handleCreateSession)
	s.router.Get("/api/sessions/{id}", s.handleGetSession)
	s.router.Post("/api/sessions/{id}/events", s.handleEvent)
	s.router.Get("/api/sessions/{id}/charts/{chart}.png", s.handleChartPNG)
	return s
}

func observeRequest(r *http.Request, status int) {
	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		route = rctx.RoutePattern()
	}
	metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("dashboard_listening", "addr", addr)
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("dashboard_shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"records":  s.engine.Store().Len(),
		"sessions": s.sessions.count(),
	})
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Map())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id, sess := s.sessions.create()
	sess.mu.Lock()
	snap := sess.state.Snapshot()
	sess.mu.Unlock()
	s.log.Debug("session_created", "session", id)
	writeJSON(w, http.StatusCreated, sessionResponse{Session: id, Render: s.engine.Render(snap)})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return id, nil, false
	}
	return id, sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	snap := sess.state.Snapshot()
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, sessionResponse{Session: id, Render: s.engine.Render(snap)})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	ev, err := selection.DecodeEvent(body, s.engine.Resolver())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	out, err := sess.state.Apply(ev)
	snap := sess.state.Snapshot()
	sess.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.EventsTotal.WithLabelValues(ev.Type()).Inc()
	if out.Miss {
		metrics.SelectionMissesTotal.WithLabelValues(ev.Type()).Inc()
		s.log.Debug("selection_miss", "session", id, "event", ev.Type(), "geo", snap.Geo, "entity", snap.Entity)
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: id, Miss: out.Miss, Render: s.engine.Render(snap)})
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	snap := sess.state.Snapshot()
	sess.mu.Unlock()

	c, ok := s.engine.Render(snap).FindChart(chi.URLParam(r, "chart"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown chart")
		return
	}
	width := intQuery(r, "width", 1024)
	height := intQuery(r, "height", 512)
	w.Header().Set("Content-Type", "image/png")
	if err := present.RenderPNG(w, c, width, height); err != nil {
		s.log.Error("chart_render_failed", "chart", c.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "render chart")
	}
}

func intQuery(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 || v > 4096 {
		return def
	}
	return v
}

// writeJSON encodes v before writing the status so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.L().Error("encode_response", "err", err)
		status = http.StatusInternalServerError
		b, _ = json.Marshal(map[string]string{"error": "encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
