package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"eventcal/internal/calendar"
	"eventcal/internal/config"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Source is what the HTTP surface reads. *bot.Service implements it.
type Source interface {
	Events() ([]model.Event, error)
	Calendar() (calendar.View, error)
	Now() time.Time
}

// Server exposes the event log and the rendered calendar over HTTP:
// /health, /api/events, /preview.png and /calendar.ics.
type Server struct {
	cfg *config.Config
	src Source
	mux *http.ServeMux

	// The preview is re-rendered at most once per previewCacheTTL.
	previewMu    sync.RWMutex
	previewCache *previewCache
}

type previewCache struct {
	png       []byte
	updatedAt time.Time
}

const previewCacheTTL = 10 * time.Second

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, src Source) *Server {
	s := &Server{
		cfg: cfg,
		src: src,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="eventcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events          []eventDTO `json:"events"`
	Count           int        `json:"count"`
	DisplayTimeZone string     `json:"display_timezone"`
}

// eventDTO is a JSON-friendly view of an event; Local is the timestamp in
// the display timezone.
type eventDTO struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Local     string      `json:"local"`
	Actor     model.Actor `json:"actor"`
}

// handleEvents returns the full event log, oldest first.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	events, err := s.src.Events()
	if err != nil {
		appLog.Error("api events: load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read event log")
		return
	}

	loc := s.location()
	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, eventDTO{
			ID:        ev.ID,
			Timestamp: ev.Timestamp.UTC(),
			Local:     ev.Timestamp.In(loc).Format(time.RFC3339),
			Actor:     ev.Actor,
		})
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:          dtos,
		Count:           len(dtos),
		DisplayTimeZone: loc.String(),
	})
}

// handlePreview serves the current month exactly as the tracked message
// shows it.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()

	s.previewMu.RLock()
	pc := s.previewCache
	s.previewMu.RUnlock()

	var png []byte
	if pc != nil && now.Sub(pc.updatedAt) < previewCacheTTL {
		png = pc.png
	} else {
		view, err := s.src.Calendar()
		if err != nil {
			appLog.Error("preview: render failed", err)
			writeError(w, http.StatusInternalServerError, "failed to render calendar")
			return
		}
		png = view.Image

		s.previewMu.Lock()
		s.previewCache = &previewCache{png: png, updatedAt: now}
		s.previewMu.Unlock()
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// handleICS exports the event log as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	events, err := s.src.Events()
	if err != nil {
		appLog.Error("ics export: load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read event log")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.Export(events, "Event Calendar", s.src.Now())))
}

func (s *Server) location() *time.Location {
	if s.cfg == nil {
		return time.UTC
	}
	return resolveLocationOrUTC(s.cfg.Timezone)
}

func resolveLocationOrUTC(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to UTC", err, "name", name)
		return time.UTC
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
