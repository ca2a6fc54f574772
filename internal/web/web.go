package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"weekcal/internal/config"
	appLog "weekcal/internal/log"
	"weekcal/internal/view"
	"weekcal/internal/week"
)

// Server is the browser-facing renderer and JSON API over a single view
// Controller. Every event runs under mu, so the Controller sees one event
// at a time.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	mu   sync.Mutex
	ctrl *view.Controller

	page *template.Template
}

//go:embed templates/week.html.tmpl
var templatesFS embed.FS

// NewServer constructs a Server driving ctrl.
func NewServer(cfg *config.Config, ctrl *view.Controller) *Server {
	s := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		ctrl: ctrl,
		page: template.Must(template.ParseFS(templatesFS, "templates/week.html.tmpl")),
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

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials count as disabled.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="weekcal", charset="UTF-8"`)
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
	}

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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// HTML renderer. Actions post back and redirect to the page.
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("POST /week/{step}", s.pageAction(s.weekStep))
	s.mux.HandleFunc("POST /overlay/{action}", s.pageAction(s.overlayAction))

	// JSON API.
	s.mux.HandleFunc("GET /api/week", s.handleState)
	s.mux.HandleFunc("POST /api/week/{step}", s.apiAction(s.weekStep))
	s.mux.HandleFunc("POST /api/overlay/{action}", s.apiAction(s.overlayAction))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// stateResponse is the JSON shape of the whole view state.
type stateResponse struct {
	Week    view.WeekViewModel    `json:"week"`
	Overlay view.OverlayViewModel `json:"overlay"`
}

// state snapshots the view. Caller holds s.mu.
func (s *Server) state() stateResponse {
	return stateResponse{Week: s.ctrl.Week(), Overlay: s.ctrl.Overlay()}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.state()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.state()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, st); err != nil {
		appLog.Error("week page render failed", err)
	}
}

// errUnknownAction is returned for a path value that names no action.
var errUnknownAction = errors.New("unknown action")

// action mutates the controller for one request. Caller holds s.mu.
type action func(r *http.Request) error

func (s *Server) weekStep(r *http.Request) error {
	switch step := r.PathValue("step"); step {
	case "next":
		s.ctrl.Next()
	case "prev":
		s.ctrl.Previous()
	case "today":
		s.ctrl.Today()
	default:
		return errUnknownAction
	}
	appLog.Debug("week step", "step", r.PathValue("step"), "anchor", s.ctrl.AnchorKey())
	return nil
}

func (s *Server) overlayAction(r *http.Request) error {
	act := r.PathValue("action")
	if act == "close" {
		s.ctrl.Close()
		return nil
	}

	k, err := week.ParseKey(r.FormValue("day"))
	if err != nil {
		return err
	}
	switch act {
	case "open":
		_, err = s.ctrl.OpenFor(k)
	case "select":
		_, err = s.ctrl.Select(k)
	default:
		return errUnknownAction
	}
	return err
}

func (s *Server) run(r *http.Request, act action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return act(r)
}

func (s *Server) apiAction(act action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		err := act(r)
		st := s.state()
		s.mu.Unlock()

		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) pageAction(act action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.run(r, act); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// statusFor maps controller precondition failures to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, view.ErrOverlayClosed):
		return http.StatusConflict
	case errors.Is(err, view.ErrNotVisible), errors.Is(err, week.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
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
