package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"schedcal/internal/config"
	"schedcal/internal/convert"
	"schedcal/internal/ics"
	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/schedule"
)

// maxUpload bounds the size of an uploaded schedule page. Saved portal
// pages are well under a megabyte; 10 MiB leaves headroom for inlined assets.
const maxUpload = 10 << 20

// Snapshot is the latest conversion produced by the refresh loop. It is
// replaced wholesale on every refresh; there is no merge semantics.
type Snapshot struct {
	ICS         string
	Events      []model.ScheduleEvent
	Warnings    []string
	TermEnd     time.Time
	GeneratedAt time.Time
}

// Server provides the HTTP API: on-demand parse/convert plus the latest
// refresher snapshot as a subscribable calendar file.
type Server struct {
	cfg    *config.Config
	router *mux.Router

	snapMu sync.RWMutex
	snap   *Snapshot
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/parse", s.handleParse).Methods(http.MethodPost)
	s.router.HandleFunc("/api/convert", s.handleConvert).Methods(http.MethodPost)
	s.router.HandleFunc("/calendar.ics", s.handleCalendar).Methods(http.MethodGet)
}

// Handler returns the underlying http.Handler, wrapped with basic auth when
// credentials are configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
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
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// SetSnapshot replaces the published calendar snapshot.
func (s *Server) SetSnapshot(snap Snapshot) {
	s.snapMu.Lock()
	s.snap = &snap
	s.snapMu.Unlock()
}

// LatestSnapshot returns the current snapshot, if any has been published.
func (s *Server) LatestSnapshot() (Snapshot, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	if s.snap == nil {
		return Snapshot{}, false
	}
	return *s.snap, true
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
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
			w.Header().Set("WWW-Authenticate", `Basic realm="schedcal", charset="UTF-8"`)
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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// parseResponse is the JSON response shape for /api/parse.
type parseResponse struct {
	Events          []model.ScheduleEvent `json:"events"`
	Warnings        []string              `json:"warnings,omitempty"`
	DetectedTermEnd string                `json:"detected_term_end,omitempty"`
}

// handleParse extracts events from an uploaded schedule page and returns
// them as JSON. This is the read-only preview surface; nothing is generated.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, err := s.readDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := schedule.Extract(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := parseResponse{
		Events:   res.Events,
		Warnings: res.Warnings,
	}
	if resp.Events == nil {
		resp.Events = []model.ScheduleEvent{}
	}
	if !res.DetectedTermEnd.IsZero() {
		resp.DetectedTermEnd = res.DetectedTermEnd.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConvert runs the full pipeline over an uploaded page and returns
// the calendar file. term_end comes from the query string or the multipart
// form; when absent, the term end detected in the source is used.
//
// Emission is all-or-nothing: a single event with invalid times yields 422
// and no calendar text.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := s.readDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var termEnd time.Time
	if raw := s.termEndParam(r); raw != "" {
		termEnd, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "term_end must be YYYY-MM-DD")
			return
		}
	}

	res, err := convert.Run(body, termEnd, convert.Options{
		ProductID:            s.cfg.ProductID,
		AllowDetectedTermEnd: true,
	})
	if err != nil {
		appLog.Error("api convert failed", err)
		switch {
		case errors.Is(err, ics.ErrInvalidEventTime), errors.Is(err, convert.ErrNoTermEnd):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.ICS))
}

// handleCalendar serves the latest refresher snapshot as a calendar file,
// so calendar apps can subscribe to the serve-mode instance directly.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.LatestSnapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no calendar generated yet")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Last-Modified", snap.GeneratedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(snap.ICS))
}

// readDocument reads the schedule page from the request: either the "file"
// field of a multipart form or the raw request body.
func (s *Server) readDocument(r *http.Request) ([]byte, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return nil, err
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxUpload))
	}
	return io.ReadAll(http.MaxBytesReader(nil, r.Body, maxUpload))
}

// termEndParam fetches the term_end parameter from query or multipart form.
func (s *Server) termEndParam(r *http.Request) string {
	if v := r.URL.Query().Get("term_end"); v != "" {
		return v
	}
	if r.MultipartForm != nil {
		if vs := r.MultipartForm.Value["term_end"]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
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
