// Package api is the intake surface for calendar-view interactions. Each
// endpoint corresponds to one view-binding event (create intent, edit
// submit, drag-move, resize, delete confirmation, completion toggle) and is
// translated into a coordinator call.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sevenhill/schedsync/internal/domain"
	"github.com/sevenhill/schedsync/internal/engine"
	"github.com/sevenhill/schedsync/internal/ics"
	"github.com/sevenhill/schedsync/internal/projector"
	"github.com/sevenhill/schedsync/internal/security"
	"github.com/sevenhill/schedsync/internal/store"
)

type Server struct {
	coord     *engine.Coordinator
	auth      security.BearerAuth
	weekStart projector.WeekStart
	log       *slog.Logger
	httpSrv   *http.Server
}

type Options struct {
	Coordinator *engine.Coordinator
	Auth        security.BearerAuth
	WeekStart   projector.WeekStart
	Logger      *slog.Logger
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{coord: opts.Coordinator, auth: opts.Auth, weekStart: opts.WeekStart, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/entries", s.handleEntries)
	mux.HandleFunc("/v1/entries/create", s.handleCreate)
	mux.HandleFunc("/v1/entries/update", s.handleUpdate)
	mux.HandleFunc("/v1/entries/move", s.handleMove)
	mux.HandleFunc("/v1/entries/resize", s.handleResize)
	mux.HandleFunc("/v1/entries/delete", s.handleDelete)
	mux.HandleFunc("/v1/entries/toggle", s.handleToggle)
	mux.HandleFunc("/v1/entries/activate", s.handleActivate)
	mux.HandleFunc("/v1/entries/cancel", s.handleCancel)
	mux.HandleFunc("/v1/occurrences", s.handleOccurrences)
	mux.HandleFunc("/v1/window", s.handleWindow)
	mux.HandleFunc("/v1/export.ics", s.handleExport)
	s.httpSrv = &http.Server{Handler: s.auth.Protect(mux, "/healthz"), ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) ServeTCP(ctx context.Context, bind string) error {
	if bind == "" {
		return errors.New("bind required")
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) ServeUnix(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("socket path required")
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) shutdownOnContext(ctx context.Context) {
	<-ctx.Done()
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "displayed": s.coord.Registry().Len()})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.coord.Load(r.Context()); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":     s.coord.Entries(),
		"occurrences": s.coord.Registry().Occurrences(),
	})
}

type createRequest struct {
	Entry domain.ScheduleEntry `json:"entry"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createRequest
	if !decodePost(w, r, &payload) {
		return
	}
	created, err := s.coord.Create(r.Context(), payload.Entry)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

type updateRequest struct {
	EntryID  string               `json:"entry_id"`
	Mutation domain.EntryMutation `json:"mutation"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload updateRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.coord.Update(r.Context(), payload.EntryID, payload.Mutation); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"entry_id": payload.EntryID})
}

type moveRequest struct {
	EntryID   string `json:"entry_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var payload moveRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.coord.Move(r.Context(), payload.EntryID, payload.DayOfWeek, payload.StartTime, payload.EndTime); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"entry_id": payload.EntryID})
}

type resizeRequest struct {
	EntryID string `json:"entry_id"`
	EndTime string `json:"end_time"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var payload resizeRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.coord.Resize(r.Context(), payload.EntryID, payload.EndTime); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"entry_id": payload.EntryID})
}

type entryRequest struct {
	EntryID string `json:"entry_id"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var payload entryRequest
	if !decodePost(w, r, &payload) {
		return
	}
	// Delete confirmation flow: selecting the entry is the confirmation.
	if err := s.coord.Activate(payload.EntryID); err != nil {
		s.writeFailure(w, err)
		return
	}
	if err := s.coord.Delete(r.Context(), payload.EntryID); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"entry_id": payload.EntryID})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var payload entryRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.coord.ToggleDone(r.Context(), payload.EntryID); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"entry_id": payload.EntryID})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var payload entryRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.coord.Activate(payload.EntryID); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": payload.EntryID})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.coord.Cancel()
	writeJSON(w, http.StatusOK, map[string]string{"active": ""})
}

func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "from must be RFC 3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "to must be RFC 3339")
		return
	}
	occs, err := s.coord.ExpandWindow(from, to)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, occs)
}

type windowRequest struct {
	Reference string `json:"reference"`
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	var payload windowRequest
	if !decodePost(w, r, &payload) {
		return
	}
	reference, err := time.Parse(time.RFC3339, payload.Reference)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "reference must be RFC 3339")
		return
	}
	s.coord.SetWindow(reference)
	writeJSON(w, http.StatusOK, s.coord.Registry().Occurrences())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	reference := time.Now()
	if v := r.URL.Query().Get("reference"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "reference must be RFC 3339")
			return
		}
		reference = parsed
	}
	out, err := ics.Export(s.coord.Entries(), reference, s.weekStart)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func decodePost(w http.ResponseWriter, r *http.Request, payload any) bool {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// writeFailure maps the engine's error taxonomy onto status codes.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeErr(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, projector.ErrInvalidEntry):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrConcurrentMutation):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrUnknownEntry), errors.Is(err, engine.ErrNoActiveEntry), errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", "error", err)
		writeErr(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
