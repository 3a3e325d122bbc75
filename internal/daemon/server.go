package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mikaelhatanpaa/eventline/internal/api"
	"github.com/mikaelhatanpaa/eventline/internal/config"
	"github.com/mikaelhatanpaa/eventline/internal/db"
	"github.com/mikaelhatanpaa/eventline/internal/model"
	"github.com/mikaelhatanpaa/eventline/internal/pagination"
)

type Server struct {
	cfg         config.Config
	httpSrv     *http.Server
	listener    net.Listener
	store       *db.Store
	mu          sync.Mutex
	shutdown    sync.Once
	shutdownErr error
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	mux := http.NewServeMux()
	s := &Server{
		cfg:   cfg,
		store: store,
		httpSrv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	mux.HandleFunc("/v1/health", s.healthHandler)
	if store != nil {
		mux.HandleFunc("/v1/events", s.eventsHandler)
		mux.HandleFunc("/v1/events/", s.eventByIDHandler)
		mux.HandleFunc("/v1/event/", s.legacyEventHandler)
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Do(func() {
		var errs []error
		if s.httpSrv != nil {
			if err := s.httpSrv.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		s.mu.Lock()
		listener := s.listener
		s.listener = nil
		s.mu.Unlock()
		if listener != nil {
			if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			s.shutdownErr = fmt.Errorf("shutdown errors: %v", errs)
		}
	})
	return s.shutdownErr
}

// Addr reports the bound listen address, useful when the configured port
// is 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	resp := api.HealthResponse{
		SchemaVersion: "v1",
		GeneratedAt:   time.Now().UTC(),
		Status:        "ok",
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listEvents(w, r)
	case http.MethodPost:
		s.createEvent(w, r)
	default:
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := 1
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		// Invalid or missing page numbers fall back to the first page.
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = pagination.Normalize(parsed)
		}
	}
	pageSize := s.cfg.DefaultPageSize
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, model.ErrPageInvalid, "page_size must be a positive integer")
			return
		}
		pageSize = parsed
	}
	if s.cfg.MaxPageSize > 0 && pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	total, err := s.store.CountEvents(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, model.ErrInternal, "failed to count events")
		return
	}
	events, err := s.store.ListEventsPage(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, model.ErrInternal, "failed to list events")
		return
	}

	items := make([]api.EventItem, 0, len(events))
	for _, ev := range events {
		items = append(items, eventToItem(ev))
	}
	w.Header().Set(api.TotalCountHeader, strconv.FormatInt(total, 10))
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req api.CreateEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Date = strings.TrimSpace(req.Date)
	if req.Title == "" || req.Date == "" {
		s.writeError(w, http.StatusBadRequest, model.ErrValidation, "title and date are required")
		return
	}
	date, err := time.Parse(time.RFC3339Nano, req.Date)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrValidation, "date must be RFC3339")
		return
	}

	now := time.Now().UTC()
	ev := model.Event{
		EventID:     uuid.NewString(),
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Organizer:   strings.TrimSpace(req.Organizer),
		Date:        date.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertEvent(r.Context(), ev); err != nil {
		s.writeError(w, http.StatusInternalServerError, model.ErrInternal, "failed to create event")
		return
	}
	s.writeJSON(w, http.StatusCreated, eventToItem(ev))
}

func (s *Server) eventByIDHandler(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/v1/events/")
	parts := strings.Split(strings.Trim(tail, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		s.writeError(w, http.StatusNotFound, model.ErrEventNotFound, "event not found")
		return
	}
	eventID, err := url.PathUnescape(parts[0])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalidEncoding, "invalid event id encoding")
		return
	}
	eventID = strings.TrimSpace(eventID)

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.getEvent(w, r, eventID)
		case http.MethodPut:
			s.updateEvent(w, r, eventID)
		case http.MethodDelete:
			s.deleteEvent(w, r, eventID)
		default:
			s.methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
		return
	}
	if len(parts) == 2 && parts[1] == "registrations" {
		switch r.Method {
		case http.MethodGet:
			s.listRegistrations(w, r, eventID)
		case http.MethodPost:
			s.createRegistration(w, r, eventID)
		default:
			s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}
	s.writeError(w, http.StatusNotFound, model.ErrRefInvalid, "event route not found")
}

// legacyEventHandler redirects the old singular path shape to the current
// one, preserving the identifier, any sub-path, and the query string.
func (s *Server) legacyEventHandler(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/v1/event/")
	if strings.TrimSpace(strings.Trim(tail, "/")) == "" {
		s.writeError(w, http.StatusNotFound, model.ErrRefInvalid, "event route not found")
		return
	}
	target := "/v1/events/" + tail
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusPermanentRedirect)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	ev, err := s.store.GetEvent(r.Context(), eventID)
	if err != nil {
		s.writeEventLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eventToItem(ev))
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	var req api.UpdateEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "invalid request body")
		return
	}

	ev, err := s.store.GetEvent(r.Context(), eventID)
	if err != nil {
		s.writeEventLookupError(w, err)
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			s.writeError(w, http.StatusBadRequest, model.ErrValidation, "title must not be empty")
			return
		}
		ev.Title = title
	}
	if req.Description != nil {
		ev.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		ev.Location = strings.TrimSpace(*req.Location)
	}
	if req.Organizer != nil {
		ev.Organizer = strings.TrimSpace(*req.Organizer)
	}
	if req.Date != nil {
		date, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*req.Date))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, model.ErrValidation, "date must be RFC3339")
			return
		}
		ev.Date = date.UTC()
	}
	ev.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateEvent(r.Context(), ev); err != nil {
		s.writeEventLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eventToItem(ev))
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	if err := s.store.DeleteEvent(r.Context(), eventID); err != nil {
		s.writeEventLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createRegistration(w http.ResponseWriter, r *http.Request, eventID string) {
	var req api.CreateRegistrationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "invalid request body")
		return
	}
	req.AttendeeName = strings.TrimSpace(req.AttendeeName)
	req.AttendeeEmail = strings.TrimSpace(strings.ToLower(req.AttendeeEmail))
	if req.AttendeeName == "" || req.AttendeeEmail == "" {
		s.writeError(w, http.StatusBadRequest, model.ErrValidation, "attendee_name and attendee_email are required")
		return
	}
	if !strings.Contains(req.AttendeeEmail, "@") {
		s.writeError(w, http.StatusBadRequest, model.ErrValidation, "attendee_email must be an email address")
		return
	}

	reg := model.Registration{
		RegistrationID: uuid.NewString(),
		EventID:        eventID,
		AttendeeName:   req.AttendeeName,
		AttendeeEmail:  req.AttendeeEmail,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.InsertRegistration(r.Context(), reg); err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			s.writeError(w, http.StatusNotFound, model.ErrEventNotFound, "event not found")
		case errors.Is(err, db.ErrDuplicate):
			s.writeError(w, http.StatusConflict, model.ErrDuplicate, "attendee already registered")
		default:
			s.writeError(w, http.StatusInternalServerError, model.ErrInternal, "failed to create registration")
		}
		return
	}
	s.writeJSON(w, http.StatusCreated, registrationToItem(reg))
}

func (s *Server) listRegistrations(w http.ResponseWriter, r *http.Request, eventID string) {
	if _, err := s.store.GetEvent(r.Context(), eventID); err != nil {
		s.writeEventLookupError(w, err)
		return
	}
	regs, err := s.store.ListRegistrationsForEvent(r.Context(), eventID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, model.ErrInternal, "failed to list registrations")
		return
	}
	items := make([]api.RegistrationItem, 0, len(regs))
	for _, reg := range regs {
		items = append(items, registrationToItem(reg))
	}
	env := api.RegistrationsEnvelope{
		SchemaVersion: "v1",
		GeneratedAt:   time.Now().UTC(),
		EventID:       eventID,
		Registrations: items,
	}
	s.writeJSON(w, http.StatusOK, env)
}

func (s *Server) writeEventLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, model.ErrEventNotFound, "event not found")
		return
	}
	s.writeError(w, http.StatusInternalServerError, model.ErrInternal, "failed to resolve event")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	resp := api.ErrorResponse{
		SchemaVersion: "v1",
		GeneratedAt:   time.Now().UTC(),
		Error: api.APIError{
			Code:    code,
			Message: msg,
		},
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allow ...string) {
	if len(allow) > 0 {
		w.Header().Set("Allow", strings.Join(allow, ", "))
	}
	s.writeError(w, http.StatusMethodNotAllowed, model.ErrRefInvalid, "method not allowed")
}

func eventToItem(ev model.Event) api.EventItem {
	return api.EventItem{
		EventID:     ev.EventID,
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Organizer:   ev.Organizer,
		Date:        ev.Date.UTC().Format(time.RFC3339Nano),
		CreatedAt:   ev.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   ev.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func registrationToItem(reg model.Registration) api.RegistrationItem {
	return api.RegistrationItem{
		RegistrationID: reg.RegistrationID,
		EventID:        reg.EventID,
		AttendeeName:   reg.AttendeeName,
		AttendeeEmail:  reg.AttendeeEmail,
		CreatedAt:      reg.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
