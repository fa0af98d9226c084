package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teamodea/meetfinder/internal/availability"
	"github.com/teamodea/meetfinder/internal/calendar"
	"github.com/teamodea/meetfinder/internal/logging"
	"github.com/teamodea/meetfinder/internal/scheduler"
)

const (
	// DefaultAPIAddr is the default address for the scheduling API server.
	DefaultAPIAddr = ":8080"

	// DefaultAPIReadTimeout bounds slow request bodies.
	DefaultAPIReadTimeout = 15 * time.Second

	// DefaultAPIWriteTimeout bounds slow responses. Availability requests
	// fan out to the calendar API, so this is generous.
	DefaultAPIWriteTimeout = 60 * time.Second

	// DefaultAllowedDomain is the email domain permitted when
	// ALLOWED_EMAIL_DOMAINS is unset.
	DefaultAllowedDomain = "teamodea.com"
)

// Messages returned in response bodies. The frontend matches on these, so
// they are constants rather than ad-hoc strings.
const (
	msgNoWorkingHours  = "No working hours found in the specified date range."
	msgNoFreeSlots     = "No overlapping availability found within the specified range."
	msgNoSuitableSlots = "No suitable time slots found within the specified range."
	msgReadOnlyNote    = "NOTE: Operating in read-only mode. To schedule meetings, re-authenticate with full permissions."
	msgReadOnlyRefusal = "Cannot modify the calendar with read-only credentials. Re-authenticate with full permissions."
)

// ScheduleBackend is what the API handlers need from the calendar layer.
// *calendar.Client implements it; tests substitute a fake.
type ScheduleBackend interface {
	scheduler.EventSource
	scheduler.BookingSink

	ReadOnly() bool
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]calendar.EventSummary, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, input calendar.EventInput) (*calendar.EventSummary, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// APIConfig holds configuration for the scheduling API server.
type APIConfig struct {
	// Addr is the address to bind the API server to (e.g., ":8080").
	Addr string

	// AllowedOrigins are the CORS origins permitted to call the API.
	// Entries may carry a leading "*." wildcard, e.g. "https://*.teamodea.com".
	AllowedOrigins []string

	// AllowedDomains are the participant email domains accepted by the
	// scheduling endpoints. A "*" entry allows all domains.
	AllowedDomains []string

	// Policy defines the working hours used for availability computation.
	Policy availability.WorkingPolicy

	// FetchTimeout bounds the per-request calendar fan-out. Zero means
	// the scheduler default.
	FetchTimeout time.Duration
}

// APIServer serves the scheduling HTTP API: availability search, meeting
// booking and primary-calendar event management.
type APIServer struct {
	cfg           APIConfig
	serverContext *ServerContext
	health        *HealthChecker
	logger        *slog.Logger
	httpServer    *http.Server
	backendFor    func() (ScheduleBackend, error)
}

// APIOption configures an APIServer.
type APIOption func(*APIServer)

// WithAPILogger sets the request logger.
func WithAPILogger(logger *slog.Logger) APIOption {
	return func(s *APIServer) {
		s.logger = logger
	}
}

// WithScheduleBackend pins the backend instead of resolving it from the
// server context per request. Used by tests.
func WithScheduleBackend(backend ScheduleBackend) APIOption {
	return func(s *APIServer) {
		s.backendFor = func() (ScheduleBackend, error) {
			return backend, nil
		}
	}
}

// NewAPIServer creates the scheduling API server.
func NewAPIServer(sc *ServerContext, cfg APIConfig, opts ...APIOption) *APIServer {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAPIAddr
	}
	if len(cfg.AllowedDomains) == 0 {
		cfg.AllowedDomains = []string{DefaultAllowedDomain}
	}

	s := &APIServer{
		cfg:           cfg,
		serverContext: sc,
		health:        NewHealthChecker(sc),
		logger:        slog.Default(),
	}
	s.backendFor = func() (ScheduleBackend, error) {
		client := sc.CalendarClient()
		if client == nil {
			return nil, fmt.Errorf("no calendar credentials available; run 'meetfinder auth' or set GOOGLE_ACCESS_TOKEN")
		}
		return client, nil
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the full API handler, including health endpoints and
// CORS middleware.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/schedule", s.instrument("/api/schedule", s.handleSchedule))
	mux.Handle("POST /api/events", s.instrument("/api/events", s.handleListEvents))
	mux.Handle("POST /api/events/{id}/update", s.instrument("/api/events/update", s.handleUpdateEvent))
	mux.Handle("DELETE /api/events/{id}", s.instrument("/api/events/delete", s.handleDeleteEvent))

	s.health.RegisterHealthEndpoints(mux)

	return corsMiddleware(mux, s.cfg.AllowedOrigins)
}

// Start starts the API server in a blocking manner.
func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultAPIReadTimeout,
		WriteTimeout:      DefaultAPIWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	s.logger.Info("starting scheduling API server", slog.String("addr", s.cfg.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the API server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		s.logger.Info("shutting down scheduling API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Health exposes the health checker so callers can flip readiness.
func (s *APIServer) Health() *HealthChecker {
	return s.health
}

// instrument records HTTP request metrics around a handler.
func (s *APIServer) instrument(path string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		if m := s.serverContext.Metrics(); m != nil {
			m.RecordHTTPRequest(r.Context(), r.Method, path, sw.status, time.Since(start))
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Request and response payloads. Field names mirror what the frontend
// sends and expects.

type dateRangePayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type timeSlotPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func slotPayload(iv availability.Interval) timeSlotPayload {
	return timeSlotPayload{
		Start: iv.Start.Format(time.RFC3339),
		End:   iv.End.Format(time.RFC3339),
	}
}

type scheduleRequest struct {
	MeetingType   string           `json:"meeting_type"`
	Participants  []string         `json:"participants"`
	Duration      int              `json:"duration"` // minutes
	DateRange     dateRangePayload `json:"date_range"`
	MeetingName   string           `json:"meeting_name,omitempty"`
	TimeSlot      *timeSlotPayload `json:"time_slot,omitempty"`
	AddGoogleMeet bool             `json:"add_google_meet,omitempty"`
}

type scheduledMeetingPayload struct {
	ID        string   `json:"id"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Summary   string   `json:"summary"`
	Attendees []string `json:"attendees"`
	VideoLink string   `json:"video_link,omitempty"`
}

type availabilityResponse struct {
	Slots            []timeSlotPayload        `json:"slots,omitempty"`
	Message          string                   `json:"message,omitempty"`
	Error            string                   `json:"error,omitempty"`
	ScheduledMeeting *scheduledMeetingPayload `json:"scheduled_meeting,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Domain errors travel in the response body with a 200 status; the
// frontend branches on the error field, not the status code.
func writeDomainError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, availabilityResponse{Error: msg})
}

// toSchedulerRequest converts the wire request into a scheduler request.
func (s *APIServer) toSchedulerRequest(req scheduleRequest) (scheduler.Request, error) {
	rangeStart, err := s.cfg.Policy.ParseInstant(req.DateRange.Start)
	if err != nil {
		return scheduler.Request{}, fmt.Errorf("invalid date range start: %w", err)
	}
	rangeEnd, err := s.cfg.Policy.ParseInstant(req.DateRange.End)
	if err != nil {
		return scheduler.Request{}, fmt.Errorf("invalid date range end: %w", err)
	}

	out := scheduler.Request{
		Participants:   req.Participants,
		RangeStart:     rangeStart,
		RangeEnd:       rangeEnd,
		Duration:       time.Duration(req.Duration) * time.Minute,
		Summary:        req.MeetingName,
		WantsVideoLink: req.AddGoogleMeet,
	}
	if out.Summary == "" {
		out.Summary = fmt.Sprintf("Meeting (%d minutes)", req.Duration)
	}

	if req.TimeSlot != nil {
		slotStart, err := s.cfg.Policy.ParseInstant(req.TimeSlot.Start)
		if err != nil {
			return scheduler.Request{}, fmt.Errorf("invalid time slot start: %w", err)
		}
		slotEnd, err := s.cfg.Policy.ParseInstant(req.TimeSlot.End)
		if err != nil {
			return scheduler.Request{}, fmt.Errorf("invalid time slot end: %w", err)
		}
		slot, err := availability.NewInterval(slotStart, slotEnd)
		if err != nil {
			return scheduler.Request{}, fmt.Errorf("invalid time slot: %w", err)
		}
		out.Slot = &slot
	}

	return out, nil
}

func (s *APIServer) newScheduler(backend ScheduleBackend) *scheduler.Scheduler {
	opts := []scheduler.FinderOption{scheduler.WithLogger(s.logger)}
	if s.cfg.FetchTimeout > 0 {
		opts = append(opts, scheduler.WithFetchTimeout(s.cfg.FetchTimeout))
	}
	finder := scheduler.NewFinder(backend, s.cfg.Policy, opts...)
	return scheduler.NewScheduler(finder, backend, s.logger)
}

func (s *APIServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, availabilityResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	for _, email := range req.Participants {
		if !validateEmailDomain(email, s.cfg.AllowedDomains) {
			writeDomainError(w, fmt.Sprintf("Email domain not permitted: %s. Update settings to allow external domains.", email))
			return
		}
	}

	backend, err := s.backendFor()
	if err != nil {
		writeDomainError(w, err.Error())
		return
	}

	schedReq, err := s.toSchedulerRequest(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, availabilityResponse{Error: err.Error()})
		return
	}

	switch req.MeetingType {
	case "find_availability":
		s.findAvailability(w, r, backend, schedReq)
	case "schedule_meeting":
		s.scheduleMeeting(w, r, backend, schedReq)
	default:
		writeJSON(w, http.StatusBadRequest, availabilityResponse{
			Error: fmt.Sprintf("unknown meeting type: %q", req.MeetingType),
		})
	}
}

func (s *APIServer) findAvailability(w http.ResponseWriter, r *http.Request, backend ScheduleBackend, req scheduler.Request) {
	start := time.Now()
	result, err := s.newScheduler(backend).FindSlots(r.Context(), req)
	if err != nil {
		s.recordAvailability(r.Context(), "error", 0, start)
		s.logger.Error("availability search failed",
			logging.Operation("find_availability"), logging.Err(err))
		writeDomainError(w, "Error processing schedule request: "+err.Error())
		return
	}
	s.recordAvailability(r.Context(), string(result.Outcome), len(result.Slots), start)

	switch result.Outcome {
	case scheduler.OutcomeNoWorkingHours:
		writeJSON(w, http.StatusOK, availabilityResponse{Message: msgNoWorkingHours})
	case scheduler.OutcomeNoFreeSlots:
		writeJSON(w, http.StatusOK, availabilityResponse{Message: msgNoFreeSlots})
	default:
		slots := make([]timeSlotPayload, 0, len(result.Slots))
		for _, iv := range result.Slots {
			slots = append(slots, slotPayload(iv))
		}
		resp := availabilityResponse{Slots: slots}
		if backend.ReadOnly() {
			resp.Message = msgReadOnlyNote
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *APIServer) scheduleMeeting(w http.ResponseWriter, r *http.Request, backend ScheduleBackend, req scheduler.Request) {
	if backend.ReadOnly() {
		writeDomainError(w, msgReadOnlyRefusal)
		return
	}

	result, err := s.newScheduler(backend).Schedule(r.Context(), req)
	if err != nil {
		s.logger.Error("scheduling failed",
			logging.Operation("schedule_meeting"), logging.Err(err))
		writeDomainError(w, "Error processing schedule request: "+err.Error())
		return
	}

	if result.Confirmation == nil {
		switch result.Outcome {
		case scheduler.OutcomeNoWorkingHours:
			writeDomainError(w, msgNoWorkingHours)
		default:
			writeDomainError(w, msgNoSuitableSlots)
		}
		return
	}

	c := result.Confirmation
	writeJSON(w, http.StatusOK, availabilityResponse{
		ScheduledMeeting: &scheduledMeetingPayload{
			ID:        c.ID,
			Start:     c.Slot.Start.Format(time.RFC3339),
			End:       c.Slot.End.Format(time.RFC3339),
			Summary:   c.Summary,
			Attendees: c.Attendees,
			VideoLink: c.VideoLink,
		},
	})
}

func (s *APIServer) recordAvailability(ctx context.Context, outcome string, slots int, start time.Time) {
	if m := s.serverContext.Metrics(); m != nil {
		m.RecordAvailabilityRequest(ctx, outcome, slots, time.Since(start))
	}
}

type eventsRequest struct {
	DateRange dateRangePayload `json:"date_range"`
}

type eventsResponse struct {
	Events    []calendar.EventSummary `json:"events"`
	DateRange dateRangePayload        `json:"date_range"`
	Error     string                  `json:"error,omitempty"`
}

func (s *APIServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, eventsResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	timeMin, err := s.cfg.Policy.ParseInstant(req.DateRange.Start)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, eventsResponse{Error: "invalid date range start: " + err.Error()})
		return
	}
	timeMax, err := s.cfg.Policy.ParseInstant(req.DateRange.End)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, eventsResponse{Error: "invalid date range end: " + err.Error()})
		return
	}

	backend, err := s.backendFor()
	if err != nil {
		writeJSON(w, http.StatusOK, eventsResponse{Error: err.Error()})
		return
	}

	events, err := backend.ListEvents(r.Context(), "primary", timeMin, timeMax, "")
	if err != nil {
		writeJSON(w, http.StatusOK, eventsResponse{Error: "Error retrieving events: " + err.Error()})
		return
	}
	if events == nil {
		events = []calendar.EventSummary{}
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:    events,
		DateRange: req.DateRange,
	})
}

type updateEventRequest struct {
	Summary       string `json:"summary"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	AddGoogleMeet bool   `json:"add_google_meet,omitempty"`
}

type updateEventResponse struct {
	Event *calendar.EventSummary `json:"event,omitempty"`
	Error string                 `json:"error,omitempty"`
}

func (s *APIServer) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, updateEventResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	startTime, err := s.cfg.Policy.ParseInstant(req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, updateEventResponse{Error: "invalid start time: " + err.Error()})
		return
	}
	endTime, err := s.cfg.Policy.ParseInstant(req.EndTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, updateEventResponse{Error: "invalid end time: " + err.Error()})
		return
	}

	backend, err := s.backendFor()
	if err != nil {
		writeJSON(w, http.StatusOK, updateEventResponse{Error: err.Error()})
		return
	}
	if backend.ReadOnly() {
		writeJSON(w, http.StatusOK, updateEventResponse{Error: msgReadOnlyRefusal})
		return
	}

	event, err := backend.UpdateEvent(r.Context(), "primary", eventID, calendar.EventInput{
		Summary:        req.Summary,
		Start:          startTime,
		End:            endTime,
		WantsVideoLink: req.AddGoogleMeet,
	})
	if err != nil {
		writeJSON(w, http.StatusOK, updateEventResponse{Error: "Error updating event: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, updateEventResponse{Event: event})
}

type deleteEventResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *APIServer) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	backend, err := s.backendFor()
	if err != nil {
		writeJSON(w, http.StatusOK, deleteEventResponse{Error: err.Error()})
		return
	}
	if backend.ReadOnly() {
		writeJSON(w, http.StatusOK, deleteEventResponse{Error: msgReadOnlyRefusal})
		return
	}

	if err := backend.DeleteEvent(r.Context(), "primary", eventID); err != nil {
		writeJSON(w, http.StatusOK, deleteEventResponse{Error: "Error deleting event: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, deleteEventResponse{Success: true})
}

// validateEmailDomain reports whether the email's domain is in the allowed
// list. A "*" entry allows all domains.
func validateEmailDomain(email string, allowed []string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	for _, d := range allowed {
		if d == "*" || strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// ParseAllowedDomains splits a comma-separated ALLOWED_EMAIL_DOMAINS value.
func ParseAllowedDomains(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			domains = append(domains, p)
		}
	}
	return domains
}
