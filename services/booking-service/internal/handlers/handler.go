package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/bellabook/libs/httpx"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/session"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/wizard"
)

type Catalog interface {
	Create(ctx context.Context, s model.Service) (model.Service, error)
	List(ctx context.Context) ([]model.Service, error)
	Active(ctx context.Context) ([]model.Service, error)
	Get(ctx context.Context, id string) (model.Service, error)
	Toggle(ctx context.Context, id string) (model.Service, error)
	Delete(ctx context.Context, id string) error
}

type Appointments interface {
	List(ctx context.Context) ([]model.Appointment, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (model.Appointment, error)
}

type Clients interface {
	Search(ctx context.Context, q string) ([]model.Client, error)
}

type Deps struct {
	Catalog      Catalog
	Appointments Appointments
	Clients      Clients
	Recorder     wizard.Recorder
	Hours        hours.Store
	Sessions     session.Store
	Metrics      *metrics.BookingMetrics
	Logger       *slog.Logger

	// Slug names the professional whose hours drive availability.
	Slug          string
	Location      *time.Location
	WindowDays    int
	ConflictCheck bool
	Now           func() time.Time

	// PublicMiddleware wraps only the unauthenticated booking routes, e.g. rate limiting.
	PublicMiddleware []func(http.Handler) http.Handler
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.WindowDays <= 0 {
		d.WindowDays = wizard.DefaultWindowDays
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{Deps: d}
}

// Routes mounts the public booking flow and the professional's admin API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1/public", func(public chi.Router) {
		public.Use(h.PublicMiddleware...)
		public.Get("/services", h.PublicServices)
		public.Get("/slots", h.PublicSlots)
		public.Get("/dates", h.PublicDates)
		public.Post("/sessions", h.StartSession)
		public.Route("/sessions/{sessionID}", func(s chi.Router) {
			s.Get("/", h.sessionStep(nil))
			s.Post("/service", h.sessionStep(h.selectService))
			s.Post("/date", h.sessionStep(h.selectDate))
			s.Post("/time", h.sessionStep(h.selectTime))
			s.Post("/continue", h.sessionStep(func(_ *http.Request, wz *wizard.Wizard) error { return wz.Continue() }))
			s.Post("/contact", h.sessionStep(h.setContact))
			s.Post("/back", h.sessionStep(func(_ *http.Request, wz *wizard.Wizard) error { return wz.Back() }))
			s.Post("/confirm", h.sessionStep(h.confirm))
		})
	})

	r.Route("/api/v1/business", func(admin chi.Router) {
		admin.Get("/hours", h.GetHours)
		admin.Put("/hours", h.PutHours)
		admin.Get("/services", h.ListServices)
		admin.Post("/services", h.CreateService)
		admin.Post("/services/{serviceID}/toggle", h.ToggleService)
		admin.Delete("/services/{serviceID}", h.DeleteService)
		admin.Get("/appointments", h.ListAppointments)
		admin.Post("/appointments", h.CreateAppointment)
		admin.Put("/appointments/{appointmentID}/status", h.UpdateAppointmentStatus)
		admin.Get("/calendar", h.MonthCalendar)
		admin.Get("/clients", h.SearchClients)
		admin.Get("/reports/summary", h.ReportSummary)
	})

	return r
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid json body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps domain errors to status codes. Wizard rejections are counted by reason.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		http.Error(w, br.Error(), http.StatusBadRequest)
	case errors.Is(err, wizard.ErrEmptyCatalog):
		h.Metrics.ObserveRejection("empty_catalog")
		http.Error(w, wizard.ErrEmptyCatalog.Error(), http.StatusConflict)
	case errors.Is(err, wizard.ErrNoAvailability):
		h.Metrics.ObserveRejection("no_availability")
		http.Error(w, wizard.ErrNoAvailability.Error(), http.StatusConflict)
	case errors.Is(err, wizard.ErrIncompleteContact):
		h.Metrics.ObserveRejection("incomplete_contact")
		http.Error(w, wizard.ErrIncompleteContact.Error(), http.StatusBadRequest)
	case errors.Is(err, wizard.ErrInvalidSlotSelection):
		h.Metrics.ObserveRejection("invalid_slot")
		http.Error(w, wizard.ErrInvalidSlotSelection.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrOutsideWindow):
		h.Metrics.ObserveRejection("outside_window")
		http.Error(w, wizard.ErrOutsideWindow.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrUnknownService):
		h.Metrics.ObserveRejection("unknown_service")
		http.Error(w, wizard.ErrUnknownService.Error(), http.StatusNotFound)
	case errors.Is(err, wizard.ErrWrongStep):
		h.Metrics.ObserveRejection("wrong_step")
		http.Error(w, wizard.ErrWrongStep.Error(), http.StatusConflict)
	case errors.Is(err, wizard.ErrBookingFailed):
		h.Logger.Error("booking failed", "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, wizard.ErrBookingFailed.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, model.ErrInvalidInterval), errors.Is(err, model.ErrDuplicateWeekday),
		errors.Is(err, model.ErrMissingWeekday), errors.Is(err, model.ErrInvalidClock):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.Logger.Error("request failed", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
