package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/reports"
)

func (h *Handler) GetHours(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Hours.Get(r.Context(), h.Slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) PutHours(w http.ResponseWriter, r *http.Request) {
	var cfg model.BusinessHoursConfig
	if err := decodeJSON(r, &cfg); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Hours.Set(r.Context(), h.Slug, cfg); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Catalog.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

type createServiceRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Active          *bool   `json:"active"`
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || req.DurationMinutes <= 0 || req.Price < 0 {
		http.Error(w, "name, positive duration_minutes and non-negative price are required", http.StatusBadRequest)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	created, err := h.Catalog.Create(r.Context(), model.Service{
		Name:            name,
		Description:     strings.TrimSpace(req.Description),
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Active:          active,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ToggleService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.Catalog.Toggle(r.Context(), chi.URLParam(r, "serviceID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "serviceID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAppointments is the agenda of one day (?date=, default today) ordered by start.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	day := availability.DayOf(h.Now().In(h.Location))
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := availability.ParseDate(raw, h.Location)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}
	appts, err := h.Appointments.ListBetween(r.Context(), day, day.AddDate(0, 0, 1))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

type createAppointmentRequest struct {
	ServiceID   string `json:"service_id"`
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
}

type bookingResponse struct {
	Appointment model.Appointment `json:"appointment"`
	Client      model.Client      `json:"client"`
}

// CreateAppointment books manually on the professional's behalf. It bypasses the slot
// generator and starts pending unless a status is given.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.ClientName)
	phone := strings.TrimSpace(req.ClientPhone)
	if name == "" || phone == "" {
		http.Error(w, "client_name and client_phone are required", http.StatusBadRequest)
		return
	}
	status := model.StatusPending
	if req.Status != "" {
		parsed, ok := model.ParseStatus(req.Status)
		if !ok {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		status = parsed
	}
	date, err := availability.ParseDate(strings.TrimSpace(req.Date), h.Location)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	start, err := availability.SlotStart(date, strings.TrimSpace(req.Time))
	if err != nil {
		http.Error(w, "time must be HH:MM", http.StatusBadRequest)
		return
	}

	if _, err := h.Catalog.Get(r.Context(), req.ServiceID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.writeError(w, r, err)
		return
	}

	appt := model.Appointment{
		ID:          uuid.NewString(),
		ServiceID:   req.ServiceID,
		ClientName:  name,
		ClientPhone: phone,
		Start:       start,
		Status:      status,
		Slug:        h.Slug,
	}
	client, err := h.Recorder.Record(r.Context(), appt)
	h.Metrics.ObserveBooking("admin", err == nil, 0)
	if err != nil {
		h.Logger.Error("manual booking failed", "err", err)
		http.Error(w, "could not complete booking, please try again", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResponse{Appointment: appt, Client: client})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	status, ok := model.ParseStatus(req.Status)
	if !ok {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	appt, err := h.Appointments.UpdateStatus(r.Context(), chi.URLParam(r, "appointmentID"), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type calendarDay struct {
	Date         string `json:"date"`
	Slots        int    `json:"slots"`
	Appointments int    `json:"appointments"`
}

// MonthCalendar lists every day of ?month=YYYY-MM with its slot and appointment counts.
func (h *Handler) MonthCalendar(w http.ResponseWriter, r *http.Request) {
	now := h.Now().In(h.Location)
	year, month := now.Year(), now.Month()
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, h.Location)
		if err != nil {
			http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}

	cfg, err := h.Hours.Get(r.Context(), h.Slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	days := availability.MonthDays(year, month, h.Location)
	appts, err := h.Appointments.ListBetween(r.Context(), days[0], days[len(days)-1].AddDate(0, 0, 1))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	perDay := make(map[string]int, len(days))
	for _, a := range appts {
		perDay[availability.FormatDate(a.Start.In(h.Location))]++
	}

	out := make([]calendarDay, 0, len(days))
	for _, d := range days {
		key := availability.FormatDate(d)
		out = append(out, calendarDay{
			Date:         key,
			Slots:        len(availability.ComputeSlots(d, cfg, now)),
			Appointments: perDay[key],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SearchClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Clients.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	services, err := h.Catalog.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appts, err := h.Appointments.List(r.Context())
	if err != nil {
		h.writeError(w, r, fmt.Errorf("report: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, reports.Summarize(services, appts, h.Now().In(h.Location)))
}
