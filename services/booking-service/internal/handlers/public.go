package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/wizard"
)

func (h *Handler) PublicServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Catalog.Active(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(services) == 0 {
		h.writeError(w, r, wizard.ErrEmptyCatalog)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// PublicSlots returns the generator output for ?date=. With conflict checking on and a
// ?service_id= given, slots overlapping existing appointments are removed.
func (h *Handler) PublicSlots(w http.ResponseWriter, r *http.Request) {
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	date, err := availability.ParseDate(dateStr, h.Location)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	cfg, err := h.Hours.Get(r.Context(), h.Slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	slots := availability.ComputeSlots(date, cfg, h.Now().In(h.Location))

	if serviceID := r.URL.Query().Get("service_id"); h.ConflictCheck && serviceID != "" && len(slots) > 0 {
		slots, err = h.excludeBooked(r.Context(), date, serviceID, slots)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.Metrics.ObserveSlots(len(slots))
	writeJSON(w, http.StatusOK, slotsResponse{Date: availability.FormatDate(date), Slots: slots})
}

func (h *Handler) excludeBooked(ctx context.Context, date time.Time, serviceID string, slots []string) ([]string, error) {
	services, err := h.Catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	durations := make(map[string]time.Duration, len(services))
	for _, s := range services {
		durations[s.ID] = s.Duration()
	}
	duration, ok := durations[serviceID]
	if !ok {
		return nil, wizard.ErrUnknownService
	}
	appts, err := h.Appointments.ListBetween(ctx, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	busy := availability.BusyIntervals(appts, durations, duration)
	return availability.ExcludeBooked(date, slots, duration, busy), nil
}

func (h *Handler) PublicDates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formatDates(availability.BookingDates(h.Now(), h.WindowDays, h.Location)))
}

func formatDates(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, availability.FormatDate(d))
	}
	return out
}

type startSessionRequest struct {
	Slug string `json:"slug"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = h.Slug
	}
	wz, err := h.loadWizard(r.Context(), wizard.Snapshot{Step: wizard.SelectingService.String(), Slug: slug})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.Sessions.Create(r.Context(), wz.Snapshot())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.view(r.Context(), id, wz)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) loadWizard(ctx context.Context, snap wizard.Snapshot) (*wizard.Wizard, error) {
	services, err := h.Catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := h.Hours.Get(ctx, h.Slug)
	if err != nil {
		return nil, err
	}
	opts := []wizard.Option{
		wizard.WithClock(h.Now),
		wizard.WithLocation(h.Location),
		wizard.WithWindowDays(h.WindowDays),
		wizard.WithSlug(snap.Slug),
	}
	if h.ConflictCheck {
		opts = append(opts, wizard.WithConflictCheck(h.Appointments))
	}
	wz := wizard.New(services, cfg, h.Recorder, opts...)
	if err := wz.Restore(snap); err != nil {
		return nil, err
	}
	return wz, nil
}

type sessionView struct {
	ID          string             `json:"id"`
	Step        string             `json:"step"`
	Slug        string             `json:"slug,omitempty"`
	Services    []model.Service    `json:"services,omitempty"`
	Service     *model.Service     `json:"service,omitempty"`
	Dates       []string           `json:"dates,omitempty"`
	Date        string             `json:"date,omitempty"`
	Slots       []string           `json:"slots,omitempty"`
	Time        string             `json:"time,omitempty"`
	Name        string             `json:"name,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Appointment *model.Appointment `json:"appointment,omitempty"`
	Client      *model.Client      `json:"client,omitempty"`
}

func (h *Handler) view(ctx context.Context, id string, wz *wizard.Wizard) (sessionView, error) {
	snap := wz.Snapshot()
	v := sessionView{
		ID:          id,
		Step:        snap.Step,
		Slug:        snap.Slug,
		Date:        snap.Date,
		Time:        snap.Time,
		Name:        snap.Name,
		Phone:       snap.Phone,
		Appointment: snap.Appointment,
		Client:      snap.Client,
	}
	if svc, ok := wz.Service(); ok {
		v.Service = &svc
	}
	switch wz.Step() {
	case wizard.SelectingService:
		// An empty catalog renders as a step with no services to offer.
		v.Services, _ = wz.Services()
	case wizard.SelectingDateTime:
		v.Dates = formatDates(wz.Dates())
		slots, err := wz.Slots(ctx)
		if err != nil {
			return sessionView{}, err
		}
		v.Slots = slots
	}
	return v, nil
}

type sessionAction func(r *http.Request, wz *wizard.Wizard) error

// sessionStep loads the session, applies action and saves the new snapshot. Rejected actions
// leave the stored snapshot untouched unless the rejection itself moved the wizard.
func (h *Handler) sessionStep(action sessionAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "sessionID")
		snap, err := h.Sessions.Get(ctx, id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		wz, err := h.loadWizard(ctx, snap)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if action != nil {
			if err := action(r, wz); err != nil {
				if rejectionChangesState(err) {
					if saveErr := h.Sessions.Save(ctx, id, wz.Snapshot()); saveErr != nil {
						err = saveErr
					}
				}
				h.writeError(w, r, err)
				return
			}
			if err := h.Sessions.Save(ctx, id, wz.Snapshot()); err != nil {
				if wz.Step() != wizard.Completed {
					h.writeError(w, r, err)
					return
				}
				h.Logger.Warn("session save after booking failed", "session_id", id, "err", err)
			}
		}
		view, err := h.view(ctx, id, wz)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// rejectionChangesState reports errors returned after the wizard already updated its state:
// a date without slots is still selected and an empty contact erases the previous one.
func rejectionChangesState(err error) bool {
	return errors.Is(err, wizard.ErrNoAvailability) || errors.Is(err, wizard.ErrIncompleteContact)
}

type selectServiceRequest struct {
	ServiceID string `json:"service_id"`
}

func (h *Handler) selectService(r *http.Request, wz *wizard.Wizard) error {
	var req selectServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	return wz.SelectService(strings.TrimSpace(req.ServiceID))
}

type selectDateRequest struct {
	Date string `json:"date"`
}

func (h *Handler) selectDate(r *http.Request, wz *wizard.Wizard) error {
	var req selectDateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	date, err := availability.ParseDate(strings.TrimSpace(req.Date), h.Location)
	if err != nil {
		return badRequest("date must be YYYY-MM-DD")
	}
	slots, err := wz.SelectDate(r.Context(), date)
	if err == nil || errors.Is(err, wizard.ErrNoAvailability) {
		h.Metrics.ObserveSlots(len(slots))
	}
	return err
}

type selectTimeRequest struct {
	Time string `json:"time"`
}

func (h *Handler) selectTime(r *http.Request, wz *wizard.Wizard) error {
	var req selectTimeRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	return wz.SelectTime(r.Context(), strings.TrimSpace(req.Time))
}

type contactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *Handler) setContact(r *http.Request, wz *wizard.Wizard) error {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	return wz.SetContact(req.Name, req.Phone)
}

func (h *Handler) confirm(r *http.Request, wz *wizard.Wizard) error {
	started := time.Now()
	appt, _, err := wz.Confirm(r.Context())
	if err == nil || errors.Is(err, wizard.ErrBookingFailed) {
		h.Metrics.ObserveBooking("public", err == nil, time.Since(started).Seconds())
	}
	if err == nil {
		h.Logger.Info("booking confirmed", "appointment_id", appt.ID, "service_id", appt.ServiceID, "start", appt.Start, "slug", appt.Slug)
	}
	return err
}
