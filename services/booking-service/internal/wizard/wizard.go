// Package wizard drives one client's booking from service choice to a confirmed appointment.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

type Step int

const (
	SelectingService Step = iota
	SelectingDateTime
	EnteringContact
	Completed
)

func (s Step) String() string {
	switch s {
	case SelectingService:
		return "selecting_service"
	case SelectingDateTime:
		return "selecting_date_time"
	case EnteringContact:
		return "entering_contact"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func ParseStep(s string) (Step, bool) {
	for st := SelectingService; st <= Completed; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// Recorder persists a confirmed appointment and upserts its client as one unit.
type Recorder interface {
	Record(ctx context.Context, appt model.Appointment) (model.Client, error)
}

// BookedLister feeds the optional conflict check with appointments already on the books.
type BookedLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

type Option func(*Wizard)

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(w *Wizard) {
		if loc != nil {
			w.loc = loc
		}
	}
}

func WithWindowDays(days int) Option {
	return func(w *Wizard) {
		if days > 0 {
			w.windowDays = days
		}
	}
}

// WithConflictCheck hides slots that overlap appointments returned by booked.
func WithConflictCheck(booked BookedLister) Option {
	return func(w *Wizard) { w.booked = booked }
}

func WithSlug(slug string) Option {
	return func(w *Wizard) { w.slug = slug }
}

func WithIDGenerator(newID func() string) Option {
	return func(w *Wizard) { w.newID = newID }
}

const DefaultWindowDays = 7

type Wizard struct {
	catalog  []model.Service
	active   []model.Service
	hours    model.BusinessHoursConfig
	recorder Recorder

	now        func() time.Time
	loc        *time.Location
	windowDays int
	booked     BookedLister
	slug       string
	newID      func() string

	step    Step
	service *model.Service
	date    time.Time
	slot    string
	name    string
	phone   string

	appointment *model.Appointment
	client      *model.Client
}

// New starts a wizard over the given catalog. Inactive services are never offered.
func New(catalog []model.Service, hours model.BusinessHoursConfig, recorder Recorder, opts ...Option) *Wizard {
	w := &Wizard{
		catalog:    catalog,
		hours:      hours,
		recorder:   recorder,
		now:        time.Now,
		loc:        time.Local,
		windowDays: DefaultWindowDays,
		newID:      uuid.NewString,
	}
	for _, s := range catalog {
		if s.Active {
			w.active = append(w.active, s)
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Slug() string { return w.slug }

// Services lists what can be chosen at SelectingService.
func (w *Wizard) Services() ([]model.Service, error) {
	if len(w.active) == 0 {
		return nil, ErrEmptyCatalog
	}
	return w.active, nil
}

// Dates lists the days a client may pick from.
func (w *Wizard) Dates() []time.Time {
	return availability.BookingDates(w.now(), w.windowDays, w.loc)
}

func (w *Wizard) SelectService(id string) error {
	if w.step != SelectingService {
		return ErrWrongStep
	}
	if len(w.active) == 0 {
		return ErrEmptyCatalog
	}
	for i := range w.active {
		if w.active[i].ID == id {
			svc := w.active[i]
			w.service = &svc
			w.step = SelectingDateTime
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownService, id)
}

// SelectDate picks a day, clears the chosen time and returns the day's slots. A day without
// slots is still selected so Continue stays blocked until another day and a time are picked.
func (w *Wizard) SelectDate(ctx context.Context, date time.Time) ([]string, error) {
	if w.step != SelectingDateTime {
		return nil, ErrWrongStep
	}
	day := availability.DayOf(date.In(w.loc))
	if !availability.InWindow(day, w.now(), w.windowDays, w.loc) {
		return nil, ErrOutsideWindow
	}
	slots, err := w.slotsFor(ctx, day)
	if err != nil {
		return nil, err
	}
	w.date = day
	w.slot = ""
	if len(slots) == 0 {
		return slots, ErrNoAvailability
	}
	return slots, nil
}

// Slots recomputes the slots of the selected date.
func (w *Wizard) Slots(ctx context.Context) ([]string, error) {
	if w.date.IsZero() {
		return []string{}, nil
	}
	return w.slotsFor(ctx, w.date)
}

func (w *Wizard) slotsFor(ctx context.Context, day time.Time) ([]string, error) {
	slots := availability.ComputeSlots(day, w.hours, w.now().In(w.loc))
	if w.booked == nil || len(slots) == 0 || w.service == nil {
		return slots, nil
	}
	appts, err := w.booked.ListBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("wizard: list booked: %w", err)
	}
	durations := make(map[string]time.Duration, len(w.catalog))
	for _, s := range w.catalog {
		durations[s.ID] = s.Duration()
	}
	busy := availability.BusyIntervals(appts, durations, w.service.Duration())
	return availability.ExcludeBooked(day, slots, w.service.Duration(), busy), nil
}

func (w *Wizard) SelectTime(ctx context.Context, slot string) error {
	if w.step != SelectingDateTime {
		return ErrWrongStep
	}
	if w.date.IsZero() {
		return ErrInvalidSlotSelection
	}
	slots, err := w.slotsFor(ctx, w.date)
	if err != nil {
		return err
	}
	if !availability.Contains(slots, slot) {
		return fmt.Errorf("%w: %s", ErrInvalidSlotSelection, slot)
	}
	w.slot = slot
	return nil
}

// Continue moves from date/time selection to contact entry once both are chosen.
func (w *Wizard) Continue() error {
	if w.step != SelectingDateTime {
		return ErrWrongStep
	}
	if w.date.IsZero() || w.slot == "" {
		return ErrInvalidSlotSelection
	}
	w.step = EnteringContact
	return nil
}

// SetContact replaces the contact details. A rejected submission clears the previous ones, so
// Confirm never books under details the client has since erased.
func (w *Wizard) SetContact(name, phone string) error {
	if w.step != EnteringContact {
		return ErrWrongStep
	}
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		w.name = ""
		w.phone = ""
		return ErrIncompleteContact
	}
	w.name = name
	w.phone = phone
	return nil
}

// Confirm records the appointment as confirmed. On a recorder failure the wizard stays at
// EnteringContact so the client can retry.
func (w *Wizard) Confirm(ctx context.Context) (model.Appointment, model.Client, error) {
	if w.step != EnteringContact {
		return model.Appointment{}, model.Client{}, ErrWrongStep
	}
	if w.name == "" || w.phone == "" {
		return model.Appointment{}, model.Client{}, ErrIncompleteContact
	}
	if w.booked != nil {
		slots, err := w.slotsFor(ctx, w.date)
		if err != nil {
			return model.Appointment{}, model.Client{}, fmt.Errorf("%w: %w", ErrBookingFailed, err)
		}
		if !availability.Contains(slots, w.slot) {
			return model.Appointment{}, model.Client{}, fmt.Errorf("%w: %s", ErrInvalidSlotSelection, w.slot)
		}
	}
	start, err := availability.SlotStart(w.date, w.slot)
	if err != nil {
		return model.Appointment{}, model.Client{}, fmt.Errorf("%w: %w", ErrInvalidSlotSelection, err)
	}

	appt := model.Appointment{
		ID:          w.newID(),
		ServiceID:   w.service.ID,
		ClientName:  w.name,
		ClientPhone: w.phone,
		Start:       start,
		Status:      model.StatusConfirmed,
		Slug:        w.slug,
	}
	client, err := w.recorder.Record(ctx, appt)
	if err != nil {
		return model.Appointment{}, model.Client{}, fmt.Errorf("%w: %w", ErrBookingFailed, err)
	}
	w.appointment = &appt
	w.client = &client
	w.step = Completed
	return appt, client, nil
}

// Back returns to the previous step and drops the selections of the step being left. The
// service stays chosen on the way back so the service step can show it.
func (w *Wizard) Back() error {
	switch w.step {
	case SelectingDateTime:
		w.date = time.Time{}
		w.slot = ""
		w.step = SelectingService
	case EnteringContact:
		w.name = ""
		w.phone = ""
		w.step = SelectingDateTime
	default:
		return ErrWrongStep
	}
	return nil
}

func (w *Wizard) Service() (model.Service, bool) {
	if w.service == nil {
		return model.Service{}, false
	}
	return *w.service, true
}

func (w *Wizard) Date() (time.Time, bool) { return w.date, !w.date.IsZero() }

func (w *Wizard) Time() string { return w.slot }

func (w *Wizard) Result() (model.Appointment, model.Client, bool) {
	if w.appointment == nil || w.client == nil {
		return model.Appointment{}, model.Client{}, false
	}
	return *w.appointment, *w.client, true
}
