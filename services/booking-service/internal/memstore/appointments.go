package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/roster"
)

type Appointments struct {
	mu    sync.RWMutex
	items []model.Appointment
}

func NewAppointments() *Appointments {
	return &Appointments{}
}

func (a *Appointments) Create(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, appt)
	return appt, nil
}

func (a *Appointments) remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.items {
		if a.items[i].ID == id {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return
		}
	}
}

// ListBetween returns appointments starting in [from, to) ordered by start.
func (a *Appointments) ListBetween(_ context.Context, from, to time.Time) ([]model.Appointment, error) {
	a.mu.RLock()
	out := make([]model.Appointment, 0)
	for _, appt := range a.items {
		if !appt.Start.Before(from) && appt.Start.Before(to) {
			out = append(out, appt)
		}
	}
	a.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (a *Appointments) List(_ context.Context) ([]model.Appointment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]model.Appointment(nil), a.items...), nil
}

func (a *Appointments) UpdateStatus(_ context.Context, id string, status model.Status) (model.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.items {
		if a.items[i].ID == id {
			a.items[i].Status = status
			return a.items[i], nil
		}
	}
	return model.Appointment{}, ErrNotFound
}

// Recorder stores a booking and then upserts its client under one lock. A failed upsert removes
// the appointment again, so neither write survives without the other.
type Recorder struct {
	mu      sync.Mutex
	appts   *Appointments
	clients *roster.Memory
}

func NewRecorder(appts *Appointments, clients *roster.Memory) *Recorder {
	return &Recorder{appts: appts, clients: clients}
}

func (r *Recorder) Record(ctx context.Context, appt model.Appointment) (model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created, err := r.appts.Create(ctx, appt)
	if err != nil {
		return model.Client{}, err
	}
	client, err := r.clients.Upsert(ctx, appt.ClientName, appt.ClientPhone, appt.Start)
	if err != nil {
		r.appts.remove(created.ID)
		return model.Client{}, err
	}
	return client, nil
}
