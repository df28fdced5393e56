package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/hours"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/memstore"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/reports"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/roster"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/session"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/wizard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server  *httptest.Server
	catalog *memstore.Catalog
	appts   *memstore.Appointments
	clients *roster.Memory
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, model.Appointment) (model.Client, error) {
	return model.Client{}, errors.New("db down")
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		catalog: memstore.NewCatalog(model.Service{ID: "1", Name: "Manicure Gel", DurationMinutes: 60, Price: 80, Active: true}),
		appts:   memstore.NewAppointments(),
		clients: roster.NewMemory(roster.ExactPhone),
	}
	d := Deps{
		Catalog:      f.catalog,
		Appointments: f.appts,
		Clients:      f.clients,
		Recorder:     memstore.NewRecorder(f.appts, f.clients),
		Hours:        hours.NewMemoryStore(),
		Sessions:     session.NewMemoryStore(time.Hour),
		Metrics:      metrics.NewBookingMetrics(prometheus.NewRegistry()),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Slug:         "bella",
		Location:     time.UTC,
		Now:          func() time.Time { return time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&d)
	}
	f.server = httptest.NewServer(New(d).Routes())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *fixture) startSession(t *testing.T) sessionView {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/v1/public/sessions", map[string]string{"slug": "bella-nails"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var v sessionView
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func (f *fixture) step(t *testing.T, id, action string, body any, wantStatus int) sessionView {
	t.Helper()
	resp, out := f.do(t, http.MethodPost, "/api/v1/public/sessions/"+id+"/"+action, body)
	require.Equal(t, wantStatus, resp.StatusCode, string(out))
	var v sessionView
	if wantStatus == http.StatusOK {
		require.NoError(t, json.Unmarshal(out, &v))
	}
	return v
}

func TestPublicBookingFlow(t *testing.T) {
	f := newFixture(t, nil)

	v := f.startSession(t)
	assert.Equal(t, "selecting_service", v.Step)
	assert.Equal(t, "bella-nails", v.Slug)
	require.Len(t, v.Services, 1)

	v = f.step(t, v.ID, "service", map[string]string{"service_id": "1"}, http.StatusOK)
	assert.Equal(t, "selecting_date_time", v.Step)
	assert.Len(t, v.Dates, 7)

	v = f.step(t, v.ID, "date", map[string]string{"date": "2025-06-10"}, http.StatusOK)
	assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}, v.Slots)

	f.step(t, v.ID, "time", map[string]string{"time": "09:30"}, http.StatusUnprocessableEntity)
	f.step(t, v.ID, "time", map[string]string{"time": "09:00"}, http.StatusOK)
	v = f.step(t, v.ID, "continue", nil, http.StatusOK)
	assert.Equal(t, "entering_contact", v.Step)

	f.step(t, v.ID, "contact", map[string]string{"name": "", "phone": "(11) 98765-4321"}, http.StatusBadRequest)
	f.step(t, v.ID, "confirm", nil, http.StatusBadRequest)
	f.step(t, v.ID, "contact", map[string]string{"name": "Ana Silva", "phone": "(11) 98765-4321"}, http.StatusOK)

	v = f.step(t, v.ID, "confirm", nil, http.StatusOK)
	assert.Equal(t, "completed", v.Step)
	require.NotNil(t, v.Appointment)
	assert.Equal(t, "1", v.Appointment.ServiceID)
	assert.Equal(t, model.StatusConfirmed, v.Appointment.Status)
	assert.Equal(t, "2025-06-10T09:00", v.Appointment.Start.Format("2006-01-02T15:04"))
	assert.Equal(t, "bella-nails", v.Appointment.Slug)
	require.NotNil(t, v.Client)
	assert.Equal(t, 1, v.Client.TotalBookings)

	f.step(t, v.ID, "confirm", nil, http.StatusConflict)

	resp, body := f.do(t, http.MethodGet, "/api/v1/business/clients?q=silva", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var clients []model.Client
	require.NoError(t, json.Unmarshal(body, &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "(11) 98765-4321", clients[0].Phone)

	resp, body = f.do(t, http.MethodGet, "/api/v1/business/appointments?date=2025-06-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var agenda []model.Appointment
	require.NoError(t, json.Unmarshal(body, &agenda))
	assert.Len(t, agenda, 1)
}

func TestPublicFlow_NoAvailabilityAndBack(t *testing.T) {
	f := newFixture(t, nil)
	v := f.startSession(t)
	f.step(t, v.ID, "service", map[string]string{"service_id": "1"}, http.StatusOK)
	f.step(t, v.ID, "date", map[string]string{"date": "2025-06-10"}, http.StatusOK)
	f.step(t, v.ID, "time", map[string]string{"time": "09:00"}, http.StatusOK)

	f.step(t, v.ID, "date", map[string]string{"date": "2025-06-15"}, http.StatusConflict)
	f.step(t, v.ID, "date", map[string]string{"date": "2025-07-01"}, http.StatusUnprocessableEntity)
	f.step(t, v.ID, "date", map[string]string{"date": "June 10"}, http.StatusBadRequest)

	resp, body := f.do(t, http.MethodGet, "/api/v1/public/sessions/"+v.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got sessionView
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "selecting_date_time", got.Step)
	assert.Equal(t, "2025-06-15", got.Date)
	assert.Empty(t, got.Time)
	assert.Empty(t, got.Slots)

	f.step(t, v.ID, "continue", nil, http.StatusUnprocessableEntity)

	back := f.step(t, v.ID, "back", nil, http.StatusOK)
	assert.Equal(t, "selecting_service", back.Step)
	require.NotNil(t, back.Service)
	assert.Equal(t, "1", back.Service.ID)
	assert.Empty(t, back.Date)
	f.step(t, v.ID, "back", nil, http.StatusConflict)
}

func TestPublicFlow_ClearedContactBlocksConfirm(t *testing.T) {
	f := newFixture(t, nil)
	v := f.startSession(t)
	f.step(t, v.ID, "service", map[string]string{"service_id": "1"}, http.StatusOK)
	f.step(t, v.ID, "date", map[string]string{"date": "2025-06-10"}, http.StatusOK)
	f.step(t, v.ID, "time", map[string]string{"time": "09:00"}, http.StatusOK)
	f.step(t, v.ID, "continue", nil, http.StatusOK)
	f.step(t, v.ID, "contact", map[string]string{"name": "Ana", "phone": "123"}, http.StatusOK)

	f.step(t, v.ID, "contact", map[string]string{"name": " ", "phone": ""}, http.StatusBadRequest)
	f.step(t, v.ID, "confirm", nil, http.StatusBadRequest)

	all, err := f.appts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPublicFlow_RecorderFailure(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Recorder = failingRecorder{} })
	v := f.startSession(t)
	f.step(t, v.ID, "service", map[string]string{"service_id": "1"}, http.StatusOK)
	f.step(t, v.ID, "date", map[string]string{"date": "2025-06-10"}, http.StatusOK)
	f.step(t, v.ID, "time", map[string]string{"time": "10:00"}, http.StatusOK)
	f.step(t, v.ID, "continue", nil, http.StatusOK)
	f.step(t, v.ID, "contact", map[string]string{"name": "Ana", "phone": "123"}, http.StatusOK)

	resp, body := f.do(t, http.MethodPost, "/api/v1/public/sessions/"+v.ID+"/confirm", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "could not complete booking, please try again")

	resp, body = f.do(t, http.MethodGet, "/api/v1/public/sessions/"+v.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got sessionView
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "entering_contact", got.Step)
	assert.Equal(t, "Ana", got.Name)
}

func TestPublicFlow_ConflictCheck(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.ConflictCheck = true })
	_, err := f.appts.Create(context.Background(), model.Appointment{
		ServiceID: "1",
		Start:     time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		Status:    model.StatusConfirmed,
	})
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodGet, "/api/v1/public/slots?date=2025-06-10&service_id=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots slotsResponse
	require.NoError(t, json.Unmarshal(body, &slots))
	assert.NotContains(t, slots.Slots, "09:00")
	assert.Contains(t, slots.Slots, "10:00")

	resp, body = f.do(t, http.MethodGet, "/api/v1/public/slots?date=2025-06-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &slots))
	assert.Contains(t, slots.Slots, "09:00")
}

func TestPublicServices_EmptyCatalog(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Catalog = memstore.NewCatalog() })
	resp, body := f.do(t, http.MethodGet, "/api/v1/public/services", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), wizard.ErrEmptyCatalog.Error())

	v := f.startSession(t)
	assert.Empty(t, v.Services)
	f.step(t, v.ID, "service", map[string]string{"service_id": "1"}, http.StatusConflict)
}

func TestPublicDatesAndUnknownSession(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodGet, "/api/v1/public/dates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dates []string
	require.NoError(t, json.Unmarshal(body, &dates))
	assert.Equal(t, []string{"2025-06-09", "2025-06-10", "2025-06-11", "2025-06-12", "2025-06-13", "2025-06-14", "2025-06-15"}, dates)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/public/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/public/slots?date=bad", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminServices(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.do(t, http.MethodPost, "/api/v1/business/services", map[string]any{"name": "Pedicure", "duration_minutes": 45, "price": 50})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created model.Service
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.Active)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/business/services", map[string]any{"name": "", "duration_minutes": 45})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/api/v1/business/services/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled model.Service
	require.NoError(t, json.Unmarshal(body, &toggled))
	assert.False(t, toggled.Active)

	resp, body = f.do(t, http.MethodGet, "/api/v1/public/services", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var active []model.Service
	require.NoError(t, json.Unmarshal(body, &active))
	assert.Len(t, active, 1)

	resp, _ = f.do(t, http.MethodDelete, "/api/v1/business/services/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodDelete, "/api/v1/business/services/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminManualBookingAndStatus(t *testing.T) {
	f := newFixture(t, nil)

	req := map[string]string{"service_id": "1", "client_name": "Bia", "client_phone": "555", "date": "2025-06-15", "time": "19:30"}
	resp, body := f.do(t, http.MethodPost, "/api/v1/business/appointments", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var booked bookingResponse
	require.NoError(t, json.Unmarshal(body, &booked))
	assert.Equal(t, model.StatusPending, booked.Appointment.Status)
	assert.Equal(t, 1, booked.Client.TotalBookings)

	resp, body = f.do(t, http.MethodPut, "/api/v1/business/appointments/"+booked.Appointment.ID+"/status", map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated model.Appointment
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, model.StatusConfirmed, updated.Status)

	resp, _ = f.do(t, http.MethodPut, "/api/v1/business/appointments/"+booked.Appointment.ID+"/status", map[string]string{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPut, "/api/v1/business/appointments/missing/status", map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req["service_id"] = "nope"
	resp, _ = f.do(t, http.MethodPost, "/api/v1/business/appointments", req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/api/v1/business/reports/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum reports.Summary
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, 80.0, sum.Revenue)
	assert.Equal(t, 1, sum.Confirmed)
}

func TestAdminHours(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.do(t, http.MethodGet, "/api/v1/business/hours", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg model.BusinessHoursConfig
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, 60, cfg.SlotIntervalMinutes)

	cfg.SlotIntervalMinutes = 30
	resp, body = f.do(t, http.MethodPut, "/api/v1/business/hours", cfg)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.do(t, http.MethodGet, "/api/v1/public/slots?date=2025-06-14", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots slotsResponse
	require.NoError(t, json.Unmarshal(body, &slots))
	assert.Equal(t, []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, slots.Slots)

	cfg.SlotIntervalMinutes = 0
	resp, _ = f.do(t, http.MethodPut, "/api/v1/business/hours", cfg)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminCalendar(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodGet, "/api/v1/business/calendar?month=2025-07", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var days []calendarDay
	require.NoError(t, json.Unmarshal(body, &days))
	require.Len(t, days, 31)
	assert.Equal(t, "2025-07-01", days[0].Date)
	assert.Equal(t, 9, days[0].Slots, "2025-07-01 is a Tuesday")
	assert.Equal(t, 0, days[5].Slots, "2025-07-06 is a Sunday")

	resp, body = f.do(t, http.MethodGet, "/api/v1/business/calendar?month=2025-06", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &days))
	assert.Equal(t, 0, days[1].Slots, "days before today have no slots")

	resp, _ = f.do(t, http.MethodGet, "/api/v1/business/calendar?month=june", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
