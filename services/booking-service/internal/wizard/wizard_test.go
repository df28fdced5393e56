package wizard

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/roster"
)

type rosterRecorder struct {
	roster *roster.Memory
	appts  []model.Appointment
	err    error
}

func (r *rosterRecorder) Record(ctx context.Context, appt model.Appointment) (model.Client, error) {
	if r.err != nil {
		return model.Client{}, r.err
	}
	r.appts = append(r.appts, appt)
	return r.roster.Upsert(ctx, appt.ClientName, appt.ClientPhone, appt.Start)
}

type bookedList []model.Appointment

func (b bookedList) ListBetween(_ context.Context, from, to time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range b {
		if !a.Start.Before(from) && a.Start.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

var catalog = []model.Service{
	{ID: "1", Name: "Manicure Gel", DurationMinutes: 60, Price: 80, Active: true},
	{ID: "2", Name: "Pedicure", DurationMinutes: 45, Price: 50, Active: true},
	{ID: "3", Name: "Old service", DurationMinutes: 30, Price: 20, Active: false},
}

func testHours() model.BusinessHoursConfig {
	cfg := model.DefaultBusinessHours()
	for i := range cfg.Days {
		if cfg.Days[i].Day == time.Tuesday {
			cfg.Days[i].Shifts = [2]model.Shift{
				{Start: "08:00", End: "12:00", Active: true},
				{Start: "13:00", End: "17:00", Active: true},
			}
		}
	}
	return cfg
}

// Monday 2025-06-09 08:00 UTC.
func fixedNow() time.Time { return time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC) }

func newTestWizard(rec Recorder, opts ...Option) *Wizard {
	base := []Option{WithClock(fixedNow), WithLocation(time.UTC), WithIDGenerator(func() string { return "appt-1" })}
	return New(catalog, testHours(), rec, append(base, opts...)...)
}

func tuesday() time.Time { return time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC) }

func TestWizard_FullFlow(t *testing.T) {
	ctx := context.Background()
	rec := &rosterRecorder{roster: roster.NewMemory(roster.ExactPhone)}
	w := newTestWizard(rec, WithSlug("bella-nails"))

	if err := w.SelectService("1"); err != nil {
		t.Fatalf("SelectService failed: %v", err)
	}
	slots, err := w.SelectDate(ctx, tuesday())
	if err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	want := []string{"08:00", "09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00"}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
	if err := w.SelectTime(ctx, "09:00"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	if err := w.Continue(); err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if err := w.SetContact("Ana Silva", "(11) 98765-4321"); err != nil {
		t.Fatalf("SetContact failed: %v", err)
	}
	appt, client, err := w.Confirm(ctx)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	if appt.ServiceID != "1" || appt.Status != model.StatusConfirmed {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if got := appt.Start.Format("2006-01-02T15:04"); got != "2025-06-10T09:00" {
		t.Fatalf("expected start 2025-06-10T09:00, got %s", got)
	}
	if appt.Slug != "bella-nails" {
		t.Fatalf("expected slug to be carried, got %q", appt.Slug)
	}
	if client.Phone != "(11) 98765-4321" || client.TotalBookings != 1 || !client.LastVisit.Equal(appt.Start) {
		t.Fatalf("unexpected client %+v", client)
	}
	if w.Step() != Completed {
		t.Fatalf("expected Completed, got %s", w.Step())
	}
	if err := w.Back(); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected Completed to be terminal, got %v", err)
	}
	if len(rec.appts) != 1 {
		t.Fatalf("expected one recorded appointment, got %d", len(rec.appts))
	}
}

func TestWizard_RepeatClientIncrementsBookings(t *testing.T) {
	ctx := context.Background()
	rec := &rosterRecorder{roster: roster.NewMemory(roster.ExactPhone)}

	var last model.Client
	for _, slot := range []string{"09:00", "14:00"} {
		w := newTestWizard(rec)
		mustReachContact(t, w, "1", slot)
		if err := w.SetContact("Ana Silva", "(11) 98765-4321"); err != nil {
			t.Fatalf("SetContact failed: %v", err)
		}
		_, c, err := w.Confirm(ctx)
		if err != nil {
			t.Fatalf("Confirm failed: %v", err)
		}
		last = c
	}
	if last.TotalBookings != 2 {
		t.Fatalf("expected 2 bookings, got %d", last.TotalBookings)
	}
	if got := last.LastVisit.Format("15:04"); got != "14:00" {
		t.Fatalf("expected last visit at 14:00, got %s", got)
	}
}

func mustReachContact(t *testing.T, w *Wizard, serviceID, slot string) {
	t.Helper()
	ctx := context.Background()
	if err := w.SelectService(serviceID); err != nil {
		t.Fatalf("SelectService failed: %v", err)
	}
	if _, err := w.SelectDate(ctx, tuesday()); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	if err := w.SelectTime(ctx, slot); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	if err := w.Continue(); err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
}

func TestWizard_EmptyCatalog(t *testing.T) {
	w := New([]model.Service{{ID: "3", Active: false}}, testHours(), nil, WithClock(fixedNow))
	if _, err := w.Services(); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
	if err := w.SelectService("3"); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
	if w.Step() != SelectingService {
		t.Fatalf("expected to stay at SelectingService, got %s", w.Step())
	}
}

func TestWizard_InactiveServiceIsNotOffered(t *testing.T) {
	w := newTestWizard(nil)
	services, err := w.Services()
	if err != nil {
		t.Fatalf("Services failed: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("expected 2 active services, got %d", len(services))
	}
	if err := w.SelectService("3"); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
}

func TestWizard_NoAvailabilityBlocksContinue(t *testing.T) {
	ctx := context.Background()
	w := newTestWizard(nil)
	if err := w.SelectService("1"); err != nil {
		t.Fatalf("SelectService failed: %v", err)
	}
	if _, err := w.SelectDate(ctx, tuesday()); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	if err := w.SelectTime(ctx, "10:00"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}

	sunday := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	slots, err := w.SelectDate(ctx, sunday)
	if !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("expected ErrNoAvailability, got %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
	if d, _ := w.Date(); !d.Equal(sunday) || w.Time() != "" || w.Step() != SelectingDateTime {
		t.Fatalf("expected the empty day selected with no time, got %v %q %s", d, w.Time(), w.Step())
	}
	if err := w.SelectTime(ctx, "10:00"); !errors.Is(err, ErrInvalidSlotSelection) {
		t.Fatalf("expected no time to be selectable on a day without slots, got %v", err)
	}
	if err := w.Continue(); !errors.Is(err, ErrInvalidSlotSelection) {
		t.Fatalf("expected Continue to be blocked, got %v", err)
	}
	if w.Step() != SelectingDateTime {
		t.Fatalf("expected to stay at SelectingDateTime, got %s", w.Step())
	}

	if _, err := w.SelectDate(ctx, tuesday()); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	if err := w.SelectTime(ctx, "11:00"); err != nil {
		t.Fatalf("SelectTime failed: %v", err)
	}
	if err := w.Continue(); err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
}

func TestWizard_SelectDateClearsTime(t *testing.T) {
	ctx := context.Background()
	w := newTestWizard(nil)
	_ = w.SelectService("1")
	_, _ = w.SelectDate(ctx, tuesday())
	_ = w.SelectTime(ctx, "10:00")

	if _, err := w.SelectDate(ctx, tuesday().AddDate(0, 0, 1)); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	if w.Time() != "" {
		t.Fatalf("expected time to be cleared, got %q", w.Time())
	}
	if err := w.Continue(); !errors.Is(err, ErrInvalidSlotSelection) {
		t.Fatalf("expected Continue without a time to fail, got %v", err)
	}
}

func TestWizard_DateWindow(t *testing.T) {
	ctx := context.Background()
	w := newTestWizard(nil)
	_ = w.SelectService("1")

	if _, err := w.SelectDate(ctx, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrOutsideWindow) {
		t.Fatalf("expected yesterday to be rejected, got %v", err)
	}
	if _, err := w.SelectDate(ctx, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrOutsideWindow) {
		t.Fatalf("expected day 8 to be rejected, got %v", err)
	}
	if len(w.Dates()) != DefaultWindowDays {
		t.Fatalf("expected %d dates, got %d", DefaultWindowDays, len(w.Dates()))
	}
}

func TestWizard_InvalidSlotSelection(t *testing.T) {
	ctx := context.Background()
	w := newTestWizard(nil)
	_ = w.SelectService("1")
	_, _ = w.SelectDate(ctx, tuesday())

	for _, slot := range []string{"12:00", "17:00", "09:30", "nine"} {
		if err := w.SelectTime(ctx, slot); !errors.Is(err, ErrInvalidSlotSelection) {
			t.Fatalf("slot %q: expected ErrInvalidSlotSelection, got %v", slot, err)
		}
	}
	if w.Time() != "" {
		t.Fatalf("expected no time to be selected, got %q", w.Time())
	}
}

func TestWizard_IncompleteContactKeepsState(t *testing.T) {
	w := newTestWizard(&rosterRecorder{roster: roster.NewMemory(roster.ExactPhone)})
	mustReachContact(t, w, "1", "09:00")

	cases := [][2]string{{"", "123"}, {"Ana", ""}, {"  ", " "}}
	for _, c := range cases {
		if err := w.SetContact(c[0], c[1]); !errors.Is(err, ErrIncompleteContact) {
			t.Fatalf("contact %q: expected ErrIncompleteContact, got %v", c, err)
		}
		if w.Step() != EnteringContact {
			t.Fatalf("expected to stay at EnteringContact, got %s", w.Step())
		}
	}
	if _, _, err := w.Confirm(context.Background()); !errors.Is(err, ErrIncompleteContact) {
		t.Fatalf("expected confirm without contact to fail, got %v", err)
	}
	if w.Step() != EnteringContact {
		t.Fatalf("expected to stay at EnteringContact, got %s", w.Step())
	}
}

func TestWizard_RejectedContactErasesPrevious(t *testing.T) {
	rec := &rosterRecorder{roster: roster.NewMemory(roster.ExactPhone)}
	w := newTestWizard(rec)
	mustReachContact(t, w, "1", "09:00")
	if err := w.SetContact("Ana", "123"); err != nil {
		t.Fatalf("SetContact failed: %v", err)
	}
	if err := w.SetContact("", " "); !errors.Is(err, ErrIncompleteContact) {
		t.Fatalf("expected ErrIncompleteContact, got %v", err)
	}
	if _, _, err := w.Confirm(context.Background()); !errors.Is(err, ErrIncompleteContact) {
		t.Fatalf("expected confirm with erased contact to fail, got %v", err)
	}
	if len(rec.appts) != 0 {
		t.Fatalf("expected nothing recorded, got %v", rec.appts)
	}
}

func TestWizard_RecorderFailure(t *testing.T) {
	rec := &rosterRecorder{err: errors.New("db down")}
	w := newTestWizard(rec)
	mustReachContact(t, w, "1", "09:00")
	_ = w.SetContact("Ana", "123")

	_, _, err := w.Confirm(context.Background())
	if !errors.Is(err, ErrBookingFailed) {
		t.Fatalf("expected ErrBookingFailed, got %v", err)
	}
	if w.Step() != EnteringContact {
		t.Fatalf("expected to stay at EnteringContact, got %s", w.Step())
	}
	if _, _, ok := w.Result(); ok {
		t.Fatal("expected no result after a failed confirm")
	}

	rec.err = nil
	rec.roster = roster.NewMemory(roster.ExactPhone)
	if _, _, err := w.Confirm(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestWizard_Back(t *testing.T) {
	ctx := context.Background()
	w := newTestWizard(nil)
	if err := w.Back(); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected Back from the first step to fail, got %v", err)
	}
	mustReachContact(t, w, "2", "10:00")
	_ = w.SetContact("Ana", "123")

	if err := w.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if w.Step() != SelectingDateTime || w.Time() != "10:00" {
		t.Fatalf("expected date/time to be kept, got %s %q", w.Step(), w.Time())
	}
	if snap := w.Snapshot(); snap.Name != "" || snap.Phone != "" {
		t.Fatalf("expected contact to be discarded, got %+v", snap)
	}

	if err := w.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if w.Step() != SelectingService {
		t.Fatalf("expected to be back at service selection, got %s", w.Step())
	}
	if svc, ok := w.Service(); !ok || svc.ID != "2" {
		t.Fatalf("expected the chosen service to be kept, got %+v %v", svc, ok)
	}
	if d, ok := w.Date(); ok || w.Time() != "" {
		t.Fatalf("expected date and time to be discarded, got %v %q", d, w.Time())
	}
	if err := w.SelectService("1"); err != nil {
		t.Fatalf("SelectService after Back failed: %v", err)
	}
	if _, err := w.SelectDate(ctx, tuesday()); err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
}

func TestWizard_ConflictCheck(t *testing.T) {
	ctx := context.Background()
	booked := bookedList{
		{ServiceID: "1", Start: tuesday().Add(9 * time.Hour), Status: model.StatusConfirmed},
		{ServiceID: "2", Start: tuesday().Add(14 * time.Hour), Status: model.StatusCancelled},
	}

	plain := newTestWizard(nil)
	_ = plain.SelectService("1")
	slots, _ := plain.SelectDate(ctx, tuesday())
	if !containsSlot(slots, "09:00") {
		t.Fatalf("expected 09:00 without conflict checking, got %v", slots)
	}

	checked := newTestWizard(nil, WithConflictCheck(booked))
	_ = checked.SelectService("1")
	slots, err := checked.SelectDate(ctx, tuesday())
	if err != nil {
		t.Fatalf("SelectDate failed: %v", err)
	}
	if containsSlot(slots, "09:00") {
		t.Fatalf("expected 09:00 to be taken, got %v", slots)
	}
	if !containsSlot(slots, "14:00") {
		t.Fatalf("expected cancelled appointment not to block 14:00, got %v", slots)
	}
	if err := checked.SelectTime(ctx, "09:00"); !errors.Is(err, ErrInvalidSlotSelection) {
		t.Fatalf("expected taken slot to be rejected, got %v", err)
	}
}

func TestWizard_SnapshotRestore(t *testing.T) {
	w := newTestWizard(nil, WithSlug("bella"))
	mustReachContact(t, w, "1", "09:00")
	_ = w.SetContact("Ana", "123")

	snap := w.Snapshot()
	if snap.Step != "entering_contact" || snap.Date != "2025-06-10" || snap.ServiceID != "1" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	rec := &rosterRecorder{roster: roster.NewMemory(roster.ExactPhone)}
	restored := newTestWizard(rec)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	appt, _, err := restored.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm after restore failed: %v", err)
	}
	if appt.Slug != "bella" || appt.Start.Format("2006-01-02T15:04") != "2025-06-10T09:00" {
		t.Fatalf("unexpected appointment %+v", appt)
	}

	gone := New(catalog[1:], testHours(), nil, WithClock(fixedNow), WithLocation(time.UTC))
	if err := gone.Restore(snap); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}

	// Back on the service step, a choice that left the catalog is simply dropped.
	if err := w.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	if err := w.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	atService := w.Snapshot()
	if atService.ServiceID != "1" {
		t.Fatalf("expected service kept in snapshot, got %+v", atService)
	}
	fresh := New(catalog[1:], testHours(), nil, WithClock(fixedNow), WithLocation(time.UTC))
	if err := fresh.Restore(atService); err != nil {
		t.Fatalf("Restore at service step failed: %v", err)
	}
	if _, ok := fresh.Service(); ok || fresh.Step() != SelectingService {
		t.Fatalf("expected no service at %s", fresh.Step())
	}
}

func containsSlot(slots []string, s string) bool {
	for _, v := range slots {
		if v == s {
			return true
		}
	}
	return false
}
