package wizard

import (
	"fmt"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

// Snapshot is the serializable progress of a wizard, kept between HTTP requests.
type Snapshot struct {
	Step        string             `json:"step"`
	Slug        string             `json:"slug,omitempty"`
	ServiceID   string             `json:"service_id,omitempty"`
	Date        string             `json:"date,omitempty"`
	Time        string             `json:"time,omitempty"`
	Name        string             `json:"name,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	Appointment *model.Appointment `json:"appointment,omitempty"`
	Client      *model.Client      `json:"client,omitempty"`
}

func (w *Wizard) Snapshot() Snapshot {
	s := Snapshot{
		Step:        w.step.String(),
		Slug:        w.slug,
		Time:        w.slot,
		Name:        w.name,
		Phone:       w.phone,
		Appointment: w.appointment,
		Client:      w.client,
	}
	if w.service != nil {
		s.ServiceID = w.service.ID
	}
	if !w.date.IsZero() {
		s.Date = availability.FormatDate(w.date)
	}
	return s
}

// Restore loads a snapshot into a freshly built wizard. Past the service step the chosen service
// must still be active in the catalog the wizard was built with; on the service step a stale
// choice is dropped.
func (w *Wizard) Restore(s Snapshot) error {
	step, ok := ParseStep(s.Step)
	if !ok {
		return fmt.Errorf("wizard: restore: unknown step %q", s.Step)
	}
	var svc *model.Service
	if s.ServiceID != "" {
		for i := range w.catalog {
			if w.catalog[i].ID == s.ServiceID && w.catalog[i].Active {
				found := w.catalog[i]
				svc = &found
				break
			}
		}
		if svc == nil && step > SelectingService && step != Completed {
			return fmt.Errorf("wizard: restore: %w: %s", ErrUnknownService, s.ServiceID)
		}
	}
	if svc == nil && step > SelectingService && step != Completed {
		return fmt.Errorf("wizard: restore: %s without a service", step)
	}
	if s.Date != "" {
		date, err := availability.ParseDate(s.Date, w.loc)
		if err != nil {
			return fmt.Errorf("wizard: restore: %w", err)
		}
		w.date = date
	}
	w.step = step
	w.service = svc
	w.slot = s.Time
	w.name = s.Name
	w.phone = s.Phone
	w.appointment = s.Appointment
	w.client = s.Client
	if s.Slug != "" {
		w.slug = s.Slug
	}
	return nil
}
