package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

const (
	AggregateAppointment  = "appointment"
	TypeAppointmentBooked = "booking.appointment.booked.v1"
)

// Event is the envelope written to outbox_events. The Kafka topic equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type AppointmentBookedV1 struct {
	AppointmentID string       `json:"appointment_id"`
	ServiceID     string       `json:"service_id"`
	ClientID      string       `json:"client_id"`
	ClientName    string       `json:"client_name"`
	ClientPhone   string       `json:"client_phone"`
	Start         time.Time    `json:"start"`
	Status        model.Status `json:"status"`
	Slug          string       `json:"slug,omitempty"`
	TotalBookings int          `json:"total_bookings"`
}

func AppointmentBooked(appt model.Appointment, client model.Client) (Event, error) {
	payload, err := json.Marshal(AppointmentBookedV1{
		AppointmentID: appt.ID,
		ServiceID:     appt.ServiceID,
		ClientID:      client.ID,
		ClientName:    appt.ClientName,
		ClientPhone:   appt.ClientPhone,
		Start:         appt.Start,
		Status:        appt.Status,
		Slug:          appt.Slug,
		TotalBookings: client.TotalBookings,
	})
	if err != nil {
		return Event{}, fmt.Errorf("outbox: marshal %s: %w", TypeAppointmentBooked, err)
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   appt.ID,
		EventType:     TypeAppointmentBooked,
		Payload:       payload,
	}, nil
}
