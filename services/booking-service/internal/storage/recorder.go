package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bellabook/libs/db"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/roster"
)

// Recorder writes the appointment, the client upsert and the booked event in one transaction.
type Recorder struct {
	pool   db.Beginner
	key    roster.PhoneKey
	outbox *outbox.Repository
}

func NewRecorder(pool db.Beginner, key roster.PhoneKey, outboxRepo *outbox.Repository) *Recorder {
	if key == nil {
		key = roster.ExactPhone
	}
	return &Recorder{pool: pool, key: key, outbox: outboxRepo}
}

func (r *Recorder) Record(ctx context.Context, appt model.Appointment) (model.Client, error) {
	var client model.Client
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		stored, err := insertAppointment(ctx, tx, appt)
		if err != nil {
			return err
		}
		client, err = upsertClient(ctx, tx, r.key, stored.ClientName, stored.ClientPhone, stored.Start)
		if err != nil {
			return err
		}
		if r.outbox == nil {
			return nil
		}
		evt, err := outbox.AppointmentBooked(stored, client)
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return model.Client{}, err
	}
	return client, nil
}
