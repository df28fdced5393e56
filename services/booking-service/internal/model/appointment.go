package model

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is wrapped by every store when a record does not exist.
var ErrNotFound = errors.New("not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, true
	default:
		return "", false
	}
}

// Service is an entry of the professional's catalog.
type Service struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Active          bool    `json:"active"`
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

type Appointment struct {
	ID          string    `json:"id"`
	ServiceID   string    `json:"service_id"`
	ClientName  string    `json:"client_name"`
	ClientPhone string    `json:"client_phone"`
	Start       time.Time `json:"start"`
	Status      Status    `json:"status"`
	// Slug is the professional's public link identifier, carried through unchanged.
	Slug string `json:"slug,omitempty"`
}

// Client is a roster entry. Phone is the natural key.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	TotalBookings int       `json:"total_bookings"`
	LastVisit     time.Time `json:"last_visit"`
}
