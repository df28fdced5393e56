// Package roster reconciles completed bookings into the professional's client list.
package roster

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

var ErrEmptyPhone = errors.New("roster: phone is required")

// Roster is the client store the booking flow writes to. Upsert must be atomic per phone key.
type Roster interface {
	Upsert(ctx context.Context, name, phone string, visit time.Time) (model.Client, error)
}

// Apply is the upsert rule shared by every store: a known client gets one more booking,
// the new visit and the latest name; an unknown phone starts a client at one booking.
func Apply(existing *model.Client, name, phone string, visit time.Time, newID func() string) model.Client {
	if existing != nil {
		c := *existing
		c.TotalBookings++
		c.LastVisit = visit
		c.Name = name
		return c
	}
	return model.Client{
		ID:            newID(),
		Name:          name,
		Phone:         phone,
		TotalBookings: 1,
		LastVisit:     visit,
	}
}

// Memory is an in-process roster. A single mutex serializes upserts, which keeps one
// client per phone key even with concurrent booking sessions.
type Memory struct {
	key   PhoneKey
	newID func() string

	mu      sync.Mutex
	byKey   map[string]*model.Client
	ordered []*model.Client
}

func NewMemory(key PhoneKey) *Memory {
	if key == nil {
		key = ExactPhone
	}
	return &Memory{
		key:   key,
		newID: uuid.NewString,
		byKey: map[string]*model.Client{},
	}
}

func (m *Memory) Upsert(_ context.Context, name, phone string, visit time.Time) (model.Client, error) {
	k := m.key(phone)
	if k == "" {
		return model.Client{}, ErrEmptyPhone
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.byKey[k]
	c := Apply(existing, name, phone, visit, m.newID)
	if existing != nil {
		*existing = c
		return c, nil
	}
	stored := c
	m.byKey[k] = &stored
	m.ordered = append(m.ordered, &stored)
	return c, nil
}

// Search returns clients whose name contains q (case-insensitive) or whose phone contains q,
// most recent visit first. An empty q lists everyone.
func (m *Memory) Search(_ context.Context, q string) ([]model.Client, error) {
	m.mu.Lock()
	out := make([]model.Client, 0, len(m.ordered))
	for _, c := range m.ordered {
		if Matches(*c, q) {
			out = append(out, *c)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].LastVisit.After(out[j].LastVisit) })
	return out, nil
}

// Matches is the client search predicate.
func Matches(c model.Client, q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) || strings.Contains(c.Phone, q)
}
