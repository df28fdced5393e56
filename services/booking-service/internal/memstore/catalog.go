// Package memstore keeps the catalog, appointments and clients in process memory. It backs
// the service when no DATABASE_URL is configured and doubles as a test fixture.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

var ErrNotFound = fmt.Errorf("memstore: %w", model.ErrNotFound)

type Catalog struct {
	mu       sync.RWMutex
	services []model.Service
}

func NewCatalog(seed ...model.Service) *Catalog {
	return &Catalog{services: append([]model.Service(nil), seed...)}
}

func (c *Catalog) Create(_ context.Context, s model.Service) (model.Service, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = append(c.services, s)
	return s, nil
}

func (c *Catalog) List(_ context.Context) ([]model.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Service(nil), c.services...), nil
}

func (c *Catalog) Active(ctx context.Context) ([]model.Service, error) {
	all, _ := c.List(ctx)
	out := all[:0]
	for _, s := range all {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Catalog) Get(_ context.Context, id string) (model.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.services {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Service{}, ErrNotFound
}

// Toggle flips the active flag and returns the updated service.
func (c *Catalog) Toggle(_ context.Context, id string) (model.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.services {
		if c.services[i].ID == id {
			c.services[i].Active = !c.services[i].Active
			return c.services[i], nil
		}
	}
	return model.Service{}, ErrNotFound
}

func (c *Catalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.services {
		if c.services[i].ID == id {
			c.services = append(c.services[:i], c.services[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
