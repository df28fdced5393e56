// Package reports aggregates the dashboard and revenue figures.
package reports

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

type ServiceStat struct {
	ServiceID string  `json:"service_id"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
}

type Summary struct {
	Revenue        float64       `json:"revenue"`
	Confirmed      int           `json:"confirmed"`
	AverageTicket  float64       `json:"average_ticket"`
	Today          int           `json:"today"`
	ActiveServices int           `json:"active_services"`
	Services       []ServiceStat `json:"services"`
}

// Summarize counts revenue over confirmed appointments only, priced at the catalog's current
// price. Appointments whose service was deleted contribute nothing. Today counts every
// appointment whatever its status.
func Summarize(services []model.Service, appts []model.Appointment, now time.Time) Summary {
	price := make(map[string]float64, len(services))
	for _, s := range services {
		price[s.ID] = s.Price
	}

	var sum Summary
	counts := make(map[string]int, len(services))
	today := availability.DayOf(now)
	for _, a := range appts {
		if availability.DayOf(a.Start.In(now.Location())).Equal(today) {
			sum.Today++
		}
		if a.Status != model.StatusConfirmed {
			continue
		}
		sum.Confirmed++
		sum.Revenue += price[a.ServiceID]
		counts[a.ServiceID]++
	}
	if sum.Confirmed > 0 {
		sum.AverageTicket = sum.Revenue / float64(sum.Confirmed)
	}

	sum.Services = make([]ServiceStat, 0, len(services))
	for _, s := range services {
		if s.Active {
			sum.ActiveServices++
		}
		n := counts[s.ID]
		sum.Services = append(sum.Services, ServiceStat{
			ServiceID: s.ID,
			Name:      s.Name,
			Count:     n,
			Total:     float64(n) * s.Price,
		})
	}
	sort.SliceStable(sum.Services, func(i, j int) bool { return sum.Services[i].Total > sum.Services[j].Total })
	return sum
}
