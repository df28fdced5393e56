package availability

import (
	"time"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

// BusyIntervals turns appointments into blocking windows [start, start+duration).
// Cancelled appointments never block. Durations are looked up by service id; unknown
// services fall back to fallback.
func BusyIntervals(appts []model.Appointment, durations map[string]time.Duration, fallback time.Duration) []Interval {
	busy := make([]Interval, 0, len(appts))
	for _, a := range appts {
		if a.Status == model.StatusCancelled {
			continue
		}
		d, ok := durations[a.ServiceID]
		if !ok || d <= 0 {
			d = fallback
		}
		if d <= 0 {
			continue
		}
		busy = append(busy, Interval{Start: a.Start, End: a.Start.Add(d)})
	}
	return busy
}

// ExcludeBooked drops every slot of date whose [start, start+duration) window overlaps
// a busy interval. Order of the remaining slots is preserved.
func ExcludeBooked(date time.Time, slots []string, duration time.Duration, busy []Interval) []string {
	if len(busy) == 0 {
		return slots
	}
	if duration <= 0 {
		duration = time.Minute
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		start, err := SlotStart(date, s)
		if err != nil {
			continue
		}
		if !overlapsAny(start, start.Add(duration), busy) {
			out = append(out, s)
		}
	}
	return out
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
