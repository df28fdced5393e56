package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

const DateLayout = "2006-01-02"

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// BookingDates returns the next days calendar days starting today (in loc).
func BookingDates(now time.Time, days int, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	today := DayOf(now.In(loc))
	out := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, today.AddDate(0, 0, i))
	}
	return out
}

// InWindow reports whether date falls in the booking window of BookingDates(now, days, loc).
func InWindow(date, now time.Time, days int, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	today := DayOf(now.In(loc))
	d := DayOf(date.In(loc))
	return !d.Before(today) && d.Before(today.AddDate(0, 0, days))
}

// MonthDays lists every day of a month, for calendar-style browsing.
func MonthDays(year int, month time.Month, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	var out []time.Time
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// SlotStart combines a calendar date and an "HH:MM" slot into one instant in date's location.
func SlotStart(date time.Time, slot string) (time.Time, error) {
	mins, err := model.ParseClock(slot)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot start: %w", err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, mins/60, mins%60, 0, 0, date.Location()), nil
}
