package availability

import (
	"time"

	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

// ComputeSlots returns the bookable start times ("HH:MM") for date under cfg.
//
// A weekday without schedule, an inactive day and a day strictly before now's calendar
// day all yield an empty result. Slots of each active shift run from its start, stepping by
// the configured interval, and stop before the shift end. Shift 1 slots come first; the
// result is neither sorted nor de-duplicated. Times already past on the current day are
// still returned.
func ComputeSlots(date time.Time, cfg model.BusinessHoursConfig, now time.Time) []string {
	slots := []string{}
	day, ok := cfg.Schedule(date.Weekday())
	if !ok || !day.Active {
		return slots
	}
	if IsPastDay(date, now) {
		return slots
	}
	step := cfg.SlotIntervalMinutes
	if step <= 0 {
		return slots
	}

	for _, shift := range day.Shifts {
		if !shift.Active {
			continue
		}
		start, end, err := shift.Bounds()
		if err != nil {
			continue
		}
		for t := start; t < end; t += step {
			slots = append(slots, model.FormatClock(t))
		}
	}
	return slots
}

// IsPastDay reports whether date's calendar day is before now's, both read in date's location.
func IsPastDay(date, now time.Time) bool {
	return DayOf(date).Before(DayOf(now.In(date.Location())))
}

// Contains reports whether slot is one of slots.
func Contains(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
