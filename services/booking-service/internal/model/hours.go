package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInterval  = errors.New("slot interval must be positive")
	ErrDuplicateWeekday = errors.New("duplicate weekday schedule")
	ErrMissingWeekday   = errors.New("missing weekday schedule")
	ErrInvalidClock     = errors.New("invalid HH:MM time")
)

const clockLayout = "15:04"

// Shift is a contiguous working window within a day, in wall-clock "HH:MM".
type Shift struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Active bool   `json:"active"`
}

// Bounds returns start and end as minutes since midnight.
func (s Shift) Bounds() (int, int, error) {
	start, err := ParseClock(s.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(s.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// DaySchedule holds the two shifts of one weekday. An inactive day yields no slots
// whatever its shift flags say.
type DaySchedule struct {
	Day    time.Weekday `json:"day"`
	Active bool         `json:"active"`
	Shifts [2]Shift     `json:"shifts"`
}

type BusinessHoursConfig struct {
	SlotIntervalMinutes int           `json:"slot_interval_minutes"`
	Days                []DaySchedule `json:"days"`
}

// Schedule returns the schedule for day, if configured.
func (c BusinessHoursConfig) Schedule(day time.Weekday) (DaySchedule, bool) {
	for _, d := range c.Days {
		if d.Day == day {
			return d, true
		}
	}
	return DaySchedule{}, false
}

// Validate checks the interval and that each weekday appears exactly once. Shift bounds
// must parse; overlapping or inverted shifts are left to the caller.
func (c BusinessHoursConfig) Validate() error {
	if c.SlotIntervalMinutes <= 0 {
		return ErrInvalidInterval
	}
	var seen [7]bool
	for _, d := range c.Days {
		if d.Day < time.Sunday || d.Day > time.Saturday {
			return fmt.Errorf("weekday %d out of range: %w", d.Day, ErrMissingWeekday)
		}
		if seen[d.Day] {
			return fmt.Errorf("%s: %w", d.Day, ErrDuplicateWeekday)
		}
		seen[d.Day] = true
		for i, s := range d.Shifts {
			if _, _, err := s.Bounds(); err != nil {
				return fmt.Errorf("%s shift %d: %w", d.Day, i+1, err)
			}
		}
	}
	for wd, ok := range seen {
		if !ok {
			return fmt.Errorf("%s: %w", time.Weekday(wd), ErrMissingWeekday)
		}
	}
	return nil
}

// DefaultBusinessHours is what a new professional starts with: weekdays split in a
// morning and an afternoon shift, Saturday mornings, Sundays off, hourly slots.
func DefaultBusinessHours() BusinessHoursConfig {
	cfg := BusinessHoursConfig{SlotIntervalMinutes: 60}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day := DaySchedule{
			Day:    wd,
			Active: wd != time.Sunday,
			Shifts: [2]Shift{
				{Start: "08:00", End: "12:00", Active: true},
				{Start: "13:00", End: "18:00", Active: wd != time.Saturday},
			},
		}
		cfg.Days = append(cfg.Days, day)
	}
	return cfg
}

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidClock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
