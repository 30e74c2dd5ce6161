package engine

import (
	"fmt"
	"time"
	_ "time/tzdata" // hosts without a zoneinfo database
)

// DefaultTimezone is where the business operates; "today" is taken from here.
const DefaultTimezone = "America/Mexico_City"

// Clock supplies the current instant. Inject FixedClock in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// Calendar binds a business timezone to a clock.
// Everything that depends on "today" goes through a Calendar.
type Calendar struct {
	Location *time.Location
	Clock    Clock
}

// NewCalendar loads the named timezone. An empty name means DefaultTimezone.
func NewCalendar(tz string, clock Clock) (Calendar, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return Calendar{Location: loc, Clock: clock}, nil
}

// Now is the current instant according to the calendar's clock.
func (c Calendar) Now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

// Today is the current calendar date in the business timezone.
func (c Calendar) Today() Day {
	return DayOf(c.Now(), c.location())
}

// Parse reads raw as a date in the business timezone.
func (c Calendar) Parse(raw string) (Day, bool) {
	return ParseDay(raw, c.location())
}

// ParsePtr is Parse for optional fields.
func (c Calendar) ParsePtr(raw string) *Day {
	return ParseDayPtr(raw, c.location())
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
