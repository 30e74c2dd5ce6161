package engine

import (
	"strings"
	"time"
)

// =============================================================================
// DAY - Calendar date, the unit every filter and duration works in
// =============================================================================

// Day is a calendar date with no time-of-day component.
// Internally it is midnight UTC so that arithmetic never crosses a DST edge.
type Day struct {
	t time.Time
}

// NewDay builds a Day. Out-of-range values normalise like time.Date.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar date of t as observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc != nil {
		t = t.In(loc)
	}
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Day) Before(o Day) bool        { return d.t.Before(o.t) }
func (d Day) After(o Day) bool         { return d.t.After(o.t) }
func (d Day) Equal(o Day) bool         { return d.t.Equal(o.t) }
func (d Day) BeforeOrEqual(o Day) bool { return !d.t.After(o.t) }
func (d Day) AfterOrEqual(o Day) bool  { return !d.t.Before(o.t) }

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Day) Year() int          { return d.t.Year() }
func (d Day) Month() time.Month  { return d.t.Month() }
func (d Day) Day() int           { return d.t.Day() }
func (d Day) IsZero() bool       { return d.t.IsZero() }
func (d Day) ISOWeek() (int, int) { return d.t.ISOWeek() }

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func (d Day) ISOWeekday() int {
	wd := int(d.t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// In returns midnight of the date in loc.
func (d Day) In(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Day) String() string { return d.t.Format(isoLayout) }

// Display renders the date the way the dashboard shows it (dd/mm/yyyy).
func (d Day) Display() string { return d.t.Format("02/01/2006") }

// Ptr is a convenience for optional fields.
func (d Day) Ptr() *Day { return &d }

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only ISO dates are accepted.
func (d *Day) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Day{}
		return nil
	}
	t, err := time.Parse(isoLayout, string(b))
	if err != nil {
		return err
	}
	*d = NewDay(t.Year(), t.Month(), t.Day())
	return nil
}

// DaysBetween returns the signed number of civil days from -> to.
func DaysBetween(from, to Day) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

func StartOfYear(year int) Day                  { return NewDay(year, time.January, 1) }
func EndOfYear(year int) Day                    { return NewDay(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) Day { return NewDay(year, month, 1) }

// EndOfMonth returns the last day of the month.
func EndOfMonth(year int, month time.Month) Day {
	return NewDay(year, month+1, 1).AddDays(-1)
}

// =============================================================================
// PARSING
// =============================================================================

const isoLayout = "2006-01-02"

// placeholderDay is what the legacy capture form stored for "not authorised".
var placeholderDay = NewDay(1900, time.January, 1)

// zoned layouts carry their own offset and are converted into the business zone.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999-07:00",
}

// naive layouts are read as wall-clock time in the business zone.
var naiveLayouts = []string{
	isoLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006/01/02",
	"02-01-2006",
}

// ParseDay interprets raw as a calendar date in loc.
// Empty, malformed and placeholder values report ok == false.
func ParseDay(raw string, loc *time.Location) (Day, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Day{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	var (
		d     Day
		found bool
	)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d, found = DayOf(t, loc), true
			break
		}
	}
	if !found {
		for _, layout := range naiveLayouts {
			if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
				d, found = NewDay(t.Year(), t.Month(), t.Day()), true
				break
			}
		}
	}
	if !found || d.Equal(placeholderDay) {
		return Day{}, false
	}
	return d, true
}

// ParseDayPtr is ParseDay for optional record fields.
func ParseDayPtr(raw string, loc *time.Location) *Day {
	d, ok := ParseDay(raw, loc)
	if !ok {
		return nil
	}
	return &d
}

// Deref reads an optional day.
func Deref(d *Day) (Day, bool) {
	if d == nil || d.IsZero() {
		return Day{}, false
	}
	return *d, true
}
