/*
Package engine is the temporal aggregation core of the talent tracker.

PURPOSE:
  Every dashboard number is computed from three steps that live here:
  resolve the user's period selection into dates, narrow record collections
  to that period (and optionally to one recruiter), and derive per-record
  coverage durations. The aggregation helpers then turn the narrowed
  collections into sums, means and grouped buckets.

KEY CONCEPTS:
  - Day:       calendar date, no time of day
  - Calendar:  business timezone + injected clock ("today")
  - Selection: user intent (all time, year, quarter, month, ISO week, range)
  - Interval:  closed [Start, End] range of days
  - Coverage:  days a requisition has been (or was) open

DESIGN PRINCIPLES:
  1. Pure: no I/O. Collections arrive already materialised.
  2. Read-only: inputs are never mutated; derived values live on copies.
  3. Best effort per record: one malformed date never aborts a pass.

SEE ALSO:
  - filter.go:   period and recruiter filters
  - coverage.go: coverage duration calculator
  - aggregate.go: sums, means and buckets
*/
package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// SELECTION - What period the user asked for
// =============================================================================

// Mode names the kind of period filter.
type Mode string

const (
	ModeAllTime   Mode = "all"
	ModeYear      Mode = "year"
	ModeQuarter   Mode = "quarter"
	ModeMonth     Mode = "month"
	ModeWeek      Mode = "week"
	ModeDateRange Mode = "range"
)

// ParseMode accepts the API names plus the Spanish picker labels.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeAllTime), "Todo el tiempo":
		return ModeAllTime, nil
	case string(ModeYear), "Por año":
		return ModeYear, nil
	case string(ModeQuarter), "Por trimestre":
		return ModeQuarter, nil
	case string(ModeMonth), "Por mes":
		return ModeMonth, nil
	case string(ModeWeek), "Por semana":
		return ModeWeek, nil
	case string(ModeDateRange), "Por rango":
		return ModeDateRange, nil
	}
	return "", invalidPeriod(Mode(s), "unknown filter mode")
}

// Selection is the period the user picked. Only the scalars its Mode needs
// are read.
type Selection struct {
	Mode    Mode
	Year    int
	Quarter int
	Month   int
	Week    int
	From    Day
	To      Day
}

func AllTime() Selection                 { return Selection{Mode: ModeAllTime} }
func ByYear(year int) Selection          { return Selection{Mode: ModeYear, Year: year} }
func ByQuarter(year, q int) Selection    { return Selection{Mode: ModeQuarter, Year: year, Quarter: q} }
func ByMonth(year, month int) Selection  { return Selection{Mode: ModeMonth, Year: year, Month: month} }
func ByWeek(year, week int) Selection    { return Selection{Mode: ModeWeek, Year: year, Week: week} }
func ByDateRange(from, to Day) Selection { return Selection{Mode: ModeDateRange, From: from, To: to} }

// =============================================================================
// INTERVAL - Closed range of days
// =============================================================================

// Interval is [Start, End], both inclusive.
type Interval struct {
	Start Day
	End   Day
}

// Contains returns true if d is within [Start, End].
// An inverted interval contains nothing.
func (i Interval) Contains(d Day) bool {
	return d.AfterOrEqual(i.Start) && d.BeforeOrEqual(i.End)
}

// Days is the inclusive length of the interval.
func (i Interval) Days() int {
	return DaysBetween(i.Start, i.End) + 1
}

// String renders "dd/mm/yyyy - dd/mm/yyyy" for the period banner.
func (i Interval) String() string {
	return i.Start.Display() + " - " + i.End.Display()
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolve turns a Selection into a concrete interval.
// bounded is false for all-time, in which case the interval is zero and
// every record matches.
func Resolve(sel Selection) (iv Interval, bounded bool, err error) {
	switch sel.Mode {
	case ModeAllTime, "":
		return Interval{}, false, nil

	case ModeYear:
		if err := checkYear(sel); err != nil {
			return Interval{}, false, err
		}
		return Interval{Start: StartOfYear(sel.Year), End: EndOfYear(sel.Year)}, true, nil

	case ModeQuarter:
		iv, err := QuarterRange(sel.Year, sel.Quarter)
		return iv, err == nil, err

	case ModeMonth:
		if err := checkYear(sel); err != nil {
			return Interval{}, false, err
		}
		if sel.Month < 1 || sel.Month > 12 {
			return Interval{}, false, invalidPeriod(sel.Mode, "month %d outside 1-12", sel.Month)
		}
		m := time.Month(sel.Month)
		return Interval{Start: StartOfMonth(sel.Year, m), End: EndOfMonth(sel.Year, m)}, true, nil

	case ModeWeek:
		iv, err := WeekRange(sel.Year, sel.Week)
		return iv, err == nil, err

	case ModeDateRange:
		if sel.From.IsZero() || sel.To.IsZero() {
			return Interval{}, false, invalidPeriod(sel.Mode, "both range dates are required")
		}
		// No ordering check: an inverted range just matches nothing.
		return Interval{Start: sel.From, End: sel.To}, true, nil
	}
	return Interval{}, false, invalidPeriod(sel.Mode, "unknown filter mode")
}

func checkYear(sel Selection) error {
	if sel.Year < 1 || sel.Year > 9999 {
		return invalidPeriod(sel.Mode, "year %d is not a calendar year", sel.Year)
	}
	return nil
}

// QuarterRange returns the first and last day of quarter q of year.
func QuarterRange(year, q int) (Interval, error) {
	if err := checkYear(Selection{Mode: ModeQuarter, Year: year}); err != nil {
		return Interval{}, err
	}
	if q < 1 || q > 4 {
		return Interval{}, invalidPeriod(ModeQuarter, "quarter %d outside 1-4", q)
	}
	firstMonth := time.Month(3*(q-1) + 1)
	start := NewDay(year, firstMonth, 1)

	// First day of the month after the quarter, minus one day.
	nextMonth, nextYear := firstMonth+3, year
	if nextMonth > time.December {
		nextMonth, nextYear = time.January, year+1
	}
	end := NewDay(nextYear, nextMonth, 1).AddDays(-1)
	return Interval{Start: start, End: end}, nil
}

// WeekRange returns Monday..Sunday of ISO week `week` of ISO year `year`.
func WeekRange(year, week int) (Interval, error) {
	if err := checkYear(Selection{Mode: ModeWeek, Year: year}); err != nil {
		return Interval{}, err
	}
	max := ISOWeeksInYear(year)
	if week < 1 || week > max {
		return Interval{}, invalidPeriod(ModeWeek, "week %d does not exist in ISO year %d (max %d)", week, year, max)
	}
	// Week 1 is the week containing January 4th.
	jan4 := NewDay(year, time.January, 4)
	monday := jan4.AddDays(1 - jan4.ISOWeekday()).AddDays(7 * (week - 1))
	return Interval{Start: monday, End: monday.AddDays(6)}, nil
}

// ISOWeeksInYear is 52 or 53. December 28th always sits in the last ISO week.
func ISOWeeksInYear(year int) int {
	_, w := NewDay(year, time.December, 28).ISOWeek()
	return w
}

// =============================================================================
// DEFAULTS AND OPTIONS - what the period picker offers
// =============================================================================

// DefaultWeek is the current ISO week when today is in year, else 1.
func DefaultWeek(year int, today Day) int {
	if today.Year() != year {
		return 1
	}
	_, w := today.ISOWeek()
	if max := ISOWeeksInYear(year); w > max {
		w = max
	}
	return w
}

// DefaultMonth is the current month when today is in year, else 1.
func DefaultMonth(year int, today Day) int {
	if today.Year() != year {
		return 1
	}
	return int(today.Month())
}

// WeekOptions lists every valid ISO week number of year.
func WeekOptions(year int) []int {
	n := ISOWeeksInYear(year)
	weeks := make([]int, n)
	for i := range weeks {
		weeks[i] = i + 1
	}
	return weeks
}

// QuarterLabel is the picker label for a quarter ("T1".."T4").
func QuarterLabel(q int) string {
	return fmt.Sprintf("T%d", q)
}

// AvailableYears returns the distinct years, newest first.
// With no years at all the current year is offered.
func AvailableYears(today Day, years ...int) []int {
	seen := make(map[int]bool, len(years))
	var out []int
	for _, y := range years {
		if y <= 0 || seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	if len(out) == 0 {
		return []int{today.Year()}
	}
	// small n; insertion sort, descending
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] > out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
