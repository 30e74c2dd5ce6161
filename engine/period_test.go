package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/talent-tracker/engine"
)

// =============================================================================
// QUARTERS
// =============================================================================

func TestQuarterRange_AllQuarters(t *testing.T) {
	for _, year := range []int{2023, 2024, 2100} {
		for q := 1; q <= 4; q++ {
			iv, err := engine.QuarterRange(year, q)
			require.NoError(t, err)

			assert.Equal(t, time.Month(3*(q-1)+1), iv.Start.Month(), "start month of Q%d", q)
			assert.Equal(t, 1, iv.Start.Day())
			assert.Equal(t, time.Month(3*q), iv.End.Month(), "end month of Q%d", q)
			assert.Equal(t, year, iv.End.Year(), "Q4 must not spill into next year")
			assert.Equal(t, 1, iv.End.AddDays(1).Day(), "end must be the last day of its month")
		}
	}
}

func TestQuarterRange_LeapYearFebruary(t *testing.T) {
	// GIVEN: 2024 is a leap year, 2023 is not
	// THEN: Q1 spans 91 and 90 days respectively
	q1Leap, err := engine.QuarterRange(2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 91, q1Leap.Days())
	assert.Equal(t, engine.NewDay(2024, time.March, 31), q1Leap.End)
	assert.True(t, q1Leap.Contains(engine.NewDay(2024, time.February, 29)))

	q1, err := engine.QuarterRange(2023, 1)
	require.NoError(t, err)
	assert.Equal(t, 90, q1.Days())

	q4, err := engine.QuarterRange(2024, 4)
	require.NoError(t, err)
	assert.Equal(t, engine.NewDay(2024, time.December, 31), q4.End)
}

func TestQuarterRange_OutOfRange(t *testing.T) {
	for _, q := range []int{0, 5, -1} {
		_, err := engine.QuarterRange(2024, q)
		assert.ErrorIs(t, err, engine.ErrInvalidPeriod, "quarter %d", q)
	}
}

// =============================================================================
// ISO WEEKS
// =============================================================================

func TestWeekRange_MondayToSunday(t *testing.T) {
	for _, year := range []int{2019, 2020, 2021, 2023, 2024, 2026} {
		for _, week := range engine.WeekOptions(year) {
			iv, err := engine.WeekRange(year, week)
			require.NoError(t, err, "%d-W%d", year, week)

			assert.Equal(t, 1, iv.Start.ISOWeekday(), "%d-W%d must start on Monday", year, week)
			assert.Equal(t, 7, iv.End.ISOWeekday(), "%d-W%d must end on Sunday", year, week)
			assert.Equal(t, 6, engine.DaysBetween(iv.Start, iv.End))

			isoYear, isoWeek := iv.Start.ISOWeek()
			assert.Equal(t, year, isoYear)
			assert.Equal(t, week, isoWeek)
		}
	}
}

func TestWeekRange_KnownWeeks(t *testing.T) {
	tests := []struct {
		year, week int
		start, end engine.Day
	}{
		{2024, 1, engine.NewDay(2024, 1, 1), engine.NewDay(2024, 1, 7)},
		{2021, 1, engine.NewDay(2021, 1, 4), engine.NewDay(2021, 1, 10)},
		{2020, 53, engine.NewDay(2020, 12, 28), engine.NewDay(2021, 1, 3)},
		{2024, 11, engine.NewDay(2024, 3, 11), engine.NewDay(2024, 3, 17)},
	}
	for _, tt := range tests {
		iv, err := engine.WeekRange(tt.year, tt.week)
		require.NoError(t, err)
		assert.Equal(t, tt.start, iv.Start, "%d-W%d", tt.year, tt.week)
		assert.Equal(t, tt.end, iv.End, "%d-W%d", tt.year, tt.week)
	}
}

func TestWeekRange_Week53(t *testing.T) {
	// 2023 has 52 ISO weeks, 2020 has 53
	_, err := engine.WeekRange(2023, 53)
	assert.ErrorIs(t, err, engine.ErrInvalidPeriod)

	var ipe *engine.InvalidPeriodError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, engine.ModeWeek, ipe.Mode)

	_, err = engine.WeekRange(2020, 53)
	assert.NoError(t, err)

	_, err = engine.WeekRange(2024, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidPeriod)
}

func TestISOWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, engine.ISOWeeksInYear(2020))
	assert.Equal(t, 52, engine.ISOWeeksInYear(2023))
	assert.Equal(t, 52, engine.ISOWeeksInYear(2024))
	assert.Equal(t, 53, engine.ISOWeeksInYear(2026))
	assert.Len(t, engine.WeekOptions(2020), 53)
}

// =============================================================================
// RESOLVE
// =============================================================================

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		sel     engine.Selection
		bounded bool
		want    engine.Interval
	}{
		{"all time", engine.AllTime(), false, engine.Interval{}},
		{"year", engine.ByYear(2024), true, engine.Interval{Start: engine.NewDay(2024, 1, 1), End: engine.NewDay(2024, 12, 31)}},
		{"month feb leap", engine.ByMonth(2024, 2), true, engine.Interval{Start: engine.NewDay(2024, 2, 1), End: engine.NewDay(2024, 2, 29)}},
		{"month dec", engine.ByMonth(2023, 12), true, engine.Interval{Start: engine.NewDay(2023, 12, 1), End: engine.NewDay(2023, 12, 31)}},
		{"inverted range kept as given", engine.ByDateRange(engine.NewDay(2024, 5, 1), engine.NewDay(2024, 4, 1)), true,
			engine.Interval{Start: engine.NewDay(2024, 5, 1), End: engine.NewDay(2024, 4, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, bounded, err := engine.Resolve(tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.bounded, bounded)
			assert.Equal(t, tt.want, iv)
		})
	}
}

func TestResolve_InvalidSelections(t *testing.T) {
	bad := []engine.Selection{
		engine.ByYear(0),
		engine.ByMonth(2024, 13),
		engine.ByMonth(2024, 0),
		engine.ByQuarter(2024, 5),
		engine.ByWeek(2023, 53),
		engine.ByDateRange(engine.Day{}, engine.NewDay(2024, 1, 1)),
		{Mode: "fortnight", Year: 2024},
	}
	for _, sel := range bad {
		_, _, err := engine.Resolve(sel)
		assert.ErrorIs(t, err, engine.ErrInvalidPeriod, "%+v", sel)
		assert.True(t, engine.IsClientError(err))
	}
}

func TestInterval_String(t *testing.T) {
	iv, err := engine.WeekRange(2024, 1)
	require.NoError(t, err)
	assert.Equal(t, "01/01/2024 - 07/01/2024", iv.String())
}

func TestParseMode(t *testing.T) {
	m, err := engine.ParseMode("Por trimestre")
	require.NoError(t, err)
	assert.Equal(t, engine.ModeQuarter, m)

	m, err = engine.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, engine.ModeAllTime, m)

	_, err = engine.ParseMode("daily")
	assert.ErrorIs(t, err, engine.ErrInvalidPeriod)
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefaultWeekAndMonth(t *testing.T) {
	today := engine.NewDay(2024, time.March, 15)

	assert.Equal(t, 11, engine.DefaultWeek(2024, today))
	assert.Equal(t, 3, engine.DefaultMonth(2024, today))

	// Another year: first option
	assert.Equal(t, 1, engine.DefaultWeek(2023, today))
	assert.Equal(t, 1, engine.DefaultMonth(2023, today))

	// Jan 1 2027 belongs to ISO week 53 of 2026; 2027 only has 52 weeks
	assert.Equal(t, 52, engine.DefaultWeek(2027, engine.NewDay(2027, time.January, 1)))
}

func TestAvailableYears(t *testing.T) {
	today := engine.NewDay(2025, time.June, 1)
	assert.Equal(t, []int{2025}, engine.AvailableYears(today))
	assert.Equal(t, []int{2024, 2023, 2021}, engine.AvailableYears(today, 2023, 2024, 2021, 2024, 0))
}
