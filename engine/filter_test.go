package engine_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/talent-tracker/engine"
)

type dated struct {
	ID        int
	On        *engine.Day
	Recruiter string
}

func onDate(r dated) (engine.Day, bool) { return engine.Deref(r.On) }

func day(y int, m time.Month, d int) *engine.Day {
	return engine.NewDay(y, m, d).Ptr()
}

func TestFilterByPeriod_QuarterScenario(t *testing.T) {
	// GIVEN: requisitions dated Jan 5, Feb 14 and Apr 1 2024
	reqs := []dated{
		{ID: 1, On: day(2024, time.January, 5)},
		{ID: 2, On: day(2024, time.February, 14)},
		{ID: 3, On: day(2024, time.April, 1)},
	}

	// WHEN: filtering by Q1 2024
	got, err := engine.FilterByPeriod(reqs, onDate, engine.ByQuarter(2024, 1))
	require.NoError(t, err)

	// THEN: only January and February remain
	if diff := cmp.Diff(reqs[:2], got); diff != "" {
		t.Errorf("filtered records mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterByPeriod_Idempotent(t *testing.T) {
	reqs := []dated{
		{ID: 1, On: day(2024, time.March, 10)},
		{ID: 2, On: day(2024, time.March, 11)},
		{ID: 3, On: day(2024, time.March, 18)},
		{ID: 4, On: nil},
	}
	sel := engine.ByWeek(2024, 11)

	once, err := engine.FilterByPeriod(reqs, onDate, sel)
	require.NoError(t, err)
	twice, err := engine.FilterByPeriod(once, onDate, sel)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	require.Len(t, once, 1)
	assert.Equal(t, 2, once[0].ID)
}

func TestFilterByPeriod_MissingDates(t *testing.T) {
	reqs := []dated{
		{ID: 1, On: nil},
		{ID: 2, On: day(2024, time.June, 1)},
	}

	// Bounded: a missing date never matches
	got, err := engine.FilterByPeriod(reqs, onDate, engine.ByYear(2024))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)

	// All time: everything passes through, untouched
	got, err = engine.FilterByPeriod(reqs, onDate, engine.AllTime())
	require.NoError(t, err)
	assert.Equal(t, reqs, got)
}

func TestFilterByPeriod_DoesNotAliasInput(t *testing.T) {
	reqs := []dated{{ID: 1, On: day(2024, time.June, 1)}}

	got, err := engine.FilterByPeriod(reqs, onDate, engine.AllTime())
	require.NoError(t, err)
	got[0].ID = 99

	assert.Equal(t, 1, reqs[0].ID, "caller's slice must not change")
}

func TestFilterByPeriod_EmptyAndInverted(t *testing.T) {
	got, err := engine.FilterByPeriod([]dated(nil), onDate, engine.ByMonth(2024, 2))
	require.NoError(t, err)
	assert.Empty(t, got)

	reqs := []dated{{ID: 1, On: day(2024, time.April, 15)}}
	got, err = engine.FilterByPeriod(reqs, onDate,
		engine.ByDateRange(engine.NewDay(2024, 5, 1), engine.NewDay(2024, 4, 1)))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterByPeriod_InvalidSelectionPropagates(t *testing.T) {
	_, err := engine.FilterByPeriod([]dated{}, onDate, engine.ByWeek(2023, 53))
	assert.ErrorIs(t, err, engine.ErrInvalidPeriod)
}

func TestFilterByPeriod_MonthBoundaries(t *testing.T) {
	reqs := []dated{
		{ID: 1, On: day(2024, time.January, 31)},
		{ID: 2, On: day(2024, time.February, 1)},
		{ID: 3, On: day(2024, time.February, 29)},
		{ID: 4, On: day(2024, time.March, 1)},
		{ID: 5, On: day(2023, time.February, 10)},
	}
	got, err := engine.FilterByPeriod(reqs, onDate, engine.ByMonth(2024, 2))
	require.NoError(t, err)

	var ids []int
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int{2, 3}, ids)
}

// =============================================================================
// RECRUITERS
// =============================================================================

func byRecruiter(r dated) string { return r.Recruiter }

func TestFilterByRecruiter_AliasCollapse(t *testing.T) {
	dir := engine.NewRecruiterDirectory(nil)
	recs := []dated{{ID: 1, Recruiter: "MARTA GOMEZ"}}

	assert.Len(t, engine.FilterByRecruiter(dir, recs, byRecruiter, "HELEN"), 1)
	assert.Empty(t, engine.FilterByRecruiter(dir, recs, byRecruiter, "MARTA"))
}

func TestFilterByRecruiter_FirstTokenAndCase(t *testing.T) {
	dir := engine.NewRecruiterDirectory(map[string]string{})
	recs := []dated{
		{ID: 1, Recruiter: "  ana  lópez"},
		{ID: 2, Recruiter: "ANA MARIA RUIZ"},
		{ID: 3, Recruiter: "Anabel Soto"},
		{ID: 4, Recruiter: ""},
	}

	got := engine.FilterByRecruiter(dir, recs, byRecruiter, "Ana")
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
}

func TestFilterByRecruiter_AllIsNoop(t *testing.T) {
	dir := engine.NewRecruiterDirectory(nil)
	recs := []dated{{ID: 1, Recruiter: "HELEN"}, {ID: 2, Recruiter: "JOSE"}}

	assert.Equal(t, recs, engine.FilterByRecruiter(dir, recs, byRecruiter, ""))
	assert.Equal(t, recs, engine.FilterByRecruiter(dir, recs, byRecruiter, engine.AllRecruiters))
}

func TestRecruiterDirectory_Identity(t *testing.T) {
	dir := engine.NewRecruiterDirectory(map[string]string{"lupita": "Guadalupe"})

	assert.Equal(t, "GUADALUPE", dir.Identity("Lupita Hernández"))
	assert.Equal(t, "JOSE", dir.Identity("José Pérez"))
	assert.Equal(t, "NUÑEZ", dir.Identity("Núñez"))
	assert.Equal(t, "", dir.Identity("   "))
}
