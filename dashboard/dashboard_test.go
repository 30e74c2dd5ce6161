package dashboard_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/talent-tracker/dashboard"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/recruiting"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func day(y int, m time.Month, d int) *engine.Day { return engine.NewDay(y, m, d).Ptr() }

func newBuilder(t *testing.T) *dashboard.Builder {
	t.Helper()
	loc, err := time.LoadLocation(engine.DefaultTimezone)
	require.NoError(t, err)
	cal := engine.Calendar{Location: loc, Clock: engine.FixedClock{At: time.Date(2024, 3, 15, 12, 0, 0, 0, loc)}}
	return dashboard.NewBuilder(cal, engine.NewRecruiterDirectory(nil))
}

// fixture is a small snapshot spanning 2023 and 2024.
func fixture() recruiting.Snapshot {
	return recruiting.Snapshot{
		Hires: []recruiting.Hire{
			{ID: 1, HiredOn: day(2024, time.January, 10), Hired: 3, Channel: "INDEED", Recruiter: "HELEN RUIZ"},
			{ID: 2, HiredOn: day(2024, time.February, 5), Hired: 1, Channel: "OCC", Recruiter: "MARTA LOPEZ", Confidential: true},
			{ID: 3, HiredOn: day(2024, time.February, 20), Hired: 2, Channel: "INDEED", Recruiter: "GUADALUPE SOTO"},
			{ID: 4, HiredOn: day(2024, time.March, 1), Hired: 0, Channel: "REFERIDO", Recruiter: "GUADALUPE SOTO"},
			{ID: 5, HiredOn: day(2023, time.December, 1), Hired: 7, Channel: "OCC", Recruiter: "HELEN"},
		},
		Terminations: []recruiting.Termination{
			{ID: 1, RegisteredOn: day(2024, time.January, 3)},
			{ID: 2, RegisteredOn: day(2024, time.March, 3)},
			{ID: 3, RegisteredOn: day(2023, time.July, 1)},
		},
		Requisitions: []recruiting.Requisition{
			{
				ID: 1, Company: "DRAUBEN SA DE CV", Position: "OPERADOR", Site: "LEON", Area: recruiting.AreaOperational,
				Phase: "ENTREVISTAS", Requested: 4, RequestedOn: day(2024, time.February, 1),
				AuthorizedOn: day(2024, time.March, 5), Recruiter: "HELEN",
			},
			{
				ID: 2, Company: "DRAUBEN SA DE CV", Position: "OPERADOR", Site: "LEON", Area: recruiting.AreaOperational,
				Phase: "ENTREVISTAS", Requested: 2, RequestedOn: day(2024, time.February, 1),
				AuthorizedOn: day(2024, time.February, 24), Recruiter: "GUADALUPE",
			},
			{
				ID: 3, Company: "ACME", Position: "ANALISTA", Site: "CDMX", Area: recruiting.AreaAdministrative,
				Phase: "PUBLICADA", Requested: 1, RequestedOn: day(2024, time.January, 2), Recruiter: "HELEN",
			},
			{
				ID: 4, Company: "ACME", Position: "CONTADOR", Site: "CDMX", Area: recruiting.AreaAdministrative,
				Phase: "CERRADA", Requested: 0, Filled: 1, RequestedOn: day(2024, time.January, 1),
				AuthorizedOn: day(2024, time.January, 11), FilledOn: day(2024, time.February, 20), Recruiter: "HELEN",
			},
			{
				ID: 5, Company: "ACME", Position: "CHOFER", Site: "CDMX", Area: recruiting.AreaOperational,
				Phase: "CERRADA", Requested: 0, Filled: 2, RequestedOn: day(2023, time.May, 1),
				AuthorizedOn: day(2023, time.May, 1), FilledOn: day(2023, time.June, 1), Recruiter: "GUADALUPE",
			},
		},
	}
}

// =============================================================================
// METRICS
// =============================================================================

func TestBuild_MetricsForYear(t *testing.T) {
	// GIVEN: the fixture filtered to 2024
	b := newBuilder(t)

	// WHEN: building the report
	r, err := b.Build(fixture(), dashboard.Query{Selection: engine.ByYear(2024)})
	require.NoError(t, err)

	// THEN: period-bound totals only count 2024, vacancies are to date
	assert.Equal(t, 6, r.Metrics.Hired)
	assert.Equal(t, 2, r.Metrics.Terminations)
	assert.Equal(t, 6, r.Metrics.OpenVacancies, "only authorised requisitions count")
	assert.Equal(t, 28, r.Metrics.VacancyBaseline)

	require.True(t, r.Metrics.VacancyDelta.Defined)
	assert.Equal(t, "-78.57", r.Metrics.VacancyDelta.Value.StringFixed(2))
	require.True(t, r.Metrics.RequisitionsVsHires.Defined)
	assert.True(t, decimal.NewFromInt(100).Equal(r.Metrics.RequisitionsVsHires.Value))

	assert.True(t, r.Period.Bounded)
	assert.Equal(t, "01/01/2024 - 31/12/2024", r.Period.Label)
	assert.Equal(t, []int{2024, 2023}, r.Years)
}

func TestBuild_AllTime(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(fixture(), dashboard.Query{})
	require.NoError(t, err)

	assert.Equal(t, 13, r.Metrics.Hired)
	assert.Equal(t, 3, r.Metrics.Terminations)
	assert.False(t, r.Period.Bounded)
	assert.Equal(t, engine.ModeAllTime, r.Period.Mode)
	assert.Equal(t, "Todo el tiempo", r.Period.Label)
}

func TestBuild_UndefinedRatiosWithoutVacancies(t *testing.T) {
	b := newBuilder(t)
	b.VacancyBaseline = 0

	r, err := b.Build(recruiting.Snapshot{}, dashboard.Query{})
	require.NoError(t, err)

	assert.False(t, r.Metrics.VacancyDelta.Defined)
	assert.False(t, r.Metrics.RequisitionsVsHires.Defined)
	assert.False(t, r.OpenCoverage.All.Defined)
	assert.Equal(t, int64(0), r.OpenCoverage.All.Rounded())
	assert.Equal(t, []int{2024}, r.Years, "current year when nothing is dated")
}

func TestBuild_InvalidPeriod(t *testing.T) {
	b := newBuilder(t)

	_, err := b.Build(fixture(), dashboard.Query{Selection: engine.Selection{Mode: engine.ModeQuarter, Year: 2024}})

	assert.ErrorIs(t, err, engine.ErrInvalidPeriod)
}

// =============================================================================
// COVERAGE
// =============================================================================

func TestBuild_CoverageAverages(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(fixture(), dashboard.Query{Selection: engine.ByYear(2024)})
	require.NoError(t, err)

	// open: req 1 authorised Mar 5 (10 days), req 2 authorised Feb 24 (20 days)
	assert.Equal(t, 2, r.OpenCoverage.All.Samples)
	assert.Equal(t, int64(15), r.OpenCoverage.All.Rounded())
	assert.Equal(t, int64(15), r.OpenCoverage.Operational.Rounded())
	assert.False(t, r.OpenCoverage.Administrative.Defined, "req 3 is not authorised")

	// closed in 2024: req 4, Jan 11 -> Feb 20
	assert.Equal(t, 1, r.ClosedCoverage.All.Samples)
	assert.Equal(t, int64(40), r.ClosedCoverage.Administrative.Rounded())
	assert.False(t, r.ClosedCoverage.Operational.Defined, "req 5 closed in 2023")
}

// =============================================================================
// RECRUITER FILTER
// =============================================================================

func TestBuild_RecruiterFilter(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(fixture(), dashboard.Query{Selection: engine.ByYear(2024), Recruiter: "helen"})
	require.NoError(t, err)

	// MARTA is an alias of HELEN
	assert.Equal(t, 4, r.Metrics.Hired)
	assert.Equal(t, 4, r.Metrics.OpenVacancies)
	assert.Equal(t, 2, r.Metrics.Terminations, "terminations have no recruiter")
}

// =============================================================================
// DETAIL AND CHARTS
// =============================================================================

func TestBuild_HireDetailExcludesConfidential(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(fixture(), dashboard.Query{Selection: engine.ByYear(2024)})
	require.NoError(t, err)

	var ids []int64
	for _, h := range r.HireDetail {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)
}

func TestBuild_HireCharts(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(fixture(), dashboard.Query{Selection: engine.ByYear(2024), TopChannels: 2})
	require.NoError(t, err)

	want := []engine.Bucket{{Key: "HELEN", Value: 4}, {Key: "GUADALUPE", Value: 2}}
	if diff := cmp.Diff(want, r.Charts.HiresByRecruiter); diff != "" {
		t.Errorf("HiresByRecruiter mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, r.Charts.HiresByChannel, 2, "REFERIDO only had zero-count hires")
	assert.Equal(t, "INDEED", r.Charts.HiresByChannel[0].Key)
	assert.Equal(t, "83.3", r.Charts.HiresByChannel[0].Percent.StringFixed(1))
	assert.Equal(t, "16.7", r.Charts.HiresByChannel[1].Percent.StringFixed(1))

	require.Len(t, r.Charts.HiresByMonth, 12)
	assert.Equal(t, "Enero", r.Charts.HiresByMonth[0].Label)
	assert.Equal(t, 3, r.Charts.HiresByMonth[0].Value)
	assert.Equal(t, 3, r.Charts.HiresByMonth[1].Value)
	assert.Equal(t, 0, r.Charts.HiresByMonth[2].Value)
	assert.Equal(t, "Diciembre", r.Charts.HiresByMonth[11].Label)
}

func TestBuild_VacancyCharts(t *testing.T) {
	b := newBuilder(t)

	r, err := b.Build(fixture(), dashboard.Query{Selection: engine.ByYear(2023)})
	require.NoError(t, err)

	// vacancy charts are to date and ignore the period
	want := []engine.Bucket{{Key: "DRAUBEN", Value: 6}, {Key: "ACME", Value: 1}}
	if diff := cmp.Diff(want, r.Charts.VacanciesByCompany); diff != "" {
		t.Errorf("VacanciesByCompany mismatch (-want +got):\n%s", diff)
	}

	wantDetail := []dashboard.VacancyDetail{
		{Company: "DRAUBEN SA DE CV", Position: "OPERADOR", Site: "LEON", Vacancies: 6},
		{Company: "ACME", Position: "ANALISTA", Site: "CDMX", Vacancies: 1},
	}
	if diff := cmp.Diff(wantDetail, r.Charts.VacancyDetail); diff != "" {
		t.Errorf("VacancyDetail mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []engine.Bucket{
		{Key: recruiting.AreaOperational, Value: 6},
		{Key: recruiting.AreaAdministrative, Value: 1},
	}, r.Charts.VacanciesByArea)
	assert.Equal(t, []engine.Bucket{{Key: "ENTREVISTAS", Value: 6}, {Key: "PUBLICADA", Value: 1}}, r.Charts.Funnel)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Septiembre", dashboard.MonthLabel(time.September))
	assert.Equal(t, "", dashboard.MonthLabel(0))
	assert.Len(t, dashboard.MonthLabels(), 12)
	assert.Equal(t, "Por semana", dashboard.ModeLabel(engine.ModeWeek))
}
