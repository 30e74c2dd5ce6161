/*
Package dashboard computes the recruiting dashboard from a snapshot.

PURPOSE:
  Turns the four raw collections into the metric cards, coverage averages,
  detail rows and pre-aggregated chart series the dashboard shows. All
  numbers come from the engine package; this file only decides which
  collection each number is computed over.

WHICH RECORDS FEED WHAT:
  Period-filtered (Query.Selection):
    Hires by HiredOn             -> hired total, hire charts, hire detail
    Terminations by RegisteredOn -> termination total
    Requisitions by FilledOn     -> closed coverage averages
  Not period-filtered ("to date"):
    Requisitions                 -> open vacancies, open coverage averages,
                                    vacancy charts, funnel
  Query.Recruiter narrows every hire and requisition collection.

METRICS:
  Hired:            sum of Hire.Hired
  Terminations:     count of terminations with an ID
  OpenVacancies:    sum of Requested over authorised requisitions
  VacancyDelta:     (open - baseline) / baseline, percent to 2 places
  RequisitionsVsHires: hired / open, percent to 2 places

COVERAGE AVERAGES:
  Open:   requested > 0 and authorised; live duration up to today
  Closed: filled > 0; frozen at the fill date
  Each split into all / ADMINISTRATIVA / OPERATIVA.

SEE ALSO:
  - engine/coverage.go: The duration rule
  - engine/aggregate.go: Sums, means, buckets
  - api/handlers.go: GET /api/dashboard
*/
package dashboard

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/recruiting"
)

// DefaultVacancyBaseline is the open-vacancy count the delta is measured from.
const DefaultVacancyBaseline = 28

// DefaultCompanyShortNames abbreviates the legal company names for charts.
var DefaultCompanyShortNames = map[string]string{
	"CORPORATIVO PUBLICITARIO MAO SA DE CV":         "MAO",
	"DRAUBEN SA DE CV":                              "DRAUBEN",
	"ESPECIALISTAS PROFESIONALES DE LEON SA DE CV":  "EPL",
	"F2 CONSULTING GROUP SA DE CV":                  "F2",
	"FICORMA SA DE CV":                              "FICORMA",
	"KRONOS AMBIENTAL SAPI DE CV":                   "KRONOS",
	"MARKETING EN PUBLICIDAD DE QUERETARO SA DE CV": "MKT QRO",
	"MONTAJE SUPERVISION Y CONSTRUCCION SA DE CV":   "MSC",
	"LUMINA PANTALLAS DIGITALES SA DE CV":           "LUMINA",
	"SERVICIOS DE ANUNCIOS PUBLICITARIOS SA DE CV":  "SAP",
	"SICMART SA DE CV":                              "SICMART",
	"THE BEST MARKETING SA DE CV":                   "BEST MKT",
	"VINCI GERENCIA ORGANIZACIONAL SA DE CV":        "VINCI",
}

// =============================================================================
// QUERY AND REPORT
// =============================================================================

// Query selects what the dashboard shows.
type Query struct {
	Selection engine.Selection
	// Recruiter is a canonical first name, or "" / TODOS for everyone.
	Recruiter string
	// TopChannels limits the channel chart; 0 shows every channel.
	TopChannels int
}

// Ratio is a percentage that may be undefined (zero denominator).
type Ratio struct {
	Value   decimal.Decimal
	Defined bool
}

// Period describes the resolved selection for display.
type Period struct {
	Mode    engine.Mode
	Bounded bool
	Start   engine.Day
	End     engine.Day
	Label   string
}

// Metrics are the headline cards.
type Metrics struct {
	Hired               int
	Terminations        int
	OpenVacancies       int
	VacancyBaseline     int
	VacancyDelta        Ratio
	RequisitionsVsHires Ratio
}

// CoverageAverages splits a mean coverage by area.
type CoverageAverages struct {
	All            engine.Mean
	Administrative engine.Mean
	Operational    engine.Mean
}

// MonthPoint is one month of the hires-by-month series.
type MonthPoint struct {
	Month time.Month
	Label string
	Value int
}

// VacancyDetail is one company/position/site line of open vacancies.
type VacancyDetail struct {
	Company   string `json:"company"`
	Position  string `json:"position"`
	Site      string `json:"site"`
	Vacancies int    `json:"vacancies"`
}

// Charts are the pre-aggregated series behind each chart.
type Charts struct {
	HiresByRecruiter   []engine.Bucket
	HiresByChannel     []engine.Bucket
	HiresByMonth       []MonthPoint
	VacanciesByCompany []engine.Bucket
	VacancyDetail      []VacancyDetail
	VacanciesByArea    []engine.Bucket
	Funnel             []engine.Bucket
}

// Report is everything the dashboard renders.
type Report struct {
	Period         Period
	Recruiter      string
	Years          []int
	Metrics        Metrics
	OpenCoverage   CoverageAverages
	ClosedCoverage CoverageAverages
	// HireDetail lists the period's hires, confidential ones excluded.
	HireDetail []recruiting.Hire
	Charts     Charts
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder holds the configuration the dashboard is computed with.
type Builder struct {
	Calendar          engine.Calendar
	Directory         *engine.RecruiterDirectory
	CompanyShortNames map[string]string
	VacancyBaseline   int
}

// NewBuilder returns a builder with a copy of the default short names and
// the default baseline.
func NewBuilder(cal engine.Calendar, dir *engine.RecruiterDirectory) *Builder {
	return &Builder{
		Calendar:          cal,
		Directory:         dir,
		CompanyShortNames: maps.Clone(DefaultCompanyShortNames),
		VacancyBaseline:   DefaultVacancyBaseline,
	}
}

// Build computes the report. The only error is an invalid period selection.
func (b *Builder) Build(snap recruiting.Snapshot, q Query) (*Report, error) {
	period, err := Describe(q.Selection)
	if err != nil {
		return nil, err
	}

	// Recruiter narrowing first: it applies to every hire and requisition view.
	hiresAll := engine.FilterByRecruiter(b.Directory, snap.Hires, recruiting.HireRecruiter, q.Recruiter)
	reqsAll := engine.FilterByRecruiter(b.Directory, snap.Requisitions, recruiting.RequisitionRecruiter, q.Recruiter)

	hires, err := engine.FilterByPeriod(hiresAll, recruiting.HireDate, q.Selection)
	if err != nil {
		return nil, err
	}
	terminations, err := engine.FilterByPeriod(snap.Terminations, recruiting.TerminationDate, q.Selection)
	if err != nil {
		return nil, err
	}
	closed, err := engine.FilterByPeriod(reqsAll, recruiting.FillDate, q.Selection)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Period:    period,
		Recruiter: q.Recruiter,
		Years:     engine.AvailableYears(b.Calendar.Today(), snap.Years()...),
	}
	report.Metrics = b.metrics(hires, terminations, reqsAll)
	report.OpenCoverage = b.coverage(engine.Where(reqsAll, func(r recruiting.Requisition) bool {
		return r.Requested > 0 && r.Authorized()
	}))
	report.ClosedCoverage = b.coverage(engine.Where(closed, func(r recruiting.Requisition) bool {
		return r.Filled > 0
	}))
	report.HireDetail = engine.Where(hires, func(h recruiting.Hire) bool { return !h.Confidential })
	report.Charts = b.charts(hires, reqsAll, q.TopChannels)

	return report, nil
}

// Describe resolves sel for display.
func Describe(sel engine.Selection) (Period, error) {
	iv, bounded, err := engine.Resolve(sel)
	if err != nil {
		return Period{}, err
	}
	p := Period{Mode: sel.Mode, Bounded: bounded, Label: ModeLabel(sel.Mode)}
	if p.Mode == "" {
		p.Mode = engine.ModeAllTime
	}
	if bounded {
		p.Start, p.End = iv.Start, iv.End
		p.Label = iv.String()
	}
	return p, nil
}

// =============================================================================
// METRICS
// =============================================================================

func (b *Builder) metrics(hires []recruiting.Hire, terminations []recruiting.Termination, reqs []recruiting.Requisition) Metrics {
	m := Metrics{
		Hired: engine.Sum(hires, func(h recruiting.Hire) int { return h.Hired }),
		Terminations: engine.Count(terminations, func(t recruiting.Termination) bool {
			return t.ID > 0
		}),
		OpenVacancies: engine.Sum(reqs, func(r recruiting.Requisition) int {
			if !r.Authorized() {
				return 0
			}
			return r.Requested
		}),
		VacancyBaseline: b.VacancyBaseline,
	}

	m.VacancyDelta.Value, m.VacancyDelta.Defined = engine.DeltaPercent(int64(m.OpenVacancies), int64(b.VacancyBaseline), 2)
	m.RequisitionsVsHires.Value, m.RequisitionsVsHires.Defined = engine.Percent(int64(m.Hired), int64(m.OpenVacancies), 2)
	return m
}

func (b *Builder) coverage(reqs []recruiting.Requisition) CoverageAverages {
	annotated := engine.Annotate(b.Calendar, reqs, recruiting.RequisitionCoverage)
	inArea := func(area string) []engine.Annotated[recruiting.Requisition] {
		return engine.Where(annotated, func(a engine.Annotated[recruiting.Requisition]) bool {
			return a.Record.Area == area
		})
	}
	return CoverageAverages{
		All:            engine.MeanCoverage(annotated),
		Administrative: engine.MeanCoverage(inArea(recruiting.AreaAdministrative)),
		Operational:    engine.MeanCoverage(inArea(recruiting.AreaOperational)),
	}
}

// =============================================================================
// CHARTS
// =============================================================================

func (b *Builder) charts(hires []recruiting.Hire, reqs []recruiting.Requisition, topChannels int) Charts {
	hired := engine.Where(hires, func(h recruiting.Hire) bool { return h.Hired > 0 })
	hiredCount := func(h recruiting.Hire) int { return h.Hired }

	open := engine.Where(reqs, func(r recruiting.Requisition) bool { return r.Requested > 0 })
	requested := func(r recruiting.Requisition) int { return r.Requested }

	var c Charts
	c.HiresByRecruiter = engine.GroupSum(hired, func(h recruiting.Hire) string {
		return b.Directory.Identity(h.Recruiter)
	}, hiredCount)
	c.HiresByChannel = engine.WithPercentages(
		engine.TopN(engine.GroupSum(hired, func(h recruiting.Hire) string { return h.Channel }, hiredCount), topChannels), 1)

	for _, mt := range engine.MonthSeries(hired, recruiting.HireDate, hiredCount) {
		c.HiresByMonth = append(c.HiresByMonth, MonthPoint{Month: mt.Month, Label: MonthLabel(mt.Month), Value: mt.Value})
	}

	c.VacanciesByCompany = engine.GroupSum(open, func(r recruiting.Requisition) string {
		return b.shortName(r.Company)
	}, requested)
	c.VacancyDetail = vacancyDetail(open)
	c.VacanciesByArea = engine.GroupSum(open, func(r recruiting.Requisition) string { return r.Area }, requested)
	c.Funnel = engine.GroupSum(open, func(r recruiting.Requisition) string { return r.Phase }, requested)
	return c
}

func (b *Builder) shortName(company string) string {
	if short, ok := b.CompanyShortNames[company]; ok {
		return short
	}
	return company
}

// vacancyDetail groups open vacancies by company, position and site.
func vacancyDetail(open []recruiting.Requisition) []VacancyDetail {
	const sep = "\x00"
	buckets := engine.GroupSum(open, func(r recruiting.Requisition) string {
		return r.Company + sep + r.Position + sep + r.Site
	}, func(r recruiting.Requisition) int { return r.Requested })

	index := make(map[string]recruiting.Requisition, len(open))
	for _, r := range open {
		index[r.Company+sep+r.Position+sep+r.Site] = r
	}

	out := make([]VacancyDetail, 0, len(buckets))
	for _, bk := range buckets {
		r := index[bk.Key]
		out = append(out, VacancyDetail{Company: r.Company, Position: r.Position, Site: r.Site, Vacancies: bk.Value})
	}
	return out
}
