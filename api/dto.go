/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The domain types in
  recruiting/ and dashboard/ stay free of presentation choices; these types
  decide how dates, percentages and undefined values look on the wire.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE CONVENTIONS:
  - Dates are "YYYY-MM-DD" strings, null when absent
  - Percentages are decimal strings ("-78.57"), null when undefined
  - Coverage averages carry the rounded whole-day value, 0 when undefined

SEE ALSO:
  - handlers.go: Uses these types
  - dashboard/dashboard.go: Report
*/
package api

import (
	"time"

	"github.com/warp/talent-tracker/dashboard"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/importer"
	"github.com/warp/talent-tracker/recruiting"
)

// =============================================================================
// RECORDS
// =============================================================================

// MasterDTO is one row of the master record table.
type MasterDTO struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"created_at"`
	Position  string `json:"position"`
	Company   string `json:"company"`
	Site      string `json:"site"`
	Area      string `json:"area"`
}

// HireRequest is the body of POST /api/hires.
type HireRequest struct {
	HiredOn      string `json:"hired_on"`
	Company      string `json:"company"`
	Position     string `json:"position"`
	Site         string `json:"site"`
	Area         string `json:"area"`
	Hired        int    `json:"hired"`
	Channel      string `json:"channel"`
	Recruiter    string `json:"recruiter"`
	Confidential bool   `json:"confidential"`
}

// TerminationRequest is the body of POST and PUT /api/terminations.
type TerminationRequest struct {
	TerminatedOn string `json:"terminated_on"`
	JoinedOn     string `json:"joined_on"`
	RegisteredOn string `json:"registered_on"`
	Position     string `json:"position"`
	Company      string `json:"company"`
	Site         string `json:"site"`
	Area         string `json:"area"`
	Kind         string `json:"kind"`
	Reason       string `json:"reason"`
}

// RequisitionRequest is the body of POST and PUT /api/requisitions.
type RequisitionRequest struct {
	SystemID        *int64 `json:"system_id"`
	RequestedOn     string `json:"requested_on"`
	ProgressOn      string `json:"progress_on"`
	AuthorizedOn    string `json:"authorized_on"`
	FilledOn        string `json:"filled_on"`
	RequestKind     string `json:"request_kind"`
	Status          string `json:"status"`
	Phase           string `json:"phase"`
	Position        string `json:"position"`
	Site            string `json:"site"`
	Company         string `json:"company"`
	Area            string `json:"area"`
	Requested       int    `json:"requested"`
	Filled          int    `json:"filled"`
	Recruiter       string `json:"recruiter"`
	Comments        string `json:"comments"`
	RecruitmentKind string `json:"recruitment_kind"`
	Channel         string `json:"channel"`
	Confidential    bool   `json:"confidential"`
}

// RequisitionDTO is a stored requisition with its derived coverage.
type RequisitionDTO struct {
	recruiting.Requisition
	State        string `json:"state"`
	CoverageDays *int   `json:"coverage_days"`
}

// =============================================================================
// PERIODS
// =============================================================================

// IntervalDTO is a resolved period selection.
type IntervalDTO struct {
	Mode    string  `json:"mode"`
	Bounded bool    `json:"bounded"`
	Start   *string `json:"start"`
	End     *string `json:"end"`
	Label   string  `json:"label"`
}

// QuarterOptionDTO is one entry of the quarter picker.
type QuarterOptionDTO struct {
	Quarter int    `json:"quarter"`
	Label   string `json:"label"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// PeriodOptionsDTO is everything the period picker offers for one year.
type PeriodOptionsDTO struct {
	Years        []int              `json:"years"`
	Year         int                `json:"year"`
	Quarters     []QuarterOptionDTO `json:"quarters"`
	Months       []string           `json:"months"`
	DefaultMonth int                `json:"default_month"`
	Weeks        []int              `json:"weeks"`
	DefaultWeek  int                `json:"default_week"`
	Today        string             `json:"today"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

// RatioDTO is a percentage that is null when undefined.
type RatioDTO struct {
	Value   *string `json:"value"`
	Defined bool    `json:"defined"`
}

// MetricsDTO are the headline cards.
type MetricsDTO struct {
	Hired               int      `json:"hired"`
	Terminations        int      `json:"terminations"`
	OpenVacancies       int      `json:"open_vacancies"`
	VacancyBaseline     int      `json:"vacancy_baseline"`
	VacancyDelta        RatioDTO `json:"vacancy_delta"`
	RequisitionsVsHires RatioDTO `json:"requisitions_vs_hires"`
}

// MeanDTO is an average coverage duration.
type MeanDTO struct {
	Days    int64   `json:"days"`
	Exact   *string `json:"exact"`
	Samples int     `json:"samples"`
}

// CoverageDTO splits a coverage average by area.
type CoverageDTO struct {
	All            MeanDTO `json:"all"`
	Administrative MeanDTO `json:"administrative"`
	Operational    MeanDTO `json:"operational"`
}

// BucketDTO is one bar or slice of a chart.
type BucketDTO struct {
	Key     string  `json:"key"`
	Value   int     `json:"value"`
	Percent *string `json:"percent,omitempty"`
}

// MonthPointDTO is one month of the hires-by-month chart.
type MonthPointDTO struct {
	Month int    `json:"month"`
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ChartsDTO holds every chart series.
type ChartsDTO struct {
	HiresByRecruiter   []BucketDTO               `json:"hires_by_recruiter"`
	HiresByChannel     []BucketDTO               `json:"hires_by_channel"`
	HiresByMonth       []MonthPointDTO           `json:"hires_by_month"`
	VacanciesByCompany []BucketDTO               `json:"vacancies_by_company"`
	VacancyDetail      []dashboard.VacancyDetail `json:"vacancy_detail"`
	VacanciesByArea    []BucketDTO               `json:"vacancies_by_area"`
	Funnel             []BucketDTO               `json:"funnel"`
}

// DashboardDTO is the response of GET /api/dashboard.
type DashboardDTO struct {
	Period         IntervalDTO       `json:"period"`
	Recruiter      string            `json:"recruiter"`
	Years          []int             `json:"years"`
	Metrics        MetricsDTO        `json:"metrics"`
	OpenCoverage   CoverageDTO       `json:"open_coverage"`
	ClosedCoverage CoverageDTO       `json:"closed_coverage"`
	HireDetail     []recruiting.Hire `json:"hire_detail"`
	Charts         ChartsDTO         `json:"charts"`
}

// =============================================================================
// IMPORT AND SCENARIOS
// =============================================================================

// RowErrorDTO is one failed import row.
type RowErrorDTO struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResultDTO is the response of POST /api/import.
type ImportResultDTO struct {
	BatchID string        `json:"batch_id"`
	New     int           `json:"new"`
	Updated int           `json:"updated"`
	Failed  int           `json:"failed"`
	Errors  []RowErrorDTO `json:"errors"`
}

// ImportPreviewDTO is the response of POST /api/import?preview=N.
type ImportPreviewDTO struct {
	Sheet   string              `json:"sheet"`
	Headers []string            `json:"headers"`
	Total   int                 `json:"total"`
	Rows    []map[string]string `json:"rows"`
}

// ImportRunDTO is one import performed by the folder watcher.
type ImportRunDTO struct {
	File        string           `json:"file"`
	StartedAt   string           `json:"started_at"`
	CompletedAt string           `json:"completed_at,omitempty"`
	Status      string           `json:"status"`
	Error       string           `json:"error,omitempty"`
	Result      *ImportResultDTO `json:"result,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toMasterDTO(m recruiting.Master) MasterDTO {
	return MasterDTO{
		ID:        m.ID,
		Kind:      string(m.Kind),
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		Position:  m.Position,
		Company:   m.Company,
		Site:      m.Site,
		Area:      m.Area,
	}
}

func toRequisitionDTOs(annotated []engine.Annotated[recruiting.Requisition]) []RequisitionDTO {
	dtos := make([]RequisitionDTO, len(annotated))
	for i, a := range annotated {
		dtos[i] = RequisitionDTO{Requisition: a.Record, State: string(a.State)}
		if a.Defined {
			days := a.Days
			dtos[i].CoverageDays = &days
		}
	}
	return dtos
}

func toIntervalDTO(p dashboard.Period) IntervalDTO {
	dto := IntervalDTO{Mode: string(p.Mode), Bounded: p.Bounded, Label: p.Label}
	if p.Bounded {
		dto.Start = strPtr(p.Start.String())
		dto.End = strPtr(p.End.String())
	}
	return dto
}

func toRatioDTO(r dashboard.Ratio) RatioDTO {
	if !r.Defined {
		return RatioDTO{}
	}
	return RatioDTO{Value: strPtr(r.Value.StringFixed(2)), Defined: true}
}

func toMeanDTO(m engine.Mean) MeanDTO {
	dto := MeanDTO{Days: m.Rounded(), Samples: m.Samples}
	if m.Defined {
		dto.Exact = strPtr(m.Value.StringFixed(2))
	}
	return dto
}

func toCoverageDTO(c dashboard.CoverageAverages) CoverageDTO {
	return CoverageDTO{
		All:            toMeanDTO(c.All),
		Administrative: toMeanDTO(c.Administrative),
		Operational:    toMeanDTO(c.Operational),
	}
}

func toBucketDTOs(buckets []engine.Bucket, withPercent bool) []BucketDTO {
	dtos := make([]BucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = BucketDTO{Key: b.Key, Value: b.Value}
		if withPercent {
			dtos[i].Percent = strPtr(b.Percent.StringFixed(1))
		}
	}
	return dtos
}

func toDashboardDTO(r *dashboard.Report) DashboardDTO {
	months := make([]MonthPointDTO, len(r.Charts.HiresByMonth))
	for i, m := range r.Charts.HiresByMonth {
		months[i] = MonthPointDTO{Month: int(m.Month), Label: m.Label, Value: m.Value}
	}
	detail := r.Charts.VacancyDetail
	if detail == nil {
		detail = []dashboard.VacancyDetail{}
	}
	hires := r.HireDetail
	if hires == nil {
		hires = []recruiting.Hire{}
	}

	return DashboardDTO{
		Period:    toIntervalDTO(r.Period),
		Recruiter: r.Recruiter,
		Years:     r.Years,
		Metrics: MetricsDTO{
			Hired:               r.Metrics.Hired,
			Terminations:        r.Metrics.Terminations,
			OpenVacancies:       r.Metrics.OpenVacancies,
			VacancyBaseline:     r.Metrics.VacancyBaseline,
			VacancyDelta:        toRatioDTO(r.Metrics.VacancyDelta),
			RequisitionsVsHires: toRatioDTO(r.Metrics.RequisitionsVsHires),
		},
		OpenCoverage:   toCoverageDTO(r.OpenCoverage),
		ClosedCoverage: toCoverageDTO(r.ClosedCoverage),
		HireDetail:     hires,
		Charts: ChartsDTO{
			HiresByRecruiter:   toBucketDTOs(r.Charts.HiresByRecruiter, false),
			HiresByChannel:     toBucketDTOs(r.Charts.HiresByChannel, true),
			HiresByMonth:       months,
			VacanciesByCompany: toBucketDTOs(r.Charts.VacanciesByCompany, false),
			VacancyDetail:      detail,
			VacanciesByArea:    toBucketDTOs(r.Charts.VacanciesByArea, false),
			Funnel:             toBucketDTOs(r.Charts.Funnel, false),
		},
	}
}

func toImportResultDTO(res *importer.Result) ImportResultDTO {
	dto := ImportResultDTO{
		BatchID: res.BatchID,
		New:     res.New,
		Updated: res.Updated,
		Failed:  res.Failed,
		Errors:  make([]RowErrorDTO, len(res.Errors)),
	}
	for i, e := range res.Errors {
		dto.Errors[i] = RowErrorDTO{Row: e.Row, Error: e.Err.Error()}
	}
	return dto
}

func toImportRunDTO(run importer.Run) ImportRunDTO {
	dto := ImportRunDTO{
		File:      run.File,
		StartedAt: run.StartedAt.Format(time.RFC3339),
		Status:    string(run.Status),
		Error:     run.Error,
	}
	if !run.CompletedAt.IsZero() {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	if run.Result != nil {
		res := toImportResultDTO(run.Result)
		dto.Result = &res
	}
	return dto
}

func strPtr(s string) *string {
	return &s
}
