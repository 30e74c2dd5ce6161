/*
handlers.go - HTTP API handlers for the talent acquisition tracker

PURPOSE:
  Exposes record registration, the dashboard and the spreadsheet import
  via REST API. Handles HTTP request/response and JSON serialization, and
  delegates to the recruiting service, the dashboard builder and the
  importer.

ENDPOINTS:
  Records:
    GET    /api/hires                  List hires (optional period/recruiter)
    POST   /api/hires                  Register a hire
    GET    /api/terminations           List terminations (optional period)
    POST   /api/terminations           Register a termination
    PUT    /api/terminations/{id}      Update a termination
    GET    /api/requisitions           List requisitions with coverage
    POST   /api/requisitions           Register a requisition
    PUT    /api/requisitions/{id}      Update a requisition
    GET    /api/records                Master record table
    GET    /api/recruiters             Recruiter picker options

  Reporting:
    GET    /api/dashboard              Metrics, coverage and charts
    GET    /api/periods/resolve        Resolve a period selection
    GET    /api/periods/options        Period picker options for a year

  Import:
    POST   /api/import                 Import an .xlsx (?preview=N to dry-run)
    GET    /api/import/runs            Drop-folder import history

PERIOD QUERY PARAMETERS:
  mode=all|year|quarter|month|week|range (or the picker labels)
  year, quarter, month, week: integers
  from, to: dates (YYYY-MM-DD or dd/mm/yyyy)
  recruiter: first name, or TODOS

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid period, unreadable upload
  - 404: Record not found
  - 409: Duplicate system ID
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/talent-tracker/dashboard"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/importer"
	"github.com/warp/talent-tracker/recruiting"
	"go.uber.org/zap"
)

// maxUploadBytes bounds the multipart form kept in memory.
const maxUploadBytes = 32 << 20

var (
	// ErrInvalidDate is returned for a date field that cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidID is returned for a non-numeric {id} path parameter.
	ErrInvalidID = errors.New("invalid id")
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *recruiting.Service
	Dashboard *dashboard.Builder
	Importer  *importer.Importer
	// Scheduler is the optional drop-folder importer.
	Scheduler *importer.Scheduler
	// TopChannels limits the channel chart; 0 shows every channel.
	TopChannels int

	log *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around the service and dashboard builder.
func NewHandler(svc *recruiting.Service, board *dashboard.Builder, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Service:   svc,
		Dashboard: board,
		Importer:  importer.New(svc, log),
		log:       log.Named("api"),
	}
}

func (h *Handler) store() recruiting.Store { return h.Service.Store() }

func (h *Handler) calendar() engine.Calendar { return h.Service.Calendar() }

// =============================================================================
// HIRE HANDLERS
// =============================================================================

// ListHires returns hires, optionally narrowed by period and recruiter.
func (h *Handler) ListHires(w http.ResponseWriter, r *http.Request) {
	sel, err := h.parseSelection(r.URL.Query())
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	hires, err := h.store().ListHires(r.Context())
	if err != nil {
		h.fail(w, "Failed to list hires", err)
		return
	}

	hires = engine.FilterByRecruiter(h.Dashboard.Directory, hires, recruiting.HireRecruiter, r.URL.Query().Get("recruiter"))
	hires, err = engine.FilterByPeriod(hires, recruiting.HireDate, sel)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(hires))
}

// CreateHire registers a hire.
func (h *Handler) CreateHire(w http.ResponseWriter, r *http.Request) {
	var req HireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	hiredOn, err := h.parseDate("hired_on", req.HiredOn)
	if err != nil {
		h.fail(w, "Invalid hire", err)
		return
	}

	hire, err := h.Service.RegisterHire(r.Context(), recruiting.Hire{
		HiredOn:      hiredOn,
		Company:      req.Company,
		Position:     req.Position,
		Site:         req.Site,
		Area:         req.Area,
		Hired:        req.Hired,
		Channel:      req.Channel,
		Recruiter:    req.Recruiter,
		Confidential: req.Confidential,
	})
	if err != nil {
		h.fail(w, "Failed to register hire", err)
		return
	}
	writeJSON(w, http.StatusCreated, hire)
}

// =============================================================================
// TERMINATION HANDLERS
// =============================================================================

// ListTerminations returns terminations, optionally narrowed by period.
func (h *Handler) ListTerminations(w http.ResponseWriter, r *http.Request) {
	sel, err := h.parseSelection(r.URL.Query())
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	terms, err := h.store().ListTerminations(r.Context())
	if err != nil {
		h.fail(w, "Failed to list terminations", err)
		return
	}
	terms, err = engine.FilterByPeriod(terms, recruiting.TerminationDate, sel)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(terms))
}

// CreateTermination registers a termination.
func (h *Handler) CreateTermination(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decodeTermination(w, r)
	if !ok {
		return
	}
	term, err := h.Service.RegisterTermination(r.Context(), t)
	if err != nil {
		h.fail(w, "Failed to register termination", err)
		return
	}
	writeJSON(w, http.StatusCreated, term)
}

// UpdateTermination replaces an existing termination.
func (h *Handler) UpdateTermination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, "Invalid termination id", err)
		return
	}
	t, ok := h.decodeTermination(w, r)
	if !ok {
		return
	}
	t.ID = id

	term, err := h.Service.UpdateTermination(r.Context(), t)
	if err != nil {
		h.fail(w, "Failed to update termination", err)
		return
	}
	writeJSON(w, http.StatusOK, term)
}

func (h *Handler) decodeTermination(w http.ResponseWriter, r *http.Request) (recruiting.Termination, bool) {
	var req TerminationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return recruiting.Termination{}, false
	}

	t := recruiting.Termination{
		Position: req.Position,
		Company:  req.Company,
		Site:     req.Site,
		Area:     req.Area,
		Kind:     recruiting.TerminationKind(req.Kind),
		Reason:   req.Reason,
	}
	var err error
	if t.TerminatedOn, err = h.parseDate("terminated_on", req.TerminatedOn); err == nil {
		if t.JoinedOn, err = h.parseDate("joined_on", req.JoinedOn); err == nil {
			t.RegisteredOn, err = h.parseDate("registered_on", req.RegisteredOn)
		}
	}
	if err != nil {
		h.fail(w, "Invalid termination", err)
		return recruiting.Termination{}, false
	}
	return t, true
}

// =============================================================================
// REQUISITION HANDLERS
// =============================================================================

// ListRequisitions returns requisitions annotated with state and coverage
// days. Optional filters: period (on the request date), recruiter, and
// state=open|closed|unknown.
func (h *Handler) ListRequisitions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := h.parseSelection(q)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	reqs, err := h.store().ListRequisitions(r.Context())
	if err != nil {
		h.fail(w, "Failed to list requisitions", err)
		return
	}

	reqs = engine.FilterByRecruiter(h.Dashboard.Directory, reqs, recruiting.RequisitionRecruiter, q.Get("recruiter"))
	reqs, err = engine.FilterByPeriod(reqs, recruiting.RequisitionDate, sel)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}

	annotated := engine.Annotate(h.calendar(), reqs, recruiting.RequisitionCoverage)
	if state := q.Get("state"); state != "" {
		annotated = engine.Where(annotated, func(a engine.Annotated[recruiting.Requisition]) bool {
			return string(a.State) == state
		})
	}
	writeJSON(w, http.StatusOK, toRequisitionDTOs(annotated))
}

// CreateRequisition registers a requisition.
func (h *Handler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequisition(w, r)
	if !ok {
		return
	}
	created, err := h.Service.RegisterRequisition(r.Context(), req)
	if err != nil {
		h.fail(w, "Failed to register requisition", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.annotate(created))
}

// UpdateRequisition replaces an existing requisition.
func (h *Handler) UpdateRequisition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, "Invalid requisition id", err)
		return
	}
	req, ok := h.decodeRequisition(w, r)
	if !ok {
		return
	}
	req.ID = id

	updated, err := h.Service.UpdateRequisition(r.Context(), req)
	if err != nil {
		h.fail(w, "Failed to update requisition", err)
		return
	}
	writeJSON(w, http.StatusOK, h.annotate(updated))
}

func (h *Handler) annotate(req recruiting.Requisition) RequisitionDTO {
	return toRequisitionDTOs(engine.Annotate(h.calendar(), []recruiting.Requisition{req}, recruiting.RequisitionCoverage))[0]
}

func (h *Handler) decodeRequisition(w http.ResponseWriter, r *http.Request) (recruiting.Requisition, bool) {
	var body RequisitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return recruiting.Requisition{}, false
	}

	req := recruiting.Requisition{
		SystemID:        body.SystemID,
		RequestKind:     body.RequestKind,
		Status:          body.Status,
		Phase:           body.Phase,
		Position:        body.Position,
		Site:            body.Site,
		Company:         body.Company,
		Area:            body.Area,
		Requested:       body.Requested,
		Filled:          body.Filled,
		Recruiter:       body.Recruiter,
		Comments:        body.Comments,
		RecruitmentKind: body.RecruitmentKind,
		Channel:         body.Channel,
		Confidential:    body.Confidential,
	}
	dates := []struct {
		name string
		raw  string
		dst  **engine.Day
	}{
		{"requested_on", body.RequestedOn, &req.RequestedOn},
		{"progress_on", body.ProgressOn, &req.ProgressOn},
		{"authorized_on", body.AuthorizedOn, &req.AuthorizedOn},
		{"filled_on", body.FilledOn, &req.FilledOn},
	}
	for _, d := range dates {
		day, err := h.parseDate(d.name, d.raw)
		if err != nil {
			h.fail(w, "Invalid requisition", err)
			return recruiting.Requisition{}, false
		}
		*d.dst = day
	}
	return req, true
}

// =============================================================================
// MASTER RECORDS AND RECRUITERS
// =============================================================================

// ListRecords returns the master record table, optionally one kind only.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	masters, err := h.store().ListMasters(r.Context())
	if err != nil {
		h.fail(w, "Failed to list records", err)
		return
	}

	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := recruiting.ParseKind(raw)
		if err != nil {
			h.fail(w, "Invalid kind", err)
			return
		}
		masters = engine.Where(masters, func(m recruiting.Master) bool { return m.Kind == kind })
	}

	dtos := make([]MasterDTO, len(masters))
	for i, m := range masters {
		dtos[i] = toMasterDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListRecruiters returns TODOS followed by every recruiter identity seen on
// hires and requisitions.
func (h *Handler) ListRecruiters(w http.ResponseWriter, r *http.Request) {
	snap, err := recruiting.LoadSnapshot(r.Context(), h.store())
	if err != nil {
		h.fail(w, "Failed to load records", err)
		return
	}

	seen := make(map[string]bool)
	add := func(name string) {
		if recruiting.NormalizeText(name) == recruiting.Unspecified {
			return
		}
		if id := h.Dashboard.Directory.Identity(name); id != "" {
			seen[id] = true
		}
	}
	for _, hire := range snap.Hires {
		add(hire.Recruiter)
	}
	for _, req := range snap.Requisitions {
		add(req.Recruiter)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, append([]string{engine.AllRecruiters}, names...))
}

// =============================================================================
// DASHBOARD AND PERIODS
// =============================================================================

// GetDashboard computes the dashboard for the selected period and recruiter.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := h.parseSelection(q)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	snap, err := recruiting.LoadSnapshot(r.Context(), h.store())
	if err != nil {
		h.fail(w, "Failed to load records", err)
		return
	}

	report, err := h.Dashboard.Build(snap, dashboard.Query{
		Selection:   sel,
		Recruiter:   q.Get("recruiter"),
		TopChannels: h.TopChannels,
	})
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(report))
}

// ResolvePeriod returns the concrete interval of a period selection.
func (h *Handler) ResolvePeriod(w http.ResponseWriter, r *http.Request) {
	sel, err := h.parseSelection(r.URL.Query())
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	period, err := dashboard.Describe(sel)
	if err != nil {
		h.fail(w, "Invalid period", err)
		return
	}
	writeJSON(w, http.StatusOK, toIntervalDTO(period))
}

// PeriodOptions returns what the period picker offers for ?year= (default:
// the current year).
func (h *Handler) PeriodOptions(w http.ResponseWriter, r *http.Request) {
	today := h.calendar().Today()
	year := today.Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(w, "Invalid year", &engine.InvalidPeriodError{Mode: engine.ModeYear, Reason: fmt.Sprintf("year %q", raw)})
			return
		}
		year = n
	}

	snap, err := recruiting.LoadSnapshot(r.Context(), h.store())
	if err != nil {
		h.fail(w, "Failed to load records", err)
		return
	}

	opts := PeriodOptionsDTO{
		Years:        engine.AvailableYears(today, snap.Years()...),
		Year:         year,
		Months:       dashboard.MonthLabels(),
		DefaultMonth: engine.DefaultMonth(year, today),
		Weeks:        engine.WeekOptions(year),
		DefaultWeek:  engine.DefaultWeek(year, today),
		Today:        today.String(),
	}
	for q := 1; q <= 4; q++ {
		iv, err := engine.QuarterRange(year, q)
		if err != nil {
			h.fail(w, "Invalid year", err)
			return
		}
		opts.Quarters = append(opts.Quarters, QuarterOptionDTO{
			Quarter: q,
			Label:   engine.QuarterLabel(q),
			Start:   iv.Start.String(),
			End:     iv.End.String(),
		})
	}
	writeJSON(w, http.StatusOK, opts)
}

// =============================================================================
// IMPORT
// =============================================================================

// Import reads the uploaded "file" and imports it. With ?preview=N it only
// returns the first N rows.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing upload field \"file\"", err)
		return
	}
	defer file.Close()

	sheet, err := importer.Read(file)
	if err != nil {
		h.fail(w, "Failed to read workbook", err)
		return
	}

	if raw := r.URL.Query().Get("preview"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid preview size", err)
			return
		}
		writeJSON(w, http.StatusOK, ImportPreviewDTO{
			Sheet:   sheet.Name,
			Headers: sheet.Headers,
			Total:   sheet.Len(),
			Rows:    sheet.Preview(n),
		})
		return
	}

	res, err := h.Importer.Import(r.Context(), sheet)
	if err != nil {
		h.fail(w, "Import interrupted", err)
		return
	}
	writeJSON(w, http.StatusOK, toImportResultDTO(res))
}

// ListImportRuns returns the drop-folder import history, newest first.
func (h *Handler) ListImportRuns(w http.ResponseWriter, r *http.Request) {
	dtos := []ImportRunDTO{}
	if h.Scheduler != nil {
		for _, run := range h.Scheduler.Runs() {
			dtos = append(dtos, toImportRunDTO(run))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseSelection reads the period query parameters. Missing scalars stay
// zero so the engine reports them as an invalid period.
func (h *Handler) parseSelection(q url.Values) (engine.Selection, error) {
	mode, err := engine.ParseMode(q.Get("mode"))
	if err != nil {
		return engine.Selection{}, err
	}
	sel := engine.Selection{Mode: mode}

	ints := []struct {
		name string
		dst  *int
	}{
		{"year", &sel.Year}, {"quarter", &sel.Quarter}, {"month", &sel.Month}, {"week", &sel.Week},
	}
	for _, p := range ints {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return engine.Selection{}, &engine.InvalidPeriodError{Mode: mode, Reason: fmt.Sprintf("%s %q is not a number", p.name, raw)}
		}
		*p.dst = n
	}

	days := []struct {
		name string
		dst  *engine.Day
	}{
		{"from", &sel.From}, {"to", &sel.To},
	}
	for _, p := range days {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		d, ok := h.calendar().Parse(raw)
		if !ok {
			return engine.Selection{}, &engine.InvalidPeriodError{Mode: mode, Reason: fmt.Sprintf("%s %q is not a date", p.name, raw)}
		}
		*p.dst = d
	}
	return sel, nil
}

// parseDate reads an optional date field. Empty means absent.
func (h *Handler) parseDate(field, raw string) (*engine.Day, error) {
	if raw == "" {
		return nil, nil
	}
	d, ok := h.calendar().Parse(raw)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", field, raw, ErrInvalidDate)
	}
	return &d, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidID)
	}
	return id, nil
}

// errorStatus maps domain errors to an HTTP status and a stable code.
func errorStatus(err error) (int, string) {
	switch {
	case engine.IsClientError(err):
		return http.StatusBadRequest, "invalid_period"
	case recruiting.IsClientError(err),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, importer.ErrUnreadable), errors.Is(err, importer.ErrEmptyWorkbook):
		return http.StatusBadRequest, "invalid_workbook"
	case recruiting.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case recruiting.IsConflict(err):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal"
}

// fail writes err with the status it maps to. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(message, zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
