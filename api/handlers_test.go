/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Hire, termination and requisition registration and listing
- Error status mapping (400/404/409)
- Dashboard and period endpoints
- Spreadsheet import and preview
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/talent-tracker/dashboard"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/importer"
	"github.com/warp/talent-tracker/recruiting"
	"github.com/warp/talent-tracker/store/memory"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// setupTestHandler returns a handler over an empty in-memory store whose
// calendar is fixed at 2024-03-15 in Mexico City.
func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	loc, err := time.LoadLocation(engine.DefaultTimezone)
	require.NoError(t, err)
	cal := engine.Calendar{Location: loc, Clock: engine.FixedClock{At: time.Date(2024, 3, 15, 12, 0, 0, 0, loc)}}

	svc := recruiting.NewService(memory.New(), cal, zap.NewNop())
	h := NewHandler(svc, dashboard.NewBuilder(cal, engine.NewRecruiterDirectory(nil)), zap.NewNop())
	return h, NewRouter(h, []string{"*"}, zap.NewNop())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// HIRES
// =============================================================================

func TestHires_CreateAndList(t *testing.T) {
	_, router := setupTestHandler(t)

	// GIVEN: two hires, one by an aliased recruiter
	rec := doJSON(t, router, http.MethodPost, "/api/hires", map[string]any{
		"hired_on": "2024-03-01", "position": " operador  de línea ", "company": "acme",
		"hired": 2, "recruiter": "marta lopez", "channel": "occ",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	hire := decode[recruiting.Hire](t, rec)
	assert.Equal(t, "OPERADOR DE LINEA", hire.Position)
	assert.Equal(t, "MARTA LOPEZ", hire.Recruiter)
	assert.Equal(t, recruiting.Unspecified, hire.Site)

	rec = doJSON(t, router, http.MethodPost, "/api/hires", map[string]any{
		"hired_on": "05/02/2024", "position": "chofer", "hired": 1, "recruiter": "Guadalupe",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN/THEN: narrowing by month and recruiter applies the alias
	rec = doJSON(t, router, http.MethodGet, "/api/hires?mode=month&year=2024&month=3&recruiter=helen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]recruiting.Hire](t, rec), 1)

	rec = doJSON(t, router, http.MethodGet, "/api/hires?mode=year&year=2024", nil)
	assert.Len(t, decode[[]recruiting.Hire](t, rec), 2)

	// AND: the alias itself matches nothing and still encodes as a list
	rec = doJSON(t, router, http.MethodGet, "/api/hires?recruiter=marta", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHires_DefaultsDateToToday(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/hires", map[string]any{"position": "chofer", "hired": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	hire := decode[recruiting.Hire](t, rec)
	require.NotNil(t, hire.HiredOn)
	assert.Equal(t, "2024-03-15", hire.HiredOn.String())
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestErrors_StatusAndCode(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing position", http.MethodPost, "/api/hires", map[string]any{"hired": 1}, http.StatusBadRequest, "validation"},
		{"negative count", http.MethodPost, "/api/requisitions", map[string]any{"position": "x", "requested": -1}, http.StatusBadRequest, "validation"},
		{"bad date", http.MethodPost, "/api/hires", map[string]any{"position": "x", "hired_on": "someday"}, http.StatusBadRequest, "validation"},
		{"malformed body", http.MethodPost, "/api/hires", "{", http.StatusBadRequest, ""},
		{"unknown termination kind", http.MethodPost, "/api/terminations", map[string]any{"position": "x", "kind": "otra"}, http.StatusBadRequest, "validation"},
		{"unknown record kind", http.MethodGet, "/api/records?kind=otro", nil, http.StatusBadRequest, "validation"},
		{"quarter out of range", http.MethodGet, "/api/dashboard?mode=quarter&year=2024&quarter=5", nil, http.StatusBadRequest, "invalid_period"},
		{"year not a number", http.MethodGet, "/api/dashboard?mode=year&year=abc", nil, http.StatusBadRequest, "invalid_period"},
		{"unknown mode", http.MethodGet, "/api/periods/resolve?mode=fortnight", nil, http.StatusBadRequest, "invalid_period"},
		{"range without dates", http.MethodGet, "/api/hires?mode=range", nil, http.StatusBadRequest, "invalid_period"},
		{"non-numeric id", http.MethodPut, "/api/requisitions/abc", map[string]any{"position": "x"}, http.StatusBadRequest, "validation"},
		{"missing requisition", http.MethodPut, "/api/requisitions/999", map[string]any{"position": "x"}, http.StatusNotFound, "not_found"},
		{"missing termination", http.MethodPut, "/api/terminations/999", map[string]any{"position": "x"}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestErrorStatus_Internal(t *testing.T) {
	status, code := errorStatus(fmt.Errorf("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", code)
}

// =============================================================================
// REQUISITIONS
// =============================================================================

func TestRequisitions_LifecycleAndCoverage(t *testing.T) {
	_, router := setupTestHandler(t)

	// GIVEN: an authorised requisition with three open positions
	rec := doJSON(t, router, http.MethodPost, "/api/requisitions", map[string]any{
		"system_id": 77, "requested_on": "2024-03-01", "authorized_on": "2024-03-05",
		"position": "soldador", "requested": 3, "recruiter": "helen",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[RequisitionDTO](t, rec)
	assert.Equal(t, string(engine.StateOpen), created.State)
	require.NotNil(t, created.CoverageDays)
	assert.Equal(t, 10, *created.CoverageDays, "open coverage runs from authorisation to today")

	// WHEN: the same ATS system ID is registered again
	rec = doJSON(t, router, http.MethodPost, "/api/requisitions", map[string]any{"system_id": 77, "position": "soldador"})

	// THEN: it conflicts
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[ErrorResponse](t, rec).Code)

	// WHEN: the requisition is filled
	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/requisitions/%d", created.ID), map[string]any{
		"requested_on": "2024-03-01", "authorized_on": "2024-03-05", "filled_on": "12/03/2024",
		"position": "soldador", "requested": 0, "filled": 3, "channel": "occ",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[RequisitionDTO](t, rec)

	// THEN: coverage freezes at the fill date and the system ID is kept
	assert.Equal(t, string(engine.StateClosed), updated.State)
	require.NotNil(t, updated.CoverageDays)
	assert.Equal(t, 7, *updated.CoverageDays)
	require.NotNil(t, updated.SystemID)
	assert.Equal(t, int64(77), *updated.SystemID)

	// AND: the state filter sees the change
	rec = doJSON(t, router, http.MethodGet, "/api/requisitions?state=closed", nil)
	assert.Len(t, decode[[]RequisitionDTO](t, rec), 1)
	rec = doJSON(t, router, http.MethodGet, "/api/requisitions?state=open", nil)
	assert.Empty(t, decode[[]RequisitionDTO](t, rec))
}

func TestRequisitions_UnfilledHasNoChannel(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/requisitions", map[string]any{
		"position": "chofer", "requested": 2, "channel": "occ", "filled_on": "2024-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[RequisitionDTO](t, rec)
	assert.Equal(t, recruiting.Unspecified, got.Channel)
	assert.Nil(t, got.FilledOn)
	require.NotNil(t, got.CoverageDays)
	assert.Equal(t, 0, *got.CoverageDays, "request date defaults to today")
}

// =============================================================================
// TERMINATIONS AND RECORDS
// =============================================================================

func TestTerminations_CreateUpdateList(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/terminations", map[string]any{
		"position": "chofer", "registered_on": "2024-03-10", "kind": "voluntaria", "reason": " cambio de ciudad ",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	term := decode[recruiting.Termination](t, rec)
	assert.Equal(t, recruiting.TerminationVoluntary, term.Kind)
	assert.Equal(t, "CAMBIO DE CIUDAD", term.Reason)

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/terminations/%d", term.ID), map[string]any{
		"position": "chofer de reparto", "kind": "inducida",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[recruiting.Termination](t, rec)
	assert.Equal(t, recruiting.TerminationInduced, updated.Kind)
	require.NotNil(t, updated.RegisteredOn)
	assert.Equal(t, "2024-03-10", updated.RegisteredOn.String(), "registration date is kept")

	rec = doJSON(t, router, http.MethodGet, "/api/terminations?mode=month&year=2024&month=3", nil)
	assert.Len(t, decode[[]recruiting.Termination](t, rec), 1)
	rec = doJSON(t, router, http.MethodGet, "/api/terminations?mode=month&year=2024&month=2", nil)
	assert.Empty(t, decode[[]recruiting.Termination](t, rec))

	// Master rows mirror the latest position.
	rec = doJSON(t, router, http.MethodGet, "/api/records?kind=baja", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	masters := decode[[]MasterDTO](t, rec)
	require.Len(t, masters, 1)
	assert.Equal(t, "CHOFER DE REPARTO", masters[0].Position)
	assert.Equal(t, string(recruiting.KindTermination), masters[0].Kind)
}

func TestRecruiters_AppliesAliases(t *testing.T) {
	h, router := setupTestHandler(t)
	ctx := context.Background()

	for _, name := range []string{"Marta López", "helen ruiz", "Lupita", "", "sin especificar"} {
		_, err := h.Service.RegisterHire(ctx, recruiting.Hire{Position: "chofer", Hired: 1, Recruiter: name})
		require.NoError(t, err)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/recruiters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{engine.AllRecruiters, "GUADALUPE", "HELEN"}, decode[[]string](t, rec))
}

// =============================================================================
// DASHBOARD AND PERIODS
// =============================================================================

func TestDashboard_Year(t *testing.T) {
	h, router := setupTestHandler(t)
	ctx := context.Background()

	// GIVEN: two hires this year and one authorised requisition with four open positions
	_, err := h.Service.RegisterHire(ctx, recruiting.Hire{
		HiredOn: engine.NewDay(2024, time.March, 1).Ptr(), Position: "operador", Hired: 2, Channel: "occ", Recruiter: "helen",
	})
	require.NoError(t, err)
	_, err = h.Service.RegisterRequisition(ctx, recruiting.Requisition{
		RequestedOn: engine.NewDay(2024, time.March, 1).Ptr(), AuthorizedOn: engine.NewDay(2024, time.March, 5).Ptr(),
		Position: "operador", Company: "acme", Area: recruiting.AreaOperational, Requested: 4, Phase: "entrevistas",
	})
	require.NoError(t, err)

	// WHEN: requesting the 2024 dashboard
	rec := doJSON(t, router, http.MethodGet, "/api/dashboard?mode=year&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[DashboardDTO](t, rec)

	// THEN: metrics and coverage reflect both records
	assert.Equal(t, "01/01/2024 - 31/12/2024", got.Period.Label)
	assert.Equal(t, 2, got.Metrics.Hired)
	assert.Equal(t, 4, got.Metrics.OpenVacancies)
	require.NotNil(t, got.Metrics.VacancyDelta.Value)
	assert.Equal(t, "-85.71", *got.Metrics.VacancyDelta.Value)
	require.NotNil(t, got.Metrics.RequisitionsVsHires.Value)
	assert.Equal(t, "50.00", *got.Metrics.RequisitionsVsHires.Value)

	assert.Equal(t, int64(10), got.OpenCoverage.Operational.Days)
	assert.Equal(t, 1, got.OpenCoverage.All.Samples)
	assert.Nil(t, got.OpenCoverage.Administrative.Exact, "no administrative samples")
	assert.Nil(t, got.ClosedCoverage.All.Exact)

	require.Len(t, got.Charts.HiresByChannel, 1)
	require.NotNil(t, got.Charts.HiresByChannel[0].Percent)
	assert.Equal(t, "100.0", *got.Charts.HiresByChannel[0].Percent)
	assert.Equal(t, []BucketDTO{{Key: "ENTREVISTAS", Value: 4}}, got.Charts.Funnel)
	assert.Equal(t, []int{2024}, got.Years)
}

func TestDashboard_EmptyIsNotAnError(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[DashboardDTO](t, rec)
	assert.Equal(t, "Todo el tiempo", got.Period.Label)
	assert.False(t, got.Period.Bounded)
	assert.False(t, got.Metrics.RequisitionsVsHires.Defined)
	assert.Nil(t, got.Metrics.RequisitionsVsHires.Value)
	assert.NotNil(t, got.HireDetail)
	assert.Equal(t, []int{2024}, got.Years, "current year when there is no data")
}

func TestPeriods_Resolve(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/periods/resolve?mode=Por+semana&year=2024&week=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[IntervalDTO](t, rec)
	assert.Equal(t, string(engine.ModeWeek), got.Mode)
	require.NotNil(t, got.Start)
	assert.Equal(t, "2024-01-01", *got.Start)
	assert.Equal(t, "2024-01-07", *got.End)
}

func TestPeriods_Options(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/periods/options", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[PeriodOptionsDTO](t, rec)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, "2024-03-15", got.Today)
	assert.Equal(t, 3, got.DefaultMonth)
	assert.Len(t, got.Months, 12)
	require.Len(t, got.Quarters, 4)
	assert.Equal(t, QuarterOptionDTO{Quarter: 2, Label: "T2", Start: "2024-04-01", End: "2024-06-30"}, got.Quarters[1])
	assert.Len(t, got.Weeks, 52)

	rec = doJSON(t, router, http.MethodGet, "/api/periods/options?year=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// IMPORT
// =============================================================================

func upload(t *testing.T, router http.Handler, path string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "ats.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func atsWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	rows := [][]any{
		{importer.ColSystemID, importer.ColRequestedOn, importer.ColPosition, importer.ColRequested, importer.ColFilled},
		{501, "2024-02-01", "Operador", 3, 0},
		{502, "2024-02-10", "", 1, 0},
		{503, "2024-02-12", "Chofer", 2, 1},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImport_PreviewThenImport(t *testing.T) {
	h, router := setupTestHandler(t)
	content := atsWorkbook(t)

	// WHEN: previewing
	rec := upload(t, router, "/api/import?preview=1", content)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[ImportPreviewDTO](t, rec)

	// THEN: nothing is stored
	assert.Equal(t, 3, preview.Total)
	require.Len(t, preview.Rows, 1)
	assert.Equal(t, "Operador", preview.Rows[0][importer.ColPosition])
	reqs, err := h.store().ListRequisitions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reqs)

	// WHEN: importing
	rec = upload(t, router, "/api/import", content)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ImportResultDTO](t, rec)

	// THEN: the row without a position fails alone
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 2, res.New)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)

	// AND: importing again reconciles by system ID
	rec = upload(t, router, "/api/import", content)
	res = decode[ImportResultDTO](t, rec)
	assert.Equal(t, 0, res.New)
	assert.Equal(t, 2, res.Updated)
}

func TestImport_RejectsNonWorkbook(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := upload(t, router, "/api/import", []byte("not a spreadsheet"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_workbook", decode[ErrorResponse](t, rec).Code)

	rec = doJSON(t, router, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportRuns_EmptyWithoutScheduler(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/import/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
