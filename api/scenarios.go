/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	recruiting data for demos. Each scenario registers hires, terminations
	and requisitions through the recruiting service, so normalisation and
	master rows behave exactly as for user input.

AVAILABLE SCENARIOS:

	dashboard-demo:  A year of activity across recruiters, companies and
	                 channels, with open and closed requisitions
	all-filled:      Every requisition closed; open-vacancy ratios undefined
	empty:           No records; every chart empty

Dates are relative to the calendar's today, so the current-year and
current-month views always have data.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "dashboard-demo"}

USAGE VIA CLI:

	talent seed dashboard-demo

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - cmd/server/main.go: seed command
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/recruiting"
)

// ErrUnknownScenario is returned for a scenario ID not in Scenarios.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "dashboard-demo",
		Name:        "Dashboard Demo",
		Description: "A year of hires, terminations and requisitions across three recruiters",
		Category:    "demo",
	},
	{
		ID:          "all-filled",
		Name:        "All Filled",
		Description: "Every requisition closed: no open vacancies, undefined ratios",
		Category:    "edge",
	},
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No records at all",
		Category:    "edge",
	},
}

// Scenarios returns the available scenarios.
func Scenarios() []ScenarioDTO {
	return append([]ScenarioDTO(nil), scenarios...)
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := SeedScenario(r.Context(), h.Service, req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		h.fail(w, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase deletes every record.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store().Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedScenario resets the store behind svc and registers the records of
// the scenario with the given ID.
func SeedScenario(ctx context.Context, svc *recruiting.Service, id string) error {
	var load func(context.Context, *recruiting.Service) error
	switch id {
	case "dashboard-demo":
		load = loadDashboardDemo
	case "all-filled":
		load = loadAllFilled
	case "empty":
		load = func(context.Context, *recruiting.Service) error { return nil }
	default:
		return fmt.Errorf("%q: %w", id, ErrUnknownScenario)
	}

	if err := svc.Store().Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := load(ctx, svc); err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadDashboardDemo(ctx context.Context, svc *recruiting.Service) error {
	today := svc.Calendar().Today()
	ago := func(days int) *engine.Day { return today.AddDays(-days).Ptr() }

	hires := []recruiting.Hire{
		{HiredOn: ago(400), Company: "DRAUBEN SA DE CV", Position: "Analista de nómina", Site: "CDMX", Area: recruiting.AreaAdministrative, Hired: 1, Channel: "LinkedIn", Recruiter: "Guadalupe Ríos"},
		{HiredOn: ago(200), Company: "ACME INDUSTRIAL SA DE CV", Position: "Operador de montacargas", Site: "León", Area: recruiting.AreaOperational, Hired: 3, Channel: "OCC", Recruiter: "Helen Ruiz"},
		{HiredOn: ago(120), Company: "DRAUBEN SA DE CV", Position: "Analista contable", Site: "CDMX", Area: recruiting.AreaAdministrative, Hired: 1, Channel: "LinkedIn", Recruiter: "Lupita Ríos"},
		{HiredOn: ago(60), Company: "ACME INDUSTRIAL SA DE CV", Position: "Ayudante general", Site: "León", Area: recruiting.AreaOperational, Hired: 5, Channel: "Referido", Recruiter: "Marta López"},
		{HiredOn: ago(20), Company: "LOGISTICA DEL BAJIO SA DE CV", Position: "Chofer", Site: "Silao", Area: recruiting.AreaOperational, Hired: 2, Channel: "OCC", Recruiter: "Sofía Méndez"},
		{HiredOn: ago(5), Company: "DRAUBEN SA DE CV", Position: "Gerente de planta", Site: "León", Area: recruiting.AreaAdministrative, Hired: 1, Channel: "Headhunter", Recruiter: "Helen Ruiz", Confidential: true},
	}
	for _, h := range hires {
		if _, err := svc.RegisterHire(ctx, h); err != nil {
			return err
		}
	}

	terminations := []recruiting.Termination{
		{TerminatedOn: ago(150), JoinedOn: ago(500), RegisteredOn: ago(148), Position: "Operador de montacargas", Company: "ACME INDUSTRIAL SA DE CV", Site: "León", Area: recruiting.AreaOperational, Kind: recruiting.TerminationVoluntary, Reason: "Cambio de residencia"},
		{TerminatedOn: ago(45), JoinedOn: ago(110), RegisteredOn: ago(44), Position: "Analista contable", Company: "DRAUBEN SA DE CV", Site: "CDMX", Area: recruiting.AreaAdministrative, Kind: recruiting.TerminationInduced, Reason: "Desempeño"},
		{TerminatedOn: ago(3), RegisteredOn: ago(2), Position: "Chofer", Company: "LOGISTICA DEL BAJIO SA DE CV", Site: "Silao", Area: recruiting.AreaOperational},
	}
	for _, t := range terminations {
		if _, err := svc.RegisterTermination(ctx, t); err != nil {
			return err
		}
	}

	sysID := func(n int64) *int64 { return &n }
	requisitions := []recruiting.Requisition{
		// Closed
		{SystemID: sysID(1001), RequestedOn: ago(230), AuthorizedOn: ago(225), FilledOn: ago(200), Position: "Operador de montacargas", Company: "ACME INDUSTRIAL SA DE CV", Site: "León", Area: recruiting.AreaOperational, Requested: 3, Filled: 3, Phase: "Cerrada", Status: "Cubierta", Recruiter: "Helen Ruiz", Channel: "OCC", RecruitmentKind: "Externo"},
		{SystemID: sysID(1002), RequestedOn: ago(170), AuthorizedOn: ago(160), FilledOn: ago(120), Position: "Analista contable", Company: "DRAUBEN SA DE CV", Site: "CDMX", Area: recruiting.AreaAdministrative, Requested: 1, Filled: 1, Phase: "Cerrada", Status: "Cubierta", Recruiter: "Guadalupe Ríos", Channel: "LinkedIn", RecruitmentKind: "Externo"},
		{SystemID: sysID(1003), RequestedOn: ago(90), FilledOn: ago(60), Position: "Ayudante general", Company: "ACME INDUSTRIAL SA DE CV", Site: "León", Area: recruiting.AreaOperational, Requested: 8, Filled: 5, Phase: "Entrevistas", Status: "En proceso", Recruiter: "Helen Ruiz", Channel: "Referido", RecruitmentKind: "Interno"},
		// Open
		{SystemID: sysID(1004), RequestedOn: ago(40), AuthorizedOn: ago(35), Position: "Chofer", Company: "LOGISTICA DEL BAJIO SA DE CV", Site: "Silao", Area: recruiting.AreaOperational, Requested: 4, Phase: "Reclutamiento", Status: "Abierta", Recruiter: "Sofía Méndez"},
		{SystemID: sysID(1005), RequestedOn: ago(25), AuthorizedOn: ago(20), Position: "Auxiliar administrativo", Company: "DRAUBEN SA DE CV", Site: "CDMX", Area: recruiting.AreaAdministrative, Requested: 2, Phase: "Entrevistas", Status: "Abierta", Recruiter: "Lupita Ríos"},
		{SystemID: sysID(1006), RequestedOn: ago(10), Position: "Soldador", Company: "ACME INDUSTRIAL SA DE CV", Site: "León", Area: recruiting.AreaOperational, Requested: 6, Phase: "Por autorizar", Status: "Abierta", Recruiter: "Helen Ruiz"},
		{SystemID: sysID(1007), RequestedOn: ago(8), AuthorizedOn: ago(8), Position: "Gerente de calidad", Company: "DRAUBEN SA DE CV", Site: "León", Area: recruiting.AreaAdministrative, Requested: 1, Phase: "Reclutamiento", Status: "Abierta", Recruiter: "Helen Ruiz", Confidential: true},
	}
	for _, r := range requisitions {
		if _, err := svc.RegisterRequisition(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func loadAllFilled(ctx context.Context, svc *recruiting.Service) error {
	today := svc.Calendar().Today()
	ago := func(days int) *engine.Day { return today.AddDays(-days).Ptr() }

	positions := []struct {
		name      string
		area      string
		requested int
		opened    int
		filled    int
		channel   string
	}{
		{"Operador de producción", recruiting.AreaOperational, 4, 60, 30, "OCC"},
		{"Ejecutivo de ventas", recruiting.AreaAdministrative, 2, 45, 15, "LinkedIn"},
		{"Almacenista", recruiting.AreaOperational, 1, 20, 2, "Referido"},
	}
	for _, p := range positions {
		_, err := svc.RegisterHire(ctx, recruiting.Hire{
			HiredOn:   ago(p.filled),
			Company:   "ACME INDUSTRIAL SA DE CV",
			Position:  p.name,
			Site:      "León",
			Area:      p.area,
			Hired:     p.requested,
			Channel:   p.channel,
			Recruiter: "Helen Ruiz",
		})
		if err != nil {
			return err
		}
		_, err = svc.RegisterRequisition(ctx, recruiting.Requisition{
			RequestedOn:  ago(p.opened),
			AuthorizedOn: ago(p.opened - 1),
			FilledOn:     ago(p.filled),
			Position:     p.name,
			Company:      "ACME INDUSTRIAL SA DE CV",
			Site:         "León",
			Area:         p.area,
			Requested:    p.requested,
			Filled:       p.requested,
			Phase:        "Cerrada",
			Status:       "Cubierta",
			Recruiter:    "Helen Ruiz",
			Channel:      p.channel,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
