/*
types.go - Record types of the talent-acquisition tracker

PURPOSE:
  The four collections the tracker keeps. Every detail row (hire,
  termination, requisition) hangs off a master row that records what kind
  of movement it was and where it happened.

COLLECTIONS:
  Master:       registros_rh - one row per registered movement
  Hire:         altas        - people hired
  Termination:  bajas        - people who left
  Requisition:  vacantes     - open or filled positions

OPTIONAL DATES:
  Every date is a *engine.Day. nil means "not recorded" (never authorised,
  not yet filled, no termination date...). There is no placeholder date.

DATE SELECTORS:
  Each collection is filtered by period on a fixed field:
    Requisitions        RequestedOn
    Closed requisitions FilledOn
    Hires               HiredOn
    Terminations        RegisteredOn

SEE ALSO:
  - engine/coverage.go: Coverage rule used by Requisition.State
  - service.go: Registration workflow
  - store.go: Persistence contract
*/
package recruiting

import (
	"time"

	"github.com/warp/talent-tracker/engine"
)

// Unspecified is written wherever a text value is unknown.
const Unspecified = "SIN ESPECIFICAR"

// Area labels the dashboard splits coverage averages on.
const (
	AreaAdministrative = "ADMINISTRATIVA"
	AreaOperational    = "OPERATIVA"
)

// =============================================================================
// MASTER
// =============================================================================

// Kind is the type of movement a master row records.
type Kind string

const (
	KindHire        Kind = "Alta"
	KindTermination Kind = "Baja"
	KindRequisition Kind = "Vacante"
)

// ParseKind accepts the stored labels case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch NormalizeText(s) {
	case "ALTA":
		return KindHire, nil
	case "BAJA":
		return KindTermination, nil
	case "VACANTE":
		return KindRequisition, nil
	}
	return "", &InvalidKindError{Field: "kind", Value: s}
}

// Master is one registered movement.
type Master struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Position  string    `json:"position"`
	Company   string    `json:"company"`
	Site      string    `json:"site"`
	Area      string    `json:"area"`
}

// =============================================================================
// HIRES
// =============================================================================

// Hire records people brought in for a position.
type Hire struct {
	ID           int64       `json:"id"`
	MasterID     int64       `json:"master_id"`
	HiredOn      *engine.Day `json:"hired_on"`
	Company      string      `json:"company"`
	Position     string      `json:"position"`
	Site         string      `json:"site"`
	Area         string      `json:"area"`
	Hired        int         `json:"hired"`
	Channel      string      `json:"channel"`
	Recruiter    string      `json:"recruiter"`
	Confidential bool        `json:"confidential"`
}

// HireDate selects the date hires are filtered on.
func HireDate(h Hire) (engine.Day, bool) { return engine.Deref(h.HiredOn) }

// =============================================================================
// TERMINATIONS
// =============================================================================

// TerminationKind classifies why someone left.
type TerminationKind string

const (
	TerminationInduced     TerminationKind = "INDUCIDA"
	TerminationVoluntary   TerminationKind = "VOLUNTARIA"
	TerminationUnspecified TerminationKind = Unspecified
)

// ParseTerminationKind maps free text to a kind. Empty means unspecified.
func ParseTerminationKind(s string) (TerminationKind, error) {
	switch NormalizeText(s) {
	case "":
		return TerminationUnspecified, nil
	case string(TerminationInduced):
		return TerminationInduced, nil
	case string(TerminationVoluntary):
		return TerminationVoluntary, nil
	case string(TerminationUnspecified):
		return TerminationUnspecified, nil
	}
	return "", &InvalidKindError{Field: "termination kind", Value: s}
}

// Termination records someone leaving.
type Termination struct {
	ID           int64           `json:"id"`
	MasterID     int64           `json:"master_id"`
	TerminatedOn *engine.Day     `json:"terminated_on"`
	JoinedOn     *engine.Day     `json:"joined_on"`
	RegisteredOn *engine.Day     `json:"registered_on"`
	Position     string          `json:"position"`
	Company      string          `json:"company"`
	Site         string          `json:"site"`
	Area         string          `json:"area"`
	Kind         TerminationKind `json:"kind"`
	Reason       string          `json:"reason"`
}

// TerminationDate selects the date terminations are filtered on.
func TerminationDate(t Termination) (engine.Day, bool) { return engine.Deref(t.RegisteredOn) }

// =============================================================================
// REQUISITIONS
// =============================================================================

// Requisition is a request to fill one or more positions.
// Requested counts the positions still open; Filled those already covered.
type Requisition struct {
	ID              int64       `json:"id"`
	MasterID        int64       `json:"master_id"`
	SystemID        *int64      `json:"system_id,omitempty"`
	RequestedOn     *engine.Day `json:"requested_on"`
	ProgressOn      *engine.Day `json:"progress_on"`
	AuthorizedOn    *engine.Day `json:"authorized_on"`
	FilledOn        *engine.Day `json:"filled_on"`
	RequestKind     string      `json:"request_kind"`
	Status          string      `json:"status"`
	Phase           string      `json:"phase"`
	Position        string      `json:"position"`
	Site            string      `json:"site"`
	Company         string      `json:"company"`
	Area            string      `json:"area"`
	Requested       int         `json:"requested"`
	Filled          int         `json:"filled"`
	Recruiter       string      `json:"recruiter"`
	Comments        string      `json:"comments"`
	RecruitmentKind string      `json:"recruitment_kind"`
	Channel         string      `json:"channel"`
	Confidential    bool        `json:"confidential"`
}

// Coverage is the part of the requisition the coverage calculator reads.
func (r Requisition) Coverage() engine.CoverageSubject {
	return engine.CoverageSubject{
		Requested:    r.Requested,
		Filled:       r.Filled,
		RequestedOn:  r.RequestedOn,
		AuthorizedOn: r.AuthorizedOn,
		FilledOn:     r.FilledOn,
	}
}

// State is the open/closed state shared by the dashboard and detail views.
func (r Requisition) State() engine.ReqState { return engine.Classify(r.Coverage()) }

// Authorized reports whether an authorisation date is recorded.
func (r Requisition) Authorized() bool {
	_, ok := engine.Deref(r.AuthorizedOn)
	return ok
}

// RequisitionCoverage adapts Requisition for engine.Annotate.
func RequisitionCoverage(r Requisition) engine.CoverageSubject { return r.Coverage() }

// RequisitionDate selects the date requisitions are filtered on.
func RequisitionDate(r Requisition) (engine.Day, bool) { return engine.Deref(r.RequestedOn) }

// FillDate selects the date closed requisitions are filtered on.
func FillDate(r Requisition) (engine.Day, bool) { return engine.Deref(r.FilledOn) }

// HireRecruiter and RequisitionRecruiter select the responsible party.
func HireRecruiter(h Hire) string               { return h.Recruiter }
func RequisitionRecruiter(r Requisition) string { return r.Recruiter }

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is every collection materialised at one point in time.
type Snapshot struct {
	Masters      []Master
	Hires        []Hire
	Terminations []Termination
	Requisitions []Requisition
}

// Years lists every year any dated record falls in.
func (s Snapshot) Years() []int {
	var years []int
	years = append(years, engine.Years(s.Hires, HireDate)...)
	years = append(years, engine.Years(s.Terminations, TerminationDate)...)
	years = append(years, engine.Years(s.Requisitions, RequisitionDate)...)
	years = append(years, engine.Years(s.Requisitions, FillDate)...)
	return years
}
