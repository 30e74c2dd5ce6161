package engine

// =============================================================================
// COVERAGE DURATION - How long a requisition has been (or was) open
// =============================================================================

// ReqState is the open/closed distinction coverage depends on.
type ReqState string

const (
	// StateClosed: at least one position filled and a fill date recorded.
	// Duration is frozen at the fill date.
	StateClosed ReqState = "closed"
	// StateOpen: positions still requested. Duration grows every day.
	StateOpen ReqState = "open"
	// StateUnknown: nothing requested and nothing closed; no duration.
	StateUnknown ReqState = "unknown"
)

// CoverageSubject is the slice of a requisition coverage needs.
type CoverageSubject struct {
	Requested    int
	Filled       int
	RequestedOn  *Day
	AuthorizedOn *Day
	FilledOn     *Day
}

// Classify derives the requisition state. Every caller goes through here so
// the summary cards and the detail table cannot disagree.
func Classify(s CoverageSubject) ReqState {
	if _, ok := Deref(s.FilledOn); ok && s.Filled > 0 {
		return StateClosed
	}
	if s.Requested > 0 {
		return StateOpen
	}
	return StateUnknown
}

// Start is the authorisation date, falling back to the request date.
func (s CoverageSubject) Start() (Day, bool) {
	if d, ok := Deref(s.AuthorizedOn); ok {
		return d, true
	}
	return Deref(s.RequestedOn)
}

// Coverage returns the days between the start reference and the end
// reference (fill date when closed, today when open).
// ok is false when either reference is unavailable; the value may be
// negative if the data says the requisition closed before it started.
func (c Calendar) Coverage(s CoverageSubject) (days int, ok bool) {
	start, ok := s.Start()
	if !ok {
		return 0, false
	}
	var end Day
	switch Classify(s) {
	case StateClosed:
		end = *s.FilledOn
	case StateOpen:
		end = c.Today()
	default:
		return 0, false
	}
	return DaysBetween(start, end), true
}

// Annotated carries a record together with its derived coverage.
type Annotated[R any] struct {
	Record  R
	State   ReqState
	Days    int
	Defined bool
}

// Annotate computes coverage for every record without touching the input.
func Annotate[R any](c Calendar, records []R, subject func(R) CoverageSubject) []Annotated[R] {
	out := make([]Annotated[R], len(records))
	for i, r := range records {
		s := subject(r)
		days, ok := c.Coverage(s)
		out[i] = Annotated[R]{Record: r, State: Classify(s), Days: days, Defined: ok}
	}
	return out
}
