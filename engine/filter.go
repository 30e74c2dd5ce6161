package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// PERIOD FILTER
// =============================================================================

// DateField selects which date of a record a filter tests.
// ok is false when the record has no usable date for that field.
type DateField[R any] func(R) (Day, bool)

// FilterByPeriod returns the records whose field falls inside the selection.
//
// The result is always a new slice. All-time returns every record, including
// those without a date; a bounded selection never matches a missing date.
// The only error is an unresolvable selection.
func FilterByPeriod[R any](records []R, field DateField[R], sel Selection) ([]R, error) {
	iv, bounded, err := Resolve(sel)
	if err != nil {
		return nil, err
	}
	if !bounded {
		return append([]R(nil), records...), nil
	}
	return FilterByInterval(records, field, iv), nil
}

// FilterByInterval keeps records whose field is inside iv.
func FilterByInterval[R any](records []R, field DateField[R], iv Interval) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		d, ok := field(r)
		if ok && iv.Contains(d) {
			out = append(out, r)
		}
	}
	return out
}

// Where keeps records matching pred. Returns a new slice.
func Where[R any](records []R, pred func(R) bool) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// RECRUITER FILTER
// =============================================================================

// AllRecruiters is the picker value meaning "do not filter".
const AllRecruiters = "TODOS"

// DefaultRecruiterAliases collapses known alternate names to canonical ones.
var DefaultRecruiterAliases = map[string]string{
	"MARTA":  "HELEN",
	"LUPITA": "GUADALUPE",
}

// RecruiterDirectory normalises free-text responsible-party names.
type RecruiterDirectory struct {
	aliases map[string]string
}

// NewRecruiterDirectory copies aliases; keys and values are normalised.
// A nil map uses DefaultRecruiterAliases.
func NewRecruiterDirectory(aliases map[string]string) *RecruiterDirectory {
	if aliases == nil {
		aliases = DefaultRecruiterAliases
	}
	d := &RecruiterDirectory{aliases: make(map[string]string, len(aliases))}
	for from, to := range aliases {
		d.aliases[FoldName(from)] = FoldName(to)
	}
	return d
}

// Identity is the first name of the responsible party, with aliases applied.
func (d *RecruiterDirectory) Identity(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	first := FoldName(fields[0])
	if d != nil {
		if canonical, ok := d.aliases[first]; ok {
			return canonical
		}
	}
	return first
}

// FilterByRecruiter keeps records whose responsible party resolves to
// recruiter. The requested name is compared as given (not aliased), so
// asking for an alias returns nothing.
func FilterByRecruiter[R any](d *RecruiterDirectory, records []R, who func(R) string, recruiter string) []R {
	want := FoldName(recruiter)
	if want == "" || want == AllRecruiters {
		return append([]R(nil), records...)
	}
	return Where(records, func(r R) bool {
		return d.Identity(who(r)) == want
	})
}

// combiningTilde is kept so that Ñ survives folding.
const combiningTilde = '\u0303'

func isStrippedMark(r rune) bool {
	return unicode.Is(unicode.Mn, r) && r != combiningTilde
}

// FoldName trims, upper-cases and strips accents (Ñ is kept).
func FoldName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// transform chains are stateful; build one per call.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isStrippedMark)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}
