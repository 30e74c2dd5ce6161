package recruiting

import (
	"strings"

	"github.com/warp/talent-tracker/engine"
)

// NormalizeText trims, upper-cases, folds accents and collapses runs of
// whitespace. Ñ is preserved.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(engine.FoldName(s)), " ")
}

// OrUnspecified normalises s, substituting Unspecified when it is blank.
func OrUnspecified(s string) string {
	if n := NormalizeText(s); n != "" {
		return n
	}
	return Unspecified
}
