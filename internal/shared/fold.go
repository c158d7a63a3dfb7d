package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// FoldedContains reports whether substr occurs in s under Unicode case
// folding. Listing filters match material descriptions that come from
// uploaded spreadsheets, so plain ASCII lowering is not enough.
func FoldedContains(s, substr string) bool {
	if substr == "" {
		return true
	}
	if s == "" {
		return false
	}
	m := search.New(language.Und, search.IgnoreCase)
	start, _ := m.IndexString(s, substr)
	return start >= 0
}
