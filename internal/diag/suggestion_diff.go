package diag

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// RenderFixDiff renders a Diagnostic's Fix as a unified diff of the
// original source line against the line with Replacement applied, for the
// (out-of-scope) editor surface that consumes the JSON projection: editors
// get a ready-to-display patch rather than two bare strings to diff
// themselves.
func RenderFixDiff(original string, fix *Suggestion) (string, error) {
	if fix == nil {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(fix.Replacement),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(text, "\n"), nil
}
