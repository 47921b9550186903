package emit

import (
	"path/filepath"
	"strings"

	"github.com/specweave/specweave/internal/ir"
	"github.com/specweave/specweave/internal/spec"
)

// maxNameWords caps how much of a description is carried into a test
// function name; the scenario ID suffix keeps names unique regardless.
const maxNameWords = 10

// TestFuncName derives the generated test function name for a scenario.
// It is a pure function of the scenario's description (falling back to
// the first WHEN statement) and its content-derived ID, so regeneration
// of unchanged IR always reproduces the same name.
func TestFuncName(sc ir.Scenario) string {
	source := sc.Description
	if source == "" {
		for _, st := range sc.Steps {
			if st.Kind == spec.When {
				source = st.Statement
				break
			}
		}
	}
	return "Test_" + sanitizeIdent(source) + "_" + sc.ID
}

// sanitizeIdent reduces free text to an identifier fragment: word
// characters survive, everything else separates words, and the result is
// capped at maxNameWords words.
func sanitizeIdent(text string) string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	if len(words) > maxNameWords {
		words = words[:maxNameWords]
	}
	if len(words) == 0 {
		return "scenario"
	}
	return strings.Join(words, "_")
}

// Stem derives the output file stem for a spec file path relative to the
// spec directory, mirroring the IR file naming: path separators become
// dashes and the extension is dropped.
func Stem(relPath string) string {
	stem := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	stem = strings.ReplaceAll(stem, string(filepath.Separator), "-")
	stem = strings.ReplaceAll(stem, "/", "-")

	var b strings.Builder
	for _, r := range stem {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return b.String()
}

// TestFileName returns the generated test file name for a stem.
func TestFileName(stem string) string {
	return stem + "_test.go"
}

// ManifestFileName returns the traceability manifest name for a stem.
func ManifestFileName(stem string) string {
	return stem + ".manifest.json"
}
