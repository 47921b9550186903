package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/specweave/specweave/internal/spec"
)

// scenarioIDLen is the number of hex characters kept from the content
// hash. 48 bits is ample for per-project scenario counts.
const scenarioIDLen = 12

// Lower converts a parsed spec file into its IR document. This stage is
// purely structural: statement text and kinds are copied verbatim (with
// whitespace normalized), parameters are carried over, and every step
// starts out unresolved. Lowering never fails on parser-produced input;
// the returned StructuralError cases are defensive.
func Lower(f *spec.File) (*Document, error) {
	if f == nil {
		return nil, &StructuralError{Msg: "nil spec file"}
	}
	if len(f.Scenarios) == 0 {
		return nil, &StructuralError{Msg: "spec file has no scenarios"}
	}

	doc := &Document{
		SpecFile:    f.Path,
		Description: normalizeWhitespace(f.Description),
	}

	for _, sc := range f.Scenarios {
		if len(sc.Steps) == 0 {
			return nil, &StructuralError{Msg: "scenario has no steps"}
		}
		irSc := Scenario{
			Description: normalizeWhitespace(sc.Description),
			Line:        sc.Line,
		}
		for _, st := range sc.Steps {
			irSc.Steps = append(irSc.Steps, Step{
				Kind:       st.Kind,
				Statement:  normalizeWhitespace(st.Statement),
				Params:     append([]spec.Param(nil), st.Params...),
				Resolution: Resolution{State: StateUnresolved},
			})
		}
		irSc.ID = ScenarioID(irSc.Steps)
		doc.Scenarios = append(doc.Scenarios, irSc)
	}

	return doc, nil
}

// ScenarioID derives the stable content hash of a step sequence. The
// hash covers kind-tagged normalized statements only, so formatting
// changes in the source never move a scenario's identity.
func ScenarioID(steps []Step) string {
	h := sha256.New()
	for _, st := range steps {
		h.Write([]byte(st.Kind))
		h.Write([]byte{'|'})
		h.Write([]byte(st.Statement))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:scenarioIDLen]
}

// normalizeWhitespace collapses internal whitespace runs to single spaces
// and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
