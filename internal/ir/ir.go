// Package ir defines the intermediate representation a spec file is
// lowered into: a serializable document that preserves statement text and
// order, carries extracted parameters, and records how each step resolved
// against the domain operation registry.
package ir

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/specweave/specweave/internal/spec"
)

// ResolutionState is the explicit three-way outcome of resolving a step.
// All call sites must handle all three states.
type ResolutionState string

const (
	StateUnresolved ResolutionState = "unresolved"
	StateResolved   ResolutionState = "resolved"
	StateAmbiguous  ResolutionState = "ambiguous"
)

// BoundArg is a placeholder value bound during resolution, typed per the
// template's declaration.
type BoundArg struct {
	Name  string         `json:"name"`
	Type  spec.ParamType `json:"type"`
	Value any            `json:"value"`
}

// Resolution records the outcome of binding a statement to a domain
// operation. Exactly one of the three states is set; the auxiliary fields
// are populated per state.
type Resolution struct {
	State ResolutionState `json:"state"`
	// OperationID and Args are set when State is StateResolved.
	OperationID string     `json:"domain_operation,omitempty"`
	Args        []BoundArg `json:"args,omitempty"`
	// Expected is the THEN expected value, extracted per the template's
	// expect rule. Nil for GIVEN/WHEN steps.
	Expected *BoundArg `json:"expected,omitempty"`
	// Compare names the comparison semantics for THEN steps ("equals" by
	// default).
	Compare string `json:"compare,omitempty"`
	// Reason explains an unresolved state (NoTemplate, TypeMismatch).
	Reason string `json:"reason,omitempty"`
	// Candidates lists the operation IDs of every matching template when
	// State is StateAmbiguous, sorted.
	Candidates []string `json:"candidates,omitempty"`
}

// Step is the IR form of a spec step. Statement text is preserved
// verbatim (modulo whitespace normalization) for traceability.
type Step struct {
	Kind       spec.Kind
	Statement  string
	Params     []spec.Param
	Resolution Resolution
}

// Scenario is an ordered sequence of IR steps plus a stable,
// content-derived identifier used for deterministic naming.
type Scenario struct {
	ID          string
	Description string
	Line        int
	Steps       []Step
}

// Document is the IR for one spec file. Scenario and step order mirror
// the source exactly.
type Document struct {
	SpecFile    string     `json:"spec_file"`
	Description string     `json:"description,omitempty"`
	Scenarios   []Scenario `json:"scenarios"`
}

// StructuralError is an internal invariant violation in the lowering
// stage. It should not occur for any File produced by the parser.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error: %s", e.Msg)
}

// stepJSON is the wire form of a step; Kind is implied by the group the
// step is serialized under.
type stepJSON struct {
	Statement  string       `json:"statement"`
	Parameters []spec.Param `json:"parameters,omitempty"`
	Resolution Resolution   `json:"resolution"`
}

// scenarioJSON groups steps by kind. The GIVEN* WHEN+ THEN+ invariant
// makes the grouping lossless: source order is always all GIVENs, then
// all WHENs, then all THENs.
type scenarioJSON struct {
	ID          string     `json:"id"`
	Description string     `json:"description,omitempty"`
	Line        int        `json:"line,omitempty"`
	Given       []stepJSON `json:"given,omitempty"`
	When        []stepJSON `json:"when"`
	Then        []stepJSON `json:"then"`
}

// MarshalJSON serializes the scenario with steps grouped by kind.
func (s Scenario) MarshalJSON() ([]byte, error) {
	out := scenarioJSON{ID: s.ID, Description: s.Description, Line: s.Line}
	for _, st := range s.Steps {
		w := stepJSON{Statement: st.Statement, Parameters: st.Params, Resolution: st.Resolution}
		switch st.Kind {
		case spec.Given:
			out.Given = append(out.Given, w)
		case spec.When:
			out.When = append(out.When, w)
		case spec.Then:
			out.Then = append(out.Then, w)
		default:
			return nil, &StructuralError{Msg: fmt.Sprintf("unknown step kind %q", st.Kind)}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reassembles the flat ordered step sequence from the
// kind groups.
func (s *Scenario) UnmarshalJSON(data []byte) error {
	var w scenarioJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.ID = w.ID
	s.Description = w.Description
	s.Line = w.Line
	s.Steps = nil
	appendSteps := func(kind spec.Kind, steps []stepJSON) {
		for _, st := range steps {
			s.Steps = append(s.Steps, Step{
				Kind:       kind,
				Statement:  st.Statement,
				Params:     st.Parameters,
				Resolution: st.Resolution,
			})
		}
	}
	appendSteps(spec.Given, w.Given)
	appendSteps(spec.When, w.When)
	appendSteps(spec.Then, w.Then)
	return nil
}
