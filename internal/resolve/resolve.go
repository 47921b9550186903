// Package resolve binds IR steps to domain operations using the template
// registry. Resolution is a pure function over (statement, template set):
// the same inputs always produce the same Resolution, and a statement
// matched by more than one template is Ambiguous, never a silent pick.
package resolve

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/specweave/specweave/internal/ir"
	"github.com/specweave/specweave/internal/registry"
	"github.com/specweave/specweave/internal/spec"
)

// Machine-readable reasons recorded on unresolved steps.
const (
	ReasonNoTemplate   = "NoTemplate"
	ReasonTypeMismatch = "TypeMismatch"
)

// Step resolves a single IR step against the registry. It never mutates
// its inputs.
func Step(st ir.Step, reg *registry.Registry) ir.Resolution {
	type match struct {
		tmpl     registry.Template
		captures []string
	}

	var matches []match
	for _, t := range reg.ForKind(st.Kind) {
		if captures, ok := t.Match(st.Statement); ok {
			matches = append(matches, match{tmpl: t, captures: captures})
		}
	}

	switch len(matches) {
	case 0:
		return ir.Resolution{
			State:  ir.StateUnresolved,
			Reason: ReasonNoTemplate,
		}
	case 1:
		return bind(st, matches[0].tmpl, matches[0].captures)
	default:
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, m.tmpl.ID)
		}
		sort.Strings(candidates)
		return ir.Resolution{
			State:      ir.StateAmbiguous,
			Candidates: candidates,
		}
	}
}

// bind converts the raw captures to the template's declared types and
// extracts the THEN expected value per the template's expect rule.
func bind(st ir.Step, t registry.Template, captures []string) ir.Resolution {
	args := make([]ir.BoundArg, 0, len(captures))
	for i, ph := range t.Placeholders {
		value, err := convert(captures[i], ph.Type)
		if err != nil {
			return ir.Resolution{
				State:  ir.StateUnresolved,
				Reason: fmt.Sprintf("%s: placeholder %q: %v", ReasonTypeMismatch, ph.Name, err),
			}
		}
		args = append(args, ir.BoundArg{Name: ph.Name, Type: ph.Type, Value: value})
	}

	res := ir.Resolution{
		State:       ir.StateResolved,
		OperationID: t.ID,
		Args:        args,
	}

	if st.Kind == spec.Then {
		res.Compare = t.Compare
		res.Expected = expectedArg(t, args)
	}

	return res
}

// expectedArg selects the expected-value argument of a THEN step. With an
// explicit expect rule that placeholder wins; a single placeholder is the
// implicit expected value; zero placeholders means the operation is a
// boolean query asserted true.
func expectedArg(t registry.Template, args []ir.BoundArg) *ir.BoundArg {
	if t.Expect != "" {
		for i := range args {
			if args[i].Name == t.Expect {
				return &args[i]
			}
		}
		return nil
	}
	if len(args) == 1 {
		return &args[0]
	}
	if len(args) == 0 {
		return &ir.BoundArg{Name: "ok", Type: spec.TypeBool, Value: true}
	}
	return nil
}

// convert parses a raw capture according to the declared placeholder
// type. Numbers are held as float64 (JSON-native).
func convert(raw string, typ spec.ParamType) (any, error) {
	switch typ {
	case spec.TypeString:
		return raw, nil
	case spec.TypeNumber:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return v, nil
	case spec.TypeBool:
		switch strings.TrimSpace(raw) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a boolean", raw)
	}
	return nil, fmt.Errorf("unknown type %q", typ)
}

// Document resolves every step of a document, returning a new document
// with resolutions set. Unresolved and ambiguous steps are carried in
// place rather than failing the document, so a run can report every
// missing mapping at once.
func Document(doc *ir.Document, reg *registry.Registry) *ir.Document {
	out := &ir.Document{
		SpecFile:    doc.SpecFile,
		Description: doc.Description,
		Scenarios:   make([]ir.Scenario, len(doc.Scenarios)),
	}
	for i, sc := range doc.Scenarios {
		resolved := ir.Scenario{
			ID:          sc.ID,
			Description: sc.Description,
			Line:        sc.Line,
			Steps:       make([]ir.Step, len(sc.Steps)),
		}
		for j, st := range sc.Steps {
			st.Resolution = Step(st, reg)
			resolved.Steps[j] = st
		}
		out.Scenarios[i] = resolved
	}
	return out
}

// Failure is one unresolved or ambiguous step, reported with the exact
// statement text for traceability back to the spec.
type Failure struct {
	ScenarioID string
	Kind       spec.Kind
	Statement  string
	Resolution ir.Resolution
}

// Failures collects every step of a resolved document that did not reach
// StateResolved, in document order.
func Failures(doc *ir.Document) []Failure {
	var out []Failure
	for _, sc := range doc.Scenarios {
		for _, st := range sc.Steps {
			if st.Resolution.State != ir.StateResolved {
				out = append(out, Failure{
					ScenarioID: sc.ID,
					Kind:       st.Kind,
					Statement:  st.Statement,
					Resolution: st.Resolution,
				})
			}
		}
	}
	return out
}

// FullyResolved reports whether every step of a scenario reached
// StateResolved.
func FullyResolved(sc ir.Scenario) bool {
	for _, st := range sc.Steps {
		if st.Resolution.State != ir.StateResolved {
			return false
		}
	}
	return true
}
