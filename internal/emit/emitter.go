// Package emit renders fully-resolved IR documents into runnable Go test
// files. Emission is deterministic: structurally equal documents always
// produce byte-identical output, and regeneration fully supersedes the
// previous output — generated tests are a derived artifact, never a
// source of truth.
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specweave/specweave/internal/ir"
	"github.com/specweave/specweave/internal/registry"
	"github.com/specweave/specweave/internal/spec"
)

// genPackage is the package generated test files declare. Tests are
// emitted into their own directory, so the name never collides with
// project code.
const genPackage = "acceptance_test"

// runtimeImport is the support library generated tests call operations
// through.
const runtimeImport = "github.com/specweave/specweave/gwt"

// EmissionError reports a programming-contract violation: the emitter
// was invoked on a document containing a step that is not resolved.
// Callers must prune or resolve such scenarios before emission.
type EmissionError struct {
	SpecFile   string
	ScenarioID string
	Statement  string
	State      ir.ResolutionState
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("%s: scenario %s: cannot emit %s step %q (EME001)",
		e.SpecFile, e.ScenarioID, e.State, e.Statement)
}

// ManifestEntry maps one generated test function back to its scenario
// for reporter traceability.
type ManifestEntry struct {
	Test        string   `json:"test"`
	ScenarioID  string   `json:"scenario_id"`
	Description string   `json:"description,omitempty"`
	Statements  []string `json:"statements"`
}

// Manifest is the traceability sidecar emitted next to each generated
// test file.
type Manifest struct {
	SpecFile string          `json:"spec_file"`
	Tests    []ManifestEntry `json:"tests"`
}

// GeneratedFile is the complete output unit for one spec file.
type GeneratedFile struct {
	SpecFile         string
	Stem             string
	TestFileName     string
	ManifestFileName string
	Source           []byte
	Manifest         Manifest
}

// Generate renders one test file (plus manifest) for a fully-resolved
// document. It fails fast with an EmissionError naming the first
// offending statement if any step did not reach StateResolved.
func Generate(doc *ir.Document, stem string) (*GeneratedFile, error) {
	for _, sc := range doc.Scenarios {
		for _, st := range sc.Steps {
			if st.Resolution.State != ir.StateResolved {
				return nil, &EmissionError{
					SpecFile:   doc.SpecFile,
					ScenarioID: sc.ID,
					Statement:  st.Statement,
					State:      st.Resolution.State,
				}
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by specweave from %s. DO NOT EDIT.\n", doc.SpecFile)
	b.WriteString("//\n")
	b.WriteString("// Each test binds to domain behavior through the gwt runtime. Register\n")
	b.WriteString("// every operation identifier with gwt.Register (typically in TestMain of\n")
	b.WriteString("// this package); unbound operations fail their test.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", genPackage)
	b.WriteString("import (\n\t\"testing\"\n\n\t\"" + runtimeImport + "\"\n)\n")

	manifest := Manifest{SpecFile: doc.SpecFile}

	for _, sc := range doc.Scenarios {
		name := TestFuncName(sc)
		b.WriteString("\n")
		if sc.Description != "" {
			fmt.Fprintf(&b, "// %s\n", sc.Description)
		}
		fmt.Fprintf(&b, "// Source: %s (scenario %s)\n", doc.SpecFile, sc.ID)
		fmt.Fprintf(&b, "func %s(t *testing.T) {\n", name)
		b.WriteString("\trt := gwt.NewRunner(t)\n")

		statements := make([]string, 0, len(sc.Steps))
		lastKind := spec.Kind("")
		for _, st := range sc.Steps {
			statements = append(statements, string(st.Kind)+" "+st.Statement+".")
			if st.Kind != lastKind {
				b.WriteString("\n")
				lastKind = st.Kind
			}
			fmt.Fprintf(&b, "\t// %s %s.\n", st.Kind, st.Statement)
			line, err := renderCall(st)
			if err != nil {
				return nil, err
			}
			b.WriteString("\t" + line + "\n")
		}
		b.WriteString("}\n")

		manifest.Tests = append(manifest.Tests, ManifestEntry{
			Test:        name,
			ScenarioID:  sc.ID,
			Description: sc.Description,
			Statements:  statements,
		})
	}

	return &GeneratedFile{
		SpecFile:         doc.SpecFile,
		Stem:             stem,
		TestFileName:     TestFileName(stem),
		ManifestFileName: ManifestFileName(stem),
		Source:           []byte(b.String()),
		Manifest:         manifest,
	}, nil
}

// renderCall renders the runtime invocation for one resolved step.
// GIVEN and WHEN steps execute their operation (the runner retains WHEN
// results for bound assertions to inspect); THEN steps compare a query
// result against the extracted expected value.
func renderCall(st ir.Step) (string, error) {
	res := st.Resolution

	if st.Kind != spec.Then {
		args, err := renderArgs(res.Args, "")
		if err != nil {
			return "", fmt.Errorf("step %q: %w", st.Statement, err)
		}
		return fmt.Sprintf("rt.Exec(%s)", strings.Join(append([]string{strconv.Quote(res.OperationID)}, args...), ", ")), nil
	}

	if res.Expected == nil {
		return "", fmt.Errorf("resolved THEN step %q has no expected value", st.Statement)
	}
	want, err := renderValue(*res.Expected)
	if err != nil {
		return "", fmt.Errorf("step %q: %w", st.Statement, err)
	}

	method := "rt.Check"
	if res.Compare == registry.CompareContains {
		method = "rt.CheckContains"
	}
	args, err := renderArgs(res.Args, res.Expected.Name)
	if err != nil {
		return "", fmt.Errorf("step %q: %w", st.Statement, err)
	}
	parts := append([]string{strconv.Quote(res.OperationID), want}, args...)
	return fmt.Sprintf("%s(%s)", method, strings.Join(parts, ", ")), nil
}

// renderArgs renders bound arguments as Go call arguments, skipping the
// named expected-value argument (at most once).
func renderArgs(args []ir.BoundArg, skip string) ([]string, error) {
	out := make([]string, 0, len(args))
	skipped := false
	for _, a := range args {
		if !skipped && skip != "" && a.Name == skip {
			skipped = true
			continue
		}
		v, err := renderValue(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// renderValue renders a bound argument as a Go literal. Numbers are
// emitted as explicit float64 conversions so the runtime sees the same
// JSON-native types the IR carries.
func renderValue(a ir.BoundArg) (string, error) {
	switch a.Type {
	case spec.TypeString:
		s, ok := a.Value.(string)
		if !ok {
			return "", fmt.Errorf("argument %q: value %v is not a string", a.Name, a.Value)
		}
		return strconv.Quote(s), nil
	case spec.TypeNumber:
		f, ok := a.Value.(float64)
		if !ok {
			return "", fmt.Errorf("argument %q: value %v is not a number", a.Name, a.Value)
		}
		return "float64(" + strconv.FormatFloat(f, 'g', -1, 64) + ")", nil
	case spec.TypeBool:
		v, ok := a.Value.(bool)
		if !ok {
			return "", fmt.Errorf("argument %q: value %v is not a boolean", a.Name, a.Value)
		}
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("argument %q: unknown type %q", a.Name, a.Type)
}
