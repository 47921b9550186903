package registry

import (
	"fmt"

	"github.com/specweave/specweave/internal/spec"
)

// Registry is the compiled, immutable template set. It is safe for
// concurrent use: nothing mutates it after New returns.
type Registry struct {
	templates []Template
	byKind    map[spec.Kind][]int
}

// New validates and compiles a template set. Validation failures are
// configuration errors and abort the run before any resolution happens.
func New(templates []Template) (*Registry, error) {
	r := &Registry{byKind: make(map[spec.Kind][]int)}
	seen := make(map[string]string)

	for i := range templates {
		t := templates[i]
		if t.ID == "" {
			return nil, fmt.Errorf("template %d: missing operation id", i)
		}
		switch t.Kind {
		case spec.Given, spec.When, spec.Then:
		default:
			return nil, fmt.Errorf("template %q: invalid kind %q", t.ID, t.Kind)
		}

		key := string(t.Kind) + "|" + t.Pattern
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("template %q: duplicate %s pattern already declared by %q", t.ID, t.Kind, prev)
		}
		seen[key] = t.ID

		if err := validatePlaceholders(&t); err != nil {
			return nil, err
		}
		if t.Compare == "" {
			t.Compare = CompareEquals
		}
		if t.Compare != CompareEquals && t.Compare != CompareContains {
			return nil, fmt.Errorf("template %q: unknown comparison %q", t.ID, t.Compare)
		}
		if t.Compare == CompareContains {
			ph, ok := t.ExpectedPlaceholder()
			if t.Kind != spec.Then || !ok || ph.Type != spec.TypeString {
				return nil, fmt.Errorf("template %q: contains comparison requires a THEN template with a string expected-value placeholder", t.ID)
			}
		}
		if err := t.compile(); err != nil {
			return nil, err
		}

		r.byKind[t.Kind] = append(r.byKind[t.Kind], len(r.templates))
		r.templates = append(r.templates, t)
	}

	return r, nil
}

// validatePlaceholders checks placeholder declarations against the
// pattern and enforces the THEN expect rule: a THEN template with more
// than one placeholder must name its expected-value parameter explicitly,
// so multi-literal precedence never has to be inferred.
func validatePlaceholders(t *Template) error {
	names := placeholderNames(t.Pattern)

	declared := make(map[string]spec.ParamType, len(t.Placeholders))
	for _, ph := range t.Placeholders {
		switch ph.Type {
		case spec.TypeString, spec.TypeNumber, spec.TypeBool:
		default:
			return fmt.Errorf("template %q: placeholder %q has invalid type %q", t.ID, ph.Name, ph.Type)
		}
		if _, ok := declared[ph.Name]; ok {
			return fmt.Errorf("template %q: placeholder %q declared twice", t.ID, ph.Name)
		}
		declared[ph.Name] = ph.Type
	}

	inPattern := make(map[string]bool, len(names))
	ordered := make([]Placeholder, 0, len(names))
	for _, n := range names {
		if inPattern[n] {
			return fmt.Errorf("template %q: placeholder %q appears twice in pattern", t.ID, n)
		}
		inPattern[n] = true
		typ, ok := declared[n]
		if !ok {
			typ = spec.TypeString
		}
		ordered = append(ordered, Placeholder{Name: n, Type: typ})
	}
	for name := range declared {
		if !inPattern[name] {
			return fmt.Errorf("template %q: declared placeholder %q not present in pattern", t.ID, name)
		}
	}
	// Rebuild in pattern order regardless of declaration order.
	t.Placeholders = ordered

	if t.Kind == spec.Then {
		if t.Expect == "" && len(ordered) > 1 {
			return fmt.Errorf("template %q: THEN pattern has %d placeholders; expect must name the expected-value parameter", t.ID, len(ordered))
		}
		if t.Expect != "" && !inPattern[t.Expect] {
			return fmt.Errorf("template %q: expect names unknown placeholder %q", t.ID, t.Expect)
		}
	} else if t.Expect != "" {
		return fmt.Errorf("template %q: expect is only valid on THEN templates", t.ID)
	}

	return nil
}

// ForKind returns the templates applicable to a step kind, in
// declaration order. The returned slice must not be modified.
func (r *Registry) ForKind(k spec.Kind) []Template {
	idx := r.byKind[k]
	out := make([]Template, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.templates[i])
	}
	return out
}

// Len returns the number of templates in the registry.
func (r *Registry) Len() int {
	return len(r.templates)
}
