// Package registry loads and compiles the project-authored statement
// template registry: phrase patterns with typed placeholders bound to
// domain operation identifiers. The registry is immutable configuration,
// loaded once per run and shared read-only across resolutions.
package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/specweave/specweave/internal/spec"
)

// Comparison semantics a THEN template may declare.
const (
	CompareEquals   = "equals"
	CompareContains = "contains"
)

// placeholderRe matches a {name} span inside a pattern.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Placeholder is a named, typed capture slot in a template pattern, in
// pattern order.
type Placeholder struct {
	Name string
	Type spec.ParamType
}

// Template binds a statement pattern to a domain operation identifier.
// Templates are immutable once compiled.
type Template struct {
	// ID is the target domain operation identifier.
	ID string
	// Kind restricts which step kinds the template applies to.
	Kind spec.Kind
	// Pattern is the phrase with {placeholder} spans. Literal segments
	// must match statements character-for-character.
	Pattern string
	// Placeholders in pattern order.
	Placeholders []Placeholder
	// Expect names the placeholder carrying a THEN template's expected
	// value. Empty means the sole placeholder (or a truth assertion when
	// there are none).
	Expect string
	// Compare is the comparison applied to THEN expected values.
	Compare string

	re *regexp.Regexp
}

// compile builds the anchored matching regexp from the pattern. Literal
// segments are quoted verbatim; placeholders capture non-greedily so a
// literal segment can never be absorbed into a neighboring capture.
func (t *Template) compile() error {
	if len(t.Pattern) == 0 {
		return fmt.Errorf("template %q: empty pattern", t.ID)
	}

	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(t.Pattern, -1) {
		b.WriteString(regexp.QuoteMeta(t.Pattern[last:loc[0]]))
		b.WriteString("(.+?)")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(t.Pattern[last:]))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return fmt.Errorf("template %q: %w", t.ID, err)
	}
	t.re = re
	return nil
}

// ExpectedPlaceholder returns the placeholder carrying the THEN expected
// value: the explicit expect rule when present, otherwise the sole
// placeholder. False when neither applies.
func (t *Template) ExpectedPlaceholder() (Placeholder, bool) {
	if t.Expect != "" {
		for _, ph := range t.Placeholders {
			if ph.Name == t.Expect {
				return ph, true
			}
		}
		return Placeholder{}, false
	}
	if len(t.Placeholders) == 1 {
		return t.Placeholders[0], true
	}
	return Placeholder{}, false
}

// Match attempts the pattern against a normalized statement. On success
// it returns the raw captured placeholder values in pattern order.
func (t *Template) Match(statement string) (captures []string, ok bool) {
	m := t.re.FindStringSubmatch(statement)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// placeholderNames extracts the placeholder names in pattern order.
func placeholderNames(pattern string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(pattern, -1) {
		names = append(names, m[1])
	}
	return names
}
