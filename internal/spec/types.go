// Package spec parses GWT (Given-When-Then) behavior spec files into an
// immutable syntax tree. Parsing is a pure function from text to a File
// or a SyntaxError; no domain knowledge lives here.
package spec

import "fmt"

// Kind identifies the step type within a scenario.
type Kind string

const (
	Given Kind = "GIVEN"
	When  Kind = "WHEN"
	Then  Kind = "THEN"
)

// ParamType is the lexical type of an extracted literal parameter.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeNumber ParamType = "number"
	TypeBool   ParamType = "boolean"
)

// Param is a literal extracted from a statement: a double-quoted string,
// a bare numeric token, or a bare true/false token.
type Param struct {
	// Name is inferred from the nearest preceding noun-like word. It is
	// informational; binding authority belongs to the template registry.
	Name string    `json:"name"`
	Type ParamType `json:"type"`
	// Value holds string, float64, or bool according to Type.
	Value any `json:"value"`
}

// Step is a single GIVEN, WHEN, or THEN statement.
type Step struct {
	Kind Kind
	// Statement is the step text without the keyword prefix and without
	// the terminating period.
	Statement string
	Params    []Param
	// Line is the 1-based source line the step appears on.
	Line int
}

// Scenario is an ordered, non-empty run of steps in GIVEN* WHEN+ THEN+
// order. Scenarios are separated by blank lines in the source.
type Scenario struct {
	// Description is the comment line directly above the scenario's first
	// step, if any.
	Description string
	Steps       []Step
	Line        int
}

// File is a parsed spec file. Identity is the source path.
type File struct {
	Path string
	// Description is the leading comment block of the file, if any.
	Description string
	Scenarios   []Scenario
}

// Stable parser diagnostic codes.
const (
	CodeMissingPeriod     = "SPE001"
	CodeKeywordOrder      = "SPE002"
	CodeMissingWhen       = "SPE003"
	CodeMissingThen       = "SPE004"
	CodeUnterminatedQuote = "SPE005"
	CodeBareText          = "SPE006"
	CodeEmptySpec         = "SPE007"
)

// SyntaxError reports a fatal grammar violation. It identifies the file,
// the 1-based line, and the offending token.
type SyntaxError struct {
	Path    string
	Line    int
	Token   string
	Code    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s (%s)", e.Path, e.Line, e.Message, e.Code)
}
