package pipeline

import "fmt"

// Diagnostic severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Stable diagnostic codes for stages downstream of the parser (the
// parser carries its own SPE0xx codes on SyntaxError).
const (
	CodeStructural          = "IRE001"
	CodeUnresolvedOperation = "RSE001"
	CodeAmbiguousOperation  = "RSE002"
	CodeTypeMismatch        = "RSE003"
	CodeEmission            = "EME001"
	CodeIOFailure           = "IOE001"
)

// Diagnostic is a structured error or warning record scoped to one spec
// file and, where applicable, one statement.
type Diagnostic struct {
	Severity  string `json:"severity"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Statement string `json:"statement,omitempty"`
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.Code)
	if d.File != "" {
		s = d.File + ": " + s
	}
	return s
}
