package syntax

import "fmt"

// Severity indicates the severity level of a diagnostic
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Stable diagnostic codes. External consumers (editor layers, CI) match on
// these strings, so they must not change between releases.
const (
	CodeSyntax     = "kerml.syntax"
	CodeLinking    = "kerml.linking"
	CodeAmbiguous  = "kerml.linking.ambiguous"
	CodeCycle      = "kerml.validation.cycle"
	CodeImplicit   = "kerml.validation.implicit"
	CodeValidation = "kerml.validation"
	CodeEvaluation = "kerml.evaluation"
)

// Diagnostic is one analysis finding attached to a document.
// Diagnostics are non-fatal: a document with errors still produces a
// best-effort model.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	Range    Range    `json:"range" yaml:"range"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d %s: %s [%s]",
		d.Range.Start.Line, d.Range.Start.Character, d.Severity, d.Message, d.Code)
}

// Errorf builds an error diagnostic at the given range
func Errorf(code string, r Range, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Range:    r,
	}
}

// Warningf builds a warning diagnostic at the given range
func Warningf(code string, r Range, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Range:    r,
	}
}
