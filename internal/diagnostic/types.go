package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"yarrrml-compiler/internal/common"
)

// Diagnostics holds all diagnostic information collected during one compilation.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Kind classifies errors into the compiler's error taxonomy.
	Kind Kind
	// Code is a unique identifier for this type of diagnostic.
	Code Code
	// Message is the human-readable description.
	Message string
	// Mapping identifies the triples map this relates to (if any).
	Mapping string
	// Path locates the offending element inside the mapping (if any).
	Path string
	// Line and Column are 1-based YAML positions, zero when unknown.
	Line   int
	Column int
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// Location places a diagnostic in the source document.
type Location struct {
	Line    int
	Column  int
	Mapping string
	Path    string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(kind Kind, code Code, message string, at Location, suggestions ...string) {
	d.Errors = append(d.Errors, newDiagnostic(DiagnosticError, kind, code, message, at, suggestions))
}

// Errorf adds an error diagnostic with a formatted message.
func (d *Diagnostics) Errorf(kind Kind, code Code, at Location, format string, args ...any) {
	d.AddError(kind, code, fmt.Sprintf(format, args...), at)
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code Code, message string, at Location) {
	d.Warnings = append(d.Warnings, newDiagnostic(DiagnosticWarning, KindSemantic, code, message, at, nil))
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code Code, message string, at Location) {
	d.Infos = append(d.Infos, newDiagnostic(DiagnosticInfo, KindSemantic, code, message, at, nil))
}

func newDiagnostic(
	severity DiagnosticSeverity, kind Kind, code Code, message string, at Location, suggestions []string,
) Diagnostic {
	return Diagnostic{
		Severity:    severity,
		Kind:        kind,
		Code:        code,
		Message:     message,
		Mapping:     at.Mapping,
		Path:        at.Path,
		Line:        at.Line,
		Column:      at.Column,
		Suggestions: suggestions,
	}
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Err returns the error diagnostics as a Go error, or nil if valid.
// A single error is returned as *Error; several are joined with errors.Join.
func (d *Diagnostics) Err() error {
	switch len(d.Errors) {
	case 0:
		return nil
	case 1:
		return &Error{Diagnostic: d.Errors[0]}
	}

	errs := make([]error, 0, len(d.Errors))
	for _, e := range d.Errors {
		errs = append(errs, &Error{Diagnostic: e})
	}

	return errors.Join(errs...)
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Line > 0 {
		prefix = append(prefix, fmt.Sprintf("line %d", d.Line))
	}

	if d.Mapping != "" {
		prefix = append(prefix, "["+d.Mapping+"]")
	}

	if d.Path != "" {
		prefix = append(prefix, d.Path)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(quoteAll(d.Suggestions), " or "))
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}

	return out
}
