package diagnostic

import (
	"errors"

	"yarrrml-compiler/internal/common"
)

// Kind classifies an error diagnostic.
type Kind int

const (
	// KindParse is malformed shorthand, reported with a line number.
	KindParse Kind = iota
	// KindSemantic is a well-formed document violating a mapping invariant.
	KindSemantic
	// KindUnsupportedInR2RML is a construct R2RML cannot express.
	KindUnsupportedInR2RML
	// KindDecompile is a triple set that is not a valid RML/R2RML document.
	KindDecompile
	// KindUnresolvablePrefix is a prefixed name whose label is not declared.
	KindUnresolvablePrefix
)

// Sentinel errors matched by errors.Is against any *Error of the same Kind.
var (
	ErrParse              = errors.New("parse error")
	ErrSemantic           = errors.New("semantic error")
	ErrUnsupportedInR2RML = errors.New("unsupported in R2RML")
	ErrDecompile          = errors.New("decompile error")
	ErrUnresolvablePrefix = errors.New("unresolvable prefix")
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindSemantic:
		return "semantic"
	case KindUnsupportedInR2RML:
		return "unsupported_in_r2rml"
	case KindDecompile:
		return "decompile"
	case KindUnresolvablePrefix:
		return "unresolvable_prefix"
	default:
		return common.UnknownStr
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindParse:
		return ErrParse
	case KindSemantic:
		return ErrSemantic
	case KindUnsupportedInR2RML:
		return ErrUnsupportedInR2RML
	case KindDecompile:
		return ErrDecompile
	case KindUnresolvablePrefix:
		return ErrUnresolvablePrefix
	default:
		return nil
	}
}

// Code is a stable identifier for a class of diagnostic.
type Code string

const (
	CodeSyntax                Code = "syntax"
	CodeUnknownKey            Code = "unknown_key"
	CodeInvalidValue          Code = "invalid_value"
	CodeInvalidBase           Code = "invalid_base"
	CodeInvalidTemplate       Code = "invalid_template"
	CodeInvalidTermType       Code = "invalid_term_type"
	CodeInvalidMappingID      Code = "invalid_mapping_id"
	CodeAmbiguousValueClass   Code = "ambiguous_value_class"
	CodeMissingValue          Code = "missing_value"
	CodeMissingSubject        Code = "missing_subject"
	CodeMultipleSubjects      Code = "multiple_subjects"
	CodeMultipleSources       Code = "multiple_sources"
	CodeUnknownSource         Code = "unknown_source"
	CodeUnusedSource          Code = "unused_source"
	CodeMissingJoinCondition  Code = "missing_join_condition"
	CodeDanglingJoinReference Code = "dangling_join_reference"
	CodeDuplicateMapping      Code = "duplicate_mapping"
	CodeMisplacedJoin         Code = "misplaced_join"
	CodeMissingFunction       Code = "missing_function"
	CodeUnresolvablePrefix    Code = "unresolvable_prefix"
	CodeUnsupportedInR2RML    Code = "unsupported_in_r2rml"
	CodeMissingLogicalTable   Code = "missing_logical_table"
	CodeSharedSubjectMap      Code = "shared_subject_map"
	CodeSharedNode            Code = "shared_node"
	CodeUnrecognizedTriple    Code = "unrecognized_triple"
	CodeMalformedTermMap      Code = "malformed_term_map"
	CodeMissingSubjectMap     Code = "missing_subject_map"
	CodeMultipleSubjectMaps   Code = "multiple_subject_maps"
	CodeMultipleSourcesFound  Code = "multiple_logical_sources"
)

// Error is a single error diagnostic usable as a Go error.
type Error struct {
	Diagnostic
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Diagnostic.String()
}

// Is matches the sentinel of the error's Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError builds a standalone *Error.
func NewError(kind Kind, code Code, message string, at Location, suggestions ...string) *Error {
	return &Error{Diagnostic: newDiagnostic(DiagnosticError, kind, code, message, at, suggestions)}
}

// CodeOf extracts the code of the first *Error in err's tree, or "" if none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}

	return ""
}

// KindOf extracts the kind of the first *Error in err's tree.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}

	return 0, false
}

// All returns every *Error contained in err, in order.
func All(err error) []*Error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) && !isJoined(err) {
		return []*Error{de}
	}

	var out []*Error

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, All(e)...)
		}
	}

	return out
}

func isJoined(err error) bool {
	_, ok := err.(interface{ Unwrap() []error })
	return ok
}
