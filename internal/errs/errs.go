// Package errs defines the structured error and diagnostic types shared
// across the compiler, VM, and tag store (spec.md §7). The core never
// writes to stdout/stderr itself; it only ever returns or reports these
// values, and the host decides what to do with them.
package errs

import "fmt"

// ErrorKind classifies a ScriptError. The three families mirror
// spec.md §7: compile-time, runtime, and configuration.
type ErrorKind int

const (
	// Compile-time
	Syntax ErrorKind = iota
	UnknownIdentifier
	TypeMismatch
	NoMatchingOverload
	AmbiguousOverload
	DuplicateLocal
	InvalidLValue
	RegisterFileOverflow
	UnresolvedLabel
	DuplicateDeclaration

	// Runtime
	InvalidCast
	InstructionBudgetExceeded
	HandlerFailure

	// Configuration
	UnknownTagValueType
	DuplicateTagName
	DuplicateValueType

	// Diagnostic-only (never returned as an error, only reported to a
	// DiagnosticSink)
	DefaultScriptFallback
)

var kindNames = map[ErrorKind]string{
	Syntax:                     "Syntax",
	UnknownIdentifier:          "UnknownIdentifier",
	TypeMismatch:               "TypeMismatch",
	NoMatchingOverload:         "NoMatchingOverload",
	AmbiguousOverload:          "AmbiguousOverload",
	DuplicateLocal:             "DuplicateLocal",
	InvalidLValue:              "InvalidLValue",
	RegisterFileOverflow:       "RegisterFileOverflow",
	UnresolvedLabel:            "UnresolvedLabel",
	DuplicateDeclaration:       "DuplicateDeclaration",
	InvalidCast:                "InvalidCast",
	InstructionBudgetExceeded:  "InstructionBudgetExceeded",
	HandlerFailure:             "HandlerFailure",
	UnknownTagValueType:        "UnknownTagValueType",
	DuplicateTagName:           "DuplicateTagName",
	DuplicateValueType:        "DuplicateValueType",
	DefaultScriptFallback:      "DefaultScriptFallback",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Pos is a source location. A zero Pos (Line == 0) means "no location",
// used for errors that are not tied to a single token (e.g. UnresolvedLabel
// discovered at script end, or configuration errors).
type Pos struct {
	Line int
	Col  int
	File string
}

func (p Pos) String() string {
	if p.Line == 0 {
		return ""
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// ScriptError is the common interface satisfied by CompileError,
// RuntimeError, and ConfigError so host code can switch on error kind
// without caring which family produced it.
type ScriptError interface {
	error
	Kind() ErrorKind
	Parent() string
}

// CompileError is returned by the compiler. It always carries the
// offending token's position and the name of the enclosing script
// (spec.md §4.3 "All carry line/column and the offending token").
type CompileError struct {
	ErrKind      ErrorKind
	Position     Pos
	Token        string
	ParentScript string
	Msg          string
}

func (e *CompileError) Kind() ErrorKind { return e.ErrKind }
func (e *CompileError) Parent() string  { return e.ParentScript }

func (e *CompileError) Error() string {
	loc := e.Position.String()
	switch {
	case loc != "" && e.Token != "":
		return fmt.Sprintf("%s: %s at %q (%s)", e.ErrKind, e.Msg, e.Token, loc)
	case loc != "":
		return fmt.Sprintf("%s: %s (%s)", e.ErrKind, e.Msg, loc)
	default:
		return fmt.Sprintf("%s: %s", e.ErrKind, e.Msg)
	}
}

// RuntimeError is returned by a Worker's execute call. The register file
// is left in an unspecified but memory-safe state after one of these;
// the host is expected to reset inputs before the next execute
// (spec.md §7 "Propagation").
type RuntimeError struct {
	ErrKind      ErrorKind
	ParentScript string
	Msg          string
	// Offset is the bytecode offset the error occurred at, for debugging.
	Offset int
}

func (e *RuntimeError) Kind() ErrorKind { return e.ErrKind }
func (e *RuntimeError) Parent() string  { return e.ParentScript }

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (script %q, offset %d)", e.ErrKind, e.Msg, e.ParentScript, e.Offset)
}

// ConfigError is returned by the tag store / global registry for
// mistakes in host-side init-time configuration.
type ConfigError struct {
	ErrKind ErrorKind
	Name    string
	Msg     string
}

func (e *ConfigError) Kind() ErrorKind { return e.ErrKind }
func (e *ConfigError) Parent() string  { return "" }

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (%q)", e.ErrKind, e.Msg, e.Name)
}

// Severity classifies a Diagnostic for the host's rendering logic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is the structured record the core hands to a host-supplied
// DiagnosticSink (spec.md §6 "Diagnostics"). The core never writes to
// stdout/stderr itself.
type Diagnostic struct {
	Kind     ErrorKind
	Pos      Pos
	Message  string
	Parent   string
	Severity Severity
}

func (d Diagnostic) String() string {
	loc := d.Pos.String()
	if loc != "" {
		return fmt.Sprintf("[%s] %s: %s (%s) in %q", d.Severity, d.Kind, d.Message, loc, d.Parent)
	}
	return fmt.Sprintf("[%s] %s: %s in %q", d.Severity, d.Kind, d.Message, d.Parent)
}

// FromScriptError converts any ScriptError into a Diagnostic at the
// given severity, extracting a position when the underlying error is a
// *CompileError.
func FromScriptError(err ScriptError, severity Severity) Diagnostic {
	d := Diagnostic{
		Kind:     err.Kind(),
		Message:  err.Error(),
		Parent:   err.Parent(),
		Severity: severity,
	}
	if ce, ok := err.(*CompileError); ok {
		d.Pos = ce.Position
		d.Message = ce.Msg
	}
	return d
}

// DiagnosticSink receives every diagnostic the core produces. A nil sink
// is valid and simply discards diagnostics.
type DiagnosticSink func(Diagnostic)

// Emit reports d to sink if sink is non-nil.
func Emit(sink DiagnosticSink, d Diagnostic) {
	if sink != nil {
		sink(d)
	}
}
