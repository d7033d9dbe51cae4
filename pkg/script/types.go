package script

import (
	"gopkg.in/yaml.v3"

	"github.com/vantage-games/scriptvm/internal/catalog"
	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/tags"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// YAMLNode re-exports yaml.Node, the persisted shape of a ScriptValues
// vector (spec.md §6 "Persisted state").
type YAMLNode = yaml.Node

// ValueType re-exports tags.ValueType: a named load/save adapter pair
// controlling how a tag's slot value is represented in persisted form
// (spec.md §6 "register_value_type").
type ValueType = tags.ValueType

// The aliases below re-export the internal types a host needs to
// register its own operations, since internal/ packages cannot be
// imported outside this module. Everything here is a plain alias (no
// wrapping), so a host's catalog.Overload literal written against
// script.Overload is byte-for-byte the same value the compiler
// consumes internally.

// ArgKind re-exports regkind.ArgKind.
type ArgKind = regkind.ArgKind

// Overload re-exports catalog.Overload.
type Overload = catalog.Overload

// ProcDesc re-exports catalog.ProcDesc, the fluent handle RegisterOp
// returns for chaining Overload registrations.
type ProcDesc = catalog.ProcDesc

// Arg re-exports catalog.Arg.
type Arg = catalog.Arg

// Writer re-exports catalog.Writer.
type Writer = catalog.Writer

// ParseHook re-exports catalog.ParseHook.
type ParseHook = catalog.ParseHook

// ExtraEmitter re-exports catalog.ExtraEmitter.
type ExtraEmitter = catalog.ExtraEmitter

// Scorer re-exports catalog.Scorer.
type Scorer = catalog.Scorer

// Handle re-exports vm.Handle.
type Handle = vm.Handle

// HandlerFunc re-exports vm.HandlerFunc.
type HandlerFunc = vm.HandlerFunc

// StepResult re-exports vm.StepResult, the value a custom handler
// reports back to the dispatch loop.
type StepResult = vm.StepResult

// Continue, End, and ErrorResult re-export the vm.StepResult sentinels
// a custom handler returns.
const (
	Continue    = vm.Continue
	End         = vm.End
	ErrorResult = vm.ErrorResult
)

// ReadU16, ReadByte, and ReadI64 re-export the vm immediate-decoding
// helpers a custom handler needs to read its own arguments out of
// code[*pc:], advancing *pc past what it consumes.
var (
	ReadU16  = vm.ReadU16
	ReadByte = vm.ReadByte
	ReadI64  = vm.ReadI64
)

// Worker re-exports vm.Worker; see worker.go for the typed Load/Store
// helpers built on top of it.
type Worker = vm.Worker

// ErrorKind re-exports errs.ErrorKind, the classification carried by
// ScriptError and Diagnostic values.
type ErrorKind = errs.ErrorKind

// DefaultScriptFallback is the diagnostic-only ErrorKind Parse reports
// when a per-instance compile failure falls back to the default script
// (spec.md §7 resolution S6).
const DefaultScriptFallback = errs.DefaultScriptFallback

// Severity re-exports errs.Severity.
type Severity = errs.Severity

// SeverityError and SeverityWarning re-export the errs.Severity values
// a DiagnosticSink switches on.
const (
	SeverityError   = errs.SeverityError
	SeverityWarning = errs.SeverityWarning
)

// Int, Label are the register-kind sentinels every Parser shares.
var (
	Int   = regkind.Int
	Label = regkind.Label
)

// FlagPtr, FlagPtrEditable are the pointer-related ArgKind flags a
// host needs when declaring its own operations' pointer arguments.
const (
	FlagPtr         = regkind.FlagPtr
	FlagPtrEditable = regkind.FlagPtrEditable
	FlagRegister    = regkind.FlagRegister
	FlagVar         = regkind.FlagVar
)

// Decorate re-exports regkind.Decorate.
func Decorate(kind ArgKind, flags regkind.Flags) ArgKind {
	return regkind.Decorate(kind, flags)
}

// RegisterHandler re-exports vm.RegisterHandler, for a host registering
// the runtime routine behind a custom operation's overload.
func RegisterHandler(fn HandlerFunc) Handle {
	return vm.RegisterHandler(fn)
}
