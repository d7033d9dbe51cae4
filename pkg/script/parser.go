// Package script is the public façade over the engine's internal
// packages: a typed Parser that declares a script kind's fixed output
// and input tuple, parses text scripts against it, and hands back
// compiled Containers a Worker can run. Internal packages are not
// importable outside this module, so this package re-exports exactly
// the surface a host program needs (spec.md §6 "External interfaces"),
// the way funxy splits a thin `pkg/embed` facade from its `internal/`
// engine.
package script

import (
	"fmt"

	"github.com/vantage-games/scriptvm/internal/catalog"
	"github.com/vantage-games/scriptvm/internal/compiler"
	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/ops"
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/symtab"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// DefaultCapacity is the register-file byte budget a new Parser is
// given unless overridden with WithCapacity (spec.md §3 "capacity
// equal to 64 machine-word sizes is sufficient").
const DefaultCapacity = 64 * 8

// ScriptError re-exports errs.ScriptError so callers outside this
// module can switch on error kind without importing internal/errs.
type ScriptError = errs.ScriptError

// DiagnosticSink re-exports errs.DiagnosticSink.
type DiagnosticSink = errs.DiagnosticSink

// Diagnostic re-exports errs.Diagnostic.
type Diagnostic = errs.Diagnostic

// Container re-exports vm.Container: the immutable compiled result of
// one successful Parse.
type Container = vm.Container

// Parser declares one script kind: a fixed output of Go type Out,
// named outputName, plus whatever inputs and extra outputs the host
// adds with AddInput/AddOutput before the first Parse call. Go has no
// variadic type parameters, so the input tuple is built incrementally
// rather than spelled out as `Parser[Out, Ins...]`; this is the
// idiomatic shape the type system actually allows (see DESIGN.md).
type Parser[Out any] struct {
	name  string
	types *regkind.TypeRegistry
	cat   *catalog.Catalog
	sym   *symtab.SymbolTable

	outName string
	outKind regkind.ArgKind

	defaultSource string
	defaultScript *Container
	sink          errs.DiagnosticSink

	frozen bool
}

// New declares a new script kind named name, with its primary output
// named outputName and typed Out. The baseline arithmetic/comparison
// operation set (internal/ops) is registered automatically; call
// RegisterOp to add host-specific operations before the first Parse.
func New[Out any](name, outputName string) *Parser[Out] {
	types := regkind.NewTypeRegistry()
	cat := catalog.New()
	ops.Register(cat)
	sym := symtab.New(DefaultCapacity)

	p := &Parser[Out]{name: name, types: types, cat: cat, sym: sym, outName: outputName}
	p.outKind = p.typeKind()
	sym.DeclareOutput(outputName, p.outKind, vm.SizeOf[Out]())
	return p
}

// typeKind returns the plain ArgKind for Out: the shared Int sentinel
// when Out is 8 bytes wide (the overwhelmingly common case — scripts
// trade in plain integers, per spec.md's examples), or a freshly
// registered base type otherwise.
func (p *Parser[Out]) typeKind() regkind.ArgKind {
	size := vm.SizeOf[Out]()
	if size == 8 {
		return regkind.Int
	}
	return p.types.RegisterType(p.name+"."+p.outName, size)
}

// SetDiagnosticSink installs the sink every compile error and warning
// is reported to (spec.md §6 "Diagnostics"). A nil sink discards
// diagnostics.
func (p *Parser[Out]) SetDiagnosticSink(sink errs.DiagnosticSink) { p.sink = sink }

// RegisterType declares a new host base type named name, of byte size
// size, usable as a pointer target by AddPointerInput (spec.md §6
// "register_type"). Call before the first Parse.
func (p *Parser[Out]) RegisterType(name string, size int) regkind.ArgKind {
	return p.types.RegisterType(name, size)
}

// AddInput declares the next input register, named name, of kind
// (typically produced by RegisterType or the Int/Label sentinels).
// size is the in-register byte width.
func (p *Parser[Out]) AddInput(name string, kind regkind.ArgKind, size int) {
	p.sym.DeclareInput(name, kind, size)
}

// AddPointerInput declares an input register that holds a pointer into
// host data of the given base kind (spec.md §6 "register_pointer_type"
// / pointer args). editable marks the pointer PtrEditable, letting
// handlers mutate the pointee (spec.md §3 flag implications).
func (p *Parser[Out]) AddPointerInput(name string, base regkind.ArgKind, editable bool) {
	flags := regkind.FlagPtr
	if editable {
		flags |= regkind.FlagPtrEditable
	}
	kind := regkind.Decorate(base, flags)
	p.sym.DeclareInput(name, kind, 8) // a pointer is always one machine word
}

// AddOutput declares an additional output register beyond the Parser's
// primary Out, up to symtab.MaxOutputRegisters total.
func (p *Parser[Out]) AddOutput(name string, kind regkind.ArgKind, size int) {
	p.sym.DeclareOutput(name, kind, size)
}

// AddConst registers a named compile-time integer constant, visible to
// every script parsed against this Parser.
func (p *Parser[Out]) AddConst(name string, value int64) {
	p.sym.AddConst(name, regkind.Int, value)
}

// Operations exposes the catalog for RegisterOp-style calls; see
// RegisterOp in ops.go for the generic, type-safe registration helper.
func (p *Parser[Out]) Operations() *catalog.Catalog { return p.cat }

// SetDefaultScript compiles source once and remembers it as the script
// returned by Default when no per-instance override has been parsed —
// spec.md §6 "set_default_script". It is compiled eagerly so a bad
// default script fails at host-init time, not at first use.
func (p *Parser[Out]) SetDefaultScript(source string) error {
	c, err := p.Parse(source)
	if err != nil {
		return err
	}
	p.defaultSource = source
	p.defaultScript = c
	return nil
}

// Default returns the compiled default script, or nil if
// SetDefaultScript was never called.
func (p *Parser[Out]) Default() *Container { return p.defaultScript }

// Parse compiles source against this Parser's declared symbol table
// and catalog. Every call is independent; a failed parse never
// disturbs a previously-compiled Container (spec.md P5 "transactional
// compile"). If source fails to compile and a default script is
// installed (SetDefaultScript), Parse reports the compile error as
// usual but then falls back to the default script with an additional
// warning diagnostic, rather than leaving the caller with nothing to
// run (spec.md §7 / SPEC_FULL.md §8, resolution S6).
func (p *Parser[Out]) Parse(source string) (*Container, error) {
	if !p.frozen {
		p.types.Freeze()
		p.cat.Freeze()
		p.frozen = true
	}
	c := compiler.New(p.sym, p.cat, p.types, p.name)
	container, err := c.Parse(source)
	if err != nil {
		if se, ok := err.(errs.ScriptError); ok {
			errs.Emit(p.sink, errs.FromScriptError(se, errs.SeverityError))
		}
		if p.defaultScript != nil {
			errs.Emit(p.sink, errs.Diagnostic{
				Kind:     errs.DefaultScriptFallback,
				Message:  fmt.Sprintf("%q failed to compile; falling back to the default script", p.name),
				Parent:   p.name,
				Severity: errs.SeverityWarning,
			})
			return p.defaultScript, nil
		}
		return nil, err
	}
	return container, nil
}

// Capacity returns the register-file byte budget scripts parsed
// against this Parser must fit in.
func (p *Parser[Out]) Capacity() int { return p.sym.Capacity() }

// FrameSize returns the minimum register-file byte size (outputs +
// inputs, before locals) a Worker needs to run a Container compiled
// against this Parser.
func (p *Parser[Out]) FrameSize() int { return p.sym.FrameSize() }

// OutputOffset returns the primary output's byte offset, for a caller
// reading the result out of a Worker's register file after Execute.
func (p *Parser[Out]) OutputOffset() int {
	out, _ := p.sym.FindOutput(p.outName)
	return out.Offset
}

// InputOffset resolves a declared input's byte offset by name.
func (p *Parser[Out]) InputOffset(name string) (int, bool) {
	in, ok := p.sym.FindInput(name)
	if !ok {
		return 0, false
	}
	return in.Offset, true
}
