// Package catalog implements the operation catalog of spec.md §4.2: a
// mapping from operation name to its overload set, each overload
// carrying a declared signature, an optional custom scorer, a
// parser-hook, a codegen handle selector, and an optional extra
// immediate emitter.
package catalog

import (
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// Arg is one resolved call-site argument offered to a parser-hook: its
// kind, and exactly one of a register offset, an inline constant, or a
// forward-reference label name, depending on Kind.
type Arg struct {
	Kind regkind.ArgKind

	// Offset is the register-file byte offset, valid when Kind.IsRegister().
	Offset int

	// IsConst and ConstValue hold an inline compile-time constant,
	// valid when !Kind.IsRegister() && Kind.Base == regkind.BaseInt.
	IsConst    bool
	ConstValue int64

	// Label names a forward-reference target, valid when
	// Kind.Base == regkind.BaseLabel.
	Label string
}

// Writer is the subset of the compiler's bytecode-emission API a
// parser-hook or extra-immediate emitter may use. The compiler package
// implements it; catalog only depends on the interface, avoiding an
// import cycle.
type Writer interface {
	EmitByte(b byte)
	EmitU16(v uint16)
	EmitI64(v int64)
	// EmitLabelFixup emits a placeholder u16 and records a forward-ref
	// fixup for name, returning the bytecode offset of the placeholder.
	EmitLabelFixup(name string) int
	Line() int
}

// ParseHook is invoked after overload resolution picks a winning
// overload. It may emit bytecode directly via w (for operations with
// variable-length immediates) and return handled=true to suppress the
// default emitter, or return handled=false to request default emission
// of opcode + positional immediates in declared order.
type ParseHook func(w Writer, args []Arg) (handled bool, err error)

// ExtraEmitter runs after the call's bytecode has been emitted (by the
// default emitter, or by a ParseHook that reported handled=true) for
// overloads that need additional immediates appended.
type ExtraEmitter func(w Writer, args []Arg) error

// Scorer computes an overload's total compatibility against supplied
// argument kinds; the default is the sum of per-argument regkind.Compat
// scores, with any single 0 making the whole overload inadmissible.
type Scorer func(declared []regkind.ArgKind, supplied []regkind.ArgKind, ordinal int) (total int, admissible bool)

// DefaultScorer sums regkind.Compat across positions; an overload is
// admissible only if every position scores > 0 and arities match.
func DefaultScorer(declared []regkind.ArgKind, supplied []regkind.ArgKind, ordinal int) (int, bool) {
	if len(declared) != len(supplied) {
		return 0, false
	}
	total := 0
	for i, d := range declared {
		s := regkind.Compat(d, supplied[i], ordinal)
		if s == 0 {
			return 0, false
		}
		total += int(s)
	}
	return total, true
}

// Overload is one alternative signature an operation accepts.
type Overload struct {
	Signature []regkind.ArgKind
	Scorer    Scorer // nil means DefaultScorer
	Hook      ParseHook
	Extra     ExtraEmitter // nil means none
	// Select chooses the runtime handler for this overload. version is
	// reserved for future handler-table revisions; callers pass 0.
	Select func(version int) vm.Handle
	// Foldable marks this overload eligible for constant folding when
	// every argument is a compile-time constant (spec.md §4.3
	// "Constant folding"). Per SPEC_FULL.md §9(b), pointer-typed
	// arguments are never folded regardless of this flag.
	Foldable bool
	// Fold evaluates a foldable overload's result given constant int64
	// arguments, valid only when Foldable is true.
	Fold func(args []int64) int64
}

// ProcDesc is the runtime descriptor of one operation name: its
// overload set (spec.md §4.2 "ProcDesc").
type ProcDesc struct {
	Name      string
	Overloads []Overload
}

// Catalog maps operation name to ProcDesc. Built during host init and
// frozen before parse (spec.md §3 "Lifecycle").
type Catalog struct {
	procs  map[string]*ProcDesc
	frozen bool
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{procs: make(map[string]*ProcDesc)}
}

// Register adds name to the catalog (if not already present) and
// returns its ProcDesc for overload registration via a fluent chain:
// catalog.Register("add").Overload(sig, hooks...).
func (c *Catalog) Register(name string) *ProcDesc {
	if c.frozen {
		panic("catalog: Register called on a frozen Catalog")
	}
	pd, ok := c.procs[name]
	if !ok {
		pd = &ProcDesc{Name: name}
		c.procs[name] = pd
	}
	return pd
}

// Overload appends one alternative signature to pd and returns pd, so
// registration chains read as a flat list:
//
//	catalog.Register("add").
//	    Overload(catalog.Overload{Signature: ..., Select: ...}).
//	    Overload(catalog.Overload{Signature: ..., Select: ...})
func (pd *ProcDesc) Overload(ov Overload) *ProcDesc {
	pd.Overloads = append(pd.Overloads, ov)
	return pd
}

// Lookup returns the ProcDesc registered under name, if any.
func (c *Catalog) Lookup(name string) (*ProcDesc, bool) {
	pd, ok := c.procs[name]
	return pd, ok
}

// Freeze marks the catalog immutable.
func (c *Catalog) Freeze() { c.frozen = true }
