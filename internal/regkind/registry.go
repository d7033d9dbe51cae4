package regkind

import (
	"fmt"
	"sync"
)

// TypeInfo records what the host declared about one base type: its
// display name and the size (in bytes) a plain in-register value of this
// type occupies in a RegisterFile.
type TypeInfo struct {
	Name string
	Size int
}

// TypeRegistry enumerates host-declared base types and decorates them
// with flags to produce ArgKinds, answering compatibility queries between
// a declared operation argument and a supplied value.
//
// A registry is built once during host init and frozen before any script
// parse (spec.md §3 "Lifecycle"); Compat and TypeName may be called from
// any goroutine once frozen.
type TypeRegistry struct {
	mu     sync.RWMutex
	types  []TypeInfo // indexed by BaseType
	byName map[string]BaseType
	frozen bool
}

// NewTypeRegistry returns a registry pre-populated with the Null, Int,
// and Label sentinels.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{
		types:  make([]TypeInfo, firstUserBase),
		byName: make(map[string]BaseType),
	}
	r.types[BaseNull] = TypeInfo{Name: "null", Size: 0}
	r.types[BaseInt] = TypeInfo{Name: "int", Size: 8}
	r.types[BaseLabel] = TypeInfo{Name: "label", Size: 0}
	r.byName["null"] = BaseNull
	r.byName["int"] = BaseInt
	r.byName["label"] = BaseLabel
	return r
}

// RegisterType declares a new host base type of the given byte size and
// returns its plain (unflagged) ArgKind. Panics if called after Freeze.
func (r *TypeRegistry) RegisterType(name string, size int) ArgKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("regkind: RegisterType called on a frozen TypeRegistry")
	}
	base := BaseType(len(r.types))
	r.types = append(r.types, TypeInfo{Name: name, Size: size})
	r.byName[name] = base
	return ArgKind{Base: base}
}

// LookupByName resolves a type name (as written in script source, e.g.
// `var int n;`) to its plain ArgKind, for the compiler's `var`
// declarations. Safe to call only after Freeze.
func (r *TypeRegistry) LookupByName(name string) (ArgKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	base, ok := r.byName[name]
	if !ok {
		return ArgKind{}, false
	}
	return ArgKind{Base: base}, true
}

// Decorate applies flags to a base kind, enforcing the implications
// documented on Flags (Var implies Register, PtrEditable implies Ptr).
func Decorate(kind ArgKind, flags Flags) ArgKind {
	if flags.has(FlagVar) {
		flags |= FlagRegister
	}
	if flags.has(FlagPtrEditable) {
		flags |= FlagPtr
	}
	return ArgKind{Base: kind.Base, Flags: flags}
}

// Freeze marks the registry immutable; subsequent RegisterType calls
// panic. Safe to call more than once.
func (r *TypeRegistry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// TypeName returns the display name registered for a base type, or
// "<unknown>" if the base type was never registered.
func (r *TypeRegistry) TypeName(kind ArgKind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(kind.Base) < 0 || int(kind.Base) >= len(r.types) {
		return "<unknown>"
	}
	return r.types[kind.Base].Name
}

// Size returns the in-register byte size of a base type.
func (r *TypeRegistry) Size(kind ArgKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(kind.Base) < 0 || int(kind.Base) >= len(r.types) {
		return 0
	}
	return r.types[kind.Base].Size
}

// scoreExact is the compatibility score for a perfect match: same base
// type, same register-ness, same ptr-ness, same mutability.
const scoreExact = 255

// Weight constants from spec.md §3: mutability relaxation costs more
// than a writable-to-readonly downgrade, and overload ordinality only
// ever breaks ties between two otherwise-equal scores.
const (
	weightPtrEditableMismatch = 128
	weightVarMismatch         = 64
	maxOrdinalPenalty         = 8
)

// Compat scores the compatibility of a declared operation-argument kind
// against a supplied value kind, for the overload at position
// overloadOrdinal within its operation's overload set (0 = first
// declared). Higher is better; 0 means incompatible. See spec.md §3 for
// the full rule set this implements verbatim.
func Compat(declared, supplied ArgKind, overloadOrdinal int) uint8 {
	// var is exact-match-only: a declared output register never accepts
	// anything but the identical kind it was declared with.
	if declared.IsVar() && declared != supplied {
		return 0
	}
	if declared.Base != supplied.Base {
		return 0
	}
	if declared.IsRegister() != supplied.IsRegister() {
		return 0
	}
	if declared.IsPtr() != supplied.IsPtr() {
		return 0
	}
	if declared.IsPtrEditable() && declared.IsPtr() && !supplied.IsPtrEditable() {
		return 0
	}

	score := scoreExact
	if declared.IsPtrEditable() != supplied.IsPtrEditable() {
		score -= weightPtrEditableMismatch
	}
	if declared.IsVar() != supplied.IsVar() {
		score -= weightVarMismatch
	}
	penalty := overloadOrdinal
	if penalty > maxOrdinalPenalty {
		penalty = maxOrdinalPenalty
	}
	score -= penalty
	if score < 0 {
		score = 0
	}
	return uint8(score)
}

// String renders a registry summary, useful in diagnostics and tests.
func (r *TypeRegistry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("TypeRegistry{%d types, frozen=%t}", len(r.types), r.frozen)
}
