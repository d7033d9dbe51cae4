// Package regkind implements the argument-kind lattice shared by the
// symbol table, operation catalog, and compiler: a small tagged algebra
// over host-declared base types (plain values, pointers, registers,
// output registers, labels) used to resolve operation overloads.
package regkind

import "fmt"

// BaseType is the opaque identity of a host type, a scalar, a pointer
// target, a tag kind, or one of the reserved sentinels below.
type BaseType int32

// Reserved base types, always present in a fresh TypeRegistry.
const (
	BaseNull  BaseType = 0
	BaseInt   BaseType = 1
	BaseLabel BaseType = 2

	firstUserBase BaseType = 3
)

// Flags is a bit-set of register-ness, pointer-ness, and mutability.
// Flags are independent except for two implications enforced by
// Decorate: Var implies Register, and PtrEditable implies Ptr.
type Flags uint8

const (
	FlagNone Flags = 0
	// Register marks a value that lives in the register file rather than
	// being an immediate constant.
	FlagRegister Flags = 1 << 0
	// Var marks a declared script-output register (a writable binding
	// target for `return`/assignment). Implies FlagRegister.
	FlagVar Flags = 1 << 1
	// Ptr marks a value that is a pointer into host data rather than a
	// plain in-register value.
	FlagPtr Flags = 1 << 2
	// PtrEditable marks a pointer whose target the host type allows
	// handlers to mutate. Implies FlagPtr.
	FlagPtrEditable Flags = 1 << 3
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	s := ""
	for _, pair := range []struct {
		bit  Flags
		name string
	}{
		{FlagRegister, "register"},
		{FlagVar, "var"},
		{FlagPtr, "ptr"},
		{FlagPtrEditable, "ptr_editable"},
	} {
		if f.has(pair.bit) {
			if s != "" {
				s += "|"
			}
			s += pair.name
		}
	}
	return s
}

// ArgKind is the (base type, flags) pair describing a script value's
// shape: what register it occupies, whether it is writable, and whether
// it denotes a pointer into host data.
type ArgKind struct {
	Base  BaseType
	Flags Flags
}

func (k ArgKind) IsRegister() bool    { return k.Flags.has(FlagRegister) }
func (k ArgKind) IsVar() bool         { return k.Flags.has(FlagVar) }
func (k ArgKind) IsPtr() bool         { return k.Flags.has(FlagPtr) }
func (k ArgKind) IsPtrEditable() bool { return k.Flags.has(FlagPtrEditable) }

func (k ArgKind) String() string {
	return fmt.Sprintf("ArgKind{base=%d flags=%s}", k.Base, k.Flags)
}

// Null, Int, and Label are the three sentinel kinds every registry
// provides without registration.
var (
	Null  = ArgKind{Base: BaseNull}
	Int   = ArgKind{Base: BaseInt}
	Label = ArgKind{Base: BaseLabel}
)
