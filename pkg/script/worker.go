package script

import (
	"github.com/vantage-games/scriptvm/internal/vm"
)

// NewWorker allocates a Worker whose register file is p's full
// register-file capacity, with the default instruction budget unless
// budget > 0 overrides it.
func NewWorker[Out any](p *Parser[Out], budget int) *Worker {
	if budget <= 0 {
		budget = vm.DefaultInstructionBudget
	}
	return vm.NewWorker(p.Capacity(), budget)
}

// Execute runs c against w to completion or to the first error.
func Execute(w *Worker, c *Container) error {
	return w.Execute(c)
}

// Reset zeroes w's register file and restores its instruction budget
// for another Execute call.
func Reset(w *Worker, budget int) {
	if budget <= 0 {
		budget = vm.DefaultInstructionBudget
	}
	w.Reset(budget)
}

// SetInput writes value into the input register named name, as
// declared on p, and reports false if no such input is declared. Panics
// if T's size does not match the declared register width — a host
// programming error, not a runtime script error.
func SetInput[Out, T any](p *Parser[Out], w *Worker, name string, value T) bool {
	in, ok := p.sym.FindInput(name)
	if !ok {
		return false
	}
	if vm.SizeOf[T]() != in.Size {
		panic("script: SetInput " + name + ": value size does not match the declared input width")
	}
	vm.Store(w.RF, in.Offset, value)
	return true
}

// Output reads the primary output register as T after a successful
// Execute.
func Output[Out any](p *Parser[Out], w *Worker) Out {
	return vm.Load[Out](w.RF, p.OutputOffset())
}

// Get reads an arbitrary register-file offset as T — the low-level
// escape hatch AddOutput-declared extra outputs need, since they are
// not covered by the Parser's single generic Out.
func Get[T any](w *Worker, offset int) T {
	return vm.Load[T](w.RF, offset)
}

// Set writes value at an arbitrary register-file offset.
func Set[T any](w *Worker, offset int, value T) {
	vm.Store(w.RF, offset, value)
}

// Disassemble returns a human-readable bytecode listing for c, naming
// it name in the listing header.
func Disassemble(c *Container, name string) string {
	return vm.Disassemble(c, name)
}
