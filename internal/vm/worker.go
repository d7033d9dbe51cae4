package vm

import (
	"fmt"

	"github.com/vantage-games/scriptvm/internal/errs"
)

// DefaultInstructionBudget is the handler-invocation ceiling used when a
// host does not override it (SPEC_FULL.md §9(c), resolving spec.md's
// open question (c)). The budget belongs to the Worker: Execute does not
// refill it, so successive Execute calls draw on the same budget until
// Reset restores it (BlitWorker refills it before every pixel).
const DefaultInstructionBudget = 1_000_000

// Worker is the per-execution VM state: a register file and a program
// counter (spec.md §3 "Worker"). Workers are short-lived: constructed
// per execution, destroyed after (spec.md §3 "Lifecycle"). A Worker is
// not reentrant and must not be shared across goroutines (spec.md §5).
type Worker struct {
	RF        *RegisterFile
	pc        int
	budget    int
	container *Container
}

// NewWorker allocates a Worker with a register file of at least
// frameSize bytes and the given instruction budget (use
// DefaultInstructionBudget when the host has no opinion).
func NewWorker(frameSize, budget int) *Worker {
	return &Worker{RF: NewRegisterFile(frameSize), budget: budget}
}

// Reset zeroes the register file and restores the full instruction
// budget, readying the Worker for another Execute call without
// reallocating (spec.md §4.4 "updateBase... zeroes the register file").
func (w *Worker) Reset(budget int) {
	w.RF.Reset()
	w.budget = budget
	w.pc = 0
	w.container = nil
}

// PC returns the current program counter, for handlers that need to
// compute relative jump targets.
func (w *Worker) PC() int { return w.pc }

// SetPC overwrites the program counter; used by branch/jump/call
// handlers to transfer control (spec.md §4.4 "control transfer is by
// program-counter assignment").
func (w *Worker) SetPC(pc int) { w.pc = pc }

// Execute runs c's bytecode to completion, to an instruction-budget
// timeout, or to a handler error (spec.md §4.4 "execution loop", P3).
func (w *Worker) Execute(c *Container) error {
	w.container = c
	w.pc = 0

	for {
		if w.budget <= 0 {
			return &errs.RuntimeError{
				ErrKind:      errs.InstructionBudgetExceeded,
				ParentScript: c.Name,
				Msg:          "instruction budget exceeded",
				Offset:       w.pc,
			}
		}
		w.budget--

		if w.pc+2 > len(c.Code) {
			return &errs.RuntimeError{
				ErrKind:      errs.HandlerFailure,
				ParentScript: c.Name,
				Msg:          "truncated bytecode: expected a handle",
				Offset:       w.pc,
			}
		}
		h := Handle(uint16(c.Code[w.pc])<<8 | uint16(c.Code[w.pc+1]))
		w.pc += 2

		handler := handlerFor(h)
		result, err := handler(w, c.Code, &w.pc)
		switch result {
		case Continue:
			continue
		case End:
			return nil
		case ErrorResult:
			if err == nil {
				err = fmt.Errorf("handler %d reported failure with no error", h)
			}
			return &errs.RuntimeError{
				ErrKind:      errs.HandlerFailure,
				ParentScript: c.Name,
				Msg:          err.Error(),
				Offset:       w.pc,
			}
		default:
			return &errs.RuntimeError{
				ErrKind:      errs.HandlerFailure,
				ParentScript: c.Name,
				Msg:          fmt.Sprintf("handler %d returned unknown step result %d", h, result),
				Offset:       w.pc,
			}
		}
	}
}

// ReadU16 reads a big-endian two-byte immediate at code[pc] and
// advances *pc past it. Handlers use this to decode register offsets
// and label targets they emitted via Container.WriteU16/WriteHandle.
func ReadU16(code []byte, pc *int) uint16 {
	v := uint16(code[*pc])<<8 | uint16(code[*pc+1])
	*pc += 2
	return v
}

// ReadByte reads one immediate byte at code[pc] and advances *pc.
func ReadByte(code []byte, pc *int) byte {
	b := code[*pc]
	*pc++
	return b
}

// ReadI64 reads a big-endian eight-byte immediate at code[pc] and
// advances *pc.
func ReadI64(code []byte, pc *int) int64 {
	var v int64
	for i := 0; i < 8; i++ {
		v = v<<8 | int64(code[*pc+i])
	}
	*pc += 8
	return v
}
