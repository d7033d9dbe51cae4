package compiler

import (
	"github.com/vantage-games/scriptvm/internal/vm"
)

// The compiler owns a handful of runtime handles of its own, outside
// the host's catalog: the structural control-flow primitives that
// if/else/loop/break/continue/return compile down to (spec.md §4.3
// "Statement forms"). These are registered once, process-wide, exactly
// like a host's catalog handlers (spec.md §4.4 "an opcode table of
// small integer handles indexing into the catalog").
var (
	hJump        vm.Handle
	hJumpIfFalse vm.Handle
	hHalt        vm.Handle
	hMoveReg     vm.Handle
	hMoveConst   vm.Handle
)

func init() {
	hJump = vm.RegisterHandler(execJump)
	hJumpIfFalse = vm.RegisterHandler(execJumpIfFalse)
	hHalt = vm.RegisterHandler(execHalt)
	hMoveReg = vm.RegisterHandler(execMoveReg)
	hMoveConst = vm.RegisterHandler(execMoveConst)

	vm.HandlerName[hJump] = "jump"
	vm.HandlerName[hJumpIfFalse] = "jump_if_false"
	vm.HandlerName[hHalt] = "halt"
	vm.HandlerName[hMoveReg] = "move_reg"
	vm.HandlerName[hMoveConst] = "move_const"
}

func execJump(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
	target := vm.ReadU16(code, pc)
	w.SetPC(int(target))
	return vm.Continue, nil
}

func execJumpIfFalse(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
	condOffset := vm.ReadU16(code, pc)
	target := vm.ReadU16(code, pc)
	cond := vm.Load[int64](w.RF, int(condOffset))
	if cond == 0 {
		w.SetPC(int(target))
	}
	return vm.Continue, nil
}

func execHalt(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
	return vm.End, nil
}

func execMoveReg(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
	dst := vm.ReadU16(code, pc)
	src := vm.ReadU16(code, pc)
	size := vm.ReadU16(code, pc)
	w.RF.Move(int(dst), int(src), int(size))
	return vm.Continue, nil
}

func execMoveConst(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
	dst := vm.ReadU16(code, pc)
	value := vm.ReadI64(code, pc)
	vm.Store(w.RF, int(dst), value)
	return vm.Continue, nil
}

// emitJump writes an unconditional jump to label, forward-referencing
// it if not yet resolved.
func (c *Compiler) emitJump(label string) {
	c.c.WriteHandle(hJump, c.cur.Line, c.cur.Col)
	c.emitLabelRef(label)
}

// emitJumpIfFalse writes a conditional jump testing condOffset.
func (c *Compiler) emitJumpIfFalse(condOffset int, label string) {
	c.c.WriteHandle(hJumpIfFalse, c.cur.Line, c.cur.Col)
	c.EmitU16(uint16(condOffset))
	c.emitLabelRef(label)
}

func (c *Compiler) emitHalt() {
	c.c.WriteHandle(hHalt, c.cur.Line, c.cur.Col)
}

func (c *Compiler) emitMoveReg(dst, src, size int) {
	if dst == src {
		return // self-move, e.g. `return out;` where out is already the output register
	}
	c.c.WriteHandle(hMoveReg, c.cur.Line, c.cur.Col)
	c.EmitU16(uint16(dst))
	c.EmitU16(uint16(src))
	c.EmitU16(uint16(size))
}

func (c *Compiler) emitMoveConst(dst int, value int64) {
	c.c.WriteHandle(hMoveConst, c.cur.Line, c.cur.Col)
	c.EmitU16(uint16(dst))
	c.EmitI64(value)
}
