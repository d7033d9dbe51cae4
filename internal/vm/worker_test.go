package vm_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// buildAddOneHalt compiles a tiny hand-assembled container: store a
// constant 41 into register 0, add 1 to it, halt. Exercises the
// dispatch loop without going through the compiler package.
func buildAddOneHalt(t *testing.T) (*vm.Container, vm.Handle, vm.Handle, vm.Handle) {
	t.Helper()

	hSetConst := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		target := vm.ReadU16(code, pc)
		value := vm.ReadI64(code, pc)
		vm.Store(w.RF, int(target), value)
		return vm.Continue, nil
	})
	hAddOne := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		target := vm.ReadU16(code, pc)
		v := vm.Load[int64](w.RF, int(target))
		vm.Store(w.RF, int(target), v+1)
		return vm.Continue, nil
	})
	hHalt := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		return vm.End, nil
	})

	c := vm.NewContainer("test", 8)
	c.WriteHandle(hSetConst, 1, 1)
	c.WriteU16(0, 1, 1)
	c.WriteI64(41)
	c.WriteHandle(hAddOne, 2, 1)
	c.WriteU16(0, 2, 1)
	c.WriteHandle(hHalt, 3, 1)
	c.FrameSize = 8

	return c, hSetConst, hAddOne, hHalt
}

func TestDispatchLoopRunsHandlersInOrder(t *testing.T) {
	c, _, _, _ := buildAddOneHalt(t)

	w := vm.NewWorker(c.FrameSize, vm.DefaultInstructionBudget)
	if err := w.Execute(c); err != nil {
		t.Fatalf("execute error: %v", err)
	}

	if got := vm.Load[int64](w.RF, 0); got != 42 {
		t.Errorf("register 0 = %d, want 42", got)
	}
}

func TestInstructionBudgetExceeded(t *testing.T) {
	c, _, _, _ := buildAddOneHalt(t)

	w := vm.NewWorker(c.FrameSize, 1) // too small a budget to reach hHalt
	err := w.Execute(c)
	if err == nil {
		t.Fatalf("expected an instruction-budget error")
	}

	rerr, ok := err.(*errs.RuntimeError)
	if !ok {
		t.Fatalf("expected *errs.RuntimeError, got %T", err)
	}
	if rerr.ErrKind != errs.InstructionBudgetExceeded {
		t.Errorf("ErrKind = %v, want InstructionBudgetExceeded", rerr.ErrKind)
	}
}

func TestResetClearsRegistersAndRestoresBudget(t *testing.T) {
	c, _, _, _ := buildAddOneHalt(t)

	w := vm.NewWorker(c.FrameSize, vm.DefaultInstructionBudget)
	if err := w.Execute(c); err != nil {
		t.Fatalf("execute error: %v", err)
	}

	w.Reset(vm.DefaultInstructionBudget)
	if got := vm.Load[int64](w.RF, 0); got != 0 {
		t.Errorf("register 0 after reset = %d, want 0", got)
	}

	if err := w.Execute(c); err != nil {
		t.Fatalf("second execute error: %v", err)
	}
	if got := vm.Load[int64](w.RF, 0); got != 42 {
		t.Errorf("register 0 after second run = %d, want 42", got)
	}
}

func TestBlitWorkerDefaultsOutputToDestinationPixel(t *testing.T) {
	type pixel = uint32

	hHalt := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		return vm.End, nil
	})
	c := vm.NewContainer("blit", 0)
	c.WriteHandle(hHalt, 1, 1)

	bw := vm.NewBlitWorker[pixel](c, vm.DefaultInstructionBudget)
	out, err := bw.ExecuteBlit(pixel(0x11223344), pixel(0xAABBCCDD), 3, 4, 128, true)
	if err != nil {
		t.Fatalf("ExecuteBlit error: %v", err)
	}
	if out != pixel(0xAABBCCDD) {
		t.Errorf("output pixel = %#x, want destination pixel unchanged (%#x)", out, pixel(0xAABBCCDD))
	}
}

func TestDisassembleFromAnnotatesEachHandle(t *testing.T) {
	c, hSetConst, hAddOne, hHalt := buildAddOneHalt(t)
	vm.HandlerName[hSetConst] = "set_const"
	vm.HandlerName[hAddOne] = "add_one"
	vm.HandlerName[hHalt] = "halt"

	listing := vm.DisassembleFrom(c, "addonehalt", func(h vm.Handle, code []byte, pc *int) string {
		name := vm.HandlerName[h]
		switch name {
		case "set_const":
			target := vm.ReadU16(code, pc)
			value := vm.ReadI64(code, pc)
			return fmt.Sprintf("%s r%d, %d", name, target, value)
		case "add_one":
			target := vm.ReadU16(code, pc)
			return fmt.Sprintf("%s r%d", name, target)
		default:
			return name
		}
	})

	for _, want := range []string{"set_const r0, 41", "add_one r0", "halt"} {
		if !strings.Contains(listing, want) {
			t.Errorf("disassembly missing %q:\n%s", want, listing)
		}
	}
}

func TestBlitWorkerBindsSourceAndCoordinateInputs(t *testing.T) {
	type pixel = uint32

	var bw *vm.BlitWorker[pixel]

	hCopySrcToOutput := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		output, src, _, _, _, _, _ := bw.Offsets()
		v := vm.Load[pixel](w.RF, src)
		vm.Store(w.RF, output, v)
		return vm.Continue, nil
	})
	hHalt := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		return vm.End, nil
	})

	c := vm.NewContainer("blit", 0)
	c.WriteHandle(hCopySrcToOutput, 1, 1)
	c.WriteHandle(hHalt, 2, 1)

	bw = vm.NewBlitWorker[pixel](c, vm.DefaultInstructionBudget)
	out, err := bw.ExecuteBlit(pixel(0x01020304), pixel(0xFFFFFFFF), 0, 0, 0, false)
	if err != nil {
		t.Fatalf("ExecuteBlit error: %v", err)
	}
	if out != pixel(0x01020304) {
		t.Errorf("output pixel = %#x, want source pixel (%#x)", out, pixel(0x01020304))
	}
}
