package events_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/vantage-games/scriptvm/internal/events"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// recorder builds a one-handler container that appends label to log
// when run, then halts. Used to observe a Chain's execution order
// without a real compiler.
func recorder(t *testing.T, log *[]string, label string) *vm.Container {
	t.Helper()
	h := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		*log = append(*log, label)
		return vm.End, nil
	})
	c := vm.NewContainer(label, 0)
	c.WriteHandle(h, 1, 1)
	return c
}

func TestRunOrdersBeforeMainAfter(t *testing.T) {
	var log []string
	chain := events.NewChain()
	chain.SetMain(recorder(t, &log, "main"))
	chain.Before("b1", 1*events.OffsetScale, recorder(t, &log, "b1"))
	chain.After("a1", 1*events.OffsetScale, recorder(t, &log, "a1"))

	w := vm.NewWorker(8, vm.DefaultInstructionBudget)
	if err := chain.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"b1", "main", "a1"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("run order = %v, want %v", log, want)
	}
}

func TestBeforeGroupRunsHighestPriorityFirst(t *testing.T) {
	var log []string
	chain := events.NewChain()
	chain.Before("low", 1*events.OffsetScale, recorder(t, &log, "low"))
	chain.Before("high", 5*events.OffsetScale, recorder(t, &log, "high"))
	chain.Before("mid", 3*events.OffsetScale, recorder(t, &log, "mid"))

	w := vm.NewWorker(8, vm.DefaultInstructionBudget)
	if err := chain.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"high", "mid", "low"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("before-group order = %v, want %v (descending priority)", log, want)
	}
}

func TestAfterGroupRunsLowestPriorityFirst(t *testing.T) {
	var log []string
	chain := events.NewChain()
	chain.After("high", 5*events.OffsetScale, recorder(t, &log, "high"))
	chain.After("low", 1*events.OffsetScale, recorder(t, &log, "low"))
	chain.After("mid", 3*events.OffsetScale, recorder(t, &log, "mid"))

	w := vm.NewWorker(8, vm.DefaultInstructionBudget)
	if err := chain.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"low", "mid", "high"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("after-group order = %v, want %v (ascending priority)", log, want)
	}
}

func TestStableSortPreservesRegistrationOrderAmongTies(t *testing.T) {
	var log []string
	chain := events.NewChain()
	chain.Before("first", 1*events.OffsetScale, recorder(t, &log, "first"))
	chain.Before("second", 1*events.OffsetScale, recorder(t, &log, "second"))
	chain.Before("third", 1*events.OffsetScale, recorder(t, &log, "third"))

	w := vm.NewWorker(8, vm.DefaultInstructionBudget)
	if err := chain.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("tied-priority order = %v, want registration order %v", log, want)
	}
}

func TestDisableSkipsHookAndSplitReflectsIt(t *testing.T) {
	var log []string
	chain := events.NewChain()
	chain.Before("b1", events.OffsetScale, recorder(t, &log, "b1"))
	chain.After("a1", events.OffsetScale, recorder(t, &log, "a1"))

	if before, after := chain.Split(); before != 1 || after != 1 {
		t.Fatalf("Split before disable = (%d, %d), want (1, 1)", before, after)
	}

	if err := chain.Disable("b1"); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	if before, after := chain.Split(); before != 0 || after != 1 {
		t.Errorf("Split after disabling b1 = (%d, %d), want (0, 1)", before, after)
	}

	w := vm.NewWorker(8, vm.DefaultInstructionBudget)
	if err := chain.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"a1"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("run order with b1 disabled = %v, want %v", log, want)
	}

	if err := chain.Enable("b1"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if before, _ := chain.Split(); before != 1 {
		t.Errorf("Split after re-enabling b1, before = %d, want 1", before)
	}
}

func TestDisableUnknownHookReturnsError(t *testing.T) {
	chain := events.NewChain()
	if err := chain.Disable("ghost"); err == nil {
		t.Errorf("expected Disable of an unregistered hook name to error")
	}
	if err := chain.Enable("ghost"); err == nil {
		t.Errorf("expected Enable of an unregistered hook name to error")
	}
}

func TestRunStopsAtFirstError(t *testing.T) {
	hFail := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		return vm.ErrorResult, errFailure
	})
	failing := vm.NewContainer("failing", 0)
	failing.WriteHandle(hFail, 1, 1)

	var log []string
	chain := events.NewChain()
	chain.Before("ok", 2*events.OffsetScale, recorder(t, &log, "ok"))
	chain.Before("boom", 1*events.OffsetScale, failing)
	chain.SetMain(recorder(t, &log, "main"))

	w := vm.NewWorker(8, vm.DefaultInstructionBudget)
	if err := chain.Run(w); err == nil {
		t.Fatalf("expected Run to propagate the failing hook's error")
	}

	// "ok" ran (higher priority, runs first); "main" must not have, since
	// the chain stops at the first error.
	want := []string{"ok"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log after aborted run = %v, want %v", log, want)
	}
}

func TestRunResetsInputBeforeEachHook(t *testing.T) {
	const inputOffset = 0
	var log []string

	hMutate := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		vm.Store(w.RF, inputOffset, int64(999))
		return vm.End, nil
	})
	mutate := vm.NewContainer("mutate", 0)
	mutate.WriteHandle(hMutate, 1, 1)

	hObserve := func(label string) *vm.Container {
		h := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
			v := vm.Load[int64](w.RF, inputOffset)
			log = append(log, fmt.Sprintf("%s=%d", label, v))
			return vm.End, nil
		})
		c := vm.NewContainer(label, 0)
		c.WriteHandle(h, 1, 1)
		return c
	}

	chain := events.NewChain()
	chain.SetInputRegion(inputOffset, 8)
	chain.Before("mutate", 2*events.OffsetScale, mutate)
	chain.Before("observe-before", 1*events.OffsetScale, hObserve("before"))
	chain.SetMain(hObserve("main"))
	chain.After("observe-after", 1*events.OffsetScale, hObserve("after"))

	w := vm.NewWorker(8, vm.DefaultInstructionBudget)
	vm.Store(w.RF, inputOffset, int64(7))

	if err := chain.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"before=7", "main=7", "after=7"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("observed input values = %v, want %v (mutation by a before-hook must not leak into later hooks)", log, want)
	}
}

var errFailure = errBoom{}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
