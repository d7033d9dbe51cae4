package compiler_test

import (
	"testing"

	"github.com/vantage-games/scriptvm/internal/catalog"
	"github.com/vantage-games/scriptvm/internal/compiler"
	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/ops"
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/symtab"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// fixture builds a fresh SymbolTable + Catalog + TypeRegistry with the
// baseline operation set registered, the way pkg/script.New does.
func fixture() (*symtab.SymbolTable, *catalog.Catalog, *regkind.TypeRegistry) {
	types := regkind.NewTypeRegistry()
	cat := catalog.New()
	ops.Register(cat)
	sym := symtab.New(64 * 8)
	return sym, cat, types
}

func compileAndRun(t *testing.T, sym *symtab.SymbolTable, cat *catalog.Catalog, types *regkind.TypeRegistry, source string, setup func(w *vm.Worker)) *vm.Worker {
	t.Helper()
	c := compiler.New(sym, cat, types, "test")
	container, err := c.Parse(source)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	w := vm.NewWorker(sym.Capacity(), vm.DefaultInstructionBudget)
	if setup != nil {
		setup(w)
	}
	if err := w.Execute(container); err != nil {
		t.Fatalf("execute error: %v", err)
	}
	return w
}

func TestGeneralCallAddsTwoInputsIntoOutput(t *testing.T) {
	sym, cat, types := fixture()
	out := sym.DeclareOutput("out", regkind.Int, 8)
	a := sym.DeclareInput("a", regkind.Int, 8)
	b := sym.DeclareInput("b", regkind.Int, 8)

	w := compileAndRun(t, sym, cat, types, "out add a b; return out;", func(w *vm.Worker) {
		vm.Store(w.RF, a.Offset, int64(2))
		vm.Store(w.RF, b.Offset, int64(3))
	})

	if got := vm.Load[int64](w.RF, out.Offset); got != 5 {
		t.Errorf("out = %d, want 5", got)
	}
}

func TestIfElseSelectsTheLargerInput(t *testing.T) {
	sym, cat, types := fixture()
	out := sym.DeclareOutput("out", regkind.Int, 8)
	a := sym.DeclareInput("a", regkind.Int, 8)
	b := sym.DeclareInput("b", regkind.Int, 8)

	source := "if gt a b; out set a; else; out set b; end; return out;"

	cases := []struct {
		a, b, want int64
	}{
		{5, 3, 5},
		{2, 9, 9},
		{4, 4, 4},
	}
	for _, tc := range cases {
		w := compileAndRun(t, sym, cat, types, source, func(w *vm.Worker) {
			vm.Store(w.RF, a.Offset, tc.a)
			vm.Store(w.RF, b.Offset, tc.b)
		})
		if got := vm.Load[int64](w.RF, out.Offset); got != tc.want {
			t.Errorf("a=%d b=%d: out = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestLoopSumsUpToN(t *testing.T) {
	sym, cat, types := fixture()
	out := sym.DeclareOutput("out", regkind.Int, 8)
	n := sym.DeclareInput("n", regkind.Int, 8)

	source := `
		out set 0;
		var int i = 0;
		loop;
			if ge i n;
				break;
			end;
			i add i 1;
			out add out i;
		end;
		return out;
	`

	w := compileAndRun(t, sym, cat, types, source, func(w *vm.Worker) {
		vm.Store(w.RF, n.Offset, int64(4))
	})

	if got := vm.Load[int64](w.RF, out.Offset); got != 10 { // 1+2+3+4
		t.Errorf("out = %d, want 10", got)
	}
}

func TestContinueSkipsRestOfLoopBody(t *testing.T) {
	sym, cat, types := fixture()
	out := sym.DeclareOutput("out", regkind.Int, 8)
	n := sym.DeclareInput("n", regkind.Int, 8)

	// continue jumps straight back to the loop start, so the statement
	// after it never runs and out only accumulates i on each pass.
	source := `
		out set 0;
		var int i = 0;
		loop;
			i add i 1;
			if gt i n;
				break;
			end;
			out add out i;
			continue;
			out add out 100;
		end;
		return out;
	`

	w := compileAndRun(t, sym, cat, types, source, func(w *vm.Worker) {
		vm.Store(w.RF, n.Offset, int64(3))
	})
	if got := vm.Load[int64](w.RF, out.Offset); got != 6 { // 1+2+3
		t.Errorf("out = %d, want 6", got)
	}
}

func TestConstDeclaration(t *testing.T) {
	sym, cat, types := fixture()
	out := sym.DeclareOutput("out", regkind.Int, 8)

	source := "const limit = add 2 3; out set limit; return out;"
	w := compileAndRun(t, sym, cat, types, source, nil)
	if got := vm.Load[int64](w.RF, out.Offset); got != 5 {
		t.Errorf("out = %d, want 5", got)
	}
}

func TestDuplicateLocalIsRejectedAndRollsBack(t *testing.T) {
	sym, cat, types := fixture()
	sym.DeclareOutput("out", regkind.Int, 8)

	before := sym.FrameSize()

	c := compiler.New(sym, cat, types, "test")
	_, err := c.Parse("var int x = 1; var int x = 2; return out;")
	if err == nil {
		t.Fatalf("expected a duplicate-local compile error")
	}

	if sym.FrameSize() != before {
		t.Errorf("failed compile should roll back symbol table state: frame size changed from %d to %d", before, sym.FrameSize())
	}
}

func TestRegisterFileOverflowIsDistinguishedFromDuplicateLocal(t *testing.T) {
	types := regkind.NewTypeRegistry()
	cat := catalog.New()
	ops.Register(cat)
	sym := symtab.New(16) // room for "out" (8 bytes) plus exactly one 8-byte local

	sym.DeclareOutput("out", regkind.Int, 8)
	before := sym.FrameSize()

	c := compiler.New(sym, cat, types, "test")
	// "x" fits exactly; "y" is a distinct name but there is no room left
	// for it, so this must fail with RegisterFileOverflow, not
	// DuplicateLocal.
	_, err := c.Parse("var int x = 1; var int y = 2; return out;")
	if err == nil {
		t.Fatalf("expected a register-file-overflow compile error")
	}
	cerr, ok := err.(*errs.CompileError)
	if !ok {
		t.Fatalf("expected *errs.CompileError, got %T", err)
	}
	if cerr.ErrKind != errs.RegisterFileOverflow {
		t.Errorf("ErrKind = %v, want RegisterFileOverflow (distinct names must never be misreported as DuplicateLocal)", cerr.ErrKind)
	}

	if sym.FrameSize() != before {
		t.Errorf("failed compile should roll back symbol table state: frame size changed from %d to %d", before, sym.FrameSize())
	}
}

func TestInvalidLValueOnConstTarget(t *testing.T) {
	sym, cat, types := fixture()
	sym.DeclareOutput("out", regkind.Int, 8)
	sym.AddConst("FIVE", regkind.Int, 5)

	c := compiler.New(sym, cat, types, "test")
	_, err := c.Parse("FIVE set 1; return out;")
	if err == nil {
		t.Fatalf("expected an InvalidLValue compile error assigning through a constant")
	}
}

func TestUnknownIdentifierIsRejected(t *testing.T) {
	sym, cat, types := fixture()
	sym.DeclareOutput("out", regkind.Int, 8)

	c := compiler.New(sym, cat, types, "test")
	_, err := c.Parse("out set ghost; return out;")
	if err == nil {
		t.Fatalf("expected an UnknownIdentifier compile error")
	}
}
