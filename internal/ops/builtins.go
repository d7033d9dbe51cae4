// Package ops registers the baseline arithmetic, comparison, and
// register-movement operations every host catalog needs (spec.md §4.2
// "Operations required by the host catalog include... arithmetic,
// comparisons"). Hosts are free to register their own operations
// alongside these; pkg/script registers this set into every new
// Parser by default, the way funxy's evaluator registers its builtin
// traits before any user module loads.
package ops

import (
	"github.com/vantage-games/scriptvm/internal/catalog"
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/vm"
)

var regInt = regkind.Decorate(regkind.Int, regkind.FlagRegister)

// Register adds the baseline operation set to cat: set, clear, and the
// arithmetic/comparison family, each with a register-register overload
// and a register-constant overload so that both `out add a b;` and
// `n sub n 1;` resolve (spec.md §3 overload resolution).
func Register(cat *catalog.Catalog) {
	registerMove(cat)
	registerClear(cat)
	registerBinary(cat, "add", func(a, b int64) int64 { return a + b })
	registerBinary(cat, "sub", func(a, b int64) int64 { return a - b })
	registerBinary(cat, "mul", func(a, b int64) int64 { return a * b })
	registerBinary(cat, "div", func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a / b
	})
	registerBinary(cat, "gt", boolOf(func(a, b int64) bool { return a > b }))
	registerBinary(cat, "ge", boolOf(func(a, b int64) bool { return a >= b }))
	registerBinary(cat, "lt", boolOf(func(a, b int64) bool { return a < b }))
	registerBinary(cat, "le", boolOf(func(a, b int64) bool { return a <= b }))
	registerBinary(cat, "eq", boolOf(func(a, b int64) bool { return a == b }))
	registerBinary(cat, "ne", boolOf(func(a, b int64) bool { return a != b }))
}

func boolOf(pred func(a, b int64) bool) func(a, b int64) int64 {
	return func(a, b int64) int64 {
		if pred(a, b) {
			return 1
		}
		return 0
	}
}

// registerMove registers `set`: target = src, either register-resident
// or an inline constant (spec.md §3 overload resolution: `out set a;`
// and `out set 0;` both resolve, to different overloads).
func registerMove(cat *catalog.Catalog) {
	hReg := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		target := vm.ReadU16(code, pc)
		src := vm.ReadU16(code, pc)
		vm.Store(w.RF, int(target), vm.Load[int64](w.RF, int(src)))
		return vm.Continue, nil
	})
	vm.HandlerName[hReg] = "set_reg"

	hConst := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		target := vm.ReadU16(code, pc)
		value := vm.ReadI64(code, pc)
		vm.Store(w.RF, int(target), value)
		return vm.Continue, nil
	})
	vm.HandlerName[hConst] = "set_const"

	pd := cat.Register("set")
	pd.Overload(catalog.Overload{
		Signature: []regkind.ArgKind{regInt, regInt},
		Select:    func(int) vm.Handle { return hReg },
	})
	pd.Overload(catalog.Overload{
		Signature: []regkind.ArgKind{regInt, regkind.Int},
		Select:    func(int) vm.Handle { return hConst },
	})
}

// registerClear registers `clear`: target = 0.
func registerClear(cat *catalog.Catalog) {
	h := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		target := vm.ReadU16(code, pc)
		vm.Store(w.RF, int(target), int64(0))
		return vm.Continue, nil
	})
	vm.HandlerName[h] = "clear"

	cat.Register("clear").Overload(catalog.Overload{
		Signature: []regkind.ArgKind{regInt},
		Select:    func(int) vm.Handle { return h },
	})
}

// registerBinary registers name as `target OP a b;` with three
// overloads: (target, a-register, b-register), (target, a-register,
// b-constant), and a target-less (a-constant, b-constant) Foldable
// overload usable only from a `const` declaration (spec.md §4.3
// "Constant folding").
func registerBinary(cat *catalog.Catalog, name string, compute func(a, b int64) int64) {
	hRegReg := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		target := vm.ReadU16(code, pc)
		a := vm.ReadU16(code, pc)
		b := vm.ReadU16(code, pc)
		va := vm.Load[int64](w.RF, int(a))
		vb := vm.Load[int64](w.RF, int(b))
		vm.Store(w.RF, int(target), compute(va, vb))
		return vm.Continue, nil
	})
	vm.HandlerName[hRegReg] = name + "_rr"

	hRegConst := vm.RegisterHandler(func(w *vm.Worker, code []byte, pc *int) (vm.StepResult, error) {
		target := vm.ReadU16(code, pc)
		a := vm.ReadU16(code, pc)
		b := vm.ReadI64(code, pc)
		va := vm.Load[int64](w.RF, int(a))
		vm.Store(w.RF, int(target), compute(va, b))
		return vm.Continue, nil
	})
	vm.HandlerName[hRegConst] = name + "_rc"

	pd := cat.Register(name)
	pd.Overload(catalog.Overload{
		Signature: []regkind.ArgKind{regInt, regInt, regInt},
		Select:    func(int) vm.Handle { return hRegReg },
	})
	pd.Overload(catalog.Overload{
		Signature: []regkind.ArgKind{regInt, regInt, regkind.Int},
		Select:    func(int) vm.Handle { return hRegConst },
	})
	pd.Overload(catalog.Overload{
		Signature: []regkind.ArgKind{regkind.Int, regkind.Int},
		Foldable:  true,
		Fold:      func(args []int64) int64 { return compute(args[0], args[1]) },
	})
}
