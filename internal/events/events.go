// Package events implements the priority-ordered event chains of
// SPEC_FULL.md §4.5 Events (the distilled spec's events layer, modeled
// on the original game's rule-driven before/main/after hooks —
// `original_source/src/Mod/RuleManufacture.h`'s priority-ordered rule
// list, re-expressed as compiled script containers rather than
// hand-written C++ hooks).
//
// An event is just a compiled vm.Container plus a priority and a name;
// a Chain groups every event registered for one event point and runs
// them in a fixed order: every "before" hook (descending priority),
// then the main script (if any), then every "after" hook (ascending
// priority) — spec.md's general priority convention, scaled by
// OffsetScale so integer priorities leave room for host-assigned
// fractional ordering without reformatting the whole list.
package events

import (
	"sort"

	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// OffsetScale is the multiplier a host applies to its own priority
// constants before registering an event, leaving 100 slots between any
// two adjacent declared priorities for later insertions without a
// renumbering pass.
const OffsetScale = 100

// Hook is one registered event: a compiled container, its priority,
// and a name a host can use to disable it without recompiling
// (SPEC_FULL.md §4.5 "disable event by name").
type Hook struct {
	Name      string
	Priority  int
	Container *vm.Container
	disabled  bool
}

// Chain is the full set of hooks registered for one event point,
// split into a "before" group and an "after" group around an optional
// main script.
type Chain struct {
	before []*Hook
	after  []*Hook
	main   *vm.Container
	byName map[string]*Hook

	inputOffset int
	inputSize   int
}

// NewChain returns an empty Chain.
func NewChain() *Chain {
	return &Chain{byName: make(map[string]*Hook)}
}

// SetMain installs the chain's main script, run between the before and
// after groups.
func (c *Chain) SetMain(container *vm.Container) {
	c.main = container
}

// SetInputRegion declares the register-file byte range a host's
// declared inputs occupy. Run snapshots this range once per call and
// restores it before every hook, enforcing spec.md §4.5's "events only
// read inputs... never mutate inputs" invariant even when a hook writes
// to its own input registers.
func (c *Chain) SetInputRegion(offset, size int) {
	c.inputOffset = offset
	c.inputSize = size
}

// Before registers a hook to run before the main script, at priority
// (higher runs first — descending order, spec.md's "before" convention).
func (c *Chain) Before(name string, priority int, container *vm.Container) {
	h := &Hook{Name: name, Priority: priority, Container: container}
	c.before = append(c.before, h)
	c.byName[name] = h
	c.resort()
}

// After registers a hook to run after the main script, at priority
// (lower runs first — ascending order).
func (c *Chain) After(name string, priority int, container *vm.Container) {
	h := &Hook{Name: name, Priority: priority, Container: container}
	c.after = append(c.after, h)
	c.byName[name] = h
	c.resort()
}

// resort stable-sorts both groups by priority, preserving registration
// order among equal priorities (spec.md "stable sort").
func (c *Chain) resort() {
	sort.SliceStable(c.before, func(i, j int) bool { return c.before[i].Priority > c.before[j].Priority })
	sort.SliceStable(c.after, func(i, j int) bool { return c.after[i].Priority < c.after[j].Priority })
}

// Disable marks a previously registered hook inactive by name without
// requiring a recompile (SPEC_FULL.md §4.5 supplement).
func (c *Chain) Disable(name string) error {
	h, ok := c.byName[name]
	if !ok {
		return errUnknownHook(name)
	}
	h.disabled = true
	return nil
}

// Enable reverses a prior Disable.
func (c *Chain) Enable(name string) error {
	h, ok := c.byName[name]
	if !ok {
		return errUnknownHook(name)
	}
	h.disabled = false
	return nil
}

// Split reports how many active hooks run before the main script and
// how many run after, for hosts that want to introspect chain shape
// (SPEC_FULL.md §4.5 "exposing the before/after split index").
func (c *Chain) Split() (before, after int) {
	for _, h := range c.before {
		if !h.disabled {
			before++
		}
	}
	for _, h := range c.after {
		if !h.disabled {
			after++
		}
	}
	return
}

// Run executes every active hook in order — before group, main,
// after group — against w, stopping at the first error. Before each
// hook, the declared input region (set via SetInputRegion) is restored
// to the snapshot taken at the start of Run, so a hook that writes to
// its own input registers can never leak that mutation into a later
// hook — spec.md §4.5 "for each before-event: reset read-only inputs,
// run... Events only read inputs and read/write outputs (never mutate
// inputs)."
func (c *Chain) Run(w *vm.Worker) error {
	var snapshot []byte
	if c.inputSize > 0 {
		snapshot = make([]byte, c.inputSize)
		w.RF.CopyTo(c.inputOffset, snapshot)
	}
	resetInputs := func() {
		if c.inputSize > 0 {
			w.RF.CopyFrom(c.inputOffset, snapshot)
		}
	}

	for _, h := range c.before {
		if h.disabled || !h.Container.Truthy() {
			continue
		}
		resetInputs()
		if err := w.Execute(h.Container); err != nil {
			return err
		}
	}
	if c.main != nil && c.main.Truthy() {
		resetInputs()
		if err := w.Execute(c.main); err != nil {
			return err
		}
	}
	for _, h := range c.after {
		if h.disabled || !h.Container.Truthy() {
			continue
		}
		resetInputs()
		if err := w.Execute(h.Container); err != nil {
			return err
		}
	}
	return nil
}

// Reset rewinds w's register file and instruction budget before the
// next Run, enforcing the invariant that each event point's inputs
// start from a clean frame (spec.md §4.4 "updateBase").
func Reset(w *vm.Worker, budget int) {
	w.Reset(budget)
}

// errUnknownHook builds the error Disable/Enable return for a name with
// no registered hook: a typed failure instead of a bare bool, kept as a
// ConfigError so it composes with the rest of the errs family.
func errUnknownHook(name string) error {
	return &errs.ConfigError{ErrKind: errs.UnknownTagValueType, Name: name, Msg: "no event hook registered under this name"}
}
