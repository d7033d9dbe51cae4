package script

import (
	"github.com/vantage-games/scriptvm/internal/events"
	"github.com/vantage-games/scriptvm/internal/tags"
)

// ScriptGlobal is the process-wide (or mod-wide) registry of declared
// tag names, shared across every host object of a given kind — spec.md
// §6 "ScriptGlobal tag-kind/tag/value-type registration".
type ScriptGlobal struct {
	tags *tags.TagStore
}

// NewScriptGlobal returns an empty ScriptGlobal.
func NewScriptGlobal() *ScriptGlobal {
	return &ScriptGlobal{tags: tags.NewTagStore()}
}

// RegisterValueType adds a named load/save adapter pair for DeclareTag
// to bind tags to (spec.md §6 "register_value_type"). Call before the
// corresponding DeclareTag calls and before Freeze.
func (g *ScriptGlobal) RegisterValueType(vt ValueType) error {
	return g.tags.RegisterValueType(vt)
}

// DeclareTag registers a new tag name bound to valueType (the name of
// a type previously passed to RegisterValueType, or "" for the builtin
// plain-integer adapter). maxIndex is recorded on the tag's TagData;
// ScriptValues Get and Set do not check indices against it.
// defaultValue is returned by Get before any Set.
func (g *ScriptGlobal) DeclareTag(name, displayName, valueType string, maxIndex int, defaultValue int64) error {
	return g.tags.Declare(name, displayName, maxIndex, valueType, func() int64 { return defaultValue })
}

// Freeze marks the tag registry immutable; call once all DeclareTag
// calls are done, before any ScriptValues reads or writes through it.
func (g *ScriptGlobal) Freeze() { g.tags.Freeze() }

// TagNames returns every declared tag name in declaration order.
func (g *ScriptGlobal) TagNames() []string { return g.tags.Names() }

// ScriptValues is one host object's dense per-tag value vector —
// spec.md §6 "ScriptValues get/set/load/save".
type ScriptValues struct {
	v *tags.Values
}

// NewScriptValues returns an empty ScriptValues bound to g.
func NewScriptValues(g *ScriptGlobal) *ScriptValues {
	return &ScriptValues{v: tags.NewValues(g.tags)}
}

// Get returns the value of tag name at idx, or its declared default
// when absent.
func (sv *ScriptValues) Get(name string, idx int) int64 { return sv.v.Get(name, idx) }

// Set stores value at tag name's index idx.
func (sv *ScriptValues) Set(name string, idx int, value int64) { sv.v.Set(name, idx, value) }

// Save serializes sv to a YAML node for the host's own save format.
func (sv *ScriptValues) Save() (*YAMLNode, error) { return sv.v.Save() }

// Load populates sv from a previously Saved YAML node. Unknown tag
// names are ignored with a warning diagnostic rather than an error.
func (sv *ScriptValues) Load(node *YAMLNode, sink DiagnosticSink) error {
	return sv.v.Load(node, sink)
}

// EventChain re-exports events.Chain: the priority-ordered
// before/main/after hook group for one event point (spec.md §4.5
// "Events").
type EventChain = events.Chain

// NewEventChain returns an empty EventChain.
func NewEventChain() *EventChain { return events.NewChain() }

// EventOffsetScale is the priority multiplier convention events.Chain
// expects callers to apply to their own priority constants.
const EventOffsetScale = events.OffsetScale
