// Package tags implements the per-host-object tag value store of
// SPEC_FULL.md §4.6: a per-tag-kind registry of dense integer slots
// (ScriptValues), persisted through YAML nodes the way the original
// game's per-unit/per-item modded-value maps were (see
// `original_source/src/Mod/RuleManufacture.h` for the shape this
// generalizes — named, host-declared extra fields persisted alongside
// core save data).
package tags

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vantage-games/scriptvm/internal/errs"
)

// ValueType is a named pair of load/save adapters controlling how a
// tag's int64 slot value is represented in persisted form — spec.md
// §4.6 "register_value_type(name, load, save)". The persisted payload
// is opaque to the core (spec.md §6 "Persisted state"): an adapter may
// encode its value as a bare integer scalar, a quoted string
// reference, or any other YAML shape, as long as Load inverts Save.
type ValueType struct {
	Name string
	Save func(value int64) (*yaml.Node, error)
	Load func(node *yaml.Node) (int64, error)
}

// intValueType is the builtin value type every TagStore starts with:
// the slot's int64 payload encoded as a bare YAML scalar.
var intValueType = ValueType{
	Name: "int",
	Save: func(value int64) (*yaml.Node, error) {
		var node yaml.Node
		if err := node.Encode(value); err != nil {
			return nil, err
		}
		return &node, nil
	},
	Load: func(node *yaml.Node) (int64, error) {
		var v int64
		if err := node.Decode(&v); err != nil {
			return 0, err
		}
		return v, nil
	},
}

// TagData describes one tag name as the host declared it: its display
// name, the highest index a script may address it at, the name of the
// ValueType governing its persisted form, and a factory for its default
// value. MaxIndex is recorded only: Values.Get and Values.Set do not
// check indices against it, and Set grows a vector to any index.
type TagData struct {
	DisplayName string
	MaxIndex    int
	ValueType   string
	Factory     func() int64
}

// TagStore is the process-wide (per script-kind family) registry of
// declared tag names, plus the default-value factories scripts and the
// host both read through. It is built during host init and frozen
// before any script runs, mirroring the TypeRegistry/Catalog lifecycle.
type TagStore struct {
	mu         sync.RWMutex
	tags       map[string]TagData
	order      []string // declaration order, as returned by Names
	valueTypes map[string]ValueType
	frozen     bool
}

// NewTagStore returns an empty TagStore pre-seeded with the builtin
// "int" value type.
func NewTagStore() *TagStore {
	return &TagStore{
		tags:       make(map[string]TagData),
		valueTypes: map[string]ValueType{intValueType.Name: intValueType},
	}
}

// RegisterValueType adds a named load/save adapter pair, usable by
// Declare's valueType argument (spec.md §4.6 "Operations then register
// tag-value-types"). Returns a DuplicateValueType ConfigError if name
// is already registered.
func (ts *TagStore) RegisterValueType(vt ValueType) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.frozen {
		panic("tags: RegisterValueType called on a frozen TagStore")
	}
	if _, exists := ts.valueTypes[vt.Name]; exists {
		return &errs.ConfigError{ErrKind: errs.DuplicateValueType, Name: vt.Name, Msg: "value type already registered"}
	}
	ts.valueTypes[vt.Name] = vt
	return nil
}

// Declare registers a new tag name bound to the named value type
// (spec.md §4.6 "host objects add tag names bound to a value-type").
// An empty valueType defaults to the builtin "int" adapter. Returns a
// DuplicateTagName ConfigError if name is already declared, or an
// UnknownTagValueType ConfigError if valueType was never registered.
func (ts *TagStore) Declare(name, displayName string, maxIndex int, valueType string, factory func() int64) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.frozen {
		panic("tags: Declare called on a frozen TagStore")
	}
	if _, exists := ts.tags[name]; exists {
		return &errs.ConfigError{ErrKind: errs.DuplicateTagName, Name: name, Msg: "tag already declared"}
	}
	if valueType == "" {
		valueType = intValueType.Name
	}
	if _, ok := ts.valueTypes[valueType]; !ok {
		return &errs.ConfigError{ErrKind: errs.UnknownTagValueType, Name: valueType, Msg: "value type not registered"}
	}
	if factory == nil {
		factory = func() int64 { return 0 }
	}
	ts.tags[name] = TagData{DisplayName: displayName, MaxIndex: maxIndex, ValueType: valueType, Factory: factory}
	ts.order = append(ts.order, name)
	return nil
}

// Freeze marks the store immutable.
func (ts *TagStore) Freeze() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.frozen = true
}

// Lookup resolves a declared tag name.
func (ts *TagStore) Lookup(name string) (TagData, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	d, ok := ts.tags[name]
	return d, ok
}

// LookupValueType resolves a registered value type by name.
func (ts *TagStore) LookupValueType(name string) (ValueType, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	vt, ok := ts.valueTypes[name]
	return vt, ok
}

// valueTypeFor resolves the ValueType bound to a declared tag name.
func (ts *TagStore) valueTypeFor(name string) (ValueType, bool) {
	ts.mu.RLock()
	data, ok := ts.tags[name]
	ts.mu.RUnlock()
	if !ok {
		return ValueType{}, false
	}
	return ts.LookupValueType(data.ValueType)
}

// Names returns every declared tag name in declaration order.
func (ts *TagStore) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return append([]string(nil), ts.order...)
}

// Values is one host object's dense tag-value vector, indexed by the
// tag's declared index (spec.md "dense int-slot vectors per host
// object"). Create it with NewValues: the zero Values has no store and
// no slot map, so Get and Set on it panic. Storage only grows on Set.
type Values struct {
	store *TagStore
	slots map[string][]int64
}

// NewValues returns an empty Values bound to store, for resolving
// default factories on first read.
func NewValues(store *TagStore) *Values {
	return &Values{store: store, slots: make(map[string][]int64)}
}

// Get returns the value of tag name at index idx, or its declared
// default (0 if none was set) when absent (spec.md "get returns 0 for
// absent").
func (v *Values) Get(name string, idx int) int64 {
	vec, ok := v.slots[name]
	if !ok || idx >= len(vec) {
		if d, ok := v.store.Lookup(name); ok && d.Factory != nil {
			return d.Factory()
		}
		return 0
	}
	return vec[idx]
}

// Set stores value at tag name's index idx, growing the slot vector as
// needed (spec.md "set grows as needed").
func (v *Values) Set(name string, idx int, value int64) {
	vec, ok := v.slots[name]
	if !ok {
		vec = make([]int64, idx+1)
	} else if idx >= len(vec) {
		grown := make([]int64, idx+1)
		copy(grown, vec)
		vec = grown
	}
	vec[idx] = value
	v.slots[name] = vec
}

// sparseEntry is one nonzero slot of a tag's vector, persisted through
// its value type's adapter rather than as a bare int64 (spec.md §4.6
// "save walks nonzero entries in index order").
type sparseEntry struct {
	Index int       `yaml:"i"`
	Value yaml.Node `yaml:"v"`
}

// yamlDoc is the on-disk shape of a Values vector: a flat map from tag
// name to its nonzero slots, persisted as a YAML node per spec.md §6
// "Persisted state".
type yamlDoc map[string][]sparseEntry

// Save serializes v to a YAML node, running each nonzero slot through
// its tag's registered value-type adapter.
func (v *Values) Save() (*yaml.Node, error) {
	doc := make(yamlDoc, len(v.slots))
	for name, vec := range v.slots {
		vt, ok := v.store.valueTypeFor(name)
		if !ok {
			continue // tag no longer declared; nothing to persist it as
		}
		var entries []sparseEntry
		for idx, val := range vec {
			if val == 0 {
				continue
			}
			node, err := vt.Save(val)
			if err != nil {
				return nil, fmt.Errorf("tags: save %s[%d]: %w", name, idx, err)
			}
			entries = append(entries, sparseEntry{Index: idx, Value: *node})
		}
		if len(entries) > 0 {
			doc[name] = entries
		}
	}
	var node yaml.Node
	if err := node.Encode(doc); err != nil {
		return nil, fmt.Errorf("tags: encode: %w", err)
	}
	return &node, nil
}

// Load populates v from a previously Saved YAML node, running each
// entry through its tag's value-type adapter. Tag names no longer
// declared on store (or whose declared value type is gone) are skipped
// with a warning diagnostic rather than an error (spec.md §7 "unknown
// tag name on load ignored with warning").
func (v *Values) Load(node *yaml.Node, sink errs.DiagnosticSink) error {
	var doc yamlDoc
	if err := node.Decode(&doc); err != nil {
		return fmt.Errorf("tags: decode: %w", err)
	}
	for name, entries := range doc {
		data, ok := v.store.Lookup(name)
		if !ok {
			errs.Emit(sink, errs.Diagnostic{
				Kind:     errs.UnknownTagValueType,
				Message:  fmt.Sprintf("ignoring unknown tag %q found in save data", name),
				Severity: errs.SeverityWarning,
			})
			continue
		}
		vt, ok := v.store.LookupValueType(data.ValueType)
		if !ok {
			errs.Emit(sink, errs.Diagnostic{
				Kind:     errs.UnknownTagValueType,
				Message:  fmt.Sprintf("tag %q references unregistered value type %q", name, data.ValueType),
				Severity: errs.SeverityWarning,
			})
			continue
		}
		for _, e := range entries {
			val, err := vt.Load(&e.Value)
			if err != nil {
				return fmt.Errorf("tags: load %s[%d]: %w", name, e.Index, err)
			}
			v.Set(name, e.Index, val)
		}
	}
	return nil
}
