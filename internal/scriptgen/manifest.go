// Package scriptgen implements the host-binding codegen tool of
// SPEC_FULL.md §4.7: a YAML manifest naming host Go types and fields,
// inspected via golang.org/x/tools/go/packages, from which a typed
// registration façade is generated — grounded on funxy's own
// `internal/ext` binding generator (`funxy.yaml` + `go/packages`
// inspector), scoped down to this engine's narrower binding surface
// (field exposure for pointer-typed script inputs, not full method
// binding).
package scriptgen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldSpec binds one exported struct field to a script-visible name.
type FieldSpec struct {
	GoName     string `yaml:"go_name"`
	ScriptName string `yaml:"script_name"`
	Editable   bool   `yaml:"editable"`
}

// TypeSpec binds one Go struct type to a script-visible pointer base
// type, plus the fields a script may read or write through it.
type TypeSpec struct {
	GoName     string      `yaml:"go_name"`
	ScriptName string      `yaml:"script_name"`
	Fields     []FieldSpec `yaml:"fields"`
}

// Manifest is the top-level shape of a scriptgen YAML manifest file.
type Manifest struct {
	// Package is the Go import path to inspect.
	Package string `yaml:"package"`
	// Output is the generated file's package name.
	Output string `yaml:"output_package"`
	Types  []TypeSpec `yaml:"types"`
}

// LoadManifest reads and parses a manifest file from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scriptgen: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("scriptgen: parse manifest: %w", err)
	}
	if m.Package == "" {
		return nil, fmt.Errorf("scriptgen: manifest missing required 'package'")
	}
	if m.Output == "" {
		m.Output = "scriptbind"
	}
	return &m, nil
}
