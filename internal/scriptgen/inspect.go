package scriptgen

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// ResolvedField is a FieldSpec after its Go type has been looked up.
type ResolvedField struct {
	FieldSpec
	GoType string // e.g. "int32", "string"
	Size   int    // in-register byte width, 0 if not a fixed-size scalar
	Offset int64  // byte offset of the field within its struct
}

// ResolvedType is a TypeSpec after its struct has been loaded and its
// fields checked against the actual Go source.
type ResolvedType struct {
	TypeSpec
	Fields []ResolvedField
}

// Inspect loads m.Package with go/packages, resolves each declared
// TypeSpec against the package's actual struct definitions, and
// returns an error for the first declared type or field that does not
// exist — the same fail-fast contract funxy's inspector gives `ext check`
// (internal/ext/inspector.go).
func Inspect(m *Manifest) ([]ResolvedType, error) {
	cfg := &packages.Config{Mode: packages.NeedTypes | packages.NeedTypesInfo | packages.NeedName}
	pkgs, err := packages.Load(cfg, m.Package)
	if err != nil {
		return nil, fmt.Errorf("scriptgen: load package %q: %w", m.Package, err)
	}
	if len(pkgs) == 0 || pkgs[0].Types == nil {
		return nil, fmt.Errorf("scriptgen: package %q did not resolve to any type-checked package", m.Package)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("scriptgen: package %q has errors: %v", m.Package, pkg.Errors[0])
	}

	var resolved []ResolvedType
	for _, ts := range m.Types {
		obj := pkg.Types.Scope().Lookup(ts.GoName)
		if obj == nil {
			return nil, fmt.Errorf("scriptgen: type %q not found in package %q", ts.GoName, m.Package)
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			return nil, fmt.Errorf("scriptgen: %q is not a named type", ts.GoName)
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			return nil, fmt.Errorf("scriptgen: %q is not a struct type", ts.GoName)
		}

		offsets := fieldOffsets(st)

		rt := ResolvedType{TypeSpec: ts}
		for _, f := range ts.Fields {
			idx, goField := lookupField(st, f.GoName)
			if goField == nil {
				return nil, fmt.Errorf("scriptgen: field %q not found on type %q", f.GoName, ts.GoName)
			}
			rt.Fields = append(rt.Fields, ResolvedField{
				FieldSpec: f,
				GoType:    goField.Type().String(),
				Size:      scalarSize(goField.Type()),
				Offset:    offsets[idx],
			})
		}
		resolved = append(resolved, rt)
	}
	return resolved, nil
}

func lookupField(st *types.Struct, name string) (int, *types.Var) {
	for i := 0; i < st.NumFields(); i++ {
		if st.Field(i).Name() == name {
			return i, st.Field(i)
		}
	}
	return -1, nil
}

// fieldOffsets returns the byte offset of every field in st, in
// declaration order, using the same gc/amd64 layout rules the host
// binary is assumed to be built with — the register-offset marshaling
// Generate emits dereferences these offsets directly against a live
// host pointer, so they must match the host's actual memory layout.
func fieldOffsets(st *types.Struct) []int64 {
	sizes := types.SizesFor("gc", "amd64")
	if sizes == nil {
		sizes = &types.StdSizes{WordSize: 8, MaxAlign: 8}
	}
	fields := make([]*types.Var, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		fields[i] = st.Field(i)
	}
	return sizes.Offsetsof(fields)
}

// scalarSize returns the in-register byte width of a field's Go type
// for the common fixed-size scalars; 0 for anything else. Generate
// leaves a field with Size 0 unbound rather than guessing at a
// marshaling strategy for it.
func scalarSize(t types.Type) int {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return 0
	}
	switch basic.Kind() {
	case types.Bool, types.Int8, types.Uint8:
		return 1
	case types.Int16, types.Uint16:
		return 2
	case types.Int32, types.Uint32, types.Float32:
		return 4
	case types.Int, types.Int64, types.Uint, types.Uint64, types.Float64:
		return 8
	default:
		return 0
	}
}
