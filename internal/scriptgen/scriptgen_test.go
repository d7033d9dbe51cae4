package scriptgen

import (
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScalarSizeFixedWidthKinds(t *testing.T) {
	cases := []struct {
		kind types.BasicKind
		want int
	}{
		{types.Bool, 1},
		{types.Int8, 1},
		{types.Uint8, 1},
		{types.Int16, 2},
		{types.Uint16, 2},
		{types.Int32, 4},
		{types.Uint32, 4},
		{types.Float32, 4},
		{types.Int, 8},
		{types.Int64, 8},
		{types.Uint, 8},
		{types.Uint64, 8},
		{types.Float64, 8},
	}
	for _, tc := range cases {
		got := scalarSize(types.Typ[tc.kind])
		if got != tc.want {
			t.Errorf("scalarSize(%v) = %d, want %d", types.Typ[tc.kind], got, tc.want)
		}
	}
}

func TestScalarSizeNonScalarIsZero(t *testing.T) {
	stringType := types.Typ[types.String]
	if got := scalarSize(stringType); got != 0 {
		t.Errorf("scalarSize(string) = %d, want 0", got)
	}

	sliceType := types.NewSlice(types.Typ[types.Int])
	if got := scalarSize(sliceType); got != 0 {
		t.Errorf("scalarSize([]int) = %d, want 0", got)
	}
}

func TestLoadManifestDefaultsOutputPackage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	contents := `
package: example.com/host/units
types:
  - go_name: Unit
    script_name: unit
    fields:
      - go_name: HP
        script_name: hp
        editable: true
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture manifest: %v", err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Package != "example.com/host/units" {
		t.Errorf("Package = %q, want %q", m.Package, "example.com/host/units")
	}
	if m.Output != "scriptbind" {
		t.Errorf("Output = %q, want default %q", m.Output, "scriptbind")
	}
	if len(m.Types) != 1 || m.Types[0].GoName != "Unit" {
		t.Fatalf("Types = %+v, want one Unit entry", m.Types)
	}
	if len(m.Types[0].Fields) != 1 || m.Types[0].Fields[0].GoName != "HP" {
		t.Fatalf("Fields = %+v, want one HP entry", m.Types[0].Fields)
	}
}

func TestLoadManifestRejectsMissingPackage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte("output_package: foo\n"), 0o644); err != nil {
		t.Fatalf("write fixture manifest: %v", err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Errorf("expected LoadManifest to reject a manifest with no 'package'")
	}
}

func TestLoadManifestRejectsMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Errorf("expected LoadManifest to error on a missing file")
	}
}

func TestGenerateProducesOneRegisterFunctionPerType(t *testing.T) {
	m := &Manifest{Output: "unitbind"}
	resolved := []ResolvedType{
		{
			TypeSpec: TypeSpec{GoName: "Unit", ScriptName: "unit"},
			Fields: []ResolvedField{
				{FieldSpec: FieldSpec{GoName: "HP", ScriptName: "hp", Editable: true}, GoType: "int32", Size: 4},
			},
		},
		{
			TypeSpec: TypeSpec{GoName: "Tile", ScriptName: "tile"},
		},
	}

	source, err := Generate(m, resolved)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	got := string(source)
	for _, want := range []string{"package unitbind", "func RegisterUnit[Out any]", "func RegisterTile[Out any]", `"unit"`, `"tile"`} {
		if !strings.Contains(got, want) {
			t.Errorf("generated source missing %q:\n%s", want, got)
		}
	}
}

func TestGenerateEmitsRealFieldOffsetMarshaling(t *testing.T) {
	m := &Manifest{Output: "unitbind"}
	resolved := []ResolvedType{
		{
			TypeSpec: TypeSpec{GoName: "Unit", ScriptName: "unit"},
			Fields: []ResolvedField{
				{FieldSpec: FieldSpec{GoName: "HP", ScriptName: "hp", Editable: true}, GoType: "int32", Size: 4, Offset: 12},
				{FieldSpec: FieldSpec{GoName: "Dead", ScriptName: "dead", Editable: false}, GoType: "bool", Size: 1, Offset: 16},
				{FieldSpec: FieldSpec{GoName: "Tags", ScriptName: "tags"}, GoType: "[]string", Size: 0},
			},
		},
	}

	source, err := Generate(m, resolved)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got := string(source)

	// The editable HP field must get a read and a write accessor at its
	// resolved byte offset, using a real pointer dereference rather than
	// a discarded no-op.
	for _, want := range []string{
		`"unsafe"`,
		`*(*int32)(unsafe.Pointer(hostPtr + 12))`,
		`"unit_hp"`,
		`"unit_hp_set"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("generated source missing %q:\n%s", want, got)
		}
	}

	// Dead is read-only: it must get a getter but no setter operation.
	if !strings.Contains(got, `"unit_dead"`) {
		t.Errorf("generated source missing read accessor for a non-editable field:\n%s", got)
	}
	if strings.Contains(got, `"unit_dead_set"`) {
		t.Errorf("generated source should not emit a setter for a non-editable field:\n%s", got)
	}

	// Dead is a bool field: it must round-trip through the explicit
	// bool<->int64 helper rather than an illegal int64(v) conversion.
	if !strings.Contains(got, "boolToRegister") {
		t.Errorf("generated source missing the bool-to-register helper for a bound bool field:\n%s", got)
	}

	// Tags has no fixed in-register width (scalarSize returned 0), so it
	// must be left unbound rather than silently mis-marshaled.
	if !strings.Contains(got, "tags") {
		t.Errorf("generated source dropped the unbound field's name entirely (expected a skip comment):\n%s", got)
	}
	if strings.Contains(got, `"unit_tags"`) {
		t.Errorf("generated source should not register an accessor operation for an unbound field:\n%s", got)
	}
}
