package scriptgen

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"
)

// bindingFileTemplate produces one generated Go source file per
// manifest: a single Register<Type> function per resolved type that
// declares the type's pointer base kind and, for every bound scalar
// field, a pair of catalog operations that read (and, when the field
// is Editable, write) the field directly at its resolved byte offset
// against the host pointer a script holds in a register. Grounded on
// funxy's own generated-binding template shape (internal/ext/codegen.go's
// bindingFileTemplate).
const bindingFileTemplate = `// Code generated by scriptgen. DO NOT EDIT.

package {{.Output}}

import (
{{if .NeedsUnsafe}}	"unsafe"

{{end}}	"github.com/vantage-games/scriptvm/pkg/script"
)

{{range .Types}}
// Register{{.GoName}} declares the {{.GoName}} pointer base type and
// registers a catalog operation for every bound field on p.
func Register{{.GoName}}[Out any](p *script.Parser[Out]) script.ArgKind {
	base := p.RegisterType("{{.ScriptName}}", 8)
{{if .HasBoundField}}	ptrKind := script.Decorate(base, script.FlagPtr|script.FlagRegister)
	regKind := script.Decorate(script.Int, script.FlagRegister)
{{end}}{{if .HasEditableField}}	ptrEditableKind := script.Decorate(base, script.FlagPtr|script.FlagPtrEditable|script.FlagRegister)
{{end}}{{range .Fields}}
{{if .Bound}}
	h{{.GoName}}Get := script.RegisterHandler(func(w *script.Worker, code []byte, pc *int) (script.StepResult, error) {
		target := script.ReadU16(code, pc)
		ptr := script.ReadU16(code, pc)
		hostPtr := uintptr(script.Get[int64](w, int(ptr)))
		v := *(*{{.CastType}})(unsafe.Pointer(hostPtr + {{.Offset}}))
		script.Set[int64](w, int(target), {{.ToRegister}})
		return script.Continue, nil
	})
	script.RegisterOp(p, "{{.GetOpName}}").Overload(script.Overload{
		Signature: []script.ArgKind{regKind, ptrKind},
		Select:    func(int) script.Handle { return h{{.GoName}}Get },
	})
{{if .Editable}}
	h{{.GoName}}Set := script.RegisterHandler(func(w *script.Worker, code []byte, pc *int) (script.StepResult, error) {
		ptr := script.ReadU16(code, pc)
		src := script.ReadU16(code, pc)
		hostPtr := uintptr(script.Get[int64](w, int(ptr)))
		value := script.Get[int64](w, int(src))
		*(*{{.CastType}})(unsafe.Pointer(hostPtr + {{.Offset}})) = {{.FromRegister}}
		return script.Continue, nil
	})
	script.RegisterOp(p, "{{.SetOpName}}").Overload(script.Overload{
		Signature: []script.ArgKind{ptrEditableKind, regKind},
		Select:    func(int) script.Handle { return h{{.GoName}}Set },
	})
{{end}}
{{else}}
	// field {{.ScriptName}} ({{.GoType}}) has no fixed in-register
	// width and is not bound to an accessor operation.
{{end}}
{{end}}
	return base
}
{{end}}
`

// fieldBinding carries a ResolvedField plus the generation-time
// decisions Generate needs the template to render verbatim: whether
// the field can be bound at all, the catalog operation names it gets,
// and the Go expressions marshaling between the field's native type
// and the engine's int64 register representation.
type fieldBinding struct {
	ResolvedField
	Bound        bool
	GetOpName    string
	SetOpName    string
	CastType     string
	ToRegister   string
	FromRegister string
}

type typeBinding struct {
	ResolvedType
	Fields           []fieldBinding
	HasBoundField    bool
	HasEditableField bool
}

// bindField decides how to marshal one resolved field. Bool fields
// convert through an explicit 0/1 mapping since Go forbids converting
// bool to int64 directly; every other bound scalar round-trips through
// a plain numeric conversion. Fields scalarSize could not size (Size
// == 0) are left unbound — the manifest named them but Inspect found
// no fixed-width representation to marshal through a register.
func bindField(typeScriptName string, f ResolvedField) fieldBinding {
	fb := fieldBinding{ResolvedField: f}
	if f.Size == 0 {
		return fb
	}
	fb.Bound = true
	fb.GetOpName = fmt.Sprintf("%s_%s", typeScriptName, f.ScriptName)
	fb.SetOpName = fmt.Sprintf("%s_%s_set", typeScriptName, f.ScriptName)
	fb.CastType = f.GoType
	if f.GoType == "bool" {
		fb.ToRegister = "boolToRegister(v)"
		fb.FromRegister = "value != 0"
	} else {
		fb.ToRegister = "int64(v)"
		fb.FromRegister = fmt.Sprintf("%s(value)", f.GoType)
	}
	return fb
}

// boolToRegister maps a bound bool field's value onto the engine's
// int64 register representation. Referenced by name from generated
// source; only emitted as an import-time helper when at least one
// bound field is a bool (see needsBoolHelper below).
const boolHelperSource = `
func boolToRegister(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
`

// Generate renders the binding source for resolved types into a
// formatted Go source file.
func Generate(m *Manifest, types []ResolvedType) ([]byte, error) {
	tmpl, err := template.New("binding").Parse(bindingFileTemplate)
	if err != nil {
		return nil, fmt.Errorf("scriptgen: parse template: %w", err)
	}

	needsUnsafe := false
	needsBoolHelper := false
	tbs := make([]typeBinding, len(types))
	for i, rt := range types {
		tb := typeBinding{ResolvedType: rt}
		for _, f := range rt.Fields {
			fb := bindField(rt.ScriptName, f)
			if fb.Bound {
				needsUnsafe = true
				tb.HasBoundField = true
				if fb.Editable {
					tb.HasEditableField = true
				}
				if fb.CastType == "bool" {
					needsBoolHelper = true
				}
			}
			tb.Fields = append(tb.Fields, fb)
		}
		tbs[i] = tb
	}

	data := struct {
		Output      string
		Types       []typeBinding
		NeedsUnsafe bool
	}{Output: m.Output, Types: tbs, NeedsUnsafe: needsUnsafe}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("scriptgen: render template: %w", err)
	}
	if needsBoolHelper {
		buf.WriteString(boolHelperSource)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("scriptgen: gofmt generated source: %w", err)
	}
	return formatted, nil
}
