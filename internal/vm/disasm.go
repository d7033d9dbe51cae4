package vm

import (
	"fmt"
	"strings"
)

// HandlerName, when set by the host, maps a Handle back to a display
// name for disassembly (the core has no names of its own for handles —
// spec.md's catalog owns operation names, not the VM). A host typically
// populates this once, after freezing its catalog, from ProcDesc names.
var HandlerName = map[Handle]string{}

// Disassemble returns a human-readable listing of c's bytecode. It
// cannot decode operation-specific immediates (the VM never does — only
// the handler knows its own immediate layout, per spec.md §4.4), so each
// line shows the handle, its name if known, and the raw bytes up to the
// next recognizable handle boundary is left to the host's own
// annotate-aware disassembler; this one prints handle + offset only,
// which is enough to correlate against Lines/Columns when debugging a
// compiler bug.
func Disassemble(c *Container, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)

	offset := 0
	for offset+2 <= len(c.Code) {
		line := 0
		if offset < len(c.Lines) {
			line = c.Lines[offset]
		}
		h := Handle(uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1]))
		hname, known := HandlerName[h]
		if !known {
			hname = fmt.Sprintf("handle#%d", h)
		}
		fmt.Fprintf(&sb, "%04d  line %-4d  %s\n", offset, line, hname)
		offset += 2
	}
	return sb.String()
}

// DisassembleFrom is like Disassemble but additionally calls annotate
// for each decoded handle, letting a host print its own immediate
// layout (e.g. "GET_LOCAL 3") without this package needing to know it.
func DisassembleFrom(c *Container, name string, annotate func(h Handle, code []byte, pc *int) string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)

	offset := 0
	for offset+2 <= len(c.Code) {
		line := 0
		if offset < len(c.Lines) {
			line = c.Lines[offset]
		}
		h := Handle(uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1]))
		offset += 2
		detail := annotate(h, c.Code, &offset)
		fmt.Fprintf(&sb, "%04d  line %-4d  %s\n", offset, line, detail)
	}
	return sb.String()
}
