// Package compiler implements the single-pass text compiler of
// spec.md §4.3 (the "ParserWriter"): it tokenizes script source,
// resolves every identifier against the declared SymbolTable, resolves
// operation overloads against the Catalog, and emits bytecode directly
// into a vm.Container. Compilation is transactional (spec.md P5): on
// any error the SymbolTable's local/scope/const state is rolled back to
// exactly what it was before Parse was called (and after a successful
// Parse it is restored the same way).
package compiler

import (
	"fmt"

	"github.com/vantage-games/scriptvm/internal/catalog"
	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/lexer"
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/symtab"
	"github.com/vantage-games/scriptvm/internal/token"
	"github.com/vantage-games/scriptvm/internal/vm"
)

// tempPrefix names the anonymous locals the compiler bump-allocates to
// hold intermediate results — the values of condition expressions
// (spec.md §2 "register allocator for temporaries").
const tempPrefix = "$tmp"

// Compiler is one single-pass compile of one script string against one
// already-declared SymbolTable/Catalog/TypeRegistry triple. A fresh
// Compiler is constructed per Parse call; it holds no state that
// outlives a single compile.
type Compiler struct {
	sym     *symtab.SymbolTable
	cat     *catalog.Catalog
	types   *regkind.TypeRegistry
	parent  string // parent script name, for diagnostics
	outputs []symtab.Register

	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token

	c *vm.Container

	labels    map[string]int // resolved label -> bytecode offset
	fixups    []fixup        // pending forward references
	loopStack []loopCtx

	tempCount int
	err       *errs.CompileError
}

type fixup struct {
	offset int // offset of the u16 placeholder
	target string
}

type loopCtx struct {
	startLabel string
	endLabel   string
}

// New returns a Compiler ready to compile one script against sym/cat/types.
func New(sym *symtab.SymbolTable, cat *catalog.Catalog, types *regkind.TypeRegistry, parentScript string) *Compiler {
	return &Compiler{
		sym:     sym,
		cat:     cat,
		types:   types,
		parent:  parentScript,
		outputs: sym.Outputs(),
		labels:  make(map[string]int),
	}
}

// Parse compiles source into a Container, or returns the first
// CompileError encountered. Whether it succeeds or fails, sym's
// local/scope/const state is restored to what it was before Parse was
// called, so the same SymbolTable can compile further scripts.
func (c *Compiler) Parse(source string) (*vm.Container, error) {
	snap := c.sym.Snap()

	c.lex = lexer.New(source)
	c.advance()
	c.advance()
	c.c = vm.NewContainer(c.parent, c.sym.Capacity())

	for c.cur.Type != token.EOF && c.err == nil {
		c.statement()
	}

	if c.err == nil {
		c.checkUnresolvedLabels()
	}

	if c.err != nil {
		c.sym.Restore(snap)
		return nil, c.err
	}

	c.c.FrameSize = c.sym.FrameSize()
	c.sym.Restore(snap)
	return c.c, nil
}

// --- token stream helpers ---

func (c *Compiler) advance() {
	c.cur = c.peek
	c.peek = c.lex.NextToken()
}

func (c *Compiler) check(t token.Type) bool { return c.cur.Type == t }

func (c *Compiler) fail(kind errs.ErrorKind, format string, args ...any) {
	if c.err != nil {
		return // first error wins; compile is transactional (P5)
	}
	c.err = &errs.CompileError{
		ErrKind:      kind,
		Position:     errs.Pos{Line: c.cur.Line, Col: c.cur.Col, File: c.parent},
		Token:        c.cur.Literal,
		ParentScript: c.parent,
		Msg:          fmt.Sprintf(format, args...),
	}
}

// expect consumes the current token if it matches t, else records a
// Syntax error and returns false.
func (c *Compiler) expect(t token.Type) bool {
	if !c.check(t) {
		c.fail(errs.Syntax, "expected %s, got %s %q", t, c.cur.Type, c.cur.Literal)
		return false
	}
	c.advance()
	return true
}

// --- Writer implementation (catalog.Writer) ---

func (c *Compiler) EmitByte(b byte)  { c.c.WriteByte(b, c.cur.Line, c.cur.Col) }
func (c *Compiler) EmitU16(v uint16) { c.c.WriteU16(v, c.cur.Line, c.cur.Col) }
func (c *Compiler) EmitI64(v int64)  { c.c.WriteI64(v) }
func (c *Compiler) Line() int        { return c.cur.Line }

// EmitLabelFixup emits a placeholder u16 and records a forward
// reference to name, returning the bytecode offset of the placeholder
// (spec.md §4.3 "Labels": "each emit records (bytecode_offset,
// target_name)").
func (c *Compiler) EmitLabelFixup(name string) int {
	off := c.c.WriteU16(0, c.cur.Line, c.cur.Col)
	c.fixups = append(c.fixups, fixup{offset: off, target: name})
	return off
}

// defineLabel resolves name to the current bytecode offset (a backward
// jump target, e.g. a loop's start) — spec.md §4.3 "Backward jumps are
// resolved at emit time."
func (c *Compiler) defineLabel(name string) {
	c.labels[name] = c.c.Len()
}

// closeLabel resolves name to the current bytecode offset and patches
// every pending fixup referencing it (a forward jump target, e.g. an
// if/else/end boundary).
func (c *Compiler) closeLabel(name string) {
	target := c.c.Len()
	c.labels[name] = target
	remaining := c.fixups[:0]
	for _, f := range c.fixups {
		if f.target == name {
			c.c.PatchU16(f.offset, uint16(target))
		} else {
			remaining = append(remaining, f)
		}
	}
	c.fixups = remaining
}

// emitLabelRef emits the jump target for name: a direct resolved
// offset if name was already defined (a backward reference, e.g. a
// loop's start), or a fixup placeholder otherwise (a forward reference,
// e.g. an if/else/end boundary) — spec.md §4.3 "Labels": "backward
// jumps are resolved at emit time; forward jumps record a fixup".
func (c *Compiler) emitLabelRef(name string) {
	if target, ok := c.labels[name]; ok {
		c.EmitU16(uint16(target))
		return
	}
	c.EmitLabelFixup(name)
}

func (c *Compiler) checkUnresolvedLabels() {
	if len(c.fixups) > 0 {
		c.fail(errs.UnresolvedLabel, "unresolved label %q at end of script", c.fixups[0].target)
	}
}

func (c *Compiler) newLabel(prefix string) string {
	c.tempCount++
	return fmt.Sprintf("%s_%d", prefix, c.tempCount)
}

func (c *Compiler) newTempName() string {
	c.tempCount++
	return fmt.Sprintf("%s%d", tempPrefix, c.tempCount)
}
