package compiler

import (
	"strconv"
	"strings"

	"github.com/vantage-games/scriptvm/internal/catalog"
	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/token"
)

// operand is one resolved name or literal: either a register-file
// offset (a local, input, or output) or an inline compile-time
// constant. It is the compiler's internal counterpart of catalog.Arg.
type operand struct {
	kind       regkind.ArgKind
	offset     int
	size       int
	isConst    bool
	constValue int64
}

func (o operand) toArg() catalog.Arg {
	return catalog.Arg{Kind: o.kind, Offset: o.offset, IsConst: o.isConst, ConstValue: o.constValue}
}

// resolveOperand looks name up against locals (innermost scope first),
// then declared inputs, then declared outputs, then named constants —
// the order spec.md §4.3 "Identifier resolution" specifies. Dotted
// names (obj.field) are resolved as a single literal symbol: a host
// wanting field-style access declares a local or input under that
// exact dotted name (spec.md leaves the dotted grammar
// implementation-defined; see DESIGN.md).
func (c *Compiler) resolveOperand(name string) (operand, bool) {
	if loc, ok := c.sym.FindLocal(name); ok {
		return operand{kind: loc.Kind, offset: loc.Offset, size: loc.Size}, true
	}
	if in, ok := c.sym.FindInput(name); ok {
		return operand{kind: in.Kind, offset: in.Offset, size: in.Size}, true
	}
	if out, ok := c.sym.FindOutput(name); ok {
		return operand{kind: out.Kind, offset: out.Offset, size: out.Size}, true
	}
	if ct, ok := c.sym.FindConst(name); ok {
		return operand{kind: ct.Kind, isConst: true, constValue: ct.Value}, true
	}
	return operand{}, false
}

// parseArg consumes the current token as one argument: an identifier
// (resolved via resolveOperand) or an integer literal.
func (c *Compiler) parseArg() (operand, bool) {
	switch c.cur.Type {
	case token.IDENT:
		name := c.cur.Literal
		op, ok := c.resolveOperand(name)
		if !ok {
			c.fail(errs.UnknownIdentifier, "undeclared identifier %q", name)
			return operand{}, false
		}
		c.advance()
		return op, true
	case token.INT:
		v, ok := c.parseIntLiteral(c.cur.Literal)
		if !ok {
			return operand{}, false
		}
		c.advance()
		return operand{kind: regkind.Int, isConst: true, constValue: v}, true
	default:
		c.fail(errs.Syntax, "expected an identifier or integer literal")
		return operand{}, false
	}
}

func (c *Compiler) parseIntLiteral(lit string) (int64, bool) {
	base := 10
	s := lit
	if strings.HasPrefix(s, "-0x") || strings.HasPrefix(s, "-0X") {
		base = 16
		s = "-" + s[3:]
	} else if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		c.fail(errs.Syntax, "invalid integer literal %q", lit)
		return 0, false
	}
	return v, true
}

// isAtArgStop reports whether the current token ends an argument list
// (a statement terminator or a block-structural keyword).
func (c *Compiler) isAtArgStop() bool {
	switch c.cur.Type {
	case token.SEMI, token.EOF, token.ELSE, token.END:
		return true
	default:
		return false
	}
}

// resolveOverload picks the highest-scoring admissible overload of pd
// against supplied, per spec.md §3's scoring rule. Two overloads tied
// for the top score is AmbiguousOverload; none admissible is
// NoMatchingOverload.
func (c *Compiler) resolveOverload(opName string, pd *catalog.ProcDesc, supplied []regkind.ArgKind) (*catalog.Overload, int) {
	bestScore := -1
	bestIdx := -1
	tie := false

	for i := range pd.Overloads {
		ov := &pd.Overloads[i]
		scorer := ov.Scorer
		if scorer == nil {
			scorer = catalog.DefaultScorer
		}
		score, ok := scorer(ov.Signature, supplied, i)
		if !ok {
			continue
		}
		switch {
		case score > bestScore:
			bestScore = score
			bestIdx = i
			tie = false
		case score == bestScore:
			tie = true
		}
	}

	if bestIdx < 0 {
		c.fail(errs.NoMatchingOverload, "no overload of %q matches the supplied argument kinds", opName)
		return nil, -1
	}
	if tie {
		c.fail(errs.AmbiguousOverload, "call to %q is ambiguous among equally-ranked overloads", opName)
		return nil, -1
	}
	return &pd.Overloads[bestIdx], bestIdx
}

// emitOverloadCall resolves target+args against opName's overload set
// and emits the winning overload's bytecode: its own ParseHook if it
// has one, else the default emission of handle + positional immediates
// in declared order (spec.md §4.2 "ParseHook").
func (c *Compiler) emitOverloadCall(opName string, target *operand, args []operand) bool {
	pd, ok := c.cat.Lookup(opName)
	if !ok {
		c.fail(errs.UnknownIdentifier, "undeclared operation %q", opName)
		return false
	}

	var supplied []regkind.ArgKind
	var all []operand
	if target != nil {
		supplied = append(supplied, target.kind)
		all = append(all, *target)
	}
	for _, a := range args {
		supplied = append(supplied, a.kind)
		all = append(all, a)
	}

	ov, ordinal := c.resolveOverload(opName, pd, supplied)
	if ov == nil {
		return false
	}

	catArgs := make([]catalog.Arg, len(all))
	for i, o := range all {
		catArgs[i] = o.toArg()
	}

	if ov.Hook != nil {
		handled, err := ov.Hook(c, catArgs)
		if err != nil {
			c.fail(errs.HandlerFailure, "%s", err.Error())
			return false
		}
		if handled {
			if ov.Extra != nil {
				if err := ov.Extra(c, catArgs); err != nil {
					c.fail(errs.HandlerFailure, "%s", err.Error())
					return false
				}
			}
			return true
		}
	}

	h := ov.Select(0)
	c.c.WriteHandle(h, c.cur.Line, c.cur.Col)
	for _, a := range catArgs {
		c.emitDefaultArg(a)
	}
	if ov.Extra != nil {
		if err := ov.Extra(c, catArgs); err != nil {
			c.fail(errs.HandlerFailure, "%s", err.Error())
			return false
		}
	}
	_ = ordinal
	return true
}

// emitDefaultArg emits one argument's default positional immediate: a
// register offset, an inline constant, or a label fixup, depending on
// its kind (spec.md §4.2 "default emission of opcode + positional
// immediates in declared order").
func (c *Compiler) emitDefaultArg(a catalog.Arg) {
	switch {
	case a.Kind.Base == regkind.BaseLabel:
		c.EmitLabelFixup(a.Label)
	case a.IsConst:
		c.EmitI64(a.ConstValue)
	default:
		c.EmitU16(uint16(a.Offset))
	}
}

// tryFoldConst attempts to evaluate opName(args) at compile time for a
// `const` declaration, where no target register exists and every
// argument must already be a compile-time constant (spec.md Design
// Notes §9(b): folding never applies to pointer-typed values, and
// constants are never pointer-typed in the first place).
func (c *Compiler) tryFoldConst(opName string, args []operand) (int64, bool) {
	pd, ok := c.cat.Lookup(opName)
	if !ok {
		c.fail(errs.UnknownIdentifier, "undeclared operation %q", opName)
		return 0, false
	}

	supplied := make([]regkind.ArgKind, len(args))
	values := make([]int64, len(args))
	for i, a := range args {
		supplied[i] = a.kind
		if !a.isConst {
			c.fail(errs.TypeMismatch, "argument %d to %q is not a compile-time constant", i, opName)
			return 0, false
		}
		values[i] = a.constValue
	}

	ov, _ := c.resolveOverload(opName, pd, supplied)
	if ov == nil {
		return 0, false
	}
	if !ov.Foldable || ov.Fold == nil {
		c.fail(errs.TypeMismatch, "%q cannot be used in a constant expression", opName)
		return 0, false
	}
	return ov.Fold(values), true
}
