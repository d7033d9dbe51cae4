package compiler

import (
	"github.com/vantage-games/scriptvm/internal/errs"
	"github.com/vantage-games/scriptvm/internal/regkind"
	"github.com/vantage-games/scriptvm/internal/token"
)

// statement compiles exactly one statement form (spec.md §4.3
// "Statement forms") and consumes its trailing semicolon.
func (c *Compiler) statement() {
	switch c.cur.Type {
	case token.VAR:
		c.varDecl()
	case token.CONST:
		c.constDecl()
	case token.IF:
		c.ifStmt()
	case token.LOOP:
		c.loopStmt()
	case token.BREAK:
		c.breakStmt()
	case token.CONTINUE:
		c.continueStmt()
	case token.RETURN:
		c.returnStmt()
	case token.IDENT:
		c.callStmt()
	case token.SEMI:
		c.advance() // empty statement
	default:
		c.fail(errs.Syntax, "unexpected token %s %q at start of statement", c.cur.Type, c.cur.Literal)
	}
}

// varDecl compiles `var TYPE NAME [= (IDENT | INT)];` (spec.md §4.3
// "Register allocation": locals are bump-allocated from the end of the
// input region).
func (c *Compiler) varDecl() {
	c.advance() // `var`

	if !c.check(token.IDENT) {
		c.fail(errs.Syntax, "expected a type name after 'var'")
		return
	}
	typeName := c.cur.Literal
	kind, ok := c.types.LookupByName(typeName)
	if !ok {
		c.fail(errs.UnknownIdentifier, "undeclared type %q", typeName)
		return
	}
	c.advance()

	if !c.check(token.IDENT) {
		c.fail(errs.Syntax, "expected a local name after the type")
		return
	}
	name := c.cur.Literal
	c.advance()

	size := c.types.Size(kind)
	loc, declared, duplicate := c.sym.DeclareLocal(name, kind, size)
	if !declared {
		if duplicate {
			c.fail(errs.DuplicateLocal, "local %q is already declared in this scope", name)
		} else {
			c.fail(errs.RegisterFileOverflow, "no room in the register file for local %q", name)
		}
		return
	}

	if c.check(token.ASSIGN) {
		c.advance()
		init, ok := c.parseArg()
		if !ok {
			return
		}
		if init.kind.Base != loc.Kind.Base {
			c.fail(errs.TypeMismatch, "cannot initialize %q with a value of a different type", name)
			return
		}
		if init.isConst {
			c.emitMoveConst(loc.Offset, init.constValue)
		} else {
			c.emitMoveReg(loc.Offset, init.offset, loc.Size)
		}
	}

	c.expect(token.SEMI)
}

// constDecl compiles `const NAME = (INT | OPNAME ARG1 ARG2 ...);`. The
// right-hand side must fold to a compile-time int64 — see
// tryFoldConst.
func (c *Compiler) constDecl() {
	c.advance() // `const`

	if !c.check(token.IDENT) {
		c.fail(errs.Syntax, "expected a name after 'const'")
		return
	}
	name := c.cur.Literal
	c.advance()

	if !c.expect(token.ASSIGN) {
		return
	}

	var value int64
	switch c.cur.Type {
	case token.INT:
		v, ok := c.parseIntLiteral(c.cur.Literal)
		if !ok {
			return
		}
		c.advance()
		value = v
	case token.IDENT:
		opName := c.cur.Literal
		c.advance()
		var args []operand
		for !c.isAtArgStop() {
			a, ok := c.parseArg()
			if !ok {
				return
			}
			args = append(args, a)
		}
		v, ok := c.tryFoldConst(opName, args)
		if !ok {
			return
		}
		value = v
	default:
		c.fail(errs.Syntax, "expected an integer literal or a foldable operation call")
		return
	}

	c.sym.AddConst(name, regkind.Int, value)
	c.expect(token.SEMI)
}

// parseCondition compiles an `if` condition, returning the register
// offset of the (always int-sized, truthy-tested) value to branch on.
// A bare identifier is tested directly; an operation name followed by
// arguments is evaluated into a freshly allocated temporary register
// first (spec.md §2 "register allocator for temporaries").
func (c *Compiler) parseCondition() (int, bool) {
	if !c.check(token.IDENT) {
		c.fail(errs.Syntax, "expected a condition")
		return 0, false
	}
	name := c.cur.Literal

	if _, ok := c.cat.Lookup(name); ok {
		c.advance()
		var args []operand
		for !c.isAtArgStop() {
			a, ok := c.parseArg()
			if !ok {
				return 0, false
			}
			args = append(args, a)
		}
		tmp, ok, duplicate := c.sym.DeclareLocal(c.newTempName(), regkind.Int, c.types.Size(regkind.Int))
		if !ok {
			if duplicate {
				c.fail(errs.DuplicateLocal, "temporary register name collision")
			} else {
				c.fail(errs.RegisterFileOverflow, "no room for a temporary register")
			}
			return 0, false
		}
		target := operand{kind: tmp.Kind, offset: tmp.Offset, size: tmp.Size}
		if !c.emitOverloadCall(name, &target, args) {
			return 0, false
		}
		return tmp.Offset, true
	}

	op, ok := c.resolveOperand(name)
	if !ok {
		c.fail(errs.UnknownIdentifier, "undeclared identifier %q", name)
		return 0, false
	}
	if op.isConst {
		c.fail(errs.InvalidLValue, "%q is a constant and cannot be used as a live condition register", name)
		return 0, false
	}
	c.advance()
	return op.offset, true
}

// ifStmt compiles `if COND; BODY [else; BODY] end;`.
func (c *Compiler) ifStmt() {
	c.advance() // `if`
	condOffset, ok := c.parseCondition()
	if !ok {
		return
	}
	if !c.expect(token.SEMI) {
		return
	}

	elseLabel := c.newLabel("if_else")
	c.emitJumpIfFalse(condOffset, elseLabel)

	c.sym.BeginScope()
	for !c.check(token.ELSE) && !c.check(token.END) && c.cur.Type != token.EOF && c.err == nil {
		c.statement()
	}
	c.sym.EndScope()

	if c.check(token.ELSE) {
		c.advance()
		c.expect(token.SEMI)
		endLabel := c.newLabel("if_end")
		c.emitJump(endLabel)
		c.closeLabel(elseLabel)

		c.sym.BeginScope()
		for !c.check(token.END) && c.cur.Type != token.EOF && c.err == nil {
			c.statement()
		}
		c.sym.EndScope()

		c.closeLabel(endLabel)
	} else {
		c.closeLabel(elseLabel)
	}

	if !c.expect(token.END) {
		return
	}
	c.expect(token.SEMI)
}

// loopStmt compiles `loop; BODY end;`. The loop has no condition of its
// own; break/continue inside BODY are the only way out (spec.md §4.3).
func (c *Compiler) loopStmt() {
	c.advance() // `loop`
	c.expect(token.SEMI)

	startLabel := c.newLabel("loop_start")
	endLabel := c.newLabel("loop_end")
	c.defineLabel(startLabel)
	c.loopStack = append(c.loopStack, loopCtx{startLabel: startLabel, endLabel: endLabel})

	c.sym.BeginScope()
	for !c.check(token.END) && c.cur.Type != token.EOF && c.err == nil {
		c.statement()
	}
	c.sym.EndScope()

	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	c.emitJump(startLabel)
	c.closeLabel(endLabel)

	if !c.expect(token.END) {
		return
	}
	c.expect(token.SEMI)
}

func (c *Compiler) currentLoop() (loopCtx, bool) {
	if len(c.loopStack) == 0 {
		return loopCtx{}, false
	}
	return c.loopStack[len(c.loopStack)-1], true
}

func (c *Compiler) breakStmt() {
	c.advance()
	lp, ok := c.currentLoop()
	if !ok {
		c.fail(errs.Syntax, "'break' outside a loop")
		return
	}
	c.emitJump(lp.endLabel)
	c.expect(token.SEMI)
}

func (c *Compiler) continueStmt() {
	c.advance()
	lp, ok := c.currentLoop()
	if !ok {
		c.fail(errs.Syntax, "'continue' outside a loop")
		return
	}
	c.emitJump(lp.startLabel)
	c.expect(token.SEMI)
}

// returnStmt compiles `return [ARG...];`: each ARG binds positionally
// into the declared output tuple, then execution halts (spec.md §4.3
// "bind values into output registers and halt").
func (c *Compiler) returnStmt() {
	c.advance() // `return`

	var args []operand
	for !c.isAtArgStop() {
		a, ok := c.parseArg()
		if !ok {
			return
		}
		args = append(args, a)
	}

	if len(args) != len(c.outputs) {
		c.fail(errs.TypeMismatch, "return has %d value(s), script declares %d output(s)", len(args), len(c.outputs))
		return
	}
	for i, a := range args {
		out := c.outputs[i]
		if a.kind.Base != out.Kind.Base {
			c.fail(errs.TypeMismatch, "return value %d does not match declared output type", i)
			return
		}
		if a.isConst {
			c.emitMoveConst(out.Offset, a.constValue)
		} else {
			c.emitMoveReg(out.Offset, a.offset, out.Size)
		}
	}

	c.emitHalt()
	c.expect(token.SEMI)
}

// callStmt compiles the general operation-call statement `NAME OPNAME
// ARG...;`, where NAME must resolve to a writable register (a local,
// input, or output) — never a constant (spec.md §7 "InvalidLValue").
func (c *Compiler) callStmt() {
	name := c.cur.Literal
	c.advance()

	target, ok := c.resolveOperand(name)
	if !ok {
		c.fail(errs.UnknownIdentifier, "undeclared identifier %q", name)
		return
	}
	if target.isConst {
		c.fail(errs.InvalidLValue, "%q is a constant and cannot be an assignment target", name)
		return
	}

	if !c.check(token.IDENT) {
		c.fail(errs.Syntax, "expected an operation name after %q", name)
		return
	}
	opName := c.cur.Literal
	c.advance()

	var args []operand
	for !c.isAtArgStop() {
		a, ok := c.parseArg()
		if !ok {
			return
		}
		args = append(args, a)
	}

	c.emitOverloadCall(opName, &target, args)
	c.expect(token.SEMI)
}
