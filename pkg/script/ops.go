package script

// RegisterOp declares a new host operation named name (or returns the
// existing ProcDesc if it was already declared), ready for one or more
// Overload registrations via the returned fluent handle:
//
//	script.RegisterOp(p, "heal").Overload(script.Overload{
//	    Signature: []script.ArgKind{script.Decorate(script.Int, script.FlagRegister)},
//	    Select:    func(int) script.Handle { return healHandle },
//	})
//
// Call before the first Parse; the catalog freezes on first Parse and
// Register on a frozen catalog panics.
func RegisterOp[Out any](p *Parser[Out], name string) *ProcDesc {
	return p.cat.Register(name)
}
