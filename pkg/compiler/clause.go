package compiler

import (
	"fmt"

	"github.com/ait-kaci/wam/pkg/ast"
	"github.com/ait-kaci/wam/pkg/builtin"
	"github.com/ait-kaci/wam/pkg/cell"
	"github.com/ait-kaci/wam/pkg/inst"
)

// LabelID names a forward reference local to one CompiledClause or
// CompiledQuery — a choice-point target inside a disjunction expansion.
// Predicate-level choice-point labels (between sibling clauses) and
// cross-predicate call targets are the Linker's concern (spec §4.4), not
// this package's; a LabelID never escapes the clause/query that defined
// it.
type LabelID int

// Patch records that Instrs[InstrIndex]'s Label field must be set once
// Label's target instruction index is known.
type Patch struct {
	InstrIndex int
	Label      LabelID
}

// LabelDef records that Label denotes the start of Instrs[InstrIndex].
type LabelDef struct {
	Label      LabelID
	InstrIndex int
}

// CallRef marks an outgoing call/execute instruction that the Linker
// must resolve against the call table. call_internal instructions are
// resolved at run time by the Machine and never appear here.
type CallRef struct {
	InstrIndex  int
	Name, Arity int
}

// CompiledClause is one program clause's instruction listing, already
// wrapped in allocate/deallocate where the clause shape needs it (spec
// §4.2.5, §3.6). Patches/Defs are local to this clause; predicate.go
// renumbers them when splicing several clauses into one
// CompiledPredicate.
type CompiledClause struct {
	Instrs  []inst.Instruction
	Patches []Patch
	Defs    []LabelDef
	Calls   []CallRef
}

// compCtx accumulates one clause's (or query's) output as it is
// compiled. Every compile* helper appends directly into instrs so that
// label/patch/call bookkeeping always uses final, already-global
// instruction indices — there is no separate merge-and-offset step.
type compCtx struct {
	cs       *clauseState
	vi       *varInfo
	builtins BuiltinIDs

	// hasEnv records whether this clause allocated an environment frame,
	// so a tail call (compiled as execute/call_internal's Execute tag)
	// knows to deallocate it immediately beforehand — last-call
	// optimisation reclaims the frame before the jump away, not after,
	// since nothing ever runs after an execute to reach a trailing
	// deallocate (spec §4.2.7, §4.3.5).
	hasEnv bool

	instrs  []inst.Instruction
	nextLbl LabelID
	patches []Patch
	defs    []LabelDef
	calls   []CallRef
}

func (c *compCtx) emit(i inst.Instruction) int {
	idx := len(c.instrs)
	c.instrs = append(c.instrs, i)
	return idx
}

func (c *compCtx) freshLabel() LabelID {
	c.nextLbl++
	return c.nextLbl
}

func (c *compCtx) defineLabelHere(l LabelID) {
	c.defs = append(c.defs, LabelDef{Label: l, InstrIndex: len(c.instrs)})
}

func (c *compCtx) patch(instrIdx int, l LabelID) {
	c.patches = append(c.patches, Patch{InstrIndex: instrIdx, Label: l})
}

// CompileClause lowers one program clause (ast.Clause with a non-nil
// head) into a CompiledClause.
func CompileClause(c ast.Clause, builtins BuiltinIDs) (*CompiledClause, error) {
	if c.IsQuery() {
		return nil, fmt.Errorf("compiler: CompileClause called on a query")
	}

	vi := analyzeClause(c)
	cs := newClauseState(vi)
	ctx := &compCtx{cs: cs, vi: vi, builtins: builtins}

	hasCut := vi.hasDepthSlot
	depthSlot := vi.depthSlot

	isFact := len(c.Body) == 0
	singleDisjunction := len(c.Body) == 1 && isDisjunctionGoal(c.Body[0])
	// A lone built-in goal compiles to call_internal, which does not
	// return to the caller the way execute does, so it still needs the
	// allocate ... deallocate; proceed frame.
	singleBuiltin := false
	if len(c.Body) == 1 {
		switch g := c.Body[0].(type) {
		case ast.Struct:
			_, singleBuiltin = structBuiltin(g.Name, len(g.Args), builtins)
		case ast.Atom:
			_, singleBuiltin = atomBuiltin(g.Name, builtins)
		}
	}
	needsEnv := len(c.Body) > 1 || hasCut || singleDisjunction || singleBuiltin

	if needsEnv {
		ctx.hasEnv = true
		if vi.numPerm > 0 {
			ctx.emit(inst.Instruction{Op: inst.AllocateN, Imm: uint16(vi.numPerm)})
		} else {
			ctx.emit(inst.Instruction{Op: inst.Allocate})
		}
		if hasCut {
			ctx.emit(inst.Instruction{Op: inst.GetLevel, Mode: inst.ModeStack, Reg1: depthSlot})
		}
	}

	var headArgs []*node
	if c.Head != nil {
		headArgs = make([]*node, len(c.Head.Args))
		for i, a := range c.Head.Args {
			headArgs[i] = buildNode(a)
		}
	}
	ctx.instrs = append(ctx.instrs, flattenUnit(headArgs, true, false, cs)...)

	for i, g := range c.Body {
		lastTextual := i == len(c.Body)-1
		compileGoal(g, i, lastTextual, depthSlot, ctx)
	}

	if isFact {
		ctx.emit(inst.Instruction{Op: inst.Proceed})
	} else if needsEnv {
		ctx.emit(inst.Instruction{Op: inst.Deallocate})
		ctx.emit(inst.Instruction{Op: inst.Proceed})
	}
	// A chain rule (exactly one ordinary or meta-call body goal, no cut)
	// ends with that goal's own execute, which already behaves as the
	// clause's return.

	return &CompiledClause{Instrs: ctx.instrs, Patches: ctx.patches, Defs: ctx.defs, Calls: ctx.calls}, nil
}

func isDisjunctionGoal(t ast.Term) bool {
	_, ok := t.(ast.Disjunction)
	return ok
}

// compileGoal lowers one body goal. unitIndex is this goal's position in
// the body (Unit i>0 per spec §4.2.3; the head shares Unit 0 with body
// goal 0). isLastGoal enables last-call optimisation (execute instead of
// call, put_unsafe_val for permanent-variable argument reuse).
func compileGoal(g ast.Term, unitIndex int, isLastGoal bool, depthSlot int, ctx *compCtx) {
	switch v := g.(type) {
	case ast.Cut:
		if unitIndex == 0 {
			ctx.emit(inst.Instruction{Op: inst.NeckCut})
		} else {
			ctx.emit(inst.Instruction{Op: inst.Cut, Mode: inst.ModeStack, Reg1: depthSlot})
		}

	case ast.Disjunction:
		compileDisjunction(v, unitIndex, ctx)

	case ast.Conjunction:
		for i, sub := range v.Goals {
			last := isLastGoal && i == len(v.Goals)-1
			compileGoal(sub, unitIndex, last, depthSlot, ctx)
		}

	case ast.Var:
		compileMetaCall(v.Name, unitIndex, isLastGoal, ctx)

	case ast.Atom:
		if id, ok := atomBuiltin(v.Name, ctx.builtins); ok {
			ctx.emit(inst.Instruction{Op: inst.CallInternal, Imm: uint16(id)})
			return
		}
		compileOrdinaryCall(v.Name, nil, unitIndex, isLastGoal, ctx)

	case ast.Struct:
		if id, ok := structBuiltin(v.Name, len(v.Args), ctx.builtins); ok {
			compileStructBuiltin(id, v.Args, unitIndex, ctx)
			return
		}
		compileOrdinaryCall(v.Name, v.Args, unitIndex, isLastGoal, ctx)

	default:
		panic("compiler: unsupported body goal shape")
	}
}

func (ctx *compCtx) permVarsRemaining(unitIndex int) uint16 {
	if unitIndex >= 0 && unitIndex < len(ctx.vi.permVarsRemaining) {
		return uint16(ctx.vi.permVarsRemaining[unitIndex])
	}
	return 0
}

func compileOrdinaryCall(name int, args []ast.Term, unitIndex int, isLastGoal bool, ctx *compCtx) {
	nodes := make([]*node, len(args))
	for i, a := range args {
		nodes[i] = buildNode(a)
	}
	ctx.instrs = append(ctx.instrs, flattenUnit(nodes, false, isLastGoal, ctx.cs)...)

	if isLastGoal && ctx.hasEnv {
		ctx.emit(inst.Instruction{Op: inst.Deallocate})
	}
	callIdx := len(ctx.instrs)
	if isLastGoal {
		ctx.emit(inst.Instruction{Op: inst.Execute, Functor: cell.PackFunctorHeader(name, len(args))})
	} else {
		ctx.emit(inst.Instruction{
			Op: inst.Call, Functor: cell.PackFunctorHeader(name, len(args)),
			Imm: ctx.permVarsRemaining(unitIndex),
		})
	}
	ctx.calls = append(ctx.calls, CallRef{InstrIndex: callIdx, Name: name, Arity: len(args)})
}

// compileMetaCall handles a bare-variable goal (e.g. "p(X) :- G, ...")
// as an implicit call(G) (spec §4.2.6 meta-call).
func compileMetaCall(varID int, unitIndex int, isLastGoal bool, ctx *compCtx) {
	ctx.instrs = append(ctx.instrs, flattenUnit([]*node{{kind: kindVar, varID: varID}}, false, isLastGoal, ctx.cs)...)
	id := builtin.Call
	if isLastGoal {
		id = builtin.Execute
		if ctx.hasEnv {
			ctx.emit(inst.Instruction{Op: inst.Deallocate})
		}
	}
	ctx.emit(inst.Instruction{Op: inst.CallInternal, Imm: uint16(id), Imm2: ctx.permVarsRemaining(unitIndex)})
}

func compileStructBuiltin(id builtin.ID, args []ast.Term, unitIndex int, ctx *compCtx) {
	nodes := make([]*node, len(args))
	for i, a := range args {
		nodes[i] = buildNode(a)
	}
	ctx.instrs = append(ctx.instrs, flattenUnit(nodes, false, false, ctx.cs)...)
	ctx.emit(inst.Instruction{Op: inst.CallInternal, Imm: uint16(id), Imm2: ctx.permVarsRemaining(unitIndex)})
}

// flattenDisjunction unfolds a right-nested chain of Disjunctions
// ((A;B);C) or (A;(B;C)) into a flat, left-to-right alternative list
// (spec §4.2.6: "flattened depth-first left-first").
func flattenDisjunction(t ast.Term) []ast.Term {
	d, ok := t.(ast.Disjunction)
	if !ok {
		return []ast.Term{t}
	}
	return append(flattenDisjunction(d.Left), flattenDisjunction(d.Right)...)
}

// compileDisjunction expands ";" into a private choice-point chain
// local to the enclosing clause, sharing its environment and
// continuation (spec §4.2.6). Goals inside a disjunction are
// conservatively never last-call-optimised: once the alternatives
// reconverge at Lend, the clause's own epilogue still has to run, so an
// `execute` from inside an alternative would be unsound in general.
func compileDisjunction(d ast.Disjunction, unitIndex int, ctx *compCtx) {
	alts := flattenDisjunction(d)
	if len(alts) == 1 {
		compileGoal(alts[0], unitIndex, false, 0, ctx)
		return
	}

	labels := make([]LabelID, len(alts))
	for i := 1; i < len(alts); i++ {
		labels[i] = ctx.freshLabel()
	}
	lend := ctx.freshLabel()

	for i, alt := range alts {
		if i > 0 {
			ctx.defineLabelHere(labels[i])
		}
		var idx int
		switch {
		case i == 0:
			idx = ctx.emit(inst.Instruction{Op: inst.TryMeElse})
			ctx.patch(idx, labels[1])
		case i < len(alts)-1:
			idx = ctx.emit(inst.Instruction{Op: inst.RetryMeElse})
			ctx.patch(idx, labels[i+1])
		default:
			ctx.emit(inst.Instruction{Op: inst.TrustMe})
		}

		compileGoal(alt, unitIndex, false, 0, ctx)

		if i < len(alts)-1 {
			cIdx := ctx.emit(inst.Instruction{Op: inst.Continue})
			ctx.patch(cIdx, lend)
		}
	}
	ctx.defineLabelHere(lend)
}
