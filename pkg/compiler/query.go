package compiler

import (
	"github.com/ait-kaci/wam/pkg/ast"
	"github.com/ait-kaci/wam/pkg/inst"
)

// CompiledQuery is a query's instruction listing plus the bookkeeping
// needed to report its solution: which stack slot holds each
// non-anonymous free variable (spec §3.6, §4.3.9).
type CompiledQuery struct {
	Instrs   []inst.Instruction
	Patches  []Patch
	Defs     []LabelDef
	Calls    []CallRef
	SlotVar  map[int]int // Y slot -> original variable-name id
	FreeVars []int
}

// CompileQuery lowers a query clause (ast.Clause with a nil head) into a
// CompiledQuery: every non-anonymous variable is permanent (spec
// §4.2.3), the body is a query-side unit sequence wrapped in
// allocate_n/suspend/deallocate.
func CompileQuery(c ast.Clause, builtins BuiltinIDs) *CompiledQuery {
	freeVars := c.FreeVars
	if freeVars == nil {
		freeVars = freeVarsOf(c)
	}
	vi := analyzeQuery(freeVars)

	// Every body goal after the first is its own unit for
	// permanent-variable bookkeeping purposes even though every query
	// variable is already permanent; permVarsRemaining still drives
	// each call's environment-trimming operand.
	nUnits := len(c.Body)
	if nUnits == 0 {
		nUnits = 1
	}
	vi.permVarsRemaining = make([]int, nUnits)
	for j := range vi.permVarsRemaining {
		vi.permVarsRemaining[j] = vi.numPerm
	}

	cs := newClauseState(vi)
	ctx := &compCtx{cs: cs, vi: vi, builtins: builtins}

	ctx.emit(inst.Instruction{Op: inst.AllocateN, Imm: uint16(vi.numPerm)})

	for i, g := range c.Body {
		compileGoal(g, i, false, 0, ctx)
	}

	ctx.emit(inst.Instruction{Op: inst.Suspend})
	ctx.emit(inst.Instruction{Op: inst.Deallocate})

	slotVar := make(map[int]int, len(freeVars))
	for slot, id := range freeVars {
		slotVar[slot] = id
	}

	return &CompiledQuery{
		Instrs: ctx.instrs, Patches: ctx.patches, Defs: ctx.defs, Calls: ctx.calls,
		SlotVar: slotVar, FreeVars: freeVars,
	}
}
