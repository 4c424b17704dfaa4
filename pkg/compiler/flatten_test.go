package compiler

import (
	"testing"

	"github.com/ait-kaci/wam/pkg/inst"
)

// TestFlattenQuerySideStruct flattens f(X) on the query side: X is
// fresh, so it gets a temp register and put_var loads it into A0.
func TestFlattenQuerySideStruct(t *testing.T) {
	vi := &varInfo{slot: map[int]int{}}
	cs := newClauseState(vi)
	args := []*node{{kind: kindVar, varID: 1}}

	instrs := flattenUnit(args, false, false, cs)
	if len(instrs) != 1 {
		t.Fatalf("got %d instructions, want 1: %+v", len(instrs), instrs)
	}
	if instrs[0].Op != inst.PutVar {
		t.Fatalf("op = %v, want PutVar", instrs[0].Op)
	}
	if instrs[0].Reg2 != 0 {
		t.Fatalf("Reg2 (Ai) = %d, want 0", instrs[0].Reg2)
	}
}

// TestFlattenNestedStructGetsBlock flattens f(g(X)) on the program
// side: the outer argument is a struct, so it's queued and expanded
// into its own block after the argument pass.
func TestFlattenNestedStructGetsBlock(t *testing.T) {
	vi := &varInfo{slot: map[int]int{}}
	cs := newClauseState(vi)
	inner := &node{kind: kindStruct, functor: 5, args: []*node{{kind: kindVar, varID: 1}}}
	args := []*node{inner}

	// The outer position's home is argument register A0 itself — no
	// separate instruction is needed to establish it, since it isn't a
	// nested occurrence.
	instrs := flattenUnit(args, true, false, cs)
	if len(instrs) != 2 {
		t.Fatalf("got %d instructions, want 2 (get_struc, unify_var): %+v", len(instrs), instrs)
	}
	if instrs[0].Op != inst.GetStruc {
		t.Fatalf("instr 0 op = %v, want GetStruc", instrs[0].Op)
	}
	if instrs[0].Reg1 != 0 {
		t.Fatalf("GetStruc Reg1 = %d, want 0 (A0 is its own home)", instrs[0].Reg1)
	}
	if instrs[1].Op != inst.UnifyVar {
		t.Fatalf("instr 1 op = %v, want UnifyVar", instrs[1].Op)
	}
}

// TestFlattenVoidCompaction verifies a run of anonymous variables
// inside a nested block compacts to a single set_void/unify_void k.
func TestFlattenVoidCompaction(t *testing.T) {
	vi := &varInfo{slot: map[int]int{}}
	cs := newClauseState(vi)
	inner := &node{kind: kindStruct, functor: 5, args: []*node{
		{kind: kindVar, anonymous: true},
		{kind: kindVar, anonymous: true},
		{kind: kindVar, varID: 9},
	}}
	instrs := flattenUnit([]*node{inner}, false, false, cs)

	var voidCount int
	for _, in := range instrs {
		if in.Op == inst.SetVoid {
			voidCount++
			if in.Imm != 2 {
				t.Fatalf("set_void k = %d, want 2", in.Imm)
			}
		}
	}
	if voidCount != 1 {
		t.Fatalf("got %d set_void instructions, want exactly 1", voidCount)
	}
}

// TestFlattenPutUnsafeVal verifies a permanent variable's repeat
// occurrence in the clause's final call uses put_unsafe_val.
func TestFlattenPutUnsafeVal(t *testing.T) {
	vi := &varInfo{slot: map[int]int{7: 0}}
	cs := newClauseState(vi)
	// First use establishes the home (stack slot 0).
	flattenUnit([]*node{{kind: kindVar, varID: 7}}, false, false, cs)
	// Second use, in the clause's final call.
	instrs := flattenUnit([]*node{{kind: kindVar, varID: 7}}, false, true, cs)
	if len(instrs) != 1 || instrs[0].Op != inst.PutUnsafeVal {
		t.Fatalf("got %+v, want a single PutUnsafeVal", instrs)
	}
}
