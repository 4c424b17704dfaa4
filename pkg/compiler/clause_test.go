package compiler

import (
	"testing"

	"github.com/ait-kaci/wam/pkg/ast"
	"github.com/ait-kaci/wam/pkg/inst"
)

var testBuiltins = BuiltinIDs{Call: 900, Execute: 901, Unify: 902, NotUnify: 903, True: 910, Fail: 911, Nl: 912}

const (
	fAppend = 200 + iota
	fNil
	fQ2
	fR2
)

// TestCompileChainRuleNoEnvironment: a clause with exactly one ordinary
// body goal needs no environment frame and ends in that goal's own
// execute (spec §4.2.5).
func TestCompileChainRuleNoEnvironment(t *testing.T) {
	head := ast.NewStruct(fAppend, ast.NewVar(vX))
	body := []ast.Term{ast.NewStruct(fQ2, ast.NewVar(vX))}
	c := ast.Rule(head, []int{vX}, body...)

	cc, err := CompileClause(c, testBuiltins)
	if err != nil {
		t.Fatal(err)
	}
	for _, in := range cc.Instrs {
		if in.Op == inst.Allocate || in.Op == inst.AllocateN {
			t.Fatalf("chain rule should not allocate an environment: %+v", cc.Instrs)
		}
	}
	last := cc.Instrs[len(cc.Instrs)-1]
	if last.Op != inst.Execute {
		t.Fatalf("chain rule must end in execute, got %v", last.Op)
	}
}

// TestCompileFact: a headless-body clause ends in bare proceed.
func TestCompileFact(t *testing.T) {
	c := ast.Fact(ast.NewStruct(fNil))
	cc, err := CompileClause(c, testBuiltins)
	if err != nil {
		t.Fatal(err)
	}
	last := cc.Instrs[len(cc.Instrs)-1]
	if last.Op != inst.Proceed {
		t.Fatalf("fact must end in proceed, got %v", last.Op)
	}
}

// TestCompileCutUsesGetLevelAndDeepCut exercises S5's shape: p(X) :-
// q(X), !. — a cut as the second body goal needs an environment (to
// hold the depth variable), get_level in the prelude, and a deep cut
// referencing that slot since a user goal (q(X)) precedes it.
func TestCompileCutUsesGetLevelAndDeepCut(t *testing.T) {
	head := ast.NewStruct(fAppend, ast.NewVar(vX))
	body := []ast.Term{ast.NewStruct(fQ2, ast.NewVar(vX)), ast.Cut{}}
	c := ast.Rule(head, []int{vX}, body...)

	cc, err := CompileClause(c, testBuiltins)
	if err != nil {
		t.Fatal(err)
	}
	var sawGetLevel, sawCut bool
	for _, in := range cc.Instrs {
		if in.Op == inst.GetLevel {
			sawGetLevel = true
		}
		if in.Op == inst.Cut {
			sawCut = true
		}
		if in.Op == inst.NeckCut {
			t.Fatal("a cut preceded by a user goal must be a deep cut (Cut Yn), not neck_cut")
		}
	}
	if !sawGetLevel {
		t.Fatal("expected a get_level instruction in the clause prelude")
	}
	if !sawCut {
		t.Fatal("expected a cut instruction")
	}
}

// TestCompileLeadingCutIsNeckCut: "p :- !, q." — nothing precedes the
// cut, so it compiles to the cheaper neck_cut.
func TestCompileLeadingCutIsNeckCut(t *testing.T) {
	head := ast.NewStruct(fAppend, ast.NewVar(vX))
	body := []ast.Term{ast.Cut{}, ast.NewStruct(fQ2, ast.NewVar(vX))}
	c := ast.Rule(head, []int{vX}, body...)

	cc, err := CompileClause(c, testBuiltins)
	if err != nil {
		t.Fatal(err)
	}
	var sawNeckCut bool
	for _, in := range cc.Instrs {
		if in.Op == inst.NeckCut {
			sawNeckCut = true
		}
	}
	if !sawNeckCut {
		t.Fatal("a leading cut must compile to neck_cut")
	}
}

// TestCompileDisjunctionChoicePoints exercises S4's shape:
// p(X) :- (X = a ; X = b). Two alternatives need exactly one
// try_me_else and one trust_me, with a continue bridging the first
// alternative to the shared end label.
func TestCompileDisjunctionChoicePoints(t *testing.T) {
	head := ast.NewStruct(fAppend, ast.NewVar(vX))
	atomA, atomB := 300, 301
	disj := ast.Disjunction{
		Left:  ast.Struct{Name: testBuiltins.Unify, Args: []ast.Term{ast.NewVar(vX), ast.NewAtom(atomA)}},
		Right: ast.Struct{Name: testBuiltins.Unify, Args: []ast.Term{ast.NewVar(vX), ast.NewAtom(atomB)}},
	}
	c := ast.Rule(head, []int{vX}, disj)

	cc, err := CompileClause(c, testBuiltins)
	if err != nil {
		t.Fatal(err)
	}
	var tryCount, trustCount, continueCount int
	for _, in := range cc.Instrs {
		switch in.Op {
		case inst.TryMeElse:
			tryCount++
		case inst.TrustMe:
			trustCount++
		case inst.Continue:
			continueCount++
		}
	}
	if tryCount != 1 || trustCount != 1 {
		t.Fatalf("got tryCount=%d trustCount=%d, want 1 and 1", tryCount, trustCount)
	}
	if continueCount != 1 {
		t.Fatalf("got continueCount=%d, want 1", continueCount)
	}
	if len(cc.Patches) == 0 {
		t.Fatal("expected unresolved label patches for the disjunction's jumps")
	}
}

// TestCompileQueryAllVarsPermanent exercises CompileQuery's prologue
// and epilogue shape (spec §4.2.3, §4.3.8).
func TestCompileQueryAllVarsPermanent(t *testing.T) {
	q := ast.Query([]int{vX}, ast.NewStruct(fAppend, ast.NewVar(vX)))
	cq := CompileQuery(q, testBuiltins)

	if cq.Instrs[0].Op != inst.AllocateN {
		t.Fatalf("query must open with allocate_n, got %v", cq.Instrs[0].Op)
	}
	var sawSuspend, sawDeallocate bool
	for _, in := range cq.Instrs {
		if in.Op == inst.Suspend {
			sawSuspend = true
		}
		if in.Op == inst.Deallocate {
			sawDeallocate = true
		}
	}
	if !sawSuspend || !sawDeallocate {
		t.Fatal("query must end in suspend; deallocate")
	}
	if cq.SlotVar[0] != vX {
		t.Fatalf("SlotVar[0] = %d, want %d", cq.SlotVar[0], vX)
	}
}

// TestBuildPredicateSingleClauseNoPrelude verifies a one-clause
// predicate gets no choice-point instructions (spec §4.2.5).
func TestBuildPredicateSingleClauseNoPrelude(t *testing.T) {
	c := ast.Fact(ast.NewStruct(fNil))
	cc, err := CompileClause(c, testBuiltins)
	if err != nil {
		t.Fatal(err)
	}
	pred := BuildPredicate(fNil, 0, []*CompiledClause{cc})
	for _, in := range pred.Instrs {
		if in.Op == inst.TryMeElse || in.Op == inst.RetryMeElse || in.Op == inst.TrustMe {
			t.Fatalf("single-clause predicate must have no choice-point prelude: %+v", pred.Instrs)
		}
	}
}

// TestBuildPredicateMultiClausePrelude: k clauses get try_me_else,
// (k-2) retry_me_else, and one trust_me, in that order.
func TestBuildPredicateMultiClausePrelude(t *testing.T) {
	var clauses []*CompiledClause
	for i := 0; i < 3; i++ {
		c := ast.Fact(ast.NewStruct(fR2, ast.NewAtom(300+i)))
		cc, err := CompileClause(c, testBuiltins)
		if err != nil {
			t.Fatal(err)
		}
		clauses = append(clauses, cc)
	}
	pred := BuildPredicate(fR2, 1, clauses)

	var ops []inst.OpCode
	for _, in := range pred.Instrs {
		switch in.Op {
		case inst.TryMeElse, inst.RetryMeElse, inst.TrustMe:
			ops = append(ops, in.Op)
		}
	}
	want := []inst.OpCode{inst.TryMeElse, inst.RetryMeElse, inst.TrustMe}
	if len(ops) != len(want) {
		t.Fatalf("got %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("got %v, want %v", ops, want)
		}
	}
}
