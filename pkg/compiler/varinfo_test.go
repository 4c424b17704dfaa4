package compiler

import (
	"testing"

	"github.com/ait-kaci/wam/pkg/ast"
)

const (
	fP = 100 + iota
	fQ
	fR
)

const (
	vX = iota
	vY
)

// TestPermanentAcrossUnits: p(X) :- q(X), r(X). — X occurs in unit 0 (via
// the head and q(X)) and unit 1 (r(X)), so it must be permanent.
func TestPermanentAcrossUnits(t *testing.T) {
	head := ast.NewStruct(fP, ast.NewVar(vX))
	body := []ast.Term{
		ast.NewStruct(fQ, ast.NewVar(vX)),
		ast.NewStruct(fR, ast.NewVar(vX)),
	}
	c := ast.Rule(head, []int{vX}, body...)

	vi := analyzeClause(c)
	if !isPermanent(vi, vX) {
		t.Fatal("X spans two units and must be permanent")
	}
	if vi.numPerm != 1 {
		t.Fatalf("numPerm = %d, want 1", vi.numPerm)
	}
	if len(vi.permVarsRemaining) != 2 {
		t.Fatalf("permVarsRemaining length = %d, want 2", len(vi.permVarsRemaining))
	}
	if vi.permVarsRemaining[0] != 1 {
		t.Fatalf("X is still live after goal 0 (used again in goal 1): got %d, want 1", vi.permVarsRemaining[0])
	}
	if vi.permVarsRemaining[1] != 0 {
		t.Fatalf("X dies after goal 1: got %d, want 0", vi.permVarsRemaining[1])
	}
}

// TestTemporaryWithinUnit: p(X) :- q(X). — X occurs only in unit 0
// (head + first, and only, body goal) so it never needs a stack slot.
func TestTemporaryWithinUnit(t *testing.T) {
	head := ast.NewStruct(fP, ast.NewVar(vX))
	body := []ast.Term{ast.NewStruct(fQ, ast.NewVar(vX))}
	c := ast.Rule(head, []int{vX}, body...)

	vi := analyzeClause(c)
	if isPermanent(vi, vX) {
		t.Fatal("X occurs only in unit 0 and should not be permanent")
	}
	if vi.numPerm != 0 {
		t.Fatalf("numPerm = %d, want 0", vi.numPerm)
	}
}

// TestSlotOrderDecreasingLastUnit verifies slot assignment order when
// two permanent variables share the same last-occurrence unit: the
// decreasing-last-unit order (spec §4.2.3 step 2) then falls back to
// ascending variable id.
func TestSlotOrderDecreasingLastUnit(t *testing.T) {
	// p(X, Y) :- q(X), r(Y), q(X, Y). X occurs in units 0 and 2, Y in
	// units 0, 1 and 2.
	head := ast.NewStruct(fP, ast.NewVar(vX), ast.NewVar(vY))
	body := []ast.Term{
		ast.NewStruct(fQ, ast.NewVar(vX)),
		ast.NewStruct(fR, ast.NewVar(vY)),
		ast.NewStruct(fQ, ast.NewVar(vX), ast.NewVar(vY)),
	}
	c := ast.Rule(head, []int{vX, vY}, body...)

	vi := analyzeClause(c)
	if vi.numPerm != 2 {
		t.Fatalf("numPerm = %d, want 2", vi.numPerm)
	}
	// Y's last occurrence unit (2) ties with X's last occurrence unit (2):
	// tie-break is ascending var id, so X gets slot 0, Y gets slot 1.
	if vi.slot[vX] != 0 || vi.slot[vY] != 1 {
		t.Fatalf("slots = %v, want X:0 Y:1", vi.slot)
	}
}

// TestDepthSlotCountedLiveUntilItsCut exercises spec.md §8 S5's shape:
// p(X) :- q(X), !. — the cut's depth slot must be counted as still
// live in permVarsRemaining after goal 0 (it is read by the cut in
// goal 1), or the call to q/1 would trim the environment as if the
// slot were already dead and a choice point q pushes of its own could
// land on top of it before the cut ever reads it.
func TestDepthSlotCountedLiveUntilItsCut(t *testing.T) {
	head := ast.NewStruct(fP, ast.NewVar(vX))
	body := []ast.Term{ast.NewStruct(fQ, ast.NewVar(vX)), ast.Cut{}}
	c := ast.Rule(head, []int{vX}, body...)

	vi := analyzeClause(c)
	if !vi.hasDepthSlot {
		t.Fatal("a clause with a non-leading cut must allocate a depth slot")
	}
	if vi.numPerm < 1 {
		t.Fatalf("numPerm = %d, want at least 1 (the depth slot)", vi.numPerm)
	}
	if len(vi.permVarsRemaining) != 2 {
		t.Fatalf("permVarsRemaining length = %d, want 2", len(vi.permVarsRemaining))
	}
	if vi.permVarsRemaining[0] < 1 {
		t.Fatalf("permVarsRemaining[0] = %d, want >= 1: the depth slot is still "+
			"live after goal 0, since the cut in goal 1 has not read it yet",
			vi.permVarsRemaining[0])
	}
	if vi.permVarsRemaining[1] != 0 {
		t.Fatalf("permVarsRemaining[1] = %d, want 0: the depth slot dies once "+
			"the cut that reads it has run", vi.permVarsRemaining[1])
	}
}

// TestDepthSlotNotNeededForLeadingCut exercises "p(X) :- !, q(X)." — a
// cut at unit 0 compiles to neck_cut and reads the live b0 register
// directly, never through a Y slot, so the depth slot is never counted
// as remaining past goal 0 even though a slot is still allocated and
// written by get_level. X (head and q(X)) is the one permanent variable
// still live after goal 0.
func TestDepthSlotNotNeededForLeadingCut(t *testing.T) {
	head := ast.NewStruct(fP, ast.NewVar(vX))
	body := []ast.Term{ast.Cut{}, ast.NewStruct(fQ, ast.NewVar(vX))}
	c := ast.Rule(head, []int{vX}, body...)

	vi := analyzeClause(c)
	if vi.permVarsRemaining[0] != 1 {
		t.Fatalf("permVarsRemaining[0] = %d, want 1 (X only): a leading cut never reads the depth slot via a Y slot",
			vi.permVarsRemaining[0])
	}
}
