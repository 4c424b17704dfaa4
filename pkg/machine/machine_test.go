package machine

import (
	"testing"

	"github.com/ait-kaci/wam/pkg/ast"
	"github.com/ait-kaci/wam/pkg/cell"
	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/result"
)

// Interned name ids used throughout these tests, chosen well clear of
// the zero-value BuiltinIDs so a stray zero id never accidentally names
// a control construct.
const (
	nameP = 100 // p/1
	nameQ = 101 // q/2
	nameR = 102 // r/1
	nameA = 110 // atom a
	nameB = 111 // atom b
	nameC = 112 // atom c

	varX = 200
	varY = 201
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(compiler.BuiltinIDs{}, Options{})
}

// TestDerefIdempotent checks invariant I-1 (spec §8): dereferencing an
// already-dereferenced address returns the same address.
func TestDerefIdempotent(t *testing.T) {
	m := New(&[]byte{}, Options{})
	a := m.heapBase
	b := m.heapBase + 1
	m.data[a] = cell.Ref(a)
	m.data[b] = cell.Ref(a)
	d1 := m.deref(b)
	d2 := m.deref(d1)
	if d1 != a || d2 != d1 {
		t.Fatalf("deref(%d)=%d, deref(deref(%d))=%d; want both %d", b, d1, b, d2, a)
	}
}

// TestUnifyTwoUnboundVars checks that unifying two unbound variables
// links them without error and that binding one is visible via the
// other.
func TestUnifyTwoUnboundVars(t *testing.T) {
	m := New(&[]byte{}, Options{})
	a := m.heapBase
	b := m.heapBase + 1
	m.data[a] = cell.Ref(a)
	m.data[b] = cell.Ref(b)
	if !m.unify(a, b) {
		t.Fatal("unify of two unbound variables should always succeed")
	}
	m.bind(m.deref(a), cell.Con(nameA))
	if got := m.deref(b); m.data[got] != cell.Con(nameA) {
		t.Fatalf("binding through %d not visible via %d: got %v", a, b, m.data[got])
	}
}

// TestUnifyConstantMismatchFails checks that unifying two distinct
// atoms fails without panicking.
func TestUnifyConstantMismatchFails(t *testing.T) {
	m := New(&[]byte{}, Options{})
	a := m.heapBase
	b := m.heapBase + 1
	m.data[a] = cell.Con(nameA)
	m.data[b] = cell.Con(nameB)
	if m.unify(a, b) {
		t.Fatal("unify of distinct atoms should fail")
	}
}

// TestSingleFactSolvesQuery exercises the full AddToDomain -> EndScope
// -> SetQuery -> Resolve pipeline end-to-end (spec §6, akin to S1:
// atomic unification) for the simplest possible program: p(a). ?- p(X).
func TestSingleFactSolvesQuery(t *testing.T) {
	r := newResolver(t)

	fact := ast.Fact(ast.NewStruct(nameP, ast.NewAtom(nameA)))
	if err := r.AddToDomain(fact); err != nil {
		t.Fatalf("AddToDomain: %v", err)
	}
	if errs := r.EndScope(); len(errs) != 0 {
		t.Fatalf("EndScope reported undefined callees: %v", errs)
	}

	query := ast.Query([]int{varX}, ast.NewStruct(nameP, ast.NewVar(varX)))
	if err := r.SetQuery(query); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}

	sol, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, ok := sol[varX].(result.Atom)
	if !ok || got.Name != nameA {
		t.Fatalf("sol[varX] = %#v, want Atom{Name:%d}", sol[varX], nameA)
	}

	if _, err := r.Resolve(); err != ErrNoSolution {
		t.Fatalf("second Resolve: got err=%v, want ErrNoSolution", err)
	}
}

// TestFactMismatchFails checks that a query against a fact whose
// argument cannot unify fails cleanly (no panic, ErrNoSolution).
func TestFactMismatchFails(t *testing.T) {
	r := newResolver(t)

	fact := ast.Fact(ast.NewStruct(nameP, ast.NewAtom(nameA)))
	if err := r.AddToDomain(fact); err != nil {
		t.Fatalf("AddToDomain: %v", err)
	}
	r.EndScope()

	query := ast.Query(nil, ast.NewStruct(nameP, ast.NewAtom(nameB)))
	if err := r.SetQuery(query); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}
	if _, err := r.Resolve(); err != ErrNoSolution {
		t.Fatalf("Resolve: got err=%v, want ErrNoSolution", err)
	}
}

// TestMultiClauseBacktracking exercises choice points across sibling
// clauses (spec §4.3.6, akin to S4 disjunction): p(a). p(b). p(c).
// queried with ?- p(X). must yield a, then b, then c, then exhaust.
func TestMultiClauseBacktracking(t *testing.T) {
	r := newResolver(t)

	for _, name := range []int{nameA, nameB, nameC} {
		if err := r.AddToDomain(ast.Fact(ast.NewStruct(nameP, ast.NewAtom(name)))); err != nil {
			t.Fatalf("AddToDomain: %v", err)
		}
	}
	if errs := r.EndScope(); len(errs) != 0 {
		t.Fatalf("EndScope: %v", errs)
	}

	query := ast.Query([]int{varX}, ast.NewStruct(nameP, ast.NewVar(varX)))
	if err := r.SetQuery(query); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}

	var got []int
	for {
		sol, err := r.Resolve()
		if err == ErrNoSolution {
			break
		}
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		got = append(got, sol[varX].(result.Atom).Name)
	}

	want := []int{nameA, nameB, nameC}
	if len(got) != len(want) {
		t.Fatalf("got %v solutions, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("solution %d = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

// TestConjunctionAcrossCalls exercises environment persistence across
// an ordinary (non-tail) call (akin to S3): q(X,Y) :- p(X), p(Y).
// p(a). Querying ?- q(X,Y). must bind both X and Y to a.
func TestConjunctionAcrossCalls(t *testing.T) {
	r := newResolver(t)

	if err := r.AddToDomain(ast.Fact(ast.NewStruct(nameP, ast.NewAtom(nameA)))); err != nil {
		t.Fatalf("AddToDomain p: %v", err)
	}
	qRule := ast.Rule(
		ast.NewStruct(nameQ, ast.NewVar(varX), ast.NewVar(varY)),
		[]int{varX, varY},
		ast.NewStruct(nameP, ast.NewVar(varX)),
		ast.NewStruct(nameP, ast.NewVar(varY)),
	)
	if err := r.AddToDomain(qRule); err != nil {
		t.Fatalf("AddToDomain q: %v", err)
	}
	if errs := r.EndScope(); len(errs) != 0 {
		t.Fatalf("EndScope: %v", errs)
	}

	query := ast.Query([]int{varX, varY}, ast.NewStruct(nameQ, ast.NewVar(varX), ast.NewVar(varY)))
	if err := r.SetQuery(query); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}
	sol, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := sol[varX].(result.Atom).Name; got != nameA {
		t.Fatalf("X = %d, want %d", got, nameA)
	}
	if got := sol[varY].(result.Atom).Name; got != nameA {
		t.Fatalf("Y = %d, want %d", got, nameA)
	}
}

// TestCutPrunesAlternatives exercises neck_cut (akin to S5): p(a) :- !.
// p(b). p(c). Querying ?- p(X). must yield exactly one solution, a.
func TestCutPrunesAlternatives(t *testing.T) {
	r := newResolver(t)

	cutRule := ast.Rule(ast.NewStruct(nameP, ast.NewAtom(nameA)), nil, ast.Cut{})
	if err := r.AddToDomain(cutRule); err != nil {
		t.Fatalf("AddToDomain cut clause: %v", err)
	}
	if err := r.AddToDomain(ast.Fact(ast.NewStruct(nameP, ast.NewAtom(nameB)))); err != nil {
		t.Fatalf("AddToDomain p(b): %v", err)
	}
	if err := r.AddToDomain(ast.Fact(ast.NewStruct(nameP, ast.NewAtom(nameC)))); err != nil {
		t.Fatalf("AddToDomain p(c): %v", err)
	}
	if errs := r.EndScope(); len(errs) != 0 {
		t.Fatalf("EndScope: %v", errs)
	}

	query := ast.Query([]int{varX}, ast.NewStruct(nameP, ast.NewVar(varX)))
	if err := r.SetQuery(query); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}

	sol, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := sol[varX].(result.Atom).Name; got != nameA {
		t.Fatalf("X = %d, want %d", got, nameA)
	}
	if _, err := r.Resolve(); err != ErrNoSolution {
		t.Fatalf("second Resolve: got err=%v, want ErrNoSolution (cut should have pruned p(b), p(c))", err)
	}
}

// TestCutRestoresB0AfterNestedCallOverwritesIt exercises a choice point
// whose first clause makes a nested ordinary call (which overwrites the
// live b0 register to its own barrier) and then fails, backtracking via
// trust_me into a sibling clause that ends in a non-leading cut:
//
//	p(X) :- r(X), fail.
//	p(X) :- q(X), !.
//	r(a).
//	q(b). q(c).
//
// ?- p(X). must succeed exactly once, with X=b: clause 1 always fails
// (r(a) then fail), clause 2 binds X to q's first alternative and then
// cuts away q's second alternative (q(c)). If the choice point pushed
// for p's two clauses failed to save/restore b0 alongside bp, clause
// 2's cut would read the stale b0 left over from the "call r(X)" inside
// clause 1 instead of the barrier in effect when p itself was entered,
// and would set bp to a since-reused, unrelated stack address rather
// than discarding q's own remaining choice point — letting a second
// Resolve spuriously resume q(c).
func TestCutRestoresB0AfterNestedCallOverwritesIt(t *testing.T) {
	builtins := compiler.BuiltinIDs{Fail: 199}
	r := NewResolver(builtins, Options{})

	clause1 := ast.Rule(
		ast.NewStruct(nameP, ast.NewVar(varX)), []int{varX},
		ast.NewStruct(nameR, ast.NewVar(varX)),
		ast.NewAtom(builtins.Fail),
	)
	clause2 := ast.Rule(
		ast.NewStruct(nameP, ast.NewVar(varX)), []int{varX},
		ast.NewStruct(nameQ, ast.NewVar(varX)),
		ast.Cut{},
	)
	for _, cl := range []ast.Clause{
		clause1, clause2,
		ast.Fact(ast.NewStruct(nameR, ast.NewAtom(nameA))),
		ast.Fact(ast.NewStruct(nameQ, ast.NewAtom(nameB))),
		ast.Fact(ast.NewStruct(nameQ, ast.NewAtom(nameC))),
	} {
		if err := r.AddToDomain(cl); err != nil {
			t.Fatalf("AddToDomain: %v", err)
		}
	}
	if errs := r.EndScope(); len(errs) != 0 {
		t.Fatalf("EndScope: %v", errs)
	}

	query := ast.Query([]int{varX}, ast.NewStruct(nameP, ast.NewVar(varX)))
	if err := r.SetQuery(query); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}

	sol, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := sol[varX].(result.Atom).Name; got != nameB {
		t.Fatalf("X = %d, want %d (q's first clause, after clause 1's r(X),fail exhausts)", got, nameB)
	}
	if _, err := r.Resolve(); err != ErrNoSolution {
		t.Fatalf("second Resolve: got err=%v, want ErrNoSolution (the cut in clause 2 must prune q's remaining alternative q(c))", err)
	}
}

// TestUndefinedQueryCalleeReportsLinkageError exercises the linkage
// failure path (spec §7): a query calling a predicate that is never
// defined must fail at SetQuery, not panic or hang.
func TestUndefinedQueryCalleeReportsLinkageError(t *testing.T) {
	r := newResolver(t)
	query := ast.Query(nil, ast.NewStruct(nameP, ast.NewAtom(nameA)))
	if err := r.SetQuery(query); err == nil {
		t.Fatal("SetQuery against an undefined predicate should return an error")
	}
}
