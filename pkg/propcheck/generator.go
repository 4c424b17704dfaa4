package propcheck

import (
	"math/rand/v2"

	"github.com/ait-kaci/wam/pkg/ast"
)

// Vocabulary the generator draws from. A small closed universe of
// interned ids is enough to exercise every clause shape spec.md §8's
// scenarios need, without requiring a real lexer/interner — consuming
// interning as an opaque external contract is exactly spec §1's scope
// boundary.
const (
	predBase = 1000
	atomBase = 2000
	varBase  = 3000

	numPreds = 4
	numAtoms = 3
	numVars  = 4
	maxArity = 2
)

// Generator produces small random Horn-clause programs and mutates them
// incrementally, the same "RNG-seeded, one-step-at-a-time edit" shape as
// the teacher's stoke.Mutator, retargeted from Z80 instruction sequences
// to ast.Clause slices (spec §8 [EXPANSION]).
type Generator struct {
	rng *rand.Rand
}

// NewGenerator wraps rng. Callers own the *rand.Rand so a fuzz run
// seeded once at the top level reproduces deterministically.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

func (g *Generator) randPred() int { return predBase + g.rng.IntN(numPreds) }
func (g *Generator) randAtom() int { return atomBase + g.rng.IntN(numAtoms) }
func (g *Generator) randVar() int  { return varBase + g.rng.IntN(numVars) }

// randArgs builds arity arguments, each independently a fresh variable
// (recorded into vars) or a ground atom.
func (g *Generator) randArgs(arity int, vars map[int]bool) []ast.Term {
	args := make([]ast.Term, arity)
	for i := range args {
		if g.rng.IntN(2) == 0 {
			v := g.randVar()
			vars[v] = true
			args[i] = ast.NewVar(v)
		} else {
			args[i] = ast.NewAtom(g.randAtom())
		}
	}
	return args
}

// RandomFact builds a single fact clause p(args...).
func (g *Generator) RandomFact() ast.Clause {
	arity := 1 + g.rng.IntN(maxArity)
	vars := map[int]bool{}
	head := ast.NewStruct(g.randPred(), g.randArgs(arity, vars)...)
	return ast.Fact(head, keysOf(vars)...)
}

// RandomRule builds head :- body1, body2, ... (1-2 goals), occasionally
// leading with a cut (spec §8 S5) or expanding one goal into a
// disjunction (spec §8 S4).
func (g *Generator) RandomRule() ast.Clause {
	vars := map[int]bool{}
	headArity := 1 + g.rng.IntN(maxArity)
	head := ast.NewStruct(g.randPred(), g.randArgs(headArity, vars)...)

	nGoals := 1 + g.rng.IntN(2)
	body := make([]ast.Term, 0, nGoals+1)
	if g.rng.IntN(4) == 0 {
		body = append(body, ast.Cut{})
	}
	for i := 0; i < nGoals; i++ {
		arity := 1 + g.rng.IntN(maxArity)
		if g.rng.IntN(5) == 0 {
			left := ast.NewStruct(g.randPred(), g.randArgs(arity, vars)...)
			right := ast.NewStruct(g.randPred(), g.randArgs(arity, vars)...)
			body = append(body, ast.Disjunction{Left: left, Right: right})
		} else {
			body = append(body, ast.NewStruct(g.randPred(), g.randArgs(arity, vars)...))
		}
	}
	return ast.Rule(head, keysOf(vars), body...)
}

// RandomClauseSet builds n clauses, mostly facts with a minority of
// rules, for one AddToDomain/EndScope batch (spec §8 [EXPANSION]).
func (g *Generator) RandomClauseSet(n int) []ast.Clause {
	clauses := make([]ast.Clause, n)
	for i := range clauses {
		if g.rng.IntN(3) == 0 {
			clauses[i] = g.RandomRule()
		} else {
			clauses[i] = g.RandomFact()
		}
	}
	return clauses
}

// RandomQuery builds a query against the head shape of clauses' first
// non-query clause, so it always has at least a chance of unifying.
func (g *Generator) RandomQuery(clauses []ast.Clause) ast.Clause {
	name, arity := predBase, 1
	for _, c := range clauses {
		if c.IsQuery() {
			continue
		}
		name, arity = c.HeadFunctor()
		break
	}
	vars := map[int]bool{}
	args := g.randArgs(arity, vars)
	return ast.Query(keysOf(vars), ast.NewStruct(name, args...))
}

// Mutate applies one random incremental edit to clauses and returns a
// new slice — the input is never modified — the same weighted-switch
// shape as the teacher's stoke.Mutator.Mutate (spec §8 [EXPANSION]).
func (g *Generator) Mutate(clauses []ast.Clause) []ast.Clause {
	out := make([]ast.Clause, len(clauses))
	copy(out, clauses)
	if len(out) == 0 {
		return append(out, g.RandomFact())
	}

	switch r := g.rng.IntN(100); {
	case r < 30: // add a clause
		out = append(out, g.RandomFact())
	case r < 55: // replace a clause
		pos := g.rng.IntN(len(out))
		out[pos] = g.RandomRule()
	case r < 75: // delete a clause, keeping at least one
		if len(out) > 1 {
			pos := g.rng.IntN(len(out))
			out = append(out[:pos], out[pos+1:]...)
		}
	case r < 90: // rename one clause's first free variable throughout
		pos := g.rng.IntN(len(out))
		out[pos] = renameOneVar(out[pos], g.randVar())
	default: // introduce a leading cut into one clause's body
		pos := g.rng.IntN(len(out))
		out[pos] = addCut(out[pos])
	}
	return out
}

func keysOf(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// renameOneVar rewrites every occurrence of c's first free variable to
// newID, throughout the head and body.
func renameOneVar(c ast.Clause, newID int) ast.Clause {
	if len(c.FreeVars) == 0 {
		return c
	}
	oldID := c.FreeVars[0]

	nc := c
	if c.Head != nil {
		h := mapVars(*c.Head, oldID, newID).(ast.Struct)
		nc.Head = &h
	}
	body := make([]ast.Term, len(c.Body))
	for i, goal := range c.Body {
		body[i] = mapVars(goal, oldID, newID)
	}
	nc.Body = body

	freeVars := make([]int, len(c.FreeVars))
	copy(freeVars, c.FreeVars)
	freeVars[0] = newID
	nc.FreeVars = freeVars
	return nc
}

// mapVars rewrites every occurrence of oldID to newID anywhere in t —
// one positional walker rather than a visitor hierarchy (spec §9 design
// note 5).
func mapVars(t ast.Term, oldID, newID int) ast.Term {
	switch v := t.(type) {
	case ast.Var:
		if !v.Anonymous && v.Name == oldID {
			return ast.Var{Name: newID}
		}
		return v
	case ast.Atom:
		return v
	case ast.Cut:
		return v
	case ast.Struct:
		args := make([]ast.Term, len(v.Args))
		for i, a := range v.Args {
			args[i] = mapVars(a, oldID, newID)
		}
		return ast.Struct{Name: v.Name, Args: args}
	case ast.ListCell:
		return ast.ListCell{Head: mapVars(v.Head, oldID, newID), Tail: mapVars(v.Tail, oldID, newID)}
	case ast.Disjunction:
		return ast.Disjunction{Left: mapVars(v.Left, oldID, newID), Right: mapVars(v.Right, oldID, newID)}
	case ast.Conjunction:
		goals := make([]ast.Term, len(v.Goals))
		for i, goal := range v.Goals {
			goals[i] = mapVars(goal, oldID, newID)
		}
		return ast.Conjunction{Goals: goals}
	default:
		return t
	}
}

// addCut prepends a cut to c's body (never applied to a query).
func addCut(c ast.Clause) ast.Clause {
	if c.Head == nil {
		return c
	}
	nc := c
	nc.Body = append([]ast.Term{ast.Cut{}}, c.Body...)
	return nc
}
