// Package ast defines the ingress contract: the Clause/Sentence shape the
// Compiler consumes. Lexing and parsing source text into this shape is an
// external collaborator's job (spec §1 Out of scope); this package only
// fixes the wire shape and offers small builder helpers the CLI demo and
// the test suite use to construct terms without a real parser.
package ast

import "fmt"

// Term is the closed union of term shapes the compiler flattens.
// Cut and Disjunction are built-in control constructs (spec §4.2.6);
// everything else is an ordinary first-order term.
type Term interface {
	isTerm()
}

// Var is an occurrence of a variable, named by its interned id.
// Anonymous occurrences ("_") use Anonymous = true and Name is ignored.
type Var struct {
	Name      int
	Anonymous bool
}

func (Var) isTerm() {}

// Atom is a zero-arity functor (a constant).
type Atom struct {
	Name int
}

func (Atom) isTerm() {}

// Struct is a compound term name(arg1, ..., argN), N = len(Args) >= 1.
type Struct struct {
	Name int
	Args []Term
}

func (Struct) isTerm() {}

// Cut is the "!" control construct.
type Cut struct{}

func (Cut) isTerm() {}

// ListCell is a two-arity cons cell [Head|Tail], given its own term
// shape (rather than desugaring to a Struct) so the compiler can target
// get_list/put_list directly instead of get_struc/put_struc with an
// implicit ./2 functor (spec §4.3.4).
type ListCell struct {
	Head, Tail Term
}

func (ListCell) isTerm() {}

// NewList builds a proper list term from elements, terminated by tail
// (normally an Atom for "[]").
func NewList(tail Term, elems ...Term) Term {
	result := tail
	for i := len(elems) - 1; i >= 0; i-- {
		result = ListCell{Head: elems[i], Tail: result}
	}
	return result
}

// Disjunction is the ";" control construct; either branch may itself be
// a Conjunction when it has more than one goal.
type Disjunction struct {
	Left, Right Term
}

func (Disjunction) isTerm() {}

// Conjunction is a sequence of goals run left to right. A Clause's Body
// is already such a sequence at the top level; Conjunction exists so a
// Disjunction branch can hold more than one goal.
type Conjunction struct {
	Goals []Term
}

func (Conjunction) isTerm() {}

// Clause is one program clause ("head :- body.") or, when Head is nil, a
// query ("?- body."), per spec §6.
type Clause struct {
	Head *Struct // nil for queries and for zero-arity facts' head is Atom; see HeadAtom
	HeadAtom *int // set instead of Head when the clause head is a zero-arity atom
	Body     []Term
	// FreeVars lists the non-anonymous variable ids occurring anywhere
	// in the clause, in first-occurrence order. The compiler uses this
	// for query result reporting (spec §4.2.3, §4.3.9).
	FreeVars []int
}

// IsQuery reports whether this clause has no head (a query body).
func (c Clause) IsQuery() bool {
	return c.Head == nil && c.HeadAtom == nil
}

// IsFact reports whether this clause has no body goals.
func (c Clause) IsFact() bool {
	return len(c.Body) == 0 && !c.IsQuery()
}

// HeadFunctor returns the (name, arity) of the clause head for predicate
// registration. Panics if called on a query.
func (c Clause) HeadFunctor() (name, arity int) {
	switch {
	case c.Head != nil:
		return c.Head.Name, len(c.Head.Args)
	case c.HeadAtom != nil:
		return *c.HeadAtom, 0
	default:
		panic("ast: HeadFunctor called on a query clause")
	}
}

// Sentence wraps a Clause with the distinction spec §6 requires: a
// program clause vs. a query (query has a nil head).
type Sentence struct {
	Clause Clause
}

func (s Sentence) String() string {
	if s.Clause.IsQuery() {
		return "?- (query)"
	}
	name, arity := s.Clause.HeadFunctor()
	return fmt.Sprintf("clause for %d/%d", name, arity)
}

// --- builder helpers (used by the CLI demo and tests; not a parser) ---

// NewVar returns a named (non-anonymous) variable occurrence.
func NewVar(name int) Var { return Var{Name: name} }

// AnonVar returns an anonymous variable occurrence.
func AnonVar() Var { return Var{Anonymous: true} }

// NewAtom returns a zero-arity atom.
func NewAtom(name int) Atom { return Atom{Name: name} }

// NewStruct returns a compound term.
func NewStruct(name int, args ...Term) Struct {
	return Struct{Name: name, Args: args}
}

// Fact builds a headless-body clause (no Body).
func Fact(head Struct, freeVars ...int) Clause {
	return Clause{Head: &head, FreeVars: freeVars}
}

// FactAtom builds a fact whose head is a zero-arity atom.
func FactAtom(name int) Clause {
	return Clause{HeadAtom: &name}
}

// Rule builds a clause with a head and a body (conjunction of goals).
func Rule(head Struct, freeVars []int, body ...Term) Clause {
	return Clause{Head: &head, Body: body, FreeVars: freeVars}
}

// Query builds a headless clause representing "?- body.".
func Query(freeVars []int, body ...Term) Clause {
	return Clause{Body: body, FreeVars: freeVars}
}
