package main

import (
	"github.com/ait-kaci/wam/pkg/ast"
	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/linker"
	"github.com/ait-kaci/wam/pkg/symbol"
)

// scenario is one of spec.md §8's seven literal end-to-end walkthroughs
// (S1-S7), packaged so both `wamc demo` and `wamc disasm` can run it
// against a fresh interner/Resolver.
type scenario struct {
	Name        string
	Description string
	Clauses     []ast.Clause
	Query       ast.Clause
}

// names interns every identifier spec.md §8's scenarios need, including
// the seven control-construct names the compiler must recognise by id
// (spec §4.2.6) — the demo program is the one place in this repository
// that has to agree, by hand, on what "=" and "call" are interned to,
// since there is no real parser/loader doing it for us (spec §1 scope).
type names struct {
	interner *symbol.MapInterner
	builtins compiler.BuiltinIDs

	p, q, r, append_ int
	a, b             int
	x, y, l, h, t, rv int
}

func newNames() *names {
	in := symbol.NewMapInterner()
	intern := func(n string, arity int) int { return in.Intern(symbol.FunctorName{Name: n, Arity: arity}) }

	n := &names{interner: in}
	n.builtins = compiler.BuiltinIDs{
		Call:     intern("call", 1),
		Execute:  intern("execute", 1),
		Unify:    intern("=", 2),
		NotUnify: intern("\\=", 2),
		True:     intern("true", 0),
		Fail:     intern("fail", 0),
		Nl:       intern("nl", 0),
	}
	n.p = intern("p", 1)
	n.q = intern("q", 1)
	n.r = intern("r", 1)
	n.append_ = intern("append", 3)
	n.a = intern("a", 0)
	n.b = intern("b", 0)
	n.x = intern("X", 0)
	n.y = intern("Y", 0)
	n.l = intern("L", 0)
	n.h = intern("H", 0)
	n.t = intern("T", 0)
	n.rv = intern("R", 0)
	return n
}

// scenarios builds spec.md §8's seven scenarios against a single shared
// interner, so their printed variable/atom names line up across runs.
func scenarios(n *names) []scenario {
	one := n.interner.Intern(symbol.FunctorName{Name: "1", Arity: 0})
	two := n.interner.Intern(symbol.FunctorName{Name: "2", Arity: 0})
	three := n.interner.Intern(symbol.FunctorName{Name: "3", Arity: 0})
	nilAtom := n.interner.Intern(symbol.FunctorName{Name: "[]", Arity: 0})
	f := n.interner.Intern(symbol.FunctorName{Name: "f", Arity: 2})

	return []scenario{
		{
			Name:        "S1",
			Description: "atomic unification: p(a). ?- p(X).",
			Clauses:     []ast.Clause{ast.Fact(ast.NewStruct(n.p, ast.NewAtom(n.a)))},
			Query:       ast.Query([]int{n.x}, ast.NewStruct(n.p, ast.NewVar(n.x))),
		},
		{
			Name:        "S2",
			Description: "structural unification: p(f(a, Y)). ?- p(f(X, b)).",
			Clauses: []ast.Clause{
				ast.Fact(ast.NewStruct(n.p, ast.NewStruct(f, ast.NewAtom(n.a), ast.NewVar(n.y))), n.y),
			},
			Query: ast.Query([]int{n.x, n.y},
				ast.NewStruct(n.p, ast.NewStruct(f, ast.NewVar(n.x), ast.NewAtom(n.b)))),
		},
		{
			Name:        "S3",
			Description: "conjunction across calls: p(X):-q(X),r(X). q(1). q(2). r(2). ?- p(X).",
			Clauses: []ast.Clause{
				ast.Rule(ast.NewStruct(n.p, ast.NewVar(n.x)), []int{n.x},
					ast.NewStruct(n.q, ast.NewVar(n.x)), ast.NewStruct(n.r, ast.NewVar(n.x))),
				ast.Fact(ast.NewStruct(n.q, ast.NewAtom(one))),
				ast.Fact(ast.NewStruct(n.q, ast.NewAtom(two))),
				ast.Fact(ast.NewStruct(n.r, ast.NewAtom(two))),
			},
			Query: ast.Query([]int{n.x}, ast.NewStruct(n.p, ast.NewVar(n.x))),
		},
		{
			Name:        "S4",
			Description: "disjunction: p(X):-(X=a;X=b). ?- p(X).",
			Clauses: []ast.Clause{
				ast.Rule(ast.NewStruct(n.p, ast.NewVar(n.x)), []int{n.x},
					ast.Disjunction{
						Left:  ast.NewStruct(n.builtins.Unify, ast.NewVar(n.x), ast.NewAtom(n.a)),
						Right: ast.NewStruct(n.builtins.Unify, ast.NewVar(n.x), ast.NewAtom(n.b)),
					}),
			},
			Query: ast.Query([]int{n.x}, ast.NewStruct(n.p, ast.NewVar(n.x))),
		},
		{
			Name:        "S5",
			Description: "cut: p(X):-q(X),!. p(_):-fail. q(1). q(2). ?- p(X).",
			Clauses: []ast.Clause{
				ast.Rule(ast.NewStruct(n.p, ast.NewVar(n.x)), []int{n.x},
					ast.NewStruct(n.q, ast.NewVar(n.x)), ast.Cut{}),
				ast.Rule(ast.NewStruct(n.p, ast.AnonVar()), nil, ast.NewAtom(n.builtins.Fail)),
				ast.Fact(ast.NewStruct(n.q, ast.NewAtom(one))),
				ast.Fact(ast.NewStruct(n.q, ast.NewAtom(two))),
			},
			Query: ast.Query([]int{n.x}, ast.NewStruct(n.p, ast.NewVar(n.x))),
		},
		{
			Name:        "S6",
			Description: "meta-call: q(7). ?- call(q(X)).",
			Clauses:     []ast.Clause{ast.Fact(ast.NewStruct(n.q, ast.NewAtom(seven(n))))},
			Query: ast.Query([]int{n.x},
				ast.NewStruct(n.builtins.Call, ast.NewStruct(n.q, ast.NewVar(n.x)))),
		},
		{
			Name: "S7",
			Description: "list append: append([],L,L). append([H|T],L,[H|R]):-append(T,L,R). " +
				"?- append([1,2],[3],R).",
			Clauses: []ast.Clause{
				ast.Rule(ast.NewStruct(n.append_, ast.NewAtom(nilAtom), ast.NewVar(n.l), ast.NewVar(n.l)),
					[]int{n.l}),
				ast.Rule(
					ast.NewStruct(n.append_,
						ast.ListCell{Head: ast.NewVar(n.h), Tail: ast.NewVar(n.t)},
						ast.NewVar(n.l),
						ast.ListCell{Head: ast.NewVar(n.h), Tail: ast.NewVar(n.rv)}),
					[]int{n.h, n.t, n.l, n.rv},
					ast.NewStruct(n.append_, ast.NewVar(n.t), ast.NewVar(n.l), ast.NewVar(n.rv))),
			},
			Query: ast.Query([]int{n.rv}, ast.NewStruct(n.append_,
				ast.NewList(ast.NewAtom(nilAtom), ast.NewAtom(one), ast.NewAtom(two)),
				ast.NewList(ast.NewAtom(nilAtom), ast.NewAtom(three)),
				ast.NewVar(n.rv))),
		},
	}
}

func seven(n *names) int {
	return n.interner.Intern(symbol.FunctorName{Name: "7", Arity: 0})
}

// compileScenarioCode compiles a scenario's clauses and query through a
// fresh Compiler+Linker pair and returns the resulting code buffer, for
// `wamc disasm` to walk. builtins must come from the same names that
// built sc, since sc's control-construct calls were interned against it.
func compileScenarioCode(sc scenario, builtins compiler.BuiltinIDs) ([]byte, error) {
	l := linker.New()
	c := compiler.NewCompiler(builtins)
	c.OnPredicate = l.EmitPredicate
	for _, cl := range sc.Clauses {
		if err := c.AddClause(cl); err != nil {
			return nil, err
		}
	}
	c.EndScope()
	if errs := l.CheckUndefined(); len(errs) != 0 {
		return nil, errs[0]
	}
	q, err := c.CompileAndEmitQuery(sc.Query)
	if err != nil {
		return nil, err
	}
	if err := l.EmitQuery(q); err != nil {
		return nil, err
	}
	return l.Code, nil
}
