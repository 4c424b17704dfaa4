// Package compiler lowers clause/query ASTs into instruction listings
// (spec §4.2): flattening, register allocation, permanent-variable
// analysis, choice-point framing, and built-in expansion. It never
// touches the code buffer or the call table — those are the Linker's
// job (spec §4.4); this package only emits structured data (
// CompiledPredicate, CompiledQuery) to the two observer callbacks a
// caller installs, mirroring the teacher's pass-then-callback shape for
// its optimiser stages.
package compiler

import (
	"fmt"

	"github.com/ait-kaci/wam/pkg/ast"
)

type funcKey struct {
	Name, Arity int
}

// Compiler accumulates clauses of the same (name, arity) within a
// scope and flushes each predicate, as a single CompiledPredicate, to
// OnPredicate once the scope ends (spec §4.2.7). Queries compile and
// fire OnQuery immediately, independent of scope.
type Compiler struct {
	Builtins BuiltinIDs

	// OnPredicate fires once per completed predicate at EndScope.
	OnPredicate func(*CompiledPredicate)
	// OnQuery fires immediately for every compiled query.
	OnQuery func(*CompiledQuery)

	order   []funcKey
	pending map[funcKey][]*CompiledClause
}

// NewCompiler returns a Compiler ready to accept clauses. builtins
// names the already-interned ids of the control constructs spec
// §4.2.6 handles by replacement rather than by call.
func NewCompiler(builtins BuiltinIDs) *Compiler {
	return &Compiler{
		Builtins: builtins,
		pending:  map[funcKey][]*CompiledClause{},
	}
}

// AddClause compiles one program clause and groups it under its head's
// (name, arity) until EndScope flushes the predicate.
func (c *Compiler) AddClause(cl ast.Clause) error {
	if cl.IsQuery() {
		return fmt.Errorf("compiler: AddClause given a query; use CompileQuery")
	}
	cc, err := CompileClause(cl, c.Builtins)
	if err != nil {
		return err
	}
	name, arity := cl.HeadFunctor()
	key := funcKey{Name: name, Arity: arity}
	if _, ok := c.pending[key]; !ok {
		c.order = append(c.order, key)
	}
	c.pending[key] = append(c.pending[key], cc)
	return nil
}

// EndScope flushes every predicate accumulated since the last EndScope
// (or since construction), calling OnPredicate once per predicate in
// first-added order, then clears accumulated state.
func (c *Compiler) EndScope() {
	for _, key := range c.order {
		clauses := c.pending[key]
		pred := BuildPredicate(key.Name, key.Arity, clauses)
		if c.OnPredicate != nil {
			c.OnPredicate(pred)
		}
	}
	c.order = nil
	c.pending = map[funcKey][]*CompiledClause{}
}

// CompileAndEmitQuery compiles a query clause and immediately fires
// OnQuery — queries are not grouped into scopes (spec §4.2.7: "fires
// immediately for each query clause").
func (c *Compiler) CompileAndEmitQuery(cl ast.Clause) (*CompiledQuery, error) {
	if !cl.IsQuery() {
		return nil, fmt.Errorf("compiler: CompileAndEmitQuery given a non-query clause")
	}
	q := CompileQuery(cl, c.Builtins)
	if c.OnQuery != nil {
		c.OnQuery(q)
	}
	return q, nil
}
