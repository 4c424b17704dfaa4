package machine

import (
	"fmt"

	"github.com/ait-kaci/wam/pkg/ast"
	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/linker"
	"github.com/ait-kaci/wam/pkg/result"
)

// Resolver is the whole pipeline's external interface (spec §6):
// addToDomain/setQuery/resolve/reset, wrapping a Compiler, a Linker,
// and a Machine so a caller never has to wire the three components by
// hand.
type Resolver struct {
	Machine *Machine

	comp *compiler.Compiler
	link *linker.Linker

	query *compiler.CompiledQuery
}

// NewResolver builds a Resolver with its own fresh Compiler, Linker,
// and Machine, wiring OnPredicate straight through to the Linker and
// resolving call_internal's meta-call lookups against the same Linker
// (spec §4.4, §4.3.8).
func NewResolver(builtins compiler.BuiltinIDs, opts Options) *Resolver {
	l := linker.New()
	c := compiler.NewCompiler(builtins)
	c.OnPredicate = l.EmitPredicate

	opts.ResolveCall = func(name, arity int) (int, bool) { return l.EntryOf(name, arity) }
	m := New(&l.Code, opts)

	return &Resolver{Machine: m, comp: c, link: l}
}

// AddToDomain compiles and queues one program clause (spec §6:
// addToDomain). Clauses accumulate under their head's (name, arity)
// until EndScope flushes them to the Linker as complete predicates.
func (r *Resolver) AddToDomain(c ast.Clause) error {
	return r.comp.AddClause(c)
}

// EndScope flushes every clause queued since the last EndScope into the
// Linker as compiled predicates, then reports any callee that is still
// undefined (spec §4.4's eager, batch-scoped linkage check).
func (r *Resolver) EndScope() []error {
	r.comp.EndScope()
	return r.link.CheckUndefined()
}

// SetQuery compiles a query clause, emits it against the Linker (which
// must resolve every outgoing call immediately — spec §4.4), and
// positions the Machine to begin resolving it from a clean runtime
// state (spec §6: setQuery).
func (r *Resolver) SetQuery(c ast.Clause) error {
	if !c.IsQuery() {
		return fmt.Errorf("machine: SetQuery given a non-query clause")
	}
	q := compiler.CompileQuery(c, r.comp.Builtins)
	if err := r.link.EmitQuery(q); err != nil {
		return err
	}
	entry, _ := r.link.QueryEntry()
	r.Machine.Reset()
	r.Machine.ip = entry
	r.query = q
	return nil
}

// Resolve runs the Machine until the active query suspends with a
// solution, exhausts its search space, or faults (spec §6: resolve()).
// Calling Resolve again after a success resumes the search for the next
// solution by forcing a backtrack from where the previous call left
// off, rather than re-running the query from its start.
func (r *Resolver) Resolve() (result.Solution, error) {
	if r.query == nil {
		return nil, fmt.Errorf("machine: no query set")
	}

	if r.Machine.suspended {
		r.Machine.suspended = false
		if !r.Machine.backtrack() {
			return nil, ErrNoSolution
		}
	}

	suspended, err := r.Machine.Run()
	if err != nil {
		return nil, err
	}
	if !suspended {
		return nil, ErrNoSolution
	}
	return r.decodeSolution(), nil
}

// Reset clears the Machine's runtime state and forgets the active
// query, without discarding any compiled predicate (spec §6: reset()
// clears machine state; predicates, once linked, persist per spec
// §3.7).
func (r *Resolver) Reset() {
	r.Machine.Reset()
	r.query = nil
}

// decodeSolution reads every free variable's current binding out of the
// query's (still-live, per the suspend/deallocate ordering noted in
// dispatch.go) environment frame.
func (r *Resolver) decodeSolution() result.Solution {
	dec := result.NewDecoder()
	sol := make(result.Solution, len(r.query.SlotVar))
	for slot, varID := range r.query.SlotVar {
		addr := r.Machine.ep + envHeaderSize + slot
		sol[varID] = dec.Decode(r.Machine.data, addr)
	}
	return sol
}
