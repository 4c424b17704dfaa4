// Package linker is the Linker & Call Table component (spec §4.4): it
// maps (name, arity) to entry addresses in a code buffer, resolves
// forward label references produced by the Compiler, and orchestrates
// code emission into the Machine Runtime. Grounded on the teacher's
// pkg/result (Table's sync.Mutex-guarded slice of discovered rules
// becomes a mutex-guarded call-point map; checkpoint.go's gob save/load
// becomes this package's own Checkpoint).
package linker

import (
	"fmt"
	"sync"

	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/inst"
)

// FuncKey identifies a predicate by its interned (name, arity).
type FuncKey struct {
	Name, Arity int
}

func (k FuncKey) String() string { return fmt.Sprintf("%d/%d", k.Name, k.Arity) }

// UndefinedCallError reports a call emitted against a predicate that
// was never defined (spec §7 Linkage failure). This implementation
// resolves eagerly: a predicate scope's calls may forward-reference any
// predicate flushed in the same Compiler.EndScope batch (all arrive
// before CheckUndefined is consulted), but a query's calls must resolve
// against what is already defined at the moment the query is emitted —
// see DESIGN.md for the rationale.
type UndefinedCallError struct {
	Callee FuncKey
}

func (e *UndefinedCallError) Error() string {
	return fmt.Sprintf("linker: predicate %s is never defined", e.Callee)
}

type codePatch struct {
	byteOffset int
}

// Linker owns the code buffer and the call table. It is not safe for
// concurrent emission (the Machine Runtime that executes Code is itself
// single-threaded, spec §5), but Defined/EntryOf are exposed under a
// mutex so a concurrent property-test harness can poll link state
// between emissions.
type Linker struct {
	mu sync.Mutex

	Code []byte

	points  map[FuncKey]int // name/arity -> entry byte offset
	pending map[FuncKey][]codePatch

	queryEntry int
	hasQuery   bool
}

// New returns an empty Linker with no predicates defined.
func New() *Linker {
	return &Linker{
		points:  map[FuncKey]int{},
		pending: map[FuncKey][]codePatch{},
	}
}

// Defined reports whether (name, arity) currently has a call point.
func (l *Linker) Defined(name, arity int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.points[FuncKey{name, arity}]
	return ok
}

// EntryOf returns the entry byte offset of (name, arity), if defined.
func (l *Linker) EntryOf(name, arity int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.points[FuncKey{name, arity}]
	return e, ok
}

// QueryEntry returns the entry offset of the most recently emitted
// query, if any has been emitted.
func (l *Linker) QueryEntry() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queryEntry, l.hasQuery
}

// EmitPredicate appends a compiled predicate to the code buffer,
// resolves its own intra-predicate labels (choice-point and disjunction
// jumps — always fully contained in this one append), registers its
// call point, and patches any calls that were waiting on this predicate
// as a forward reference.
func (l *Linker) EmitPredicate(p *compiler.CompiledPredicate) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := len(l.Code)
	offsets := l.appendInstrs(p.Instrs, p.Patches, p.Defs)

	key := FuncKey{p.Name, p.Arity}
	l.points[key] = entry

	for _, cr := range p.Calls {
		l.resolveOrDefer(FuncKey{cr.Name, cr.Arity}, offsets[cr.InstrIndex])
	}

	if waiters, ok := l.pending[key]; ok {
		for _, cp := range waiters {
			l.patchCallAddr(cp.byteOffset, int32(entry))
		}
		delete(l.pending, key)
	}
}

// EmitQuery appends a compiled query to the code buffer and makes it
// the active query, replacing any previous one (spec §4.4: "the query
// slot replaces any previous one"). Unlike predicate calls, a query's
// outgoing calls must already be defined — a query is meant to run now,
// not wait on a future definition — so an undefined callee here is
// reported immediately rather than deferred.
func (l *Linker) EmitQuery(q *compiler.CompiledQuery) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := len(l.Code)
	offsets := l.appendInstrs(q.Instrs, q.Patches, q.Defs)

	for _, cr := range q.Calls {
		key := FuncKey{cr.Name, cr.Arity}
		addr, ok := l.points[key]
		if !ok {
			return &UndefinedCallError{Callee: key}
		}
		l.patchCallAddr(offsets[cr.InstrIndex], int32(addr))
	}

	l.queryEntry = entry
	l.hasQuery = true
	return nil
}

// CheckUndefined reports every predicate still referenced by a pending,
// unresolved call — the eager linkage check a caller runs once a batch
// of mutually-dependent predicates (one Compiler.EndScope) has been
// fully emitted.
func (l *Linker) CheckUndefined() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for key, patches := range l.pending {
		if len(patches) == 0 {
			continue
		}
		errs = append(errs, &UndefinedCallError{Callee: key})
	}
	return errs
}

// appendInstrs assembles instrs onto the end of l.Code, resolving every
// label Def/Patch pair local to this one append, and returns each
// instruction's absolute byte offset for the caller to use when
// resolving its own CallRefs.
func (l *Linker) appendInstrs(instrs []inst.Instruction, patches []compiler.Patch, defs []compiler.LabelDef) []int {
	offsets := make([]int, len(instrs))
	for i, in := range instrs {
		offsets[i] = len(l.Code)
		n := inst.Length(in.Op)
		buf := make([]byte, n)
		inst.Assemble(buf, 0, in)
		l.Code = append(l.Code, buf...)
	}

	labelAddr := map[compiler.LabelID]int32{}
	for _, d := range defs {
		labelAddr[d.Label] = int32(offsets[d.InstrIndex])
	}
	for _, p := range patches {
		addr, ok := labelAddr[p.Label]
		if !ok {
			continue // the compiler never emits a patch without a matching def
		}
		patched := instrs[p.InstrIndex]
		patched.Label = addr
		l.rewrite(offsets[p.InstrIndex], patched)
	}
	return offsets
}

func (l *Linker) resolveOrDefer(key FuncKey, byteOffset int) {
	if entry, ok := l.points[key]; ok {
		l.patchCallAddr(byteOffset, int32(entry))
		return
	}
	l.pending[key] = append(l.pending[key], codePatch{byteOffset: byteOffset})
}

// patchCallAddr recovers the full structured instruction already
// written at byteOffset (its other operands are unaffected), sets its
// Label to addr, and re-encodes it in place.
func (l *Linker) patchCallAddr(byteOffset int, addr int32) {
	in, _, err := inst.Disassemble(l.Code, byteOffset)
	if err != nil {
		panic(fmt.Sprintf("linker: corrupt instruction at offset %d: %v", byteOffset, err))
	}
	in.Label = addr
	l.rewrite(byteOffset, in)
}

func (l *Linker) rewrite(byteOffset int, in inst.Instruction) {
	n := inst.Length(in.Op)
	buf := make([]byte, n)
	inst.Assemble(buf, 0, in)
	copy(l.Code[byteOffset:byteOffset+n], buf)
}
