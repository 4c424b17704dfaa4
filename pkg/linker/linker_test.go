package linker

import (
	"testing"

	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/inst"
)

func predCallingAhead(callerName, calleeName, calleeArity int) *compiler.CompiledPredicate {
	return &compiler.CompiledPredicate{
		Name: callerName, Arity: 1,
		Instrs: []inst.Instruction{
			{Op: inst.Call, Imm: 0},
			{Op: inst.Proceed},
		},
		Calls: []compiler.CallRef{{InstrIndex: 0, Name: calleeName, Arity: calleeArity}},
	}
}

func leafPred(name, arity int) *compiler.CompiledPredicate {
	return &compiler.CompiledPredicate{
		Name: name, Arity: arity,
		Instrs: []inst.Instruction{{Op: inst.Proceed}},
	}
}

// TestForwardReferenceResolves exercises the eager-within-a-scope
// design: p calls q, but q is emitted AFTER p (textual forward
// reference across predicates in the same scope). The patch must still
// land once q is emitted.
func TestForwardReferenceResolves(t *testing.T) {
	l := New()
	p := predCallingAhead(1, 2, 0) // predicate 1/1 calls 2/0
	l.EmitPredicate(p)

	if errs := l.CheckUndefined(); len(errs) != 1 {
		t.Fatalf("expected one pending call before q is defined, got %v", errs)
	}

	q := leafPred(2, 0)
	l.EmitPredicate(q)

	if errs := l.CheckUndefined(); len(errs) != 0 {
		t.Fatalf("expected no pending calls once q is defined, got %v", errs)
	}

	qEntry, ok := l.EntryOf(2, 0)
	if !ok {
		t.Fatal("q should be defined")
	}
	got, _, err := inst.Disassemble(l.Code, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != int32(qEntry) {
		t.Fatalf("call's Label = %d, want patched entry %d", got.Label, qEntry)
	}
}

// TestEmitQueryUndefinedCallee verifies a query referencing an
// undefined predicate fails immediately, not deferred.
func TestEmitQueryUndefinedCallee(t *testing.T) {
	l := New()
	q := &compiler.CompiledQuery{
		Instrs: []inst.Instruction{{Op: inst.AllocateN}, {Op: inst.Call}, {Op: inst.Deallocate}},
		Calls:  []compiler.CallRef{{InstrIndex: 1, Name: 42, Arity: 0}},
	}
	err := l.EmitQuery(q)
	if err == nil {
		t.Fatal("expected an UndefinedCallError")
	}
	if _, ok := err.(*UndefinedCallError); !ok {
		t.Fatalf("got %T, want *UndefinedCallError", err)
	}
}

// TestCheckpointRoundtrip verifies Snapshot/Restore preserve the code
// buffer and call table.
func TestCheckpointRoundtrip(t *testing.T) {
	l := New()
	l.EmitPredicate(leafPred(5, 0))
	ck := l.Snapshot()

	l2 := New()
	l2.Restore(ck)
	if !l2.Defined(5, 0) {
		t.Fatal("restored linker should know predicate 5/0")
	}
	if len(l2.Code) != len(l.Code) {
		t.Fatalf("restored code length = %d, want %d", len(l2.Code), len(l.Code))
	}
}
