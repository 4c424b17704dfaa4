package propcheck

import (
	"bytes"
	"fmt"
	"math/rand/v2"

	"github.com/ait-kaci/wam/pkg/ast"
	"github.com/ait-kaci/wam/pkg/cell"
	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/inst"
	"github.com/ait-kaci/wam/pkg/linker"
	"github.com/ait-kaci/wam/pkg/machine"
	"github.com/davecgh/go-spew/spew"
)

// Finding is one property violation a checker surfaced: enough to
// reproduce it (the offending clause set/query) plus a human-readable
// detail, grounded on the teacher's result.Rule (enough state to
// reconstruct and re-verify a discovered optimization).
type Finding struct {
	Invariant string
	Clauses   []ast.Clause
	Query     ast.Clause
	Detail    string
}

func (f *Finding) String() string {
	return fmt.Sprintf("[%s] %s", f.Invariant, f.Detail)
}

// newResolverOver builds a fresh Resolver and loads clauses into it,
// reporting a linkage error rather than panicking so a caller can
// discard an unrunnable generated program instead of mistaking a
// LinkageError for a real counterexample.
func newResolverOver(clauses []ast.Clause) (*machine.Resolver, error) {
	r := machine.NewResolver(compiler.BuiltinIDs{}, machine.Options{})
	for _, c := range clauses {
		if err := r.AddToDomain(c); err != nil {
			return nil, err
		}
	}
	if errs := r.EndScope(); len(errs) != 0 {
		return nil, errs[0]
	}
	return r, nil
}

// solutionTrace runs query to exhaustion against r and returns a
// spew.Sdump'd trace of every solution in order, the same way the
// teacher's hejops-gone debugger spew.Sdump's a snapshot of state for
// inspection — here used as a cheap, deterministic fingerprint of an
// entire solution sequence rather than one struct.
func solutionTrace(r *machine.Resolver, query ast.Clause) (string, error) {
	if err := r.SetQuery(query); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for {
		sol, err := r.Resolve()
		if err == machine.ErrNoSolution {
			break
		}
		if err != nil {
			return "", err
		}
		spew.Fdump(&buf, sol)
	}
	return buf.String(), nil
}

// CheckReplayDeterminism runs the same clause set and query through two
// independently constructed Resolvers and requires an identical
// solution trace (spec §8 [EXPANSION]: re-running resolve() over an
// unchanged domain is deterministic), grounded on the teacher's
// search.QuickCheck running two sequences against the same TestVectors
// and comparing final states.
func CheckReplayDeterminism(clauses []ast.Clause, query ast.Clause) (*Finding, error) {
	r1, err := newResolverOver(clauses)
	if err != nil {
		return nil, err
	}
	r2, err := newResolverOver(clauses)
	if err != nil {
		return nil, err
	}

	t1, err := solutionTrace(r1, query)
	if err != nil {
		return nil, err
	}
	t2, err := solutionTrace(r2, query)
	if err != nil {
		return nil, err
	}

	if t1 != t2 {
		return &Finding{
			Invariant: "replay-determinism",
			Clauses:   clauses,
			Query:     query,
			Detail:    fmt.Sprintf("first run:\n%s\nsecond run:\n%s", t1, t2),
		}, nil
	}
	return nil, nil
}

// CheckCompileByteIdentical requires that compiling the same clause set
// through two independent Compiler+Linker pairs produces byte-identical
// code (spec §8: "compiling the same clause twice from fresh machines
// is byte-identical").
func CheckCompileByteIdentical(clauses []ast.Clause) (*Finding, error) {
	code1, err := compileToBytes(clauses)
	if err != nil {
		return nil, err
	}
	code2, err := compileToBytes(clauses)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(code1, code2) {
		return &Finding{
			Invariant: "compile-byte-identical",
			Clauses:   clauses,
			Detail:    fmt.Sprintf("first:\n%s\nsecond:\n%s", spew.Sdump(code1), spew.Sdump(code2)),
		}, nil
	}
	return nil, nil
}

func compileToBytes(clauses []ast.Clause) ([]byte, error) {
	l := linker.New()
	c := compiler.NewCompiler(compiler.BuiltinIDs{})
	c.OnPredicate = l.EmitPredicate
	for _, cl := range clauses {
		if err := c.AddClause(cl); err != nil {
			return nil, err
		}
	}
	c.EndScope()
	out := make([]byte, len(l.Code))
	copy(out, l.Code)
	return out, nil
}

// CheckInstructionRoundtrip draws one random instruction from rng and
// requires Disassemble(Assemble(ins)) == ins (spec §8: "disassemble ∘
// assemble = identity"), the same property pkg/inst/codec_test.go
// checks over a fixed table, generated here instead of enumerated.
func CheckInstructionRoundtrip(rng *rand.Rand) (*Finding, error) {
	ins := randomInstruction(rng)
	buf := make([]byte, inst.Length(ins.Op))
	inst.Assemble(buf, 0, ins)
	got, _, err := inst.Disassemble(buf, 0)
	if err != nil {
		return nil, err
	}
	if got != ins {
		return &Finding{
			Invariant: "disassemble-roundtrip",
			Detail:    fmt.Sprintf("assembled %s, got back %s", spew.Sdump(ins), spew.Sdump(got)),
		}, nil
	}
	return nil, nil
}

func randomInstruction(rng *rand.Rand) inst.Instruction {
	ops := inst.AllOps()
	op := ops[rng.IntN(len(ops))]
	shape := inst.Catalog[op].Shape

	in := inst.Instruction{Op: op}
	if shape&inst.HasMode != 0 {
		in.Mode = inst.AddrMode(rng.IntN(2))
	}
	if shape&inst.HasReg1 != 0 {
		in.Reg1 = rng.IntN(256)
	}
	if shape&inst.HasReg2 != 0 {
		in.Reg2 = rng.IntN(256)
	}
	if shape&inst.HasFunctor != 0 {
		in.Functor = cell.PackFunctorHeader(rng.IntN(1<<20), rng.IntN(256))
	}
	if shape&inst.HasLabel != 0 {
		in.Label = int32(rng.IntN(1 << 20))
	}
	if shape&inst.HasLabel3 != 0 {
		in.Label2 = int32(rng.IntN(1 << 20))
		in.Label3 = int32(rng.IntN(1 << 20))
		in.Label4 = int32(rng.IntN(1 << 20))
	}
	if shape&inst.HasImm != 0 {
		in.Imm = uint16(rng.IntN(1 << 16))
	}
	if shape&inst.HasImm2 != 0 {
		in.Imm2 = uint16(rng.IntN(1 << 16))
	}
	return in
}
