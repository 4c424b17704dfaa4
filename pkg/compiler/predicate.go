package compiler

import "github.com/ait-kaci/wam/pkg/inst"

// CompiledPredicate is an ordered list of clauses sharing one (name,
// arity), spliced into a single instruction stream with a choice-point
// prelude threaded between them (spec §3.6, §4.2.5). Label ids here are
// predicate-local, freshly renumbered from each clause's own local
// namespace plus the prelude's own try_me_else/retry_me_else/trust_me
// labels; the Linker resolves them to byte offsets once it knows where
// this predicate lands in the code buffer (spec §4.4).
type CompiledPredicate struct {
	Name, Arity int
	Instrs      []inst.Instruction
	Patches     []Patch
	Defs        []LabelDef
	Calls       []CallRef
}

// BuildPredicate combines a predicate's clauses, in program order, into
// one CompiledPredicate. A single-clause predicate gets no choice-point
// prelude (spec §4.2.5: "a single-clause predicate has no choice-point
// prelude").
func BuildPredicate(name, arity int, clauses []*CompiledClause) *CompiledPredicate {
	var out []inst.Instruction
	var patches []Patch
	var defs []LabelDef
	var calls []CallRef

	var nextLabel LabelID
	k := len(clauses)

	var clauseStart []LabelID
	if k > 1 {
		clauseStart = make([]LabelID, k)
		for i := range clauseStart {
			nextLabel++
			clauseStart[i] = nextLabel
		}
	}

	for ci, cc := range clauses {
		remap := map[LabelID]LabelID{}
		remapLabel := func(l LabelID) LabelID {
			if nl, ok := remap[l]; ok {
				return nl
			}
			nextLabel++
			remap[l] = nextLabel
			return nextLabel
		}

		bodyBase := len(out)
		if k > 1 {
			preludeIdx := len(out)
			defs = append(defs, LabelDef{Label: clauseStart[ci], InstrIndex: preludeIdx})
			switch {
			case ci == 0:
				out = append(out, inst.Instruction{Op: inst.TryMeElse})
				patches = append(patches, Patch{InstrIndex: preludeIdx, Label: clauseStart[ci+1]})
			case ci < k-1:
				out = append(out, inst.Instruction{Op: inst.RetryMeElse})
				patches = append(patches, Patch{InstrIndex: preludeIdx, Label: clauseStart[ci+1]})
			default:
				out = append(out, inst.Instruction{Op: inst.TrustMe})
			}
			bodyBase = len(out)
		}

		for _, p := range cc.Patches {
			patches = append(patches, Patch{InstrIndex: bodyBase + p.InstrIndex, Label: remapLabel(p.Label)})
		}
		for _, d := range cc.Defs {
			defs = append(defs, LabelDef{Label: remapLabel(d.Label), InstrIndex: bodyBase + d.InstrIndex})
		}
		for _, cr := range cc.Calls {
			calls = append(calls, CallRef{InstrIndex: bodyBase + cr.InstrIndex, Name: cr.Name, Arity: cr.Arity})
		}
		out = append(out, cc.Instrs...)
	}

	return &CompiledPredicate{Name: name, Arity: arity, Instrs: out, Patches: patches, Defs: defs, Calls: calls}
}
