// Package inst is the Instruction Set & Codec: the closed opcode union,
// its operand shapes, fixed byte layout, and assemble/disassemble
// (spec §4.1). Grounded directly on the teacher's pkg/inst: OpCode is a
// const-range enum with a parallel Catalog array, the same shape as the
// teacher's Z80 OpCode/Catalog pair, with Info.TStates dropped (no WAM
// analogue) in favour of Info.Shape/Info.Length.
package inst

// OpCode identifies one Machine instruction. The const block mirrors the
// grouping in spec §4.1: heap builders, heap matchers, control, choice/
// dispatch, cut, internal meta-call.
type OpCode uint8

const (
	// Heap builders (query side).
	PutStruc OpCode = iota
	SetVar
	SetVal
	SetLocalVal
	SetVoid
	PutVar
	PutVal
	PutUnsafeVal
	PutConst
	PutList

	// Heap matchers (program side).
	GetStruc
	UnifyVar
	UnifyVal
	UnifyLocalVal
	UnifyVoid
	GetVar
	GetVal
	GetConst
	GetList

	// Control.
	Call
	Execute
	Proceed
	Allocate
	AllocateN
	Deallocate
	Suspend

	// Choice / clause dispatch.
	TryMeElse
	RetryMeElse
	TrustMe
	Try
	Retry
	Trust
	SwitchOnTerm
	SwitchOnConst
	SwitchOnStruc

	// Cut.
	NeckCut
	GetLevel
	Cut

	// Internal meta-call.
	CallInternal
	Continue
	NoOp

	opCodeCount
)

// OpCodeCount is the number of defined opcodes.
const OpCodeCount = int(opCodeCount)

// AddrMode selects whether a register-or-slot operand addresses the
// register file (REG, relative to register base 0) or the current
// environment (STACK, resolved at execute time as ep+3+offset), per
// spec §4.1.
type AddrMode uint8

const (
	ModeReg AddrMode = iota
	ModeStack
)

func (m AddrMode) String() string {
	if m == ModeStack {
		return "Y"
	}
	return "X"
}

// AllOps returns every defined OpCode, grounded on the teacher's
// inst.AllOps (enumerate the const range).
func AllOps() []OpCode {
	ops := make([]OpCode, 0, OpCodeCount)
	for i := OpCode(0); i < opCodeCount; i++ {
		ops = append(ops, i)
	}
	return ops
}
