package inst

import "github.com/ait-kaci/wam/pkg/cell"

// Instruction is the decoded, structured form of one opcode plus its
// operands (spec §4.1). Not every field is meaningful for every OpCode —
// Catalog[Op].Shape says which ones are. Grounded on the teacher's
// inst.Instruction (Op + Imm, "6 bytes, trivially copyable"); this domain
// needs more operand shapes so the struct is wider, but the spirit —
// one flat, copyable value per instruction, no variant boxing — is kept.
type Instruction struct {
	Op OpCode

	Mode AddrMode // addressing mode for Reg1/Reg2, when the shape uses one
	Reg1 int      // Xi / Xn / Yn — the primary register-or-slot operand
	Reg2 int      // Ai / second register-or-slot operand

	Functor cell.FunctorHeader // f/n for put_struc/get_struc, or (constID,0) for put_const/get_const

	Label  int32 // absolute byte offset of a jump target; 0 until resolved
	Label2 int32 // switch_on_term: Lc
	Label3 int32 // switch_on_term: Ll
	Label4 int32 // switch_on_term: Ls

	Imm  uint16 // set_void/unify_void's k, allocate_n's N, call's nperms, call_internal's builtin id
	Imm2 uint16 // call_internal's nperms
}

// OperandShape is a bitset of which operand fields a given OpCode uses.
// The codec consults this, never a type switch on semantics, to decide
// which bytes to read or write — keeping assemble/disassemble a pure
// function of Catalog plus the struct above.
type OperandShape uint16

const (
	HasMode OperandShape = 1 << iota
	HasReg1
	HasReg2
	HasFunctor
	HasLabel
	HasLabel3 // switch_on_term's extra Lc/Ll/Ls triple
	HasImm
	HasImm2
)

// Info holds static metadata for one opcode: mnemonic, operand shape,
// and fixed encoded byte length (spec §4.1: "each opcode has a fixed
// byte length known at compile time"). Grounded on the teacher's
// inst.Info (Mnemonic/Bytes/TStates); TStates has no analogue here and
// is dropped in favour of Shape/Length, the fields this domain needs.
type Info struct {
	Mnemonic string
	Shape    OperandShape
	Length   int // total encoded length in bytes, including the 1-byte opcode
}

// Catalog maps every OpCode to its Info. Populated by init() below.
var Catalog [OpCodeCount]Info

func reg(mnemonic string, shape OperandShape) Info {
	length := 1 // opcode byte
	if shape&HasMode != 0 {
		length++
	}
	if shape&HasReg1 != 0 {
		length++
	}
	if shape&HasReg2 != 0 {
		length++
	}
	if shape&HasFunctor != 0 {
		length += 4
	}
	if shape&HasLabel != 0 {
		length += 4
	}
	if shape&HasLabel3 != 0 {
		length += 12 // three more 4-byte labels
	}
	if shape&HasImm != 0 {
		length += 2
	}
	if shape&HasImm2 != 0 {
		length += 2
	}
	return Info{Mnemonic: mnemonic, Shape: shape, Length: length}
}

func init() {
	Catalog[PutStruc] = reg("put_struc", HasMode|HasReg1|HasFunctor)
	Catalog[SetVar] = reg("set_var", HasMode|HasReg1)
	Catalog[SetVal] = reg("set_val", HasMode|HasReg1)
	Catalog[SetLocalVal] = reg("set_local_val", HasMode|HasReg1)
	Catalog[SetVoid] = reg("set_void", HasImm)
	Catalog[PutVar] = reg("put_var", HasMode|HasReg1|HasReg2)
	Catalog[PutVal] = reg("put_val", HasMode|HasReg1|HasReg2)
	Catalog[PutUnsafeVal] = reg("put_unsafe_val", HasReg1|HasReg2)
	Catalog[PutConst] = reg("put_const", HasMode|HasReg1|HasFunctor)
	Catalog[PutList] = reg("put_list", HasMode|HasReg1)

	Catalog[GetStruc] = reg("get_struc", HasMode|HasReg1|HasFunctor)
	Catalog[UnifyVar] = reg("unify_var", HasMode|HasReg1)
	Catalog[UnifyVal] = reg("unify_val", HasMode|HasReg1)
	Catalog[UnifyLocalVal] = reg("unify_local_val", HasMode|HasReg1)
	Catalog[UnifyVoid] = reg("unify_void", HasImm)
	Catalog[GetVar] = reg("get_var", HasMode|HasReg1|HasReg2)
	Catalog[GetVal] = reg("get_val", HasMode|HasReg1|HasReg2)
	Catalog[GetConst] = reg("get_const", HasMode|HasReg1|HasFunctor)
	Catalog[GetList] = reg("get_list", HasMode|HasReg1)

	// call/execute carry both the target functor (for readability and for
	// call_internal's meta-call lookup) and a resolved absolute address,
	// written as zero and patched by the Linker once the callee's entry
	// point is known (spec §4.1, §4.4).
	Catalog[Call] = reg("call", HasFunctor|HasLabel|HasImm)
	Catalog[Execute] = reg("execute", HasFunctor|HasLabel)
	Catalog[Proceed] = reg("proceed", 0)
	Catalog[Allocate] = reg("allocate", 0)
	Catalog[AllocateN] = reg("allocate_n", HasImm)
	Catalog[Deallocate] = reg("deallocate", 0)
	Catalog[Suspend] = reg("suspend", 0)

	Catalog[TryMeElse] = reg("try_me_else", HasLabel)
	Catalog[RetryMeElse] = reg("retry_me_else", HasLabel)
	Catalog[TrustMe] = reg("trust_me", 0)
	Catalog[Try] = reg("try", HasLabel)
	Catalog[Retry] = reg("retry", HasLabel)
	Catalog[Trust] = reg("trust", HasLabel)
	Catalog[SwitchOnTerm] = reg("switch_on_term", HasLabel|HasLabel3)
	Catalog[SwitchOnConst] = reg("switch_on_const", HasLabel|HasImm)
	Catalog[SwitchOnStruc] = reg("switch_on_struc", HasLabel|HasImm)

	Catalog[NeckCut] = reg("neck_cut", 0)
	Catalog[GetLevel] = reg("get_level", HasReg1)
	Catalog[Cut] = reg("cut", HasReg1)

	Catalog[CallInternal] = reg("call_internal", HasImm|HasImm2)
	Catalog[Continue] = reg("continue", HasLabel)
	Catalog[NoOp] = reg("no_op", 0)
}

// Length returns the fixed encoded byte length of op.
func Length(op OpCode) int { return Catalog[op].Length }

// TakesLabel reports whether op carries a jump-target operand whose
// absolute address a linker must patch.
func TakesLabel(op OpCode) bool { return Catalog[op].Shape&HasLabel != 0 }

// TakesFunctor reports whether op carries a functor-header operand.
func TakesFunctor(op OpCode) bool { return Catalog[op].Shape&HasFunctor != 0 }
