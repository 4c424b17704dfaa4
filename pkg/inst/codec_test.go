package inst

import (
	"testing"

	"github.com/ait-kaci/wam/pkg/cell"
)

// TestCodecRoundtrip verifies disassemble(assemble(i)) == i for a
// representative instruction of every operand shape (spec §8 property 6).
func TestCodecRoundtrip(t *testing.T) {
	cases := []Instruction{
		{Op: PutStruc, Mode: ModeReg, Reg1: 3, Functor: cell.PackFunctorHeader(7, 2)},
		{Op: SetVar, Mode: ModeStack, Reg1: 1},
		{Op: SetVoid, Imm: 2},
		{Op: PutVar, Mode: ModeReg, Reg1: 2, Reg2: 0},
		{Op: PutUnsafeVal, Reg1: 1, Reg2: 0},
		{Op: PutConst, Mode: ModeReg, Reg1: 0, Functor: cell.PackFunctorHeader(42, 0)},
		{Op: Call, Functor: cell.PackFunctorHeader(9, 2), Label: 512, Imm: 3},
		{Op: Execute, Functor: cell.PackFunctorHeader(9, 2), Label: 512},
		{Op: Proceed},
		{Op: Allocate},
		{Op: AllocateN, Imm: 5},
		{Op: TryMeElse, Label: 1024},
		{Op: SwitchOnTerm, Label: 1, Label2: 2, Label3: 3, Label4: 4},
		{Op: GetLevel, Reg1: 2},
		{Op: Cut, Reg1: 2},
		{Op: CallInternal, Imm: 1, Imm2: 0},
		{Op: NoOp},
	}

	for _, want := range cases {
		buf := make([]byte, Length(want.Op))
		n := Assemble(buf, 0, want)
		if n != len(buf) {
			t.Fatalf("%s: Assemble wrote %d bytes, want %d", Catalog[want.Op].Mnemonic, n, len(buf))
		}
		got, consumed, err := Disassemble(buf, 0)
		if err != nil {
			t.Fatalf("%s: Disassemble error: %v", Catalog[want.Op].Mnemonic, err)
		}
		if consumed != len(buf) {
			t.Fatalf("%s: Disassemble consumed %d bytes, want %d", Catalog[want.Op].Mnemonic, consumed, len(buf))
		}
		if got != want {
			t.Fatalf("%s: roundtrip mismatch: got %+v, want %+v", Catalog[want.Op].Mnemonic, got, want)
		}
	}
}

// TestDisassembleUnknownOpcode verifies an out-of-range opcode byte is
// reported as an error rather than panicking (spec §7 engine error).
func TestDisassembleUnknownOpcode(t *testing.T) {
	buf := []byte{0xFF}
	if _, _, err := Disassemble(buf, 0); err == nil {
		t.Fatal("expected an error for an unknown opcode byte")
	}
}

// TestMnemonicRendersFunctorName exercises the deintern callback path.
func TestMnemonicRendersFunctorName(t *testing.T) {
	ins := Instruction{Op: Call, Functor: cell.PackFunctorHeader(5, 2), Label: 128, Imm: 0}
	deintern := func(id int) (string, bool) {
		if id == 5 {
			return "append", true
		}
		return "", false
	}
	got := Mnemonic(ins, deintern)
	want := "call append/2,L128,0"
	if got != want {
		t.Fatalf("Mnemonic: got %q, want %q", got, want)
	}
}
