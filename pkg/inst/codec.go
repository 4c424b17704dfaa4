package inst

import (
	"encoding/binary"
	"fmt"

	"github.com/ait-kaci/wam/pkg/cell"
)

// Assemble writes ins's fixed-length byte encoding to buf at offset off
// and returns the number of bytes written. buf must have at least
// Length(ins.Op) bytes available from off. Field order follows spec
// §4.1: opcode, mode, reg1, reg2, functor header, label(s), immediate(s).
func Assemble(buf []byte, off int, ins Instruction) int {
	shape := Catalog[ins.Op].Shape
	p := off
	buf[p] = byte(ins.Op)
	p++
	if shape&HasMode != 0 {
		buf[p] = byte(ins.Mode)
		p++
	}
	if shape&HasReg1 != 0 {
		buf[p] = byte(ins.Reg1)
		p++
	}
	if shape&HasReg2 != 0 {
		buf[p] = byte(ins.Reg2)
		p++
	}
	if shape&HasFunctor != 0 {
		binary.LittleEndian.PutUint32(buf[p:], uint32(ins.Functor))
		p += 4
	}
	if shape&HasLabel != 0 {
		binary.LittleEndian.PutUint32(buf[p:], uint32(ins.Label))
		p += 4
	}
	if shape&HasLabel3 != 0 {
		binary.LittleEndian.PutUint32(buf[p:], uint32(ins.Label2))
		p += 4
		binary.LittleEndian.PutUint32(buf[p:], uint32(ins.Label3))
		p += 4
		binary.LittleEndian.PutUint32(buf[p:], uint32(ins.Label4))
		p += 4
	}
	if shape&HasImm != 0 {
		binary.LittleEndian.PutUint16(buf[p:], ins.Imm)
		p += 2
	}
	if shape&HasImm2 != 0 {
		binary.LittleEndian.PutUint16(buf[p:], ins.Imm2)
		p += 2
	}
	return p - off
}

// Disassemble is the exact inverse of Assemble: it reads one instruction
// from buf at offset off and returns it plus the number of bytes
// consumed. Returns an error for an opcode byte outside the defined
// range — a corrupted-code engine error per spec §7.
func Disassemble(buf []byte, off int) (Instruction, int, error) {
	if off >= len(buf) {
		return Instruction{}, 0, fmt.Errorf("inst: offset %d out of range (len %d)", off, len(buf))
	}
	op := OpCode(buf[off])
	if int(op) >= OpCodeCount {
		return Instruction{}, 0, fmt.Errorf("inst: unknown opcode byte 0x%02x at offset %d", buf[off], off)
	}
	shape := Catalog[op].Shape
	ins := Instruction{Op: op}
	p := off + 1
	if shape&HasMode != 0 {
		ins.Mode = AddrMode(buf[p])
		p++
	}
	if shape&HasReg1 != 0 {
		ins.Reg1 = int(buf[p])
		p++
	}
	if shape&HasReg2 != 0 {
		ins.Reg2 = int(buf[p])
		p++
	}
	if shape&HasFunctor != 0 {
		ins.Functor = cell.FunctorHeader(binary.LittleEndian.Uint32(buf[p:]))
		p += 4
	}
	if shape&HasLabel != 0 {
		ins.Label = int32(binary.LittleEndian.Uint32(buf[p:]))
		p += 4
	}
	if shape&HasLabel3 != 0 {
		ins.Label2 = int32(binary.LittleEndian.Uint32(buf[p:]))
		p += 4
		ins.Label3 = int32(binary.LittleEndian.Uint32(buf[p:]))
		p += 4
		ins.Label4 = int32(binary.LittleEndian.Uint32(buf[p:]))
		p += 4
	}
	if shape&HasImm != 0 {
		ins.Imm = binary.LittleEndian.Uint16(buf[p:])
		p += 2
	}
	if shape&HasImm2 != 0 {
		ins.Imm2 = binary.LittleEndian.Uint16(buf[p:])
		p += 2
	}
	return ins, p - off, nil
}

// Mnemonic renders ins in textual form: mnemonic plus decoded operands,
// registers as Xi, stack slots as Yi, functors as name/arity (spec
// §4.1). The caller supplies deintern to render the functor's name;
// passing nil prints the raw interned id instead.
func Mnemonic(ins Instruction, deintern func(id int) (string, bool)) string {
	shape := Catalog[ins.Op].Shape
	var parts []string
	if shape&HasReg1 != 0 {
		parts = append(parts, regName(ins.Mode, ins.Reg1, shape&HasMode != 0))
	}
	if shape&HasReg2 != 0 {
		parts = append(parts, regName(ModeReg, ins.Reg2, false))
	}
	if shape&HasFunctor != 0 {
		parts = append(parts, functorName(ins.Functor, deintern))
	}
	if shape&HasLabel != 0 {
		parts = append(parts, fmt.Sprintf("L%d", ins.Label))
	}
	if shape&HasLabel3 != 0 {
		parts = append(parts, fmt.Sprintf("L%d", ins.Label2), fmt.Sprintf("L%d", ins.Label3), fmt.Sprintf("L%d", ins.Label4))
	}
	if shape&HasImm != 0 {
		parts = append(parts, fmt.Sprintf("%d", ins.Imm))
	}
	if shape&HasImm2 != 0 {
		parts = append(parts, fmt.Sprintf("%d", ins.Imm2))
	}
	s := Catalog[ins.Op].Mnemonic
	for i, p := range parts {
		if i == 0 {
			s += " " + p
		} else {
			s += "," + p
		}
	}
	return s
}

func regName(mode AddrMode, reg int, tagged bool) string {
	if !tagged {
		return fmt.Sprintf("X%d", reg)
	}
	return fmt.Sprintf("%s%d", mode.String(), reg)
}

func functorName(h cell.FunctorHeader, deintern func(int) (string, bool)) string {
	if deintern != nil {
		if name, ok := deintern(h.NameID()); ok {
			return fmt.Sprintf("%s/%d", name, h.Arity())
		}
	}
	return fmt.Sprintf("%d/%d", h.NameID(), h.Arity())
}
