package compiler

import (
	"github.com/ait-kaci/wam/pkg/cell"
	"github.com/ait-kaci/wam/pkg/inst"
)

// regHome is where a variable (or, transiently, a nested sub-term)
// lives: a register (temp, scoped to the current unit) or an
// environment stack slot (permanent, scoped to the whole clause).
type regHome struct {
	mode inst.AddrMode
	reg  int
}

// clauseState threads variable homes across the whole clause — the
// head unit and every body-goal unit — since the same variable
// commonly recurs across units (e.g. q(X), r(X)); only the temporary
// register counter is scoped per unit (spec §4.2.2: "two passes per
// outermost functor").
type clauseState struct {
	vi      *varInfo
	varHome map[int]regHome
}

func newClauseState(vi *varInfo) *clauseState {
	return &clauseState{vi: vi, varHome: map[int]regHome{}}
}

// flattenUnit compiles one outermost functor's arguments (a clause head
// or a single body goal) to an instruction list, per spec §4.2.1-4.2.2:
// argument pass first (registers 0..arity-1 are the argument registers),
// then a breadth-first temporary pass over whatever wasn't assigned a
// home directly. Program-side units (programSide=true) emit get_*
// instructions in natural (parent-before-child) order; query-side units
// emit put_* instructions with nested structure built before the
// argument registers that reference it are finally loaded (spec's
// "post-order over functors").
//
// A nested atom (e.g. the `a` in f(a, Y)) has no dedicated "set/unify
// constant" opcode in this instruction set (spec §4.1 lists no such
// opcode); it is compiled the same way a nested compound term is: given
// a fresh temporary register and expanded via its own put_*/get_* block.
// On the program side the parent claims that register with unify_var
// before the child's get_const/get_struc/get_list block runs; on the
// query side the child's put_* block runs first and the parent then
// references the register with set_val.
// finalCall marks a query-side unit as the clause's last body goal: a
// permanent variable's repeat occurrence loaded into an argument
// register there uses put_unsafe_val rather than put_val, since its
// environment frame may be deallocated before the callee returns
// (spec §4.2.4).
func flattenUnit(unitArgs []*node, programSide bool, finalCall bool, cs *clauseState) []inst.Instruction {
	arity := len(unitArgs)
	nextTemp := arity
	allocTemp := func() int {
		r := nextTemp
		nextTemp++
		return r
	}

	// varHomeOf returns the home for varID, allocating one (stack slot
	// if permanent, else a fresh temp register) on first occurrence
	// anywhere in the clause. Reports whether this is the first use.
	varHomeOf := func(varID int) (regHome, bool) {
		if h, ok := cs.varHome[varID]; ok {
			return h, false
		}
		var h regHome
		if slot, isPerm := cs.vi.slot[varID]; isPerm {
			h = regHome{mode: inst.ModeStack, reg: slot}
		} else {
			h = regHome{mode: inst.ModeReg, reg: allocTemp()}
		}
		cs.varHome[varID] = h
		return h, true
	}

	var argInstrs []inst.Instruction

	type queued struct {
		n    *node
		home int
	}
	var queue []queued

	for i, arg := range unitArgs {
		switch arg.kind {
		case kindVar:
			if arg.anonymous {
				h := regHome{mode: inst.ModeReg, reg: allocTemp()}
				op := inst.PutVar
				if programSide {
					op = inst.GetVar
				}
				argInstrs = append(argInstrs, inst.Instruction{Op: op, Mode: h.mode, Reg1: h.reg, Reg2: i})
				continue
			}
			h, first := varHomeOf(arg.varID)
			var op inst.OpCode
			switch {
			case programSide && first:
				op = inst.GetVar
			case programSide && !first:
				op = inst.GetVal
			case !programSide && first:
				op = inst.PutVar
			case !programSide && finalCall && h.mode == inst.ModeStack:
				op = inst.PutUnsafeVal
			default:
				op = inst.PutVal
			}
			argInstrs = append(argInstrs, inst.Instruction{Op: op, Mode: h.mode, Reg1: h.reg, Reg2: i})
		case kindAtom:
			op := inst.PutConst
			if programSide {
				op = inst.GetConst
			}
			argInstrs = append(argInstrs, inst.Instruction{
				Op: op, Mode: inst.ModeReg, Reg1: i,
				Functor: cell.PackFunctorHeader(arg.atomName, 0),
			})
		case kindStruct, kindList:
			queue = append(queue, queued{n: arg, home: i})
		}
	}

	var blocks [][]inst.Instruction
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		n, home := q.n, q.home

		var blk []inst.Instruction
		switch n.kind {
		case kindStruct:
			op := inst.PutStruc
			if programSide {
				op = inst.GetStruc
			}
			blk = append(blk, inst.Instruction{
				Op: op, Mode: inst.ModeReg, Reg1: home,
				Functor: cell.PackFunctorHeader(n.functor, len(n.args)),
			})
		case kindAtom:
			op := inst.PutConst
			if programSide {
				op = inst.GetConst
			}
			blk = append(blk, inst.Instruction{
				Op: op, Mode: inst.ModeReg, Reg1: home,
				Functor: cell.PackFunctorHeader(n.atomName, 0),
			})
		case kindList:
			op := inst.PutList
			if programSide {
				op = inst.GetList
			}
			blk = append(blk, inst.Instruction{Op: op, Mode: inst.ModeReg, Reg1: home})
		}

		for i := 0; i < len(n.args); i++ {
			a := n.args[i]
			if a.kind == kindVar && a.anonymous {
				k := 0
				for i < len(n.args) && n.args[i].kind == kindVar && n.args[i].anonymous {
					k++
					i++
				}
				i--
				op := inst.SetVoid
				if programSide {
					op = inst.UnifyVoid
				}
				blk = append(blk, inst.Instruction{Op: op, Imm: uint16(k)})
				continue
			}
			switch a.kind {
			case kindVar:
				h, first := varHomeOf(a.varID)
				var op inst.OpCode
				if first {
					op = pickSetUnify(programSide)
				} else {
					op = pickLocalValOp(programSide, h.mode == inst.ModeReg)
				}
				blk = append(blk, inst.Instruction{Op: op, Mode: h.mode, Reg1: h.reg})
			case kindAtom, kindStruct, kindList:
				home2 := allocTemp()
				op := inst.UnifyVar
				if !programSide {
					op = inst.SetVal
				}
				blk = append(blk, inst.Instruction{Op: op, Mode: inst.ModeReg, Reg1: home2})
				queue = append(queue, queued{n: a, home: home2})
			}
		}
		blocks = append(blocks, blk)
	}

	var out []inst.Instruction
	if programSide {
		out = append(out, argInstrs...)
		for _, b := range blocks {
			out = append(out, b...)
		}
	} else {
		for i := len(blocks) - 1; i >= 0; i-- {
			out = append(out, blocks[i]...)
		}
		out = append(out, argInstrs...)
	}
	return out
}

func pickSetUnify(programSide bool) inst.OpCode {
	if programSide {
		return inst.UnifyVar
	}
	return inst.SetVar
}

func pickLocalValOp(programSide, local bool) inst.OpCode {
	switch {
	case programSide && local:
		return inst.UnifyLocalVal
	case programSide && !local:
		return inst.UnifyVal
	case !programSide && local:
		return inst.SetLocalVal
	default:
		return inst.SetVal
	}
}
