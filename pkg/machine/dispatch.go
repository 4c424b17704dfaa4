package machine

import (
	"github.com/ait-kaci/wam/pkg/builtin"
	"github.com/ait-kaci/wam/pkg/cell"
	"github.com/ait-kaci/wam/pkg/inst"
)

// resolveOperand turns a (Mode, Reg) operand pair into an absolute
// address into m.data: a register index directly, or ep+envHeaderSize+
// offset for a permanent variable (spec §3.3, §4.1).
func (m *Machine) resolveOperand(mode inst.AddrMode, reg int) int {
	if mode == inst.ModeStack {
		return m.slotAddr(reg)
	}
	return reg
}

// Run drives the dispatch loop (spec §4.3.1, grounded on the teacher's
// pkg/cpu/exec.go giant switch) until the query suspends with a
// solution, the search space is exhausted, or a fatal error occurs.
// true+nil means a solution is ready; false+nil means no (more)
// solutions exist; a non-nil error is always fatal (spec §7).
func (m *Machine) Run() (bool, error) {
	for {
		ok, err := m.step()
		if err != nil {
			return false, err
		}
		if !ok {
			if !m.backtrack() {
				return false, nil
			}
			continue
		}
		if m.suspended {
			return true, nil
		}
	}
}

// step decodes and executes exactly one instruction. success=false
// (err=nil) means this instruction's unification-family test failed and
// the dispatch loop must backtrack; every other outcome is reported via
// err. Arena-overflow conditions are raised as panics from deep inside
// allocate/pushChoicePoint/pushTrail/pdlPush and converted to a returned
// *EngineError here, the one place the dispatch loop needs to know
// about them.
func (m *Machine) step() (success bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*EngineError); ok {
				err = ee
				return
			}
			panic(r)
		}
	}()

	in, size, decErr := inst.Disassemble(*m.code, m.ip)
	if decErr != nil {
		return false, &EngineError{Msg: decErr.Error()}
	}
	next := m.ip + size

	switch in.Op {
	case inst.PutStruc:
		m.putStruc(m.resolveOperand(in.Mode, in.Reg1), in.Functor)
		m.ip = next
		return true, nil
	case inst.SetVar:
		m.setVar(m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil
	case inst.SetVal:
		m.setVal(m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil
	case inst.SetLocalVal:
		m.setLocalVal(m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil
	case inst.SetVoid:
		m.setVoid(int(in.Imm))
		m.ip = next
		return true, nil
	case inst.PutVar:
		m.putVar(in.Reg2, m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil
	case inst.PutVal:
		m.putVal(in.Reg2, m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil
	case inst.PutUnsafeVal:
		// Shape carries no Mode bit: its variable operand is always a
		// permanent variable (see compiler/flatten.go), so Reg1 is always
		// a stack-slot offset regardless of what Mode decodes to.
		m.putUnsafeVal(in.Reg2, m.slotAddr(in.Reg1))
		m.ip = next
		return true, nil
	case inst.PutConst:
		m.putConst(m.resolveOperand(in.Mode, in.Reg1), cell.Con(in.Functor.NameID()))
		m.ip = next
		return true, nil
	case inst.PutList:
		m.putList(m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil

	case inst.GetStruc:
		ok := m.getStruc(m.resolveOperand(in.Mode, in.Reg1), in.Functor)
		if !ok {
			return false, nil
		}
		m.ip = next
		return true, nil
	case inst.UnifyVar:
		m.unifyVar(m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil
	case inst.UnifyVal:
		if !m.unifyVal(m.resolveOperand(in.Mode, in.Reg1)) {
			return false, nil
		}
		m.ip = next
		return true, nil
	case inst.UnifyLocalVal:
		if !m.unifyLocalVal(m.resolveOperand(in.Mode, in.Reg1)) {
			return false, nil
		}
		m.ip = next
		return true, nil
	case inst.UnifyVoid:
		m.unifyVoid(int(in.Imm))
		m.ip = next
		return true, nil
	case inst.GetVar:
		m.getVar(in.Reg2, m.resolveOperand(in.Mode, in.Reg1))
		m.ip = next
		return true, nil
	case inst.GetVal:
		if !m.getVal(in.Reg2, m.resolveOperand(in.Mode, in.Reg1)) {
			return false, nil
		}
		m.ip = next
		return true, nil
	case inst.GetConst:
		if !m.getConst(m.resolveOperand(in.Mode, in.Reg1), cell.Con(in.Functor.NameID())) {
			return false, nil
		}
		m.ip = next
		return true, nil
	case inst.GetList:
		if !m.getList(m.resolveOperand(in.Mode, in.Reg1)) {
			return false, nil
		}
		m.ip = next
		return true, nil

	case inst.Call:
		m.b0 = m.bp
		m.cp = next
		m.argN = in.Functor.Arity()
		if m.ep != 0 {
			m.data[m.ep+2] = ctrl(int(in.Imm))
		}
		m.ip = int(in.Label)
		return true, nil
	case inst.Execute:
		m.b0 = m.bp
		m.argN = in.Functor.Arity()
		m.ip = int(in.Label)
		return true, nil
	case inst.Proceed:
		m.ip = m.cp
		return true, nil
	case inst.Allocate:
		m.allocate(0)
		m.ip = next
		return true, nil
	case inst.AllocateN:
		m.allocate(int(in.Imm))
		m.ip = next
		return true, nil
	case inst.Deallocate:
		m.deallocate()
		m.ip = next
		return true, nil
	case inst.Suspend:
		m.suspended = true
		m.ip = next
		return true, nil

	case inst.TryMeElse, inst.Try:
		m.pushChoicePoint(int(in.Label))
		m.ip = next
		return true, nil
	case inst.RetryMeElse, inst.Retry:
		m.retryChoicePoint(int(in.Label))
		m.ip = next
		return true, nil
	case inst.TrustMe, inst.Trust:
		m.trustChoicePoint()
		m.ip = next
		return true, nil
	case inst.SwitchOnTerm, inst.SwitchOnConst, inst.SwitchOnStruc:
		// spec §9 Open Question: first-argument indexing is defined at
		// the instruction-set level but no compilation path in this
		// implementation emits these opcodes (clause order is searched
		// linearly via try/retry/trust). Interpreting one here means
		// either a hand-assembled program or a future indexing compiler
		// pass reached the Machine — neither exists yet, so this is
		// reported rather than silently guessed at.
		return false, &EngineError{Msg: "first-argument indexing opcodes have no compiler-emitted semantics to interpret"}

	case inst.NeckCut:
		m.neckCut()
		m.ip = next
		return true, nil
	case inst.GetLevel:
		m.getLevel(in.Reg1)
		m.ip = next
		return true, nil
	case inst.Cut:
		m.cut(in.Reg1)
		m.ip = next
		return true, nil

	case inst.CallInternal:
		return m.callInternal(builtin.ID(in.Imm), int(in.Imm2), next)

	case inst.Continue:
		m.ip = int(in.Label)
		return true, nil
	case inst.NoOp:
		m.ip = next
		return true, nil
	}
	return false, &EngineError{Msg: "unknown opcode"}
}

// callInternal dispatches call_internal (spec §4.2.6, §4.3.8): the
// handful of control constructs compiled by replacement strategy rather
// than by an ordinary call against the call table.
func (m *Machine) callInternal(id builtin.ID, nperms int, next int) (bool, error) {
	switch id {
	case builtin.Call, builtin.Execute:
		name, arity, a, ok := m.metaCallTarget()
		if !ok {
			return false, nil // instantiation/type error: plain logic failure
		}
		if arity > 0 {
			str := m.data[a]
			args := make([]cell.Cell, arity)
			for i := 0; i < arity; i++ {
				args[i] = m.data[str.Payload()+1+i]
			}
			for i, v := range args {
				m.setReg(i, v)
			}
		}
		entry, ok := m.resolveCall(name, arity)
		if !ok {
			return false, &LinkageError{Name: name, Arity: arity}
		}
		m.b0 = m.bp
		m.argN = arity
		if id == builtin.Call {
			m.cp = next
			if m.ep != 0 {
				m.data[m.ep+2] = ctrl(nperms)
			}
		}
		m.ip = entry
		return true, nil

	case builtin.Unify:
		if !m.unify(0, 1) {
			return false, nil
		}
		m.ip = next
		return true, nil

	case builtin.NotUnify:
		savedTR, savedHp := m.trp, m.hp
		ok := m.unify(0, 1)
		m.unwindTrail(savedTR)
		m.hp = savedHp
		if ok {
			return false, nil
		}
		m.ip = next
		return true, nil

	case builtin.True:
		m.ip = next
		return true, nil

	case builtin.Fail:
		return false, nil

	case builtin.Nl:
		if m.output != nil {
			m.output.Write([]byte{'\n'})
		}
		m.ip = next
		return true, nil

	default:
		return false, &EngineError{Msg: "unknown call_internal id"}
	}
}

// metaCallTarget reads the dereferenced value of register 0 (where
// call/1, execute/1, and the implicit bare-variable meta-call always
// place their single argument — spec §4.2.6) and reports the functor
// name/arity it names, if any.
func (m *Machine) metaCallTarget() (name, arity, addr int, ok bool) {
	a := m.deref(0)
	c := m.data[a]
	switch c.Tag() {
	case cell.TagCON:
		return c.Payload(), 0, a, true
	case cell.TagSTR:
		h := cell.FunctorHeader(m.data[c.Payload()])
		return h.NameID(), h.Arity(), a, true
	default:
		return 0, 0, a, false
	}
}
