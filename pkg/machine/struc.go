package machine

import "github.com/ait-kaci/wam/pkg/cell"

// regVal/setReg read and write an already-absolute data-array index
// (spec §3.3's single flat addressing; ModeReg vs ModeStack is resolved
// by the caller — see slotAddr for the ModeStack case).
func (m *Machine) regVal(i int) cell.Cell { return m.data[i] }
func (m *Machine) setReg(i int, c cell.Cell) { m.data[i] = c }

// slotAddr resolves a stack-frame-relative slot number to an absolute
// address within the current environment, per spec §3.5: permanent
// variables live at ep+3+slot (the frame header occupies three control
// words: saved CE, saved CP, and the cut-barrier/n field — see frame.go
// for the exact header layout this mirrors).
func (m *Machine) slotAddr(slot int) int { return m.ep + envHeaderSize + slot }

// putStruc implements put_struc Reg1, f/n (spec §4.1, §4.3.3): push a
// landing-pad cell and the functor header onto the heap, leave the
// register holding a STR cell that (indirectly, through the landing
// pad) reaches the header. The landing pad is what makes an ordinary
// bind() (which always overwrites a REF, never a STR) able to later
// turn this structure into an alias for another term during
// unification — without it, STR cells would need a special case in
// bind/unify.
func (m *Machine) putStruc(reg int, f cell.FunctorHeader) {
	h := m.hp
	m.data[h] = cell.Str(h + 1)
	m.data[h+1] = cell.Cell(f)
	m.setReg(reg, m.data[h])
	m.hp += 2
}

// getStruc implements get_struc Reg1, f/n (spec §4.1, §4.3.3): dispatch
// on the dereferenced register's tag. An unbound variable builds a
// fresh structure skeleton and enters write mode to fill its arguments;
// a bound STR cell with a matching functor enters read mode to match
// against the existing arguments; anything else fails.
func (m *Machine) getStruc(reg int, f cell.FunctorHeader) bool {
	a := m.deref(reg)
	c := m.data[a]
	switch c.Tag() {
	case cell.TagREF:
		h := m.hp
		m.data[h] = cell.Str(h + 1)
		m.data[h+1] = cell.Cell(f)
		m.bind(a, m.data[h])
		m.hp += 2
		m.writeMode = true
		return true
	case cell.TagSTR:
		if cell.FunctorHeader(m.data[c.Payload()]) != f {
			return false
		}
		m.sp = c.Payload() + 1
		m.writeMode = false
		return true
	default:
		return false
	}
}

// putList/getList are get_struc/put_struc's two-field specialisation
// for the cons cell (spec §4.1): no functor header or landing pad,
// since a LIS cell's payload already addresses the car/cdr pair
// directly (spec §3.2's LIS invariant has no extra indirection level).
func (m *Machine) putList(reg int) {
	h := m.hp
	m.setReg(reg, cell.Lis(h))
	m.sp = h
	m.writeMode = true
}

func (m *Machine) getList(reg int) bool {
	a := m.deref(reg)
	c := m.data[a]
	switch c.Tag() {
	case cell.TagREF:
		h := m.hp
		m.bind(a, cell.Lis(h))
		m.sp = h
		m.writeMode = true
		return true
	case cell.TagLIS:
		m.sp = c.Payload()
		m.writeMode = false
		return true
	default:
		return false
	}
}

// setVar/setVal/setLocalVal/setVoid are put_struc/put_list's argument
// continuation instructions, always run in write mode (spec §4.1).
func (m *Machine) setVar(reg int) {
	h := m.hp
	m.data[h] = cell.Ref(h)
	m.setReg(reg, m.data[h])
	m.hp++
}

func (m *Machine) setVal(reg int) {
	m.data[m.hp] = m.regVal(reg)
	m.hp++
}

// setLocalVal is set_local_value: like set_val, but for a permanent
// variable argument that may still be unbound and local to this clause
// — functionally identical to set_val at the cell level (spec §4.1
// distinguishes the two mnemonics for the compiler's bookkeeping, not
// for a difference in runtime effect).
func (m *Machine) setLocalVal(reg int) { m.setVal(reg) }

func (m *Machine) setVoid(n int) {
	for i := 0; i < n; i++ {
		m.data[m.hp] = cell.Ref(m.hp)
		m.hp++
	}
}

// unifyVar/unifyVal/unifyLocalVal/unifyVoid are get_struc/get_list's
// argument continuation instructions, dispatching on read/write mode
// (spec §4.1, §4.3.3): in write mode they behave exactly like their
// set_* counterparts (the structure is being freshly built); in read
// mode they instead unify against the next heap cell at sp.
func (m *Machine) unifyVar(reg int) {
	if m.writeMode {
		m.setVar(reg)
		return
	}
	m.setReg(reg, m.data[m.sp])
	m.sp++
}

func (m *Machine) unifyVal(reg int) bool {
	if m.writeMode {
		m.setVal(reg)
		return true
	}
	ok := m.unify(reg, m.sp)
	m.sp++
	return ok
}

func (m *Machine) unifyLocalVal(reg int) bool { return m.unifyVal(reg) }

func (m *Machine) unifyVoid(n int) {
	if m.writeMode {
		m.setVoid(n)
		return
	}
	m.sp += n
}

// putVar/getVar/putVal/getVal/putUnsafeVal/putConst/getConst are the
// argument-passing family (spec §4.1, §4.3.4): they move a value
// between an argument register and a permanent/temporary variable slot
// ahead of a call, or match it against one after a call's callee
// deconstructs its head.
func (m *Machine) putVar(argReg, varSlot int) {
	h := m.hp
	m.data[h] = cell.Ref(h)
	m.data[varSlot] = m.data[h]
	m.setReg(argReg, m.data[h])
	m.hp++
}

func (m *Machine) getVar(argReg, varSlot int) {
	m.data[varSlot] = m.regVal(argReg)
}

func (m *Machine) putVal(argReg, varSlot int) {
	m.setReg(argReg, m.data[varSlot])
}

func (m *Machine) getVal(argReg, varSlot int) bool {
	return m.unify(argReg, varSlot)
}

// putUnsafeVal is put_unsafe_val: like put_val, but the source is a
// permanent variable that may still hold a heap address local to a
// frame about to be deallocated by last-call optimisation (spec §4.2.7,
// §4.3.4). If the dereferenced value turns out to live at or above the
// current frame (i.e. it was never globalised), a fresh heap cell is
// bound to it first so the value survives the frame's deallocation.
func (m *Machine) putUnsafeVal(argReg, varSlot int) {
	d := m.deref(varSlot)
	if d >= m.ep {
		h := m.hp
		m.data[h] = cell.Ref(h)
		m.bind(d, m.data[h])
		m.setReg(argReg, m.data[h])
		m.hp++
		return
	}
	m.setReg(argReg, m.data[d])
}

func (m *Machine) putConst(argReg int, c cell.Cell) {
	m.setReg(argReg, c)
}

func (m *Machine) getConst(argReg int, c cell.Cell) bool {
	return m.unifyConst(argReg, c)
}
