package machine

// envHeaderSize is the fixed number of control words at the base of
// every environment frame: saved CE (the caller's own environment
// pointer), saved CP (the return address to resume once this clause's
// body finishes), and the permanent-variable count n (spec §3.5). The
// frame's permanent variable slots (spec's "Y registers") follow
// immediately after, which is what slotAddr (struc.go) adds to.
const envHeaderSize = 3

// cpFrameSize is the size of a choice-point frame holding n saved
// argument registers (spec §3.5): n, A1..An, prevB, prevE, prevCP,
// altAddr, savedTR, savedH, savedB0 — eight control words plus n
// argument slots, grounded on the classical WAM choice-point layout
// (Aït-Kaci's tutorial presentation, which the teacher's own
// frame-pointer style in pkg/cpu.State's SP-relative addressing echoes
// at a much smaller scale).
func cpFrameSize(n int) int { return n + 8 }

// nextFrameBase computes where a new environment or choice-point frame
// may be safely pushed: above both the current environment's frame and
// the current choice point's frame, whichever extends further (spec
// §3.5's shared environment/choice-point stack — necessary because
// last-call optimisation can deallocate an environment while an older
// choice point below it in call order still occupies higher addresses).
func (m *Machine) nextFrameBase() int {
	base := m.stackBase
	if m.ep != 0 {
		if top := m.ep + envHeaderSize + ctrlVal(m.data[m.ep+2]); top > base {
			base = top
		}
	}
	if m.bp != 0 {
		n := ctrlVal(m.data[m.bp])
		if top := m.bp + cpFrameSize(n); top > base {
			base = top
		}
	}
	return base
}

// allocate implements allocate/allocate_n (spec §4.1, §4.3.5): push a
// fresh environment frame recording the caller's E and CP, with room
// for n permanent variables.
func (m *Machine) allocate(n int) {
	base := m.nextFrameBase()
	if base+envHeaderSize+n > m.stackMax {
		panic(&EngineError{Msg: "stack overflow"})
	}
	m.data[base] = ctrl(m.ep)
	m.data[base+1] = ctrl(m.cp)
	m.data[base+2] = ctrl(n)
	m.ep = base
	m.sp = base + envHeaderSize + n
}

// deallocate implements deallocate (spec §4.1, §4.3.5): pop the current
// environment, restoring the caller's CP and E. proceed (run separately,
// always immediately after deallocate in a clause's epilogue) is what
// actually transfers control to the restored CP.
func (m *Machine) deallocate() {
	prevE := ctrlVal(m.data[m.ep])
	prevCP := ctrlVal(m.data[m.ep+1])
	m.cp = prevCP
	m.ep = prevE
}

// pushChoicePoint implements try_me_else/try (spec §4.1, §4.3.6): save
// the first argN argument registers and every machine register a
// backtrack must restore, recording altAddr as where to resume on
// failure.
func (m *Machine) pushChoicePoint(altAddr int) {
	n := m.argN
	base := m.nextFrameBase()
	if base+cpFrameSize(n) > m.stackMax {
		panic(&EngineError{Msg: "stack overflow"})
	}
	m.data[base] = ctrl(n)
	for i := 0; i < n; i++ {
		m.data[base+1+i] = m.regVal(i)
	}
	m.data[base+n+1] = ctrl(m.bp)
	m.data[base+n+2] = ctrl(m.ep)
	m.data[base+n+3] = ctrl(m.cp)
	m.data[base+n+4] = ctrl(altAddr)
	m.data[base+n+5] = ctrl(m.trp)
	m.data[base+n+6] = ctrl(m.hp)
	m.data[base+n+7] = ctrl(m.b0)
	m.bp = base
	m.hbp = m.hp
}

// restoreFromChoicePoint implements the register/trail/heap restoration
// shared by retry_me_else/retry and trust_me/trust (spec §4.3.6): put
// back the saved argument registers, E, CP, and b0, then undo every
// binding and heap cell created since this choice point was pushed.
// Restoring b0 alongside prevB matters whenever the clause that pushed
// this choice point went on to make a nested call before failing: that
// call overwrites the live b0 register with its own callee's barrier
// (spec §4.3.6), so without restoring the value saved here, a cut in
// the next clause tried from this choice point would read a stale,
// unrelated barrier instead of the one in effect when this predicate
// was entered.
func (m *Machine) restoreFromChoicePoint() {
	n := ctrlVal(m.data[m.bp])
	for i := 0; i < n; i++ {
		m.setReg(i, m.data[m.bp+1+i])
	}
	m.ep = ctrlVal(m.data[m.bp+n+2])
	m.cp = ctrlVal(m.data[m.bp+n+3])
	m.unwindTrail(ctrlVal(m.data[m.bp+n+5]))
	m.hp = ctrlVal(m.data[m.bp+n+6])
	m.b0 = ctrlVal(m.data[m.bp+n+7])
}

// retryChoicePoint implements retry_me_else/retry: restore, then leave
// this choice point in place with a new alternative address to try next
// time.
func (m *Machine) retryChoicePoint(nextAlt int) {
	m.restoreFromChoicePoint()
	n := ctrlVal(m.data[m.bp])
	m.data[m.bp+n+4] = ctrl(nextAlt)
}

// trustChoicePoint implements trust_me/trust: restore, then discard this
// choice point — it was the last alternative.
func (m *Machine) trustChoicePoint() {
	m.restoreFromChoicePoint()
	n := ctrlVal(m.data[m.bp])
	m.bp = ctrlVal(m.data[m.bp+n+1])
	m.recomputeHbp()
}

// recomputeHbp restores hbp (the heap-backtrack barrier used by
// needsTrail) to match whatever choice point is now topmost, after one
// has just been discarded by trust_me or by cut (spec §4.3.2, §4.3.6).
func (m *Machine) recomputeHbp() {
	if m.bp == 0 {
		m.hbp = m.heapBase
		return
	}
	n := ctrlVal(m.data[m.bp])
	m.hbp = ctrlVal(m.data[m.bp+n+6])
}

// backtrack jumps control to the topmost choice point's current
// alternative, reporting whether one existed (spec §4.3.7: "backtrack —
// if B=0, the whole resolution fails; otherwise jump to B's stored
// alternative address", which is itself a retry_me_else/trust_me
// instruction responsible for the actual restoration).
func (m *Machine) backtrack() bool {
	if m.bp == 0 {
		return false
	}
	n := ctrlVal(m.data[m.bp])
	m.ip = ctrlVal(m.data[m.bp+n+4])
	return true
}

// getLevel implements get_level Reg1 (spec §4.1, §4.3.6): record the
// cut barrier in effect when this clause was entered (b0) into a
// permanent variable slot, for a later non-leading cut to restore.
func (m *Machine) getLevel(slot int) {
	m.data[m.slotAddr(slot)] = ctrl(m.b0)
}

// neckCut implements neck_cut (spec §4.1, §4.3.6): a cut as the first
// body goal can use the live b0 register directly, since no call has
// run yet to overwrite it.
func (m *Machine) neckCut() {
	m.bp = m.b0
	m.recomputeHbp()
}

// cut implements cut Reg1 (spec §4.1, §4.3.6): a cut anywhere past the
// first body goal must restore the barrier saved earlier by get_level,
// since intervening calls have since overwritten b0 for their own
// callees.
func (m *Machine) cut(slot int) {
	m.bp = ctrlVal(m.data[m.slotAddr(slot)])
	m.recomputeHbp()
}
