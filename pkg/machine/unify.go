package machine

import "github.com/ait-kaci/wam/pkg/cell"

// deref chases a chain of bound REF cells to the representative cell for
// a's equivalence class (spec §4.3.2, invariant I-1: "deref is
// idempotent — dereferencing an already-dereferenced address returns
// the same address"). A REF cell that points at itself is unbound.
func (m *Machine) deref(a int) int {
	for {
		c := m.data[a]
		if c.Tag() != cell.TagREF || c.Payload() == a {
			return a
		}
		a = c.Payload()
	}
}

// needsTrail reports whether binding address a must be recorded on the
// trail for later unwinding (spec §4.3.2's conditional-trail rule: only
// bindings that could be undone by a pending choice point need
// recording). This package's reading, recorded as a DESIGN.md decision
// since spec.md states the rule only in prose: a binding needs trailing
// if a is a heap cell older than the most recent choice point's saved
// heap pointer (hbp), or a stack cell older than the most recent choice
// point's saved stack pointer (bp, when one exists). Register addresses
// (a < heapBase) are never trailed — nothing ever binds through a bare
// register slot without first copying it onto the heap or stack.
func (m *Machine) needsTrail(a int) bool {
	if a < m.heapBase {
		return false
	}
	if a < m.hbp {
		return true
	}
	return m.bp != 0 && a < m.bp
}

// pushTrail records address a on the trail if a pending choice point
// could need it undone.
func (m *Machine) pushTrail(a int) {
	if !m.needsTrail(a) {
		return
	}
	if m.trp >= m.trailMax {
		panic(&EngineError{Msg: "trail overflow"})
	}
	m.data[m.trp] = ctrl(a)
	m.trp++
}

// unwindTrail resets every trailed cell back to an unbound self-pointing
// REF, from the current trail top down to (but not including) target,
// then moves trp to target (spec §4.3.7 backtrack).
func (m *Machine) unwindTrail(target int) {
	for m.trp > target {
		m.trp--
		a := ctrlVal(m.data[m.trp])
		m.data[a] = cell.Ref(a)
	}
}

// bind makes the unbound REF cell at address a point at value v,
// trailing the binding if needed (spec §4.3.2).
func (m *Machine) bind(a int, v cell.Cell) {
	m.data[a] = v
	m.pushTrail(a)
}

// bindRefs unifies two unbound variables by binding one to the other.
// Binding the younger (higher-addressed, hence more recently created)
// variable to the older keeps the longer-lived variable as the
// representative — the conventional WAM tie-breaking rule (spec
// §4.3.2).
func (m *Machine) bindRefs(a1, a2 int) {
	if a1 < a2 {
		m.bind(a2, cell.Ref(a1))
	} else {
		m.bind(a1, cell.Ref(a2))
	}
}

// pdlPush/pdlPop implement the push-down list used by unify's worklist
// (spec §3.2 PDL, §4.3.2).
func (m *Machine) pdlPush(a int) {
	if m.up >= m.pdlMax {
		panic(&EngineError{Msg: "PDL overflow"})
	}
	m.data[m.up] = ctrl(a)
	m.up++
}

func (m *Machine) pdlPop() int {
	m.up--
	return ctrlVal(m.data[m.up])
}

func (m *Machine) pdlEmpty() bool { return m.up == m.pdlBase }

// unify attempts to unify the terms rooted at addresses a1 and a2,
// reporting success or failure (spec §4.3.2, invariant I-2: "unify
// either succeeds having produced a binding set that is the most
// general unifier of the two terms, or fails having made no bindings
// observable beyond trailed ones" — on failure, the caller's
// backtracking unwinds exactly the bindings unify made, via the normal
// trail/choice-point machinery, so unify itself need not undo anything
// on failure).
func (m *Machine) unify(a1, a2 int) bool {
	savedUp := m.up
	defer func() { m.up = savedUp }()

	m.pdlPush(a1)
	m.pdlPush(a2)
	for !m.pdlEmpty() {
		d2 := m.deref(m.pdlPop())
		d1 := m.deref(m.pdlPop())
		if d1 == d2 {
			continue
		}
		c1, c2 := m.data[d1], m.data[d2]
		t1, t2 := c1.Tag(), c2.Tag()

		switch {
		case t1 == cell.TagREF && t2 == cell.TagREF:
			m.bindRefs(d1, d2)
		case t1 == cell.TagREF:
			m.bind(d1, c2)
		case t2 == cell.TagREF:
			m.bind(d2, c1)
		case t1 == cell.TagCON && t2 == cell.TagCON:
			if c1.Payload() != c2.Payload() {
				return false
			}
		case t1 == cell.TagSTR && t2 == cell.TagSTR:
			h1 := cell.FunctorHeader(m.data[c1.Payload()])
			h2 := cell.FunctorHeader(m.data[c2.Payload()])
			if h1 != h2 {
				return false
			}
			n := h1.Arity()
			for i := 1; i <= n; i++ {
				m.pdlPush(c1.Payload() + i)
				m.pdlPush(c2.Payload() + i)
			}
		case t1 == cell.TagLIS && t2 == cell.TagLIS:
			m.pdlPush(c1.Payload())
			m.pdlPush(c2.Payload())
			m.pdlPush(c1.Payload() + 1)
			m.pdlPush(c2.Payload() + 1)
		default:
			return false
		}
	}
	return true
}

// unifyConst unifies the cell at address a against a plain CON/STR
// functor/atom constant without needing a second heap address — used by
// get_const and unify_const (spec §4.1's Imm-bearing heap matchers).
func (m *Machine) unifyConst(a int, v cell.Cell) bool {
	d := m.deref(a)
	c := m.data[d]
	if c.Tag() == cell.TagREF {
		m.bind(d, v)
		return true
	}
	return c == v
}
