package compiler

import (
	"sort"

	"github.com/ait-kaci/wam/pkg/ast"
)

// varInfo is the result of permanent-variable analysis for one clause
// (spec §4.2.3): which variables must live on the environment stack,
// their assigned slot numbers, and how many permanent variables remain
// live after each body goal (the operand a `call` needs for environment
// trimming).
type varInfo struct {
	slot              map[int]int // varID -> Y slot, for permanent vars only
	permVarsRemaining []int       // permVarsRemaining[j] = live permanent vars after body goal j
	numPerm           int

	// hasDepthSlot/depthSlot record the Y slot get_level stashes the
	// clause's entry cut barrier in, for a later non-leading cut to
	// restore (spec §4.3.6). Allocated by analyzeClause itself, alongside
	// every other permanent variable, so it participates in
	// permVarsRemaining the same way a real variable would — see
	// analyzeClause's depthSlotID sentinel.
	hasDepthSlot bool
	depthSlot    int
}

func isPermanent(v *varInfo, id int) bool {
	_, ok := v.slot[id]
	return ok
}

// analyzeClause classifies variables of a program clause. Unit 0 is the
// head plus the first body goal; unit i>0 (i indexing into body) is the
// i-th body goal. A variable is permanent iff it occurs in more than one
// unit. Slots are assigned in order of decreasing last-occurrence unit
// so variables dying earliest get the highest-numbered slots.
func analyzeClause(c ast.Clause) *varInfo {
	unitsSeen := map[int]map[int]bool{}
	lastUnit := map[int]int{}

	record := func(id, unit int) {
		if unitsSeen[id] == nil {
			unitsSeen[id] = map[int]bool{}
		}
		unitsSeen[id][unit] = true
		if unit > lastUnit[id] {
			lastUnit[id] = unit
		}
	}

	var walk func(t ast.Term, unit int)
	walk = func(t ast.Term, unit int) {
		switch v := t.(type) {
		case ast.Var:
			if !v.Anonymous {
				record(v.Name, unit)
			}
		case ast.Atom:
		case ast.Struct:
			for _, a := range v.Args {
				walk(a, unit)
			}
		case ast.ListCell:
			walk(v.Head, unit)
			walk(v.Tail, unit)
		case ast.Cut:
		case ast.Disjunction:
			walk(v.Left, unit)
			walk(v.Right, unit)
		case ast.Conjunction:
			for _, g := range v.Goals {
				walk(g, unit)
			}
		}
	}

	if c.Head != nil {
		for _, a := range c.Head.Args {
			walk(a, 0)
		}
	}
	if len(c.Body) > 0 {
		walk(c.Body[0], 0)
		for i := 1; i < len(c.Body); i++ {
			walk(c.Body[i], i)
		}
	}

	type cand struct {
		id   int
		last int
	}
	var perms []cand
	for id, units := range unitsSeen {
		if len(units) > 1 {
			perms = append(perms, cand{id: id, last: lastUnit[id]})
		}
	}

	// depthSlotID is a sentinel that can never collide with a real
	// variable id (those are all non-negative interned ids, spec §4.2.3).
	// A clause's cut depth-counter is folded into the very same
	// candidate list as every other permanent variable — rather than
	// bolted on afterward — precisely so it is accounted for in
	// permVarsRemaining below: its "last" unit is the last body unit
	// whose cut actually reads it via a Y slot (a cut at unit 0 uses the
	// live b0 register directly, via neck_cut, and never touches this
	// slot at all). Folding it in late, after permVarsRemaining was
	// already computed from perms alone, previously let the slot's
	// address be trimmed — and overwritten by the very next pushed frame
	// — before the cut that needed it ever ran.
	const depthSlotID = -1
	hasCut, cutLastUnit := cutDepthInfo(c.Body)
	if hasCut {
		perms = append(perms, cand{id: depthSlotID, last: cutLastUnit})
	}

	sort.Slice(perms, func(i, j int) bool {
		if perms[i].last != perms[j].last {
			return perms[i].last > perms[j].last
		}
		return perms[i].id < perms[j].id
	})

	vi := &varInfo{slot: map[int]int{}}
	for i, c := range perms {
		vi.slot[c.id] = i
	}
	vi.numPerm = len(perms)
	if hasCut {
		vi.hasDepthSlot = true
		vi.depthSlot = vi.slot[depthSlotID]
	}

	nUnits := len(c.Body)
	if nUnits == 0 {
		nUnits = 1
	}
	vi.permVarsRemaining = make([]int, nUnits)
	for j := 0; j < nUnits; j++ {
		remaining := 0
		for _, c := range perms {
			if c.last > j {
				remaining++
			}
		}
		vi.permVarsRemaining[j] = remaining
	}
	return vi
}

// cutDepthInfo reports whether body contains a cut anywhere, and the
// last body unit index (> 0) whose own cut reads the depth slot via a Y
// slot rather than the live b0 register. A unit-0 cut compiles to
// neck_cut and never touches the slot, so it never advances lastUnit;
// if every cut in body is at unit 0, lastUnit stays -1 and the slot
// (though still allocated and written by get_level) is never counted as
// remaining past goal 0.
func cutDepthInfo(body []ast.Term) (hasCut bool, lastUnit int) {
	lastUnit = -1
	for i, g := range body {
		if _, ok := g.(ast.Cut); ok {
			hasCut = true
			if i > 0 && i > lastUnit {
				lastUnit = i
			}
		}
	}
	return hasCut, lastUnit
}

// analyzeQuery classifies a query's variables: every non-anonymous
// variable is permanent (spec §4.2.3) so its binding survives to be
// reported; anonymous variables are temporary.
func analyzeQuery(freeVars []int) *varInfo {
	vi := &varInfo{slot: map[int]int{}}
	for i, id := range freeVars {
		vi.slot[id] = i
	}
	vi.numPerm = len(freeVars)
	return vi
}

// freeVarsOf collects the non-anonymous variable ids of a clause, in
// first-occurrence order, deduplicated. Exposed for callers that need
// to recompute FreeVars when ast.Clause.FreeVars was left unset.
func freeVarsOf(c ast.Clause) []int {
	seen := map[int]bool{}
	var order []int
	var walk func(t ast.Term)
	walk = func(t ast.Term) {
		switch v := t.(type) {
		case ast.Var:
			if v.Anonymous {
				return
			}
			if !seen[v.Name] {
				seen[v.Name] = true
				order = append(order, v.Name)
			}
		case ast.Atom:
		case ast.Struct:
			for _, a := range v.Args {
				walk(a)
			}
		case ast.ListCell:
			walk(v.Head)
			walk(v.Tail)
		case ast.Cut:
		case ast.Disjunction:
			walk(v.Left)
			walk(v.Right)
		case ast.Conjunction:
			for _, g := range v.Goals {
				walk(g)
			}
		}
	}
	if c.Head != nil {
		for _, a := range c.Head.Args {
			walk(a)
		}
	}
	for _, g := range c.Body {
		walk(g)
	}
	return order
}
