package result

import "sync"

// Table collects Solutions discovered across many independent Machine
// runs (spec §5: "the only place this repository runs goroutines is
// pkg/propcheck's harness... each goroutine owning its own Machine").
// Grounded directly on the teacher's pkg/result.Table: same
// mutex-guarded slice, same Add/Len shape, Rule swapped for Solution.
// Unlike the teacher's table there is no natural total order over
// Solutions (no analogue of "bytes saved"), so Solutions returns
// insertion order rather than sorting.
type Table struct {
	mu        sync.Mutex
	solutions []Solution
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts a solution into the table.
func (t *Table) Add(s Solution) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.solutions = append(t.solutions, s)
}

// Solutions returns a copy of every solution added so far, in insertion
// order.
func (t *Table) Solutions() []Solution {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Solution, len(t.solutions))
	copy(out, t.solutions)
	return out
}

// Len returns the number of solutions collected.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.solutions)
}
