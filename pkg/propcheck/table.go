package propcheck

import "sync"

// Table collects Findings discovered across many independent fuzz
// rounds, one per WorkerPool goroutine — grounded directly on the
// teacher's pkg/result.Table: same mutex-guarded slice, same Add/Len
// shape, Rule swapped for Finding.
type Table struct {
	mu       sync.Mutex
	findings []*Finding
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts a finding into the table.
func (t *Table) Add(f *Finding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.findings = append(t.findings, f)
}

// Findings returns a copy of every finding added so far, in insertion
// order.
func (t *Table) Findings() []*Finding {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Finding, len(t.findings))
	copy(out, t.findings)
	return out
}

// Len returns the number of findings collected.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.findings)
}
