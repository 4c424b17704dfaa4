// Package machine is the Machine Runtime (spec §4.3): a tagged-memory
// abstract machine executing the byte-coded instruction set produced by
// the Compiler and linked by the Linker. One Machine is single-threaded
// and cooperative (spec §5) — the dispatch loop is grounded directly on
// the teacher's pkg/cpu/exec.go (one giant switch over an OpCode
// mutating state in place, no per-instruction allocation); the named
// machine registers (ip, cp, hp, ...) are grounded on the teacher's flat
// pkg/cpu.State (plain fixed int/bool fields, cheap to copy), widened
// from 8-bit Z80 registers to full-width addresses since these name
// positions in a single data array rather than packed flag bits (a
// stdlib-only choice — see DESIGN.md).
package machine

import (
	"io"

	"github.com/ait-kaci/wam/pkg/cell"
)

// Options configures a Machine's fixed arenas (spec §5: "heap and
// stacks are pre-sized arrays... the specification assumes fixed
// arenas sized at construction and treats out-of-space as a fatal
// engine error"). A zero Options uses sane defaults.
type Options struct {
	NumRegs   int
	HeapSize  int
	StackSize int
	TrailSize int
	PDLSize   int

	// ResolveCall looks up a predicate's entry point by (name, arity)
	// for call_internal's call/1 and execute/1 (spec §4.2.6). Injected
	// rather than imported directly so this package never depends on
	// pkg/linker (avoiding an import cycle, since linker.EmitPredicate
	// et al. operate on compiler output that this Machine executes).
	ResolveCall func(name, arity int) (entry int, ok bool)

	// Output receives nl/0's newline (spec §4.2.6 lists nl/0 among the
	// recognised built-in atoms). Nil discards it.
	Output io.Writer
}

const (
	defaultNumRegs   = 256
	defaultHeapSize  = 1 << 16
	defaultStackSize = 1 << 14
	defaultTrailSize = 1 << 13
	defaultPDLSize   = 1 << 12
)

// Machine is one tagged-memory engine: a single flat Cell array
// partitioned into Registers | Heap | Stack | Trail | PDL (spec §3.3),
// plus the named machine registers of spec §3.4.
type Machine struct {
	data []cell.Cell

	regN                int
	heapBase, heapMax   int
	stackBase, stackMax int
	trailBase, trailMax int
	pdlBase, pdlMax     int

	ip, cp     int
	hp, hbp    int
	sp         int
	up         int
	ep, bp, b0 int
	trp        int
	writeMode  bool
	suspended  bool

	// argN is the arity of the predicate currently being entered — set
	// by call/execute/call_internal immediately before control transfers
	// to the callee's first instruction, and consulted by
	// try_me_else/try when building a fresh choice-point frame, since
	// neither opcode carries its own arity operand (spec §4.1's shape
	// for try_me_else is bare Label; the arity is always exactly the
	// current call's, which the dispatch loop already knows).
	argN int

	code *[]byte // aliases the Linker's code buffer; never copied, since EmitPredicate grows it

	resolveCall func(name, arity int) (int, bool)
	output      io.Writer
}

// New constructs a Machine with empty arenas of the given sizes,
// reading code from codeRef (typically &linker.Linker.Code — always
// dereferenced fresh so instructions emitted after construction are
// visible).
func New(codeRef *[]byte, opts Options) *Machine {
	if opts.NumRegs <= 0 {
		opts.NumRegs = defaultNumRegs
	}
	if opts.HeapSize <= 0 {
		opts.HeapSize = defaultHeapSize
	}
	if opts.StackSize <= 0 {
		opts.StackSize = defaultStackSize
	}
	if opts.TrailSize <= 0 {
		opts.TrailSize = defaultTrailSize
	}
	if opts.PDLSize <= 0 {
		opts.PDLSize = defaultPDLSize
	}

	m := &Machine{
		regN:      opts.NumRegs,
		heapBase:  opts.NumRegs,
		heapMax:   opts.NumRegs + opts.HeapSize,
		resolveCall: opts.ResolveCall,
		output:      opts.Output,
		code:        codeRef,
	}
	m.stackBase = m.heapMax
	m.stackMax = m.stackBase + opts.StackSize
	m.trailBase = m.stackMax
	m.trailMax = m.trailBase + opts.TrailSize
	m.pdlBase = m.trailMax
	m.pdlMax = m.pdlBase + opts.PDLSize
	m.data = make([]cell.Cell, m.pdlMax)
	m.Reset()
	return m
}

// Reset clears all runtime state (heap, stacks, trail, registers) back
// to a fresh machine ready for a new query, without touching the code
// buffer or call table it does not own (spec §6 resolver contract:
// reset() "clearing all machine state" — the machine's own state, not
// the Linker's compiled predicates, which persist per spec §3.7).
func (m *Machine) Reset() {
	for i := range m.data {
		m.data[i] = cell.Ref(i)
	}
	m.ip = 0
	m.cp = 0
	m.hp = m.heapBase
	m.hbp = m.heapBase
	m.sp = 0
	m.up = m.pdlBase
	m.ep = 0
	m.bp = 0
	m.b0 = 0
	m.trp = m.trailBase
	m.writeMode = false
	m.suspended = false
	m.argN = 0
}

// ctrl and ctrlVal store/read a plain machine-internal integer (a
// frame's prevE/prevCP/n/alt-address/saved-pointer field, or a trail/PDL
// entry) in a Cell slot. These slots are never interpreted as tagged
// terms — they are the stack-frame and trail/PDL control words spec
// §3.5 describes sharing the same flat array as ordinary heap cells —
// so the 2-bit tag discipline cell.Cell otherwise enforces does not
// apply to them.
func ctrl(v int) cell.Cell    { return cell.Cell(uint32(v)) }
func ctrlVal(c cell.Cell) int { return int(uint32(c)) }
