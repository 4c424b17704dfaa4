// Package result is the egress side of the Machine Runtime: the decoded
// term shape a solution's bindings are reconstructed into (spec
// §4.3.9), plus a small table for collecting solutions produced across
// many machines (grounded on the teacher's pkg/result.Table, whose
// mutex-guarded Add/Rules/Len shape becomes Add/Solutions/Len for a
// different payload — see DESIGN.md).
package result

import (
	"fmt"
	"strings"

	"github.com/ait-kaci/wam/pkg/cell"
)

// Term is a fully dereferenced value decoded from the heap: no REF ever
// survives decoding except as a Var node representing a still-unbound
// logic variable.
type Term interface {
	isResultTerm()
}

// Var is an unbound logic variable. ID is the heap address it was
// decoded from, used only to give the same cell a stable identity
// across one decode call — it has no meaning outside that call.
type Var struct {
	ID int
}

func (Var) isResultTerm() {}

func (v Var) String() string { return fmt.Sprintf("_G%d", v.ID) }

// Atom is a decoded CON cell.
type Atom struct {
	Name int
}

func (Atom) isResultTerm() {}

func (a Atom) String() string { return fmt.Sprintf("atom(%d)", a.Name) }

// Compound is a decoded STR cell: a functor applied to its arguments.
type Compound struct {
	Name int
	Args []Term
}

func (Compound) isResultTerm() {}

func (c Compound) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%d(%s)", c.Name, strings.Join(parts, ","))
}

// List is a decoded LIS cell, kept distinct from Compound the same way
// ast.ListCell is kept distinct from ast.Struct (spec §4.3.9: "LIS → two
// arity compound", rendered here as its own node so callers don't need
// to know the cons functor's interned id).
type List struct {
	Head, Tail Term
}

func (List) isResultTerm() {}

func (l List) String() string { return fmt.Sprintf("[%s|%s]", l.Head, l.Tail) }

// Solution is one answer to a query: a mapping from the query's
// non-anonymous free variable ids (spec §3.6 CompiledQuery) to their
// decoded bindings.
type Solution map[int]Term

// Decoder walks heap cells into Terms, sharing one Var node per heap
// address within a single decode so that two occurrences of the same
// unbound variable decode to the identical Term value (spec §4.3.9).
// A Decoder is not safe for concurrent use; callers needing concurrent
// decoding construct one Decoder per goroutine.
type Decoder struct {
	seen map[int]Var
}

// NewDecoder returns a Decoder with an empty sharing map.
func NewDecoder() *Decoder {
	return &Decoder{seen: map[int]Var{}}
}

// Decode walks the cell at address a (already dereferenced by the
// caller's deref, or not — Decode itself also chases REF chains since a
// bound variable may still be stored as a REF pointing further along)
// and returns its decoded Term. heap is the full data array the
// Machine owns; a is an absolute address into it.
func (d *Decoder) Decode(heap []cell.Cell, a int) Term {
	for {
		c := heap[a]
		if c.Tag() == cell.TagREF && c.Payload() != a {
			a = c.Payload()
			continue
		}
		break
	}
	c := heap[a]
	switch c.Tag() {
	case cell.TagREF:
		if v, ok := d.seen[a]; ok {
			return v
		}
		v := Var{ID: a}
		d.seen[a] = v
		return v
	case cell.TagCON:
		return Atom{Name: c.Payload()}
	case cell.TagSTR:
		header := cell.FunctorHeader(heap[c.Payload()])
		n := header.Arity()
		args := make([]Term, n)
		for i := 0; i < n; i++ {
			args[i] = d.Decode(heap, c.Payload()+1+i)
		}
		return Compound{Name: header.NameID(), Args: args}
	case cell.TagLIS:
		return List{
			Head: d.Decode(heap, c.Payload()),
			Tail: d.Decode(heap, c.Payload()+1),
		}
	default:
		panic(fmt.Sprintf("result: corrupt cell tag at address %d", a))
	}
}
