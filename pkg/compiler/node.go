package compiler

import "github.com/ait-kaci/wam/pkg/ast"

// kind distinguishes the term shapes the flattener cares about. Cut,
// Disjunction and Conjunction never reach here — they are handled by
// compileGoal/compileDisjunction in clause.go before flattening begins.
type kind uint8

const (
	kindVar kind = iota
	kindAtom
	kindStruct
	kindList
)

// node is the flattener's own term graph, built once from an ast.Term.
// Using our own pointer-identity nodes (rather than ast.Term directly)
// sidesteps the fact that ast.Struct/ast.ListCell hold slices and are
// therefore not valid map keys; pointer identity gives the register
// allocator a stable handle per syntactic occurrence.
type node struct {
	kind kind

	varID     int
	anonymous bool

	atomName int

	functor int
	args    []*node // Struct args, or exactly [Head, Tail] for a list cell
}

// buildNode converts one ast.Term into our node graph. Each syntactic
// occurrence gets its own *node, even when it names the same variable —
// register allocation unifies same-variable occurrences by varID, not
// by node identity.
func buildNode(t ast.Term) *node {
	switch v := t.(type) {
	case ast.Var:
		return &node{kind: kindVar, varID: v.Name, anonymous: v.Anonymous}
	case ast.Atom:
		return &node{kind: kindAtom, atomName: v.Name}
	case ast.Struct:
		args := make([]*node, len(v.Args))
		for i, a := range v.Args {
			args[i] = buildNode(a)
		}
		return &node{kind: kindStruct, functor: v.Name, args: args}
	case ast.ListCell:
		return &node{kind: kindList, args: []*node{buildNode(v.Head), buildNode(v.Tail)}}
	default:
		panic("compiler: unexpected term kind reached the flattener")
	}
}
