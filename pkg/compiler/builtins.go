package compiler

import "github.com/ait-kaci/wam/pkg/builtin"

// BuiltinIDs tells the compiler which already-interned functor/atom ids
// name the handful of control constructs spec §4.2.6 says are "compiled
// by replacement strategies, not by call". Interning itself is the
// host's job (spec §3.1); the compiler only needs to recognise these
// particular ids when it sees them as a body goal. This is distinct from
// package builtin's ID: these are host-assigned name ids (vary per
// interner), that one is the fixed call_internal dispatch tag.
type BuiltinIDs struct {
	Call     int // call/1
	Execute  int // execute/1
	Unify    int // =/2
	NotUnify int // \=/2
	True     int // true/0 (atom)
	Fail     int // fail/0 (atom; false/0 is conventionally interned to the same id)
	Nl       int // nl/0 (atom)
}

// structBuiltin reports whether a (name, arity) body goal is one of the
// struct-shaped built-ins (call/1, execute/1, =/2, \=/2).
func structBuiltin(name, arity int, b BuiltinIDs) (builtin.ID, bool) {
	switch {
	case arity == 1 && name == b.Call:
		return builtin.Call, true
	case arity == 1 && name == b.Execute:
		return builtin.Execute, true
	case arity == 2 && name == b.Unify:
		return builtin.Unify, true
	case arity == 2 && name == b.NotUnify:
		return builtin.NotUnify, true
	default:
		return 0, false
	}
}

// atomBuiltin reports whether a zero-arity atom goal is one of true/0,
// fail/0, nl/0.
func atomBuiltin(name int, b BuiltinIDs) (builtin.ID, bool) {
	switch name {
	case b.True:
		return builtin.True, true
	case b.Fail:
		return builtin.Fail, true
	case b.Nl:
		return builtin.Nl, true
	default:
		return 0, false
	}
}
