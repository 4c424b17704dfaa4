// Package builtin defines the fixed dispatch tags the Compiler embeds in
// a call_internal instruction's Imm operand and the Machine Runtime
// switches on (spec §4.2.6, §4.1 "Internal meta-call"). These tags are
// a closed, protocol-level enumeration — unlike the host-interned
// functor ids the compiler uses to *recognise* call/1, =/2 and friends
// in source (see compiler.BuiltinIDs), the tags here never vary between
// runs, so both pkg/compiler (producer) and pkg/machine (consumer)
// import this one small package instead of either depending on the
// other.
package builtin

// ID names one of the built-in routines call_internal can dispatch to.
type ID uint16

const (
	Call ID = iota
	Execute
	Unify
	NotUnify
	True
	Fail
	Nl
)

func (id ID) String() string {
	switch id {
	case Call:
		return "call"
	case Execute:
		return "execute"
	case Unify:
		return "unify"
	case NotUnify:
		return "not_unify"
	case True:
		return "true"
	case Fail:
		return "fail"
	case Nl:
		return "nl"
	default:
		return "?"
	}
}
