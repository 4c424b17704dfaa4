package machine

import (
	"errors"
	"fmt"
)

// ErrNoSolution is returned by Resolver.Resolve when a query's search
// space is exhausted (spec §6: resolve() yields "a binding set, or an
// indication that no further solutions exist").
var ErrNoSolution = errors.New("machine: no solution")

// EngineError is a fatal, unrecoverable runtime fault (spec §7: "Engine
// error — a fixed-size arena overflowed, or a decoded instruction was
// structurally invalid; always fatal, never caught by backtracking").
type EngineError struct {
	Msg string
}

func (e *EngineError) Error() string { return "machine: engine error: " + e.Msg }

// LinkageError reports a call_internal meta-call (call/1, execute/1)
// whose target predicate does not exist at the moment it is invoked
// (spec §7: "Linkage failure — a call names a predicate with no
// compiled definition"). Unlike a logic failure this is never converted
// into a backtrack; it aborts resolution.
type LinkageError struct {
	Name, Arity int
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("machine: linkage failure: predicate name-id %d/%d is undefined", e.Name, e.Arity)
}
