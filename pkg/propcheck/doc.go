// Package propcheck is the Property Harness (spec §8 [EXPANSION]): a
// concurrent fuzz loop that generates small random Horn-clause programs
// and checks them against the invariants spec.md §8 states in prose.
// It is the one ambient component the teacher repository has no direct
// analogue for as a single file, but its three pieces each map onto a
// teacher file: the generator is the teacher's pkg/stoke.Mutator
// transplanted from instruction sequences to clause sets, the checkers
// are the teacher's pkg/search.QuickCheck/Fingerprint shape applied to
// decoded query solutions instead of CPU states, and the WorkerPool is
// the teacher's pkg/search/worker.go almost unchanged (channel of
// seeds, atomic counters, a ticker goroutine). See DESIGN.md for the
// per-piece grounding.
package propcheck
