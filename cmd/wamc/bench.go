package main

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/linker"
	"github.com/ait-kaci/wam/pkg/machine"
	"github.com/ait-kaci/wam/pkg/propcheck"
)

// runBench reports compile and resolve throughput over n freshly
// generated programs, in the fmt.Printf banner style of
// cmd/z80opt/main.go's enumerate command (a handful of aligned
// labeled numbers, no table library).
func runBench(n int) error {
	gen := propcheck.NewGenerator(rand.New(rand.NewPCG(1, 2)))

	var compileTotal, resolveTotal time.Duration
	resolved := 0

	for i := 0; i < n; i++ {
		clauses := gen.RandomClauseSet(5)
		query := gen.RandomQuery(clauses)

		start := time.Now()
		l := linker.New()
		c := compiler.NewCompiler(compiler.BuiltinIDs{})
		c.OnPredicate = l.EmitPredicate
		ok := true
		for _, cl := range clauses {
			if err := c.AddClause(cl); err != nil {
				ok = false
				break
			}
		}
		c.EndScope()
		compileTotal += time.Since(start)
		if !ok || len(l.CheckUndefined()) != 0 {
			continue
		}

		start = time.Now()
		r := machine.NewResolver(compiler.BuiltinIDs{}, machine.Options{})
		for _, cl := range clauses {
			if err := r.AddToDomain(cl); err != nil {
				ok = false
				break
			}
		}
		if !ok || len(r.EndScope()) != 0 {
			continue
		}
		if err := r.SetQuery(query); err != nil {
			continue
		}
		for {
			_, err := r.Resolve()
			if err != nil {
				break
			}
		}
		resolveTotal += time.Since(start)
		resolved++
	}

	fmt.Printf("programs generated:   %d\n", n)
	fmt.Printf("programs resolved:    %d\n", resolved)
	fmt.Printf("total compile time:   %s\n", compileTotal)
	fmt.Printf("total resolve time:   %s\n", resolveTotal)
	if n > 0 {
		fmt.Printf("avg compile/program:  %s\n", compileTotal/time.Duration(n))
	}
	if resolved > 0 {
		fmt.Printf("avg resolve/program:  %s\n", resolveTotal/time.Duration(resolved))
	}
	return nil
}
