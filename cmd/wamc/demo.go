package main

import (
	"fmt"

	"github.com/ait-kaci/wam/pkg/compiler"
	"github.com/ait-kaci/wam/pkg/machine"
	"github.com/ait-kaci/wam/pkg/result"
	"github.com/ait-kaci/wam/pkg/symbol"
)

// runDemo runs every spec.md §8 scenario (or just the named one) end to
// end through a fresh Resolver and prints each solution as it's found,
// the same "build it, run it, print what happened" shape as
// cmd/z80opt/main.go's enumerate/target commands.
func runDemo(only string) error {
	n := newNames()
	for _, sc := range scenarios(n) {
		if only != "" && sc.Name != only {
			continue
		}
		fmt.Printf("%s: %s\n", sc.Name, sc.Description)
		if err := runScenario(sc, n.builtins, n.interner); err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		fmt.Println()
	}
	return nil
}

func runScenario(sc scenario, builtins compiler.BuiltinIDs, in *symbol.MapInterner) error {
	r := machine.NewResolver(builtins, machine.Options{})
	for _, c := range sc.Clauses {
		if err := r.AddToDomain(c); err != nil {
			return fmt.Errorf("AddToDomain: %w", err)
		}
	}
	if errs := r.EndScope(); len(errs) != 0 {
		return fmt.Errorf("EndScope: %v", errs[0])
	}
	if err := r.SetQuery(sc.Query); err != nil {
		return fmt.Errorf("SetQuery: %w", err)
	}

	count := 0
	for {
		sol, err := r.Resolve()
		if err == machine.ErrNoSolution {
			break
		}
		if err != nil {
			return fmt.Errorf("Resolve: %w", err)
		}
		count++
		fmt.Printf("  solution %d: %s\n", count, formatSolution(sol, in))
	}
	if count == 0 {
		fmt.Println("  (no solutions)")
	}
	return nil
}

func formatSolution(sol result.Solution, in *symbol.MapInterner) string {
	out := ""
	for varID, term := range sol {
		name, _ := in.Deintern(varID)
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%s=%s", name.Name, formatTerm(term, in))
	}
	return out
}

func formatTerm(t result.Term, in *symbol.MapInterner) string {
	switch v := t.(type) {
	case result.Atom:
		name, ok := in.Deintern(v.Name)
		if !ok {
			return fmt.Sprintf("atom(%d)", v.Name)
		}
		return name.Name
	case result.Compound:
		name, _ := in.Deintern(v.Name)
		args := ""
		for i, a := range v.Args {
			if i > 0 {
				args += ","
			}
			args += formatTerm(a, in)
		}
		return fmt.Sprintf("%s(%s)", name.Name, args)
	case result.List:
		return fmt.Sprintf("[%s|%s]", formatTerm(v.Head, in), formatTerm(v.Tail, in))
	case result.Var:
		return fmt.Sprintf("_G%d", v.ID)
	default:
		return fmt.Sprint(t)
	}
}
