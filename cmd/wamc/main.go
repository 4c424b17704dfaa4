// Command wamc is the WAM compiler/runtime's CLI (spec §1 [EXPANSION]),
// grounded directly on the teacher's cmd/z80opt/main.go: a cobra root
// command with independent subcommands, each a short RunE returning a
// wrapped error rather than calling os.Exit directly.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ait-kaci/wam/pkg/inst"
	"github.com/ait-kaci/wam/pkg/propcheck"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wamc",
		Short: "WAM compiler and runtime — Horn-clause compiler, byte-coded abstract machine",
	}

	rootCmd.AddCommand(newDemoCmd(), newDisasmCmd(), newFuzzCmd(), newBenchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newDemoCmd runs the literal S1-S7 scenarios from spec.md §8.
func newDemoCmd() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the S1-S7 end-to-end scenarios from the specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(only)
		},
	}
	cmd.Flags().StringVar(&only, "scenario", "", "Run only the named scenario (S1-S7); empty runs all")
	return cmd
}

// newDisasmCmd compiles a demo scenario's program and prints its
// disassembled code buffer, the way cmd/z80opt/main.go's target command
// prints inst.Disassemble output for a parsed sequence.
func newDisasmCmd() *cobra.Command {
	var which string
	cmd := &cobra.Command{
		Use:   "disasm",
		Short: "Disassemble one demo scenario's compiled code buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisasm(which)
		},
	}
	cmd.Flags().StringVar(&which, "scenario", "S1", "Which scenario's program to disassemble (S1-S7)")
	return cmd
}

func runDisasm(which string) error {
	n := newNames()
	var target *scenario
	for _, sc := range scenarios(n) {
		sc := sc
		if sc.Name == which {
			target = &sc
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown scenario %q", which)
	}

	code, err := compileScenarioCode(*target, n.builtins)
	if err != nil {
		return err
	}

	deintern := func(id int) (string, bool) {
		fn, ok := n.interner.Deintern(id)
		if !ok {
			return "", false
		}
		return fn.Name, true
	}

	offset := 0
	for offset < len(code) {
		in, size, err := inst.Disassemble(code, offset)
		if err != nil {
			return fmt.Errorf("disassemble at byte %d: %w", offset, err)
		}
		fmt.Printf("%5d  %s\n", offset, inst.Mnemonic(in, deintern))
		offset += size
	}
	return nil
}

// newFuzzCmd drives pkg/propcheck's worker pool against freshly
// generated programs, the way cmd/z80opt/main.go's stoke command drives
// pkg/stoke.Run and reports a found-count.
func newFuzzCmd() *cobra.Command {
	var rounds int
	var workers int
	var seed int64
	var verbose bool
	var checkpoint string

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run the property-based harness against randomly generated programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			wp := propcheck.NewWorkerPool(workers)
			start := time.Now()
			wp.Run(rounds, seed, verbose)
			checked, found := wp.Stats()

			fmt.Printf("propcheck: %d rounds in %s, %d findings\n", checked, time.Since(start), found)
			for _, f := range wp.Findings.Findings() {
				fmt.Println(f)
			}

			if checkpoint != "" {
				if err := propcheck.SaveCheckpoint(checkpoint, wp.Findings); err != nil {
					return fmt.Errorf("save checkpoint: %w", err)
				}
				fmt.Printf("checkpoint written to %s\n", checkpoint)
			}
			if found > 0 {
				return fmt.Errorf("%d propcheck findings (see above)", found)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 200, "Number of generate+check rounds to run")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of workers (0 = NumCPU)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Base RNG seed (rounds reproduce from seed+index)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print periodic progress")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Write findings to this checkpoint file when done")
	return cmd
}

// newBenchCmd reports compile/resolve throughput over randomly
// generated programs, the way cmd/z80opt/main.go's enumerate command
// reports search-space and timing stats.
func newBenchCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Report compile and resolve throughput over generated programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(n)
		},
	}
	cmd.Flags().IntVar(&n, "n", 500, "Number of programs to compile and resolve")
	return cmd
}
