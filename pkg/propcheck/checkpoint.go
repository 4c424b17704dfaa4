package propcheck

import (
	"encoding/gob"
	"os"

	"github.com/ait-kaci/wam/pkg/ast"
)

func init() {
	gob.Register(ast.Var{})
	gob.Register(ast.Atom{})
	gob.Register(ast.Struct{})
	gob.Register(ast.Cut{})
	gob.Register(ast.ListCell{})
	gob.Register(ast.Disjunction{})
	gob.Register(ast.Conjunction{})
}

// Checkpoint persists a Table's findings between fuzz runs, grounded
// directly on the teacher's pkg/result/checkpoint.go (gob-encode a
// small state struct, register the concrete Term payload types it
// carries).
type Checkpoint struct {
	Findings []*Finding
}

// SaveCheckpoint writes a Table snapshot to path.
func SaveCheckpoint(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(&Checkpoint{Findings: t.Findings()})
}

// LoadCheckpoint reads a Table snapshot previously written by
// SaveCheckpoint, so a long fuzz run can resume after interruption —
// the wiring the teacher's own `enumerate --checkpoint` flag never
// finished (`cmd/z80opt/main.go` leaves it a TODO).
func LoadCheckpoint(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, err
	}
	t := NewTable()
	for _, fnd := range ckpt.Findings {
		t.Add(fnd)
	}
	return t, nil
}
