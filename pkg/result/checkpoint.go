package result

import (
	"encoding/gob"
	"os"
)

// Checkpoint persists a Table's solutions between runs of the `bench`/
// `fuzz` CLI commands. Grounded directly on the teacher's
// pkg/result/checkpoint.go (gob-encode a small state struct, register
// the concrete payload types it carries).
type Checkpoint struct {
	Solutions []Solution
}

func init() {
	gob.Register(Var{})
	gob.Register(Atom{})
	gob.Register(Compound{})
	gob.Register(List{})
}

// SaveCheckpoint writes a Table snapshot to path.
func SaveCheckpoint(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(&Checkpoint{Solutions: t.Solutions()})
}

// LoadCheckpoint reads a Table snapshot previously written by
// SaveCheckpoint.
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
	for _, s := range ckpt.Solutions {
		t.Add(s)
	}
	return t, nil
}
