package linker

import (
	"encoding/gob"
	"os"
)

// Checkpoint is a serialisable snapshot of link state: the assembled
// code buffer and the call table, without the active query (a query is
// always re-issued by the caller after a reload). Grounded on the
// teacher's pkg/result/checkpoint.go (gob-encode a small state struct to
// a file, register the one custom type it carries).
type Checkpoint struct {
	Code   []byte
	Points map[FuncKey]int
}

func init() {
	gob.Register(FuncKey{})
}

// Snapshot captures the Linker's current code buffer and call table.
func (l *Linker) Snapshot() *Checkpoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	points := make(map[FuncKey]int, len(l.points))
	for k, v := range l.points {
		points[k] = v
	}
	code := make([]byte, len(l.Code))
	copy(code, l.Code)
	return &Checkpoint{Code: code, Points: points}
}

// Restore replaces the Linker's code buffer and call table with a
// previously saved snapshot. Any pending (unresolved) forward-call
// patches are discarded — a checkpoint is only meaningful once taken
// after a successful CheckUndefined.
func (l *Linker) Restore(ck *Checkpoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Code = append([]byte(nil), ck.Code...)
	l.points = make(map[FuncKey]int, len(ck.Points))
	for k, v := range ck.Points {
		l.points[k] = v
	}
	l.pending = map[FuncKey][]codePatch{}
	l.hasQuery = false
}

// SaveCheckpoint writes a Linker snapshot to path.
func SaveCheckpoint(path string, ck *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ck)
}

// LoadCheckpoint reads a Linker snapshot previously written by
// SaveCheckpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ck Checkpoint
	if err := gob.NewDecoder(f).Decode(&ck); err != nil {
		return nil, err
	}
	return &ck, nil
}
