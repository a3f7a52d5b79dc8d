// Package checkpoint persists and resumes runner.PlanSnapshots. A
// checkpoint is written by the aggregator goroutine alone, never by a
// worker, per spec §5, and survives a crash by writing to a temp file
// and renaming it into place only once the write is complete.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/dicelab/fairsim/corefmt"
	"github.com/dicelab/fairsim/errs"
	"github.com/dicelab/fairsim/runner"
)

// DefaultMaxAge is how long a checkpoint file survives before Prune
// removes it, per spec §6's max_checkpoint_age_days default.
const DefaultMaxAge = 30 * 24 * time.Hour

// maxSnapshotBytes caps a single decoded snapshot frame. Checkpoints
// are trusted local files, so this is generous headroom rather than a
// tight bound.
const maxSnapshotBytes = 1 << 30

// Writer implements runner.CheckpointSink: it zstd-compresses the
// snapshot's JSON encoding and writes it atomically under dir.
type Writer struct {
	dir  string
	name string
}

// New constructs a Writer rooted at dir. name identifies the plan
// (e.g. the command invocation's run name) so concurrent plans don't
// collide on the same checkpoint file.
func New(dir, name string) *Writer {
	return &Writer{dir: dir, name: name}
}

// Write zstd-compresses snapshot's JSON encoding and atomically
// replaces the checkpoint file for this Writer's name.
func (w *Writer) Write(snapshot runner.PlanSnapshot) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: mkdir")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: marshal snapshot")
	}

	finalPath := w.path()
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: create temp file")
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: create zstd writer")
	}
	if err := corefmt.WriteBlobFrame(zw, payload); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: write compressed snapshot")
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: close zstd writer")
	}
	if err := f.Close(); err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: close temp file")
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: rename into place")
	}
	return nil
}

func (w *Writer) path() string {
	return filepath.Join(w.dir, fmt.Sprintf("%s.checkpoint.zst", w.name))
}

// Load reads back the checkpoint written for this Writer's name. It
// returns os.ErrNotExist (wrapped) if no checkpoint exists yet, which
// callers treat as "start fresh".
func (w *Writer) Load() (*runner.PlanSnapshot, error) {
	return Load(w.path())
}

// Load reads and decompresses the checkpoint at path.
func Load(path string) (*runner.PlanSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: create zstd reader")
	}
	defer zr.Close()

	payload, err := corefmt.ReadBlobFrame(zr, maxSnapshotBytes)
	if err != nil {
		return nil, errs.WrapCode(errs.CodeStateCorrupt, err, "checkpoint: read snapshot frame")
	}

	var snapshot runner.PlanSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, errs.WrapCode(errs.CodeStateCorrupt, err, "checkpoint: decode snapshot")
	}
	return &snapshot, nil
}

// CompletedSet turns a loaded snapshot's CompletedSessionIDs into the
// lookup shape runner.Options.Resume expects.
func CompletedSet(snapshot *runner.PlanSnapshot) map[string]bool {
	out := make(map[string]bool, len(snapshot.CompletedSessionIDs))
	for _, id := range snapshot.CompletedSessionIDs {
		out[id] = true
	}
	return out
}

// Prune deletes checkpoint files under dir older than maxAge.
func Prune(dir string, maxAge time.Duration) error {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: read dir")
	}
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zst" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	return nil
}

// List returns checkpoint names under dir (without the .checkpoint.zst
// suffix), newest first, for the `recovery list` command surface.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.WrapCode(errs.CodeSinkIO, err, "checkpoint: read dir")
	}
	type nameTime struct {
		name string
		t    time.Time
	}
	var names []nameTime
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		const suffix = ".checkpoint.zst"
		if len(e.Name()) <= len(suffix) || e.Name()[len(e.Name())-len(suffix):] != suffix {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		names = append(names, nameTime{name: e.Name()[:len(e.Name())-len(suffix)], t: info.ModTime()})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].t.After(names[j].t) })
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.name
	}
	return out, nil
}
