package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

// Checkpoint is a resumable progress record for one pipeline run,
// persisted to disk so a crashed run can resume without reprocessing,
// grounded on original_source/backend/storage/stream.py's Checkpoint
// class and spec.md §6's persisted checkpoint shape
// (pipeline_name, at, total, processed, succeeded, failed, skipped,
// per_source_cursor).
type Checkpoint struct {
	mu   sync.Mutex
	path string

	PipelineName string            `json:"pipeline_name"`
	At           time.Time         `json:"at"`
	Total        int64             `json:"total"`
	Processed    int64             `json:"processed"`
	Succeeded    int64             `json:"succeeded"`
	Failed       int64             `json:"failed"`
	Skipped      int64             `json:"skipped"`
	PerSource    map[string]string `json:"per_source_cursor"`
}

// LoadCheckpoint reads a checkpoint from path, returning a fresh zero
// checkpoint for pipelineName if the file does not exist.
func LoadCheckpoint(path, pipelineName string) (*Checkpoint, error) {
	c := &Checkpoint{
		path:         path,
		PipelineName: pipelineName,
		PerSource:    make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, lexerr.New(lexerr.Fatal, pipelineName, "checkpoint_load", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, lexerr.New(lexerr.Fatal, pipelineName, "checkpoint_load", err)
	}
	if c.PerSource == nil {
		c.PerSource = make(map[string]string)
	}
	return c, nil
}

// Cursor returns the last committed cursor for sourceID, or "" if none
// is recorded (a fresh start for that source).
func (c *Checkpoint) Cursor(sourceID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.PerSource[sourceID]
}

// Advance records cursor as the last-committed position for sourceID
// and increments the processed/succeeded/failed/skipped counters.
func (c *Checkpoint) Advance(sourceID, cursor string, succeeded, failed, skipped int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PerSource[sourceID] = cursor
	c.Processed += succeeded + failed + skipped
	c.Succeeded += succeeded
	c.Failed += failed
	c.Skipped += skipped
}

// Snapshot returns a copy safe to read without holding the lock further.
func (c *Checkpoint) Snapshot() Checkpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := Checkpoint{
		PipelineName: c.PipelineName,
		At:           time.Now().UTC(),
		Total:        c.Total,
		Processed:    c.Processed,
		Succeeded:    c.Succeeded,
		Failed:       c.Failed,
		Skipped:      c.Skipped,
		PerSource:    make(map[string]string, len(c.PerSource)),
	}
	for k, v := range c.PerSource {
		cp.PerSource[k] = v
	}
	return cp
}

// Save persists the checkpoint to disk atomically (write to a temp file
// in the same directory, then rename) so a crash mid-write never leaves
// a corrupt checkpoint behind.
func (c *Checkpoint) Save() error {
	snap := c.Snapshot()
	snap.At = time.Now().UTC()

	data, err := json.Marshal(snap)
	if err != nil {
		return lexerr.New(lexerr.Fatal, c.PipelineName, "checkpoint_save", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return lexerr.New(lexerr.Fatal, c.PipelineName, "checkpoint_save", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return lexerr.New(lexerr.Fatal, c.PipelineName, "checkpoint_save", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return lexerr.New(lexerr.Fatal, c.PipelineName, "checkpoint_save", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return lexerr.New(lexerr.Fatal, c.PipelineName, "checkpoint_save", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return lexerr.New(lexerr.Fatal, c.PipelineName, "checkpoint_save", err)
	}
	return nil
}

// PeriodicSaver saves the checkpoint to disk every interval until ctx is
// canceled, then performs a final save.
func PeriodicSaver(ctx context.Context, c *Checkpoint, interval time.Duration, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Save(); err != nil && onErr != nil {
				onErr(err)
			}
		case <-ctx.Done():
			if err := c.Save(); err != nil && onErr != nil {
				onErr(err)
			}
			return
		}
	}
}
