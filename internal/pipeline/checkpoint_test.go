package pipeline

import (
	"path/filepath"
	"testing"
)

func TestCheckpoint_LoadMissingReturnsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	c, err := LoadCheckpoint(path, "ingest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PipelineName != "ingest" {
		t.Fatalf("got %q, want ingest", c.PipelineName)
	}
	if c.Cursor("src-1") != "" {
		t.Fatalf("expected empty cursor for a fresh checkpoint")
	}
}

func TestCheckpoint_SaveAndReloadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.json")
	c, err := LoadCheckpoint(path, "ingest")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	c.Advance("src-1", "raw_000010", 8, 1, 1)
	c.Advance("src-2", "raw_000003", 3, 0, 0)

	if err := c.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := LoadCheckpoint(path, "ingest")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Cursor("src-1") != "raw_000010" {
		t.Fatalf("got %q, want raw_000010", reloaded.Cursor("src-1"))
	}
	if reloaded.Cursor("src-2") != "raw_000003" {
		t.Fatalf("got %q, want raw_000003", reloaded.Cursor("src-2"))
	}

	snap := reloaded.Snapshot()
	if snap.Processed != 13 || snap.Succeeded != 11 || snap.Failed != 1 || snap.Skipped != 1 {
		t.Fatalf("got %+v, want processed=13 succeeded=11 failed=1 skipped=1", snap)
	}
}
