package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/loaders"
	"github.com/yungbote/neurobridge-backend/internal/rawstore"
	"github.com/yungbote/neurobridge-backend/internal/storetest"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
)

const kaikkiFixture = `{"word":"father","lang_code":"en","pos":"n","senses":[{"glosses":["a male parent"]}],"sounds":[{"ipa":"/ˈfɑːðər/"}],"etymology_text":"from Old English faeder"}
{"word":"Vater","lang_code":"de","pos":"n","senses":[{"glosses":["a male parent"]}],"sounds":[{"ipa":"/ˈfaːtɐ/"}],"etymology_text":"from Proto-Germanic *fader"}
`

func TestRunIngest_LoadsCleansValidatesWrites(t *testing.T) {
	ctx := context.Background()
	pool := storetest.Pool(t)
	log := storetest.Logger(t)

	raw := rawstore.New(pool, log)
	if err := raw.EnsureSchema(ctx); err != nil {
		t.Fatalf("raw.EnsureSchema: %v", err)
	}
	typed := typedstore.New(pool, log, 8)
	if err := typed.EnsureSchema(ctx); err != nil {
		t.Fatalf("typed.EnsureSchema: %v", err)
	}
	storetest.TruncateTables(t, pool, "entries", "raw_records")

	dir := t.TempDir()
	fixture := filepath.Join(dir, "source.jsonl")
	if err := os.WriteFile(fixture, []byte(kaikkiFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	checkpoint, err := LoadCheckpoint(filepath.Join(dir, "checkpoint.json"), "ingest_test")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	sink := NewErrorSink(time.Minute, 1.0, nil)

	cfg := IngestConfig{
		SourceID:       "kaikki_test",
		FilePath:       fixture,
		Format:         loaders.FormatKaikki,
		FileReadBatch:  10,
		RawWriteBatch:  10,
		CleanBatch:     10,
		CleanerWorkers: 2,
		WriteBatch:     10,
		WriterWorkers:  2,
		QueueCapMult:   4,
	}

	result, err := RunIngest(ctx, cfg, raw, typed, checkpoint, sink, log)
	if err != nil {
		t.Fatalf("RunIngest: %v", err)
	}
	if result.Inserted != 2 {
		t.Fatalf("got %d raw inserted, want 2", result.Inserted)
	}
	if result.Cleaned != 2 {
		t.Fatalf("got %d cleaned, want 2", result.Cleaned)
	}
	if result.Written != 2 {
		t.Fatalf("got %d written, want 2", result.Written)
	}

	father, err := typed.Get(ctx, entryID("father", "en", "a male parent"))
	if err != nil {
		t.Fatalf("Get father entry: %v", err)
	}
	if father.Headword != "father" || father.LanguageCode != "en" {
		t.Fatalf("got %+v, want father/en entry", father)
	}

	if cursor := checkpoint.Cursor(cfg.SourceID); cursor == "" {
		t.Fatalf("expected checkpoint to advance a cursor for %s", cfg.SourceID)
	}

	// Re-running over the same file must not duplicate raw records or
	// re-clean already-written entries beyond what re-validation produces.
	checkpoint2, err := LoadCheckpoint(filepath.Join(dir, "checkpoint.json"), "ingest_test")
	if err != nil {
		t.Fatalf("LoadCheckpoint (reload): %v", err)
	}
	sink2 := NewErrorSink(time.Minute, 1.0, nil)
	result2, err := RunIngest(ctx, cfg, raw, typed, checkpoint2, sink2, log)
	if err != nil {
		t.Fatalf("RunIngest (rerun): %v", err)
	}
	if result2.Duplicate != 2 || result2.Inserted != 0 {
		t.Fatalf("got %+v, want rerun to see both records as duplicates", result2)
	}
}

func TestRunIngest_InvalidFormatReturnsError(t *testing.T) {
	ctx := context.Background()
	pool := storetest.Pool(t)
	log := storetest.Logger(t)

	raw := rawstore.New(pool, log)
	typed := typedstore.New(pool, log, 8)

	dir := t.TempDir()
	checkpoint, err := LoadCheckpoint(filepath.Join(dir, "checkpoint.json"), "ingest_test")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	sink := NewErrorSink(time.Minute, 1.0, nil)

	cfg := IngestConfig{SourceID: "bad", FilePath: "missing.jsonl", Format: loaders.Format("nope")}
	if _, err := RunIngest(ctx, cfg, raw, typed, checkpoint, sink, log); err == nil {
		t.Fatalf("expected an error for an unsupported format")
	}
}
