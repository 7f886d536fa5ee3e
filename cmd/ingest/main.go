// Command ingest runs the canonical ingestion pipeline (spec.md §4.6):
// it streams raw records from a single source file, bulk-loads them
// into the raw store, cleans and validates them in parallel, and
// bulk-writes the resulting typed entries.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yungbote/neurobridge-backend/internal/lexconfig"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	"github.com/yungbote/neurobridge-backend/internal/loaders"
	"github.com/yungbote/neurobridge-backend/internal/pipeline"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/rawstore"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
)

// Exit codes per spec.md §6.
const (
	exitOK        = 0
	exitUsage     = 2
	exitInput     = 65
	exitInternal  = 70
	exitIO        = 74
	exitRetriable = 75
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		file        string
		source      string
		format      string
		workers     int
		loadBatch   int
		cleanBatch  int
		writeBatch  int
	)
	flag.StringVar(&file, "file", "", "path to the source file")
	flag.StringVar(&source, "source", "", "source id")
	flag.StringVar(&format, "format", "", "source format: json|cldf|starling|tei|csv")
	flag.IntVar(&workers, "workers", 0, "cleaner worker count (default: CPU cores)")
	flag.IntVar(&loadBatch, "load-batch", 0, "raw-write batch size")
	flag.IntVar(&cleanBatch, "clean-batch", 0, "clean/read batch size")
	flag.IntVar(&writeBatch, "write-batch", 0, "typed-store write batch size")
	flag.Parse()

	if file == "" || source == "" || format == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest --file F --source S --format {json|cldf|starling|tei|csv} [--workers N] [--load-batch B] [--clean-batch B] [--write-batch B]")
		return exitUsage
	}
	if _, err := os.Stat(file); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
		return exitInput
	}

	log, err := logger.New("development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		return exitInternal
	}
	defer log.Sync()

	cfg := lexconfig.Load(log)
	if workers > 0 {
		cfg.CleanerWorkers = workers
	}
	if loadBatch > 0 {
		cfg.RawWriteBatch = loadBatch
	}
	if cleanBatch > 0 {
		cfg.CleanBatch = cleanBatch
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres connect: %v\n", err)
		return exitIO
	}
	defer pool.Close()

	raw := rawstore.New(pool, log)
	typed := typedstore.New(pool, log, 768)
	if err := raw.EnsureSchema(ctx); err != nil {
		return exitCodeFor(err)
	}
	if err := typed.EnsureSchema(ctx); err != nil {
		return exitCodeFor(err)
	}

	checkpointPath := filepath.Join(cfg.CheckpointDir, "ingest_"+source+".json")
	checkpoint, err := pipeline.LoadCheckpoint(checkpointPath, "ingest")
	if err != nil {
		return exitCodeFor(err)
	}

	saverCtx, stopSaver := context.WithCancel(ctx)
	defer stopSaver()
	go pipeline.PeriodicSaver(saverCtx, checkpoint, cfg.CheckpointInterval, func(err error) {
		log.Warn("checkpoint_save_failed", "error", err)
	})

	sink := pipeline.NewErrorSink(time.Minute, 50, func(rate float64) {
		log.Error("error_rate_exceeded", "rate_per_sec", rate)
	})

	icfg := pipeline.IngestConfig{
		SourceID:       source,
		FilePath:       file,
		Format:         loaders.Format(format),
		FileReadBatch:  cfg.FileReadBatch,
		RawWriteBatch:  cfg.RawWriteBatch,
		CleanBatch:     cfg.CleanBatch,
		CleanerWorkers: cfg.CleanerWorkers,
		WriteBatch:     cfg.CleanBatch,
		WriterWorkers:  cfg.WriterWorkers,
		QueueCapMult:   cfg.QueueCapMult,
	}
	if writeBatch > 0 {
		icfg.WriteBatch = writeBatch
	}

	result, err := pipeline.RunIngest(ctx, icfg, raw, typed, checkpoint, sink, log)
	if err != nil {
		log.Error("ingest_failed", "error", err)
		if saveErr := checkpoint.Save(); saveErr != nil {
			log.Error("final_checkpoint_save_failed", "error", saveErr)
		}
		return exitCodeFor(err)
	}

	if err := checkpoint.Save(); err != nil {
		log.Error("final_checkpoint_save_failed", "error", err)
	}

	fmt.Printf("ingest complete: inserted=%d duplicate=%d cleaned=%d invalid=%d written=%d\n",
		result.Inserted, result.Duplicate, result.Cleaned, result.Invalid, result.Written)
	return exitOK
}

func exitCodeFor(err error) int {
	switch {
	case lexerr.IsKind(err, lexerr.Invalid):
		return exitInput
	case lexerr.IsKind(err, lexerr.ResourceMissing):
		return exitIO
	case lexerr.IsKind(err, lexerr.Transient):
		return exitRetriable
	case lexerr.IsKind(err, lexerr.Integrity):
		return exitInternal
	default:
		return exitInternal
	}
}
