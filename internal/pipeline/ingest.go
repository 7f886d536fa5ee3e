package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/cleaners"
	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	"github.com/yungbote/neurobridge-backend/internal/loaders"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/rawstore"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
	"github.com/yungbote/neurobridge-backend/internal/validators"
)

const ingestPipelineName = "ingest"

// IngestConfig tunes the canonical ingestion pipeline named in spec.md
// §4.6: FileReader -> BulkRawWriter -> RawReader -> CleanerBatch (Nc
// workers) -> ValidatorFilter -> TypedBulkWriter (Kw workers).
// WriterWorkers is accepted but not used: typed-store writes run
// sequentially in RunIngest's own goroutine.
type IngestConfig struct {
	SourceID string
	FilePath string
	Format   loaders.Format

	FileReadBatch  int
	RawWriteBatch  int
	CleanBatch     int
	CleanerWorkers int
	WriteBatch     int
	WriterWorkers  int
	QueueCapMult   int
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	LoadErrors int64
	Duplicate  int64
	Inserted   int64
	Cleaned    int64
	Invalid    int64
	Written    int64
}

// RunIngest executes the full ingestion pipeline for one source file,
// resuming the raw-record scan from checkpoint's last committed cursor
// for SourceID.
func RunIngest(ctx context.Context, cfg IngestConfig, raw *rawstore.Store, typed *typedstore.Store, checkpoint *Checkpoint, sink *ErrorSink, log *logger.Logger) (IngestResult, error) {
	var result IngestResult

	loader, err := loaders.Get(cfg.Format)
	if err != nil {
		return result, err
	}
	loaded, err := loader.Load(ctx, cfg.FilePath, cfg.SourceID)
	if err != nil {
		return result, err
	}

	// Phase 1: FileReader -> BulkRawWriter. Batch loader results and
	// bulk-insert each batch into the raw store.
	rawBatch := make([]*lexdomain.RawRecord, 0, cfg.RawWriteBatch)
	flushRaw := func() error {
		if len(rawBatch) == 0 {
			return nil
		}
		var insertRes rawstore.BulkInsertResult
		err := Retry(ctx, DefaultRetryConfig(), func() error {
			var err error
			insertRes, err = raw.BulkInsert(ctx, rawBatch)
			return err
		})
		if err != nil {
			return lexerr.New(lexerr.Fatal, ingestPipelineName, "bulk_raw_write", err).WithBatch(cfg.SourceID)
		}
		result.Inserted += int64(insertRes.Inserted)
		result.Duplicate += int64(insertRes.Duplicate)
		rawBatch = rawBatch[:0]
		return nil
	}

	for r := range loaded {
		if r.Err != nil {
			result.LoadErrors++
			sink.Record(FailedItem{Stage: "load", Err: r.Err, At: time.Now()})
			continue
		}
		rawBatch = append(rawBatch, r.Record)
		if len(rawBatch) >= cfg.RawWriteBatch {
			if err := flushRaw(); err != nil {
				return result, err
			}
		}
		select {
		case <-sink.Aborted():
			return result, lexerr.New(lexerr.Fatal, ingestPipelineName, "load", errAborted)
		default:
		}
	}
	if err := flushRaw(); err != nil {
		return result, err
	}

	// Phase 2: RawReader -> CleanerBatch -> ValidatorFilter -> TypedBulkWriter.
	cursor := checkpoint.Cursor(cfg.SourceID)
	scanResults, err := raw.Scan(ctx, cfg.SourceID, cursor, cfg.CleanBatch)
	if err != nil {
		return result, err
	}

	fields := cleaners.DefaultFieldPipelines()
	validator := validators.StandardEntryValidator()

	cleanQueue := NewQueue[*lexdomain.RawRecord](cfg.CleanBatch * cfg.QueueCapMult)
	entryQueue := NewQueue[*lexdomain.Entry](cfg.CleanBatch * cfg.QueueCapMult)

	go func() {
		defer close(cleanQueue)
		for sr := range scanResults {
			if sr.Err != nil {
				sink.Record(FailedItem{Stage: "raw_scan", Err: sr.Err, At: time.Now()})
				continue
			}
			if !Send(ctx, cleanQueue, sr.Record) {
				return
			}
		}
	}()

	cleanStage := &Stage[*lexdomain.RawRecord, *lexdomain.Entry]{
		Name:    "clean_validate",
		Workers: cfg.CleanerWorkers,
		Fn: func(ctx context.Context, rec *lexdomain.RawRecord) (*lexdomain.Entry, error) {
			entry := buildEntry(rec, fields)
			ok, errs := validator.Validate(entry)
			entry.ValidationErrors = errs
			entry.Quality = validators.ComputeQualityScore(entry, validator)
			if !ok {
				atomic.AddInt64(&result.Invalid, 1)
				return nil, lexerr.New(lexerr.Invalid, ingestPipelineName, "validate", errValidation).WithItem(entry.ID)
			}
			atomic.AddInt64(&result.Cleaned, 1)
			return entry, nil
		},
		OnError: func(rec *lexdomain.RawRecord, err error) {
			sink.Record(FailedItem{Stage: "clean_validate", ItemRef: rec.ID, Err: err, At: time.Now()})
		},
	}

	stageErr := make(chan error, 1)
	go func() { stageErr <- cleanStage.Run(ctx, cleanQueue, entryQueue) }()

	writeBatch := make([]*lexdomain.Entry, 0, cfg.WriteBatch)
	var lastRawID string
	for entry := range entryQueue {
		writeBatch = append(writeBatch, entry)
		lastRawID = entry.RawRef
		if len(writeBatch) >= cfg.WriteBatch {
			n, err := flushEntries(ctx, typed, writeBatch)
			if err != nil {
				return result, err
			}
			result.Written += int64(n)
			writeBatch = writeBatch[:0]
			checkpoint.Advance(cfg.SourceID, lastRawID, int64(n), 0, 0)
		}
	}
	if len(writeBatch) > 0 {
		n, err := flushEntries(ctx, typed, writeBatch)
		if err != nil {
			return result, err
		}
		result.Written += int64(n)
		checkpoint.Advance(cfg.SourceID, lastRawID, int64(n), 0, 0)
	}

	if err := <-stageErr; err != nil && ctx.Err() == nil {
		return result, lexerr.New(lexerr.Fatal, ingestPipelineName, "clean_validate", err)
	}

	log.Info("ingest_completed",
		"source_id", cfg.SourceID,
		"inserted", result.Inserted,
		"duplicate", result.Duplicate,
		"cleaned", result.Cleaned,
		"invalid", result.Invalid,
		"written", result.Written,
	)
	return result, nil
}

func flushEntries(ctx context.Context, typed *typedstore.Store, batch []*lexdomain.Entry) (int, error) {
	var n int
	err := Retry(ctx, DefaultRetryConfig(), func() error {
		var err error
		n, err = typed.BulkUpsert(ctx, batch)
		return err
	})
	if err != nil {
		return 0, lexerr.New(lexerr.Fatal, ingestPipelineName, "typed_bulk_write", err)
	}
	return n, nil
}

// buildEntry applies the per-field cleaner pipelines to a raw record's
// payload and derives the deterministic entry id, per spec.md §3's
// "id is deterministic: hash of (headword, language_code, primary_gloss)".
func buildEntry(rec *lexdomain.RawRecord, fields cleaners.FieldPipelines) *lexdomain.Entry {
	headword := stringField(rec.Payload, "headword", "word", "lx")
	ipa := stringField(rec.Payload, "ipa", "pronunciation", "ph")
	language := stringField(rec.Payload, "language", "lang_code", "lg")
	definition := stringField(rec.Payload, "definition", "gloss", "de")
	etymology := stringField(rec.Payload, "etymology", "etymology_text", "et")
	posTag := stringField(rec.Payload, "pos_tag", "pos", "ps")

	cleanHW, _, _ := fields.Headword.Apply(headword)
	cleanIPA, _, _ := fields.IPA.Apply(ipa)
	cleanDef, _, _ := fields.Definition.Apply(definition)
	cleanLang, _, _ := fields.LanguageCode.Apply(language)

	return &lexdomain.Entry{
		ID:                  entryID(cleanHW, cleanLang, cleanDef),
		Headword:            cleanHW,
		IPA:                 cleanIPA,
		LanguageCode:        cleanLang,
		Definition:          cleanDef,
		Etymology:           etymology,
		POSTag:              posTag,
		RawRef:              rec.ID,
		SourceID:            rec.SourceID,
		PipelineFingerprint: fields.Fingerprint(),
		CreatedAt:           time.Now().UTC(),
		UpdatedAt:           time.Now().UTC(),
	}
}

func stringField(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func entryID(headword, language, definition string) string {
	sum := sha256.Sum256([]byte(headword + "\x00" + language + "\x00" + definition))
	return "entry_" + hex.EncodeToString(sum[:])[:16]
}

var errValidation = errors.New("entry failed validation")
var errAborted = errors.New("pipeline aborted: error rate exceeded threshold")
