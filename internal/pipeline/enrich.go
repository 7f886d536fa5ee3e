package pipeline

import (
	"context"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/embedding"
	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
)

const enrichPipelineName = "enrich"

// EnrichConfig tunes the canonical enrichment pipeline named in spec.md
// §4.6: EntryReader -> Normalizer -> EmbeddingCacheLookup ->
// EmbeddingBatcher (single-device stage, unordered-ok) ->
// EntryUpdateWriter (Kw workers). RunEnrich has no separate normalizer
// stage: each entry's Definition goes to the embedder as stored. The
// cache lookup happens inside embedding.Service.Encode. WriterWorkers is
// accepted but not used: each batch is written sequentially in
// RunEnrich's own goroutine.
type EnrichConfig struct {
	LanguageCode string // empty = all languages
	EmbedBatch   int
	IdleTimeout  time.Duration
	WriterWorkers int
	QueueCapMult  int
}

// EnrichResult summarizes one enrichment run.
type EnrichResult struct {
	Scanned int64
	Skipped int64 // already embedded
	Embedded int64
	Written int64
}

// RunEnrich streams entries lacking an embedding, batches them for the
// embedding service, and writes the computed vectors back, resuming
// from checkpoint's last committed cursor.
func RunEnrich(ctx context.Context, cfg EnrichConfig, typed *typedstore.Store, embedder *embedding.Service, checkpoint *Checkpoint, sink *ErrorSink, log *logger.Logger) (EnrichResult, error) {
	var result EnrichResult

	cursor := checkpoint.Cursor("enrich:" + cfg.LanguageCode)
	entries, errc := typed.Scan(ctx, cfg.LanguageCode, cursor, cfg.EmbedBatch)

	pending := NewQueue[*lexdomain.Entry](cfg.EmbedBatch * cfg.QueueCapMult)
	go func() {
		defer close(pending)
		for e := range entries {
			result.Scanned++
			if e.HasEmbedding() {
				result.Skipped++
				continue
			}
			if !Send(ctx, pending, e) {
				return
			}
		}
	}()

	batches := NewQueue[[]*lexdomain.Entry](cfg.QueueCapMult)
	batcher := &Batcher[*lexdomain.Entry]{Size: cfg.EmbedBatch, IdleTimeout: cfg.IdleTimeout}
	go batcher.Run(ctx, pending, batches)

	var lastID string
	for batch := range batches {
		if len(batch) == 0 {
			continue
		}
		texts := make([]string, len(batch))
		for i, e := range batch {
			texts[i] = e.Definition
		}

		vectors, err := embedder.Encode(ctx, texts)
		if err != nil {
			sink.Record(FailedItem{Stage: "embed_batch", Err: err, At: time.Now()})
			return result, lexerr.New(lexerr.Fatal, enrichPipelineName, "embed_batch", err)
		}
		for i, e := range batch {
			e.Embedding = vectors[i]
		}
		result.Embedded += int64(len(batch))

		var written int
		err = Retry(ctx, DefaultRetryConfig(), func() error {
			var err error
			written, err = typed.BulkUpsert(ctx, batch)
			return err
		})
		if err != nil {
			return result, lexerr.New(lexerr.Fatal, enrichPipelineName, "entry_update_write", err)
		}
		result.Written += int64(written)
		lastID = batch[len(batch)-1].ID
		checkpoint.Advance("enrich:"+cfg.LanguageCode, lastID, int64(written), 0, 0)
	}

	if err := <-errc; err != nil {
		return result, err
	}

	log.Info("enrich_completed",
		"language_code", cfg.LanguageCode,
		"scanned", result.Scanned,
		"skipped", result.Skipped,
		"embedded", result.Embedded,
		"written", result.Written,
	)
	return result, nil
}
