// Package typedstore implements the Typed Store (spec.md C5): the
// queryable store of cleaned, validated, embedded entries, with bulk
// upsert and nearest-neighbor vector search. Grounded on
// original_source/backend/storage/repositories.py's EntryRepository and
// bulk.py's bulk_upsert_entries (staging-table + ON CONFLICT pattern).
package typedstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

const pipelineName = "typed_store"

type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
	dims int
}

// New constructs a Store. dims is the embedding vector dimensionality
// used for the pgvector column (the original fixed this at 768; here
// it's a parameter since the embedding service is swappable).
func New(pool *pgxpool.Pool, log *logger.Logger, dims int) *Store {
	return &Store{pool: pool, log: log.With("component", "typedstore"), dims: dims}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE EXTENSION IF NOT EXISTS pg_trgm;
		CREATE TABLE IF NOT EXISTS entries (
			id                   TEXT PRIMARY KEY,
			headword             TEXT NOT NULL,
			ipa                  TEXT NOT NULL,
			language_code        TEXT NOT NULL,
			definition           TEXT NOT NULL,
			etymology            TEXT NOT NULL,
			pos_tag              TEXT NOT NULL,
			embedding            vector(%d),
			raw_ref              TEXT NOT NULL,
			source_id            TEXT NOT NULL,
			pipeline_fingerprint TEXT NOT NULL,
			quality              DOUBLE PRECISION NOT NULL,
			concept_id           TEXT NOT NULL DEFAULT '',
			concept_confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ NOT NULL,
			updated_at           TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS entries_headword_trgm_idx ON entries USING gin (headword gin_trgm_ops);
		CREATE INDEX IF NOT EXISTS entries_language_idx ON entries (language_code);
		CREATE INDEX IF NOT EXISTS entries_embedding_idx ON entries USING ivfflat (embedding vector_cosine_ops);
	`, s.dims))
	if err != nil {
		return lexerr.New(lexerr.Fatal, pipelineName, "ensure_schema", err)
	}
	return nil
}

// BulkUpsert loads entries into a temp staging table then merges into
// entries via INSERT ... ON CONFLICT (id) DO UPDATE. Embedding uses
// COALESCE(EXCLUDED.embedding, entries.embedding): a re-upsert of an
// entry whose embedding hasn't been computed yet (NULL) must not erase
// a previously-written embedding — the original's bulk_upsert_entries
// unconditionally overwrites embedding with EXCLUDED.embedding, which
// would regress an already-embedded entry to NULL on any later
// metadata-only re-upsert. This is a deliberate fix, not a translation
// choice.
func (s *Store) BulkUpsert(ctx context.Context, entries []*lexdomain.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, lexerr.New(lexerr.Transient, pipelineName, "bulk_upsert", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		CREATE TEMPORARY TABLE entries_staging (
			id                   TEXT,
			headword             TEXT,
			ipa                  TEXT,
			language_code        TEXT,
			definition           TEXT,
			etymology            TEXT,
			pos_tag              TEXT,
			embedding            vector(%d),
			raw_ref              TEXT,
			source_id            TEXT,
			pipeline_fingerprint TEXT,
			quality              DOUBLE PRECISION,
			concept_id           TEXT,
			concept_confidence   DOUBLE PRECISION,
			created_at           TIMESTAMPTZ,
			updated_at           TIMESTAMPTZ
		) ON COMMIT DROP
	`, s.dims)); err != nil {
		return 0, lexerr.New(lexerr.Fatal, pipelineName, "bulk_upsert", err)
	}

	now := time.Now().UTC()
	rows := make([][]any, len(entries))
	for i, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		rows[i] = []any{
			id, e.Headword, e.IPA, e.LanguageCode, e.Definition, e.Etymology, e.POSTag,
			embeddingLiteral(e.Embedding), e.RawRef, e.SourceID, e.PipelineFingerprint,
			e.Quality, e.ConceptID, e.ConceptConfidence, createdAt, now,
		}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"entries_staging"},
		[]string{
			"id", "headword", "ipa", "language_code", "definition", "etymology", "pos_tag",
			"embedding", "raw_ref", "source_id", "pipeline_fingerprint", "quality",
			"concept_id", "concept_confidence", "created_at", "updated_at",
		},
		pgx.CopyFromRows(rows),
	); err != nil {
		return 0, lexerr.New(lexerr.Fatal, pipelineName, "bulk_upsert", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO entries (
			id, headword, ipa, language_code, definition, etymology, pos_tag,
			embedding, raw_ref, source_id, pipeline_fingerprint, quality,
			concept_id, concept_confidence, created_at, updated_at
		)
		SELECT
			id, headword, ipa, language_code, definition, etymology, pos_tag,
			embedding, raw_ref, source_id, pipeline_fingerprint, quality,
			concept_id, concept_confidence, created_at, updated_at
		FROM entries_staging
		ON CONFLICT (id) DO UPDATE SET
			headword             = EXCLUDED.headword,
			ipa                  = EXCLUDED.ipa,
			language_code        = EXCLUDED.language_code,
			definition           = EXCLUDED.definition,
			etymology            = EXCLUDED.etymology,
			pos_tag              = EXCLUDED.pos_tag,
			embedding            = COALESCE(EXCLUDED.embedding, entries.embedding),
			raw_ref              = EXCLUDED.raw_ref,
			source_id            = EXCLUDED.source_id,
			pipeline_fingerprint = EXCLUDED.pipeline_fingerprint,
			quality              = EXCLUDED.quality,
			concept_id           = EXCLUDED.concept_id,
			concept_confidence   = EXCLUDED.concept_confidence,
			updated_at           = EXCLUDED.updated_at
	`)
	if err != nil {
		return 0, lexerr.New(lexerr.Fatal, pipelineName, "bulk_upsert", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, lexerr.New(lexerr.Transient, pipelineName, "bulk_upsert", err)
	}

	s.log.Debug("bulk_upsert_completed", "count", tag.RowsAffected())
	return int(tag.RowsAffected()), nil
}

// Get retrieves a single entry by id.
func (s *Store) Get(ctx context.Context, id string) (*lexdomain.Entry, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` FROM entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, lexerr.New(lexerr.Transient, pipelineName, "get", err).WithItem(id)
	}
	return e, nil
}

// KNNResult pairs an entry with its cosine similarity to the query vector.
type KNNResult struct {
	Entry      *lexdomain.Entry
	Similarity float64
}

// KNN performs pgvector cosine nearest-neighbor search, filtering by a
// minimum similarity threshold, grounded on repositories.py's
// similarity_search.
func (s *Store) KNN(ctx context.Context, embedding []float32, limit int, threshold float64) ([]KNNResult, error) {
	rows, err := s.pool.Query(ctx, selectColumns+`,
			1 - (embedding <=> $1::vector) AS similarity
		FROM entries
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) >= $2
		ORDER BY similarity DESC
		LIMIT $3`,
		embeddingLiteral(embedding), threshold, limit)
	if err != nil {
		return nil, lexerr.New(lexerr.Transient, pipelineName, "knn", err)
	}
	defer rows.Close()

	var out []KNNResult
	for rows.Next() {
		e, similarity, err := scanEntryWithSimilarity(rows)
		if err != nil {
			return nil, lexerr.New(lexerr.Integrity, pipelineName, "knn", err)
		}
		out = append(out, KNNResult{Entry: e, Similarity: similarity})
	}
	return out, rows.Err()
}

// Scan streams entries filtered by language code (empty means all),
// ordered by id, resuming from sinceCursor.
func (s *Store) Scan(ctx context.Context, languageCode, sinceCursor string, batchSize int) (<-chan *lexdomain.Entry, <-chan error) {
	if batchSize <= 0 {
		batchSize = 5000
	}
	out := make(chan *lexdomain.Entry, batchSize)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		cursor := sinceCursor
		for {
			query := selectColumns + ` FROM entries WHERE id > $1`
			args := []any{cursor}
			if languageCode != "" {
				query += ` AND language_code = $2 ORDER BY id LIMIT $3`
				args = append(args, languageCode, batchSize)
			} else {
				query += ` ORDER BY id LIMIT $2`
				args = append(args, batchSize)
			}

			rows, err := s.pool.Query(ctx, query, args...)
			if err != nil {
				errc <- lexerr.New(lexerr.Transient, pipelineName, "scan", err)
				return
			}

			var batch []*lexdomain.Entry
			for rows.Next() {
				e, err := scanEntryRows(rows)
				if err != nil {
					rows.Close()
					errc <- lexerr.New(lexerr.Integrity, pipelineName, "scan", err)
					return
				}
				batch = append(batch, e)
			}
			rows.Close()

			if len(batch) == 0 {
				return
			}
			for _, e := range batch {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
			cursor = batch[len(batch)-1].ID
			if len(batch) < batchSize {
				return
			}
		}
	}()

	return out, errc
}

func embeddingLiteral(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
