// Package rawstore implements the Raw Store (spec.md C2): an
// append-only, content-addressed store for ingested records prior to
// cleaning and validation, backed by PostgreSQL's COPY protocol for
// bulk writes, grounded on original_source/backend/storage/bulk.py's
// BulkWriter.
package rawstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

const pipelineName = "raw_store"

// Store is the raw record store. It owns no connection lifecycle beyond
// the pool handed to it by the caller.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{pool: pool, log: log.With("component", "rawstore")}
}

// EnsureSchema creates the raw_records table if it doesn't exist. Checksum
// carries a unique constraint: it is the dedup key for bulk_insert. seq is
// a BIGSERIAL assigned at physical insertion time, independent of id (a
// random UUID when the caller supplies none, not sequential); Scan orders
// and resumes by seq so
// spec.md §4.2's "insertion order with a resumable cursor" holds regardless
// of how id is derived.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS raw_records (
			id            TEXT PRIMARY KEY,
			source_id     TEXT NOT NULL,
			payload       JSONB NOT NULL,
			checksum      TEXT NOT NULL UNIQUE,
			file_path     TEXT NOT NULL,
			line_no       BIGINT NOT NULL,
			ingested_at   TIMESTAMPTZ NOT NULL,
			seq           BIGSERIAL
		);
		ALTER TABLE raw_records ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
		CREATE INDEX IF NOT EXISTS raw_records_source_id_seq_idx ON raw_records (source_id, seq);
	`)
	if err != nil {
		return lexerr.New(lexerr.Fatal, pipelineName, "ensure_schema", err)
	}
	return nil
}

// BulkInsertResult reports how many records were newly written versus
// skipped as duplicates (same checksum already present).
type BulkInsertResult struct {
	Inserted  int
	Duplicate int
}

// BulkInsert loads records into a temporary staging table via the binary
// COPY protocol, then merges into raw_records with ON CONFLICT (checksum)
// DO NOTHING, so re-ingesting the same source is idempotent: bulk_insert
// is safe to call twice with overlapping input and never duplicates rows.
func (s *Store) BulkInsert(ctx context.Context, records []*lexdomain.RawRecord) (BulkInsertResult, error) {
	var result BulkInsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return result, lexerr.New(lexerr.Transient, pipelineName, "bulk_insert", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		CREATE TEMPORARY TABLE raw_records_staging (
			id          TEXT,
			source_id   TEXT,
			payload     JSONB,
			checksum    TEXT,
			file_path   TEXT,
			line_no     BIGINT,
			ingested_at TIMESTAMPTZ,
			ordinal     BIGINT
		) ON COMMIT DROP
	`); err != nil {
		return result, lexerr.New(lexerr.Fatal, pipelineName, "bulk_insert", err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		ingestedAt := r.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = time.Now().UTC()
		}
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return result, lexerr.New(lexerr.Invalid, pipelineName, "bulk_insert", err).WithItem(r.Checksum)
		}
		rows[i] = []any{id, r.SourceID, payload, r.Checksum, r.FilePath, r.LineNo, ingestedAt, i}
	}

	copyCount, err := tx.CopyFrom(ctx,
		pgx.Identifier{"raw_records_staging"},
		[]string{"id", "source_id", "payload", "checksum", "file_path", "line_no", "ingested_at", "ordinal"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return result, lexerr.New(lexerr.Fatal, pipelineName, "bulk_insert", err)
	}

	// seq is a BIGSERIAL assigned in the order rows are fed to INSERT, so the
	// subquery orders by ordinal (the batch's original order) after dedup
	// picks each checksum's earliest occurrence, keeping seq a faithful
	// insertion-order cursor even when a batch contains internal duplicates.
	tag, err := tx.Exec(ctx, `
		INSERT INTO raw_records (id, source_id, payload, checksum, file_path, line_no, ingested_at)
		SELECT id, source_id, payload, checksum, file_path, line_no, ingested_at FROM (
			SELECT DISTINCT ON (checksum) id, source_id, payload, checksum, file_path, line_no, ingested_at, ordinal
			FROM raw_records_staging
			ORDER BY checksum, ordinal
		) deduped
		ORDER BY ordinal
		ON CONFLICT (checksum) DO NOTHING
	`)
	if err != nil {
		return result, lexerr.New(lexerr.Fatal, pipelineName, "bulk_insert", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result, lexerr.New(lexerr.Transient, pipelineName, "bulk_insert", err)
	}

	result.Inserted = int(tag.RowsAffected())
	result.Duplicate = int(copyCount) - result.Inserted
	if result.Duplicate < 0 {
		result.Duplicate = 0
	}

	s.log.Debug("bulk_insert_completed", "inserted", result.Inserted, "duplicate", result.Duplicate)
	return result, nil
}

// ScanResult pairs a record with the error encountered decoding its row,
// mirroring the loader Result shape so downstream stages can treat both
// uniformly.
type ScanResult struct {
	Record *lexdomain.RawRecord
	Err    error
}

// Scan streams raw records for a source (or all sources if empty),
// ordered by insertion sequence, resuming from sinceCursor (an id string;
// empty scans from the start) so a crashed pipeline run can pick up where
// it left off without re-reading already-cleaned records. sinceCursor is
// resolved to its insertion sequence number once at the start, since id is
// a random UUID and carries no ordering of its own.
func (s *Store) Scan(ctx context.Context, sourceID, sinceCursor string, batchSize int) (<-chan ScanResult, error) {
	if batchSize <= 0 {
		batchSize = 5000
	}
	out := make(chan ScanResult, batchSize)

	go func() {
		defer close(out)

		sinceSeq, err := s.resolveCursorSeq(ctx, sinceCursor)
		if err != nil {
			select {
			case out <- ScanResult{Err: err}:
			case <-ctx.Done():
			}
			return
		}

		for {
			rows, lastSeq, err := s.scanPage(ctx, sourceID, sinceSeq, batchSize)
			if err != nil {
				select {
				case out <- ScanResult{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if len(rows) == 0 {
				return
			}
			for _, r := range rows {
				select {
				case out <- ScanResult{Record: r}:
				case <-ctx.Done():
					return
				}
			}
			sinceSeq = lastSeq
			if len(rows) < batchSize {
				return
			}
		}
	}()

	return out, nil
}

// resolveCursorSeq maps an id-based cursor (as stored in the checkpoint)
// to the insertion sequence number Scan actually paginates by. An empty
// cursor starts from the beginning.
func (s *Store) resolveCursorSeq(ctx context.Context, cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	var seq int64
	if err := s.pool.QueryRow(ctx, `SELECT seq FROM raw_records WHERE id = $1`, cursor).Scan(&seq); err != nil {
		return 0, lexerr.New(lexerr.Transient, pipelineName, "scan_cursor", err)
	}
	return seq, nil
}

func (s *Store) scanPage(ctx context.Context, sourceID string, sinceSeq int64, limit int) ([]*lexdomain.RawRecord, int64, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if sourceID != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, source_id, payload, checksum, file_path, line_no, ingested_at, seq
			FROM raw_records WHERE source_id = $1 AND seq > $2 ORDER BY seq LIMIT $3
		`, sourceID, sinceSeq, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, source_id, payload, checksum, file_path, line_no, ingested_at, seq
			FROM raw_records WHERE seq > $1 ORDER BY seq LIMIT $2
		`, sinceSeq, limit)
	}
	if err != nil {
		return nil, 0, lexerr.New(lexerr.Transient, pipelineName, "scan", err)
	}
	defer rows.Close()

	var out []*lexdomain.RawRecord
	var lastSeq int64
	for rows.Next() {
		var (
			r       lexdomain.RawRecord
			payload []byte
			seq     int64
		)
		if err := rows.Scan(&r.ID, &r.SourceID, &payload, &r.Checksum, &r.FilePath, &r.LineNo, &r.IngestedAt, &seq); err != nil {
			return nil, 0, lexerr.New(lexerr.Integrity, pipelineName, "scan", err)
		}
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return nil, 0, lexerr.New(lexerr.Integrity, pipelineName, "scan", err)
		}
		out = append(out, &r)
		lastSeq = seq
	}
	if err := rows.Err(); err != nil {
		return nil, 0, lexerr.New(lexerr.Transient, pipelineName, "scan", err)
	}
	return out, lastSeq, nil
}
