package typedstore

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
)

// selectColumns casts embedding to text so it can be scanned without a
// pgvector Go codec — pgvector's wire format is otherwise opaque to a
// plain pgx.Row.Scan call.
const selectColumns = `
	SELECT id, headword, ipa, language_code, definition, etymology, pos_tag,
	       embedding::text, raw_ref, source_id, pipeline_fingerprint, quality,
	       concept_id, concept_confidence, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*lexdomain.Entry, error) {
	var e lexdomain.Entry
	var embeddingText *string

	err := row.Scan(
		&e.ID, &e.Headword, &e.IPA, &e.LanguageCode, &e.Definition, &e.Etymology, &e.POSTag,
		&embeddingText, &e.RawRef, &e.SourceID, &e.PipelineFingerprint, &e.Quality,
		&e.ConceptID, &e.ConceptConfidence, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Embedding = parseEmbedding(embeddingText)
	return &e, nil
}

func scanEntryRows(rows pgx.Rows) (*lexdomain.Entry, error) {
	return scanEntry(rows)
}

func scanEntryWithSimilarity(rows pgx.Rows) (*lexdomain.Entry, float64, error) {
	var e lexdomain.Entry
	var embeddingText *string
	var similarity float64

	err := rows.Scan(
		&e.ID, &e.Headword, &e.IPA, &e.LanguageCode, &e.Definition, &e.Etymology, &e.POSTag,
		&embeddingText, &e.RawRef, &e.SourceID, &e.PipelineFingerprint, &e.Quality,
		&e.ConceptID, &e.ConceptConfidence, &e.CreatedAt, &e.UpdatedAt,
		&similarity,
	)
	if err != nil {
		return nil, 0, err
	}
	e.Embedding = parseEmbedding(embeddingText)
	return &e, similarity, nil
}

func parseEmbedding(text *string) []float32 {
	if text == nil || *text == "" {
		return nil
	}
	trimmed := strings.Trim(*text, "[]")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			continue
		}
		out = append(out, float32(v))
	}
	return out
}
