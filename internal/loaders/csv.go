package loaders

import (
	"context"
	"encoding/csv"
	"os"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

// CSVLoader parses Swadesh-style wordlists: a header row naming a concept
// column and one column per language, each row giving the word for that
// concept in each language. Empty cells and the "-" placeholder are
// skipped; one raw record is emitted per non-empty cell.
type CSVLoader struct{}

func (l *CSVLoader) Load(ctx context.Context, path, sourceID string) (<-chan Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lexerr.New(lexerr.ResourceMissing, "ingest", "csv_open", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, lexerr.New(lexerr.Invalid, "ingest", "csv_header", err)
	}

	conceptCol := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "concept") {
			conceptCol = i
			break
		}
	}

	out := make(chan Result, 256)
	go func() {
		defer f.Close()
		defer close(out)

		var lineNo int64 = 1
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			row, err := r.Read()
			if err != nil {
				break
			}
			lineNo++

			if conceptCol >= len(row) {
				continue
			}
			concept := strings.TrimSpace(row[conceptCol])

			for i, cell := range row {
				if i == conceptCol || i >= len(header) {
					continue
				}
				value := strings.TrimSpace(cell)
				if value == "" || value == "-" {
					continue
				}
				language := strings.TrimSpace(header[i])
				if language == "" {
					continue
				}

				payload := map[string]any{
					"headword":    value,
					"language":    language,
					"definition":  concept,
					"source_type": "swadesh",
				}
				record, err := newRecord(sourceID, path, lineNo, payload)
				if err != nil {
					send(ctx, out, Result{Err: err})
					continue
				}
				send(ctx, out, Result{Record: record})
			}
		}
	}()

	return out, nil
}
