package loaders

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

// CLDFLoader reads a CLDF dataset: a JSON metadata descriptor referencing
// delimited tables, of which this loader consumes the FormTable (columns
// Form, Language_ID, Parameter_ID, Segments, Source, Comment).
type CLDFLoader struct{}

type cldfDescriptor struct {
	Tables []struct {
		URL         string `json:"url"`
		ConformsTo  string `json:"dc:conformsTo"`
		TableSchema struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"tableSchema"`
	} `json:"tables"`
}

func (l *CLDFLoader) Load(ctx context.Context, path, sourceID string) (<-chan Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lexerr.New(lexerr.ResourceMissing, "ingest", "cldf_open", err)
	}

	var desc cldfDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, lexerr.New(lexerr.Invalid, "ingest", "cldf_descriptor", err)
	}

	formTableURL := ""
	for _, t := range desc.Tables {
		if strings.Contains(strings.ToLower(t.ConformsTo), "formtable") || strings.Contains(strings.ToLower(t.URL), "form") {
			formTableURL = t.URL
			break
		}
	}
	if formTableURL == "" {
		return nil, lexerr.New(lexerr.Invalid, "ingest", "cldf_descriptor", errNoFormTable)
	}

	tablePath := filepath.Join(filepath.Dir(path), formTableURL)
	f, err := os.Open(tablePath)
	if err != nil {
		return nil, lexerr.New(lexerr.ResourceMissing, "ingest", "cldf_open_table", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, lexerr.New(lexerr.Invalid, "ingest", "cldf_table_header", err)
	}
	idx := columnIndex(header)

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

			headword := cellAt(row, idx, "Form")
			language := cellAt(row, idx, "Language_ID")
			if headword == "" || language == "" {
				send(ctx, out, Result{Err: lexerr.New(lexerr.Invalid, "ingest", "cldf_row", errMissingField)})
				continue
			}

			payload := map[string]any{
				"headword":    headword,
				"language":    language,
				"definition":  cellAt(row, idx, "Parameter_ID"),
				"source_type": "cldf",
			}
			record, err := newRecord(sourceID, tablePath, lineNo, payload)
			if err != nil {
				send(ctx, out, Result{Err: err})
				continue
			}
			send(ctx, out, Result{Record: record})
		}
	}()

	return out, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func cellAt(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var errNoFormTable = &loaderConfigError{"no FormTable referenced in CLDF descriptor"}
var errMissingField = &loaderConfigError{"row missing Form or Language_ID"}

type loaderConfigError struct{ msg string }

func (e *loaderConfigError) Error() string { return e.msg }
