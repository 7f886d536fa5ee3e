package loaders

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

// JSONLLoader streams line-delimited JSON objects in Wiktionary/Kaikki
// shape: word, lang_code or lang, pos, senses[].glosses[], sounds[].ipa,
// etymology_text. Malformed lines are recorded and skipped; the loader
// never aborts on a single bad line.
type JSONLLoader struct{}

type kaikkiRecord struct {
	Word     string `json:"word"`
	LangCode string `json:"lang_code"`
	Lang     string `json:"lang"`
	POS      string `json:"pos"`
	Senses   []struct {
		Glosses []string `json:"glosses"`
	} `json:"senses"`
	Sounds []struct {
		IPA string `json:"ipa"`
	} `json:"sounds"`
	EtymologyText string `json:"etymology_text"`
}

func (l *JSONLLoader) Load(ctx context.Context, path, sourceID string) (<-chan Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lexerr.New(lexerr.ResourceMissing, "ingest", "jsonl_open", err)
	}

	out := make(chan Result, 256)
	go func() {
		defer f.Close()
		defer close(out)

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		var lineNo int64

		for scanner.Scan() {
			lineNo++
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			var rec kaikkiRecord
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				send(ctx, out, Result{Err: fmt.Errorf("line %d: invalid json: %w", lineNo, err)})
				continue
			}

			headword := rec.Word
			language := rec.LangCode
			if language == "" {
				language = rec.Lang
			}
			if headword == "" || language == "" {
				send(ctx, out, Result{Err: fmt.Errorf("line %d: missing headword or language", lineNo)})
				continue
			}

			var ipa string
			for _, s := range rec.Sounds {
				if s.IPA != "" {
					ipa = s.IPA
					break
				}
			}

			var glosses []string
			for _, sense := range rec.Senses {
				glosses = append(glosses, sense.Glosses...)
			}
			definition := strings.Join(glosses, " | ")

			payload := map[string]any{
				"headword":   headword,
				"ipa":        ipa,
				"language":   language,
				"definition": definition,
				"etymology":  rec.EtymologyText,
				"pos_tag":    rec.POS,
				"source_type": "wiktionary",
			}

			record, err := newRecord(sourceID, path, lineNo, payload)
			if err != nil {
				send(ctx, out, Result{Err: fmt.Errorf("line %d: %w", lineNo, err)})
				continue
			}
			send(ctx, out, Result{Record: record})
		}

		if err := scanner.Err(); err != nil {
			send(ctx, out, Result{Err: lexerr.New(lexerr.Invalid, "ingest", "jsonl_scan", err)})
		}
	}()

	return out, nil
}

func send(ctx context.Context, out chan<- Result, r Result) {
	select {
	case out <- r:
	case <-ctx.Done():
	}
}
