package loaders

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

// TEILoader parses TEI-style XML lexicon entries under <entry> elements,
// reading <orth>, <sense><def>, and <etym>. A malformed document is a
// format-level fatal error, returned directly rather than per-record.
type TEILoader struct{}

type teiEntry struct {
	XMLName xml.Name `xml:"entry"`
	Orth    []string `xml:"orth"`
	Senses  []struct {
		Def []string `xml:"def"`
	} `xml:"sense"`
	Etym []string `xml:"etym"`
}

type teiLexicon struct {
	XMLName xml.Name   `xml:"lexicon"`
	Entries []teiEntry `xml:"entry"`
}

func (l *TEILoader) Load(ctx context.Context, path, sourceID string) (<-chan Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lexerr.New(lexerr.ResourceMissing, "ingest", "tei_open", err)
	}

	var doc teiLexicon
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, lexerr.New(lexerr.Invalid, "ingest", "tei_parse", err)
	}

	language := inferTEILanguage(sourceID)

	out := make(chan Result, 256)
	go func() {
		defer close(out)
		for i, entry := range doc.Entries {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if len(entry.Orth) == 0 {
				send(ctx, out, Result{Err: lexerr.New(lexerr.Invalid, "ingest", "tei_entry", fmt.Errorf("entry %d missing <orth>", i))})
				continue
			}

			var defs []string
			for _, s := range entry.Senses {
				defs = append(defs, s.Def...)
			}

			payload := map[string]any{
				"headword":    entry.Orth[0],
				"language":    language,
				"definition":  strings.Join(defs, " | "),
				"etymology":   strings.Join(entry.Etym, " "),
				"source_type": "tei",
			}

			record, err := newRecord(sourceID, path, int64(i+1), payload)
			if err != nil {
				send(ctx, out, Result{Err: err})
				continue
			}
			send(ctx, out, Result{Record: record})
		}
	}()

	return out, nil
}

func inferTEILanguage(sourceID string) string {
	lower := strings.ToLower(sourceID)
	if strings.Contains(lower, "greek") {
		return "grc"
	}
	return "la"
}

