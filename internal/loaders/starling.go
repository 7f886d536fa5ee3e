package loaders

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

// StarlingLoader parses Starling-style backslash-marker blocks, separated
// by blank lines, each line `\<marker> <value>` with marker in
// {lx, ph, lg, ps, de, et}. A new \lx marker starts a fresh entry; the
// last open entry is flushed at EOF.
type StarlingLoader struct{}

var starlingFieldKeys = map[string]string{
	"lx": "headword",
	"ph": "ipa",
	"lg": "language",
	"ps": "pos_tag",
	"de": "definition",
	"et": "etymology",
}

func (l *StarlingLoader) Load(ctx context.Context, path, sourceID string) (<-chan Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lexerr.New(lexerr.ResourceMissing, "ingest", "starling_open", err)
	}

	out := make(chan Result, 256)
	go func() {
		defer f.Close()
		defer close(out)

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

		current := map[string]any{}
		startLine := int64(0)
		var lineNo int64

		flush := func() {
			if len(current) == 0 {
				return
			}
			current["source_type"] = "starling"
			record, err := newRecord(sourceID, path, startLine, current)
			if err != nil {
				send(ctx, out, Result{Err: err})
			} else {
				send(ctx, out, Result{Record: record})
			}
			current = map[string]any{}
		}

		for scanner.Scan() {
			lineNo++
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				flush()
				continue
			}
			if !strings.HasPrefix(trimmed, "\\") {
				continue
			}

			rest := trimmed[1:]
			sp := strings.IndexAny(rest, " \t")
			if sp < 0 {
				continue
			}
			marker := rest[:sp]
			value := strings.TrimSpace(rest[sp+1:])

			field, ok := starlingFieldKeys[marker]
			if !ok {
				continue
			}
			if marker == "lx" && len(current) > 0 {
				flush()
			}
			if len(current) == 0 {
				startLine = lineNo
			}
			if field == "ipa" {
				value = strings.Trim(value, "[]")
			}
			current[field] = value
		}
		flush()

		if err := scanner.Err(); err != nil {
			send(ctx, out, Result{Err: lexerr.New(lexerr.Invalid, "ingest", "starling_scan", err)})
		}
	}()

	return out, nil
}
