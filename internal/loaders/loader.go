// Package loaders streams raw lexical records from heterogeneous source
// file formats in constant memory, checksumming each record for later
// deduplication by the raw store.
package loaders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

// Format names a supported source format, matching the CLI's --format flag.
type Format string

const (
	FormatJSON    Format = "json"
	FormatKaikki  Format = "kaikki"
	FormatCLDF    Format = "cldf"
	FormatStarling Format = "starling"
	FormatTEI     Format = "tei"
	FormatCSV     Format = "csv"
)

// Result is either a successfully parsed raw record or a per-record error
// that the loader recovered from and is reporting, not aborting on.
type Result struct {
	Record *lexdomain.RawRecord
	Err    error
}

// Loader produces a lazy, finite sequence of raw records from a single
// input path. Implementations MUST NOT buffer the whole file in memory;
// only per-record parsing state is allowed to grow with input size.
type Loader interface {
	// Load streams results on the returned channel until the file is
	// exhausted or ctx is canceled. Format-level fatal errors (e.g. an
	// unparseable document root) are returned directly, not sent on the
	// channel, and the channel is closed without further sends.
	Load(ctx context.Context, path, sourceID string) (<-chan Result, error)
}

// Get resolves a Loader for the named format.
func Get(format Format) (Loader, error) {
	switch format {
	case FormatJSON, FormatKaikki:
		return &JSONLLoader{}, nil
	case FormatCLDF:
		return &CLDFLoader{}, nil
	case FormatStarling:
		return &StarlingLoader{}, nil
	case FormatTEI:
		return &TEILoader{}, nil
	case FormatCSV:
		return &CSVLoader{}, nil
	default:
		return nil, lexerr.New(lexerr.Invalid, "ingest", "loader_resolve", fmt.Errorf("unsupported format %q", format))
	}
}

// Checksum computes a stable content hash over a record payload: JSON
// marshaling of a map[string]any sorts keys alphabetically, which gives a
// canonical key order. String values are hashed as the loader read them;
// no Unicode normalization is applied before hashing.
func Checksum(payload map[string]any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func newRecord(sourceID, filePath string, lineNo int64, payload map[string]any) (*lexdomain.RawRecord, error) {
	checksum, err := Checksum(payload)
	if err != nil {
		return nil, err
	}
	return &lexdomain.RawRecord{
		SourceID: sourceID,
		Payload:  payload,
		Checksum: checksum,
		FilePath: filePath,
		LineNo:   lineNo,
	}, nil
}
