package external

import "context"

// NormalizeOp is one of the recognized normalize_text operations, per
// spec.md §6.
type NormalizeOp string

const (
	OpNFC               NormalizeOp = "nfc"
	OpNFD               NormalizeOp = "nfd"
	OpLowercase         NormalizeOp = "lowercase"
	OpStripDiacritics   NormalizeOp = "strip_diacritics"
	OpStripPunctuation  NormalizeOp = "strip_punctuation"
)

// DictParserClient binds the dictionary parser service's methods.
type DictParserClient struct {
	conn *Conn
}

func NewDictParserClient(conn *Conn) *DictParserClient {
	return &DictParserClient{conn: conn}
}

type ParseStarlingParams struct {
	Text string `json:"text"`
}

type ParseStarlingResult struct {
	Entries []map[string]string `json:"entries"`
}

func (c *DictParserClient) ParseStarling(ctx context.Context, text string) (ParseStarlingResult, error) {
	var out ParseStarlingResult
	err := c.conn.Call(ctx, "parse_starling", ParseStarlingParams{Text: text}, &out)
	return out, err
}

type NormalizeTextParams struct {
	Text string        `json:"text"`
	Ops  []NormalizeOp `json:"ops"`
}

type NormalizeTextResult struct {
	Text string `json:"text"`
}

func (c *DictParserClient) NormalizeText(ctx context.Context, text string, ops []NormalizeOp) (string, error) {
	var out NormalizeTextResult
	err := c.conn.Call(ctx, "normalize_text", NormalizeTextParams{Text: text, Ops: ops}, &out)
	return out.Text, err
}

type ExtractIPAParams struct {
	Text string `json:"text"`
}

type ExtractIPAResult struct {
	IPA string `json:"ipa"`
}

func (c *DictParserClient) ExtractIPA(ctx context.Context, text string) (string, error) {
	var out ExtractIPAResult
	err := c.conn.Call(ctx, "extract_ipa", ExtractIPAParams{Text: text}, &out)
	return out.IPA, err
}

type ValidateIPAParams struct {
	IPA string `json:"ipa"`
}

type ValidateIPAResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (c *DictParserClient) ValidateIPA(ctx context.Context, ipa string) (ValidateIPAResult, error) {
	var out ValidateIPAResult
	err := c.conn.Call(ctx, "validate_ipa", ValidateIPAParams{IPA: ipa}, &out)
	return out, err
}
