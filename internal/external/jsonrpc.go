// Package external implements client-only bindings for the two remote
// collaborators named in spec.md §6: the phylogenetic service and the
// dictionary parser service. Both speak newline-delimited JSON-RPC; this
// package owns only the client side, per spec.md's Non-goals (the
// services themselves are out of scope).
package external

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
)

type rpcRequest struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params any             `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Conn is the newline-JSON-RPC transport: one request, one response,
// one line each, matching spec.md §6's "newline-delimited JSON-RPC"
// wording for both external services.
type Conn struct {
	mu     sync.Mutex
	nextID int64
	rw     io.ReadWriter
	reader *bufio.Reader
	name   string
}

func NewConn(rw io.ReadWriter, name string) *Conn {
	return &Conn{rw: rw, reader: bufio.NewReader(rw), name: name}
}

// Call sends one request and blocks for its matching response. The
// transport is strictly request-response (no pipelining), so the mutex
// serializes concurrent callers rather than risking interleaved lines.
func (c *Conn) Call(ctx context.Context, method string, params any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := atomic.AddInt64(&c.nextID, 1)
	req := rpcRequest{ID: id, Method: method, Params: params}

	line, err := json.Marshal(req)
	if err != nil {
		return lexerr.New(lexerr.Invalid, c.name, method, err)
	}
	line = append(line, '\n')

	if _, err := c.rw.Write(line); err != nil {
		return lexerr.New(lexerr.Transient, c.name, method, err)
	}

	respLine, err := c.reader.ReadBytes('\n')
	if err != nil {
		return lexerr.New(lexerr.Transient, c.name, method, err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(respLine, &resp); err != nil {
		return lexerr.New(lexerr.Integrity, c.name, method, err)
	}
	if resp.ID != id {
		return lexerr.New(lexerr.Integrity, c.name, method, fmt.Errorf("response id %d does not match request id %d", resp.ID, id))
	}
	if resp.Error != nil {
		return lexerr.New(lexerr.Transient, c.name, method, fmt.Errorf("%s: %s", method, resp.Error.Message))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return lexerr.New(lexerr.Integrity, c.name, method, err)
	}
	return nil
}
