// Package embedding implements the Embedding Service (spec.md C7):
// encode(texts) -> [vector] with request coalescing, a two-level
// in-memory + Redis cache, and graceful degradation when the cache is
// unavailable. Grounded on
// original_source/backend/storage/cache.py's EmbeddingCache.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Provider is the raw embedding backend, satisfied by
// internal/clients/openai.Client.Embed.
type Provider interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])[:32]
}
