package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

const pipelineName = "embedding"

// Stats are cumulative hit/miss counters across both cache levels,
// mirroring cache.py's EmbeddingCache.stats property.
type Stats struct {
	L1Hits   int64
	RedisHits int64
	Misses   int64
	Writes   int64
}

// HitRate is (l1 hits + redis hits) / total requests, or 0 if no
// requests have been made yet.
func (s Stats) HitRate() float64 {
	total := s.L1Hits + s.RedisHits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.L1Hits+s.RedisHits) / float64(total)
}

// Service is the batching, caching embedding service. A nil redis client
// degrades gracefully to L1-only caching, matching cache.py's behavior
// when REDIS_AVAILABLE is false.
type Service struct {
	provider Provider
	redis    *goredis.Client
	log      *logger.Logger

	l1    *lruCache
	l1Mu  sync.Mutex
	ttl   time.Duration

	hits1, hitsR, misses, writes int64
}

func New(provider Provider, redisClient *goredis.Client, l1Capacity int, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		provider: provider,
		redis:    redisClient,
		log:      log.With("component", "embedding"),
		l1:       newLRUCache(l1Capacity),
		ttl:      ttl,
	}
}

// Encode returns embeddings for texts in input order, filling from L1,
// then Redis, then the provider for any remaining misses — coalescing
// the provider call into a single batch request for all cache misses
// rather than one request per text.
func (s *Service) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	var missIdx []int
	var missTexts []string

	s.l1Mu.Lock()
	for i, t := range texts {
		if v, ok := s.l1.get(cacheKey(t)); ok {
			out[i] = v
			atomic.AddInt64(&s.hits1, 1)
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	s.l1Mu.Unlock()

	if len(missIdx) == 0 {
		return out, nil
	}

	redisMissIdx, redisMissTexts := s.fillFromRedis(ctx, missIdx, missTexts, out)
	if len(redisMissIdx) == 0 {
		return out, nil
	}

	vectors, err := s.provider.Embed(ctx, redisMissTexts)
	if err != nil {
		return nil, lexerr.New(lexerr.Transient, pipelineName, "encode", err)
	}
	if len(vectors) != len(redisMissTexts) {
		return nil, lexerr.New(lexerr.Integrity, pipelineName, "encode", errMismatch(len(vectors), len(redisMissTexts)))
	}

	for i, idx := range redisMissIdx {
		out[idx] = vectors[i]
		atomic.AddInt64(&s.misses, 1)
		s.writeThrough(ctx, redisMissTexts[i], vectors[i])
	}

	return out, nil
}

// fillFromRedis attempts to resolve misses from the L2 cache via a
// pipelined MGET, returning the indices/texts still unresolved. Any
// Redis error is treated as a cache miss rather than a fatal error —
// the service degrades gracefully rather than failing the batch.
func (s *Service) fillFromRedis(ctx context.Context, idx []int, texts []string, out [][]float32) ([]int, []string) {
	if s.redis == nil {
		return idx, texts
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(t)
	}

	vals, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		s.log.Debug("redis_mget_failed", "error", err)
		return idx, texts
	}

	var stillMissIdx []int
	var stillMissTexts []string
	for i, v := range vals {
		if v == nil {
			stillMissIdx = append(stillMissIdx, idx[i])
			stillMissTexts = append(stillMissTexts, texts[i])
			continue
		}
		raw, ok := v.(string)
		if !ok {
			stillMissIdx = append(stillMissIdx, idx[i])
			stillMissTexts = append(stillMissTexts, texts[i])
			continue
		}
		vec := decodeVector(raw)
		out[idx[i]] = vec
		atomic.AddInt64(&s.hitsR, 1)
		s.l1Mu.Lock()
		s.l1.set(cacheKey(texts[i]), vec)
		s.l1Mu.Unlock()
	}

	return stillMissIdx, stillMissTexts
}

func (s *Service) writeThrough(ctx context.Context, text string, vec []float32) {
	key := cacheKey(text)

	s.l1Mu.Lock()
	s.l1.set(key, vec)
	s.l1Mu.Unlock()

	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, encodeVector(vec), s.ttl).Err(); err != nil {
		s.log.Debug("redis_set_failed", "error", err)
		return
	}
	atomic.AddInt64(&s.writes, 1)
}

// Stats returns a snapshot of cumulative cache statistics.
func (s *Service) Stats() Stats {
	return Stats{
		L1Hits:    atomic.LoadInt64(&s.hits1),
		RedisHits: atomic.LoadInt64(&s.hitsR),
		Misses:    atomic.LoadInt64(&s.misses),
		Writes:    atomic.LoadInt64(&s.writes),
	}
}
