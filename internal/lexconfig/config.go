// Package lexconfig loads runtime configuration for the ingest and process
// CLIs from environment variables (with flag overrides applied by the
// caller), logging any fallback to a default the way the rest of the
// codebase does.
package lexconfig

import (
	"runtime"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/platform/envutil"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Config holds the tunables named in spec.md §4.6 and §6's CLI surface.
type Config struct {
	PostgresDSN string
	RedisAddr   string

	FileReadBatch  int
	RawWriteBatch  int
	CleanBatch     int
	CleanerWorkers int
	EmbedBatch     int
	WriterWorkers  int
	QueueCapMult   int

	CheckpointInterval time.Duration
	CheckpointDir      string

	EmbeddingCacheTTL time.Duration

	GraphThreshold      float64
	PageRankDamping     float64
	PageRankIterations  int

	ConceptMinClusterSize int
	ConceptMinSamples     int
	ConceptMinSimilarity  float64

	LogMode string
}

func Load(log *logger.Logger) Config {
	cfg := Config{
		PostgresDSN: envutil.String("LEXICORE_POSTGRES_DSN", "postgres://localhost:5432/lexicore?sslmode=disable"),
		RedisAddr:   envutil.String("LEXICORE_REDIS_ADDR", "localhost:6379"),

		FileReadBatch:  envutil.Int("LEXICORE_FILE_READ_BATCH", 20000),
		RawWriteBatch:  envutil.Int("LEXICORE_RAW_WRITE_BATCH", 10000),
		CleanBatch:     envutil.Int("LEXICORE_CLEAN_BATCH", 5000),
		CleanerWorkers: envutil.Int("LEXICORE_CLEANER_WORKERS", runtime.NumCPU()),
		EmbedBatch:     envutil.Int("LEXICORE_EMBED_BATCH", 512),
		WriterWorkers:  envutil.Int("LEXICORE_WRITER_WORKERS", 4),
		QueueCapMult:   envutil.Int("LEXICORE_QUEUE_CAP_MULT", 2),

		CheckpointInterval: envutil.Duration("LEXICORE_CHECKPOINT_INTERVAL", 10*time.Second),
		CheckpointDir:      envutil.String("LEXICORE_CHECKPOINT_DIR", "./.checkpoints"),

		EmbeddingCacheTTL: envutil.Duration("LEXICORE_EMBED_CACHE_TTL", 7*24*time.Hour),

		GraphThreshold:     envutil.Float("LEXICORE_GRAPH_THRESHOLD", 0.7),
		PageRankDamping:    envutil.Float("LEXICORE_PAGERANK_DAMPING", 0.85),
		PageRankIterations: envutil.Int("LEXICORE_PAGERANK_ITERATIONS", 100),

		ConceptMinClusterSize: envutil.Int("LEXICORE_CONCEPT_MIN_CLUSTER_SIZE", 50),
		ConceptMinSamples:     envutil.Int("LEXICORE_CONCEPT_MIN_SAMPLES", 10),
		ConceptMinSimilarity:  envutil.Float("LEXICORE_CONCEPT_MIN_SIMILARITY", 0.5),

		LogMode: envutil.String("LEXICORE_LOG_MODE", "development"),
	}

	if log != nil {
		log.Debug("config_loaded",
			"clean_batch", cfg.CleanBatch,
			"embed_batch", cfg.EmbedBatch,
			"writer_workers", cfg.WriterWorkers,
		)
	}

	return cfg
}
