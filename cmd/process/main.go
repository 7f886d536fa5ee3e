// Command process runs the canonical enrichment pipeline (spec.md
// §4.6): it streams entries lacking an embedding, computes embeddings
// in accelerator-batched calls through a two-level cache, and writes
// the vectors back under backpressure. When --analyze is set it
// follows enrichment with the concept-alignment / cognate-graph /
// similarity-composition phase (C10 -> C9 -> C11) over the now-embedded
// collection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-backend/internal/clients/openai"
	"github.com/yungbote/neurobridge-backend/internal/concepts"
	"github.com/yungbote/neurobridge-backend/internal/embedding"
	"github.com/yungbote/neurobridge-backend/internal/external"
	"github.com/yungbote/neurobridge-backend/internal/graphkernel/neo4jexport"
	"github.com/yungbote/neurobridge-backend/internal/lexconfig"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	pkglogger "github.com/yungbote/neurobridge-backend/internal/pkg/logger"
	"github.com/yungbote/neurobridge-backend/internal/pipeline"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/neo4jdb"
	"github.com/yungbote/neurobridge-backend/internal/similarity"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
)

const (
	exitOK        = 0
	exitUsage     = 2
	exitInput     = 65
	exitInternal  = 70
	exitIO        = 74
	exitRetriable = 75
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		source     string
		language   string
		embedBatch int
		writers    int
		resumeFrom string
		analyze    bool
	)
	flag.StringVar(&source, "source", "", "source id (informational; entries are scanned by language)")
	flag.StringVar(&language, "language", "", "language code filter (empty = all)")
	flag.IntVar(&embedBatch, "embed-batch", 0, "embedding batch size")
	flag.IntVar(&writers, "writers", 0, "entry-update writer worker count")
	flag.StringVar(&resumeFrom, "resume-from", "", "checkpoint file to resume from")
	flag.BoolVar(&analyze, "analyze", false, "run concept alignment and cognate-graph analysis after enrichment")
	flag.Parse()

	log, err := logger.New("development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		return exitInternal
	}
	defer log.Sync()

	clientLog, err := pkglogger.New("development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		return exitInternal
	}

	cfg := lexconfig.Load(log)
	if embedBatch > 0 {
		cfg.EmbedBatch = embedBatch
	}
	if writers > 0 {
		cfg.WriterWorkers = writers
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres connect: %v\n", err)
		return exitIO
	}
	defer pool.Close()

	typed := typedstore.New(pool, log, 768)
	if err := typed.EnsureSchema(ctx); err != nil {
		return exitCodeFor(err)
	}

	provider, err := openai.NewClient(clientLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "embedding provider init: %v\n", err)
		return exitInternal
	}

	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	embedder := embedding.New(provider, redisClient, 100000, cfg.EmbeddingCacheTTL, log)

	checkpointPath := resumeFrom
	if checkpointPath == "" {
		checkpointPath = filepath.Join(cfg.CheckpointDir, "process_"+safeName(source, language)+".json")
	}
	checkpoint, err := pipeline.LoadCheckpoint(checkpointPath, "process")
	if err != nil {
		return exitCodeFor(err)
	}

	saverCtx, stopSaver := context.WithCancel(ctx)
	defer stopSaver()
	go pipeline.PeriodicSaver(saverCtx, checkpoint, cfg.CheckpointInterval, func(err error) {
		log.Warn("checkpoint_save_failed", "error", err)
	})

	sink := pipeline.NewErrorSink(time.Minute, 50, func(rate float64) {
		log.Error("error_rate_exceeded", "rate_per_sec", rate)
	})

	ecfg := pipeline.EnrichConfig{
		LanguageCode:  language,
		EmbedBatch:    cfg.EmbedBatch,
		IdleTimeout:   2 * time.Second,
		WriterWorkers: cfg.WriterWorkers,
		QueueCapMult:  cfg.QueueCapMult,
	}

	result, err := pipeline.RunEnrich(ctx, ecfg, typed, embedder, checkpoint, sink, log)
	if err != nil {
		log.Error("enrich_failed", "error", err)
		checkpoint.Save()
		return exitCodeFor(err)
	}
	checkpoint.Save()

	stats := embedder.Stats()
	fmt.Printf("enrich complete: scanned=%d skipped=%d embedded=%d written=%d cache_hit_rate=%.3f\n",
		result.Scanned, result.Skipped, result.Embedded, result.Written, stats.HitRate())

	if !analyze {
		return exitOK
	}

	aligner := concepts.New(concepts.DefaultConfig())
	distances := external.NewDistanceTable(nil)

	acfg := pipeline.AnalysisConfig{
		LanguageCode:       language,
		GraphThreshold:     cfg.GraphThreshold,
		PageRankDamping:    cfg.PageRankDamping,
		PageRankIterations: cfg.PageRankIterations,
		SimilarityPreset:   similarity.PresetBalanced,
		WriteBatch:         cfg.CleanBatch,
	}

	analysisResult, err := pipeline.RunAnalysis(ctx, acfg, typed, aligner, distances, log)
	if err != nil {
		log.Error("analysis_failed", "error", err)
		return exitCodeFor(err)
	}

	fmt.Printf("analysis complete: entries=%d concepts=%d edges=%d cognate_clusters=%d\n",
		analysisResult.EntriesScanned, len(analysisResult.Concepts), analysisResult.Edges, len(analysisResult.CognateClusters))

	if err := exportGraph(ctx, log, source, language, analysisResult); err != nil {
		log.Warn("graph_export_failed", "error", err)
	}

	return exitOK
}

// exportGraph mirrors a cognate-graph snapshot into Neo4j for interactive
// traversal, when NEO4J_URI is configured. It is best-effort: a missing
// or unreachable Neo4j deployment must never fail an otherwise-successful
// analysis run.
func exportGraph(ctx context.Context, log *logger.Logger, source, language string, analysisResult pipeline.AnalysisResult) error {
	neoLog, err := logger.New("development")
	if err != nil {
		return err
	}
	neoClient, err := neo4jdb.NewFromEnv(neoLog)
	if err != nil {
		return err
	}
	if neoClient == nil {
		return nil
	}
	defer neoClient.Close(ctx)

	return neo4jexport.Export(ctx, neoClient, neoLog, neo4jexport.Snapshot{
		RunID:       safeName(source, language),
		Edges:       analysisResult.GraphEdges,
		Components:  analysisResult.GraphComponents,
		Communities: analysisResult.Communities,
		PageRank:    analysisResult.PageRank,
	})
}

func safeName(parts ...string) string {
	name := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if name != "" {
			name += "_"
		}
		name += p
	}
	if name == "" {
		name = "default"
	}
	return name
}

func exitCodeFor(err error) int {
	switch {
	case lexerr.IsKind(err, lexerr.Invalid):
		return exitInput
	case lexerr.IsKind(err, lexerr.ResourceMissing):
		return exitIO
	case lexerr.IsKind(err, lexerr.Transient):
		return exitRetriable
	case lexerr.IsKind(err, lexerr.Integrity):
		return exitInternal
	default:
		return exitInternal
	}
}
