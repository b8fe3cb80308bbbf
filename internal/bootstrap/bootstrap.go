package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfriesen/litgraph/internal/config"
	"github.com/mfriesen/litgraph/internal/core/ports"
	"github.com/mfriesen/litgraph/internal/core/usecase"
	neo4jgraph "github.com/mfriesen/litgraph/internal/infrastructure/graph/neo4j"
	"github.com/mfriesen/litgraph/internal/infrastructure/llm/ollama"
	"github.com/mfriesen/litgraph/internal/infrastructure/queue/nats"
	"github.com/mfriesen/litgraph/internal/infrastructure/ranking"
	"github.com/mfriesen/litgraph/internal/infrastructure/repository/postgres"
	"github.com/mfriesen/litgraph/internal/infrastructure/resilience"
	"github.com/mfriesen/litgraph/internal/infrastructure/spreadsheet"
	"github.com/mfriesen/litgraph/internal/infrastructure/storage/localfs"
	"github.com/mfriesen/litgraph/internal/infrastructure/vector/qdrant"
	"github.com/mfriesen/litgraph/internal/observability/logging"
)

// App wires the full dependency graph once and hands the entry points what
// they need. Both binaries (api and worker) share this assembly.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue   ports.MessageQueue
	Corpora ports.CorpusRepository
	Papers  ports.PaperRepository

	Semantic ports.SimilarityIndex

	IngestUC  ports.CorpusIngestor
	ProcessUC ports.CorpusProcessor
	AskUC     ports.QuestionService

	closeFn func(context.Context)
}

func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	papers := postgres.NewPaperRepository(db)
	corpora := postgres.NewCorpusRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorClient := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	semantic := qdrant.NewIndex(vectorClient, embedder)

	graph, err := neo4jgraph.NewIndex(neo4jgraph.Config{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, executor, logger)
	if err != nil {
		return nil, fmt.Errorf("init graph index: %w", err)
	}

	ranks, err := ranking.Load(cfg.VHBRankingPath, cfg.ABDCRankingPath)
	if err != nil {
		return nil, fmt.Errorf("load journal rankings: %w", err)
	}
	parser := spreadsheet.NewParser(ranks, logger)

	classifier := usecase.NewIntentClassifier(graph)
	retriever := usecase.NewHybridRetriever(semantic, graph, papers, usecase.RetrievalConfig{
		TopK:       cfg.RetrievalTopK,
		MinScore:   cfg.RetrievalMinScore,
		MaxResults: cfg.RetrievalMaxResults,
	})
	evidenceMetrics := usecase.NewEvidenceMetrics(usecase.MetricsConfig{
		FewSources:    cfg.CaveatFewSources,
		CoverageRatio: cfg.CaveatCoverageRatio,
		YearSpan:      cfg.CaveatYearSpan,
	})
	synthesizer := usecase.NewSynthesizer(generator, usecase.SynthesisConfig{
		MaxTokens:     cfg.SynthesisMaxTokens,
		SnippetLength: cfg.SynthesisSnippetLength,
	})

	ingestUC := usecase.NewIngestCorpusUseCase(corpora, storage, queue)
	processUC := usecase.NewProcessCorpusUseCase(corpora, storage, parser, papers, semantic, graph)
	askUC := usecase.NewAskUseCase(classifier, retriever, evidenceMetrics, synthesizer, papers)

	logger.Info("app_wired", "service", service)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:   queue,
		Corpora: corpora,
		Papers:  papers,

		Semantic: semantic,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AskUC:     askUC,

		closeFn: func(closeCtx context.Context) {
			queue.Close()
			if err := graph.Close(closeCtx); err != nil {
				logger.Warn("graph close error", "error", err)
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}
